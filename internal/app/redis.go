package app

import (
	"cache-factory/internal/cache/distributed"
	"cache-factory/internal/common/logging"
	"cache-factory/internal/locks"
	"cache-factory/internal/redis"
)

func (app *App) initializeRedis() error {
	redisConfig := &redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       app.Config.RedisDBNumber(),
		PoolSize: app.Config.RedisPoolSizeNumber(),
	}

	redisClient, err := redis.NewClient(redisConfig)
	if err != nil {
		return err
	}

	locker, err := locks.NewRedsyncLocker(redisClient.Raw(), 0)
	if err != nil {
		redisClient.Close()
		return err
	}

	app.RedisClient = redisClient
	app.Distributed = distributed.NewManager(redisClient.Raw(), distributed.Options{
		Container: app.Config.ContainerName,
		KeyPrefix: app.Config.DistributedKeyPrefix,
		Locker:    locker,
	})

	app.Logger.Info("Redis: Connected",
		logging.String("address", redisClient.Address()),
		logging.String("key_prefix", app.Config.DistributedKeyPrefix),
	)
	return nil
}

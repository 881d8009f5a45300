// Package cache builds named cache handles on top of engine managers.
//
// A Factory owns four pieces of shared state: the creators registered per
// configuration kind and implementation alias, the custom templates
// registered per cache name, the engine managers keyed by their global
// configuration, and the process-wide default manager. CreateCache resolves
// the creation path for a request, neutralizes the engine configuration and
// hands it to the selected Creator together with a lazy supplier of the
// engine-level cache.
//
// Managers built for custom templates are deduplicated on their global
// configuration after it has been qualified with the container name, so
// concurrent requests for caches sharing an equal configuration observe a
// single started manager.
//
// Basic usage:
//
//	factory, err := cache.NewFactory(cache.Options{
//		Container:        "portal",
//		TemplateLocation: "builtin:default.yaml",
//	})
//	if err != nil {
//		return err
//	}
//
//	users, err := factory.CreateCache(ctx, cache.RequestConfig{Name: "users", MaxSize: 500})
package cache

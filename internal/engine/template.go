package engine

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultManagerName names a manager whose template leaves it empty.
	DefaultManagerName = "DefaultCacheManager"
	// DefaultWakeUpInterval is the expiration sweep period when unset.
	DefaultWakeUpInterval = 5 * time.Second
)

// Template is a parsed manager template.
type Template struct {
	Global  GlobalConfig
	Default Config
}

type templateDocument struct {
	Global struct {
		ManagerName string `yaml:"manager_name"`
		ClusterName string `yaml:"cluster_name"`
		Transport   string `yaml:"transport"`
		JMXSuffix   string `yaml:"jmx_suffix"`
	} `yaml:"global"`
	Default configDocument `yaml:"default"`
}

type configDocument struct {
	Mode               string `yaml:"mode"`
	InvocationBatching bool   `yaml:"invocation_batching"`
	Eviction           struct {
		Strategy   string `yaml:"strategy"`
		MaxEntries *int   `yaml:"max_entries"`
	} `yaml:"eviction"`
	Expiration struct {
		Lifespan       string `yaml:"lifespan"`
		MaxIdle        string `yaml:"max_idle"`
		WakeUpInterval string `yaml:"wake_up_interval"`
	} `yaml:"expiration"`
	Properties map[string]string `yaml:"properties"`
}

// ParseTemplate decodes a YAML template. Unknown keys are rejected so that a
// misspelled setting does not silently fall back to a default.
func ParseTemplate(data []byte) (*Template, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty template")
	}

	var doc templateDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}

	global := GlobalConfig{
		ManagerName:     strings.TrimSpace(doc.Global.ManagerName),
		ClusterName:     strings.TrimSpace(doc.Global.ClusterName),
		Transport:       strings.TrimSpace(doc.Global.Transport),
		JMXNamingSuffix: strings.TrimSpace(doc.Global.JMXSuffix),
	}
	if global.ManagerName == "" {
		global.ManagerName = DefaultManagerName
	}

	cfg, err := doc.Default.toConfig()
	if err != nil {
		return nil, err
	}

	return &Template{Global: global, Default: cfg}, nil
}

func (d configDocument) toConfig() (Config, error) {
	mode, err := ParseClusterMode(d.Mode)
	if err != nil {
		return Config{}, err
	}

	strategy, err := ParseEvictionStrategy(d.Eviction.Strategy)
	if err != nil {
		return Config{}, err
	}

	maxEntries := -1
	if d.Eviction.MaxEntries != nil {
		maxEntries = *d.Eviction.MaxEntries
	}

	lifespan, err := parseExpiry("lifespan", d.Expiration.Lifespan)
	if err != nil {
		return Config{}, err
	}
	maxIdle, err := parseExpiry("max_idle", d.Expiration.MaxIdle)
	if err != nil {
		return Config{}, err
	}

	wakeUp := DefaultWakeUpInterval
	if s := strings.TrimSpace(d.Expiration.WakeUpInterval); s != "" {
		wakeUp, err = time.ParseDuration(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid wake_up_interval %q: %w", s, err)
		}
	}

	cfg := Config{
		Mode:               mode,
		InvocationBatching: d.InvocationBatching,
		Eviction: Eviction{
			Strategy:   strategy,
			MaxEntries: maxEntries,
		},
		Expiration: Expiration{
			Lifespan:       lifespan,
			MaxIdle:        maxIdle,
			WakeUpInterval: wakeUp,
		},
	}
	if len(d.Properties) > 0 {
		cfg.Properties = d.Properties
	}
	return cfg, nil
}

// parseExpiry accepts a Go duration or a bare integer of milliseconds. Zero,
// negative values, "never" and the empty string all mean no expiry.
func parseExpiry(field, s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "never", "-1":
		return NeverExpire, nil
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms <= 0 {
			return NeverExpire, nil
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d <= 0 {
		return NeverExpire, nil
	}
	return d, nil
}

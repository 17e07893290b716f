package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SBSServers  []SBSServerConfig  `yaml:"sbs_servers"`
	MQTTBrokers []MQTTBrokerConfig `yaml:"mqtt_brokers"`

	Audit  AuditConfig  `yaml:"audit"`
	Tracks TracksConfig `yaml:"tracks"`
	Feeds  FeedsConfig  `yaml:"feeds"`
	Web    WebConfig    `yaml:"web"`
	Log    LogConfig    `yaml:"log"`
	HexDB  HexDBConfig  `yaml:"hexdb"`
}

// SBSServerConfig describes one TCP feed serving SBS-1 lines, such as
// dump1090 on port 30003.
type SBSServerConfig struct {
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (s SBSServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type MQTTBrokerConfig struct {
	Name      string        `yaml:"name"`
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Topic     string        `yaml:"topic"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	KeepAlive time.Duration `yaml:"keep_alive"`
}

type AuditConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type TracksConfig struct {
	EvictInterval time.Duration `yaml:"evict_interval"`
	EvictAfter    time.Duration `yaml:"evict_after"`
}

type FeedsConfig struct {
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type WebConfig struct {
	// Listen is the HTTP listen address. Empty disables the web server.
	Listen string `yaml:"listen"`
}

type LogConfig struct {
	// Path enables a rotating log file in addition to stderr.
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type HexDBConfig struct {
	Enable            bool   `yaml:"enable"`
	BaseURL           string `yaml:"base_url"`
	CachePath         string `yaml:"cache_path"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultAndValidate fills unset fields with defaults and rejects configs
// the runtime cannot start from.
func DefaultAndValidate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if len(cfg.SBSServers) == 0 && len(cfg.MQTTBrokers) == 0 {
		return fmt.Errorf("at least one of sbs_servers or mqtt_brokers is required")
	}

	names := map[string]string{}
	claim := func(key, name string) error {
		if prev, ok := names[name]; ok {
			return fmt.Errorf("%s.name %q duplicates %s.name", key, name, prev)
		}
		names[name] = key
		return nil
	}

	for i := range cfg.SBSServers {
		s := &cfg.SBSServers[i]
		key := fmt.Sprintf("sbs_servers[%d]", i)
		s.Host = strings.TrimSpace(s.Host)
		if s.Host == "" {
			return fmt.Errorf("%s.host is required", key)
		}
		if s.Port == 0 {
			s.Port = 30003
		}
		if s.Port < 0 || s.Port > 65535 {
			return fmt.Errorf("%s.port must be 1..65535", key)
		}
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			s.Name = s.Addr()
		}
		if strings.Contains(s.Name, ",") {
			return fmt.Errorf("%s.name must not contain ','", key)
		}
		if err := claim(key, s.Name); err != nil {
			return err
		}
	}

	for i := range cfg.MQTTBrokers {
		m := &cfg.MQTTBrokers[i]
		key := fmt.Sprintf("mqtt_brokers[%d]", i)
		m.Host = strings.TrimSpace(m.Host)
		if m.Host == "" {
			return fmt.Errorf("%s.host is required", key)
		}
		m.Topic = strings.TrimSpace(m.Topic)
		if m.Topic == "" {
			return fmt.Errorf("%s.topic is required", key)
		}
		// The topic labels audit records.
		if strings.Contains(m.Topic, ",") {
			return fmt.Errorf("%s.topic must not contain ','", key)
		}
		if m.Port == 0 {
			m.Port = 1883
		}
		if m.Port < 0 || m.Port > 65535 {
			return fmt.Errorf("%s.port must be 1..65535", key)
		}
		if m.KeepAlive == 0 {
			m.KeepAlive = 30 * time.Second
		}
		if m.KeepAlive < time.Second {
			return fmt.Errorf("%s.keep_alive must be >= 1s", key)
		}
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			m.Name = fmt.Sprintf("%s:%d/%s", m.Host, m.Port, m.Topic)
		}
		if err := claim(key, m.Name); err != nil {
			return err
		}
	}

	if cfg.Audit.Enable && strings.TrimSpace(cfg.Audit.Path) == "" {
		cfg.Audit.Path = "raw_messages.log"
	}

	if cfg.Tracks.EvictInterval == 0 {
		cfg.Tracks.EvictInterval = 10 * time.Second
	}
	if cfg.Tracks.EvictAfter == 0 {
		cfg.Tracks.EvictAfter = 60 * time.Second
	}
	if cfg.Tracks.EvictInterval < 0 {
		return fmt.Errorf("tracks.evict_interval must be > 0")
	}
	if cfg.Tracks.EvictAfter < cfg.Tracks.EvictInterval {
		return fmt.Errorf("tracks.evict_after must be >= tracks.evict_interval")
	}

	if cfg.Feeds.ReconnectDelay == 0 {
		cfg.Feeds.ReconnectDelay = 5 * time.Second
	}
	if cfg.Feeds.ReconnectDelay < 0 {
		return fmt.Errorf("feeds.reconnect_delay must be > 0")
	}

	cfg.Web.Listen = strings.TrimSpace(cfg.Web.Listen)

	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 32
	}
	if cfg.Log.MaxBackups < 0 {
		return fmt.Errorf("log.max_backups must be >= 0")
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}

	if cfg.HexDB.Enable {
		if strings.TrimSpace(cfg.HexDB.BaseURL) == "" {
			cfg.HexDB.BaseURL = "https://hexdb.io/api/v1"
		}
		if strings.TrimSpace(cfg.HexDB.CachePath) == "" {
			cfg.HexDB.CachePath = "aircraft.db"
		}
		if cfg.HexDB.RequestsPerMinute == 0 {
			cfg.HexDB.RequestsPerMinute = 30
		}
		if cfg.HexDB.RequestsPerMinute < 0 {
			return fmt.Errorf("hexdb.requests_per_minute must be > 0")
		}
		if cfg.Web.Listen == "" {
			return fmt.Errorf("hexdb.enable requires web.listen")
		}
	}

	return nil
}

package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"netexam/internal/domain"
)

type Config struct {
	Server struct {
		Port      string `yaml:"port"`
		AdminPort string `yaml:"admin_port"`
		TCPAddr   string `yaml:"tcp_addr"`
		Workers   int    `yaml:"workers"`
	} `yaml:"server"`
	Exam struct {
		ID        string `yaml:"id"`
		Duration  string `yaml:"duration"`
		StateFile string `yaml:"state_file"`
	} `yaml:"exam"`
	Roster    []domain.Credential `yaml:"roster"`
	Broadcast struct {
		ControlAddr string `yaml:"control_addr"`
		FanoutAddr  string `yaml:"fanout_addr"`
		Embedded    *bool  `yaml:"embedded"`
		NATSURL     string `yaml:"nats_url"`
		NATSSubject string `yaml:"nats_subject"`
	} `yaml:"broadcast"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Default exam settings.
const (
	DefaultExamID    = "exam-1"
	DefaultDuration  = 60 * time.Second
	DefaultStateFile = "exam_state.json"
	DefaultPort      = "8081"
	DefaultAdminPort = "8080"

	DefaultControlAddr = "127.0.0.1:9877"
	DefaultFanoutAddr  = "255.255.255.255:9876"
	DefaultNATSSubject = "exam.countdown"
)

// Load reads YAML config from path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.AdminPort == "" {
		c.Server.AdminPort = DefaultAdminPort
	}
	if c.Exam.ID == "" {
		c.Exam.ID = DefaultExamID
	}
	if c.Exam.StateFile == "" {
		c.Exam.StateFile = DefaultStateFile
	}
	if len(c.Roster) == 0 {
		c.Roster = domain.DefaultRoster()
	}
	if c.Broadcast.ControlAddr == "" {
		c.Broadcast.ControlAddr = DefaultControlAddr
	}
	if c.Broadcast.FanoutAddr == "" {
		c.Broadcast.FanoutAddr = DefaultFanoutAddr
	}
	if c.Broadcast.NATSSubject == "" {
		c.Broadcast.NATSSubject = DefaultNATSSubject
	}
}

// ExamDuration is the configured countdown length.
func (c Config) ExamDuration() time.Duration {
	return Duration(c.Exam.Duration, DefaultDuration)
}

// EmbeddedBroadcaster reports whether serve runs the countdown in-process.
// Unset means yes.
func (c Config) EmbeddedBroadcaster() bool {
	return c.Broadcast.Embedded == nil || *c.Broadcast.Embedded
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}

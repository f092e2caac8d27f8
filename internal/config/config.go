package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"exam-drill-service/internal/domain"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Datasets struct {
		Dir string `yaml:"dir"`
		TTL string `yaml:"ttl"`
	} `yaml:"datasets"`
	Quiz struct {
		PassMark                int  `yaml:"pass_mark"`
		HistoryLimit            int  `yaml:"history_limit"`
		DefaultTimeLimitMinutes int  `yaml:"default_time_limit_minutes"`
		DefaultQuestionCount    int  `yaml:"default_question_count"`
		SkipIntro               bool `yaml:"skip_intro"`
	} `yaml:"quiz"`
	Gestures struct {
		WheelThreshold       float64 `yaml:"wheel_threshold"`
		WheelCooldown        string  `yaml:"wheel_cooldown"`
		SwipeThreshold       float64 `yaml:"swipe_threshold"`
		BoundaryTolerance    float64 `yaml:"boundary_tolerance"`
		HorizontalResistance float64 `yaml:"horizontal_resistance"`
		VerticalResistance   float64 `yaml:"vertical_resistance"`
	} `yaml:"gestures"`
	Exams []domain.ExamInfo `yaml:"exams"`
}

// Load reads YAML config from path, then fills defaults and validates.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	Normalize(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Default is the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	Normalize(&cfg)
	return cfg
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

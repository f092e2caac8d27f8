package config

import "exam-drill-service/internal/bank"

// Normalize fills unset fields with their defaults.
func Normalize(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Redis.TTL == "" {
		cfg.Redis.TTL = "10m"
	}
	if cfg.Datasets.TTL == "" {
		cfg.Datasets.TTL = "10m"
	}
	q := &cfg.Quiz
	if q.PassMark == 0 {
		q.PassMark = 72
	}
	if q.HistoryLimit == 0 {
		q.HistoryLimit = 50
	}
	if q.DefaultTimeLimitMinutes == 0 {
		q.DefaultTimeLimitMinutes = 120
	}
	if q.DefaultQuestionCount == 0 {
		q.DefaultQuestionCount = 65
	}

	g := &cfg.Gestures
	if g.WheelThreshold == 0 {
		g.WheelThreshold = 30
	}
	if g.WheelCooldown == "" {
		g.WheelCooldown = "600ms"
	}
	if g.SwipeThreshold == 0 {
		g.SwipeThreshold = 100
	}
	if g.BoundaryTolerance == 0 {
		g.BoundaryTolerance = 2
	}
	if g.HorizontalResistance == 0 {
		g.HorizontalResistance = 0.8
	}
	if g.VerticalResistance == 0 {
		g.VerticalResistance = 0.5
	}

	if len(cfg.Exams) == 0 {
		cfg.Exams = bank.DefaultCatalog()
	}
}

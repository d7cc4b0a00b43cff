package main

import (
	"os"

	"go.uber.org/zap"
)

func main() {
	path := "config.txt"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := loadConfig(path)
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	if err != nil {
		log.Warn("no config loaded, using defaults", zap.String("path", path), zap.Error(err))
	} else {
		log.Info("config loaded", zap.String("path", path))
	}

	if cfg.PolicyPort > 0 {
		go runPolicy(cfg.PolicyPort, log)
	}
	if cfg.MetricsPort > 0 {
		go serveMetrics(cfg.MetricsPort, log)
	}

	if err := newServer(cfg, log).run(); err != nil {
		log.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}

package main

import (
	"flag"
	"os"
)

type Config struct {
	Addr       string
	LogLevel   string
	LogConsole bool
	MosaicDir  string
}

// Configuration for footprintd
func LoadConfig() Config {
	var cfg Config
	cfg.Addr = getEnv("FOOTPRINTD_ADDR", ":8095")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.MosaicDir = getEnv("MOSAIC_DIR", ".")

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")
	flag.BoolVar(&cfg.LogConsole, "log-console", false, "human readable log output")
	flag.StringVar(&cfg.MosaicDir, "mosaic", cfg.MosaicDir, "mosaic folder to serve footprints for")
	flag.Parse()
	return cfg
}

func getEnv(k, def string) string {
	value := os.Getenv(k)
	if value != "" {
		return value
	}
	return def
}

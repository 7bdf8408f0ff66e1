package main

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port           int `yaml:"port"`
		RequestTimeout int `yaml:"request_timeout"`
	} `yaml:"server"`
	Grid struct {
		TargetSize      int    `yaml:"target_size"`
		JPEGQuality     int    `yaml:"jpeg_quality"`
		MaxPhotos       int    `yaml:"max_photos"`
		DownloadTimeout int    `yaml:"download_timeout"`
		FontPath        string `yaml:"font_path"`
		LayoutMode      string `yaml:"layout_mode"`
	} `yaml:"grid"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Worker struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"worker"`
	Cache struct {
		Dir string `yaml:"dir"`
	} `yaml:"cache"`
}

func defaultConfig() Config {
	var c Config
	c.Server.Port = 3000
	c.Server.RequestTimeout = 120
	c.Grid.TargetSize = 1200
	c.Grid.JPEGQuality = 92
	c.Grid.MaxPhotos = 10
	c.Grid.DownloadTimeout = 30
	c.Grid.LayoutMode = "flexible"
	c.Worker.Concurrency = 4
	return c
}

// loadConfig reads config.yml if present, then applies GRID_* environment
// overrides on top.
func loadConfig() Config {
	c := defaultConfig()

	if configFile, err := os.Open("config.yml"); err == nil {
		defer configFile.Close()
		if err := yaml.NewDecoder(configFile).Decode(&c); err != nil {
			logger.Warnf("Ignoring malformed config.yml: %v", err)
			c = defaultConfig()
		}
	}

	c.Server.Port = envInt("GRID_PORT", c.Server.Port)
	c.Server.RequestTimeout = envInt("GRID_REQUEST_TIMEOUT", c.Server.RequestTimeout)
	c.Grid.TargetSize = envInt("GRID_TARGET_SIZE", c.Grid.TargetSize)
	c.Grid.JPEGQuality = envInt("GRID_JPEG_QUALITY", c.Grid.JPEGQuality)
	c.Grid.MaxPhotos = envInt("GRID_MAX_PHOTOS", c.Grid.MaxPhotos)
	c.Grid.DownloadTimeout = envInt("GRID_DOWNLOAD_TIMEOUT", c.Grid.DownloadTimeout)
	c.Grid.FontPath = envString("GRID_FONT_PATH", c.Grid.FontPath)
	c.Grid.LayoutMode = envString("GRID_LAYOUT_MODE", c.Grid.LayoutMode)
	c.Redis.Addr = envString("GRID_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envString("GRID_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = envInt("GRID_REDIS_DB", c.Redis.DB)
	c.Worker.Concurrency = envInt("GRID_WORKER_CONCURRENCY", c.Worker.Concurrency)
	c.Cache.Dir = envString("GRID_CACHE_DIR", c.Cache.Dir)

	if c.Grid.LayoutMode != "flexible" && c.Grid.LayoutMode != "square" {
		logger.Warnf("Unknown layout mode %q, falling back to flexible", c.Grid.LayoutMode)
		c.Grid.LayoutMode = "flexible"
	}

	return c
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warnf("Ignoring non-numeric %s=%q", key, v)
		return fallback
	}
	return n
}

// searchConfigFor maps the configured layout mode to its search parameters.
func searchConfigFor(mode string) SearchConfig {
	if mode == "square" {
		return squareSearchConfig()
	}
	return flexibleSearchConfig()
}

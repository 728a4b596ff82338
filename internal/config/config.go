package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/atharv3903/meetcast/internal/algo"
	"github.com/atharv3903/meetcast/internal/loader"
)

// Common holds the settings shared by every binary.
type Common struct {
	SpeedScale      float64 `yaml:"speed_scale"`
	Workers         int     `yaml:"workers"`
	StrictEdgeCount bool    `yaml:"strict_edge_count"`
	MaxVertices     int     `yaml:"max_vertices"`
	LogLevel        string  `yaml:"log_level"`
}

type ServerConfig struct {
	Common         `yaml:",inline"`
	MySQLDSN       string `yaml:"dsn"`
	Addr           string `yaml:"addr"`
	GraphCacheSize int    `yaml:"graph_cache_size"`
}

type CLIConfig struct {
	Common
	File   string
	Speeds []string
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c *Common) register(fs *flag.FlagSet) {
	fs.Float64Var(&c.SpeedScale, "speed-scale", envFloat("MEETCAST_SPEED_SCALE", algo.DefaultSpeedScale),
		"factor converting contestant speeds into edge-weight units per time unit")
	fs.IntVar(&c.Workers, "workers", envInt("MEETCAST_WORKERS", 1), "concurrent shortest-path searches")
	fs.BoolVar(&c.StrictEdgeCount, "strict", false, "require the declared edge count to match")
	fs.IntVar(&c.MaxVertices, "max-vertices", envInt("MEETCAST_MAX_VERTICES", loader.DefaultMaxVertices),
		"largest vertex count accepted from a network description")
	fs.StringVar(&c.LogLevel, "log-level", envString("MEETCAST_LOG_LEVEL", "info"), "debug|info|warn|error")
}

// overlay copies fields from a YAML file into dst, skipping any flag that was
// set explicitly on the command line.
func overlay(fs *flag.FlagSet, path string, dst any, fields map[string]func()) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	for name, restore := range fields {
		if explicit[name] {
			restore()
		}
	}
	return nil
}

// ParseServer reads server settings. Precedence: flag > YAML file > env > default.
func ParseServer(args []string) (ServerConfig, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	var cfg ServerConfig
	var path string
	cfg.Common.register(fs)
	fs.StringVar(&cfg.MySQLDSN, "dsn", os.Getenv("DB_DSN"), "MySQL DSN")
	fs.StringVar(&cfg.Addr, "addr", ":8080", "HTTP bind address")
	fs.IntVar(&cfg.GraphCacheSize, "graph-cache", envInt("MEETCAST_GRAPH_CACHE", 64), "networks kept in memory")
	fs.StringVar(&path, "config", os.Getenv("MEETCAST_CONFIG"), "YAML config file")
	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	flagged := cfg
	err := overlay(fs, path, &cfg, map[string]func(){
		"speed-scale":  func() { cfg.SpeedScale = flagged.SpeedScale },
		"workers":      func() { cfg.Workers = flagged.Workers },
		"strict":       func() { cfg.StrictEdgeCount = flagged.StrictEdgeCount },
		"max-vertices": func() { cfg.MaxVertices = flagged.MaxVertices },
		"log-level":    func() { cfg.LogLevel = flagged.LogLevel },
		"dsn":          func() { cfg.MySQLDSN = flagged.MySQLDSN },
		"addr":         func() { cfg.Addr = flagged.Addr },
		"graph-cache":  func() { cfg.GraphCacheSize = flagged.GraphCacheSize },
	})
	if err != nil {
		return ServerConfig{}, err
	}
	return cfg, cfg.Common.validate()
}

// FromFlagsServer parses os.Args and exits on bad input.
func FromFlagsServer() ServerConfig {
	cfg, err := ParseServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

// ParseCLI reads `[flags] <file> <sA> <sB> <sC>`.
func ParseCLI(args []string) (CLIConfig, error) {
	fs := flag.NewFlagSet("meetcast", flag.ContinueOnError)

	var cfg CLIConfig
	var path string
	cfg.Common.register(fs)
	fs.StringVar(&path, "config", os.Getenv("MEETCAST_CONFIG"), "YAML config file")
	if err := fs.Parse(args); err != nil {
		return CLIConfig{}, err
	}
	if fs.NArg() != 4 {
		return CLIConfig{}, fmt.Errorf("usage: meetcast [flags] <file> <sA> <sB> <sC>")
	}
	cfg.File = fs.Arg(0)
	cfg.Speeds = fs.Args()[1:]

	flagged := cfg.Common
	err := overlay(fs, path, &cfg.Common, map[string]func(){
		"speed-scale":  func() { cfg.SpeedScale = flagged.SpeedScale },
		"workers":      func() { cfg.Workers = flagged.Workers },
		"strict":       func() { cfg.StrictEdgeCount = flagged.StrictEdgeCount },
		"max-vertices": func() { cfg.MaxVertices = flagged.MaxVertices },
		"log-level":    func() { cfg.LogLevel = flagged.LogLevel },
	})
	if err != nil {
		return CLIConfig{}, err
	}
	return cfg, cfg.Common.validate()
}

func (c Common) validate() error {
	if c.SpeedScale <= 0 {
		return fmt.Errorf("speed_scale must be positive, got %v", c.SpeedScale)
	}
	if c.MaxVertices <= 0 {
		return fmt.Errorf("max_vertices must be positive, got %d", c.MaxVertices)
	}
	return nil
}

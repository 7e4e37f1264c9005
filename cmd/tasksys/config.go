package main

import (
	"fmt"
	"os"

	tasksys "github.com/Swind/go-task-system"
	"github.com/Swind/go-task-system/core"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Config is the run command configuration. Values come from an optional YAML
// file and are overridden by flags and TASKSYS_* environment variables.
type Config struct {
	Kind         string        `yaml:"kind"`
	Threads      int           `yaml:"threads"`
	Tasks        int           `yaml:"tasks"`
	Rounds       int           `yaml:"rounds"`
	Work         int           `yaml:"work"`
	Wait         string        `yaml:"wait"`
	LockOSThread bool          `yaml:"lock-os-thread"`
	PinCPUs      bool          `yaml:"pin-cpus"`
	MetricsAddr  string        `yaml:"metrics-addr"`
	Logging      LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
}

func defaultConfig() Config {
	return Config{
		Kind:    string(tasksys.KindSleeping),
		Threads: 8,
		Tasks:   1024,
		Rounds:  10,
		Wait:    core.WaitDefault.String(),
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

func readConfigFile(fileName string) (Config, error) {
	cfg := defaultConfig()

	buf, err := os.ReadFile(fileName)
	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file",
			EnvVars: []string{"TASKSYS_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "kind",
			Aliases: []string{"k"},
			Usage:   "task system kind (serial, spawn, spinning, sleeping)",
			EnvVars: []string{"TASKSYS_KIND"},
		},
		&cli.IntFlag{
			Name:    "threads",
			Aliases: []string{"t"},
			Usage:   "worker count",
			EnvVars: []string{"TASKSYS_THREADS"},
		},
		&cli.IntFlag{
			Name:    "tasks",
			Aliases: []string{"n"},
			Usage:   "task indices per batch",
			EnvVars: []string{"TASKSYS_TASKS"},
		},
		&cli.IntFlag{
			Name:    "rounds",
			Aliases: []string{"r"},
			Usage:   "batches to run",
			EnvVars: []string{"TASKSYS_ROUNDS"},
		},
		&cli.IntFlag{
			Name:    "work",
			Usage:   "busy-loop iterations per task",
			EnvVars: []string{"TASKSYS_WORK"},
		},
		&cli.StringFlag{
			Name:    "wait",
			Usage:   "caller wait strategy (default, spin, block)",
			EnvVars: []string{"TASKSYS_WAIT"},
		},
		&cli.BoolFlag{
			Name:    "lock-os-thread",
			Usage:   "lock each worker to an OS thread",
			EnvVars: []string{"TASKSYS_LOCK_OS_THREAD"},
		},
		&cli.BoolFlag{
			Name:    "pin-cpus",
			Usage:   "pin worker w to CPU w modulo the CPU count (Linux only)",
			EnvVars: []string{"TASKSYS_PIN_CPUS"},
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			Usage:   "serve Prometheus metrics on this address, e.g. :2112",
			EnvVars: []string{"TASKSYS_METRICS_ADDR"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			EnvVars: []string{"TASKSYS_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "write logs to a rotating file instead of stderr",
			EnvVars: []string{"TASKSYS_LOG_FILE"},
		},
	}
}

// loadConfig merges the config file, when given, with flags and environment.
func loadConfig(c *cli.Context) (Config, error) {
	cfg := defaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = readConfigFile(path); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("kind") {
		cfg.Kind = c.String("kind")
	}
	if c.IsSet("threads") {
		cfg.Threads = c.Int("threads")
	}
	if c.IsSet("tasks") {
		cfg.Tasks = c.Int("tasks")
	}
	if c.IsSet("rounds") {
		cfg.Rounds = c.Int("rounds")
	}
	if c.IsSet("work") {
		cfg.Work = c.Int("work")
	}
	if c.IsSet("wait") {
		cfg.Wait = c.String("wait")
	}
	if c.IsSet("lock-os-thread") {
		cfg.LockOSThread = c.Bool("lock-os-thread")
	}
	if c.IsSet("pin-cpus") {
		cfg.PinCPUs = c.Bool("pin-cpus")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.Logging.File = c.String("log-file")
	}

	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	if _, err := tasksys.ParseKind(cfg.Kind); err != nil {
		return err
	}
	if _, err := core.ParseWaitStrategy(cfg.Wait); err != nil {
		return err
	}
	if cfg.Tasks < 0 {
		return fmt.Errorf("tasks must be >= 0, got %d", cfg.Tasks)
	}
	if cfg.Rounds < 1 {
		return fmt.Errorf("rounds must be >= 1, got %d", cfg.Rounds)
	}
	if cfg.Work < 0 {
		return fmt.Errorf("work must be >= 0, got %d", cfg.Work)
	}
	return nil
}

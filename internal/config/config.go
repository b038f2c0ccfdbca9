package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const FILE_MODE = "file"
const HTTP_MODE = "http"

const (
	defaultBufferSize         = 100
	defaultStartBuffer        = 100
	defaultPort               = 2020
	defaultStatisticsInterval = 5 * time.Second
)

type NavConf struct {
	Mode               string
	Input              InputConf     `yaml:"input"`
	Plugins            []PluginConf  `yaml:"plugins"`
	PluginsDir         string        `yaml:"plugins_dir"`
	Targets            []Target      `yaml:"targets"`
	BufferSize         int           `yaml:"buffer_size"`
	StartBuffer        int           `yaml:"start_buffer"`
	StatisticsInterval time.Duration `yaml:"statistics_interval"`
	Http               HTTPConf      `yaml:"http"`
	LogLevel           string        `yaml:"log_level"`
	slogLevel          slog.Level    `yaml:"omitempty"`
}

// InputConf configures the NMEA 0183 file follower used in file mode.
type InputConf struct {
	Files     []string `yaml:"files"`
	FromStart bool     `yaml:"from_start"`
	Poll      bool     `yaml:"poll"`
}

func (nc *NavConf) setLogLevel() {
	switch nc.LogLevel {
	case "DEBUG":
		nc.slogLevel = slog.LevelDebug
	case "INFO":
		nc.slogLevel = slog.LevelInfo
	case "WARN":
		nc.slogLevel = slog.LevelWarn
	case "ERROR":
		nc.slogLevel = slog.LevelError
	default:
		nc.slogLevel = slog.LevelInfo
	}
}

func (nc *NavConf) GetLogLevel() slog.Level {
	return nc.slogLevel
}

type HTTPConf struct {
	ListenPort    int    `yaml:"listen_port"`
	ListenAddress string `yaml:"listen_address"`
}

// Addr is the host:port the HTTP API listens on.
func (hc HTTPConf) Addr() string {
	return fmt.Sprintf("%s:%d", hc.ListenAddress, hc.ListenPort)
}

// ParseNavConfig reads and normalises the host configuration file.
func ParseNavConfig(path string) (conf NavConf, err error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return conf, fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	return ParseNavConfigBytes(file)
}

func ParseNavConfigBytes(raw []byte) (conf NavConf, err error) {
	if err = yaml.Unmarshal(raw, &conf); err != nil {
		return conf, fmt.Errorf("cannot parse config: %w", err)
	}
	if err = conf.normalize(); err != nil {
		return conf, err
	}
	return conf, nil
}

func (nc *NavConf) normalize() error {
	nc.setMode()
	nc.setBuffer()
	nc.setStartBuffer()
	nc.setPort()
	nc.setStatisticsInterval()
	nc.setLogLevel()

	for i := range nc.Targets {
		nc.Targets[i].Filter.Activate()
	}
	return nc.validatePlugins()
}

func (nc *NavConf) setBuffer() {
	if nc.BufferSize <= 0 {
		nc.BufferSize = defaultBufferSize
	}
}

func (nc *NavConf) setStartBuffer() {
	if nc.StartBuffer <= 0 {
		nc.StartBuffer = defaultStartBuffer
	}
}

func (nc *NavConf) setMode() {
	switch nc.Mode {
	case FILE_MODE:
		nc.Mode = FILE_MODE
	case HTTP_MODE:
		nc.Mode = HTTP_MODE
	default:
		nc.Mode = FILE_MODE
	}
}

func (nc *NavConf) setPort() {
	if nc.Http.ListenPort == 0 {
		nc.Http.ListenPort = defaultPort
	}
}

func (nc *NavConf) setStatisticsInterval() {
	if nc.StatisticsInterval <= 0 {
		nc.StatisticsInterval = defaultStatisticsInterval
	}
}

func (nc *NavConf) validatePlugins() error {
	seen := make(map[string]bool, len(nc.Plugins))
	for _, p := range nc.Plugins {
		if p.ID == "" {
			return fmt.Errorf("plugin entry without id")
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate plugin id %s", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

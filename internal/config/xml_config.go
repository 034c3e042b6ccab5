// Package config provides XML-based configuration management for plant-floor deployment.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/bytes"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"IagroSupervisory"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// PLC simulator configuration
	Simulator SimulatorConfig `xml:"Simulator"`

	// Canvas session configuration
	Session SessionConfig `xml:"Session"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port" validate:"min=1,max=65535"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds" validate:"gte=0"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds" validate:"gte=0"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds" validate:"gte=0"`
	BodyLimit    string `xml:"BodyLimit" validate:"required,bytesize"`
}

// StorageConfig contains background image storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory" validate:"required"`
	UploadsDirectory string `xml:"UploadsDirectory" validate:"required"`
	MaxUploadSize    string `xml:"MaxUploadSize" validate:"omitempty,bytesize"`
	AllowedFileTypes string `xml:"AllowedFileTypes"`
}

// SimulatorConfig contains PLC simulator settings
type SimulatorConfig struct {
	// VariablesFile is a YAML tag list; empty uses the built-in demo plant.
	VariablesFile     string  `xml:"VariablesFile"`
	TickIntervalMs    int     `xml:"TickIntervalMs" validate:"min=50"`
	Seed              int64   `xml:"Seed"`
	ToggleProbability float64 `xml:"ToggleProbability" validate:"gte=0,lte=1"`
}

// SessionConfig contains canvas session settings
type SessionConfig struct {
	TimeoutMinutes         int `xml:"TimeoutMinutes" validate:"min=1"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes" validate:"min=1"`
	MaxSessions            int `xml:"MaxSessions" validate:"min=1"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel                string `xml:"LogLevel" validate:"omitempty,oneof=trace debug info warn error"`
	LogFormat               string `xml:"LogFormat" validate:"omitempty,oneof=json console"`
	LogOutput               string `xml:"LogOutput"` // stdout, stderr or a file path
	EnableRequestLogging    bool   `xml:"EnableRequestLogging"`
	EnableHistory           bool   `xml:"EnableHistory"`
	HistoryRetentionMinutes int    `xml:"HistoryRetentionMinutes" validate:"min=1"`
	WebSocketPushIntervalMs int    `xml:"WebSocketPushIntervalMs" validate:"min=50"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// sizes use the same notation as echo's BodyLimit ("20M", "512K")
	_ = v.RegisterValidation("bytesize", func(fl validator.FieldLevel) bool {
		n, err := bytes.Parse(fl.Field().String())
		return err == nil && n > 0
	})
	return v
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "20M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			MaxUploadSize:    "10M",
			AllowedFileTypes: ".png,.jpg,.jpeg,.gif,.svg,.webp",
		},
		Simulator: SimulatorConfig{
			TickIntervalMs:    1000,
			ToggleProbability: 0.05,
		},
		Session: SessionConfig{
			TimeoutMinutes:         30,
			CleanupIntervalMinutes: 5,
			MaxSessions:            100,
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			LogFormat:               "json",
			LogOutput:               "stdout",
			EnableRequestLogging:    true,
			EnableHistory:           true,
			HistoryRetentionMinutes: 60,
			WebSocketPushIntervalMs: 500,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Validate checks value ranges.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- IAGRO Supervisory Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR moves uploads along with it
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		c.Advanced.LogFormat = format
	}
	if output := os.Getenv("LOG_OUTPUT"); output != "" {
		c.Advanced.LogOutput = output
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if !filepath.IsAbs(c.Storage.UploadsDirectory) {
		c.Storage.UploadsDirectory = filepath.Join(configDir, c.Storage.UploadsDirectory)
	}
	if c.Simulator.VariablesFile != "" && !filepath.IsAbs(c.Simulator.VariablesFile) {
		c.Simulator.VariablesFile = filepath.Join(configDir, c.Simulator.VariablesFile)
	}
	switch out := c.Advanced.LogOutput; out {
	case "", "stdout", "stderr":
	default:
		if !filepath.IsAbs(out) {
			c.Advanced.LogOutput = filepath.Join(configDir, out)
		}
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// TickInterval returns the simulator period.
func (c *AppConfig) TickInterval() time.Duration {
	return time.Duration(c.Simulator.TickIntervalMs) * time.Millisecond
}

// PushInterval returns the websocket scene push period.
func (c *AppConfig) PushInterval() time.Duration {
	return time.Duration(c.Advanced.WebSocketPushIntervalMs) * time.Millisecond
}

// SessionTimeout returns how long an idle canvas survives.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Session.TimeoutMinutes) * time.Minute
}

// CleanupInterval returns the session sweep period.
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Session.CleanupIntervalMinutes) * time.Minute
}

// HistoryRetention returns how long trend samples are kept.
func (c *AppConfig) HistoryRetention() time.Duration {
	return time.Duration(c.Advanced.HistoryRetentionMinutes) * time.Minute
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

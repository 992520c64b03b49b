// Package config provides YAML-based configuration management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rig-dashboard/backend/internal/analysis"
)

// DefaultConfigFile is the config file name looked up next to the binary.
const DefaultConfigFile = "drilling-dashboard.yaml"

// AppConfig represents the root configuration structure
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Processing ProcessingConfig `yaml:"processing"`
	Security   SecurityConfig   `yaml:"security"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	EnableCORS   bool   `yaml:"enableCors"`
	AllowOrigins string `yaml:"allowOrigins"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
	BodyLimit    string `yaml:"bodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `yaml:"dataDirectory"`
	UploadsDirectory string `yaml:"uploadsDirectory"`
	TempDirectory    string `yaml:"tempDirectory"`
	MaxStoredFiles   int    `yaml:"maxStoredFiles"`
}

// ProcessingConfig contains session and ingest settings
type ProcessingConfig struct {
	MaxSessions            int  `yaml:"maxSessions"`
	SessionTimeoutMinutes  int  `yaml:"sessionTimeoutMinutes"`
	CleanupIntervalMinutes int  `yaml:"cleanupIntervalMinutes"`
	EnableCompression      bool `yaml:"enableCompression"`
	CompressionLevel       int  `yaml:"compressionLevel"`
	RequestTimeoutSeconds  int  `yaml:"requestTimeoutSeconds"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowFileDeletion bool   `yaml:"allowFileDeletion"`
	AllowedFileTypes  string `yaml:"allowedFileTypes"`
}

// AnalysisConfig tunes the stand indicators and KPI figures.
type AnalysisConfig struct {
	HighROP                 float64 `yaml:"highRop"`
	LowROP                  float64 `yaml:"lowRop"`
	HighWOB                 float64 `yaml:"highWob"`
	LongSectionFeet         float64 `yaml:"longSectionFeet"`
	HighControlPercent      float64 `yaml:"highControlPercent"`
	LowControlPercent       float64 `yaml:"lowControlPercent"`
	ROPBenchmark            float64 `yaml:"ropBenchmark"`
	ConnectionTargetSeconds float64 `yaml:"connectionTargetSeconds"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level                string `yaml:"level"`
	Format               string `yaml:"format"` // "json" or "console"
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	th := analysis.DefaultThresholds()
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "256M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			TempDirectory:    "./data/temp",
			MaxStoredFiles:   50,
		},
		Processing: ProcessingConfig{
			MaxSessions:            10,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			EnableCompression:      true,
			CompressionLevel:       5,
			RequestTimeoutSeconds:  120,
		},
		Security: SecurityConfig{
			AllowFileDeletion: true,
			AllowedFileTypes:  ".txt,.csv,.tsv,.xlsx,.xlsm,.xls,.gz",
		},
		Analysis: AnalysisConfig{
			HighROP:                 th.HighROP,
			LowROP:                  th.LowROP,
			HighWOB:                 th.HighWOB,
			LongSectionFeet:         th.LongSection,
			HighControlPercent:      th.HighControl,
			LowControlPercent:       th.LowControl,
			ROPBenchmark:            th.ROPBenchmark,
			ConnectionTargetSeconds: th.ConnectionTarget,
		},
		Log: LogConfig{
			Level:                "info",
			Format:               "json",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file, writing the defaults when it is missing.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing keys keep their defaults.
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Drilling Dashboard Configuration\n# This file is auto-generated on first run\n\n")
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

	// DATA_DIR moves the derived directories along with it.
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.TempDirectory = filepath.Join(dataDir, "temp")
	}

	if tempDir := os.Getenv("DUCKDB_TEMP_DIR"); tempDir != "" {
		c.Storage.TempDirectory = tempDir
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.TempDirectory,
	} {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// Validate rejects settings the server cannot start with.
func (c *AppConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Processing.MaxSessions < 1 {
		return fmt.Errorf("processing.maxSessions must be at least 1")
	}
	if c.Processing.CleanupIntervalMinutes < 1 || c.Processing.SessionTimeoutMinutes < 1 {
		return fmt.Errorf("processing cleanup interval and session timeout must be at least 1 minute")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Thresholds converts the analysis section.
func (c *AppConfig) Thresholds() analysis.Thresholds {
	a := c.Analysis
	return analysis.Thresholds{
		HighROP:          a.HighROP,
		LowROP:           a.LowROP,
		HighWOB:          a.HighWOB,
		LongSection:      a.LongSectionFeet,
		HighControl:      a.HighControlPercent,
		LowControl:       a.LowControlPercent,
		ROPBenchmark:     a.ROPBenchmark,
		ConnectionTarget: a.ConnectionTargetSeconds,
	}
}

// AllowedExtensions returns the lower-cased allowed upload extensions.
func (c *AppConfig) AllowedExtensions() []string {
	parts := strings.Split(c.Security.AllowedFileTypes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, ".") {
			p = "." + p
		}
		out = append(out, p)
	}
	return out
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		c.Storage.TempDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

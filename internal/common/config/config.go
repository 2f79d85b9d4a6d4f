// internal/common/config/config.go
package config

import "path/filepath"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Integrations  IntegrationConfig  `mapstructure:"integrations"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// StorageConfig holds the on-disk layout for records and generated documents.
type StorageConfig struct {
	DataDir       string `mapstructure:"data_dir"`
	DocumentsDir  string `mapstructure:"documents_dir"`
	RetentionDays int    `mapstructure:"retention_days"` // 0 disables the document sweep
}

// RecordDir returns the namespace directory for a record kind.
func (s StorageConfig) RecordDir(kind string) string {
	return filepath.Join(s.DataDir, kind)
}

// DocumentDir returns the namespace directory for a document kind.
func (s StorageConfig) DocumentDir(kind string) string {
	return filepath.Join(s.DocumentsDir, kind)
}

// IntegrationConfig holds settings for the outbound email transports.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
	} `mapstructure:"aws"`

	SMTP struct {
		Host        string `mapstructure:"host"`
		Port        int    `mapstructure:"port"`
		Username    string `mapstructure:"username"`
		Password    string `mapstructure:"password"`
		UseTLS      bool   `mapstructure:"use_tls"`
		DefaultFrom string `mapstructure:"default_from"`
	} `mapstructure:"smtp"`
}

// NotificationConfig holds settings for the dispatcher.
type NotificationConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	OperatorEmail string `mapstructure:"operator_email"`
	Workers       int    `mapstructure:"workers"`
	QueueSize     int    `mapstructure:"queue_size"`
	SendTimeout   int    `mapstructure:"send_timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

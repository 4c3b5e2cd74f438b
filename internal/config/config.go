package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Contract ContractConfig `mapstructure:"contract"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxBodyBytes caps form and JSON request bodies
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ContractConfig holds contract generation configuration
type ContractConfig struct {
	TemplatePath       string `mapstructure:"template_path"`
	OutputDir          string `mapstructure:"output_dir"`
	ArchiveEnabled     bool   `mapstructure:"archive_enabled"`
	FileNamePrefix     string `mapstructure:"file_name_prefix"`
	MinimumMonthlyWage int64  `mapstructure:"minimum_monthly_wage"`
	MinROCYear         int    `mapstructure:"min_roc_year"`
	MaxROCYear         int    `mapstructure:"max_roc_year"`
	StrictPlaceholders bool   `mapstructure:"strict_placeholders"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from configPath and the environment.
// An empty configPath runs on defaults and environment variables only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)

	// Database defaults
	v.SetDefault("database.path", "data/contracts.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Contract defaults
	v.SetDefault("contract.template_path", "templates/contract_template.docx")
	v.SetDefault("contract.output_dir", "output")
	v.SetDefault("contract.archive_enabled", false)
	v.SetDefault("contract.file_name_prefix", "東海大學實習合約")
	v.SetDefault("contract.minimum_monthly_wage", 27470)
	v.SetDefault("contract.min_roc_year", 113)
	v.SetDefault("contract.max_roc_year", 120)
	v.SetDefault("contract.strict_placeholders", true)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// short names used by deployment scripts
	_ = v.BindEnv("contract.template_path", "CONTRACT_TEMPLATE_PATH")
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("database.path", "DATABASE_PATH")
	_ = v.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Contract.TemplatePath == "" {
		errs = append(errs, errors.New("contract.template_path is required"))
	}
	if c.Contract.ArchiveEnabled && c.Contract.OutputDir == "" {
		errs = append(errs, errors.New("contract.output_dir is required when archive_enabled is set"))
	}
	if c.Contract.MinimumMonthlyWage < 0 {
		errs = append(errs, errors.New("contract.minimum_monthly_wage must not be negative"))
	}
	if c.Contract.MinROCYear > c.Contract.MaxROCYear {
		errs = append(errs, fmt.Errorf("contract.min_roc_year (%d) is after contract.max_roc_year (%d)",
			c.Contract.MinROCYear, c.Contract.MaxROCYear))
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format))
	}

	return errors.Join(errs...)
}

// Address returns host:port for the HTTP listener
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

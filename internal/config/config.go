package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Polling  PollingConfig  `mapstructure:"polling"`
	Typing   TypingConfig   `mapstructure:"typing"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Export   ExportConfig   `mapstructure:"export"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
}

// BackendConfig points the client at the remote job backend.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PollingConfig controls the job status polling loops.
type PollingConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// Preroll is the fixed delay between collection completion and the
	// analysis start call. Zero disables it.
	Preroll time.Duration `mapstructure:"preroll"`
}

// TypingConfig holds the per-character reveal pacing. All values are
// durations; see internal/stream for the character classes.
type TypingConfig struct {
	Base       time.Duration `mapstructure:"base"`
	Space      time.Duration `mapstructure:"space"`
	Comma      time.Duration `mapstructure:"comma"`
	Sentence   time.Duration `mapstructure:"sentence"`
	BlockPause time.Duration `mapstructure:"block_pause"`
}

// ServerConfig configures the simulated backend (cmd/stubserver).
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres
	Path            string        `mapstructure:"path"`   // sqlite file path
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the connection string for the configured driver.
// Parameters: none.
// Returns:
//   - string: driver-specific DSN.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

// StorageConfig configures report storage. Type "local" writes to LocalDir;
// anything else goes through the S3-compatible client.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // local, s3, r2, s3compatible
	LocalDir  string `mapstructure:"local_dir"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

// ExportConfig controls the post-analysis HTML report export.
type ExportConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AnalysisConfig holds the caller-configurable analysis options.
type AnalysisConfig struct {
	// CustomInstruction overrides both the saved preference and the built-in
	// default prompt when non-empty.
	CustomInstruction string `mapstructure:"custom_instruction"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("backend.base_url", "http://localhost:8090")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("polling.interval", "2s")
	v.SetDefault("polling.preroll", "800ms")
	v.SetDefault("typing.base", "24ms")
	v.SetDefault("typing.space", "8ms")
	v.SetDefault("typing.comma", "90ms")
	v.SetDefault("typing.sentence", "260ms")
	v.SetDefault("typing.block_pause", "350ms")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/tiklens.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_dir", "./data/reports")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "tiklens-reports")
	v.SetDefault("export.enabled", false)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("backend.base_url", "TIKLENS_BACKEND_URL")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

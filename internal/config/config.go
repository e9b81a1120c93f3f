package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Blob     BlobConfig     `mapstructure:"blob"`
	Store    StoreConfig    `mapstructure:"store"`
	Model    ModelConfig    `mapstructure:"model"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// BlobConfig configures where uploaded images are kept.
type BlobConfig struct {
	// Driver selects the implementation: s3 or local.
	Driver    string `mapstructure:"driver"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
	// LocalDir is the directory used by the local driver.
	LocalDir string `mapstructure:"local_dir"`
}

// StoreConfig configures the prediction list store.
type StoreConfig struct {
	// Driver selects the implementation: redis, sqlite, postgres or memory.
	Driver   string         `mapstructure:"driver"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// ModelConfig describes the deployed classification model. Width, height,
// channels and the class list are deployment constants: they must match the
// trained artifact exactly.
type ModelConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	// Library is an optional path to the ONNX runtime shared library.
	Library    string   `mapstructure:"library"`
	InputName  string   `mapstructure:"input_name"`
	OutputName string   `mapstructure:"output_name"`
	Width      int      `mapstructure:"width"`
	Height     int      `mapstructure:"height"`
	Channels   int      `mapstructure:"channels"`
	Classes    []string `mapstructure:"classes"`
	// Binary marks a single-sigmoid-output model; Classes must then hold
	// exactly two labels, index 0 being the negative side.
	Binary bool `mapstructure:"binary"`
}

type PipelineConfig struct {
	Workers int `mapstructure:"workers"`
	// DegradedMode persists placeholder decisions when the model is
	// disabled or fails to load instead of failing the image.
	DegradedMode bool `mapstructure:"degraded_mode"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("blob.endpoint", "BLOB_ENDPOINT")
	v.BindEnv("blob.access_key", "BLOB_ACCESS_KEY")
	v.BindEnv("blob.secret_key", "BLOB_SECRET_KEY")
	v.BindEnv("blob.bucket", "BLOB_BUCKET")
	v.BindEnv("blob.public_url", "BLOB_PUBLIC_URL")
	v.BindEnv("store.redis.addr", "REDIS_ADDR")
	v.BindEnv("store.redis.password", "REDIS_PASSWORD")
	v.BindEnv("store.database.dsn", "DATABASE_DSN")
	v.BindEnv("model.path", "MODEL_PATH")
	v.BindEnv("model.library", "ONNXRUNTIME_LIB")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("blob.driver", "local")
	v.SetDefault("blob.endpoint", "localhost:9000")
	v.SetDefault("blob.use_ssl", false)
	v.SetDefault("blob.bucket", "track-images")
	v.SetDefault("blob.local_dir", "./data/uploads")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key", "predictions")
	v.SetDefault("store.database.path", "./data/predictions.db")
	v.SetDefault("store.database.max_idle_conns", 5)
	v.SetDefault("store.database.max_open_conns", 20)
	v.SetDefault("store.database.conn_max_lifetime", "30m")
	v.SetDefault("store.database.auto_migrate", true)

	// Defaults describe the binary W-boson tagger trained on 25x25
	// grayscale jet images.
	v.SetDefault("model.enabled", true)
	v.SetDefault("model.path", "./models/wtagger.onnx")
	v.SetDefault("model.input_name", "input")
	v.SetDefault("model.output_name", "output")
	v.SetDefault("model.width", 25)
	v.SetDefault("model.height", 25)
	v.SetDefault("model.channels", 1)
	v.SetDefault("model.classes", []string{"qcd background", "w boson signal"})
	v.SetDefault("model.binary", true)

	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.degraded_mode", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func (c *Config) validate() error {
	if c.Model.Width <= 0 || c.Model.Height <= 0 {
		return fmt.Errorf("invalid model input size %dx%d", c.Model.Width, c.Model.Height)
	}
	if c.Model.Channels != 1 && c.Model.Channels != 3 {
		return fmt.Errorf("unsupported model channel count %d", c.Model.Channels)
	}
	if len(c.Model.Classes) == 0 {
		return fmt.Errorf("model class vocabulary is empty")
	}
	if c.Model.Binary && len(c.Model.Classes) != 2 {
		return fmt.Errorf("binary model requires exactly 2 classes, got %d", len(c.Model.Classes))
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 1
	}
	return nil
}

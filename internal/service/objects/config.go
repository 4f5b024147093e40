package objects

import (
	"fmt"

	"github.com/spf13/viper"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

type Config struct {
	Backend         string `mapstructure:"Backend"`
	AccessKeyID     string `mapstructure:"AccessKeyID"`
	SecretAccessKey string `mapstructure:"SecretAccessKey"`
	Bucket          string `mapstructure:"Bucket"`
	Endpoint        string `mapstructure:"Endpoint"`
	Region          string `mapstructure:"Region"`
}

func NewConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	// Привязываем переменные окружения
	v.BindEnv("Backend", "OBJECTS_BACKEND")
	v.BindEnv("AccessKeyID", "S3_ACCESS_KEY_ID")
	v.BindEnv("SecretAccessKey", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("Bucket", "S3_BUCKET")
	v.BindEnv("Endpoint", "S3_ENDPOINT")
	v.BindEnv("Region", "S3_REGION")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: using only environment variables: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	// Проверяем переменные окружения напрямую если конфигурация неполная
	if cfg.Backend == "" {
		cfg.Backend = v.GetString("Backend")
	}
	if cfg.AccessKeyID == "" {
		cfg.AccessKeyID = v.GetString("AccessKeyID")
	}
	if cfg.SecretAccessKey == "" {
		cfg.SecretAccessKey = v.GetString("SecretAccessKey")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = v.GetString("Bucket")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = v.GetString("Endpoint")
	}
	if cfg.Region == "" {
		cfg.Region = v.GetString("Region")
	}

	// Значение по умолчанию — локальное файловое хранилище
	if cfg.Backend == "" {
		cfg.Backend = BackendLocal
	}

	// Проверяем, что все необходимые поля заполнены
	switch cfg.Backend {
	case BackendLocal:
	case BackendS3:
		if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 backend requires AccessKeyID, SecretAccessKey and Bucket")
		}
	default:
		return nil, fmt.Errorf("unknown objects backend: %s", cfg.Backend)
	}

	return &cfg, nil
}

// NewStorage создает хранилище согласно конфигурации
func NewStorage(cfg *Config, dataDir string) (Storage, error) {
	switch cfg.Backend {
	case BackendS3:
		return NewS3Storage(cfg)
	default:
		return NewLocalStorage(dataDir)
	}
}

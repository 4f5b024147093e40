package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"Server"`
}

type ServerConfig struct {
	Port          string `mapstructure:"Port"`
	PublicBaseURL string `mapstructure:"PublicBaseURL"`
	DataDir       string `mapstructure:"DataDir"`
}

func NewConfig(path string) (*Config, error) {
	v := viper.New()

	// Устанавливаем файл конфигурации
	v.SetConfigFile(path)

	// Привязываем переменные окружения
	v.BindEnv("Server.Port", "HTTP_PORT")
	v.BindEnv("Server.PublicBaseURL", "PUBLIC_BASE_URL")
	v.BindEnv("Server.DataDir", "DATA_DIR")

	// Читаем конфигурацию из файла
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: using only environment variables: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Проверяем переменные окружения напрямую если конфигурация неполная
	if cfg.Server.Port == "" {
		cfg.Server.Port = v.GetString("Server.Port")
	}
	if cfg.Server.PublicBaseURL == "" {
		cfg.Server.PublicBaseURL = v.GetString("Server.PublicBaseURL")
	}
	if cfg.Server.DataDir == "" {
		cfg.Server.DataDir = v.GetString("Server.DataDir")
	}

	// Установка значений по умолчанию
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.DataDir == "" {
		cfg.Server.DataDir = "/data"
	}

	return &cfg, nil
}

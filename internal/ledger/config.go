package ledger

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	RPCURL       string `mapstructure:"RPCURL"`
	PrivateKey   string `mapstructure:"PrivateKey"`
	AutoDeploy   bool   `mapstructure:"AutoDeploy"`
	ContractFile string `mapstructure:"ContractFile"`
	ContractSrc  string `mapstructure:"ContractSrc"`
	SolcBin      string `mapstructure:"SolcBin"`
}

// NewConfig загружает конфигурацию леджера. Приватный ключ обязателен:
// без него процесс не стартует.
func NewConfig(path, dataDir string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	// Привязываем переменные окружения
	v.BindEnv("RPCURL", "RPC_URL")
	v.BindEnv("PrivateKey", "PRIVATE_KEY")
	v.BindEnv("AutoDeploy", "AUTO_DEPLOY")
	v.BindEnv("ContractFile", "CONTRACT_FILE")
	v.BindEnv("ContractSrc", "CONTRACT_SRC")
	v.BindEnv("SolcBin", "SOLC_BIN")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: using only environment variables: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	// Проверяем переменные окружения напрямую если конфигурация неполная
	if cfg.RPCURL == "" {
		cfg.RPCURL = v.GetString("RPCURL")
	}
	if cfg.PrivateKey == "" {
		cfg.PrivateKey = v.GetString("PrivateKey")
	}
	if !cfg.AutoDeploy {
		cfg.AutoDeploy = v.GetBool("AutoDeploy")
	}
	if cfg.ContractFile == "" {
		cfg.ContractFile = v.GetString("ContractFile")
	}
	if cfg.ContractSrc == "" {
		cfg.ContractSrc = v.GetString("ContractSrc")
	}
	if cfg.SolcBin == "" {
		cfg.SolcBin = v.GetString("SolcBin")
	}

	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("PRIVATE_KEY is required (use a test key)")
	}

	// Установка значений по умолчанию
	if cfg.RPCURL == "" {
		cfg.RPCURL = "http://rpcnode:8545"
	}
	if cfg.ContractFile == "" {
		cfg.ContractFile = filepath.Join(dataDir, "contract.json")
	}
	if cfg.ContractSrc == "" {
		cfg.ContractSrc = filepath.Join("contracts", "MetadataRegistry.sol")
	}
	if cfg.SolcBin == "" {
		cfg.SolcBin = "solc"
	}

	return &cfg, nil
}

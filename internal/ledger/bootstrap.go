package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"metaregistry/internal/domain"
)

// contractArtifact — кэш развернутого контракта: {address, abi}.
// ABI сохраняется для внешних потребителей файла, сам клиент вызывает
// контракт по фиксированному registryABI.
type contractArtifact struct {
	Address string          `json:"address"`
	ABI     json.RawMessage `json:"abi"`
}

// loadOrDeployContract возвращает адрес контракта реестра: из файла кэша,
// либо компиляцией и развертыванием при AUTO_DEPLOY=true. Разовый
// бутстрап процесса, не часть обслуживания запросов.
func (c *Client) loadOrDeployContract(ctx context.Context, cfg *Config) (common.Address, error) {
	// 1) Кэш-файл имеет приоритет
	raw, err := os.ReadFile(cfg.ContractFile)
	if err == nil {
		var art contractArtifact
		if err := json.Unmarshal(raw, &art); err != nil {
			return common.Address{}, fmt.Errorf("malformed contract cache %s: %w", cfg.ContractFile, err)
		}
		if !common.IsHexAddress(art.Address) {
			return common.Address{}, fmt.Errorf("malformed contract address in %s: %q", cfg.ContractFile, art.Address)
		}
		return common.HexToAddress(art.Address), nil
	}
	if !os.IsNotExist(err) {
		return common.Address{}, fmt.Errorf("cannot read contract cache %s: %w", cfg.ContractFile, err)
	}

	// 2) Развертываем, если разрешено
	if !cfg.AutoDeploy {
		return common.Address{}, fmt.Errorf("contract not found: set AUTO_DEPLOY=true or provide %s", cfg.ContractFile)
	}

	abiJSON, bytecode, err := compileContract(ctx, cfg.SolcBin, cfg.ContractSrc)
	if err != nil {
		return common.Address{}, err
	}

	addr, err := c.deployContract(ctx, bytecode)
	if err != nil {
		return common.Address{}, err
	}

	// Кэшируем результат для следующих запусков
	art := contractArtifact{Address: addr.Hex(), ABI: abiJSON}
	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return common.Address{}, fmt.Errorf("cannot encode contract cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.ContractFile), 0o755); err != nil {
		return common.Address{}, fmt.Errorf("cannot create contract cache directory: %w", err)
	}
	if err := os.WriteFile(cfg.ContractFile, data, 0o644); err != nil {
		return common.Address{}, fmt.Errorf("cannot write contract cache %s: %w", cfg.ContractFile, err)
	}

	log.Printf("[ledger] deployed registry contract at %s, cached to %s", addr.Hex(), cfg.ContractFile)
	return addr, nil
}

func (c *Client) deployContract(ctx context.Context, bytecode []byte) (common.Address, error) {
	signed, err := c.signAndSend(ctx, nil, deployGasLimit, bytecode)
	if err != nil {
		return common.Address{}, err
	}

	receipt, err := bind.WaitMined(ctx, c.eth, signed)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: waiting for deploy receipt: %v", domain.ErrLedgerUnavailable, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Address{}, fmt.Errorf("%w: deploy reverted (tx %s)", domain.ErrLedgerRejected, signed.Hash().Hex())
	}

	return receipt.ContractAddress, nil
}

// compileContract вызывает внешний solc (как solcx в исходной системе)
// и разбирает combined-json вывод
func compileContract(ctx context.Context, solcBin, srcPath string) (json.RawMessage, []byte, error) {
	out, err := exec.CommandContext(ctx, solcBin, "--combined-json", "abi,bin", srcPath).Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return nil, nil, fmt.Errorf("solc failed: %s", ee.Stderr)
		}
		return nil, nil, fmt.Errorf("cannot run %s: %w", solcBin, err)
	}
	return parseSolcOutput(out)
}

func parseSolcOutput(out []byte) (json.RawMessage, []byte, error) {
	var compiled struct {
		Contracts map[string]struct {
			ABI json.RawMessage `json:"abi"`
			Bin string          `json:"bin"`
		} `json:"contracts"`
	}
	if err := json.Unmarshal(out, &compiled); err != nil {
		return nil, nil, fmt.Errorf("cannot parse solc output: %w", err)
	}

	for _, art := range compiled.Contracts {
		if len(art.Bin) == 0 {
			continue
		}
		return art.ABI, common.FromHex(art.Bin), nil
	}
	return nil, nil, fmt.Errorf("solc output contains no deployable contract")
}

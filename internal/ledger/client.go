package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"metaregistry/internal/domain"
)

// Client — клиент контракта реестра метаданных. Хранит единственное
// подключение к ноде и единственный подписывающий аккаунт; мьютекс
// сериализует цепочку nonce → подпись → отправка, иначе параллельные
// запросы получат одинаковый nonce и нода отклонит одну из транзакций.
type Client struct {
	eth      *ethclient.Client
	chainID  *big.Int
	key      *ecdsa.PrivateKey
	account  common.Address
	contract common.Address
	abi      abi.ABI

	// сериализует получение nonce и отправку транзакции
	mu sync.Mutex
}

// NewClient подключается к ноде, загружает ключ и готовит контракт
// (кэш либо авто-деплой, см. bootstrap.go)
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot dial %s: %v", domain.ErrLedgerUnavailable, cfg.RPCURL, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read chain id: %v", domain.ErrLedgerUnavailable, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	account := crypto.PubkeyToAddress(key.PublicKey)

	contractABI, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("cannot parse registry ABI: %w", err)
	}

	c := &Client{
		eth:     eth,
		chainID: chainID,
		key:     key,
		account: account,
		abi:     contractABI,
	}

	addr, err := c.loadOrDeployContract(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.contract = addr

	log.Printf("[ledger] connected to %s (chain %s), contract %s, account %s",
		cfg.RPCURL, chainID, addr.Hex(), account.Hex())

	return c, nil
}

// ContractAddress возвращает адрес контракта реестра
func (c *Client) ContractAddress() string {
	return c.contract.Hex()
}

// AccountAddress возвращает адрес подписывающего аккаунта
func (c *Client) AccountAddress() string {
	return c.account.Hex()
}

// NodeInfo собирает состояние подключения для /api/health
func (c *Client) NodeInfo(ctx context.Context) (*domain.NodeInfo, error) {
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read gas price: %v", domain.ErrLedgerUnavailable, err)
	}

	return &domain.NodeInfo{
		ChainID:  c.chainID.Uint64(),
		GasPrice: gasPrice.Uint64(),
		Contract: c.contract.Hex(),
		Account:  c.account.Hex(),
	}, nil
}

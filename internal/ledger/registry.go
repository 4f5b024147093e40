package ledger

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"metaregistry/internal/domain"
)

// Интерфейс контракта фиксирован (MetadataRegistry.sol), поэтому ABI
// для вызовов зашит в клиент; файл кэша contract.json задает только адрес.
const registryABI = `[
	{"type":"function","name":"create","stateMutability":"nonpayable","inputs":[{"name":"id","type":"bytes32"},{"name":"contentHash","type":"bytes32"},{"name":"uri","type":"string"}],"outputs":[]},
	{"type":"function","name":"update","stateMutability":"nonpayable","inputs":[{"name":"id","type":"bytes32"},{"name":"contentHash","type":"bytes32"},{"name":"uri","type":"string"}],"outputs":[]},
	{"type":"function","name":"get","stateMutability":"view","inputs":[{"name":"id","type":"bytes32"}],"outputs":[{"name":"contentHash","type":"bytes32"},{"name":"uri","type":"string"},{"name":"version","type":"uint64"},{"name":"owner","type":"address"},{"name":"createdAt","type":"uint256"},{"name":"updatedAt","type":"uint256"},{"name":"updatedBy","type":"address"}]},
	{"type":"event","name":"MetadataCreated","anonymous":false,"inputs":[{"name":"recordId","type":"bytes32","indexed":true},{"name":"contentHash","type":"bytes32","indexed":false},{"name":"uri","type":"string","indexed":false},{"name":"version","type":"uint64","indexed":false},{"name":"owner","type":"address","indexed":false},{"name":"timestamp","type":"uint256","indexed":false}]},
	{"type":"event","name":"MetadataUpdated","anonymous":false,"inputs":[{"name":"recordId","type":"bytes32","indexed":true},{"name":"contentHash","type":"bytes32","indexed":false},{"name":"uri","type":"string","indexed":false},{"name":"version","type":"uint64","indexed":false},{"name":"updatedBy","type":"address","indexed":false},{"name":"timestamp","type":"uint256","indexed":false}]}
]`

const (
	eventCreated = "MetadataCreated"
	eventUpdated = "MetadataUpdated"

	// лимиты газа как в исходном развертывании (Quorum, бесплатный газ)
	txGasLimit     = 3_000_000
	deployGasLimit = 6_000_000
)

// ReadRecord читает текущее состояние записи вызовом get(bytes32).
// Нулевой адрес владельца означает, что запись никогда не создавалась.
func (c *Client) ReadRecord(ctx context.Context, id [32]byte) (*domain.Record, error) {
	data, err := c.abi.Pack("get", id)
	if err != nil {
		return nil, fmt.Errorf("cannot pack get call: %w", err)
	}

	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: get call failed: %v", domain.ErrLedgerUnavailable, err)
	}

	return c.unpackRecord(id, out)
}

func (c *Client) unpackRecord(id [32]byte, out []byte) (*domain.Record, error) {
	vals, err := c.abi.Unpack("get", out)
	if err != nil || len(vals) != 7 {
		return nil, fmt.Errorf("cannot unpack get result: %w", err)
	}

	contentHash, _ := vals[0].([32]byte)
	uri, _ := vals[1].(string)
	version, _ := vals[2].(uint64)
	owner, _ := vals[3].(common.Address)
	createdAt, _ := vals[4].(*big.Int)
	updatedAt, _ := vals[5].(*big.Int)
	updatedBy, _ := vals[6].(common.Address)

	if owner == (common.Address{}) {
		return nil, fmt.Errorf("%w", domain.ErrNotFound)
	}
	if createdAt == nil || updatedAt == nil {
		return nil, fmt.Errorf("malformed get result")
	}

	return &domain.Record{
		RecordID:    "0x" + common.Bytes2Hex(id[:]),
		ContentHash: "0x" + common.Bytes2Hex(contentHash[:]),
		URI:         uri,
		Version:     version,
		Owner:       owner.Hex(),
		CreatedAt:   createdAt.Uint64(),
		UpdatedAt:   updatedAt.Uint64(),
		UpdatedBy:   updatedBy.Hex(),
	}, nil
}

// SubmitCreate отправляет транзакцию create и ждет квитанцию
func (c *Client) SubmitCreate(ctx context.Context, id, contentHash [32]byte, uri string) (string, error) {
	return c.submit(ctx, "create", id, contentHash, uri)
}

// SubmitUpdate отправляет транзакцию update и ждет квитанцию.
// Новый номер версии назначает контракт, клиент его не вычисляет.
func (c *Client) SubmitUpdate(ctx context.Context, id, contentHash [32]byte, uri string) (string, error) {
	return c.submit(ctx, "update", id, contentHash, uri)
}

func (c *Client) submit(ctx context.Context, method string, id, contentHash [32]byte, uri string) (string, error) {
	data, err := c.abi.Pack(method, id, contentHash, uri)
	if err != nil {
		return "", fmt.Errorf("cannot pack %s call: %w", method, err)
	}

	signed, err := c.signAndSend(ctx, &c.contract, txGasLimit, data)
	if err != nil {
		return "", err
	}

	// Ожидание квитанции уже вне критической секции: следующая
	// транзакция может получить свой nonce, пока эта майнится
	receipt, err := bind.WaitMined(ctx, c.eth, signed)
	if err != nil {
		return "", fmt.Errorf("%w: waiting for %s receipt: %v", domain.ErrLedgerUnavailable, method, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%w: %s reverted (tx %s)", domain.ErrLedgerRejected, method, signed.Hash().Hex())
	}

	log.Printf("[ledger] %s mined in block %s (tx %s)", method, receipt.BlockNumber, signed.Hash().Hex())
	return signed.Hash().Hex(), nil
}

// signAndSend выполняет nonce → подпись → отправка под мьютексом
func (c *Client) signAndSend(ctx context.Context, to *common.Address, gasLimit uint64, data []byte) (*types.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nonce, err := c.eth.PendingNonceAt(ctx, c.account)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read nonce: %v", domain.ErrLedgerUnavailable, err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read gas price: %v", domain.ErrLedgerUnavailable, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("cannot sign transaction: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("%w: cannot send transaction: %v", domain.ErrLedgerUnavailable, err)
	}

	return signed, nil
}

// QueryCreationEvents возвращает все события MetadataCreated от генезиса
func (c *Client) QueryCreationEvents(ctx context.Context) ([]domain.RecordEvent, error) {
	return c.queryEvents(ctx, eventCreated)
}

// QueryUpdateEvents возвращает все события MetadataUpdated от генезиса
func (c *Client) QueryUpdateEvents(ctx context.Context) ([]domain.RecordEvent, error) {
	return c.queryEvents(ctx, eventUpdated)
}

func (c *Client) queryEvents(ctx context.Context, name string) ([]domain.RecordEvent, error) {
	ev, ok := c.abi.Events[name]
	if !ok {
		return nil, fmt.Errorf("unknown event %s", name)
	}

	logs, err := c.eth.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		Addresses: []common.Address{c.contract},
		Topics:    [][]common.Hash{{ev.ID}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: cannot query %s logs: %v", domain.ErrLedgerUnavailable, name, err)
	}

	events := make([]domain.RecordEvent, 0, len(logs))
	for _, lg := range logs {
		e, err := c.parseRecordEvent(name, lg)
		if err != nil {
			log.Printf("[ledger] skipping malformed %s log in block %d: %v", name, lg.BlockNumber, err)
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

// parseRecordEvent разбирает лог контракта: recordId лежит в индексированном
// топике, остальные поля — в данных
func (c *Client) parseRecordEvent(name string, lg types.Log) (domain.RecordEvent, error) {
	if len(lg.Topics) < 2 {
		return domain.RecordEvent{}, fmt.Errorf("missing recordId topic")
	}

	vals, err := c.abi.Unpack(name, lg.Data)
	if err != nil || len(vals) != 5 {
		return domain.RecordEvent{}, fmt.Errorf("cannot unpack event data: %w", err)
	}

	contentHash, _ := vals[0].([32]byte)
	uri, _ := vals[1].(string)
	version, _ := vals[2].(uint64)
	account, _ := vals[3].(common.Address)
	timestamp, _ := vals[4].(*big.Int)
	if timestamp == nil {
		return domain.RecordEvent{}, fmt.Errorf("malformed timestamp")
	}

	return domain.RecordEvent{
		RecordID:    lg.Topics[1].Hex(),
		ContentHash: "0x" + common.Bytes2Hex(contentHash[:]),
		URI:         uri,
		Version:     version,
		Account:     account.Hex(),
		Timestamp:   timestamp.Uint64(),
	}, nil
}

package service

import (
	"context"
	"fmt"

	"metaregistry/internal/domain"
	"metaregistry/internal/identity"
	"metaregistry/internal/service/objects"
)

// Ledger определяет интерфейс клиента контракта реестра. Конкретная
// реализация — internal/ledger; интерфейс нужен на шве с внешней системой,
// как objects.Storage на шве с хранилищем.
type Ledger interface {
	ReadRecord(ctx context.Context, id [32]byte) (*domain.Record, error)
	SubmitCreate(ctx context.Context, id, contentHash [32]byte, uri string) (string, error)
	SubmitUpdate(ctx context.Context, id, contentHash [32]byte, uri string) (string, error)
	QueryCreationEvents(ctx context.Context) ([]domain.RecordEvent, error)
	QueryUpdateEvents(ctx context.Context) ([]domain.RecordEvent, error)
	NodeInfo(ctx context.Context) (*domain.NodeInfo, error)
	ContractAddress() string
}

// RecordService оркестрирует жизненный цикл записи: идентификация,
// дайджест содержимого, запись объекта, транзакция в леджер
type RecordService struct {
	ledger  Ledger
	storage objects.Storage
	baseURL string
}

func NewRecordService(ledger Ledger, storage objects.Storage, baseURL string) *RecordService {
	return &RecordService{
		ledger:  ledger,
		storage: storage,
		baseURL: baseURL,
	}
}

// CreateInput — запрос на создание записи. Ровно одно из полей
// JSONText / URI должно быть заполнено.
type CreateInput struct {
	RecordIDHex string
	JSONText    string
	URI         string
}

// UpdateInput — запрос на обновление существующей записи
type UpdateInput struct {
	JSONText string
	URI      string
}

// WriteResult — результат create/update: хеш транзакции и итоговый URI
type WriteResult struct {
	TxHash   string
	RecordID string
	URI      string
}

// Create создает запись: разрешает идентификатор, записывает объект
// (если передано содержимое) и отправляет транзакцию create.
// Объект пишется до отправки транзакции: при сбое хранилища on-chain
// состояние не возникает.
func (s *RecordService) Create(ctx context.Context, in CreateInput) (*WriteResult, error) {
	var id [32]byte
	var err error

	switch {
	case in.RecordIDHex != "":
		id, err = identity.ParseRecordID(in.RecordIDHex)
		if err != nil {
			return nil, err
		}
	case in.JSONText != "":
		// Детерминированный идентификатор из содержимого
		id = identity.DeriveRecordID([]byte(in.JSONText))
	default:
		id = identity.DeriveRecordID(identity.FallbackSeed())
	}

	contentHash, uri, err := s.resolveContent(ctx, id, 1, in.JSONText, in.URI)
	if err != nil {
		return nil, err
	}

	txHash, err := s.ledger.SubmitCreate(ctx, id, contentHash, uri)
	if err != nil {
		return nil, err
	}

	return &WriteResult{
		TxHash:   txHash,
		RecordID: identity.FormatRecordID(id),
		URI:      uri,
	}, nil
}

// Read возвращает текущее on-chain состояние записи
func (s *RecordService) Read(ctx context.Context, ridHex string) (*domain.Record, error) {
	id, err := identity.ParseRecordID(ridHex)
	if err != nil {
		return nil, err
	}
	return s.ledger.ReadRecord(ctx, id)
}

// Update обновляет существующую запись. Версия для пути в хранилище —
// текущая on-chain версия + 1; авторитетный номер новой версии назначает
// контракт при исполнении транзакции.
func (s *RecordService) Update(ctx context.Context, ridHex string, in UpdateInput) (*WriteResult, error) {
	id, err := identity.ParseRecordID(ridHex)
	if err != nil {
		return nil, err
	}

	current, err := s.ledger.ReadRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	contentHash, uri, err := s.resolveContent(ctx, id, current.Version+1, in.JSONText, in.URI)
	if err != nil {
		return nil, err
	}

	txHash, err := s.ledger.SubmitUpdate(ctx, id, contentHash, uri)
	if err != nil {
		return nil, err
	}

	return &WriteResult{
		TxHash:   txHash,
		RecordID: identity.FormatRecordID(id),
		URI:      uri,
	}, nil
}

// Health возвращает состояние подключения к ноде
func (s *RecordService) Health(ctx context.Context) (*domain.NodeInfo, error) {
	return s.ledger.NodeInfo(ctx)
}

// ContractAddress возвращает адрес контракта реестра
func (s *RecordService) ContractAddress() string {
	return s.ledger.ContractAddress()
}

// resolveContent определяет (contentHash, uri) для записи: либо содержимое
// сохраняется в хранилище и хешируется, либо берется внешний URI с нулевым
// хешем-сентинелом. Оба поля сразу или ни одного — ErrInvalidInput.
func (s *RecordService) resolveContent(ctx context.Context, id [32]byte, version uint64, jsonText, uri string) ([32]byte, string, error) {
	switch {
	case jsonText != "" && uri != "":
		return [32]byte{}, "", fmt.Errorf("%w: json_text and uri are mutually exclusive", domain.ErrInvalidInput)
	case jsonText != "":
		key := objects.Key(identity.HexNoPrefix(id), version)
		if err := s.storage.PutObject(ctx, key, []byte(jsonText)); err != nil {
			return [32]byte{}, "", err
		}
		return identity.ContentDigest([]byte(jsonText)), objects.Locator(s.baseURL, key), nil
	case uri != "":
		return identity.ZeroDigest, uri, nil
	default:
		return [32]byte{}, "", fmt.Errorf("%w: either json_text or uri is required", domain.ErrInvalidInput)
	}
}

package domain

import "errors"

// Таксономия ошибок сервиса. Обработчики HTTP сопоставляют их со
// статус-кодами через errors.Is, поэтому все слои оборачивают причину
// через fmt.Errorf("%w: ...").
var (
	// ErrInvalidInput — некорректный идентификатор или отсутствие
	// обязательного поля в запросе
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound — запись с нулевым владельцем, то есть никогда не создавалась
	ErrNotFound = errors.New("not found")

	// ErrLedgerRejected — транзакция включена в блок, но контракт её отклонил
	ErrLedgerRejected = errors.New("transaction rejected by ledger")

	// ErrLedgerUnavailable — нода недоступна, вызов можно повторить
	ErrLedgerUnavailable = errors.New("ledger node unavailable")

	// ErrStorageWrite — сбой записи в объектное хранилище
	ErrStorageWrite = errors.New("object storage write failed")
)

package domain

// Record представляет версионированную запись метаданных в реестре.
// Поля повторяют структуру on-chain записи: временные метки назначает
// леджер при включении транзакции в блок, а не клиент.
type Record struct {
	RecordID    string `json:"recordId"`
	ContentHash string `json:"contentHash"`
	URI         string `json:"uri"`
	Version     uint64 `json:"version"`
	Owner       string `json:"owner"`
	CreatedAt   uint64 `json:"createdAt"`
	UpdatedAt   uint64 `json:"updatedAt"`
	UpdatedBy   string `json:"updatedBy"`
}

// RecordEvent — одно событие контракта (MetadataCreated либо MetadataUpdated).
// Account содержит owner для событий создания и updatedBy для обновлений.
type RecordEvent struct {
	RecordID    string
	ContentHash string
	URI         string
	Version     uint64
	Account     string
	Timestamp   uint64
}

// NodeInfo — состояние подключения к ноде для /api/health
type NodeInfo struct {
	ChainID  uint64 `json:"chainId"`
	GasPrice uint64 `json:"gasPrice"`
	Contract string `json:"contract"`
	Account  string `json:"account"`
}

package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"metaregistry/internal/domain"
)

// RecordIDLength — длина идентификатора записи в байтах
const RecordIDLength = 32

// ZeroDigest — нулевой хеш-сентинел: содержимое неизвестно,
// запись ссылается только на внешний URI
var ZeroDigest [RecordIDLength]byte

// DeriveRecordID детерминированно выводит идентификатор записи из
// произвольных байт-семян. Для идентификаторов используется Keccak-256,
// для дайджеста содержимого — SHA-256 (см. ContentDigest); алгоритмы
// намеренно разные, идентификатор не совпадает с хешем содержимого.
func DeriveRecordID(seed []byte) [RecordIDLength]byte {
	var id [RecordIDLength]byte
	copy(id[:], crypto.Keccak256(seed))
	return id
}

// FallbackSeed возвращает семя на основе времени для случая, когда клиент
// не передал ни явный идентификатор, ни содержимое
func FallbackSeed() []byte {
	return []byte(fmt.Sprintf("%s:%d", uuid.NewString(), time.Now().UnixNano()))
}

// ParseRecordID разбирает hex-представление идентификатора (с префиксом
// 0x или без). Любая другая длина или не-hex символы — ErrInvalidInput.
func ParseRecordID(s string) ([RecordIDLength]byte, error) {
	var id [RecordIDLength]byte

	h := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(h)
	if err != nil {
		return id, fmt.Errorf("%w: recordId is not valid hex", domain.ErrInvalidInput)
	}
	if len(raw) != RecordIDLength {
		return id, fmt.Errorf("%w: recordId must be %d bytes, got %d", domain.ErrInvalidInput, RecordIDLength, len(raw))
	}

	copy(id[:], raw)
	return id, nil
}

// FormatRecordID возвращает каноническую hex-форму идентификатора: 0x + 64 символа
func FormatRecordID(id [RecordIDLength]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}

// HexNoPrefix возвращает hex без префикса — используется в путях объектного хранилища
func HexNoPrefix(id [RecordIDLength]byte) string {
	return hex.EncodeToString(id[:])
}

// ContentDigest вычисляет SHA-256 дайджест полезной нагрузки записи
func ContentDigest(data []byte) [RecordIDLength]byte {
	return sha256.Sum256(data)
}

// FormatDigest возвращает hex-форму дайджеста с префиксом 0x
func FormatDigest(d [RecordIDLength]byte) string {
	return "0x" + hex.EncodeToString(d[:])
}

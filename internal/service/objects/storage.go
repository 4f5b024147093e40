// storage.go
package objects

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Object определяет интерфейс для чтения объекта из хранилища
type Object interface {
	io.ReadCloser
	ContentLength() int64
	ContentType() string
}

// object реализует интерфейс Object
type object struct {
	io.ReadCloser
	contentLength int64
	contentType   string
}

func (o *object) ContentLength() int64 {
	return o.contentLength
}

func (o *object) ContentType() string {
	return o.contentType
}

// Storage определяет интерфейс хранилища версионированных JSON-объектов.
// Каждая версия записи — отдельный ключ; повторная запись по существующему
// ключу не выполняется, объекты неизменяемы.
type Storage interface {
	PutObject(ctx context.Context, key string, data []byte) error
	GetObject(ctx context.Context, key string) (Object, error)
}

// Key строит ключ объекта для версии записи: {ridHex}/v{version}.json
func Key(ridHex string, version uint64) string {
	return fmt.Sprintf("%s/v%d.json", ridHex, version)
}

// Locator строит публичный URI объекта. Чистая функция без I/O:
// при пустом baseURL возвращает относительный путь.
func Locator(baseURL, key string) string {
	if baseURL != "" {
		return fmt.Sprintf("%s/objects/%s", strings.TrimSuffix(baseURL, "/"), key)
	}
	return "/objects/" + key
}

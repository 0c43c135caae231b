package storage

import (
	"context"
)

// Storage - синхронное key-value хранилище строковых значений.
// Отсутствие ключа не является ошибкой: Get возвращает found=false.
type Storage interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

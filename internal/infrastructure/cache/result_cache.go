package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"qrscan/internal/domain/entity"
	"qrscan/internal/domain/port"
)

// ResultCache кэширует успешные распознавания по хэшу содержимого файла.
// Одновременные запросы с одинаковым телом схлопываются в один прогон каскада.
type ResultCache struct {
	next  port.Scanner
	codes *lru.Cache[[blake2b.Size256]byte, *entity.ScanResult]
	group singleflight.Group
}

// NewResultCache оборачивает сканер LRU-кэшем на size записей.
func NewResultCache(next port.Scanner, size int) (*ResultCache, error) {
	codes, err := lru.New[[blake2b.Size256]byte, *entity.ScanResult](size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{next: next, codes: codes}, nil
}

// Scan возвращает кэшированный результат или запускает вложенный сканер.
func (c *ResultCache) Scan(ctx context.Context, imageData []byte) (*entity.ScanResult, error) {
	key := blake2b.Sum256(imageData)
	if res, ok := c.codes.Get(key); ok {
		return res, nil
	}

	v, err, _ := c.group.Do(string(key[:]), func() (interface{}, error) {
		// Пока запрос ждал своей очереди, результат мог появиться.
		if res, ok := c.codes.Get(key); ok {
			return res, nil
		}
		res, err := c.next.Scan(ctx, imageData)
		if err != nil {
			return nil, err
		}
		// Неуспех не кэшируем: повторный запрос может пройти по фолбэку.
		c.codes.Add(key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.ScanResult), nil
}

// Проверка реализации интерфейса
var _ port.Scanner = (*ResultCache)(nil)

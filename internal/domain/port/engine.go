package port

import "image"

// DecodeEngine интерфейс одного движка декодирования QR-кода.
// Движки чистые и взаимозаменяемые: растр на входе, текст на выходе,
// без внешних вызовов и без общего состояния между запросами.
type DecodeEngine interface {
	// Name возвращает имя движка для провенанса результата
	Name() string

	// Decode пытается извлечь содержимое QR-кода из растра.
	// Второе значение false означает «код не найден».
	Decode(img *image.Gray) (string, bool)
}

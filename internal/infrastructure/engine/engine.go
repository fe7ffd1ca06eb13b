// Package engine содержит движки декодирования QR-кодов первого уровня.
// Все движки чистые: общих ресурсов нет, порядок задаёт вызывающая сторона.
package engine

import "image"

// Символ первой версии QR-кода занимает 21 модуль,
// буферы меньше не могут содержать читаемый код.
const minSymbolSide = 21

func tooSmall(img *image.Gray) bool {
	return img == nil || img.Rect.Dx() < minSymbolSide || img.Rect.Dy() < minSymbolSide
}

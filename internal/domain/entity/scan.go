package entity

// Level — уровень каскада, на котором получен результат.
type Level int

const (
	LevelFast     Level = 1 // базовые движки на предобработанном изображении
	LevelRotation Level = 2 // повторные попытки с поворотами
	LevelFallback Level = 3 // локальная модель и внешний сервис
)

// Rotation — угол поворота изображения по часовой стрелке в градусах.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Inverse возвращает угол, который компенсирует данный поворот.
func (r Rotation) Inverse() Rotation {
	return Rotation((360 - int(r)) % 360)
}

// ScanResult хранит итог успешного распознавания QR-кода.
type ScanResult struct {
	Content              string    `json:"content"`               // раскодированный текст
	Engine               string    `json:"engine"`                // имя движка, давшего результат
	Level                Level     `json:"level_used"`            // уровень каскада: 1, 2 или 3
	PreprocessingApplied bool      `json:"preprocessing_applied"` // использовался ли улучшенный вариант изображения
	RotationAngle        *Rotation `json:"rotation_angle"`        // угол успешного поворота, nil вне второго уровня
	ProcessingTimeMs     int64     `json:"processing_time_ms"`    // полное время обработки запроса
}

// DecodeAttempt — одна попытка декодирования для диагностики.
type DecodeAttempt struct {
	Engine       string   // имя движка
	Rotation     Rotation // угол поворота варианта
	Preprocessed bool     // вариант после предобработки
}

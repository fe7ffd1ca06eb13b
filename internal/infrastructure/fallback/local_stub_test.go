//go:build !gocv
// +build !gocv

package fallback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"qrscan/internal/domain/entity"
)

// Каскад полагается на то, что заглушка честно сообщает о своей
// недоступности: такой сбой не попадает в ответ клиенту.
func TestLocalDetectorStubUnavailable(t *testing.T) {
	d := NewLocalDetector("models", nil)
	require.Equal(t, "opencv", d.Name())

	_, err := d.Detect(context.Background(), []byte("payload"))
	require.ErrorIs(t, err, entity.ErrFallbackUnavailable)
}

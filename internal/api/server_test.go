package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"qrscan/internal/domain/entity"
)

type stubScanner struct {
	res     *entity.ScanResult
	err     error
	gotData []byte
}

func (s *stubScanner) Scan(ctx context.Context, data []byte) (*entity.ScanResult, error) {
	s.gotData = data
	return s.res, s.err
}

func multipartBody(t *testing.T, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "qr.png")
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postScan(t *testing.T, srv *Server, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ctype := multipartBody(t, payload)
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestScanEndpointSuccess(t *testing.T) {
	rot := entity.Rotate90
	scanner := &stubScanner{res: &entity.ScanResult{
		Content:              "hello",
		Engine:               "goqr",
		Level:                entity.LevelRotation,
		PreprocessingApplied: true,
		RotationAngle:        &rot,
		ProcessingTimeMs:     12,
	}}
	srv := NewServer(scanner, nil, 10<<20, nil)

	rec := postScan(t, srv, []byte("fake-image"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{
		"content": "hello",
		"engine": "goqr",
		"level_used": 2,
		"preprocessing_applied": true,
		"rotation_angle": 90,
		"processing_time_ms": 12
	}`, rec.Body.String())
	require.Equal(t, []byte("fake-image"), scanner.gotData)
}

func TestScanEndpointInvalidImage(t *testing.T) {
	srv := NewServer(&stubScanner{err: fmt.Errorf("%w: empty payload", entity.ErrInvalidImage)}, nil, 10<<20, nil)

	rec := postScan(t, srv, []byte("garbage"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "invalid_image", resp.Error)
}

func TestScanEndpointNotFound(t *testing.T) {
	srv := NewServer(&stubScanner{err: fmt.Errorf("%w: 12 attempts in 3ms", entity.ErrNotFound)}, nil, 10<<20, nil)

	rec := postScan(t, srv, []byte("blank"))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "not_found", resp.Error)
}

func TestScanEndpointInternalError(t *testing.T) {
	srv := NewServer(&stubScanner{err: errors.New("boom")}, nil, 10<<20, nil)

	rec := postScan(t, srv, []byte("anything"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "internal", resp.Error)
	require.Empty(t, resp.Message)
}

func TestScanEndpointMissingFile(t *testing.T) {
	srv := NewServer(&stubScanner{}, nil, 10<<20, nil)

	req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewBufferString("not multipart"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "invalid_request", resp.Error)
}

func TestScanEndpointMethodNotAllowed(t *testing.T) {
	srv := NewServer(&stubScanner{}, nil, 10<<20, nil)

	req := httptest.NewRequest(http.MethodGet, "/scan", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(&stubScanner{}, nil, 10<<20, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatsEndpoint(t *testing.T) {
	stats := func() map[string]uint64 {
		return map[string]uint64{"scans_total": 3, "success_level_1": 2}
	}
	srv := NewServer(&stubScanner{}, stats, 10<<20, nil)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"scans_total":3,"success_level_1":2}`, rec.Body.String())
}

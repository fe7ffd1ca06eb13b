package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"qrscan/internal/domain/entity"
	"qrscan/internal/domain/port"
)

// Server отдаёт HTTP-интерфейс сканера: приём изображения и счётчики.
type Server struct {
	scanner   port.Scanner
	stats     func() map[string]uint64
	maxUpload int64
	log       *slog.Logger
}

// NewServer создаёт HTTP-сервер поверх сканера. stats может быть nil.
func NewServer(scanner port.Scanner, stats func() map[string]uint64, maxUpload int64, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		scanner:   scanner,
		stats:     stats,
		maxUpload: maxUpload,
		log:       log,
	}
}

// Router собирает маршруты сервиса.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/scan", s.handleScan).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	return r
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// handleScan принимает multipart-поле file и запускает каскад распознавания.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	log := s.log.With("request_id", uuid.NewString())

	// Запас поверх лимита изображения покрывает multipart-обвязку,
	// само изображение дополнительно проверяет пайплайн.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Debug("scan request without file", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: `multipart field "file" is required`})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Warn("failed to read upload", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: "broken upload"})
		return
	}
	log.Debug("scan request accepted", "bytes", len(data), "declared_type", header.Header.Get("Content-Type"))

	res, err := s.scanner.Scan(r.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidImage):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_image", Message: err.Error()})
		case errors.Is(err, entity.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()})
		default:
			log.Error("scan failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal"})
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counters := map[string]uint64{}
	if s.stats != nil {
		counters = s.stats()
	}
	writeJSON(w, http.StatusOK, counters)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

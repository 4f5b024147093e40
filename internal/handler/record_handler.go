package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"metaregistry/internal/domain"
	"metaregistry/internal/service"
)

// CreateRequest — тело POST /api/metadata
type CreateRequest struct {
	RecordIDHex string `json:"recordIdHex,omitempty"`
	JSONText    string `json:"json_text,omitempty"`
	URI         string `json:"uri,omitempty"`
}

// UpdateRequest — тело PUT /api/metadata/{recordIdHex}
type UpdateRequest struct {
	JSONText string `json:"json_text,omitempty"`
	URI      string `json:"uri,omitempty"`
}

type CreateResponse struct {
	TxHash   string `json:"txHash"`
	RecordID string `json:"recordId"`
	URI      string `json:"uri"`
}

type UpdateResponse struct {
	TxHash   string `json:"txHash"`
	RecordID string `json:"recordId"`
	NewURI   string `json:"newUri"`
}

type ListResponse struct {
	Items []domain.Record `json:"items"`
}

type AddressResponse struct {
	Contract string `json:"contract"`
}

type RecordHandler struct {
	recordService *service.RecordService
}

func NewRecordHandler(recordService *service.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

// Health возвращает состояние подключения к ноде
func (h *RecordHandler) Health(w http.ResponseWriter, r *http.Request) {
	info, err := h.recordService.Health(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Address возвращает адрес контракта реестра
func (h *RecordHandler) Address(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AddressResponse{Contract: h.recordService.ContractAddress()})
}

// List возвращает все записи реестра, новые сверху
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.recordService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Items: items})
}

// Get возвращает текущее состояние одной записи
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.recordService.Read(r.Context(), chi.URLParam(r, "recordIdHex"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Create обрабатывает создание записи
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidInput, err))
		return
	}

	result, err := h.recordService.Create(r.Context(), service.CreateInput{
		RecordIDHex: req.RecordIDHex,
		JSONText:    req.JSONText,
		URI:         req.URI,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CreateResponse{
		TxHash:   result.TxHash,
		RecordID: result.RecordID,
		URI:      result.URI,
	})
}

// Update обрабатывает обновление записи
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidInput, err))
		return
	}

	result, err := h.recordService.Update(r.Context(), chi.URLParam(r, "recordIdHex"), service.UpdateInput{
		JSONText: req.JSONText,
		URI:      req.URI,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UpdateResponse{
		TxHash:   result.TxHash,
		RecordID: result.RecordID,
		NewURI:   result.URI,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError сопоставляет таксономию ошибок домена со статус-кодами
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrLedgerRejected):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrLedgerUnavailable):
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

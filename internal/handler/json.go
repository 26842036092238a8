package handler

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/repository"
)

// 响应中的错误码，前端据此决定是否刷新提议
const (
	CodeInvalidInput = "invalid_input"
	CodeConflict     = "conflict"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	h.logger.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "服务器内部错误", http.StatusInternalServerError)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, code string, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Code:    code,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		h.errorResponse(w, r, CodeInvalidInput, err.Error())
		return
	}

	h.errorResponse(w, r, CodeInvalidInput, validationErrors[0].Translate(h.translator))
}

// domainError 把排班相关的错误映射到错误码，其余错误按服务器内部错误处理
func (h *Handler) domainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.errorResponse(w, r, CodeInvalidInput, err.Error())
	case errors.Is(err, optimizer.ErrUnknownEmployee):
		h.errorResponse(w, r, CodeNotFound, err.Error())
	case errors.Is(err, optimizer.ErrShiftNotPending),
		errors.Is(err, optimizer.ErrPairRejected),
		errors.Is(err, optimizer.ErrNotEligible),
		errors.Is(err, repository.ErrShiftAlreadyAssigned):
		h.errorResponse(w, r, CodeConflict, err.Error())
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Code:    CodeInternal,
		Message: "服务器内部错误",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

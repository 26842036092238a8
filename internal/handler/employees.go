package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
)

func (h *Handler) GetAllEmployees(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	employees := h.pipeline.Roster.SortedEmployees()
	h.mu.Unlock()

	h.successResponse(w, r, "获取员工成功", employees)
}

func (h *Handler) GetEmployeeCompliance(w http.ResponseWriter, r *http.Request) {
	emp := r.Context().Value(EmployeeCtx).(*domain.Employee)

	h.mu.Lock()
	report := h.pipeline.Validator.Validate(emp)
	h.mu.Unlock()

	h.successResponse(w, r, "获取合规检查结果成功", report)
}

// GetEmployeeEligibility 判断某个待分配班次能否提供给该员工，班次通过 ?shift=<key> 指定
func (h *Handler) GetEmployeeEligibility(w http.ResponseWriter, r *http.Request) {
	emp := r.Context().Value(EmployeeCtx).(*domain.Employee)

	key := r.URL.Query().Get("shift")
	if key == "" {
		h.errorResponse(w, r, CodeInvalidInput, "缺少班次参数")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	shift, ok := h.pipeline.Optimizer.Pending(key)
	if !ok {
		h.errorResponse(w, r, CodeNotFound, "班次不存在或已不再待分配")
		return
	}

	h.successResponse(w, r, "获取规则判断结果成功", h.pipeline.Rules.Evaluate(emp, shift))
}

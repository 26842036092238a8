package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/notify"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/optimizer"
)

type proposalView struct {
	ID           string        `json:"id"`
	EmployeeCode string        `json:"employeeCode"`
	EmployeeName string        `json:"employeeName"`
	ShiftKey     string        `json:"shiftKey"`
	Shift        *domain.Shift `json:"shift"`
	Score        float64       `json:"score"`
	Difficulty   float64       `json:"difficulty"`
}

type pendingShiftView struct {
	Key        string        `json:"key"`
	Shift      *domain.Shift `json:"shift"`
	Difficulty float64       `json:"difficulty"`
}

func (h *Handler) GetNextProposal(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	a, ok := h.pipeline.Optimizer.NextProposal()
	var emp *domain.Employee
	if ok {
		emp, _ = h.pipeline.Roster.Employee(a.EmployeeCode)
	}
	h.mu.Unlock()

	if !ok {
		h.successResponse(w, r, "没有可提议的班次", nil)
		return
	}

	pending := &PendingProposal{ID: a.ID, EmployeeCode: a.EmployeeCode, ShiftKey: a.Shift.Key()}
	if err := h.proposals.Save(r.Context(), pending, time.Duration(h.config.Proposal.Expiration)*time.Second); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取提议成功", proposalView{
		ID:           a.ID,
		EmployeeCode: a.EmployeeCode,
		EmployeeName: emp.Name,
		ShiftKey:     pending.ShiftKey,
		Shift:        a.Shift,
		Score:        a.Score,
		Difficulty:   a.Difficulty,
	})
}

func (h *Handler) RespondToProposal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Accepted *bool `json:"accepted" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	pending := r.Context().Value(ProposalCtxKey).(*PendingProposal)
	accepted := *req.Accepted

	h.mu.Lock()
	defer h.mu.Unlock()

	shift, ok := h.pipeline.Optimizer.Pending(pending.ShiftKey)
	if !ok {
		_ = h.proposals.Delete(r.Context(), pending.ID)
		h.errorResponse(w, r, CodeConflict, "班次已不再待分配")
		return
	}

	// 同一组合可能被多次提议，已被拒绝或不再符合规则的提议直接作废
	a, err := h.pipeline.Optimizer.Proposal(pending.ID, pending.EmployeeCode, shift)
	if err == nil {
		err = h.pipeline.Optimizer.Verify(a, accepted)
	}
	if err != nil {
		_ = h.proposals.Delete(r.Context(), pending.ID)
		h.domainError(w, r, err)
		return
	}

	// 先写数据库，成功后再修改内存中的状态
	if accepted && h.recorder != nil {
		if err := h.recorder.SaveAssignment(a); err != nil {
			h.domainError(w, r, err)
			return
		}
	}

	outcome, err := h.pipeline.Optimizer.Respond(a, accepted)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	if err := h.proposals.Delete(r.Context(), pending.ID); err != nil {
		h.logger.Warn("无法删除已处理的提议", "id", pending.ID, "error", err)
	}

	h.notifyOutcome(r.Context(), a, outcome)

	h.successResponse(w, r, "提议已处理", map[string]any{
		"outcome": outcome,
	})
}

// notifyOutcome 通知失败只记录日志，不影响已经完成的分配
func (h *Handler) notifyOutcome(ctx context.Context, a *optimizer.Assignment, outcome optimizer.Outcome) {
	if h.notifier == nil {
		return
	}

	var msg *domain.MailMessage
	switch outcome {
	case optimizer.OutcomeAssigned:
		emp, ok := h.pipeline.Roster.Employee(a.EmployeeCode)
		if !ok || emp.Email == "" {
			h.logger.Warn("员工没有邮箱，无法发送班次通知", "employee", a.EmployeeCode)
			return
		}
		msg = notify.ShiftOffer(emp, []*domain.Shift{a.Shift})
	case optimizer.OutcomeUnfillable:
		if h.config.Notify.AlertRecipient == "" {
			return
		}
		for _, u := range h.pipeline.Optimizer.Summary().Unfillable {
			if u.Shift == a.Shift {
				msg = notify.UnfillableAlert(h.config.Notify.AlertRecipient, u, h.pipeline.Optimizer.Difficulty(a.Shift))
				break
			}
		}
	}
	if msg == nil {
		return
	}

	if err := h.notifier.Send(ctx, msg); err != nil {
		h.logger.Error("通知发送失败", "type", msg.Type, "to", msg.To, "error", err)
	}
}

func (h *Handler) GetPendingShifts(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	shifts := []pendingShiftView{}
	for _, s := range h.pipeline.Roster.CombinedShifts() {
		if _, ok := h.pipeline.Optimizer.Pending(s.Key()); !ok {
			continue
		}
		shifts = append(shifts, pendingShiftView{
			Key:        s.Key(),
			Shift:      s,
			Difficulty: h.pipeline.Optimizer.Difficulty(s),
		})
	}

	h.successResponse(w, r, "获取待分配班次成功", shifts)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.successResponse(w, r, "获取排班结果成功", map[string]any{
		"summary": h.pipeline.Optimizer.Summary(),
		"stats":   h.pipeline.Roster.Stats(),
	})
}

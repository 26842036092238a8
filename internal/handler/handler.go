package handler

import (
	"io"
	"log/slog"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/config"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/notify"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/optimizer"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/pipeline"
)

// AssignmentRecorder 由 repository.Repository 实现
type AssignmentRecorder interface {
	SaveAssignment(a *optimizer.Assignment) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	translator ut.Translator
	logger     *slog.Logger

	// 优化器和 Roster 不是并发安全的，所有访问都要持有 mu
	mu       sync.Mutex
	pipeline *pipeline.Pipeline

	proposals ProposalStore
	recorder  AssignmentRecorder
	notifier  notify.Notifier // 为 nil 时不发送通知

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, p *pipeline.Pipeline, proposals ProposalStore, recorder AssignmentRecorder, notifier notify.Notifier, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		translator: trans,
		logger:     logger,
		pipeline:   p,
		proposals:  proposals,
		recorder:   recorder,
		notifier:   notifier,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestLogger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/summary", h.GetSummary)
		r.Get("/shifts", h.GetPendingShifts)

		r.Route("/proposals", func(r chi.Router) {
			r.Get("/next", h.GetNextProposal)
			r.With(h.pendingProposal).Post("/{id}/respond", h.RespondToProposal)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.GetAllEmployees)
			r.Route("/{code}", func(r chi.Router) {
				r.Use(h.employee)
				r.Get("/compliance", h.GetEmployeeCompliance)
				r.Get("/eligibility", h.GetEmployeeEligibility)
			})
		})
	})
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "drivertree/internal/errors"
	mw "drivertree/internal/middleware"
	"drivertree/internal/services"
)

// QuestionRequest is the body of POST /api/analysis/questions
type QuestionRequest struct {
	Question string `json:"question" validate:"notblank"`
}

// AnalysisHandler serves the analysis summary and questions as JSON
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	validation   *mw.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, validation *mw.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		validation:   validation,
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analysis routes. limit guards the question route and
// may be nil.
func (h *AnalysisHandler) Routes(limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetOverview)
	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Use(mw.ContentTypeValidator("application/json"))
		r.Use(h.validation.ValidateRequest)
		r.Post("/questions", h.PostQuestion)
	})
	return r
}

// GetOverview handles GET /api/analysis
func (h *AnalysisHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Overview(r.Context()))
}

// PostQuestion handles POST /api/analysis/questions
func (h *AnalysisHandler) PostQuestion(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req QuestionRequest
	if err := h.validation.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "answering question",
		slog.String("request_id", reqID),
		slog.Int("question_chars", len(req.Question)),
	)

	answer, err := h.service.Ask(r.Context(), req.Question)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, answer)
}

var _ AnalysisServiceInterface = (*services.AnalysisService)(nil)

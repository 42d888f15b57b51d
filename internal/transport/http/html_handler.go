package http

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed templates/analysis.html
var templateFS embed.FS

var analysisPage = template.Must(template.ParseFS(templateFS, "templates/analysis.html"))

// Page tabs
const (
	TabSummary = "summary"
	TabAsk     = "ask"
)

// pageData is what the analysis page template renders.
type pageData struct {
	Title      string
	Tab        string
	Period     string
	FiscalWeek int
	Table      string

	Summary string
	Failed  bool

	MaxQuestionLength int
	Question          string
	Answer            string
	Answered          bool
}

// PageHandler serves the two-tab analysis page
type PageHandler struct {
	service           AnalysisServiceInterface
	maxQuestionLength int
	logger            *slog.Logger
}

// NewPageHandler creates the page handler
func NewPageHandler(service AnalysisServiceInterface, maxQuestionLength int, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		service:           service,
		maxQuestionLength: maxQuestionLength,
		logger:            logger.With(slog.String("component", "page_handler")),
	}
}

// Routes returns the page routes. limit guards question submission and may
// be nil.
func (h *PageHandler) Routes(limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.SummaryTab)
	r.Get("/ask", h.AskTab)
	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/ask", h.SubmitQuestion)
	})
	return r
}

// SummaryTab handles GET /
func (h *PageHandler) SummaryTab(w http.ResponseWriter, r *http.Request) {
	o := h.service.Overview(r.Context())
	h.render(w, r, pageData{
		Title:      o.Title,
		Tab:        TabSummary,
		Period:     o.Period,
		FiscalWeek: o.FiscalWeek,
		Table:      o.Table,
		Summary:    o.Summary,
		Failed:     o.Error != "",
	})
}

// AskTab handles GET /ask
func (h *PageHandler) AskTab(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.askData())
}

// SubmitQuestion handles POST /ask. The answer, or the reason there is
// none, is shown under the form.
func (h *PageHandler) SubmitQuestion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	data := h.askData()
	data.Question = r.PostFormValue("question")
	data.Answer = h.service.AnswerText(r.Context(), data.Question)
	data.Answered = true
	h.render(w, r, data)
}

func (h *PageHandler) askData() pageData {
	o := h.service.Heading()
	return pageData{
		Title:             o.Title,
		Tab:               TabAsk,
		Period:            o.Period,
		FiscalWeek:        o.FiscalWeek,
		MaxQuestionLength: h.maxQuestionLength,
	}
}

// render executes the page into a buffer first so a template error never
// sends a half-written page.
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, data pageData) {
	var buf bytes.Buffer
	if err := analysisPage.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page",
			slog.String("error", err.Error()),
			slog.String("tab", data.Tab))
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

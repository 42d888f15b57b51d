package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"unicode/utf8"

	"drivertree/internal/analysis"
	"drivertree/internal/dataprocessing"
	apperrors "drivertree/internal/errors"
	"drivertree/internal/infrastructure"
)

// LoadAnalysisContext reads the transformed sheet and prepares the latest
// week of period for the model.
func LoadAnalysisContext(path, period string) (*analysis.Context, error) {
	records, err := dataprocessing.ReadTransformed(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewConfigError("transformed spreadsheet not found, run the transform command first",
				errors.Join(ErrTransformedNotFound, err)).WithContext("path", path)
		}
		return nil, apperrors.NewConfigError("failed to read transformed spreadsheet", err).
			WithContext("path", path)
	}

	c, err := analysis.Prepare(records, period)
	if err != nil {
		return nil, apperrors.NewDataError(fmt.Sprintf("no positive values for %s", period),
			errors.Join(ErrNoAnalysisData, err)).WithContext("path", path)
	}
	return c, nil
}

// Overview is the analysis summary tab.
type Overview struct {
	Title      string `json:"title"`
	Period     string `json:"period"`
	FiscalWeek int    `json:"fiscal_week"`
	Table      string `json:"table"`
	Summary    string `json:"summary"`
	// Error is set instead of Summary when the model call failed.
	Error string `json:"error,omitempty"`
}

// Answer is the reply to one question.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AnalysisService serves the summary and questions for the prepared week.
type AnalysisService struct {
	session           *analysis.Session
	maxQuestionLength int
	logger            *slog.Logger
}

// NewAnalysisService creates the service around a session. A
// maxQuestionLength of zero disables the length check.
func NewAnalysisService(session *analysis.Session, maxQuestionLength int, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		session:           session,
		maxQuestionLength: maxQuestionLength,
		logger:            infrastructure.WithComponent(logger, "analysis_service"),
	}
}

// WarmUp generates the summary so the first page view does not wait on the
// model. A failure is logged and shown on the summary tab.
func (s *AnalysisService) WarmUp(ctx context.Context) {
	if _, err := s.session.GenerateSummary(ctx); err != nil {
		infrastructure.WithError(s.logger, err).WarnContext(ctx, "Initial analysis failed")
		return
	}
	s.logger.InfoContext(ctx, "Initial analysis ready")
}

// Heading describes the analysed week without calling the model.
func (s *AnalysisService) Heading() Overview {
	c := s.session.Context()
	return Overview{
		Title:      c.Title(),
		Period:     c.Period,
		FiscalWeek: c.FiscalWeek,
		Table:      c.Table,
	}
}

// Overview returns the summary tab content. It never fails: a model error is
// reported in Summary and Error.
func (s *AnalysisService) Overview(ctx context.Context) Overview {
	o := s.Heading()

	text, err := s.session.GenerateSummary(ctx)
	if err != nil {
		o.Summary = fmt.Sprintf(analysis.MsgSummaryFailed, err)
		o.Error = err.Error()
		return o
	}
	o.Summary = text
	return o
}

// Ask answers a question for the JSON API. Blank and oversized questions are
// VALIDATION errors, model failures EXTERNAL errors.
func (s *AnalysisService) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if err := s.checkLength(question); err != nil {
		return nil, err
	}

	text, err := s.session.Ask(ctx, question)
	switch {
	case errors.Is(err, analysis.ErrEmptyQuestion):
		return nil, apperrors.NewAppValidationError(analysis.MsgEmptyQuestion)
	case err != nil:
		return nil, apperrors.NewExternalError("the model could not answer the question", err)
	}
	return &Answer{Question: question, Answer: text}, nil
}

// AnswerText answers a question for the form. Every outcome, including
// failures, is a message to show the user.
func (s *AnalysisService) AnswerText(ctx context.Context, question string) string {
	if s.tooLong(strings.TrimSpace(question)) {
		return s.tooLongMessage()
	}
	return s.session.Answer(ctx, question)
}

func (s *AnalysisService) checkLength(question string) error {
	if !s.tooLong(question) {
		return nil
	}
	return apperrors.NewAppError(apperrors.ErrTypeValidation, s.tooLongMessage(), ErrQuestionTooLong)
}

func (s *AnalysisService) tooLong(question string) bool {
	return s.maxQuestionLength > 0 && utf8.RuneCountInString(question) > s.maxQuestionLength
}

func (s *AnalysisService) tooLongMessage() string {
	return fmt.Sprintf("Please keep questions under %d characters.", s.maxQuestionLength)
}

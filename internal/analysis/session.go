package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"drivertree/internal/infrastructure"
)

// ErrEmptyQuestion is returned by Ask for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// Messages shown in place of a model answer.
const (
	MsgEmptyQuestion  = "Please enter a question."
	MsgSummaryFailed  = "Error getting initial analysis from the model: %v"
	MsgQuestionFailed = "Error getting answer from the model: %v"
)

const (
	metricKindSummary  = "summary"
	metricKindQuestion = "question"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SessionOptions configures a Session.
type SessionOptions struct {
	Persona string
	// Timeout bounds each model call. Zero means no timeout beyond ctx.
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *infrastructure.BusinessMetrics
}

// Session answers summary and question requests about one prepared week.
// It is safe for concurrent use; the summary is generated at most once.
type Session struct {
	context   *Context
	generator Generator
	persona   string
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *infrastructure.BusinessMetrics

	summaryOnce sync.Once
	summary     string
	summaryErr  error
}

// NewSession creates a session for c.
func NewSession(c *Context, generator Generator, opts SessionOptions) (*Session, error) {
	if c == nil {
		return nil, errors.New("analysis context is required")
	}
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		context:   c,
		generator: generator,
		persona:   opts.Persona,
		timeout:   opts.Timeout,
		logger:    infrastructure.WithComponent(logger, "analysis"),
		metrics:   opts.Metrics,
	}, nil
}

// Context returns the prepared week.
func (s *Session) Context() *Context {
	return s.context
}

// GenerateSummary returns the weekly summary, calling the model on first
// use only. A failed first call is returned on every later call too.
func (s *Session) GenerateSummary(ctx context.Context) (string, error) {
	s.summaryOnce.Do(func() {
		prompt, err := SummaryPrompt(s.context, s.persona)
		if err != nil {
			s.summaryErr = err
			return
		}
		s.summary, s.summaryErr = s.generate(ctx, metricKindSummary, prompt)
	})
	return s.summary, s.summaryErr
}

// Summary is GenerateSummary with failures turned into a readable message.
func (s *Session) Summary(ctx context.Context) string {
	text, err := s.GenerateSummary(ctx)
	if err != nil {
		return fmt.Sprintf(MsgSummaryFailed, err)
	}
	return text
}

// Ask answers question from the prepared table.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	prompt, err := QuestionPrompt(s.context, s.persona, question)
	if err != nil {
		return "", err
	}
	return s.generate(ctx, metricKindQuestion, prompt)
}

// Answer is Ask with failures turned into a readable message, so the caller
// can always show the result.
func (s *Session) Answer(ctx context.Context, question string) string {
	text, err := s.Ask(ctx, question)
	switch {
	case errors.Is(err, ErrEmptyQuestion):
		return MsgEmptyQuestion
	case err != nil:
		return fmt.Sprintf(MsgQuestionFailed, err)
	}
	return text
}

func (s *Session) generate(ctx context.Context, kind, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger := s.logger.With(slog.String("kind", kind))
	logger.InfoContext(ctx, "Sending prompt to model", slog.Int("prompt_chars", len(prompt)))

	start := time.Now()
	text, err := s.generator.Generate(ctx, prompt)
	duration := time.Since(start)
	infrastructure.RecordModelCall(ctx, s.metrics, kind, duration, err)

	if err != nil {
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Model call failed",
			slog.Duration("duration", duration))
		return "", err
	}

	logger.InfoContext(ctx, "Model response received",
		slog.Duration("duration", duration),
		slog.Int("response_chars", len(text)))
	return text, nil
}

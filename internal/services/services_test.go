package services

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"drivertree/internal/analysis"
	"drivertree/internal/config"
	apperrors "drivertree/internal/errors"
	"drivertree/internal/shared/testutil"
	"drivertree/internal/validation"
)

func driverTreeWorkbook(t *testing.T) string {
	t.Helper()

	prior := func(int) interface{} { return 100.0 }
	current := func(w int) interface{} {
		if w > 10 {
			return nil
		}
		return float64(100 + w)
	}

	rows := [][]interface{}{
		testutil.WideRow("New", "Online", "SUM of SALES", "FY2024", 52, prior),
		testutil.WideRow("New", "Online", "SUM of SALES", "FY2025", 52, current),
		testutil.WideRow("New", "Store", "SUM of SALES", "FY2024", 52, prior),
		testutil.WideRow("New", "Store", "SUM of SALES", "FY2025", 52, current),
	}
	return testutil.WriteWideWorkbook(t, testutil.WideHeader(52), rows)
}

func testConfig(t *testing.T, input string) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.InputFile = input
	cfg.Paths.OutputFile = filepath.Join(t.TempDir(), "out", "driver_tree_transformed.xlsx")
	return cfg
}

// transformed runs the transform on the standard workbook and returns the
// output path.
func transformed(t *testing.T) string {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	cfg := testConfig(t, driverTreeWorkbook(t))
	_, err := NewTransformService(cfg, logger).Run(context.Background())
	require.NoError(t, err)
	return cfg.Paths.OutputFile
}

func TestTransformService_Run(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	cfg := testConfig(t, driverTreeWorkbook(t))

	result, err := NewTransformService(cfg, logger).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, cfg.Paths.OutputFile, result.OutputFile)
	assert.Equal(t, 8, result.Rows)
	assert.Equal(t, []int{10, 9, 8, 7}, result.Diagnostics.RecentWeeks)
	assert.True(t, config.FileExists(cfg.Paths.OutputFile))
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Transform completed")
}

func TestTransformService_MissingInput(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := testConfig(t, filepath.Join(t.TempDir(), "nope.xlsx"))

	_, err := NewTransformService(cfg, logger).Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.ErrorIs(t, err, ErrInputNotFound)
	assert.False(t, config.FileExists(cfg.Paths.OutputFile))
}

func TestTransformService_BadLayout(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	input := testutil.WriteCSV(t, [][]string{
		{"Cohort", "Channel", "TimePeriod", "1", "2"},
		{"New", "Online", "FY2025", "1", "2"},
	})
	cfg := testConfig(t, input)

	_, err := NewTransformService(cfg, logger).Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.Contains(t, err.Error(), "Values")
}

func TestTransformService_UnsupportedOutput(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := testConfig(t, driverTreeWorkbook(t))
	cfg.Paths.OutputFile = filepath.Join(t.TempDir(), "transformed.json")

	_, err := NewTransformService(cfg, logger).Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.ErrorIs(t, err, validation.ErrUnsupportedFormat)
}

func TestLoadAnalysisContext(t *testing.T) {
	path := transformed(t)

	c, err := LoadAnalysisContext(path, "FY2025")
	require.NoError(t, err)
	assert.Equal(t, 10, c.FiscalWeek)
	assert.Len(t, c.Rows, 2)
	assert.Equal(t, "Sales Performance Analysis: FY2025 - Week 10", c.Title())

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadAnalysisContext(filepath.Join(t.TempDir(), "missing.xlsx"), "FY2025")
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
		assert.ErrorIs(t, err, ErrTransformedNotFound)
	})

	t.Run("no data for period", func(t *testing.T) {
		_, err := LoadAnalysisContext(path, "FY2030")
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeData))
		assert.ErrorIs(t, err, ErrNoAnalysisData)
		assert.ErrorIs(t, err, analysis.ErrNoCurrentData)
	})
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func newAnalysisService(t *testing.T, gen analysis.Generator, maxLen int) *AnalysisService {
	t.Helper()

	c, err := LoadAnalysisContext(transformed(t), "FY2025")
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	session, err := analysis.NewSession(c, gen, analysis.SessionOptions{Persona: "a retired CEO", Logger: logger})
	require.NoError(t, err)
	return NewAnalysisService(session, maxLen, logger)
}

func isQuestion(prompt string) bool {
	return strings.Contains(prompt, "User's Question:")
}

func TestAnalysisService_Overview(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool { return !isQuestion(p) })).
		Return("Online is flat.", nil).Once()

	s := newAnalysisService(t, gen, 100)
	s.WarmUp(context.Background())

	o := s.Overview(context.Background())
	assert.Equal(t, "Sales Performance Analysis: FY2025 - Week 10", o.Title)
	assert.Equal(t, 10, o.FiscalWeek)
	assert.Equal(t, "Online is flat.", o.Summary)
	assert.Empty(t, o.Error)
	assert.Contains(t, o.Table, "| New | Online | SUM of SALES | 10 |")
	gen.AssertExpectations(t)
}

func TestAnalysisService_OverviewFailure(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded")).Once()

	s := newAnalysisService(t, gen, 100)
	s.WarmUp(context.Background())

	o := s.Overview(context.Background())
	assert.Equal(t, "Error getting initial analysis from the model: quota exceeded", o.Summary)
	assert.Equal(t, "quota exceeded", o.Error)
	gen.AssertExpectations(t)
}

func TestAnalysisService_Ask(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return isQuestion(p) && strings.Contains(p, "Why is Store down?")
	})).Return("It is not.", nil).Once()

	s := newAnalysisService(t, gen, 20)

	answer, err := s.Ask(context.Background(), "  Why is Store down? ")
	require.NoError(t, err)
	assert.Equal(t, "Why is Store down?", answer.Question)
	assert.Equal(t, "It is not.", answer.Answer)

	_, err = s.Ask(context.Background(), "   ")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	_, err = s.Ask(context.Background(), strings.Repeat("x", 21))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	assert.ErrorIs(t, err, ErrQuestionTooLong)

	gen.AssertExpectations(t)
}

func TestAnalysisService_AskModelFailure(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("boom"))

	s := newAnalysisService(t, gen, 0)

	_, err := s.Ask(context.Background(), "Any good news?")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExternal))

	assert.Equal(t, "Error getting answer from the model: boom", s.AnswerText(context.Background(), "Any good news?"))
}

func TestAnalysisService_AnswerText(t *testing.T) {
	gen := new(mockGenerator)
	s := newAnalysisService(t, gen, 5)

	assert.Equal(t, analysis.MsgEmptyQuestion, s.AnswerText(context.Background(), " "))
	assert.Equal(t, "Please keep questions under 5 characters.", s.AnswerText(context.Background(), "too long"))
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestHealthService(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := transformed(t)

	ready := false
	hs := NewHealthService("1.2.3", path, "gemini-test", func() bool { return ready }, logger)

	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, "ready", status.Services["data"].Status)
	assert.Equal(t, "not_ready", status.Services["analysis"].Status)

	ready = true
	assert.Equal(t, "ready", hs.ReadinessCheck(context.Background()).Status)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	version := hs.Version()
	assert.Equal(t, "1.2.3", version["version"])
	assert.Equal(t, "gemini-test", version["model"])
	assert.Equal(t, config.AppName, version["app"])
	assert.Equal(t, "v1", version["data_format"])
}

func TestHealthService_MissingData(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService("1.0.0", filepath.Join(t.TempDir(), "none.xlsx"), "m", nil, logger)

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, "transformed spreadsheet not found", status.Services["data"].Message)
}

package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"drivertree/internal/shared/testutil"
)

const testPersona = "a grumpy retired retail CEO"

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func newTestSession(t *testing.T, gen Generator) *Session {
	t.Helper()

	c, err := Prepare(sampleRecords(), "FY2025")
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	s, err := NewSession(c, gen, SessionOptions{Persona: testPersona, Timeout: time.Minute, Logger: logger})
	require.NoError(t, err)
	return s
}

func TestSession_SummaryGeneratedOnce(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Fiscal Year FY2025, Week 10") &&
			strings.Contains(prompt, "'SUM of SALES'") &&
			strings.Contains(prompt, "in the tone of "+testPersona) &&
			strings.Contains(prompt, "| New | Online | SUM of SALES | 10 |")
	})).Return("Sales are soft online.", nil).Once()

	s := newTestSession(t, gen)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "Sales are soft online.", s.Summary(context.Background()))
		}()
	}
	wg.Wait()

	gen.AssertExpectations(t)
}

func TestSession_SummaryFailure(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded")).Once()

	s := newTestSession(t, gen)

	assert.Equal(t, "Error getting initial analysis from the model: quota exceeded", s.Summary(context.Background()))
	_, err := s.GenerateSummary(context.Background())
	assert.EqualError(t, err, "quota exceeded")
	gen.AssertExpectations(t)
}

func TestSession_Answer(t *testing.T) {
	tests := []struct {
		name     string
		question string
		reply    string
		replyErr error
		wantCall bool
		want     string
	}{
		{
			name:     "blank question",
			question: "   ",
			want:     "Please enter a question.",
		},
		{
			name:     "answered",
			question: " Which cohort is worst? ",
			reply:    "Lapsed, mate.",
			wantCall: true,
			want:     "Lapsed, mate.",
		},
		{
			name:     "model failure",
			question: "Which channel grew?",
			replyErr: errors.New("connection reset"),
			wantCall: true,
			want:     "Error getting answer from the model: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(mockGenerator)
			if tt.wantCall {
				gen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
					return strings.Contains(prompt, "You are "+testPersona) &&
						strings.Contains(prompt, "Based *only* on the data") &&
						strings.Contains(prompt, "User's Question: "+strings.TrimSpace(tt.question)+"\n")
				})).Return(tt.reply, tt.replyErr).Once()
			}

			s := newTestSession(t, gen)
			assert.Equal(t, tt.want, s.Answer(context.Background(), tt.question))

			gen.AssertExpectations(t)
			if !tt.wantCall {
				gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestSession_AskEmpty(t *testing.T) {
	s := newTestSession(t, new(mockGenerator))

	_, err := s.Ask(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestSession_TimeoutApplied(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything).Return("ok", nil).Once()

	s := newTestSession(t, gen)
	text, err := s.Ask(context.Background(), "Anything?")

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	gen.AssertExpectations(t)
}

func TestNewSession_Validation(t *testing.T) {
	c, err := Prepare(sampleRecords(), "FY2025")
	require.NoError(t, err)

	_, err = NewSession(nil, new(mockGenerator), SessionOptions{})
	assert.Error(t, err)

	_, err = NewSession(c, nil, SessionOptions{})
	assert.Error(t, err)

	s, err := NewSession(c, new(mockGenerator), SessionOptions{})
	require.NoError(t, err)
	assert.Same(t, c, s.Context())
}

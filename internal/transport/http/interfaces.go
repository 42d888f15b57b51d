package http

import (
	"context"

	"drivertree/internal/services"
)

// AnalysisServiceInterface defines the analysis operations the handlers use
type AnalysisServiceInterface interface {
	Heading() services.Overview
	Overview(ctx context.Context) services.Overview
	Ask(ctx context.Context, question string) (*services.Answer, error)
	AnswerText(ctx context.Context, question string) string
}

// HealthServiceInterface defines the health operations the handlers use
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}

package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"drivertree/internal/config"
	"drivertree/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	dataFile  string
	model     string
	ready     func() bool
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. dataFile is the transformed
// sheet the web command serves and ready reports whether the analysis
// session is up; a nil ready counts as not ready.
func NewHealthService(version, dataFile, model string, ready func() bool, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("data_file", dataFile),
		slog.String("model", model))

	return &HealthService{
		version:   version,
		dataFile:  dataFile,
		model:     model,
		ready:     ready,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"data":     hs.checkDataHealth(),
			"analysis": hs.checkAnalysisHealth(),
		},
	}

	for _, service := range status.Services {
		if service.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "ReadinessCheck: not ready", slog.Any("services", status.Services))
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information, including the build metadata
// stamped into the binary.
func (hs *HealthService) Version() map[string]interface{} {
	build := contracts.GetVersionInfo()
	return map[string]interface{}{
		"app":          config.AppName,
		"version":      hs.version,
		"model":        hs.model,
		"build_time":   build.BuildTime,
		"git_commit":   build.GitCommit,
		"data_format":  build.DataFormat,
		"go_version":   build.GoVersion,
		"os":           build.OS,
		"arch":         build.Architecture,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkDataHealth() ServiceHealth {
	if !config.FileExists(hs.dataFile) {
		return ServiceHealth{Status: "not_ready", Message: "transformed spreadsheet not found"}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkAnalysisHealth() ServiceHealth {
	if hs.ready == nil || !hs.ready() {
		return ServiceHealth{Status: "not_ready", Message: "analysis session not started"}
	}
	return ServiceHealth{Status: "ready"}
}

package app

import (
	"context"
	"fmt"
	"time"

	"autoinject/internal/shared/observability"
	"autoinject/internal/shared/util"
)

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.app.parser != nil {
		status.Components["parser"] = fmt.Sprintf("ok (%d extensions)", len(s.app.parser.SupportedExtensions()))
	} else {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	}

	cfg, transformer, _ := s.app.current()
	if transformer == nil {
		status.Status = "degraded"
		status.Components["transformer"] = "missing"
	} else {
		status.Components["transformer"] = fmt.Sprintf("ok (%d bindings)", len(cfg.Inject.Bindings))
	}

	switch {
	case s.app.store != nil:
		status.Components["cache"] = "ok (" + s.app.store.Path() + ")"
	case cfg.Cache.Enabled:
		status.Status = "degraded"
		status.Components["cache"] = "missing but enabled in config"
	default:
		status.Components["cache"] = "disabled"
	}

	heapMB, goroutines := util.RuntimeStats()
	status.Components["heap_mb"] = fmt.Sprintf("%d", heapMB)
	status.Components["goroutines"] = fmt.Sprintf("%d", goroutines)
	return status
}

package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// LogHooks writes conversion and HTTP events to a charm logger. Routine
// events go to debug; failures go to warn or error.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log through logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

func (h *LogHooks) OnQueued(_ context.Context, id string, waiting int) {
	h.Logger.Debug("queued", "id", id, "waiting", waiting)
}

func (h *LogHooks) OnAdmitted(_ context.Context, id string, waited time.Duration) {
	h.Logger.Debug("admitted", "id", id, "waited", waited.Round(time.Millisecond))
}

func (h *LogHooks) OnStage(_ context.Context, id, stage string, exitCode int, d time.Duration) {
	h.Logger.Debug("stage finished", "id", id, "stage", stage, "exit", exitCode, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnCompileComplete(_ context.Context, id string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("compile failed", "id", id, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.Logger.Debug("compiled", "id", id, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnTranscodeComplete(_ context.Context, id, format string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Error("transcode failed", "id", id, "format", format, "err", err)
		return
	}
	h.Logger.Debug("transcoded", "id", id, "format", format, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnConversionComplete(_ context.Context, id, format string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("conversion aborted", "id", id, "format", format, "duration", d.Round(time.Millisecond))
		return
	}
	h.Logger.Info("converted", "id", id, "format", format, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnRequest(ctx context.Context, method, path string) {
	h.Logger.Debug("request", "req", chimiddleware.GetReqID(ctx), "method", method, "path", path)
}

func (h *LogHooks) OnResponse(ctx context.Context, method, path string, status int, d time.Duration) {
	lvl := log.InfoLevel
	if status >= 500 {
		lvl = log.ErrorLevel
	}
	h.Logger.Log(lvl, "response", "req", chimiddleware.GetReqID(ctx), "method", method, "path", path,
		"status", status, "duration", d.Round(time.Millisecond))
}

var (
	_ ConversionHooks = (*LogHooks)(nil)
	_ HTTPHooks       = (*LogHooks)(nil)
)

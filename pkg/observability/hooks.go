// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through globally registered hooks instead of
// depending on a particular backend. The default hooks do nothing; main
// registers real ones at startup.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    hooks := observability.NewLogHooks(logger)
//	    observability.SetConversionHooks(hooks)
//	    observability.SetHTTPHooks(hooks)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Conversion().OnQueued(ctx, id, waiting)
//	// ... wait for the gate, compile ...
//	observability.Conversion().OnCompileComplete(ctx, id, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Conversion Hooks
// =============================================================================

// ConversionHooks receives events from the conversion pipeline. The id is
// the conversion identity.
type ConversionHooks interface {
	// Admission events
	OnQueued(ctx context.Context, id string, waiting int)
	OnAdmitted(ctx context.Context, id string, waited time.Duration)

	// Compile events, one OnStage per sandbox stage that ran
	OnStage(ctx context.Context, id, stage string, exitCode int, duration time.Duration)
	OnCompileComplete(ctx context.Context, id string, duration time.Duration, err error)

	// Transcode and overall completion
	OnTranscodeComplete(ctx context.Context, id, format string, duration time.Duration, err error)
	OnConversionComplete(ctx context.Context, id, format string, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records a completed response.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopConversionHooks is a no-op implementation of ConversionHooks.
type NoopConversionHooks struct{}

func (NoopConversionHooks) OnQueued(context.Context, string, int)                       {}
func (NoopConversionHooks) OnAdmitted(context.Context, string, time.Duration)           {}
func (NoopConversionHooks) OnStage(context.Context, string, string, int, time.Duration) {}
func (NoopConversionHooks) OnCompileComplete(context.Context, string, time.Duration, error) {
}
func (NoopConversionHooks) OnTranscodeComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopConversionHooks) OnConversionComplete(context.Context, string, string, time.Duration, error) {
}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	conversionHooks ConversionHooks = NoopConversionHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetConversionHooks registers custom conversion hooks.
// This should be called once at application startup before any conversion.
func SetConversionHooks(h ConversionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		conversionHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Conversion returns the registered conversion hooks.
func Conversion() ConversionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return conversionHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	conversionHooks = NoopConversionHooks{}
	httpHooks = NoopHTTPHooks{}
}

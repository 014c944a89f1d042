package apperr

import (
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

// TelemetryReporter sends EnhancedErrors to an external error-tracking system.
// Errors are reported only after a reporter is installed with
// SetTelemetryReporter; nothing in cmd/backline installs one, so by default
// Build reports nowhere.
type TelemetryReporter interface {
	ReportError(ee *EnhancedError)
}

var (
	globalReporter     atomic.Pointer[TelemetryReporter]
	hasActiveReporting atomic.Bool
)

// SetTelemetryReporter installs (or clears, with nil) the process-wide
// telemetry sink. Safe to call before or after errors start being built.
func SetTelemetryReporter(r TelemetryReporter) {
	if r == nil {
		globalReporter.Store(nil)
		hasActiveReporting.Store(false)
		return
	}
	globalReporter.Store(&r)
	hasActiveReporting.Store(true)
}

func reportToTelemetry(ee *EnhancedError) {
	if !hasActiveReporting.Load() {
		return
	}
	rp := globalReporter.Load()
	if rp == nil || ee.IsReported() {
		return
	}
	ee.MarkReported()
	(*rp).ReportError(ee)
}

// SentryReporter reports EnhancedErrors of Medium priority or above to
// Sentry, tagged with component/category/kind for server-side grouping.
type SentryReporter struct {
	MinPriority string
}

// NewSentryReporter configures the sentry-go client with dsn and returns a
// reporter. Pass an empty dsn to disable Sentry while keeping the local
// reporter wiring uniform (IsEnabled-style checks live in the caller).
func NewSentryReporter(dsn, release, environment string) (*SentryReporter, error) {
	if dsn == "" {
		return nil, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Release:     release,
		Environment: environment,
	}); err != nil {
		return nil, err
	}
	return &SentryReporter{MinPriority: PriorityMedium}, nil
}

var priorityRank = map[string]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	min := sr.MinPriority
	if min == "" {
		min = PriorityMedium
	}
	priority := ee.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if priorityRank[priority] < priorityRank[min] {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.Component)
		scope.SetTag("category", string(ee.Category))
		if ee.Kind != "" {
			scope.SetTag("kind", string(ee.Kind))
		}
		scope.SetLevel(sentryLevel(priority))
		for k, v := range ee.GetContext() {
			scope.SetExtra(k, v)
		}
		sentry.CaptureException(ee.Err)
	})
}

func sentryLevel(priority string) sentry.Level {
	switch priority {
	case PriorityCritical:
		return sentry.LevelFatal
	case PriorityHigh:
		return sentry.LevelError
	case PriorityLow:
		return sentry.LevelInfo
	default:
		return sentry.LevelWarning
	}
}

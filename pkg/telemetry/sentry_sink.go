package telemetry

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// SentrySink forwards fault counters to Sentry as breadcrumb-attached
// events. Entirely optional (spec §9 Ambient Stack "Error reporting"):
// construct only when a DSN is configured, and never call it from the
// audio thread.
type SentrySink struct{}

// NewSentrySink initializes the Sentry client for the given DSN. Returns
// an error if initialization fails; callers should treat that as "run
// without telemetry forwarding" rather than a fatal startup condition.
func NewSentrySink(dsn string) (*SentrySink, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: "enginectl",
	})
	if err != nil {
		return nil, err
	}
	return &SentrySink{}, nil
}

// ReportFault records a breadcrumb and sends a message-level event for
// the given fault kind and detail (e.g. processor name for a non-finite
// reset).
func (s *SentrySink) ReportFault(kind, detail string) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category: "engine.fault",
		Message:  detail,
		Level:    sentry.LevelWarning,
		Data:     map[string]interface{}{"kind": kind},
	})
	sentry.CaptureMessage("engine fault: " + kind)
}

// Flush blocks until pending events are sent or the timeout elapses.
func (s *SentrySink) Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

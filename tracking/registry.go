package tracking

import (
	"github.com/RyanBlaney/notch-review/telemetry"
)

// MethodOptions configures the estimators built by Methods
type MethodOptions struct {
	// StartTime and EndTime bound the static notch track, in seconds
	StartTime float64
	EndTime   float64

	// ESCStaleWindow overrides DefaultESCStaleWindow when positive
	ESCStaleWindow float64
}

// Methods builds one estimator per tracking mode, ordered by mode value.
func Methods(log telemetry.Log, opts MethodOptions) []Estimator {
	return []Estimator{
		NewStatic(opts.StartTime, opts.EndTime),
		NewThrottle(log),
		NewRPM(log, 1),
		NewESC(log, WithStaleWindow(opts.ESCStaleWindow)),
		NewFFT(log),
		NewRPM(log, 2),
	}
}

// Select returns the estimator handling mode
func Select(methods []Estimator, mode Mode) (Estimator, bool) {
	for _, m := range methods {
		if m.Mode() == mode {
			return m, true
		}
	}
	return nil, false
}

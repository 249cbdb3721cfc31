package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Token Operations
	RecordTokenIssued(generationTime time.Duration)
	RecordTokenValidation(result string, duration time.Duration)

	// Authentication
	RecordLogin(success bool, duration time.Duration)
	RecordRegistration(result string)
	RecordOAuthCallback(provider string, success bool)
}

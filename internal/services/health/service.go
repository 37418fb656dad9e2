package health

import "time"

// Payload is the liveness body returned by GET /health.
type Payload struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

// Service encapsulates health-related checks.
type Service struct {
	env string
	now func() time.Time
}

// NewService constructs a new health service for the given environment name.
func NewService(env string, now func() time.Time) *Service {
	if env == "" {
		env = "development"
	}
	if now == nil {
		now = time.Now
	}
	return &Service{env: env, now: now}
}

// Status returns the liveness payload.
func (s *Service) Status() Payload {
	return Payload{
		Status:      "healthy",
		Timestamp:   s.now().UTC().Format(time.RFC3339Nano),
		Environment: s.env,
	}
}

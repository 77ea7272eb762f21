package service

import (
	"time"

	"github.com/Jinwoo290350/PaiLOCAL/internal/model"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// HealthService produces the liveness payload. It checks no dependencies.
type HealthService struct {
	now func() time.Time
}

// NewHealthService returns a health service using the wall clock.
func NewHealthService() *HealthService {
	return &HealthService{now: time.Now}
}

// Check reports the service as healthy with the current UTC time.
func (s *HealthService) Check() model.HealthStatus {
	return model.HealthStatus{
		Status:    "healthy",
		Timestamp: s.now().UTC().Format(isoMillis),
		Service:   "healthcare",
		Message:   "Healthcare service is up and running",
	}
}

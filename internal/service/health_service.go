package service

import (
	"context"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc 讓一般函式實作 Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type ComponentStatus struct {
	Name    string
	OK      bool
	Latency time.Duration
	Err     error
}

type HealthService struct {
	names   []string
	pingers map[string]Pinger
	timeout time.Duration
}

func NewHealthService(timeout time.Duration) *HealthService {
	return &HealthService{pingers: make(map[string]Pinger), timeout: timeout}
}

func (h *HealthService) Register(name string, p Pinger) *HealthService {
	if _, ok := h.pingers[name]; !ok {
		h.names = append(h.names, name)
	}
	h.pingers[name] = p
	return h
}

// Check 依註冊順序逐一 ping
func (h *HealthService) Check(ctx context.Context) []ComponentStatus {
	statuses := make([]ComponentStatus, 0, len(h.names))
	for _, name := range h.names {
		pctx, cancel := context.WithTimeout(ctx, h.timeout)
		start := time.Now()
		err := h.pingers[name].Ping(pctx)
		cancel()
		statuses = append(statuses, ComponentStatus{
			Name:    name,
			OK:      err == nil,
			Latency: time.Since(start),
			Err:     err,
		})
	}
	return statuses
}

func Healthy(statuses []ComponentStatus) bool {
	for _, s := range statuses {
		if !s.OK {
			return false
		}
	}
	return true
}

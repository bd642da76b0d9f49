package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/pizzabot/internal/api/dto"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
	"github.com/RoyceAzure/rj/api"
)

type HealthHandler struct {
	health *service.HealthService
}

func NewHealthHandler(health *service.HealthService) *HealthHandler {
	if health == nil {
		panic("health service cannot be nil")
	}
	return &HealthHandler{health: health}
}

// Healthz 任一元件失敗回 503
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	statuses := h.health.Check(r.Context())
	res := dto.HealthDTO{
		Healthy:    service.Healthy(statuses),
		Components: make([]dto.ComponentStatusDTO, 0, len(statuses)),
	}
	for _, s := range statuses {
		c := dto.ComponentStatusDTO{Name: s.Name, OK: s.OK, LatencyMs: s.Latency.Milliseconds()}
		if s.Err != nil {
			c.Error = s.Err.Error()
		}
		res.Components = append(res.Components, c)
	}

	if !res.Healthy {
		api.JSON(w, http.StatusServiceUnavailable, api.Response{Success: false, Data: res})
		return
	}
	api.SuccessJSONWithoutMeta(w, res)
}

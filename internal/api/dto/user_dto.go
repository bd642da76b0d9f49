package dto

import "time"

// UserDTO 表示 bot 使用者資訊
type UserDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

type ComponentStatusDTO struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type HealthDTO struct {
	Healthy    bool                 `json:"healthy"`
	Components []ComponentStatusDTO `json:"components"`
}

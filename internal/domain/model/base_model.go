package model

import (
	"time"
)

type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// 顯示用時區偏移 (Minsk UTC+3)
const LocalOffset = 3 * time.Hour

func (b BaseModel) CreatedAtLocal() time.Time {
	return b.CreatedAt.UTC().Add(LocalOffset)
}

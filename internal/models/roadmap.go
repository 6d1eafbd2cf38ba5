package models

import (
	"time"

	"gorm.io/datatypes"
)

// Roadmap is a persisted learning plan. The id is generated by the caller
// before save; the store never assigns one. Modules is stored as an opaque
// JSON document — the storage layer never interprets its contents.
type Roadmap struct {
	ID                 string         `json:"id" gorm:"primaryKey;size:255"`
	UserID             string         `json:"user_id" gorm:"index;size:255"`
	Title              string         `json:"title" gorm:"size:500"`
	CareerGoal         string         `json:"career_goal" gorm:"size:500"`
	EstimatedWeeks     int            `json:"estimated_weeks"`
	Modules            datatypes.JSON `json:"modules"`
	CurrentModule      int            `json:"current_module" gorm:"default:0"`
	ProgressPercentage float64        `json:"progress_percentage" gorm:"default:0"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (Roadmap) TableName() string {
	return "roadmaps"
}

// Clone returns a deep copy so mock-store reads can't alias writer memory.
func (r *Roadmap) Clone() *Roadmap {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Modules != nil {
		cp.Modules = make(datatypes.JSON, len(r.Modules))
		copy(cp.Modules, r.Modules)
	}
	return &cp
}

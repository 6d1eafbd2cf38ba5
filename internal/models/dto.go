package models

import (
	"gorm.io/datatypes"
)

// ===== AUTH DTOs =====

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=255"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

// ===== ROADMAP CONTENT MODELS =====

// These shapes describe the structured module documents the planner produces
// and the export layer reads. To the storage layer they are an opaque blob.

type SkillAssessment struct {
	Skill    string `json:"skill" validate:"required"`
	Score    int    `json:"score" validate:"required,min=1,max=10"`
	Level    string `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	LastUsed string `json:"last_used,omitempty"`
}

type LearningPreferences struct {
	LearningStyle              string   `json:"learning_style,omitempty" validate:"omitempty,oneof=visual hands-on reading mixed"`
	TimeCommitmentHoursPerWeek int      `json:"time_commitment_hours_per_week,omitempty" validate:"omitempty,min=1,max=168"`
	FocusAreas                 []string `json:"focus_areas,omitempty"`
	ExcludeTopics              []string `json:"exclude_topics,omitempty"`
	TargetCompletionDate       string   `json:"target_completion_date,omitempty"`
}

type LearningResource struct {
	Title           string `json:"title"`
	Type            string `json:"type"` // video, article, documentation, interactive-lab, book
	URL             string `json:"url"`
	Duration        string `json:"duration,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Difficulty      string `json:"difficulty"`
	Description     string `json:"description,omitempty"`
}

type Project struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	EstimatedHours int      `json:"estimated_hours"`
	SkillsApplied  []string `json:"skills_applied"`
	Deliverables   []string `json:"deliverables"`
	Difficulty     string   `json:"difficulty"`
}

type RoadmapModule struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	EstimatedHours     int                `json:"estimated_hours"`
	SkillsTaught       []string           `json:"skills_taught"`
	Resources          []LearningResource `json:"resources"`
	Project            *Project           `json:"project,omitempty"`
	PrerequisiteSkills []string           `json:"prerequisite_skills,omitempty"`
	LearningOutcomes   []string           `json:"learning_outcomes,omitempty"`
	Difficulty         string             `json:"difficulty,omitempty"`
}

// ===== ROADMAP REQUEST/RESPONSE DTOs =====

type GenerateRoadmapRequest struct {
	CareerGoal          string               `json:"career_goal" validate:"required,min=3,max=500"`
	CurrentSkills       []SkillAssessment    `json:"current_skills" validate:"omitempty,dive"`
	LearningPreferences *LearningPreferences `json:"learning_preferences" validate:"omitempty"`
	UserID              string               `json:"user_id,omitempty"`
}

// UpdateRoadmapRequest carries a partial update: only non-nil fields are
// applied to the stored roadmap.
type UpdateRoadmapRequest struct {
	Title              *string         `json:"title" validate:"omitempty,min=1,max=500"`
	EstimatedWeeks     *int            `json:"estimated_weeks" validate:"omitempty,min=0"`
	Modules            *datatypes.JSON `json:"modules"`
	CurrentModule      *int            `json:"current_module" validate:"omitempty,min=0"`
	ProgressPercentage *float64        `json:"progress_percentage" validate:"omitempty,min=0,max=100"`
}

type RoadmapResponse struct {
	Roadmap *Roadmap `json:"roadmap"`
	Message string   `json:"message,omitempty"`
}

type RoadmapListResponse struct {
	Roadmaps []*Roadmap `json:"roadmaps"`
	Count    int        `json:"count"`
}

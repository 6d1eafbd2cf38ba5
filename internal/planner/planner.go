package planner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/gblms/roadmap-service/internal/models"
)

const (
	defaultHoursPerWeek = 10
	minModules          = 3
	maxModules          = 5
)

// Planner builds structured learning roadmaps from a career goal and a skill
// self-assessment. The output is deterministic for a given request: a
// foundation module for weak or missing prerequisites, one core module per
// focus area, and a capstone project.
type Planner struct{}

func New() *Planner {
	return &Planner{}
}

// BuildRoadmap assembles a roadmap for the request. The caller-visible id is
// generated here, before save, as the storage contract requires.
func (p *Planner) BuildRoadmap(req *models.GenerateRoadmapRequest, userID string) (*models.Roadmap, error) {
	modules := p.buildModules(req)

	totalHours := 0
	for _, m := range modules {
		totalHours += m.EstimatedHours
	}

	hoursPerWeek := defaultHoursPerWeek
	if req.LearningPreferences != nil && req.LearningPreferences.TimeCommitmentHoursPerWeek > 0 {
		hoursPerWeek = req.LearningPreferences.TimeCommitmentHoursPerWeek
	}
	weeks := (totalHours + hoursPerWeek - 1) / hoursPerWeek
	if weeks < 1 {
		weeks = 1
	}

	blob, err := json.Marshal(modules)
	if err != nil {
		return nil, fmt.Errorf("failed to encode roadmap modules: %w", err)
	}

	now := time.Now().UTC()
	return &models.Roadmap{
		ID:                 uuid.New().String(),
		UserID:             userID,
		Title:              "Roadmap to " + req.CareerGoal,
		CareerGoal:         req.CareerGoal,
		EstimatedWeeks:     weeks,
		Modules:            datatypes.JSON(blob),
		CurrentModule:      0,
		ProgressPercentage: 0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func (p *Planner) buildModules(req *models.GenerateRoadmapRequest) []models.RoadmapModule {
	var modules []models.RoadmapModule
	excluded := excludeSet(req.LearningPreferences)

	// 1. Foundation module covering weak skills (score <= 4)
	weak := weakSkills(req.CurrentSkills)
	modules = append(modules, models.RoadmapModule{
		ID:             fmt.Sprintf("module-%d", len(modules)+1),
		Title:          "Foundations for " + req.CareerGoal,
		Description:    "Close the gaps in prerequisite skills before moving to specialized topics.",
		EstimatedHours: 20 + 5*len(weak),
		SkillsTaught:   orDefault(weak, []string{"fundamentals"}),
		Difficulty:     "beginner",
		Resources:      p.resourcesFor(req.CareerGoal, "beginner", req.LearningPreferences),
		LearningOutcomes: []string{
			"Solid grasp of the prerequisite skills",
			"Readiness for the specialization modules",
		},
	})

	// 2. One core module per focus area, clamped by the module cap
	focusAreas := focusAreasFor(req)
	for _, area := range focusAreas {
		if len(modules) >= maxModules-1 {
			break
		}
		if _, skip := excluded[strings.ToLower(area)]; skip {
			continue
		}
		modules = append(modules, models.RoadmapModule{
			ID:                 fmt.Sprintf("module-%d", len(modules)+1),
			Title:              "Deep Dive: " + area,
			Description:        fmt.Sprintf("Structured study of %s with hands-on practice.", area),
			EstimatedHours:     30,
			SkillsTaught:       []string{area},
			PrerequisiteSkills: orDefault(weak, nil),
			Difficulty:         "intermediate",
			Resources:          p.resourcesFor(area, "intermediate", req.LearningPreferences),
			LearningOutcomes: []string{
				fmt.Sprintf("Working proficiency in %s", area),
			},
		})
	}

	// 3. Capstone project applying everything
	applied := make([]string, 0, len(modules))
	for _, m := range modules {
		applied = append(applied, m.SkillsTaught...)
	}
	modules = append(modules, models.RoadmapModule{
		ID:             fmt.Sprintf("module-%d", len(modules)+1),
		Title:          "Capstone Project",
		Description:    "Apply the full skill set in a portfolio-ready project.",
		EstimatedHours: 40,
		SkillsTaught:   []string{"project delivery"},
		Difficulty:     "advanced",
		Project: &models.Project{
			Title:          "Capstone: " + req.CareerGoal,
			Description:    "An end-to-end project demonstrating the roadmap's skills.",
			EstimatedHours: 40,
			SkillsApplied:  applied,
			Deliverables:   []string{"Working implementation", "Written walkthrough"},
			Difficulty:     "advanced",
		},
		LearningOutcomes: []string{"A portfolio project aligned with the career goal"},
	})

	// Pad with a review module if the plan came out too thin
	for len(modules) < minModules {
		modules = append(modules, models.RoadmapModule{
			ID:             fmt.Sprintf("module-%d", len(modules)+1),
			Title:          "Review and Practice",
			Description:    "Consolidate earlier modules through spaced repetition and exercises.",
			EstimatedHours: 15,
			SkillsTaught:   []string{"review"},
			Difficulty:     "intermediate",
		})
	}

	return modules
}

func (p *Planner) resourcesFor(topic, difficulty string, prefs *models.LearningPreferences) []models.LearningResource {
	style := "mixed"
	if prefs != nil && prefs.LearningStyle != "" {
		style = prefs.LearningStyle
	}

	resources := []models.LearningResource{
		{
			Title:      "Official documentation: " + topic,
			Type:       "documentation",
			URL:        "https://www.google.com/search?q=" + strings.ReplaceAll(topic, " ", "+") + "+documentation",
			Difficulty: difficulty,
		},
	}

	switch style {
	case "visual":
		resources = append(resources, models.LearningResource{
			Title:      "Video course: " + topic,
			Type:       "video",
			URL:        "https://www.youtube.com/results?search_query=" + strings.ReplaceAll(topic, " ", "+"),
			Difficulty: difficulty,
		})
	case "hands-on":
		resources = append(resources, models.LearningResource{
			Title:      "Interactive lab: " + topic,
			Type:       "interactive-lab",
			URL:        "https://www.freecodecamp.org/learn",
			Difficulty: difficulty,
		})
	default:
		resources = append(resources, models.LearningResource{
			Title:      "In-depth article series: " + topic,
			Type:       "article",
			URL:        "https://www.freecodecamp.org/news/search/?query=" + strings.ReplaceAll(topic, " ", "%20"),
			Difficulty: difficulty,
		})
	}

	return resources
}

func weakSkills(skills []models.SkillAssessment) []string {
	var weak []string
	for _, s := range skills {
		if s.Score <= 4 {
			weak = append(weak, s.Skill)
		}
	}
	return weak
}

func focusAreasFor(req *models.GenerateRoadmapRequest) []string {
	if req.LearningPreferences != nil && len(req.LearningPreferences.FocusAreas) > 0 {
		return req.LearningPreferences.FocusAreas
	}
	// no explicit focus areas: deepen the strongest existing skills
	var areas []string
	for _, s := range req.CurrentSkills {
		if s.Score >= 5 {
			areas = append(areas, s.Skill)
		}
	}
	if len(areas) == 0 {
		areas = []string{req.CareerGoal}
	}
	return areas
}

func excludeSet(prefs *models.LearningPreferences) map[string]struct{} {
	set := make(map[string]struct{})
	if prefs == nil {
		return set
	}
	for _, topic := range prefs.ExcludeTopics {
		set[strings.ToLower(topic)] = struct{}{}
	}
	return set
}

func orDefault(values, fallback []string) []string {
	if len(values) > 0 {
		return values
	}
	return fallback
}

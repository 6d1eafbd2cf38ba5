package planner

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gblms/roadmap-service/internal/models"
)

func decodeModules(t *testing.T, roadmap *models.Roadmap) []models.RoadmapModule {
	t.Helper()
	var modules []models.RoadmapModule
	require.NoError(t, json.Unmarshal(roadmap.Modules, &modules))
	return modules
}

func TestBuildRoadmap_Shape(t *testing.T) {
	p := New()
	req := &models.GenerateRoadmapRequest{
		CareerGoal: "Backend Engineer",
		CurrentSkills: []models.SkillAssessment{
			{Skill: "sql", Score: 3},
			{Skill: "go", Score: 7},
		},
	}

	roadmap, err := p.BuildRoadmap(req, "alice")
	require.NoError(t, err)

	_, err = uuid.Parse(roadmap.ID)
	assert.NoError(t, err, "roadmap id must be generated before save")
	assert.Equal(t, "alice", roadmap.UserID)
	assert.Equal(t, "Roadmap to Backend Engineer", roadmap.Title)
	assert.Equal(t, "Backend Engineer", roadmap.CareerGoal)
	assert.Zero(t, roadmap.CurrentModule)
	assert.Zero(t, roadmap.ProgressPercentage)
	assert.GreaterOrEqual(t, roadmap.EstimatedWeeks, 1)
	assert.False(t, roadmap.CreatedAt.IsZero())

	modules := decodeModules(t, roadmap)
	require.GreaterOrEqual(t, len(modules), 3)
	require.LessOrEqual(t, len(modules), 5)
	for i, m := range modules {
		assert.Equal(t, fmt.Sprintf("module-%d", i+1), m.ID)
		assert.NotEmpty(t, m.Title)
		assert.Positive(t, m.EstimatedHours)
	}
}

func TestBuildRoadmap_FoundationCoversWeakSkills(t *testing.T) {
	p := New()
	req := &models.GenerateRoadmapRequest{
		CareerGoal: "Data Engineer",
		CurrentSkills: []models.SkillAssessment{
			{Skill: "python", Score: 2},
			{Skill: "sql", Score: 4},
			{Skill: "linux", Score: 8},
		},
	}

	roadmap, err := p.BuildRoadmap(req, "alice")
	require.NoError(t, err)

	modules := decodeModules(t, roadmap)
	foundation := modules[0]
	assert.Equal(t, "beginner", foundation.Difficulty)
	assert.ElementsMatch(t, []string{"python", "sql"}, foundation.SkillsTaught)
}

func TestBuildRoadmap_FocusAreasBecomeModules(t *testing.T) {
	p := New()
	req := &models.GenerateRoadmapRequest{
		CareerGoal: "SRE",
		LearningPreferences: &models.LearningPreferences{
			FocusAreas: []string{"kubernetes", "observability"},
		},
	}

	roadmap, err := p.BuildRoadmap(req, "alice")
	require.NoError(t, err)

	modules := decodeModules(t, roadmap)
	var titles []string
	for _, m := range modules {
		titles = append(titles, m.Title)
	}
	assert.Contains(t, titles, "Deep Dive: kubernetes")
	assert.Contains(t, titles, "Deep Dive: observability")
}

func TestBuildRoadmap_ExcludedTopicsSkipped(t *testing.T) {
	p := New()
	req := &models.GenerateRoadmapRequest{
		CareerGoal: "SRE",
		LearningPreferences: &models.LearningPreferences{
			FocusAreas:    []string{"kubernetes", "terraform"},
			ExcludeTopics: []string{"Terraform"},
		},
	}

	roadmap, err := p.BuildRoadmap(req, "alice")
	require.NoError(t, err)

	for _, m := range decodeModules(t, roadmap) {
		assert.NotEqual(t, "Deep Dive: terraform", m.Title)
	}
}

func TestBuildRoadmap_ModuleCapClampsFocusAreas(t *testing.T) {
	p := New()
	req := &models.GenerateRoadmapRequest{
		CareerGoal: "Platform Engineer",
		LearningPreferences: &models.LearningPreferences{
			FocusAreas: []string{"a", "b", "c", "d", "e", "f", "g"},
		},
	}

	roadmap, err := p.BuildRoadmap(req, "alice")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(decodeModules(t, roadmap)), 5)
}

func TestBuildRoadmap_CapstoneIsLast(t *testing.T) {
	p := New()
	roadmap, err := p.BuildRoadmap(&models.GenerateRoadmapRequest{CareerGoal: "ML Engineer"}, "alice")
	require.NoError(t, err)

	modules := decodeModules(t, roadmap)
	last := modules[len(modules)-1]
	assert.Equal(t, "Capstone Project", last.Title)
	require.NotNil(t, last.Project)
	assert.Equal(t, "Capstone: ML Engineer", last.Project.Title)
	assert.NotEmpty(t, last.Project.SkillsApplied)
}

func TestBuildRoadmap_WeeksScaleWithCommitment(t *testing.T) {
	p := New()
	base := &models.GenerateRoadmapRequest{CareerGoal: "Backend Engineer"}
	busy := &models.GenerateRoadmapRequest{
		CareerGoal: "Backend Engineer",
		LearningPreferences: &models.LearningPreferences{
			TimeCommitmentHoursPerWeek: 40,
		},
	}

	slow, err := p.BuildRoadmap(base, "alice")
	require.NoError(t, err)
	fast, err := p.BuildRoadmap(busy, "alice")
	require.NoError(t, err)

	assert.Less(t, fast.EstimatedWeeks, slow.EstimatedWeeks)
	assert.GreaterOrEqual(t, fast.EstimatedWeeks, 1)
}

func TestBuildRoadmap_LearningStyleShapesResources(t *testing.T) {
	p := New()
	req := &models.GenerateRoadmapRequest{
		CareerGoal: "Frontend Engineer",
		LearningPreferences: &models.LearningPreferences{
			LearningStyle: "visual",
		},
	}

	roadmap, err := p.BuildRoadmap(req, "alice")
	require.NoError(t, err)

	modules := decodeModules(t, roadmap)
	var types []string
	for _, r := range modules[0].Resources {
		types = append(types, r.Type)
	}
	assert.Contains(t, types, "video")
}

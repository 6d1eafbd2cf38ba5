package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gblms/roadmap-service/internal/cache"
	"github.com/gblms/roadmap-service/internal/events"
	"github.com/gblms/roadmap-service/internal/models"
	"github.com/gblms/roadmap-service/internal/planner"
	"github.com/gblms/roadmap-service/internal/repositories"
)

const roadmapCachePrefix = "roadmap:"

type roadmapService struct {
	store   repositories.Store
	cache   *cache.Client
	bus     *events.Bus
	planner *planner.Planner
	logger  *slog.Logger
}

func NewRoadmapService(
	store repositories.Store,
	cacheClient *cache.Client,
	bus *events.Bus,
	logger *slog.Logger,
) RoadmapService {
	return &roadmapService{
		store:   store,
		cache:   cacheClient,
		bus:     bus,
		planner: planner.New(),
		logger:  logger,
	}
}

// Generate builds a new roadmap from the request, persists it and caches it.
func (s *roadmapService) Generate(ctx context.Context, req *models.GenerateRoadmapRequest, username string) (*models.RoadmapResponse, error) {
	userID := username
	if req.UserID != "" {
		userID = req.UserID
	}

	roadmap, err := s.planner.BuildRoadmap(req, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build roadmap: %w", err)
	}

	saved, err := s.store.SaveRoadmap(ctx, roadmap)
	if err != nil {
		return nil, fmt.Errorf("failed to save roadmap: %w", err)
	}

	s.cacheRoadmap(ctx, saved)
	s.bus.PublishRoadmapEvent(ctx, events.EventRoadmapCreated, saved)

	s.logger.InfoContext(ctx, "roadmap generated",
		"roadmap_id", saved.ID,
		"user_id", saved.UserID,
		"modules", countModules(saved))

	return &models.RoadmapResponse{
		Roadmap: saved,
		Message: "Roadmap generated successfully",
	}, nil
}

// Get returns the roadmap, serving from cache when fresh.
func (s *roadmapService) Get(ctx context.Context, id string) (*models.Roadmap, error) {
	var cached models.Roadmap
	if err := s.cache.Get(ctx, roadmapCachePrefix+id, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "cache read failed", "roadmap_id", id, "error", err)
	}

	roadmap, err := s.store.GetRoadmap(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheRoadmap(ctx, roadmap)
	return roadmap, nil
}

// Update applies a partial update and refreshes the cache.
func (s *roadmapService) Update(ctx context.Context, id string, req *models.UpdateRoadmapRequest) (*models.RoadmapResponse, error) {
	fields := fieldsFromRequest(req)
	if len(fields) == 0 {
		roadmap, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return &models.RoadmapResponse{Roadmap: roadmap, Message: "No changes"}, nil
	}

	updated, err := s.store.UpdateRoadmap(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.cacheRoadmap(ctx, updated)
	s.bus.PublishRoadmapEvent(ctx, events.EventRoadmapUpdated, updated)

	return &models.RoadmapResponse{
		Roadmap: updated,
		Message: "Roadmap updated successfully",
	}, nil
}

func (s *roadmapService) ListByUser(ctx context.Context, username string) (*models.RoadmapListResponse, error) {
	roadmaps, err := s.store.GetUserRoadmaps(ctx, username)
	if err != nil {
		return nil, err
	}
	return &models.RoadmapListResponse{Roadmaps: roadmaps, Count: len(roadmaps)}, nil
}

func (s *roadmapService) cacheRoadmap(ctx context.Context, roadmap *models.Roadmap) {
	if err := s.cache.Set(ctx, roadmapCachePrefix+roadmap.ID, roadmap, cache.DefaultRoadmapTTL); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "roadmap_id", roadmap.ID, "error", err)
	}
}

func fieldsFromRequest(req *models.UpdateRoadmapRequest) repositories.Fields {
	fields := repositories.Fields{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.EstimatedWeeks != nil {
		fields["estimated_weeks"] = *req.EstimatedWeeks
	}
	if req.Modules != nil {
		fields["modules"] = *req.Modules
	}
	if req.CurrentModule != nil {
		fields["current_module"] = *req.CurrentModule
	}
	if req.ProgressPercentage != nil {
		fields["progress_percentage"] = *req.ProgressPercentage
	}
	return fields
}

func countModules(roadmap *models.Roadmap) int {
	var modules []json.RawMessage
	if err := json.Unmarshal(roadmap.Modules, &modules); err != nil {
		return 0
	}
	return len(modules)
}

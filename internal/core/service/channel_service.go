package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tubehub/user-service/internal/core/domain"
	"github.com/tubehub/user-service/internal/core/ports"
)

// ChannelService runs the relationship queries. Results are recomputed on
// every call.
type ChannelService struct {
	graph ports.RelationshipRepository
}

func NewChannelService(graph ports.RelationshipRepository) *ChannelService {
	return &ChannelService{graph: graph}
}

func (s *ChannelService) ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, domain.Errorf(domain.ErrValidation, "username is missing")
	}

	profile, err := s.graph.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		return nil, fmt.Errorf("channel profile: %w", err)
	}
	if profile == nil {
		return nil, domain.ErrChannelNotFound
	}
	return profile, nil
}

func (s *ChannelService) WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	history, err := s.graph.WatchHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("watch history: %w", err)
	}
	if history == nil {
		history = []domain.WatchedVideo{}
	}
	return history, nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"

	"refurbstock/internal/model"
	"refurbstock/internal/repository"

	"gorm.io/datatypes"
)

type ActivityLogResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Username   string          `json:"username"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	EntityName string          `json:"entity_name"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

// Activity describes one mutation to record.
type Activity struct {
	Action     string
	EntityType string
	EntityID   string
	EntityName string
	Details    interface{}
}

type ActivityService interface {
	// Record writes an entry attributed to the caller in ctx. Inside RunInTx it joins the transaction.
	Record(ctx context.Context, a Activity) error
	GetActivityLogs(ctx context.Context, page, limit int, entityType string) ([]ActivityLogResponse, int64, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

// NewActivityService creates a new ActivityService instance
func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

func (s *activityService) Record(ctx context.Context, a Activity) error {
	userID, username := actorOf(ctx)

	entry := &model.ActivityLog{
		UserID:     userID,
		Username:   username,
		Action:     a.Action,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		EntityName: a.EntityName,
	}
	if a.Details != nil {
		raw, err := json.Marshal(a.Details)
		if err != nil {
			return fmt.Errorf("failed to encode activity details: %w", err)
		}
		entry.Details = datatypes.JSON(raw)
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}

// GetActivityLogs retrieves paginated entries, newest first
func (s *activityService) GetActivityLogs(ctx context.Context, page, limit int, entityType string) ([]ActivityLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, page, limit, entityType)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch activity logs: %w", err)
	}

	res := make([]ActivityLogResponse, 0, len(logs))
	for _, l := range logs {
		userID := ""
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		var details json.RawMessage
		if len(l.Details) > 0 {
			details = json.RawMessage(l.Details)
		}

		res = append(res, ActivityLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Username:   l.Username,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}

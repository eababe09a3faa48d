package services

import (
	"context"
	"strings"
	"time"

	"rallypoint/database"
	"rallypoint/models"
)

type ActivityService struct {
	store *database.Store
	audit *AuditLogger
}

func NewActivityService(store *database.Store, audit *AuditLogger) *ActivityService {
	return &ActivityService{store: store, audit: audit}
}

func validateActivity(input models.ActivityInput) (*models.Activity, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalidInput("Activity name is required")
	}
	if tooLong(name, maxActivityName) {
		return nil, invalidInput("Activity name must be at most 100 characters")
	}

	when, err := time.Parse(time.RFC3339, strings.TrimSpace(input.Time))
	if err != nil {
		return nil, invalidInput("Time must be an RFC 3339 timestamp")
	}

	location := strings.TrimSpace(input.Location)
	if tooLong(location, maxLocationLength) {
		return nil, invalidInput("Location must be at most 255 characters")
	}
	details := strings.TrimSpace(input.Details)
	if tooLong(details, maxDetailsLength) {
		return nil, invalidInput("Details must be at most 2000 characters")
	}

	return &models.Activity{
		Name:     name,
		Time:     when.UTC(),
		Location: location,
		Details:  details,
		GroupID:  input.GroupID,
	}, nil
}

// Create schedules an activity. Authorization is checked before the input
// is validated.
func (s *ActivityService) Create(ctx context.Context, actor Actor, input models.ActivityInput) (*models.Activity, error) {
	if _, err := adminGroup(ctx, s.store, input.GroupID, actor.UserID, "You are not an admin of this group. You cannot create events."); err != nil {
		return nil, err
	}

	activity, err := validateActivity(input)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateActivity(ctx, activity); err != nil {
		return nil, internal(err)
	}

	s.audit.Record(ctx, actor, activity.GroupID, models.AuditActionActivityCreate, "Created activity: "+activity.Name)
	return activity, nil
}

// List returns the group's activities, newest first, to any member.
func (s *ActivityService) List(ctx context.Context, actor Actor, groupID uint) ([]models.ActivityResponse, error) {
	if err := requireMember(ctx, s.store, groupID, actor.UserID, "You are not a member of this group"); err != nil {
		return nil, err
	}

	activities, err := s.store.ListActivities(ctx, groupID)
	if err != nil {
		return nil, internal(err)
	}

	responses := make([]models.ActivityResponse, len(activities))
	for i, a := range activities {
		responses[i] = a.ToResponse()
	}
	return responses, nil
}

// Delete removes an activity of the admin's group. Activities of other
// groups are reported as not found.
func (s *ActivityService) Delete(ctx context.Context, actor Actor, input models.DeleteActivityInput) error {
	if _, err := adminGroup(ctx, s.store, input.GroupID, actor.UserID, "You are not an admin of this group."); err != nil {
		return err
	}

	n, err := s.store.DeleteActivity(ctx, input.GroupID, input.ActivityID)
	if err != nil {
		return internal(err)
	}
	if n == 0 {
		return notFound("Activity not found")
	}

	s.audit.Record(ctx, actor, input.GroupID, models.AuditActionActivityDelete, "")
	return nil
}

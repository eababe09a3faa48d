package services

import (
	"context"
	"errors"

	"rallypoint/database"
	"rallypoint/models"
)

// adminGroup loads the group and requires userID to be its admin.
func adminGroup(ctx context.Context, store *database.Store, groupID, userID uint, deniedMsg string) (*models.Group, error) {
	group, err := store.FindGroupByID(ctx, groupID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("Group not found")
	}
	if err != nil {
		return nil, internal(err)
	}
	if group.AdminID != userID {
		return nil, forbidden(deniedMsg)
	}
	return group, nil
}

// requireMember fails with Forbidden unless userID belongs to the group.
func requireMember(ctx context.Context, store *database.Store, groupID, userID uint, deniedMsg string) error {
	ok, err := store.IsMember(ctx, groupID, userID)
	if err != nil {
		return internal(err)
	}
	if !ok {
		return forbidden(deniedMsg)
	}
	return nil
}

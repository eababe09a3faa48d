package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rallypoint/database"
	"rallypoint/models"
)

// maxCodeAttempts bounds retries when a fresh invite code collides with an
// existing one. With N groups a single attempt collides with probability N/62^8.
const maxCodeAttempts = 5

var errCodeSpaceExhausted = errors.New("could not allocate a unique invite code")

type GroupService struct {
	store *database.Store
	codes *InviteCodeGenerator
	audit *AuditLogger
	log   *zap.Logger
}

func NewGroupService(store *database.Store, codes *InviteCodeGenerator, audit *AuditLogger, log *zap.Logger) *GroupService {
	return &GroupService{
		store: store,
		codes: codes,
		audit: audit,
		log:   log,
	}
}

// Create inserts the group and the creator's membership in one transaction.
func (s *GroupService) Create(ctx context.Context, actor Actor, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("Group name is required")
	}
	if tooLong(name, maxGroupNameLength) {
		return nil, invalidInput("Group name must be at most 100 characters")
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, internal(err)
		}

		group := &models.Group{Name: name, AdminID: actor.UserID, Code: code}
		err = s.store.Transaction(ctx, func(tx *database.Store) error {
			if err := tx.CreateGroup(ctx, group); err != nil {
				return err
			}
			return tx.AddMember(ctx, group.ID, actor.UserID)
		})
		if err == nil {
			s.audit.Record(ctx, actor, group.ID, models.AuditActionGroupCreate, "Created group: "+group.Name)
			return group, nil
		}
		if !errors.Is(err, database.ErrConflict) {
			return nil, internal(err)
		}
		s.log.Warn("invite code collision", zap.Int("attempt", attempt))
	}

	return nil, internal(errCodeSpaceExhausted)
}

// Join resolves the code, then checks ban and existing membership before
// inserting, all inside one transaction.
func (s *GroupService) Join(ctx context.Context, actor Actor, code string) (*models.Group, error) {
	code = strings.TrimSpace(code)

	var joined *models.Group
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		group, err := tx.ForUpdate().FindGroupByCode(ctx, code)
		if errors.Is(err, database.ErrNotFound) {
			return notFound("This group does not exist.")
		}
		if err != nil {
			return err
		}

		ban, err := tx.FindBan(ctx, group.ID, actor.UserID)
		if err == nil {
			return forbidden(fmt.Sprintf("You have been banned for %s.", ban.Reason))
		}
		if !errors.Is(err, database.ErrNotFound) {
			return err
		}

		member, err := tx.IsMember(ctx, group.ID, actor.UserID)
		if err != nil {
			return err
		}
		if member {
			return invalidInput("You have already joined this group")
		}

		if err := tx.AddMember(ctx, group.ID, actor.UserID); err != nil {
			if errors.Is(err, database.ErrConflict) {
				return invalidInput("You have already joined this group")
			}
			return err
		}

		joined = group
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.audit.Record(ctx, actor, joined.ID, models.AuditActionGroupJoin, "")
	return joined, nil
}

// InviteCode returns the group's code to its admin.
func (s *GroupService) InviteCode(ctx context.Context, actor Actor, groupID uint) (string, error) {
	group, err := adminGroup(ctx, s.store, groupID, actor.UserID, "You are not an admin of this group.")
	if err != nil {
		return "", err
	}
	return group.Code, nil
}

// Members lists the group's members. Only the admin sees member ids.
func (s *GroupService) Members(ctx context.Context, actor Actor, groupID uint) ([]models.MemberResponse, error) {
	if err := requireMember(ctx, s.store, groupID, actor.UserID, "You are not part of this group."); err != nil {
		return nil, err
	}

	group, err := s.store.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, internal(err)
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, internal(err)
	}

	if group.AdminID != actor.UserID {
		for i := range members {
			members[i].ID = 0
		}
	}
	return members, nil
}

func (s *GroupService) BannedMembers(ctx context.Context, actor Actor, groupID uint) ([]models.MemberResponse, error) {
	if _, err := adminGroup(ctx, s.store, groupID, actor.UserID, "You are not authorized to see this information."); err != nil {
		return nil, err
	}

	banned, err := s.store.ListBanned(ctx, groupID)
	if err != nil {
		return nil, internal(err)
	}
	return banned, nil
}

// Ban removes the target's membership and records the ban atomically.
func (s *GroupService) Ban(ctx context.Context, actor Actor, input models.BanInput) error {
	reason := strings.TrimSpace(input.Reason)
	if tooLong(reason, maxReasonLength) {
		return invalidInput("Reason must be at most 500 characters")
	}

	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		_, err := tx.ForUpdate().FindGroupAdministeredBy(ctx, input.GroupID, actor.UserID)
		if errors.Is(err, database.ErrNotFound) {
			return forbidden("You are not an admin of this group.")
		}
		if err != nil {
			return err
		}

		if _, err := tx.FindUserByID(ctx, input.UserID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return notFound("The user cannot be found.")
			}
			return err
		}
		if input.UserID == actor.UserID {
			return invalidInput("The group admin cannot be banned.")
		}

		if err := tx.RemoveMember(ctx, input.GroupID, input.UserID); err != nil {
			return err
		}
		ban := &models.GroupBan{UserID: input.UserID, GroupID: input.GroupID, Reason: reason}
		if err := tx.CreateBan(ctx, ban); err != nil {
			if errors.Is(err, database.ErrConflict) {
				return conflict("The user is already banned.")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return asServiceError(err)
	}

	s.audit.Record(ctx, actor, input.GroupID, models.AuditActionMemberBan,
		fmt.Sprintf("Banned user %d: %s", input.UserID, reason))
	return nil
}

// Unban lifts the ban for this group only.
func (s *GroupService) Unban(ctx context.Context, actor Actor, input models.UnbanInput) error {
	if _, err := adminGroup(ctx, s.store, input.GroupID, actor.UserID, "You are not authorized to do this."); err != nil {
		return err
	}

	n, err := s.store.DeleteBan(ctx, input.GroupID, input.UserID)
	if err != nil {
		return internal(err)
	}
	if n == 0 {
		return notFound("The user is not banned from this group.")
	}

	s.audit.Record(ctx, actor, input.GroupID, models.AuditActionMemberUnban,
		fmt.Sprintf("Unbanned user %d", input.UserID))
	return nil
}

// IsAdmin answers whether the caller administers the group.
func (s *GroupService) IsAdmin(ctx context.Context, actor Actor, groupID uint) (bool, error) {
	group, err := s.store.FindGroupByID(ctx, groupID)
	if errors.Is(err, database.ErrNotFound) {
		return false, notFound("Group not found")
	}
	if err != nil {
		return false, internal(err)
	}
	return group.AdminID == actor.UserID, nil
}

func (s *GroupService) List(ctx context.Context, actor Actor) ([]models.GroupSummary, error) {
	groups, err := s.store.ListGroupsForMember(ctx, actor.UserID)
	if err != nil {
		return nil, internal(err)
	}
	return groups, nil
}

// AuditTrail returns a page of the group's audit log to its admin.
func (s *GroupService) AuditTrail(ctx context.Context, actor Actor, groupID uint, page, limit int) (*models.AuditPage, error) {
	if _, err := adminGroup(ctx, s.store, groupID, actor.UserID, "You are not an admin of this group."); err != nil {
		return nil, err
	}

	trail, err := s.audit.Page(ctx, groupID, page, limit)
	if err != nil {
		return nil, internal(err)
	}
	return trail, nil
}

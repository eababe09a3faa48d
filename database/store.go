package database

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rallypoint/models"
)

// Store is the credential store. Every method honours ctx and returns errors
// already passed through translate.
type Store struct {
	db *gorm.DB

	// lock marks a Store returned by ForUpdate.
	lock bool
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// ForUpdate returns a Store whose group lookups take a row lock until the
// surrounding transaction ends. Join and ban both lock the group row, so
// neither can commit on a ban or membership state the other is changing.
// SQLite has no row locks; its single writer already serialises them.
func (s *Store) ForUpdate() *Store {
	return &Store{db: s.db, lock: true}
}

func (s *Store) groupQuery(ctx context.Context) *gorm.DB {
	db := s.conn(ctx)
	if s.lock && db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// Transaction runs fn against a Store bound to a single transaction. Any
// error returned by fn rolls the transaction back and is returned as is.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return translate(s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	}))
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return translate(sqlDB.PingContext(ctx))
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.conn(ctx).Create(user).Error)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Groups

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(group).Error)
}

func (s *Store) FindGroupByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := s.groupQuery(ctx).First(&group, id).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

func (s *Store) FindGroupByCode(ctx context.Context, code string) (*models.Group, error) {
	var group models.Group
	if err := s.groupQuery(ctx).Where("code = ?", code).First(&group).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

// FindGroupAdministeredBy finds the group only if userID is its admin.
func (s *Store) FindGroupAdministeredBy(ctx context.Context, groupID, userID uint) (*models.Group, error) {
	var group models.Group
	if err := s.groupQuery(ctx).Where("id = ? AND admin = ?", groupID, userID).First(&group).Error; err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

// ListGroupsForMember returns the user's groups, newest first.
func (s *Store) ListGroupsForMember(ctx context.Context, userID uint) ([]models.GroupSummary, error) {
	groups := []models.GroupSummary{}
	err := s.conn(ctx).
		Table("groups g").
		Select("g.name AS group_name, g.id AS group_id, u.username AS group_owner").
		Joins("JOIN group_members gm ON g.id = gm.group_id").
		Joins("JOIN users u ON g.admin = u.id").
		Where("gm.user_id = ?", userID).
		Order("g.id DESC").
		Scan(&groups).Error
	return groups, translate(err)
}

// Members

func (s *Store) AddMember(ctx context.Context, groupID, userID uint) error {
	member := models.GroupMember{GroupID: groupID, UserID: userID}
	return translate(s.conn(ctx).Omit(clause.Associations).Create(&member).Error)
}

func (s *Store) RemoveMember(ctx context.Context, groupID, userID uint) error {
	err := s.conn(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
	return translate(err)
}

func (s *Store) IsMember(ctx context.Context, groupID, userID uint) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, translate(err)
}

// ListMembers returns id and username of every member in join order.
func (s *Store) ListMembers(ctx context.Context, groupID uint) ([]models.MemberResponse, error) {
	members := []models.MemberResponse{}
	err := s.conn(ctx).
		Table("users u").
		Select("u.id AS id, u.username AS name").
		Joins("JOIN group_members gm ON u.id = gm.user_id").
		Where("gm.group_id = ?", groupID).
		Order("gm.joined_at, u.id").
		Scan(&members).Error
	return members, translate(err)
}

// Bans

func (s *Store) FindBan(ctx context.Context, groupID, userID uint) (*models.GroupBan, error) {
	var ban models.GroupBan
	err := s.conn(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).First(&ban).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ban, nil
}

func (s *Store) CreateBan(ctx context.Context, ban *models.GroupBan) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(ban).Error)
}

// DeleteBan lifts the ban for exactly one (user, group) pair and reports how
// many rows were removed.
func (s *Store) DeleteBan(ctx context.Context, groupID, userID uint) (int64, error) {
	result := s.conn(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupBan{})
	return result.RowsAffected, translate(result.Error)
}

func (s *Store) ListBanned(ctx context.Context, groupID uint) ([]models.MemberResponse, error) {
	banned := []models.MemberResponse{}
	err := s.conn(ctx).
		Table("users u").
		Select("u.id AS id, u.username AS name").
		Joins("JOIN group_banned gb ON u.id = gb.user_id").
		Where("gb.group_id = ?", groupID).
		Order("gb.created_at, u.id").
		Scan(&banned).Error
	return banned, translate(err)
}

// Activities

func (s *Store) CreateActivity(ctx context.Context, activity *models.Activity) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(activity).Error)
}

func (s *Store) ListActivities(ctx context.Context, groupID uint) ([]models.Activity, error) {
	activities := []models.Activity{}
	err := s.conn(ctx).Where("group_id = ?", groupID).Order("id DESC").Find(&activities).Error
	return activities, translate(err)
}

// DeleteActivity removes the activity only if it belongs to groupID.
func (s *Store) DeleteActivity(ctx context.Context, groupID, activityID uint) (int64, error) {
	result := s.conn(ctx).
		Where("id = ? AND group_id = ?", activityID, groupID).
		Delete(&models.Activity{})
	return result.RowsAffected, translate(result.Error)
}

// Audit

func (s *Store) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return translate(s.conn(ctx).Create(entry).Error)
}

func (s *Store) ListAuditLogs(ctx context.Context, groupID uint, offset, limit int) ([]models.AuditLog, int64, error) {
	query := s.conn(ctx).Model(&models.AuditLog{}).Where("group_id = ?", groupID).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	logs := []models.AuditLog{}
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, total, translate(err)
}

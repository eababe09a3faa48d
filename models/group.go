package models

import (
	"time"
)

type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	AdminID   uint      `gorm:"column:admin;not null;index" json:"admin"`
	Code      string    `gorm:"size:8;uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	Admin User `gorm:"foreignKey:AdminID" json:"-"`
}

// GroupMember links a user to a group. The composite key allows at most one
// row per (user, group).
type GroupMember struct {
	UserID   uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	GroupID  uint      `gorm:"primaryKey;autoIncrement:false;index" json:"group_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}

// GroupBan blocks a user from (re)joining a group. It does not require a
// membership row to exist.
type GroupBan struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	GroupID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"group_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`

	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}

func (GroupBan) TableName() string { return "group_banned" }

type CreateGroupInput struct {
	GroupName string `json:"groupName"`
}

type JoinGroupInput struct {
	GroupCode string `json:"groupCode"`
}

type BanInput struct {
	UserID  uint   `json:"userID"`
	GroupID uint   `json:"groupID"`
	Reason  string `json:"reason"`
}

type UnbanInput struct {
	UserID  uint `json:"id"`
	GroupID uint `json:"groupID"`
}

// MemberResponse omits the id for callers who are not the group admin.
type MemberResponse struct {
	ID   uint   `json:"id,omitempty"`
	Name string `json:"name"`
}

// GroupSummary is one row of the caller's group list.
type GroupSummary struct {
	GroupName  string `json:"group_name"`
	GroupID    uint   `json:"group_id"`
	GroupOwner string `json:"group_owner"`
}

type CreateGroupResponse struct {
	Message string `json:"message"`
	ID      uint   `json:"id"`
	Code    string `json:"code"`
}

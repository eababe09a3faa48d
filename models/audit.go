package models

import (
	"time"
)

type AuditAction string

const (
	AuditActionGroupCreate    AuditAction = "group_create"
	AuditActionGroupJoin      AuditAction = "group_join"
	AuditActionMemberBan      AuditAction = "member_ban"
	AuditActionMemberUnban    AuditAction = "member_unban"
	AuditActionActivityCreate AuditAction = "activity_create"
	AuditActionActivityDelete AuditAction = "activity_delete"
)

// AuditLog is a group-scoped record of an administrative or membership event.
type AuditLog struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	GroupID   uint        `gorm:"index" json:"group_id"`
	UserID    uint        `gorm:"index" json:"user_id"`
	Action    AuditAction `gorm:"index" json:"action"`
	Details   string      `json:"details,omitempty"`
	IPAddress string      `json:"ip_address"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

// AuditLogResponse is the response format for audit logs
type AuditLogResponse struct {
	ID        uint        `json:"id"`
	UserID    uint        `json:"user_id"`
	Action    AuditAction `json:"action"`
	Details   string      `json:"details,omitempty"`
	IPAddress string      `json:"ip_address"`
	CreatedAt time.Time   `json:"created_at"`
}

func (a *AuditLog) ToResponse() AuditLogResponse {
	return AuditLogResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		Action:    a.Action,
		Details:   a.Details,
		IPAddress: a.IPAddress,
		CreatedAt: a.CreatedAt,
	}
}

// AuditPage is one page of a group's audit trail, newest first.
type AuditPage struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

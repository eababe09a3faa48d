package services

import (
	"context"

	"go.uber.org/zap"

	"rallypoint/database"
	"rallypoint/models"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 100
)

// AuditLogger records group-scoped events. Write failures are logged and
// never fail the request that triggered them.
type AuditLogger struct {
	store *database.Store
	log   *zap.Logger
}

func NewAuditLogger(store *database.Store, log *zap.Logger) *AuditLogger {
	return &AuditLogger{store: store, log: log}
}

func (a *AuditLogger) Record(ctx context.Context, actor Actor, groupID uint, action models.AuditAction, details string) {
	entry := models.AuditLog{
		GroupID:   groupID,
		UserID:    actor.UserID,
		Action:    action,
		Details:   details,
		IPAddress: actor.IP,
	}
	if err := a.store.CreateAuditLog(ctx, &entry); err != nil {
		a.log.Error("audit write failed",
			zap.Uint("group_id", groupID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

// Page returns one page of the group's trail. Out-of-range page and limit
// values fall back to 1 and 50.
func (a *AuditLogger) Page(ctx context.Context, groupID uint, page, limit int) (*models.AuditPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}

	logs, total, err := a.store.ListAuditLogs(ctx, groupID, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]models.AuditLogResponse, len(logs))
	for i, entry := range logs {
		responses[i] = entry.ToResponse()
	}

	return &models.AuditPage{
		Logs:  responses,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

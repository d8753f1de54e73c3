package utils

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"rise_local_back_end/internal/models"
)

// AuditLogger appends to the Scylla audit_logs table in the background.
// With no session the entry only goes to the application log.
var ErrAuditUnavailable = errors.New("audit log is not available")

type AuditLogger struct {
	session *gocql.Session
}

func NewAuditLogger(session *gocql.Session) *AuditLogger {
	return &AuditLogger{session: session}
}

func (a *AuditLogger) Record(_ context.Context, userID, action, resourceType, resourceID, details string) {
	a.write(models.AuditLog{
		ID:           gocql.TimeUUID(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		CreatedAt:    time.Now().UTC(),
	})
}

// LogAction records an action taken by the authenticated caller of c.
func (a *AuditLogger) LogAction(c *gin.Context, action, resourceType, resourceID, details string) {
	a.write(models.AuditLog{
		ID:           gocql.TimeUUID(),
		UserID:       c.GetString("user_id"),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    c.ClientIP(),
		CreatedAt:    time.Now().UTC(),
	})
}

func (a *AuditLogger) write(entry models.AuditLog) {
	log.Debug().
		Str("action", entry.Action).
		Str("resource", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Str("user_id", entry.UserID).
		Msg("📝 Audit")

	if a == nil || a.session == nil {
		return
	}
	go func() {
		batch := a.session.NewBatch(gocql.LoggedBatch)
		batch.Query(`INSERT INTO audit_logs (log_id, user_id, action, resource_type, resource_id, details, ip_address, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID,
			entry.Details, entry.IPAddress, entry.CreatedAt)
		batch.Query(`INSERT INTO audit_logs_by_resource (resource_type, resource_id, log_id, user_id, action, details, ip_address, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ResourceType, entry.ResourceID, entry.ID, entry.UserID, entry.Action,
			entry.Details, entry.IPAddress, entry.CreatedAt)
		if err := a.session.ExecuteBatch(batch); err != nil {
			log.Error().Err(err).Str("action", entry.Action).Msg("❌ Audit log write failed")
		}
	}()
}

// ForResource returns the newest entries about one resource.
func (a *AuditLogger) ForResource(ctx context.Context, resourceType, resourceID string, limit int) ([]models.AuditLog, error) {
	if a == nil || a.session == nil {
		return nil, ErrAuditUnavailable
	}
	iter := a.session.Query(`SELECT log_id, user_id, action, details, ip_address, created_at
		FROM audit_logs_by_resource WHERE resource_type = ? AND resource_id = ? LIMIT ?`,
		resourceType, resourceID, limit).WithContext(ctx).Iter()

	var (
		out   []models.AuditLog
		entry = models.AuditLog{ResourceType: resourceType, ResourceID: resourceID}
	)
	for iter.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Details, &entry.IPAddress, &entry.CreatedAt) {
		out = append(out, entry)
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "read audit log")
	}
	return out, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/logger"
	"gorm.io/gorm"
)

// AuditLogService records and queries the audit trail.
type AuditLogService struct {
	db *gorm.DB
}

func NewAuditLogService(db *gorm.DB) *AuditLogService {
	return &AuditLogService{db: db}
}

// AuditEntry is one action to record.
type AuditEntry struct {
	UserId      int
	Username    string
	Action      string // CREATE, UPDATE, DELETE
	Resource    string // title, review, comment, ...
	ResourceKey string
	IP          string
	UserAgent   string
	Details     map[string]any
}

type AuditFilter struct {
	Username string
	Action   string
	Resource string
	Since    *time.Time
	Until    *time.Time
}

func (s *AuditLogService) LogAction(ctx context.Context, e AuditEntry) error {
	details := ""
	if len(e.Details) > 0 {
		data, err := json.Marshal(e.Details)
		if err != nil {
			logger.Warning("failed to marshal audit details: ", err)
		} else {
			details = string(data)
		}
	}

	entry := model.AuditLog{
		UserId:      e.UserId,
		Username:    e.Username,
		Action:      e.Action,
		Resource:    e.Resource,
		ResourceKey: e.ResourceKey,
		IP:          e.IP,
		UserAgent:   e.UserAgent,
		Details:     details,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		logger.Warningf("failed to write audit log: user=%s action=%s resource=%s: %v", e.Username, e.Action, e.Resource, err)
		return err
	}
	return nil
}

// List returns entries newest first.
func (s *AuditLogService) List(ctx context.Context, f AuditFilter, q PageQuery) ([]model.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.AuditLog{})
	if f.Username != "" {
		query = query.Where("username = ?", f.Username)
	}
	if f.Action != "" {
		query = query.Where("action = ?", f.Action)
	}
	if f.Resource != "" {
		query = query.Where("resource = ?", f.Resource)
	}
	if f.Since != nil {
		query = query.Where("timestamp >= ?", *f.Since)
	}
	if f.Until != nil {
		query = query.Where("timestamp <= ?", *f.Until)
	}

	var logs []model.AuditLog
	total, err := paginate(query, q, &logs, func(tx *gorm.DB) *gorm.DB {
		return tx.Order("timestamp DESC, id DESC")
	})
	return logs, total, err
}

// CleanOldLogs deletes entries older than days and returns how many went.
func (s *AuditLogService) CleanOldLogs(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be greater than 0")
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	result := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&model.AuditLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	logger.Infof("cleaned %d audit log entries older than %d days", result.RowsAffected, days)
	return result.RowsAffected, nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/finovia/adfin/internal/audit/domain"
	"github.com/finovia/adfin/internal/principal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
	}
}

func (s *Service) Record(ctx context.Context, action, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType = "unknown"
	}

	payload := map[string]any{}
	for key, value := range metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}

	entry := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		Action:     action,
		TargetType: targetType,
		TargetID:   normalizePointer(targetID),
		Metadata:   datatypes.JSONMap(payload),
		CreatedAt:  time.Now().UTC(),
	}
	if p, ok := principal.FromContext(ctx); ok {
		entry.ActorID = p.UserID
		entry.ActorRole = string(p.Role)
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) ([]auditdomain.AuditLog, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 250 {
		limit = 250
	}

	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if action := strings.TrimSpace(req.Action); action != "" {
		query = query.Where("action = ?", action)
	}
	if targetType := strings.TrimSpace(req.TargetType); targetType != "" {
		query = query.Where("target_type = ?", targetType)
	}

	var logs []auditdomain.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func normalizePointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/audit/domain"
	obscontext "github.com/maximegiguere1one/chiroflow-sub004/internal/observability/context"
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
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Record writes one audit entry. The actor is read from the request
// context; a missing actor is recorded as the system.
func (s *Service) Record(ctx context.Context, entry auditdomain.Entry) {
	actorType, actorID := obscontext.ActorFromContext(ctx)
	if actorType == "" {
		actorType = string(auditdomain.ActorTypeSystem)
	}

	record := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  actorType,
		ActorID:    actorID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		Metadata:   datatypes.JSONMap(entry.Metadata),
	}
	if entry.TargetID != "" {
		targetID := entry.TargetID
		record.TargetID = &targetID
	}
	if record.Metadata == nil {
		record.Metadata = datatypes.JSONMap{}
	}

	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		s.log.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.String("target_type", entry.TargetType),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, filter auditdomain.ListFilter) ([]*auditdomain.AuditLog, error) {
	return s.repo.List(ctx, s.db, filter)
}

package service

import (
	"context"

	"fedlearn.dev/dashboard/internal/entity"
	auditRepo "fedlearn.dev/dashboard/internal/modules/audit/repository"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"fedlearn.dev/dashboard/pkg/logger"
)

type AuditService interface {
	// Record never fails the caller; ledger errors are logged.
	Record(ctx context.Context, actor entity.User, action, target, detail string, outcome error)
	List(ctx context.Context, page, limit int) (*commonDto.Paginated[entity.AuditEntry], error)
}

type auditService struct {
	repo auditRepo.AuditRepository
}

// NewAuditService accepts a nil repository, in which case entries are only logged.
func NewAuditService(repo auditRepo.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, actor entity.User, action, target, detail string, outcome error) {
	entry := &entity.AuditEntry{
		ActorID:   actor.ID,
		ActorName: actor.Username,
		Action:    action,
		Target:    target,
		Detail:    detail,
		Succeeded: outcome == nil,
	}
	if outcome != nil {
		entry.Detail = outcome.Error()
	}

	log := logger.For(logger.ADMIN)
	log.Info("admin action", "actor", actor.ID, "action", action, "target", target, "ok", entry.Succeeded)

	if s.repo == nil {
		return
	}
	if err := s.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		log.Error("failed to write audit entry", "action", action, "error", err)
	}
}

func (s *auditService) List(ctx context.Context, page, limit int) (*commonDto.Paginated[entity.AuditEntry], error) {
	if limit < 1 {
		limit = commonDto.DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	out := &commonDto.Paginated[entity.AuditEntry]{Data: []entity.AuditEntry{}}
	if s.repo == nil {
		out.Meta = commonDto.PaginationMeta{CurrentPage: page, Limit: limit}
		return out, nil
	}

	entries, total, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if entries != nil {
		out.Data = entries
	}
	out.Meta = commonDto.PaginationMeta{
		CurrentPage: page,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
		TotalItems:  total,
		Limit:       limit,
	}
	return out, nil
}

package archive

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/checkout-backend/internal/pkg/logger"
)

type Repo interface {
	Create(ctx context.Context, rec *PurchaseRecord) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*PurchaseRecord, error)
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, log *logger.Logger) Repo {
	return &repo{db: db, log: log.With("repo", "PurchaseArchive")}
}

func (r *repo) Create(ctx context.Context, rec *PurchaseRecord) error {
	if rec == nil {
		return fmt.Errorf("nil purchase record")
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert purchase record: %w", err)
	}
	return nil
}

func (r *repo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*PurchaseRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []*PurchaseRecord
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list purchase records: %w", err)
	}
	return rows, nil
}

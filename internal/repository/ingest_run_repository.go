package repository

import (
	"fmt"

	"gorm.io/gorm"

	"legischat/internal/model"
)

type IngestRunRepository struct {
	db *gorm.DB
}

func NewIngestRunRepository(db *gorm.DB) *IngestRunRepository {
	return &IngestRunRepository{db: db}
}

func (r *IngestRunRepository) Create(run *model.IngestRun) error {
	if err := r.db.Create(run).Error; err != nil {
		return fmt.Errorf("create ingest run failed: %w", err)
	}
	return nil
}

func (r *IngestRunRepository) ListRecent(limit int) ([]model.IngestRun, error) {
	var runs []model.IngestRun
	if err := r.db.Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list ingest runs failed: %w", err)
	}
	return runs, nil
}

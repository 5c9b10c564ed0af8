package repository

import (
	"github.com/smartexam/server/internal/model"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Append(entry *model.ActivityLog) error
	FindByExam(examID uint, limit int) ([]model.ActivityLog, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Append(entry *model.ActivityLog) error {
	return r.db.Create(entry).Error
}

func (r *activityRepository) FindByExam(examID uint, limit int) ([]model.ActivityLog, error) {
	var entries []model.ActivityLog
	query := r.db.Where("exam_id = ?", examID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&entries).Error
	return entries, err
}

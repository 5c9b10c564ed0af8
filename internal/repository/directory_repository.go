package repository

import (
	"github.com/smartexam/server/internal/model"
	"gorm.io/gorm"
)

// DirectoryRepository is the read-only view onto the student/group directory
// that this core consumes: enrollment for ticket allocation, names for the
// monitoring dashboard.
type DirectoryRepository interface {
	StudentIDsByGroups(groupIDs []uint) ([]uint, error)
	StudentsByIDs(ids []uint) ([]model.Student, error)
}

type directoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

// StudentIDsByGroups returns the union of students in the given groups,
// ordered by id. Ticket numbers follow this enrollment order.
func (r *directoryRepository) StudentIDsByGroups(groupIDs []uint) ([]uint, error) {
	var ids []uint
	if len(groupIDs) == 0 {
		return ids, nil
	}
	err := r.db.Model(&model.Student{}).
		Where("group_id IN ?", groupIDs).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *directoryRepository) StudentsByIDs(ids []uint) ([]model.Student, error) {
	var students []model.Student
	if len(ids) == 0 {
		return students, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&students).Error
	return students, err
}

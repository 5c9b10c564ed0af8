package repository

import (
	"github.com/smartexam/server/internal/model"
	"gorm.io/gorm"
)

type ExamRepository interface {
	Create(exam *model.Exam) error
	FindByID(id uint) (*model.Exam, error)
	FindByIDs(ids []uint) ([]model.Exam, error)
	Update(exam *model.Exam) error
}

type examRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) Create(exam *model.Exam) error {
	return r.db.Create(exam).Error
}

func (r *examRepository) FindByID(id uint) (*model.Exam, error) {
	var exam model.Exam
	if err := r.db.First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) FindByIDs(ids []uint) ([]model.Exam, error) {
	var exams []model.Exam
	if len(ids) == 0 {
		return exams, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&exams).Error
	return exams, err
}

func (r *examRepository) Update(exam *model.Exam) error {
	return r.db.Save(exam).Error
}

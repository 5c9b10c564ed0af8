package repository

import (
	"github.com/smartexam/server/internal/model"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	Create(question *model.Question) error
	FindByID(id uint) (*model.Question, error)
	FindByIDs(ids []uint) ([]model.Question, error)
	FindBySubject(subjectID uint) ([]model.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(question *model.Question) error {
	return r.db.Create(question).Error
}

func (r *questionRepository) FindByID(id uint) (*model.Question, error) {
	var question model.Question
	if err := r.db.First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindByIDs(ids []uint) ([]model.Question, error) {
	var questions []model.Question
	if len(ids) == 0 {
		return questions, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

func (r *questionRepository) FindBySubject(subjectID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.Where("subject_id = ?", subjectID).Order("created_at DESC").Find(&questions).Error
	return questions, err
}

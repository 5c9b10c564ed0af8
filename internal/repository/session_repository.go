package repository

import (
	"github.com/smartexam/server/internal/model"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(session *model.ExamSession) error
	FindByID(id uint) (*model.ExamSession, error)
	FindByExamAndStudent(examID, studentID uint) (*model.ExamSession, error)
	FindByExam(examID uint) ([]model.ExamSession, error)
	FindActiveByExam(examID uint) ([]model.ExamSession, error)
	FindAllActive() ([]model.ExamSession, error)
	Update(session *model.ExamSession) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create relies on the unique (exam_id, student_id) index to reject a
// duplicate session from a concurrent start; callers re-read on failure.
func (r *sessionRepository) Create(session *model.ExamSession) error {
	return r.db.Create(session).Error
}

func (r *sessionRepository) FindByID(id uint) (*model.ExamSession, error) {
	var session model.ExamSession
	if err := r.db.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindByExamAndStudent(examID, studentID uint) (*model.ExamSession, error) {
	var session model.ExamSession
	err := r.db.Where("exam_id = ? AND student_id = ?", examID, studentID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindByExam(examID uint) ([]model.ExamSession, error) {
	var sessions []model.ExamSession
	err := r.db.Where("exam_id = ?", examID).Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) FindActiveByExam(examID uint) ([]model.ExamSession, error) {
	var sessions []model.ExamSession
	err := r.db.Where("exam_id = ? AND status = ?", examID, model.SessionStatusActive).Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) FindAllActive() ([]model.ExamSession, error) {
	var sessions []model.ExamSession
	err := r.db.Where("status = ?", model.SessionStatusActive).Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) Update(session *model.ExamSession) error {
	return r.db.Save(session).Error
}

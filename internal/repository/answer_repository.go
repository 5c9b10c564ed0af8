package repository

import (
	"github.com/smartexam/server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository interface {
	Upsert(answer *model.StudentAnswer) error
	Create(answer *model.StudentAnswer) error
	SaveAIResult(answer *model.StudentAnswer) error
	SaveManualScore(answer *model.StudentAnswer) error
	FindByID(id uint) (*model.StudentAnswer, error)
	FindBySession(sessionID uint) ([]model.StudentAnswer, error)
	FindBySessions(sessionIDs []uint) ([]model.StudentAnswer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

// Upsert writes the student's text keyed by (session_id, question_id): one
// atomic statement, so concurrent saves of the same question cannot produce
// two rows. Only the student-owned columns are touched on conflict.
func (r *answerRepository) Upsert(answer *model.StudentAnswer) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"answer_text", "answered_at", "updated_at",
		}),
	}).Create(answer).Error
}

func (r *answerRepository) Create(answer *model.StudentAnswer) error {
	return r.db.Create(answer).Error
}

// The three writers of an answer row own disjoint columns: the student
// answer_text/answered_at (via Upsert above), the grader the AI columns, the
// teacher the manual columns. Each write touches only its own columns so a
// concurrent write by another actor is never clobbered by a stale row.

func (r *answerRepository) SaveAIResult(answer *model.StudentAnswer) error {
	return r.db.Model(answer).Select("ai_score", "ai_feedback").Updates(answer).Error
}

func (r *answerRepository) SaveManualScore(answer *model.StudentAnswer) error {
	return r.db.Model(answer).Select("manual_score", "manual_comment").Updates(answer).Error
}

func (r *answerRepository) FindByID(id uint) (*model.StudentAnswer, error) {
	var answer model.StudentAnswer
	if err := r.db.First(&answer, id).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepository) FindBySession(sessionID uint) ([]model.StudentAnswer, error) {
	var answers []model.StudentAnswer
	err := r.db.Where("session_id = ?", sessionID).Find(&answers).Error
	return answers, err
}

func (r *answerRepository) FindBySessions(sessionIDs []uint) ([]model.StudentAnswer, error) {
	var answers []model.StudentAnswer
	if len(sessionIDs) == 0 {
		return answers, nil
	}
	err := r.db.Where("session_id IN ?", sessionIDs).Find(&answers).Error
	return answers, err
}

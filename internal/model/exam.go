package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "draft"
	ExamStatusScheduled ExamStatus = "scheduled"
	ExamStatusActive    ExamStatus = "active"
	ExamStatusCompleted ExamStatus = "completed"
)

// Exam is a scheduled assessment owned by one teacher. DurationMinutes is
// mutable after creation; all live session deadlines are derived from it at
// read time, so extending it immediately shifts every deadline.
type Exam struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	Title              string         `json:"title" gorm:"not null"`
	SubjectID          uint           `json:"subject_id" gorm:"not null;index"`
	TeacherID          uint           `json:"teacher_id" gorm:"not null;index"`
	GroupIDs           datatypes.JSON `json:"group_ids" gorm:"type:jsonb"`
	QuestionPool       datatypes.JSON `json:"question_pool" gorm:"type:jsonb"`
	QuestionsPerTicket int            `json:"questions_per_ticket" gorm:"not null"`
	DurationMinutes    int            `json:"duration_minutes" gorm:"not null"`
	ScheduledAt        time.Time      `json:"scheduled_at"`
	Status             ExamStatus     `json:"status" gorm:"default:'draft'"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

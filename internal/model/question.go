package model

import (
	"time"

	"gorm.io/gorm"
)

// MaxAnswerScore is the composite score ceiling for a single graded answer.
const MaxAnswerScore = 15.0

// Question is a bank entry generated from lecture material: the prompt text,
// a sample answer and a keyword list that the grader scores against.
type Question struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	SubjectID    uint           `json:"subject_id" gorm:"not null;index"`
	LectureID    *uint          `json:"lecture_id,omitempty" gorm:"index"`
	Text         string         `json:"text" gorm:"type:text;not null"`
	Difficulty   string         `json:"difficulty" gorm:"not null"` // "easy", "medium", "hard"
	Keywords     string         `json:"keywords" gorm:"type:text"`  // comma-separated
	SampleAnswer string         `json:"sample_answer" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

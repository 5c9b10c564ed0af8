package dto

import (
	"time"

	"github.com/smartexam/server/internal/model"
)

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type ExamResponseDTO struct {
	ID                 uint      `json:"id"`
	Title              string    `json:"title"`
	SubjectID          uint      `json:"subject_id"`
	TeacherID          uint      `json:"teacher_id"`
	QuestionsPerTicket int       `json:"questions_per_ticket"`
	DurationMinutes    int       `json:"duration_minutes"`
	ScheduledAt        time.Time `json:"scheduled_at"`
	Status             string    `json:"status"`
	TicketsCreated     int       `json:"tickets_created"`
	CreatedAt          time.Time `json:"created_at"`
}

type QuestionResponseDTO struct {
	ID           uint      `json:"id"`
	SubjectID    uint      `json:"subject_id"`
	LectureID    *uint     `json:"lecture_id,omitempty"`
	Text         string    `json:"text"`
	Difficulty   string    `json:"difficulty"`
	Keywords     string    `json:"keywords,omitempty"`
	SampleAnswer string    `json:"sample_answer,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionQuestionDTO is the student-facing view of a ticket question: no
// sample answer, no keywords.
type SessionQuestionDTO struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type SessionStartResponseDTO struct {
	SessionID uint      `json:"session_id"`
	ExamID    uint      `json:"exam_id"`
	StudentID uint      `json:"student_id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	EndTime   time.Time `json:"end_time"`
}

type SessionViewDTO struct {
	SessionID      uint                 `json:"session_id"`
	ExamID         uint                 `json:"exam_id"`
	ExamTitle      string               `json:"exam_title"`
	Status         string               `json:"status"`
	StartedAt      time.Time            `json:"started_at"`
	SubmittedAt    *time.Time           `json:"submitted_at,omitempty"`
	EndTime        time.Time            `json:"end_time"`
	Questions      []SessionQuestionDTO `json:"questions"`
	Answers        map[uint]string      `json:"answers"`
	ViolationCount int                  `json:"violation_count"`
	TabSwitchCount int                  `json:"tab_switch_count"`
}

type ViolationResponseDTO struct {
	SessionID      uint   `json:"session_id"`
	Type           string `json:"type"`
	ViolationCount int    `json:"violation_count"`
	TabSwitchCount int    `json:"tab_switch_count"`
}

type SubmitResponseDTO struct {
	SessionID   uint       `json:"session_id"`
	Status      string     `json:"status"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

type AnswerResponseDTO struct {
	ID            uint              `json:"id"`
	SessionID     uint              `json:"session_id"`
	QuestionID    uint              `json:"question_id"`
	AnswerText    string            `json:"answer_text"`
	AIScore       *float64          `json:"ai_score,omitempty"`
	AIFeedback    *model.AIFeedback `json:"ai_feedback,omitempty"`
	ManualScore   *float64          `json:"manual_score,omitempty"`
	ManualComment string            `json:"manual_comment,omitempty"`
	FinalScore    *float64          `json:"final_score,omitempty"`
}

package dto

import "time"

// ExamCreateDTO is the teacher's request to create an exam; tickets for every
// enrolled student in the target groups are materialized in the same call.
type ExamCreateDTO struct {
	Title              string    `json:"title" binding:"required"`
	SubjectID          uint      `json:"subject_id" binding:"required"`
	TeacherID          uint      `json:"teacher_id" binding:"required"`
	GroupIDs           []uint    `json:"group_ids" binding:"required,min=1"`
	QuestionIDs        []uint    `json:"question_ids" binding:"required,min=1"`
	QuestionsPerTicket int       `json:"questions_per_ticket" binding:"required,min=1"`
	DurationMinutes    int       `json:"duration_minutes" binding:"required,min=1"`
	ScheduledAt        time.Time `json:"scheduled_at" binding:"required"`
}

// SessionStartDTO identifies the student starting an exam. Resolving the
// student from an auth token is outside this core.
type SessionStartDTO struct {
	StudentID uint `json:"student_id" binding:"required"`
}

// AnswerSaveDTO is a partial save of one answer. Empty text is accepted and
// stored; it just never counts as answered.
type AnswerSaveDTO struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	AnswerText string `json:"answer_text"`
}

type ViolationDTO struct {
	Type string `json:"type" binding:"required,oneof=tab_switch fullscreen_exit copy_paste right_click"`
}

type ExtendTimeDTO struct {
	TeacherID uint `json:"teacher_id" binding:"required"`
	Minutes   int  `json:"minutes" binding:"required,min=1"`
}

type EndExamDTO struct {
	TeacherID uint `json:"teacher_id" binding:"required"`
}

// ManualScoreDTO overrides the AI score on one answer. Score is a pointer so
// an explicit zero binds.
type ManualScoreDTO struct {
	ManualScore   *float64 `json:"manual_score" binding:"required"`
	ManualComment string   `json:"manual_comment"`
}

type QuestionCreateDTO struct {
	SubjectID    uint   `json:"subject_id" binding:"required"`
	LectureID    *uint  `json:"lecture_id"`
	Text         string `json:"text" binding:"required"`
	Difficulty   string `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Keywords     string `json:"keywords"`
	SampleAnswer string `json:"sample_answer"`
}

package model

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// AIFeedback is the structured grading result stored per answer: five
// sub-criteria scored 0-3 plus an overall comment.
type AIFeedback struct {
	Relevance        int    `json:"relevance"`
	Completeness     int    `json:"completeness"`
	Clarity          int    `json:"clarity"`
	KeywordCoverage  int    `json:"keyword_coverage"`
	LogicalCoherence int    `json:"logical_coherence"`
	Comment          string `json:"comment"`
}

// StudentAnswer is one row per (session, question), upserted on every save.
// The student writes AnswerText, the background grader writes AIScore and
// AIFeedback, the teacher writes ManualScore and ManualComment; the three
// writers never touch each other's fields.
type StudentAnswer struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	SessionID     uint           `json:"session_id" gorm:"not null;uniqueIndex:idx_answer_session_question"`
	QuestionID    uint           `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_session_question"`
	AnswerText    string         `json:"answer_text" gorm:"type:text"`
	AnsweredAt    time.Time      `json:"answered_at"`
	AIScore       *float64       `json:"ai_score,omitempty"`
	AIFeedback    datatypes.JSON `json:"ai_feedback,omitempty" gorm:"type:jsonb"`
	ManualScore   *float64       `json:"manual_score,omitempty"`
	ManualComment string         `json:"manual_comment,omitempty" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Answered reports whether the answer counts as answered. Whitespace-only
// text is stored but never counted.
func (a *StudentAnswer) Answered() bool {
	return strings.TrimSpace(a.AnswerText) != ""
}

// FinalScore returns the manual score when set, else the AI score, else nil.
// Nil means ungraded and must stay distinguishable from a graded zero.
func (a *StudentAnswer) FinalScore() *float64 {
	if a.ManualScore != nil {
		return a.ManualScore
	}
	return a.AIScore
}

// Feedback decodes the stored AI feedback, if any.
func (a *StudentAnswer) Feedback() *AIFeedback {
	if len(a.AIFeedback) == 0 {
		return nil
	}
	var fb AIFeedback
	if err := json.Unmarshal(a.AIFeedback, &fb); err != nil {
		return nil
	}
	return &fb
}

// SetFeedback stores the structured grading result on the answer.
func (a *StudentAnswer) SetFeedback(fb *AIFeedback) {
	if fb == nil {
		a.AIFeedback = nil
		return
	}
	if b, err := json.Marshal(fb); err == nil {
		a.AIFeedback = datatypes.JSON(b)
	}
}

package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/smartexam/server/internal/model"
	"gorm.io/gorm"
)

// In-memory repository fakes shared by the service tests.

type fakeExamRepo struct {
	exams  map[uint]model.Exam
	nextID uint
}

func newFakeExamRepo() *fakeExamRepo {
	return &fakeExamRepo{exams: make(map[uint]model.Exam), nextID: 1}
}

func (r *fakeExamRepo) Create(exam *model.Exam) error {
	exam.ID = r.nextID
	r.nextID++
	r.exams[exam.ID] = *exam
	return nil
}

func (r *fakeExamRepo) FindByID(id uint) (*model.Exam, error) {
	exam, ok := r.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := exam
	return &cp, nil
}

func (r *fakeExamRepo) FindByIDs(ids []uint) ([]model.Exam, error) {
	var out []model.Exam
	for _, id := range ids {
		if exam, ok := r.exams[id]; ok {
			out = append(out, exam)
		}
	}
	return out, nil
}

func (r *fakeExamRepo) Update(exam *model.Exam) error {
	if _, ok := r.exams[exam.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.exams[exam.ID] = *exam
	return nil
}

type fakeTicketRepo struct {
	tickets map[uint]model.Ticket
	nextID  uint
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[uint]model.Ticket), nextID: 1}
}

func (r *fakeTicketRepo) CreateBatch(_ *gorm.DB, tickets []model.Ticket) error {
	for i := range tickets {
		tickets[i].ID = r.nextID
		r.nextID++
		r.tickets[tickets[i].ID] = tickets[i]
	}
	return nil
}

func (r *fakeTicketRepo) FindByID(id uint) (*model.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := ticket
	return &cp, nil
}

func (r *fakeTicketRepo) FindByExamAndStudent(examID, studentID uint) (*model.Ticket, error) {
	for _, t := range r.tickets {
		if t.ExamID == examID && t.StudentID == studentID {
			cp := t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTicketRepo) FindByExam(examID uint) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, t := range r.tickets {
		if t.ExamID == examID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

type fakeSessionRepo struct {
	sessions map[uint]model.ExamSession
	nextID   uint
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uint]model.ExamSession), nextID: 1}
}

func (r *fakeSessionRepo) Create(session *model.ExamSession) error {
	for _, s := range r.sessions {
		if s.ExamID == session.ExamID && s.StudentID == session.StudentID {
			return fmt.Errorf("duplicate key value violates unique constraint")
		}
	}
	session.ID = r.nextID
	r.nextID++
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) FindByID(id uint) (*model.ExamSession, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := session
	return &cp, nil
}

func (r *fakeSessionRepo) FindByExamAndStudent(examID, studentID uint) (*model.ExamSession, error) {
	for _, s := range r.sessions {
		if s.ExamID == examID && s.StudentID == studentID {
			cp := s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSessionRepo) FindByExam(examID uint) ([]model.ExamSession, error) {
	var out []model.ExamSession
	for _, s := range r.sessions {
		if s.ExamID == examID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSessionRepo) FindActiveByExam(examID uint) ([]model.ExamSession, error) {
	all, _ := r.FindByExam(examID)
	var out []model.ExamSession
	for _, s := range all {
		if s.Status == model.SessionStatusActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) FindAllActive() ([]model.ExamSession, error) {
	var out []model.ExamSession
	for _, s := range r.sessions {
		if s.Status == model.SessionStatusActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSessionRepo) Update(session *model.ExamSession) error {
	if _, ok := r.sessions[session.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.sessions[session.ID] = *session
	return nil
}

type fakeAnswerRepo struct {
	answers map[uint]model.StudentAnswer
	nextID  uint
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{answers: make(map[uint]model.StudentAnswer), nextID: 1}
}

func (r *fakeAnswerRepo) Upsert(answer *model.StudentAnswer) error {
	for id, a := range r.answers {
		if a.SessionID == answer.SessionID && a.QuestionID == answer.QuestionID {
			a.AnswerText = answer.AnswerText
			a.AnsweredAt = answer.AnsweredAt
			r.answers[id] = a
			answer.ID = id
			return nil
		}
	}
	answer.ID = r.nextID
	r.nextID++
	r.answers[answer.ID] = *answer
	return nil
}

func (r *fakeAnswerRepo) Create(answer *model.StudentAnswer) error {
	answer.ID = r.nextID
	r.nextID++
	r.answers[answer.ID] = *answer
	return nil
}

// SaveAIResult and SaveManualScore merge only their actor's columns into the
// stored row, like the column-scoped updates in the real repository.

func (r *fakeAnswerRepo) SaveAIResult(answer *model.StudentAnswer) error {
	stored, ok := r.answers[answer.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.AIScore = answer.AIScore
	stored.AIFeedback = answer.AIFeedback
	r.answers[answer.ID] = stored
	return nil
}

func (r *fakeAnswerRepo) SaveManualScore(answer *model.StudentAnswer) error {
	stored, ok := r.answers[answer.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.ManualScore = answer.ManualScore
	stored.ManualComment = answer.ManualComment
	r.answers[answer.ID] = stored
	return nil
}

func (r *fakeAnswerRepo) FindByID(id uint) (*model.StudentAnswer, error) {
	answer, ok := r.answers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := answer
	return &cp, nil
}

func (r *fakeAnswerRepo) FindBySession(sessionID uint) ([]model.StudentAnswer, error) {
	return r.FindBySessions([]uint{sessionID})
}

func (r *fakeAnswerRepo) FindBySessions(sessionIDs []uint) ([]model.StudentAnswer, error) {
	want := make(map[uint]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}
	var out []model.StudentAnswer
	for _, a := range r.answers {
		if want[a.SessionID] {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeQuestionRepo struct {
	questions map[uint]model.Question
	nextID    uint
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{questions: make(map[uint]model.Question), nextID: 1}
}

func (r *fakeQuestionRepo) Create(question *model.Question) error {
	question.ID = r.nextID
	r.nextID++
	r.questions[question.ID] = *question
	return nil
}

func (r *fakeQuestionRepo) FindByID(id uint) (*model.Question, error) {
	question, ok := r.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := question
	return &cp, nil
}

func (r *fakeQuestionRepo) FindByIDs(ids []uint) ([]model.Question, error) {
	var out []model.Question
	for _, id := range ids {
		if q, ok := r.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) FindBySubject(subjectID uint) ([]model.Question, error) {
	var out []model.Question
	for _, q := range r.questions {
		if q.SubjectID == subjectID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeActivityRepo struct {
	entries []model.ActivityLog
}

func (r *fakeActivityRepo) Append(entry *model.ActivityLog) error {
	entry.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeActivityRepo) FindByExam(examID uint, limit int) ([]model.ActivityLog, error) {
	var out []model.ActivityLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.ExamID != nil && *e.ExamID == examID {
			out = append(out, e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

type fakeDirectoryRepo struct {
	students []model.Student
}

func (r *fakeDirectoryRepo) StudentIDsByGroups(groupIDs []uint) ([]uint, error) {
	want := make(map[uint]bool, len(groupIDs))
	for _, id := range groupIDs {
		want[id] = true
	}
	var ids []uint
	for _, s := range r.students {
		if want[s.GroupID] {
			ids = append(ids, s.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeDirectoryRepo) StudentsByIDs(ids []uint) ([]model.Student, error) {
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Student
	for _, s := range r.students {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeGrader scripts AI grading outcomes per question id.
type fakeGrader struct {
	results map[uint]fakeGradeResult
	calls   []uint
	onGrade func(questionID uint) // runs mid-call, for interleaving writers
}

type fakeGradeResult struct {
	feedback *model.AIFeedback
	score    float64
	err      error
}

func (g *fakeGrader) GradeAnswer(_ context.Context, question *model.Question, _ string) (*model.AIFeedback, float64, error) {
	g.calls = append(g.calls, question.ID)
	if g.onGrade != nil {
		g.onGrade(question.ID)
	}
	res, ok := g.results[question.ID]
	if !ok {
		return &model.AIFeedback{Comment: "ok"}, 10, nil
	}
	return res.feedback, res.score, res.err
}

// fakeGradingService records enqueued sessions without running anything.
type fakeGradingService struct {
	enqueued []uint
}

func (g *fakeGradingService) EnqueueSession(sessionID uint) {
	g.enqueued = append(g.enqueued, sessionID)
}

func (g *fakeGradingService) GradeSession(uint) error { return nil }

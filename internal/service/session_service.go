package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/smartexam/server/internal/dto"
	"github.com/smartexam/server/internal/model"
	"github.com/smartexam/server/internal/repository"
	"gorm.io/gorm"
)

// SessionService drives the per-student exam session lifecycle:
// not started (no row) -> active -> submitted, with no way back out of
// submitted.
type SessionService interface {
	Start(examID, studentID uint) (*dto.SessionStartResponseDTO, error)
	GetSessionView(sessionID uint) (*dto.SessionViewDTO, error)
	SaveAnswer(sessionID uint, req dto.AnswerSaveDTO) error
	RecordViolation(sessionID uint, violationType model.ViolationType) (*dto.ViolationResponseDTO, error)
	Submit(sessionID uint) (*model.ExamSession, error)
}

type sessionService struct {
	sessionRepo  repository.SessionRepository
	ticketRepo   repository.TicketRepository
	examRepo     repository.ExamRepository
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	activityRepo repository.ActivityRepository
	grading      GradingService
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	ticketRepo repository.TicketRepository,
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	activityRepo repository.ActivityRepository,
	grading GradingService,
) SessionService {
	return &sessionService{
		sessionRepo:  sessionRepo,
		ticketRepo:   ticketRepo,
		examRepo:     examRepo,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		activityRepo: activityRepo,
		grading:      grading,
	}
}

// Start opens the student's session against their ticket. Calling it again
// before submission returns the existing session unchanged; after submission
// it is rejected.
func (s *sessionService) Start(examID, studentID uint) (*dto.SessionStartResponseDTO, error) {
	ticket, err := s.ticketRepo.FindByExamAndStudent(examID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoTicketAssigned
		}
		return nil, err
	}

	exam, err := s.examRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	session, err := s.sessionRepo.FindByExamAndStudent(examID, studentID)
	switch {
	case err == nil:
		if session.Status == model.SessionStatusSubmitted {
			return nil, ErrAlreadySubmitted
		}
		return s.startResponse(session, exam), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to create
	default:
		return nil, err
	}

	session = &model.ExamSession{
		ExamID:    examID,
		StudentID: studentID,
		TicketID:  ticket.ID,
		Status:    model.SessionStatusActive,
		StartedAt: time.Now(),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		// A concurrent start may have won the unique (exam, student) race;
		// the existing session is the canonical one.
		existing, findErr := s.sessionRepo.FindByExamAndStudent(examID, studentID)
		if findErr != nil {
			return nil, fmt.Errorf("failed to create exam session: %w", err)
		}
		if existing.Status == model.SessionStatusSubmitted {
			return nil, ErrAlreadySubmitted
		}
		return s.startResponse(existing, exam), nil
	}

	s.logActivity(&model.ActivityLog{
		ActorID:   studentID,
		Role:      "student",
		Kind:      model.ActivityKindStart,
		Action:    fmt.Sprintf("Student %d started exam %q", studentID, exam.Title),
		ExamID:    &examID,
		SessionID: &session.ID,
	})

	return s.startResponse(session, exam), nil
}

func (s *sessionService) startResponse(session *model.ExamSession, exam *model.Exam) *dto.SessionStartResponseDTO {
	return &dto.SessionStartResponseDTO{
		SessionID: session.ID,
		ExamID:    session.ExamID,
		StudentID: session.StudentID,
		Status:    string(session.Status),
		StartedAt: session.StartedAt,
		EndTime:   session.Deadline(exam.DurationMinutes),
	}
}

// GetSessionView returns the ticket's questions, the saved answers and the
// live end time. The deadline is computed here on every call so a teacher's
// duration extension takes effect immediately.
func (s *sessionService) GetSessionView(sessionID uint) (*dto.SessionViewDTO, error) {
	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}

	exam, err := s.examRepo.FindByID(session.ExamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam %d: %w", session.ExamID, err)
	}
	ticket, err := s.ticketRepo.FindByID(session.TicketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket %d: %w", session.TicketID, err)
	}

	questionIDs := ticket.Questions()
	questions, err := s.questionRepo.FindByIDs(questionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket questions: %w", err)
	}
	questionMap := make(map[uint]model.Question, len(questions))
	for _, q := range questions {
		questionMap[q.ID] = q
	}

	// Preserve the ticket's assignment order.
	questionDTOs := make([]dto.SessionQuestionDTO, 0, len(questionIDs))
	for _, qid := range questionIDs {
		if q, ok := questionMap[qid]; ok {
			questionDTOs = append(questionDTOs, dto.SessionQuestionDTO{ID: q.ID, Text: q.Text})
		}
	}

	answers, err := s.answerRepo.FindBySession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	answerMap := make(map[uint]string, len(answers))
	for _, a := range answers {
		answerMap[a.QuestionID] = a.AnswerText
	}

	return &dto.SessionViewDTO{
		SessionID:      session.ID,
		ExamID:         exam.ID,
		ExamTitle:      exam.Title,
		Status:         string(session.Status),
		StartedAt:      session.StartedAt,
		SubmittedAt:    session.SubmittedAt,
		EndTime:        session.Deadline(exam.DurationMinutes),
		Questions:      questionDTOs,
		Answers:        answerMap,
		ViolationCount: session.ViolationCount,
		TabSwitchCount: session.TabSwitchCount,
	}, nil
}

// SaveAnswer upserts the student's text for one question. Empty text is
// stored as-is; downstream counters apply the answered predicate.
func (s *sessionService) SaveAnswer(sessionID uint, req dto.AnswerSaveDTO) error {
	if _, err := s.findSession(sessionID); err != nil {
		return err
	}

	answer := &model.StudentAnswer{
		SessionID:  sessionID,
		QuestionID: req.QuestionID,
		AnswerText: req.AnswerText,
		AnsweredAt: time.Now(),
	}
	if err := s.answerRepo.Upsert(answer); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

// RecordViolation appends the event and bumps the counters in one update.
// No state transition happens here: disqualification is a read-side label.
func (s *sessionService) RecordViolation(sessionID uint, violationType model.ViolationType) (*dto.ViolationResponseDTO, error) {
	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}

	session.AppendViolation(model.ViolationEvent{Type: violationType, At: time.Now()})
	if err := s.sessionRepo.Update(session); err != nil {
		return nil, fmt.Errorf("failed to record violation: %w", err)
	}

	kind := model.ActivityKindWarning
	action := fmt.Sprintf("Violation %s recorded for student %d", violationType, session.StudentID)
	if violationType == model.ViolationTabSwitch && session.TabSwitchCount >= model.DisqualifyTabSwitchThreshold {
		kind = model.ActivityKindDisqualified
		action = fmt.Sprintf("Student %d reached %d tab switches", session.StudentID, session.TabSwitchCount)
	}
	s.logActivity(&model.ActivityLog{
		ActorID:   session.StudentID,
		Role:      "student",
		Kind:      kind,
		Action:    action,
		ExamID:    &session.ExamID,
		SessionID: &session.ID,
	})

	return &dto.ViolationResponseDTO{
		SessionID:      session.ID,
		Type:           string(violationType),
		ViolationCount: session.ViolationCount,
		TabSwitchCount: session.TabSwitchCount,
	}, nil
}

// Submit finalizes the session and kicks off grading in the background.
// Submitting an already-submitted session returns it unchanged: SubmittedAt
// never moves and no second grading job starts.
func (s *sessionService) Submit(sessionID uint) (*model.ExamSession, error) {
	session, err := s.findSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusSubmitted {
		return session, nil
	}

	now := time.Now()
	session.Status = model.SessionStatusSubmitted
	session.SubmittedAt = &now
	if err := s.sessionRepo.Update(session); err != nil {
		return nil, fmt.Errorf("failed to submit session: %w", err)
	}

	s.logActivity(&model.ActivityLog{
		ActorID:   session.StudentID,
		Role:      "student",
		Kind:      model.ActivityKindSubmit,
		Action:    fmt.Sprintf("Student %d submitted session %d", session.StudentID, session.ID),
		ExamID:    &session.ExamID,
		SessionID: &session.ID,
	})

	s.grading.EnqueueSession(session.ID)
	return session, nil
}

func (s *sessionService) findSession(sessionID uint) (*model.ExamSession, error) {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// Activity logging is best-effort; a failed append must not fail the
// operation it annotates.
func (s *sessionService) logActivity(entry *model.ActivityLog) {
	if err := s.activityRepo.Append(entry); err != nil {
		log.Warn().Err(err).Str("action", entry.Action).Msg("Failed to append activity log entry")
	}
}

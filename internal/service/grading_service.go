package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/smartexam/server/internal/model"
	"github.com/smartexam/server/internal/repository"
)

// GradingService scores every question on a submitted session's ticket.
// EnqueueSession is fire-and-forget: submission responses never wait on it,
// and no grading error can alter an already-returned submission result.
type GradingService interface {
	EnqueueSession(sessionID uint)
	GradeSession(sessionID uint) error
}

type gradingService struct {
	sessionRepo  repository.SessionRepository
	ticketRepo   repository.TicketRepository
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	grader       AIGrader
}

func NewGradingService(
	sessionRepo repository.SessionRepository,
	ticketRepo repository.TicketRepository,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	grader AIGrader,
) GradingService {
	return &gradingService{
		sessionRepo:  sessionRepo,
		ticketRepo:   ticketRepo,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		grader:       grader,
	}
}

func (s *gradingService) EnqueueSession(sessionID uint) {
	jobID := uuid.NewString()
	go func() {
		log.Info().Str("job_id", jobID).Uint("session_id", sessionID).Msg("Grading job started")
		if err := s.GradeSession(sessionID); err != nil {
			log.Error().Err(err).Str("job_id", jobID).Uint("session_id", sessionID).Msg("Grading job failed")
			return
		}
		log.Info().Str("job_id", jobID).Uint("session_id", sessionID).Msg("Grading job finished")
	}()
}

// GradeSession walks the full ticket: questions with no answer or a
// whitespace-only answer get the no-answer default without an AI call;
// the rest go to the grader with the fallback absorbing any failure.
// One answer failing never stops the rest.
func (s *gradingService) GradeSession(sessionID uint) error {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		return err
	}
	if session.Status != model.SessionStatusSubmitted {
		log.Warn().Uint("session_id", sessionID).Str("status", string(session.Status)).Msg("Grading skipped: session not submitted")
		return nil
	}

	ticket, err := s.ticketRepo.FindByID(session.TicketID)
	if err != nil {
		return err
	}
	questionIDs := ticket.Questions()

	questions, err := s.questionRepo.FindByIDs(questionIDs)
	if err != nil {
		return err
	}
	questionMap := make(map[uint]model.Question, len(questions))
	for _, q := range questions {
		questionMap[q.ID] = q
	}

	existing, err := s.answerRepo.FindBySession(sessionID)
	if err != nil {
		return err
	}
	answerMap := make(map[uint]model.StudentAnswer, len(existing))
	for _, a := range existing {
		answerMap[a.QuestionID] = a
	}

	ctx := context.Background()
	for _, qid := range questionIDs {
		question, ok := questionMap[qid]
		if !ok {
			log.Error().Uint("question_id", qid).Uint("session_id", sessionID).Msg("Ticket references a missing question, skipping")
			continue
		}

		// Never-answered questions get a fresh row with AnsweredAt left
		// zero; the timestamp only ever means "the student saved text".
		answer, found := answerMap[qid]
		if !found {
			answer = model.StudentAnswer{
				SessionID:  sessionID,
				QuestionID: qid,
			}
		}

		feedback, score := s.gradeOne(ctx, &question, &answer)
		answer.AIScore = &score
		answer.SetFeedback(feedback)

		// Write only the grader-owned columns on existing rows: a manual
		// score set while this job was running must survive.
		var saveErr error
		if answer.ID == 0 {
			saveErr = s.answerRepo.Create(&answer)
		} else {
			saveErr = s.answerRepo.SaveAIResult(&answer)
		}
		if saveErr != nil {
			log.Error().Err(saveErr).Uint("question_id", qid).Uint("session_id", sessionID).Msg("Failed to persist grading result, continuing with remaining answers")
		}
	}
	return nil
}

func (s *gradingService) gradeOne(ctx context.Context, question *model.Question, answer *model.StudentAnswer) (*model.AIFeedback, float64) {
	if !answer.Answered() {
		return FallbackResult(false)
	}

	feedback, score, err := s.grader.GradeAnswer(ctx, question, answer.AnswerText)
	if err != nil {
		log.Warn().Err(err).Uint("question_id", question.ID).Uint("session_id", answer.SessionID).Msg("AI grading failed, applying fallback result")
		return FallbackResult(true)
	}
	return feedback, score
}

// FallbackResult is the deterministic default used when the AI service fails
// or the student gave no answer: score 5 with every criterion at 1 for a
// non-empty answer, zeros otherwise.
func FallbackResult(answered bool) (*model.AIFeedback, float64) {
	if !answered {
		return &model.AIFeedback{Comment: "No answer was given."}, 0
	}
	return &model.AIFeedback{
		Relevance:        1,
		Completeness:     1,
		Clarity:          1,
		KeywordCoverage:  1,
		LogicalCoherence: 1,
		Comment:          "AI grading was unavailable; a default score was assigned.",
	}, 5
}

package student

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/smartexam/server/internal/dto"
	"github.com/smartexam/server/internal/model"
	"github.com/smartexam/server/internal/service"
)

type StudentExamController struct {
	sessionService service.SessionService
}

func NewStudentExamController(sessionService service.SessionService) *StudentExamController {
	return &StudentExamController{sessionService: sessionService}
}

// StartSession godoc
// @Summary (Student) Start an exam session
// @Description Opens the session bound to the student's ticket. Starting again before submission returns the existing session; after submission it is rejected.
// @Tags Student - Sessions
// @Accept json
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param start_data body dto.SessionStartDTO true "Student identifier"
// @Success 200 {object} dto.SessionStartResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 404 {object} dto.ErrorResponse "No ticket assigned or exam not found"
// @Failure 409 {object} dto.ErrorResponse "Session already submitted"
// @Router /exams/{exam_id}/sessions [post]
func (c *StudentExamController) StartSession(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}

	var req dto.SessionStartDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.sessionService.Start(examID, req.StudentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoTicketAssigned), errors.Is(err, service.ErrExamNotFound):
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		case errors.Is(err, service.ErrAlreadySubmitted):
			ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: err.Error()})
		default:
			log.Error().Err(err).Uint("exam_id", examID).Msg("StartSession: service error")
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to start session"})
		}
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetSession godoc
// @Summary (Student) Fetch the live session view
// @Description Ticket questions, saved answers and the computed end time. The end time reflects any teacher extension immediately.
// @Tags Student - Sessions
// @Produce json
// @Param session_id path int true "Session ID"
// @Success 200 {object} dto.SessionViewDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{session_id} [get]
func (c *StudentExamController) GetSession(ctx *gin.Context) {
	sessionID, ok := pathID(ctx, "session_id")
	if !ok {
		return
	}

	view, err := c.sessionService.GetSessionView(sessionID)
	if err != nil {
		c.respondSessionError(ctx, sessionID, err, "GetSession")
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// SaveAnswer godoc
// @Summary (Student) Save an answer
// @Description Upserts the free-text answer for one question. Partial saves during the session are expected.
// @Tags Student - Sessions
// @Accept json
// @Produce json
// @Param session_id path int true "Session ID"
// @Param answer_data body dto.AnswerSaveDTO true "Question id and answer text"
// @Success 200 {object} map[string]string
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{session_id}/answers [put]
func (c *StudentExamController) SaveAnswer(ctx *gin.Context) {
	sessionID, ok := pathID(ctx, "session_id")
	if !ok {
		return
	}

	var req dto.AnswerSaveDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	if err := c.sessionService.SaveAnswer(sessionID, req); err != nil {
		c.respondSessionError(ctx, sessionID, err, "SaveAnswer")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// RecordViolation godoc
// @Summary (Student client) Record a proctoring violation
// @Description Appends the violation to the session log and increments the counters. No state transition happens here.
// @Tags Student - Sessions
// @Accept json
// @Produce json
// @Param session_id path int true "Session ID"
// @Param violation_data body dto.ViolationDTO true "Violation type"
// @Success 200 {object} dto.ViolationResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{session_id}/violations [post]
func (c *StudentExamController) RecordViolation(ctx *gin.Context) {
	sessionID, ok := pathID(ctx, "session_id")
	if !ok {
		return
	}

	var req dto.ViolationDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.sessionService.RecordViolation(sessionID, model.ViolationType(req.Type))
	if err != nil {
		c.respondSessionError(ctx, sessionID, err, "RecordViolation")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SubmitSession godoc
// @Summary (Student) Submit the session
// @Description Finalizes the session. AI grading runs in the background; this call never waits for it.
// @Tags Student - Sessions
// @Produce json
// @Param session_id path int true "Session ID"
// @Success 200 {object} dto.SubmitResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{session_id}/submit [post]
func (c *StudentExamController) SubmitSession(ctx *gin.Context) {
	sessionID, ok := pathID(ctx, "session_id")
	if !ok {
		return
	}

	session, err := c.sessionService.Submit(sessionID)
	if err != nil {
		c.respondSessionError(ctx, sessionID, err, "SubmitSession")
		return
	}
	ctx.JSON(http.StatusOK, dto.SubmitResponseDTO{
		SessionID:   session.ID,
		Status:      string(session.Status),
		SubmittedAt: session.SubmittedAt,
	})
}

func (c *StudentExamController) respondSessionError(ctx *gin.Context, sessionID uint, err error, op string) {
	if errors.Is(err, service.ErrSessionNotFound) {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	log.Error().Err(err).Uint("session_id", sessionID).Str("op", op).Msg("Session operation failed")
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal error"})
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	val, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

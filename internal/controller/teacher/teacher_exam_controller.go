package teacher

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/smartexam/server/internal/dto"
	"github.com/smartexam/server/internal/service"
)

type TeacherExamController struct {
	examService     service.ExamService
	monitorService  service.MonitorService
	questionService service.QuestionService
}

func NewTeacherExamController(
	examService service.ExamService,
	monitorService service.MonitorService,
	questionService service.QuestionService,
) *TeacherExamController {
	return &TeacherExamController{
		examService:     examService,
		monitorService:  monitorService,
		questionService: questionService,
	}
}

// CreateExam godoc
// @Summary (Teacher) Create an exam with tickets
// @Description Creates the exam and materializes one ticket per enrolled student in the target groups.
// @Tags Teacher - Exams
// @Accept json
// @Produce json
// @Param exam_data body dto.ExamCreateDTO true "Exam parameters"
// @Success 201 {object} dto.ExamResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Router /teacher/exams [post]
func (c *TeacherExamController) CreateExam(ctx *gin.Context) {
	var req dto.ExamCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.examService.CreateExam(req)
	if err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("CreateExam: service error")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create exam", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// EndExam godoc
// @Summary (Teacher) Force-end an exam
// @Description Completes the exam and force-submits every active session in one batch; grading starts for each.
// @Tags Teacher - Exams
// @Accept json
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param end_data body dto.EndExamDTO true "Requesting teacher"
// @Success 200 {object} map[string]string
// @Failure 403 {object} dto.ErrorResponse "Not the exam owner"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /teacher/exams/{exam_id}/end [post]
func (c *TeacherExamController) EndExam(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}

	var req dto.EndExamDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	if err := c.examService.EndExam(examID, req.TeacherID); err != nil {
		c.respondExamError(ctx, examID, err, "EndExam")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// ExtendTime godoc
// @Summary (Teacher) Extend the exam duration
// @Description Adds minutes to the exam duration; every active session's deadline shifts immediately.
// @Tags Teacher - Exams
// @Accept json
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param extend_data body dto.ExtendTimeDTO true "Minutes to add"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Not the exam owner"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /teacher/exams/{exam_id}/extend [post]
func (c *TeacherExamController) ExtendTime(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}

	var req dto.ExtendTimeDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.examService.ExtendTime(examID, req.TeacherID, req.Minutes)
	if err != nil {
		c.respondExamError(ctx, examID, err, "ExtendTime")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetMonitorSnapshot godoc
// @Summary (Teacher) Live monitoring dashboard
// @Description Per-student statuses, aggregate counts, remaining time and the recent activity feed. Recomputed on every call; poll it.
// @Tags Teacher - Exams
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param teacher_id query int true "Requesting teacher ID"
// @Success 200 {object} dto.MonitorSnapshotDTO
// @Failure 403 {object} dto.ErrorResponse "Not the exam owner"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /teacher/exams/{exam_id}/monitor [get]
func (c *TeacherExamController) GetMonitorSnapshot(ctx *gin.Context) {
	examID, ok := pathID(ctx, "exam_id")
	if !ok {
		return
	}

	teacherID, err := strconv.ParseUint(ctx.Query("teacher_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid teacher_id query parameter"})
		return
	}

	snapshot, snapErr := c.monitorService.GetSnapshot(examID, uint(teacherID))
	if snapErr != nil {
		c.respondExamError(ctx, examID, snapErr, "GetMonitorSnapshot")
		return
	}
	ctx.JSON(http.StatusOK, snapshot)
}

// OverrideScore godoc
// @Summary (Teacher) Manually score an answer
// @Description Stores a manual score and comment; the manual score supersedes the AI score everywhere.
// @Tags Teacher - Grading
// @Accept json
// @Produce json
// @Param answer_id path int true "Answer ID"
// @Param score_data body dto.ManualScoreDTO true "Manual score and comment"
// @Success 200 {object} dto.AnswerResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Answer not found"
// @Router /teacher/answers/{answer_id}/score [put]
func (c *TeacherExamController) OverrideScore(ctx *gin.Context) {
	answerID, ok := pathID(ctx, "answer_id")
	if !ok {
		return
	}

	var req dto.ManualScoreDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.examService.OverrideScore(answerID, req)
	if err != nil {
		if errors.Is(err, service.ErrAnswerNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to store manual score", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CreateQuestion godoc
// @Summary (Teacher) Add a question to the bank
// @Tags Teacher - Questions
// @Accept json
// @Produce json
// @Param question_data body dto.QuestionCreateDTO true "Question data"
// @Success 201 {object} dto.QuestionResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Router /questions [post]
func (c *TeacherExamController) CreateQuestion(ctx *gin.Context) {
	var req dto.QuestionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.questionService.CreateQuestion(req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create question", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ListQuestions godoc
// @Summary (Teacher) List questions for a subject
// @Tags Teacher - Questions
// @Produce json
// @Param subject_id path int true "Subject ID"
// @Success 200 {array} dto.QuestionResponseDTO
// @Router /subjects/{subject_id}/questions [get]
func (c *TeacherExamController) ListQuestions(ctx *gin.Context) {
	subjectID, ok := pathID(ctx, "subject_id")
	if !ok {
		return
	}

	questions, err := c.questionService.ListBySubject(subjectID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to list questions"})
		return
	}
	ctx.JSON(http.StatusOK, questions)
}

func (c *TeacherExamController) respondExamError(ctx *gin.Context, examID uint, err error, op string) {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrNotExamOwner):
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Message: err.Error()})
	default:
		log.Error().Err(err).Uint("exam_id", examID).Str("op", op).Msg("Exam operation failed")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal error"})
	}
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

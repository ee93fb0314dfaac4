package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/services"
	"github.com/edupath/learning-service/internal/utils"
	"github.com/edupath/learning-service/internal/validator"
)

// BotHandler serves the endpoints the Telegram bot consumes. Identity is the
// telegram id in the path; there is no further authentication on this
// surface.
type BotHandler struct {
	BaseHandler
	users     services.UserService
	lessons   services.LessonService
	questions services.QuestionService
	testing   services.TestingService
	results   services.ResultService
	validator *validator.Validator
}

func NewBotHandler(sm services.ServiceManager, v *validator.Validator, logger *utils.Logger) *BotHandler {
	return &BotHandler{
		BaseHandler: NewBaseHandler(logger),
		users:       sm.User(),
		lessons:     sm.Lesson(),
		questions:   sm.Question(),
		testing:     sm.Testing(),
		results:     sm.Result(),
		validator:   v,
	}
}

// Register creates a user or returns the existing one for the telegram id.
func (h *BotHandler) Register(c *gin.Context) {
	var req models.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondError(c, http.StatusBadRequest, "invalid_body", "invalid request body", err.Error())
		return
	}

	h.LogRequest(c, "registering user", "telegram_id", req.TelegramID)

	resp, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.AlreadyRegistered {
		status = http.StatusOK
	}
	h.RespondOK(c, status, resp)
}

func (h *BotHandler) GetUser(c *gin.Context) {
	telegramID, ok := h.telegramID(c)
	if !ok {
		return
	}

	user, err := h.users.GetByTelegramID(c.Request.Context(), telegramID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, user)
}

// UpdateUser applies a partial profile update.
func (h *BotHandler) UpdateUser(c *gin.Context) {
	telegramID, ok := h.telegramID(c)
	if !ok {
		return
	}

	var req models.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondError(c, http.StatusBadRequest, "invalid_body", "invalid request body", err.Error())
		return
	}

	user, err := h.users.Update(c.Request.Context(), telegramID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, user)
}

func (h *BotHandler) GetUserStats(c *gin.Context) {
	telegramID, ok := h.telegramID(c)
	if !ok {
		return
	}

	stats, err := h.users.Stats(c.Request.Context(), telegramID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, stats)
}

func (h *BotHandler) GetUserProgress(c *gin.Context) {
	telegramID, ok := h.telegramID(c)
	if !ok {
		return
	}

	progress, err := h.users.Progress(c.Request.Context(), telegramID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, progress)
}

// ListLessons returns published lessons annotated for the caller.
func (h *BotHandler) ListLessons(c *gin.Context) {
	telegramID, ok := h.telegramID(c)
	if !ok {
		return
	}

	lessons, err := h.lessons.ListForUser(c.Request.Context(), telegramID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, lessons)
}

func (h *BotHandler) GetLesson(c *gin.Context) {
	telegramID, ok := h.telegramID(c)
	if !ok {
		return
	}

	detail, err := h.lessons.DetailForUser(c.Request.Context(), telegramID, c.Param("lesson_id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, detail)
}

// GetTestQuestions returns the lesson's questions without correct options.
func (h *BotHandler) GetTestQuestions(c *gin.Context) {
	telegramID, ok := h.telegramID(c)
	if !ok {
		return
	}

	questions, err := h.questions.QuestionsForTest(c.Request.Context(), telegramID, c.Param("lesson_id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, questions)
}

// SubmitTest grades and stores a submission.
func (h *BotHandler) SubmitTest(c *gin.Context) {
	telegramID, ok := h.telegramID(c)
	if !ok {
		return
	}

	var req models.TestSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondError(c, http.StatusBadRequest, "invalid_body", "invalid request body", err.Error())
		return
	}

	h.LogRequest(c, "submitting test",
		"telegram_id", telegramID,
		"lesson_id", c.Param("lesson_id"),
		"answers", len(req.Answers))

	resp, err := h.testing.Submit(c.Request.Context(), telegramID, c.Param("lesson_id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusCreated, resp)
}

func (h *BotHandler) ListResults(c *gin.Context) {
	telegramID, ok := h.telegramID(c)
	if !ok {
		return
	}

	limit := 10
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	results, err := h.results.ListForUser(c.Request.Context(), telegramID, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, results)
}

func (h *BotHandler) GetResult(c *gin.Context) {
	telegramID, ok := h.telegramID(c)
	if !ok {
		return
	}

	detail, err := h.results.Detail(c.Request.Context(), telegramID, c.Param("result_id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, detail)
}

func (h *BotHandler) telegramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		h.RespondError(c, http.StatusBadRequest, "invalid_telegram_id", "telegram id must be an integer", nil)
		return 0, false
	}
	return id, true
}

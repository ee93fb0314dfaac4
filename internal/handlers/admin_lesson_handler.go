package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/repositories"
	"github.com/edupath/learning-service/internal/services"
	"github.com/edupath/learning-service/internal/utils"
	"github.com/edupath/learning-service/internal/validator"
)

// AdminLessonHandler serves lesson and question management plus reporting for
// the admin surface.
type AdminLessonHandler struct {
	BaseHandler
	lessons   services.LessonService
	questions services.QuestionService
	results   services.ResultService
	export    services.ExportService
	validator *validator.Validator
}

func NewAdminLessonHandler(sm services.ServiceManager, v *validator.Validator, logger *utils.Logger) *AdminLessonHandler {
	return &AdminLessonHandler{
		BaseHandler: NewBaseHandler(logger),
		lessons:     sm.Lesson(),
		questions:   sm.Question(),
		results:     sm.Result(),
		export:      sm.Export(),
		validator:   v,
	}
}

func (h *AdminLessonHandler) CreateLesson(c *gin.Context) {
	var req models.LessonCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondError(c, http.StatusBadRequest, "invalid_body", "invalid request body", err.Error())
		return
	}

	h.LogRequest(c, "creating lesson", "title", req.Title)

	lesson, err := h.lessons.Create(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusCreated, lesson)
}

func (h *AdminLessonHandler) UpdateLesson(c *gin.Context) {
	var req models.LessonUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondError(c, http.StatusBadRequest, "invalid_body", "invalid request body", err.Error())
		return
	}

	lesson, err := h.lessons.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, lesson)
}

func (h *AdminLessonHandler) DeleteLesson(c *gin.Context) {
	if err := h.lessons.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *AdminLessonHandler) GetLesson(c *gin.Context) {
	lesson, err := h.lessons.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, lesson)
}

func (h *AdminLessonHandler) ListLessons(c *gin.Context) {
	filters := h.parseLessonFilters(c)

	lessons, total, err := h.lessons.List(c.Request.Context(), filters)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, gin.H{
		"lessons": lessons,
		"total":   total,
	})
}

func (h *AdminLessonHandler) CreateQuestion(c *gin.Context) {
	var req models.QuestionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondError(c, http.StatusBadRequest, "invalid_body", "invalid request body", err.Error())
		return
	}

	question, err := h.questions.Create(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusCreated, question)
}

func (h *AdminLessonHandler) UpdateQuestion(c *gin.Context) {
	var req models.QuestionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondError(c, http.StatusBadRequest, "invalid_body", "invalid request body", err.Error())
		return
	}

	question, err := h.questions.Update(c.Request.Context(), c.Param("question_id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, question)
}

func (h *AdminLessonHandler) DeleteQuestion(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), c.Param("question_id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, gin.H{"deleted": true})
}

// ListQuestions is the admin view and includes correct options.
func (h *AdminLessonHandler) ListQuestions(c *gin.Context) {
	questions, err := h.questions.ListForLesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, questions)
}

func (h *AdminLessonHandler) GetLessonStats(c *gin.Context) {
	stats, err := h.results.LessonStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, stats)
}

// ExportResults streams an xlsx workbook with the lesson's results.
func (h *AdminLessonHandler) ExportResults(c *gin.Context) {
	h.LogRequest(c, "exporting lesson results", "lesson_id", c.Param("id"))

	data, filename, err := h.export.ExportLessonResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *AdminLessonHandler) parseLessonFilters(c *gin.Context) repositories.LessonFilters {
	page := 1
	size := 20

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if sizeStr := c.Query("size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
			size = s
		}
	}

	filters := repositories.LessonFilters{
		PublishedOnly: c.Query("published") == "true",
		Limit:         size,
		Offset:        (page - 1) * size,
		SortBy:        c.DefaultQuery("sort_by", "created_at"),
		SortOrder:     c.DefaultQuery("sort_order", "desc"),
	}
	if search := c.Query("q"); search != "" {
		filters.Search = &search
	}
	return filters
}

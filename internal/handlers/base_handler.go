package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/learning-service/internal/services"
	"github.com/edupath/learning-service/internal/utils"
)

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Envelope wraps every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// BaseHandler carries shared handler plumbing.
type BaseHandler struct {
	logger *utils.Logger
}

func NewBaseHandler(logger *utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...interface{}) {
	args = append(args, "request_id", c.GetString("request_id"))
	h.logger.Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...interface{}) {
	args = append(args, "error", err, "request_id", c.GetString("request_id"))
	h.logger.Error(msg, args...)
}

func (h *BaseHandler) RespondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func (h *BaseHandler) RespondError(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// HandleServiceError maps service errors to HTTP responses. All handlers
// funnel their service failures through this one switch.
func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var businessErr *services.BusinessRuleError
	var permissionErr *services.PermissionError

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		h.RespondError(c, http.StatusNotFound, "user_not_found", "user not found", nil)
	case errors.Is(err, services.ErrLessonNotFound):
		h.RespondError(c, http.StatusNotFound, "lesson_not_found", "lesson not found", nil)
	case errors.Is(err, services.ErrQuestionNotFound):
		h.RespondError(c, http.StatusNotFound, "question_not_found", "question not found", nil)
	case errors.Is(err, services.ErrResultNotFound):
		h.RespondError(c, http.StatusNotFound, "result_not_found", "test result not found", nil)
	case errors.Is(err, services.ErrGrantNotFound):
		h.RespondError(c, http.StatusNotFound, "grant_not_found", "access grant not found", nil)
	case errors.Is(err, services.ErrAccessDenied):
		h.RespondError(c, http.StatusForbidden, "access_denied", "no access to this lesson", nil)
	case errors.Is(err, services.ErrDuplicateGrant):
		h.RespondError(c, http.StatusConflict, "duplicate_grant", "access already granted", nil)
	case errors.As(err, &validationErr):
		h.RespondError(c, http.StatusBadRequest, "validation_failed", "request validation failed", validationErr.Errors)
	case errors.As(err, &businessErr):
		h.RespondError(c, http.StatusBadRequest, businessErr.Rule, businessErr.Message, nil)
	case errors.As(err, &permissionErr):
		h.RespondError(c, http.StatusForbidden, "forbidden", permissionErr.Message, nil)
	default:
		h.LogError(c, err, "unhandled service error")
		h.RespondError(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

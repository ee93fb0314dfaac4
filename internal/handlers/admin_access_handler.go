package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/services"
	"github.com/edupath/learning-service/internal/utils"
	"github.com/edupath/learning-service/internal/validator"
)

// AdminAccessHandler manages access grants.
type AdminAccessHandler struct {
	BaseHandler
	access    services.AccessService
	validator *validator.Validator
}

func NewAdminAccessHandler(sm services.ServiceManager, v *validator.Validator, logger *utils.Logger) *AdminAccessHandler {
	return &AdminAccessHandler{
		BaseHandler: NewBaseHandler(logger),
		access:      sm.Access(),
		validator:   v,
	}
}

// GrantAccess unlocks a lesson for a user. Granting twice returns a conflict.
func (h *AdminAccessHandler) GrantAccess(c *gin.Context) {
	var req models.GrantAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondError(c, http.StatusBadRequest, "invalid_body", "invalid request body", err.Error())
		return
	}

	h.LogRequest(c, "granting access", "user_id", req.UserID, "lesson_id", req.LessonID)

	grant, err := h.access.Grant(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusCreated, grant)
}

func (h *AdminAccessHandler) ListUserGrants(c *gin.Context) {
	grants, err := h.access.ListForUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, grants)
}

func (h *AdminAccessHandler) ListLessonGrants(c *gin.Context) {
	grants, err := h.access.ListForLesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.RespondOK(c, http.StatusOK, grants)
}

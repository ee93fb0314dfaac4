package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupath/learning-service/internal/config"
	"github.com/edupath/learning-service/internal/services"
	"github.com/edupath/learning-service/internal/utils"
	"github.com/edupath/learning-service/internal/validator"
)

type HandlerManager struct {
	botHandler     *BotHandler
	lessonHandler  *AdminLessonHandler
	accessHandler  *AdminAccessHandler
	authMiddleware *CasdoorAuthMiddleware
	serviceManager services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger *utils.Logger,
	casdoorConfig config.CasdoorConfig,
) *HandlerManager {
	return &HandlerManager{
		botHandler:     NewBotHandler(serviceManager, validator, logger),
		lessonHandler:  NewAdminLessonHandler(serviceManager, validator, logger),
		accessHandler:  NewAdminAccessHandler(serviceManager, validator, logger),
		authMiddleware: NewCasdoorAuthMiddleware(casdoorConfig),
		serviceManager: serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Bot routes: consumed by the Telegram bot, identified by telegram id only
	bot := v1.Group("/bot")
	{
		bot.POST("/register", hm.botHandler.Register)

		users := bot.Group("/users/:telegram_id")
		{
			users.GET("", hm.botHandler.GetUser)
			users.PATCH("", hm.botHandler.UpdateUser)
			users.GET("/stats", hm.botHandler.GetUserStats)
			users.GET("/progress", hm.botHandler.GetUserProgress)

			users.GET("/lessons", hm.botHandler.ListLessons)
			users.GET("/lessons/:lesson_id", hm.botHandler.GetLesson)
			users.GET("/lessons/:lesson_id/questions", hm.botHandler.GetTestQuestions)
			users.POST("/lessons/:lesson_id/test", hm.botHandler.SubmitTest)

			users.GET("/results", hm.botHandler.ListResults)
			users.GET("/results/:result_id", hm.botHandler.GetResult)
		}
	}

	// Admin routes: Casdoor-authenticated
	admin := v1.Group("/admin")
	admin.Use(hm.authMiddleware.AuthMiddleware())
	admin.Use(hm.authMiddleware.RequireAdmin())
	{
		lessons := admin.Group("/lessons")
		{
			lessons.POST("", hm.lessonHandler.CreateLesson)
			lessons.GET("", hm.lessonHandler.ListLessons)
			lessons.GET("/:id", hm.lessonHandler.GetLesson)
			lessons.PATCH("/:id", hm.lessonHandler.UpdateLesson)
			lessons.DELETE("/:id", hm.lessonHandler.DeleteLesson)

			lessons.POST("/:id/questions", hm.lessonHandler.CreateQuestion)
			lessons.GET("/:id/questions", hm.lessonHandler.ListQuestions)

			lessons.GET("/:id/stats", hm.lessonHandler.GetLessonStats)
			lessons.GET("/:id/export", hm.lessonHandler.ExportResults)
			lessons.GET("/:id/grants", hm.accessHandler.ListLessonGrants)
		}

		questions := admin.Group("/questions")
		{
			questions.PATCH("/:question_id", hm.lessonHandler.UpdateQuestion)
			questions.DELETE("/:question_id", hm.lessonHandler.DeleteQuestion)
		}

		access := admin.Group("/access")
		{
			access.POST("", hm.accessHandler.GrantAccess)
			access.GET("/users/:user_id", hm.accessHandler.ListUserGrants)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		health := gin.H{
			"status":  "healthy",
			"service": "learning-service",
		}
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			health["status"] = "unhealthy"
			health["error"] = err.Error()
		}
		c.JSON(status, health)
	})
}

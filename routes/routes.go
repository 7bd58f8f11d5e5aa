package routes

import (
	"campus-queue-api/handlers"
	"campus-queue-api/middleware"
	"campus-queue-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// Department directory (no auth needed)
		public.GET("/departments", handlers.ListDepartments)
		public.GET("/departments/:id", handlers.GetDepartment)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)
		auth.PUT("/profile", handlers.UpdateProfile)

		// Booking and queue views
		auth.POST("/appointments", handlers.BookAppointment)
		auth.GET("/appointments/mine", handlers.MyAppointments)
		auth.GET("/appointments/queue", handlers.QueueBoard)
		auth.GET("/appointments/next", handlers.NextPending)
		auth.GET("/appointments/stats", handlers.MyStats)
		auth.PUT("/appointments/:id/cancel", handlers.CancelAppointment)
		auth.PUT("/appointments/:id/reschedule", handlers.RescheduleAppointment)

		// Feedback
		auth.POST("/feedback", handlers.SubmitFeedback)
		auth.GET("/feedback/mine", handlers.MyFeedback)

		// Notification inbox
		auth.GET("/notifications", handlers.ListNotifications)
		auth.GET("/notifications/unread-count", handlers.UnreadCount)
		auth.PUT("/notifications/:id/read", handlers.MarkRead)
		auth.PUT("/notifications/read-all", handlers.MarkAllRead)
		auth.DELETE("/notifications/:id", handlers.DeleteNotification)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		// Queue management
		admin.PUT("/appointments/serve-next", handlers.ServeNextAppointment)
		admin.PUT("/appointments/:id/serve", handlers.ServeAppointment)
		admin.PUT("/appointments/:id/complete", handlers.CompleteAppointment)
		admin.GET("/appointments/today", handlers.TodayBoard)
		admin.GET("/reports", handlers.DailyReport)
		admin.GET("/users", handlers.AdminListUsers)

		// Department management
		admin.POST("/departments", handlers.CreateDepartment)
		admin.PUT("/departments/:id", handlers.UpdateDepartment)
		admin.DELETE("/departments/:id", handlers.DeleteDepartment)

		// Feedback review
		admin.GET("/feedback", handlers.AdminAllFeedback)
		admin.GET("/feedback/stats/:department_id", handlers.FeedbackStats)

		// Targeted notifications
		admin.POST("/notifications", handlers.AdminCreateNotification)
	}
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"campus-queue-api/cache"
	"campus-queue-api/config"
	"campus-queue-api/middleware"
	"campus-queue-api/models"
	"campus-queue-api/queue"

	"github.com/gin-gonic/gin"
)

// ServeAppointment moves a specific pending ticket to in_service (admin)
func ServeAppointment(c *gin.Context) {
	adminID := middleware.GetUserID(c)

	var appt models.Appointment
	if err := config.DB.First(&appt, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		return
	}

	if err := queue.Transition(config.DB, &appt, models.StatusInService, "admin", adminID, "Called to counter"); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          "Cannot serve appointment",
			"reason":         err.Error(),
			"current_status": appt.Status,
		})
		return
	}

	notify(appt.UserID, "queue", "You're being served",
		fmt.Sprintf("Queue #%d: please proceed to the counter", appt.QueueNumber))

	cache.Invalidate(c.Request.Context(), appt.DepartmentID, appt.Date)
	cache.PublishEvent(c.Request.Context(), appt.DepartmentID, "serving", &appt)

	c.JSON(http.StatusOK, gin.H{"message": "Appointment in service", "appointment": appt})
}

// ServeNextAppointment atomically advances the oldest pending ticket for a
// department's queue today (admin)
func ServeNextAppointment(c *gin.Context) {
	adminID := middleware.GetUserID(c)

	var q struct {
		DepartmentID uint `form:"department_id" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appt, err := queue.ServeNext(config.DB, q.DepartmentID, today(), adminID)
	if errors.Is(err, queue.ErrNoPending) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pending appointment in this queue"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to serve next appointment"})
		return
	}

	notify(appt.UserID, "queue", "You're being served",
		fmt.Sprintf("Queue #%d: please proceed to the counter", appt.QueueNumber))

	cache.Invalidate(c.Request.Context(), appt.DepartmentID, appt.Date)
	cache.PublishEvent(c.Request.Context(), appt.DepartmentID, "serving", appt)

	config.DB.Preload("User").Preload("Department").First(appt, appt.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Now serving", "appointment": appt})
}

// CompleteAppointment finishes an in-service ticket (admin)
func CompleteAppointment(c *gin.Context) {
	adminID := middleware.GetUserID(c)

	var appt models.Appointment
	if err := config.DB.First(&appt, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		return
	}

	if err := queue.Transition(config.DB, &appt, models.StatusCompleted, "admin", adminID, "Service completed"); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          "Cannot complete appointment",
			"reason":         err.Error(),
			"current_status": appt.Status,
		})
		return
	}

	notify(appt.UserID, "queue", "Appointment completed",
		fmt.Sprintf("Your visit on %s has been completed. Thanks for coming!", appt.Date))

	cache.Invalidate(c.Request.Context(), appt.DepartmentID, appt.Date)
	cache.PublishEvent(c.Request.Context(), appt.DepartmentID, "completed", &appt)

	c.JSON(http.StatusOK, gin.H{"message": "Appointment completed", "appointment_id": appt.ID})
}

// TodayBoard returns today's full board across all departments (admin)
func TodayBoard(c *gin.Context) {
	var board []models.Appointment
	query := config.DB.Preload("User").Preload("Department").
		Where("date = ?", today())

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	query.Order("department_id asc").Order("queue_number asc").Find(&board)

	// Dashboard summary: counts per status
	summary := map[string]int{}
	for _, a := range board {
		summary[string(a.Status)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"date":    today(),
		"summary": summary,
		"count":   len(board),
		"board":   board,
	})
}

// DailyReport returns the day's analytics: volume, busiest department and a
// rough average waiting estimate (15 minutes per position in line)
func DailyReport(c *gin.Context) {
	var total int64
	config.DB.Model(&models.Appointment{}).Where("date = ?", today()).Count(&total)

	var top struct {
		Name  string `json:"name"`
		Count int64  `json:"count"`
	}
	hasTop := config.DB.Model(&models.Appointment{}).
		Select("departments.name AS name, COUNT(*) AS count").
		Joins("JOIN departments ON departments.id = appointments.department_id").
		Where("appointments.date = ?", today()).
		Group("appointments.department_id").
		Order("count DESC").
		Limit(1).
		Scan(&top).Error == nil && top.Name != ""

	var avgQueue float64
	config.DB.Model(&models.Appointment{}).
		Where("date = ?", today()).
		Select("COALESCE(AVG(queue_number), 0)").
		Scan(&avgQueue)

	report := gin.H{
		"date":             today(),
		"total_today":      total,
		"avg_wait_minutes": int(avgQueue * 15),
	}
	if hasTop {
		report["busiest_department"] = top
	} else {
		report["busiest_department"] = nil
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// AdminListUsers returns all users, optionally filtered by role (admin)
func AdminListUsers(c *gin.Context) {
	var users []models.User
	query := config.DB
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	query.Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

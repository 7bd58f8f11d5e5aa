package handlers

import (
	"fmt"
	"net/http"
	"time"

	"campus-queue-api/cache"
	"campus-queue-api/config"
	"campus-queue-api/middleware"
	"campus-queue-api/models"
	"campus-queue-api/queue"
	"campus-queue-api/statemachine"

	"github.com/gin-gonic/gin"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

func today() string {
	return time.Now().Format(dateLayout)
}

// notify inserts an inbox entry for a user. Failures are logged by gorm and
// otherwise ignored: a lost notification must never fail the booking.
func notify(userID uint, ntype, title, message string) {
	config.DB.Create(&models.Notification{
		UserID:  userID,
		Type:    ntype,
		Title:   title,
		Message: message,
	})
}

type BookAppointmentRequest struct {
	DepartmentID uint   `json:"department_id" binding:"required"`
	Date         string `json:"date" binding:"required"`
	Time         string `json:"time" binding:"required"`
	Reason       string `json:"reason"`
	WalkIn       bool   `json:"walk_in"`
}

// BookAppointment creates a queue ticket. With walk_in set, a placeholder
// student account is synthesized and owns the ticket instead of the caller —
// the desk flow for students without an account.
func BookAppointment(c *gin.Context) {
	callerID := middleware.GetUserID(c)

	var req BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
		return
	}
	if _, err := time.Parse(timeLayout, req.Time); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Time must be HH:MM"})
		return
	}

	var department models.Department
	if err := config.DB.First(&department, req.DepartmentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Department not found"})
		return
	}

	ownerID := callerID
	if req.WalkIn {
		walkIn, err := createWalkInUser()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create walk-in account"})
			return
		}
		ownerID = walkIn.ID
	}

	appt := models.Appointment{
		UserID:       ownerID,
		DepartmentID: req.DepartmentID,
		Date:         req.Date,
		Time:         req.Time,
		Reason:       req.Reason,
	}
	if err := queue.Book(config.DB, &appt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to book appointment"})
		return
	}

	config.DB.Create(&models.AppointmentStatusHistory{
		AppointmentID: appt.ID,
		ToStatus:      models.StatusPending,
		ChangedBy:     callerID,
		Note:          "Appointment booked",
	})

	notify(ownerID, "queue", "Queue number assigned",
		fmt.Sprintf("You have queue #%d at %s on %s at %s",
			appt.QueueNumber, department.Name, appt.Date, appt.Time))

	cache.Invalidate(c.Request.Context(), appt.DepartmentID, appt.Date)
	cache.PublishEvent(c.Request.Context(), appt.DepartmentID, "booked", &appt)

	config.DB.Preload("Department").Preload("User").First(&appt, appt.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Appointment booked",
		"appointment":  appt,
		"queue_number": appt.QueueNumber,
	})
}

// MyAppointments returns all appointments for the caller, newest date first
func MyAppointments(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var appointments []models.Appointment
	config.DB.Preload("Department").
		Where("user_id = ?", userID).
		Order("date desc").Order("time desc").
		Find(&appointments)
	c.JSON(http.StatusOK, gin.H{"count": len(appointments), "appointments": appointments})
}

// QueueBoard returns a department's queue for a date (default today) ordered
// by queue number. Reads go through the redis cache when one is configured.
func QueueBoard(c *gin.Context) {
	var q struct {
		DepartmentID uint   `form:"department_id" binding:"required"`
		Date         string `form:"date"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date := q.Date
	if date == "" {
		date = today()
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
		return
	}

	if cached, ok := cache.GetQueue(c.Request.Context(), q.DepartmentID, date); ok {
		c.JSON(http.StatusOK, gin.H{"count": len(cached), "date": date, "queue": cached, "cached": true})
		return
	}

	var board []models.Appointment
	config.DB.Preload("User").Preload("Department").
		Where("department_id = ? AND date = ?", q.DepartmentID, date).
		Order("queue_number asc").
		Find(&board)

	cache.SetQueue(c.Request.Context(), q.DepartmentID, date, board)

	c.JSON(http.StatusOK, gin.H{"count": len(board), "date": date, "queue": board})
}

// NextPending returns today's lowest pending ticket for a department, or
// null when nobody is waiting
func NextPending(c *gin.Context) {
	var q struct {
		DepartmentID uint `form:"department_id" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appt, err := queue.NextPending(config.DB, q.DepartmentID, today())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read queue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

func countAppointments(userID uint, status models.AppointmentStatus) int64 {
	var n int64
	config.DB.Model(&models.Appointment{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&n)
	return n
}

// MyStats returns the caller's dashboard aggregates
func MyStats(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var total, upcoming int64
	config.DB.Model(&models.Appointment{}).Where("user_id = ?", userID).Count(&total)

	weekAhead := time.Now().AddDate(0, 0, 7).Format(dateLayout)
	config.DB.Model(&models.Appointment{}).
		Where("user_id = ? AND status IN ?", userID,
			[]models.AppointmentStatus{models.StatusPending, models.StatusInService}).
		Where("date >= ? AND date <= ?", today(), weekAhead).
		Count(&upcoming)

	var recent []models.Appointment
	config.DB.Preload("Department").
		Where("user_id = ?", userID).
		Order("created_at desc").Limit(5).
		Find(&recent)

	now := time.Now().Format(timeLayout)
	var next models.Appointment
	hasNext := config.DB.Preload("Department").
		Where("user_id = ? AND status IN ?", userID,
			[]models.AppointmentStatus{models.StatusPending, models.StatusInService}).
		Where("date > ? OR (date = ? AND time >= ?)", today(), today(), now).
		Order("date asc").Order("time asc").
		First(&next).Error == nil

	stats := gin.H{
		"total":      total,
		"pending":    countAppointments(userID, models.StatusPending),
		"in_service": countAppointments(userID, models.StatusInService),
		"completed":  countAppointments(userID, models.StatusCompleted),
		"cancelled":  countAppointments(userID, models.StatusCancelled),
		"upcoming":   upcoming,
		"recent":     recent,
	}
	if hasNext {
		stats["next_appointment"] = next
	} else {
		stats["next_appointment"] = nil
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// CancelAppointment cancels a pending ticket. Students may only cancel their
// own; admins may cancel any.
func CancelAppointment(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	role := middleware.GetRole(c)

	var appt models.Appointment
	if err := config.DB.First(&appt, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		return
	}
	if role != models.RoleAdmin && appt.UserID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This appointment does not belong to you"})
		return
	}

	if err := queue.Transition(config.DB, &appt, models.StatusCancelled, string(role), callerID, "Cancelled"); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          "Cannot cancel appointment",
			"reason":         err.Error(),
			"current_status": appt.Status,
		})
		return
	}

	notify(appt.UserID, "queue", "Appointment cancelled",
		fmt.Sprintf("Your appointment on %s at %s was cancelled", appt.Date, appt.Time))

	cache.Invalidate(c.Request.Context(), appt.DepartmentID, appt.Date)
	cache.PublishEvent(c.Request.Context(), appt.DepartmentID, "cancelled", &appt)

	c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled", "appointment_id": appt.ID})
}

type RescheduleRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// RescheduleAppointment moves the caller's own pending ticket to a new
// date/time, taking a fresh queue number in the target day's queue
func RescheduleAppointment(c *gin.Context) {
	callerID := middleware.GetUserID(c)

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
		return
	}
	if _, err := time.Parse(timeLayout, req.Time); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Time must be HH:MM"})
		return
	}

	var appt models.Appointment
	if err := config.DB.First(&appt, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
		return
	}
	if appt.UserID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This appointment does not belong to you"})
		return
	}
	if err := statemachine.CanTransition(appt.Status, models.StatusPending, "student"); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":          "Cannot reschedule appointment",
			"reason":         err.Error(),
			"current_status": appt.Status,
		})
		return
	}

	oldDate := appt.Date
	if err := queue.Reschedule(config.DB, &appt, req.Date, req.Time); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reschedule appointment"})
		return
	}

	config.DB.Create(&models.AppointmentStatusHistory{
		AppointmentID: appt.ID,
		FromStatus:    models.StatusPending,
		ToStatus:      models.StatusPending,
		ChangedBy:     callerID,
		Note:          fmt.Sprintf("Rescheduled from %s to %s %s", oldDate, appt.Date, appt.Time),
	})

	notify(appt.UserID, "queue", "Appointment rescheduled",
		fmt.Sprintf("You now have queue #%d on %s at %s", appt.QueueNumber, appt.Date, appt.Time))

	cache.Invalidate(c.Request.Context(), appt.DepartmentID, oldDate)
	cache.Invalidate(c.Request.Context(), appt.DepartmentID, appt.Date)
	cache.PublishEvent(c.Request.Context(), appt.DepartmentID, "rescheduled", &appt)

	c.JSON(http.StatusOK, gin.H{
		"message":      "Appointment rescheduled",
		"appointment":  appt,
		"queue_number": appt.QueueNumber,
	})
}

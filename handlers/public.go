package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStateMachineInfo returns the appointment lifecycle for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	info := []gin.H{
		{"from": "pending", "to": "in_service", "actor": "admin"},
		{"from": "pending", "to": "cancelled", "actor": "student or admin"},
		{"from": "pending", "to": "pending", "actor": "student (reschedule: new date, time and queue number)"},
		{"from": "in_service", "to": "completed", "actor": "admin"},
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   info,
		"terminal_states": []string{"completed", "cancelled"},
		"description":     "Campus Queue Appointment Lifecycle State Machine",
	})
}

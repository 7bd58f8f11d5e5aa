package handlers

import (
	"net/http"

	"campus-queue-api/config"
	"campus-queue-api/middleware"
	"campus-queue-api/models"

	"github.com/gin-gonic/gin"
)

type SubmitFeedbackRequest struct {
	DepartmentID uint   `json:"department_id" binding:"required"`
	Rating       int    `json:"rating" binding:"required,min=1,max=5"`
	Experience   string `json:"experience" binding:"required"`
	Suggestions  string `json:"suggestions"`
}

// SubmitFeedback records a write-once department rating
func SubmitFeedback(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var department models.Department
	if err := config.DB.First(&department, req.DepartmentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Department not found"})
		return
	}

	feedback := models.Feedback{
		UserID:       userID,
		DepartmentID: req.DepartmentID,
		Rating:       req.Rating,
		Experience:   req.Experience,
		Suggestions:  req.Suggestions,
	}
	if err := config.DB.Create(&feedback).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit feedback"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Feedback submitted", "feedback": feedback})
}

// MyFeedback returns the caller's feedback history, newest first
func MyFeedback(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var feedback []models.Feedback
	config.DB.Preload("Department").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&feedback)
	c.JSON(http.StatusOK, gin.H{"count": len(feedback), "feedback": feedback})
}

// AdminAllFeedback returns every feedback entry (admin)
func AdminAllFeedback(c *gin.Context) {
	var feedback []models.Feedback
	query := config.DB.Preload("User").Preload("Department")
	if departmentID := c.Query("department_id"); departmentID != "" {
		query = query.Where("department_id = ?", departmentID)
	}
	query.Order("created_at desc").Find(&feedback)
	c.JSON(http.StatusOK, gin.H{"count": len(feedback), "feedback": feedback})
}

// FeedbackStats returns a department's rating histogram (admin)
func FeedbackStats(c *gin.Context) {
	var department models.Department
	if err := config.DB.First(&department, c.Param("department_id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Department not found"})
		return
	}

	var stats struct {
		TotalFeedback int64   `json:"total_feedback"`
		AverageRating float64 `json:"average_rating"`
		FiveStar      int64   `json:"five_star"`
		FourStar      int64   `json:"four_star"`
		ThreeStar     int64   `json:"three_star"`
		TwoStar       int64   `json:"two_star"`
		OneStar       int64   `json:"one_star"`
	}
	config.DB.Model(&models.Feedback{}).
		Select(`COUNT(*) AS total_feedback,
			COALESCE(AVG(rating), 0) AS average_rating,
			SUM(CASE WHEN rating = 5 THEN 1 ELSE 0 END) AS five_star,
			SUM(CASE WHEN rating = 4 THEN 1 ELSE 0 END) AS four_star,
			SUM(CASE WHEN rating = 3 THEN 1 ELSE 0 END) AS three_star,
			SUM(CASE WHEN rating = 2 THEN 1 ELSE 0 END) AS two_star,
			SUM(CASE WHEN rating = 1 THEN 1 ELSE 0 END) AS one_star`).
		Where("department_id = ?", department.ID).
		Scan(&stats)

	c.JSON(http.StatusOK, gin.H{"department": department.Name, "stats": stats})
}

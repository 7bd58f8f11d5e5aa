package handlers

import (
	"net/http"

	"campus-queue-api/config"
	"campus-queue-api/models"

	"github.com/gin-gonic/gin"
)

// ListDepartments returns all departments ordered by name (public)
func ListDepartments(c *gin.Context) {
	var departments []models.Department
	config.DB.Order("name asc").Find(&departments)
	c.JSON(http.StatusOK, gin.H{"count": len(departments), "departments": departments})
}

// GetDepartment returns a single department
func GetDepartment(c *gin.Context) {
	var department models.Department
	if err := config.DB.First(&department, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Department not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"department": department})
}

type DepartmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateDepartment adds a department (admin only)
func CreateDepartment(c *gin.Context) {
	var req DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Department
	if err := config.DB.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Department with this name already exists"})
		return
	}

	department := models.Department{Name: req.Name, Description: req.Description}
	if err := config.DB.Create(&department).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create department"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Department created", "department": department})
}

// UpdateDepartment changes name/description (admin only)
func UpdateDepartment(c *gin.Context) {
	var department models.Department
	if err := config.DB.First(&department, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Department not found"})
		return
	}

	var req DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var collision models.Department
	if err := config.DB.Where("name = ? AND id != ?", req.Name, department.ID).First(&collision).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Department with this name already exists"})
		return
	}

	config.DB.Model(&department).Updates(map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Department updated", "department": department})
}

// DeleteDepartment removes a department. Departments referenced by existing
// appointments or feedback are never deleted: history views and queue
// numbers would dangle.
func DeleteDepartment(c *gin.Context) {
	var department models.Department
	if err := config.DB.First(&department, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Department not found"})
		return
	}

	var appointmentCount int64
	config.DB.Model(&models.Appointment{}).Where("department_id = ?", department.ID).Count(&appointmentCount)
	var feedbackCount int64
	config.DB.Model(&models.Feedback{}).Where("department_id = ?", department.ID).Count(&feedbackCount)
	if appointmentCount > 0 || feedbackCount > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":        "Department has existing appointments or feedback and cannot be deleted",
			"appointments": appointmentCount,
			"feedback":     feedbackCount,
		})
		return
	}

	if err := config.DB.Delete(&department).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete department"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Department deleted", "department_id": department.ID})
}

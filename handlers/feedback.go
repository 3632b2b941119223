package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paperstreet/config"
	"paperstreet/models"
)

type FeedbackInput struct {
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required"`
}

func SubmitFeedback(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	var input FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feedback := models.Feedback{
		UserID:  userID,
		Subject: input.Subject,
		Message: input.Message,
	}
	if err := config.DB.Create(&feedback).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit feedback"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Feedback submitted"})
}

func ListFeedback(c *gin.Context) {
	page, limit := pagination(c)

	var feedback []models.Feedback
	err := config.DB.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&feedback).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch feedback"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedback": feedback, "page": page})
}

func DeleteFeedback(c *gin.Context) {
	var feedback models.Feedback
	if err := config.DB.First(&feedback, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feedback not found"})
		return
	}
	if err := config.DB.Unscoped().Delete(&feedback).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete feedback"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback deleted"})
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"paperstreet/config"
	"paperstreet/models"
)

var weekdays = map[string]bool{
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
}

// GetMarketHours returns the configured open/close times for a weekday, or
// empty strings when the day is unconfigured.
func GetMarketHours(c *gin.Context) {
	day := c.Query("day")
	if !weekdays[day] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid weekday"})
		return
	}

	var hours models.TradingHours
	err := config.DB.Where("weekday = ?", day).First(&hours).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, gin.H{"day": day, "open_time": "", "close_time": ""})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch market hours"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"day":        hours.Weekday,
		"open_time":  hours.OpenTime,
		"close_time": hours.CloseTime,
	})
}

type MarketHoursInput struct {
	Day       string `json:"day" binding:"required"`
	OpenTime  string `json:"open_time" binding:"required"`
	CloseTime string `json:"close_time" binding:"required"`
}

// SetMarketHours creates or replaces the schedule row for one weekday.
func SetMarketHours(c *gin.Context) {
	var input MarketHoursInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !weekdays[input.Day] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid weekday"})
		return
	}

	open, err := time.Parse("15:04", input.OpenTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open_time must be HH:MM"})
		return
	}
	close, err := time.Parse("15:04", input.CloseTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "close_time must be HH:MM"})
		return
	}
	if close.Before(open) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "close_time must not precede open_time"})
		return
	}

	var hours models.TradingHours
	err = config.DB.Where("weekday = ?", input.Day).First(&hours).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hours = models.TradingHours{Weekday: input.Day, OpenTime: input.OpenTime, CloseTime: input.CloseTime}
		err = config.DB.Create(&hours).Error
	case err == nil:
		err = config.DB.Model(&hours).Updates(map[string]interface{}{
			"open_time":  input.OpenTime,
			"close_time": input.CloseTime,
		}).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save market hours"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Market hours saved"})
}

// MarketToggle flips the admin override. The control row is created on the
// first toggle, starting from "enabled".
func MarketToggle(c *gin.Context) {
	var ctrl models.MarketControl
	err := config.DB.First(&ctrl).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctrl = models.MarketControl{Enabled: false}
		err = config.DB.Create(&ctrl).Error
	case err == nil:
		// gorm writes the new value back into ctrl as part of the update.
		err = config.DB.Model(&ctrl).Update("enabled", !ctrl.Enabled).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle market"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"enabled": ctrl.Enabled})
}

func ListHolidays(c *gin.Context) {
	var holidays []models.Holiday
	if err := config.DB.Order("date").Find(&holidays).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch holidays"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"holidays": holidays})
}

type HolidayInput struct {
	Name string `json:"name" binding:"required"`
	Date string `json:"date" binding:"required"`
}

func AddHoliday(c *gin.Context) {
	var input HolidayInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := time.Parse("2006-01-02", input.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	holiday := models.Holiday{Name: input.Name, Date: input.Date}
	if err := config.DB.Create(&holiday).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Holiday already exists for that date"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Holiday added", "id": holiday.ID})
}

func DeleteHoliday(c *gin.Context) {
	var holiday models.Holiday
	if err := config.DB.First(&holiday, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Holiday not found"})
		return
	}
	if err := config.DB.Unscoped().Delete(&holiday).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete holiday"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Holiday deleted"})
}

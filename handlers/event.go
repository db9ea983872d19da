package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/datasciencepursuer/bubufulplanet-sub000/database"
	"github.com/datasciencepursuer/bubufulplanet-sub000/models"
	"github.com/datasciencepursuer/bubufulplanet-sub000/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const timeLayout = "15:04"

// POST /api/days/:id/events
func CreateEvent(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	dayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid day ID")
		return
	}

	var day models.TripDay
	if err := database.DB.First(&day, dayID).Error; err != nil {
		utils.NotFound(c, "Day not found")
		return
	}

	trip, ok := tripForMember(day.TripID, userID)
	if !ok {
		utils.Unauthorized(c, "You are not a member of this trip's group")
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := validateTimeSlot(req.StartTime, req.EndTime); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	event := models.Event{
		DayID:       dayID,
		TripID:      day.TripID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Color:       req.Color,
	}

	if err := database.DB.Create(&event).Error; err != nil {
		utils.InternalError(c, "Failed to create event")
		return
	}

	var creator models.User
	database.DB.First(&creator, userID)
	database.DB.Create(&models.Activity{
		GroupID:     trip.GroupID,
		UserID:      userID,
		Type:        "event_added",
		ReferenceID: event.ID,
		Description: fmt.Sprintf("%s scheduled \"%s\" on %s", creator.Name, event.Title, day.Date.Format(dateLayout)),
	})

	utils.SuccessResponse(c, http.StatusCreated, "Event created", event)
}

// GET /api/events/:id
func GetEvent(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid event ID")
		return
	}

	var event models.Event
	if err := database.DB.First(&event, eventID).Error; err != nil {
		utils.NotFound(c, "Event not found")
		return
	}

	if _, ok := tripForMember(event.TripID, userID); !ok {
		utils.Unauthorized(c, "You are not a member of this trip's group")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", event)
}

// PUT /api/events/:id
func UpdateEvent(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid event ID")
		return
	}

	var event models.Event
	if err := database.DB.First(&event, eventID).Error; err != nil {
		utils.NotFound(c, "Event not found")
		return
	}

	if _, ok := tripForMember(event.TripID, userID); !ok {
		utils.Unauthorized(c, "You are not a member of this trip's group")
		return
	}

	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	startTime := event.StartTime
	endTime := event.EndTime
	if req.StartTime != "" {
		startTime = req.StartTime
	}
	if req.EndTime != "" {
		endTime = req.EndTime
	}
	if err := validateTimeSlot(startTime, endTime); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if req.StartTime != "" {
		updates["start_time"] = req.StartTime
	}
	if req.EndTime != "" {
		updates["end_time"] = req.EndTime
	}
	if req.Color != "" {
		updates["color"] = req.Color
	}

	database.DB.Model(&event).Updates(updates)

	utils.SuccessResponse(c, http.StatusOK, "Event updated", event)
}

// DELETE /api/events/:id
func DeleteEvent(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid event ID")
		return
	}

	var event models.Event
	if err := database.DB.First(&event, eventID).Error; err != nil {
		utils.NotFound(c, "Event not found")
		return
	}

	if _, ok := tripForMember(event.TripID, userID); !ok {
		utils.Unauthorized(c, "You are not a member of this trip's group")
		return
	}

	// Expenses attached to the event go with it, atomically
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var expenses []models.Expense
		if err := tx.Where("event_id = ?", eventID).Find(&expenses).Error; err != nil {
			return err
		}
		for _, e := range expenses {
			if err := deleteExpenseRows(tx, e.ID); err != nil {
				return err
			}
			if err := tx.Delete(&e).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&event).Error
	})
	if err != nil {
		utils.InternalError(c, "Failed to delete event")
		return
	}

	invalidateBalanceCache(event.TripID)

	utils.SuccessResponse(c, http.StatusOK, "Event deleted", nil)
}

// PUT /api/days/:id — itinerary day notes
func UpdateDay(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	dayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid day ID")
		return
	}

	var day models.TripDay
	if err := database.DB.First(&day, dayID).Error; err != nil {
		utils.NotFound(c, "Day not found")
		return
	}

	if _, ok := tripForMember(day.TripID, userID); !ok {
		utils.Unauthorized(c, "You are not a member of this trip's group")
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	database.DB.Model(&day).Update("notes", req.Notes)

	utils.SuccessResponse(c, http.StatusOK, "Day updated", day)
}

func validateTimeSlot(start, end string) error {
	startT, err := time.Parse(timeLayout, start)
	if err != nil {
		return fmt.Errorf("invalid start time, expected HH:MM")
	}
	endT, err := time.Parse(timeLayout, end)
	if err != nil {
		return fmt.Errorf("invalid end time, expected HH:MM")
	}
	if !endT.After(startT) {
		return fmt.Errorf("end time must be after start time")
	}
	return nil
}

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

const dateLayout = "2006-01-02"

// POST /api/groups/:id/trips
func CreateTrip(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	if !isMember(groupID, userID) {
		utils.Unauthorized(c, "You are not a member of this group")
		return
	}

	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		utils.BadRequest(c, "Invalid start date, expected YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		utils.BadRequest(c, "Invalid end date, expected YYYY-MM-DD")
		return
	}
	if endDate.Before(startDate) {
		utils.BadRequest(c, "End date must not be before start date")
		return
	}

	trip := models.Trip{
		GroupID:     groupID,
		Name:        req.Name,
		Destination: req.Destination,
		StartDate:   startDate,
		EndDate:     endDate,
		CreatedBy:   userID,
	}

	if err := database.DB.Create(&trip).Error; err != nil {
		utils.InternalError(c, "Failed to create trip")
		return
	}

	// One itinerary day per date in range
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		database.DB.Create(&models.TripDay{TripID: trip.ID, Date: d})
	}

	var creator models.User
	database.DB.First(&creator, userID)
	database.DB.Create(&models.Activity{
		GroupID:     groupID,
		UserID:      userID,
		Type:        "trip_created",
		ReferenceID: trip.ID,
		Description: fmt.Sprintf("%s created trip \"%s\"", creator.Name, trip.Name),
	})

	response := buildTripResponse(trip.ID)
	utils.SuccessResponse(c, http.StatusCreated, "Trip created", response)
}

// GET /api/groups/:id/trips
func GetGroupTrips(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	if !isMember(groupID, userID) {
		utils.Unauthorized(c, "You are not a member of this group")
		return
	}

	var trips []models.Trip
	database.DB.Where("group_id = ?", groupID).Order("start_date DESC").Find(&trips)

	utils.SuccessResponse(c, http.StatusOK, "", trips)
}

// GET /api/trips/:id
func GetTrip(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	if _, ok := tripForMember(tripID, userID); !ok {
		utils.Unauthorized(c, "You are not a member of this trip's group")
		return
	}

	response := buildTripResponse(tripID)
	utils.SuccessResponse(c, http.StatusOK, "", response)
}

// PUT /api/trips/:id
func UpdateTrip(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	trip, ok := tripForMember(tripID, userID)
	if !ok {
		utils.Unauthorized(c, "You are not a member of this trip's group")
		return
	}

	var req models.UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Destination != "" {
		updates["destination"] = req.Destination
	}

	startDate := trip.StartDate
	endDate := trip.EndDate
	if req.StartDate != "" {
		startDate, err = time.Parse(dateLayout, req.StartDate)
		if err != nil {
			utils.BadRequest(c, "Invalid start date, expected YYYY-MM-DD")
			return
		}
		updates["start_date"] = startDate
	}
	if req.EndDate != "" {
		endDate, err = time.Parse(dateLayout, req.EndDate)
		if err != nil {
			utils.BadRequest(c, "Invalid end date, expected YYYY-MM-DD")
			return
		}
		updates["end_date"] = endDate
	}
	if endDate.Before(startDate) {
		utils.BadRequest(c, "End date must not be before start date")
		return
	}

	// Date edits and the itinerary reconcile they trigger commit together:
	// backfill missing dates, drop days that fell outside the new range
	// (cascading their events and expenses).
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Trip{}).Where("id = ?", tripID).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.StartDate == "" && req.EndDate == "" {
			return nil
		}

		var days []models.TripDay
		if err := tx.Where("trip_id = ?", tripID).Find(&days).Error; err != nil {
			return err
		}

		existing := make(map[string]models.TripDay)
		for _, d := range days {
			existing[d.Date.Format(dateLayout)] = d
		}

		for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
			if _, ok := existing[d.Format(dateLayout)]; !ok {
				if err := tx.Create(&models.TripDay{TripID: tripID, Date: d}).Error; err != nil {
					return err
				}
			}
		}

		for key, day := range existing {
			date, _ := time.Parse(dateLayout, key)
			if date.Before(startDate) || date.After(endDate) {
				if err := deleteDayCascade(tx, day.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		utils.InternalError(c, "Failed to update trip")
		return
	}
	if req.StartDate != "" || req.EndDate != "" {
		invalidateBalanceCache(tripID)
	}

	response := buildTripResponse(tripID)
	utils.SuccessResponse(c, http.StatusOK, "Trip updated", response)
}

// DELETE /api/trips/:id
func DeleteTrip(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	trip, ok := tripForMember(tripID, userID)
	if !ok {
		utils.Unauthorized(c, "You are not a member of this trip's group")
		return
	}

	// Cascade: expenses (with their rows), events, days, then the trip — all
	// or nothing.
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var expenses []models.Expense
		if err := tx.Where("trip_id = ?", tripID).Find(&expenses).Error; err != nil {
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
		if err := tx.Where("trip_id = ?", tripID).Delete(&models.Event{}).Error; err != nil {
			return err
		}
		if err := tx.Where("trip_id = ?", tripID).Delete(&models.TripDay{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Trip{}, tripID).Error
	})
	if err != nil {
		utils.InternalError(c, "Failed to delete trip")
		return
	}

	invalidateBalanceCache(tripID)

	var deleter models.User
	database.DB.First(&deleter, userID)
	database.DB.Create(&models.Activity{
		GroupID:     trip.GroupID,
		UserID:      userID,
		Type:        "trip_deleted",
		Description: fmt.Sprintf("%s deleted trip \"%s\"", deleter.Name, trip.Name),
	})

	utils.SuccessResponse(c, http.StatusOK, "Trip deleted", nil)
}

// GET /api/trips/:id/days
func GetTripDays(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	if _, ok := tripForMember(tripID, userID); !ok {
		utils.Unauthorized(c, "You are not a member of this trip's group")
		return
	}

	var days []models.TripDay
	database.DB.Where("trip_id = ?", tripID).
		Preload("Events").
		Order("date ASC").
		Find(&days)

	utils.SuccessResponse(c, http.StatusOK, "", days)
}

// Helper: load the trip and check the caller belongs to its group.
func tripForMember(tripID, userID uuid.UUID) (models.Trip, bool) {
	var trip models.Trip
	if err := database.DB.First(&trip, tripID).Error; err != nil {
		return trip, false
	}
	return trip, isMember(trip.GroupID, userID)
}

func buildTripResponse(tripID uuid.UUID) models.Trip {
	var trip models.Trip
	database.DB.Preload("Days.Events").First(&trip, tripID)
	return trip
}

// Helper: delete a day with its events and their expenses, inside the
// caller's transaction.
func deleteDayCascade(tx *gorm.DB, dayID uuid.UUID) error {
	var expenses []models.Expense
	if err := tx.Where("day_id = ?", dayID).Find(&expenses).Error; err != nil {
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
	if err := tx.Where("day_id = ?", dayID).Delete(&models.Event{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.TripDay{}, dayID).Error
}

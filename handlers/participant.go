package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/datasciencepursuer/bubufulplanet-sub000/database"
	"github.com/datasciencepursuer/bubufulplanet-sub000/models"
	"github.com/datasciencepursuer/bubufulplanet-sub000/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// GET /api/groups/:id/participants — recently used external participants,
// newest first, for the expense form autocomplete.
func GetExternalParticipants(c *gin.Context) {
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

	var participants []models.ExternalParticipant
	database.DB.Where("group_id = ?", groupID).
		Order("last_used_at DESC").
		Limit(50).
		Find(&participants)

	utils.SuccessResponse(c, http.StatusOK, "", participants)
}

// POST /api/groups/:id/participants
func CreateExternalParticipant(c *gin.Context) {
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

	var req models.CreateExternalParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.BadRequest(c, "Participant name cannot be empty")
		return
	}

	participant := models.ExternalParticipant{
		GroupID:   groupID,
		Name:      name,
		CreatedBy: userID,
	}

	if err := database.DB.Create(&participant).Error; err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			utils.Conflict(c, "An external participant with this name already exists in the group")
			return
		}
		utils.InternalError(c, "Failed to create external participant")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "External participant added", participant)
}

// DELETE /api/groups/:id/participants/:pid
func DeleteExternalParticipant(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	participantID, err := uuid.Parse(c.Param("pid"))
	if err != nil {
		utils.BadRequest(c, "Invalid participant ID")
		return
	}

	if !isMember(groupID, userID) {
		utils.Unauthorized(c, "You are not a member of this group")
		return
	}

	database.DB.Where("id = ? AND group_id = ?", participantID, groupID).Delete(&models.ExternalParticipant{})

	utils.SuccessResponse(c, http.StatusOK, "External participant removed", nil)
}

// touchExternalParticipants refreshes last-used tracking for the names used
// in an expense submission and registers names seen for the first time.
func touchExternalParticipants(groupID, userID uuid.UUID, names []string) {
	for _, name := range names {
		var existing models.ExternalParticipant
		err := database.DB.Where("group_id = ? AND name = ?", groupID, name).First(&existing).Error
		if err == nil {
			database.DB.Model(&existing).Update("last_used_at", time.Now())
			continue
		}
		database.DB.Create(&models.ExternalParticipant{
			GroupID:    groupID,
			Name:       name,
			CreatedBy:  userID,
			LastUsedAt: time.Now(),
		})
	}
}

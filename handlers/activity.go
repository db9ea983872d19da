package handlers

import (
	"net/http"

	"github.com/datasciencepursuer/bubufulplanet-sub000/database"
	"github.com/datasciencepursuer/bubufulplanet-sub000/models"
	"github.com/datasciencepursuer/bubufulplanet-sub000/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Feed rows are written inline by the handlers that mutate state. Types in
// use: group_created, member_joined, member_left, trip_created, trip_deleted,
// event_added, expense_added, expense_updated, expense_deleted.

// GET /api/activity — feed across every group the caller belongs to.
// ?type= narrows to a single activity type (e.g. expense_added).
func GetActivity(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)

	var memberships []models.GroupMember
	database.DB.Where("user_id = ?", userID).Find(&memberships)

	groupIDs := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		groupIDs = append(groupIDs, m.GroupID)
	}

	var activities []models.Activity
	if len(groupIDs) > 0 {
		query := database.DB.Where("group_id IN ?", groupIDs)
		if typ := c.Query("type"); typ != "" {
			query = query.Where("type = ?", typ)
		}
		query.Preload("User").
			Order("created_at DESC").
			Offset(pagination.Offset()).
			Limit(pagination.Limit).
			Find(&activities)

		attachGroupNames(activities, groupIDs)
	}

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}

// GET /api/groups/:id/activity — one group's feed, same ?type= filter.
func GetGroupActivity(c *gin.Context) {
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

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)

	query := database.DB.Where("group_id = ?", groupID)
	if typ := c.Query("type"); typ != "" {
		query = query.Where("type = ?", typ)
	}

	var activities []models.Activity
	query.Preload("User").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&activities)

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}

// attachGroupNames fills the display-only GroupName on cross-group feeds.
func attachGroupNames(activities []models.Activity, groupIDs []uuid.UUID) {
	groupNames := make(map[uuid.UUID]string, len(groupIDs))
	var groups []models.Group
	database.DB.Where("id IN ?", groupIDs).Find(&groups)
	for _, g := range groups {
		groupNames[g.ID] = g.Name
	}
	for i := range activities {
		activities[i].GroupName = groupNames[activities[i].GroupID]
	}
}

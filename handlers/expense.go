package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/datasciencepursuer/bubufulplanet-sub000/database"
	"github.com/datasciencepursuer/bubufulplanet-sub000/models"
	"github.com/datasciencepursuer/bubufulplanet-sub000/services"
	"github.com/datasciencepursuer/bubufulplanet-sub000/split"
	"github.com/datasciencepursuer/bubufulplanet-sub000/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errSplitTypeMismatch = errors.New("split type does not match the provided participants/line items")

// POST /api/trips/:id/expenses
func CreateExpense(c *gin.Context) {
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

	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	// Exactly one split mode may be populated
	if err := split.ValidateShape(len(req.Participants), len(req.LineItems)); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if (req.SplitType == models.SplitItemized) != (len(req.LineItems) > 0) {
		utils.BadRequest(c, errSplitTypeMismatch.Error())
		return
	}

	dayID, eventID, err := resolveExpenseAnchors(tripID, req.DayID, req.EventID)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	expenseDate := time.Now()
	if req.ExpenseDate != "" {
		if parsed, err := time.Parse(dateLayout, req.ExpenseDate); err == nil {
			expenseDate = parsed
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	expense := models.Expense{
		TripID:      tripID,
		DayID:       dayID,
		EventID:     eventID,
		PaidBy:      userID,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    currency,
		Category:    req.Category,
		SplitType:   req.SplitType,
		Notes:       req.Notes,
		ExpenseDate: expenseDate,
	}

	externalNames, err := persistExpense(&expense, trip.GroupID, req.Participants, req.LineItems)
	if err != nil {
		splitErrorResponse(c, err)
		return
	}

	go touchExternalParticipants(trip.GroupID, userID, externalNames)
	invalidateBalanceCache(tripID)

	// Log activity
	var payer models.User
	database.DB.First(&payer, userID)
	var group models.Group
	database.DB.First(&group, trip.GroupID)

	database.DB.Create(&models.Activity{
		GroupID:     trip.GroupID,
		UserID:      userID,
		Type:        "expense_added",
		ReferenceID: expense.ID,
		Description: fmt.Sprintf("%s added \"%s\" (%s %.2f)", payer.Name, expense.Description, expense.Currency, expense.Amount),
	})

	// Send notifications asynchronously
	var rows []models.ExpenseParticipant
	database.DB.Where("expense_id = ?", expense.ID).Find(&rows)
	go services.GetNotificationService().NotifyExpenseAdded(expense, rows, payer, group)

	response := buildExpenseResponse(expense.ID)
	utils.SuccessResponse(c, http.StatusCreated, "Expense added", response)
}

// GET /api/trips/:id/expenses
func GetTripExpenses(c *gin.Context) {
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

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)

	query := database.DB.Where("trip_id = ?", tripID)
	if dayID := c.Query("day_id"); dayID != "" {
		query = query.Where("day_id = ?", dayID)
	}
	if eventID := c.Query("event_id"); eventID != "" {
		query = query.Where("event_id = ?", eventID)
	}

	var expenses []models.Expense
	query.Order("expense_date DESC, created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&expenses)

	var responses []models.ExpenseResponse
	for _, e := range expenses {
		responses = append(responses, buildExpenseResponse(e.ID))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/expenses/:id
func GetExpense(c *gin.Context) {
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	response := buildExpenseResponse(expenseID)
	if response.ID == uuid.Nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", response)
}

// PUT /api/expenses/:id
//
// Edits replace the whole participant / line-item set; rows are never
// patched individually.
func UpdateExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	trip, ok := tripForMember(expense.TripID, userID)
	if !ok {
		utils.Unauthorized(c, "You are not a member of this trip's group")
		return
	}

	var req models.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	// Rebuild the split when the amount or the selection changed
	rebuild := req.Amount > 0 || len(req.Participants) > 0 || len(req.LineItems) > 0
	if rebuild {
		if err := split.ValidateShape(len(req.Participants), len(req.LineItems)); err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
	}

	updates := map[string]interface{}{}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Amount > 0 {
		updates["amount"] = req.Amount
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	if req.SplitType != "" {
		updates["split_type"] = req.SplitType
	}

	// Metadata, row deletion and row recreation commit together: a rejected
	// replacement split rolls the whole edit back and the stored expense stays
	// exactly as it was.
	var externalNames []string
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&expense).Updates(updates).Error; err != nil {
				return err
			}
		}
		if !rebuild {
			return nil
		}

		if err := tx.First(&expense, expenseID).Error; err != nil {
			return err
		}
		if (expense.SplitType == models.SplitItemized) != (len(req.LineItems) > 0) {
			return errSplitTypeMismatch
		}

		if err := deleteExpenseRows(tx, expenseID); err != nil {
			return err
		}
		names, err := createExpenseRows(tx, &expense, trip.GroupID, req.Participants, req.LineItems)
		if err != nil {
			return err
		}
		externalNames = names
		return nil
	})
	if err != nil {
		splitErrorResponse(c, err)
		return
	}

	if rebuild {
		go touchExternalParticipants(trip.GroupID, userID, externalNames)
	}

	invalidateBalanceCache(expense.TripID)

	var editor models.User
	database.DB.First(&editor, userID)
	database.DB.Create(&models.Activity{
		GroupID:     trip.GroupID,
		UserID:      userID,
		Type:        "expense_updated",
		ReferenceID: expense.ID,
		Description: fmt.Sprintf("%s updated \"%s\"", editor.Name, expense.Description),
	})

	response := buildExpenseResponse(expense.ID)
	utils.SuccessResponse(c, http.StatusOK, "Expense updated", response)
}

// DELETE /api/expenses/:id
func DeleteExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	trip, ok := tripForMember(expense.TripID, userID)
	if !ok {
		utils.Unauthorized(c, "You are not a member of this trip's group")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteExpenseRows(tx, expenseID); err != nil {
			return err
		}
		return tx.Delete(&expense).Error
	})
	if err != nil {
		utils.InternalError(c, "Failed to delete expense")
		return
	}

	invalidateBalanceCache(expense.TripID)

	var deleter models.User
	database.DB.First(&deleter, userID)
	database.DB.Create(&models.Activity{
		GroupID:     trip.GroupID,
		UserID:      userID,
		Type:        "expense_deleted",
		Description: fmt.Sprintf("%s deleted \"%s\" (%s %.2f)", deleter.Name, expense.Description, expense.Currency, expense.Amount),
	})

	utils.SuccessResponse(c, http.StatusOK, "Expense deleted", nil)
}

// persistExpense creates the expense and its split rows in one transaction.
func persistExpense(expense *models.Expense, groupID uuid.UUID, participants []models.ParticipantInput, lineItems []models.LineItemInput) ([]string, error) {
	var externalNames []string
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(expense).Error; err != nil {
			return err
		}
		names, err := createExpenseRows(tx, expense, groupID, participants, lineItems)
		if err != nil {
			return err
		}
		externalNames = names
		return nil
	})
	return externalNames, err
}

func createExpenseRows(tx *gorm.DB, expense *models.Expense, groupID uuid.UUID, participants []models.ParticipantInput, lineItems []models.LineItemInput) ([]string, error) {
	if len(lineItems) > 0 {
		return createItemizedRows(tx, expense, groupID, lineItems)
	}

	list, externalNames, err := engineList(groupID, participants, expense.SplitType == models.SplitEven)
	if err != nil {
		return nil, err
	}

	shares, err := split.Amounts(expense.Amount, list)
	if err != nil {
		return nil, err
	}

	for _, s := range shares {
		row := shareRow(s)
		row.ExpenseID = &expense.ID
		if err := tx.Create(&row).Error; err != nil {
			return nil, err
		}
	}
	return externalNames, nil
}

func createItemizedRows(tx *gorm.DB, expense *models.Expense, groupID uuid.UUID, lineItems []models.LineItemInput) ([]string, error) {
	itemAmounts := make([]float64, 0, len(lineItems))
	for _, item := range lineItems {
		itemAmounts = append(itemAmounts, item.Amount)
	}
	if err := split.CheckItemTotal(expense.Amount, itemAmounts); err != nil {
		return nil, err
	}

	var externalNames []string
	for _, item := range lineItems {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}

		lineItem := models.LineItem{
			ExpenseID:   expense.ID,
			Description: item.Description,
			Amount:      item.Amount,
			Quantity:    quantity,
			Category:    item.Category,
		}
		if err := tx.Create(&lineItem).Error; err != nil {
			return nil, err
		}

		list, names, err := engineList(groupID, item.Participants, allZeroPercentages(item.Participants))
		if err != nil {
			return nil, err
		}
		externalNames = append(externalNames, names...)

		shares, err := split.Amounts(item.Amount, list)
		if err != nil {
			return nil, err
		}

		for _, s := range shares {
			row := shareRow(s)
			row.LineItemID = &lineItem.ID
			if err := tx.Create(&row).Error; err != nil {
				return nil, err
			}
		}
	}
	return externalNames, nil
}

// engineList converts request participants into the engine's candidate list.
// With even=true the submitted percentages are ignored and an even split is
// assigned server-side.
func engineList(groupID uuid.UUID, inputs []models.ParticipantInput, even bool) ([]split.Participant, []string, error) {
	var list []split.Participant
	var externalNames []string
	seenMembers := make(map[uuid.UUID]bool)

	for _, in := range inputs {
		memberID := uuid.Nil
		if in.ParticipantID != "" {
			parsed, err := uuid.Parse(in.ParticipantID)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid participant ID: %s", in.ParticipantID)
			}
			memberID = parsed
		}

		if err := split.ValidateRef(memberID, in.ExternalName); err != nil {
			return nil, nil, err
		}

		if memberID != uuid.Nil {
			// Duplicate externals are caught by AddExternal; duplicate members
			// would silently double their debt.
			if seenMembers[memberID] {
				return nil, nil, fmt.Errorf("participant %s appears more than once", memberID)
			}
			seenMembers[memberID] = true
			if !isMember(groupID, memberID) {
				return nil, nil, fmt.Errorf("user %s is not a member of this group", memberID)
			}
			var user models.User
			database.DB.First(&user, memberID)
			p := split.Member(memberID, user.Name)
			p.Percentage = in.SplitPercentage
			list = append(list, p)
			continue
		}

		grown, err := split.AddExternal(list, in.ExternalName)
		if err != nil {
			return nil, nil, err
		}
		list = grown
		if !even {
			// AddExternal redistributes evenly; restore the submitted values
			list[len(list)-1].Percentage = in.SplitPercentage
			for i := range list[:len(list)-1] {
				list[i].Percentage = inputs[i].SplitPercentage
			}
		}
		externalNames = append(externalNames, list[len(list)-1].ExternalName)
	}

	if even {
		pct := split.EvenSplit(len(list))
		for i := range list {
			list[i].Percentage = pct
		}
	}

	return list, externalNames, nil
}

func allZeroPercentages(inputs []models.ParticipantInput) bool {
	for _, in := range inputs {
		if in.SplitPercentage != 0 {
			return false
		}
	}
	return true
}

func shareRow(s split.Share) models.ExpenseParticipant {
	row := models.ExpenseParticipant{
		ExternalName:    s.ExternalName,
		SplitPercentage: s.Percentage,
		AmountOwed:      s.Amount,
	}
	if s.MemberID != uuid.Nil {
		id := s.MemberID
		row.MemberID = &id
	}
	return row
}

// deleteExpenseRows removes an expense's participant rows and line items
// (with their own participant rows). Runs inside the caller's transaction.
func deleteExpenseRows(tx *gorm.DB, expenseID uuid.UUID) error {
	var lineItems []models.LineItem
	if err := tx.Where("expense_id = ?", expenseID).Find(&lineItems).Error; err != nil {
		return err
	}
	for _, li := range lineItems {
		if err := tx.Where("line_item_id = ?", li.ID).Delete(&models.ExpenseParticipant{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("expense_id = ?", expenseID).Delete(&models.LineItem{}).Error; err != nil {
		return err
	}
	return tx.Where("expense_id = ?", expenseID).Delete(&models.ExpenseParticipant{}).Error
}

// splitErrorResponse maps engine validation errors onto HTTP statuses.
func splitErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, split.ErrDuplicateName):
		utils.Conflict(c, err.Error())
	case errors.Is(err, split.ErrEmptySelection),
		errors.Is(err, split.ErrSplitSum),
		errors.Is(err, split.ErrLineItemSumMismatch),
		errors.Is(err, split.ErrEmptyName),
		errors.Is(err, split.ErrInvalidParticipantRef),
		errors.Is(err, split.ErrAmbiguousSplitMode):
		utils.BadRequest(c, err.Error())
	default:
		utils.BadRequest(c, err.Error())
	}
}

func resolveExpenseAnchors(tripID uuid.UUID, dayIDStr, eventIDStr string) (*uuid.UUID, *uuid.UUID, error) {
	var dayID, eventID *uuid.UUID

	if dayIDStr != "" {
		parsed, err := uuid.Parse(dayIDStr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid day ID")
		}
		var day models.TripDay
		if err := database.DB.First(&day, parsed).Error; err != nil || day.TripID != tripID {
			return nil, nil, fmt.Errorf("day does not belong to this trip")
		}
		dayID = &parsed
	}

	if eventIDStr != "" {
		parsed, err := uuid.Parse(eventIDStr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid event ID")
		}
		var event models.Event
		if err := database.DB.First(&event, parsed).Error; err != nil || event.TripID != tripID {
			return nil, nil, fmt.Errorf("event does not belong to this trip")
		}
		eventID = &parsed
		if dayID != nil && event.DayID != *dayID {
			return nil, nil, fmt.Errorf("event is not scheduled on the given day")
		}
		if dayID == nil {
			eventDay := event.DayID
			dayID = &eventDay
		}
	}

	return dayID, eventID, nil
}

// Build expense response with payer name and split details
func buildExpenseResponse(expenseID uuid.UUID) models.ExpenseResponse {
	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		return models.ExpenseResponse{}
	}

	var payer models.User
	database.DB.First(&payer, expense.PaidBy)

	response := models.ExpenseResponse{
		ID:          expense.ID,
		TripID:      expense.TripID,
		DayID:       expense.DayID,
		EventID:     expense.EventID,
		PaidBy:      expense.PaidBy,
		PayerName:   payer.Name,
		Description: expense.Description,
		Amount:      expense.Amount,
		Currency:    expense.Currency,
		Category:    expense.Category,
		SplitType:   expense.SplitType,
		Notes:       expense.Notes,
		ExpenseDate: expense.ExpenseDate,
		CreatedAt:   expense.CreatedAt,
	}

	if expense.SplitType == models.SplitItemized {
		var lineItems []models.LineItem
		database.DB.Where("expense_id = ?", expenseID).Find(&lineItems)
		for _, li := range lineItems {
			var rows []models.ExpenseParticipant
			database.DB.Where("line_item_id = ?", li.ID).Find(&rows)
			response.LineItems = append(response.LineItems, models.LineItemResponse{
				ID:           li.ID,
				Description:  li.Description,
				Amount:       li.Amount,
				Quantity:     li.Quantity,
				Category:     li.Category,
				Participants: participantResponses(rows),
			})
		}
		return response
	}

	var rows []models.ExpenseParticipant
	database.DB.Where("expense_id = ?", expenseID).Find(&rows)
	response.Participants = participantResponses(rows)
	return response
}

func participantResponses(rows []models.ExpenseParticipant) []models.ParticipantResponse {
	var out []models.ParticipantResponse
	for _, r := range rows {
		displayName := r.ExternalName
		if r.MemberID != nil {
			var user models.User
			database.DB.First(&user, *r.MemberID)
			displayName = user.Name
		}
		out = append(out, models.ParticipantResponse{
			MemberID:        r.MemberID,
			ExternalName:    r.ExternalName,
			DisplayName:     displayName,
			SplitPercentage: r.SplitPercentage,
			AmountOwed:      r.AmountOwed,
		})
	}
	return out
}

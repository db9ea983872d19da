package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/datasciencepursuer/bubufulplanet-sub000/config"
	"github.com/datasciencepursuer/bubufulplanet-sub000/database"
	"github.com/datasciencepursuer/bubufulplanet-sub000/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB points the global connection at a fresh throwaway sqlite
// database for the duration of one test. A file under t.TempDir() rather
// than :memory: so that reads outside a pending transaction see the same
// database.
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "planner.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.ExternalParticipant{},
		&models.Trip{},
		&models.TripDay{},
		&models.Event{},
		&models.Expense{},
		&models.LineItem{},
		&models.ExpenseParticipant{},
		&models.Activity{},
		&models.Invitation{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	database.DB = db
	database.Redis = nil
	config.AppConfig = &config.Config{AppName: "BubufulPlanet"}
}

type tripFixture struct {
	group models.Group
	trip  models.Trip
	payer models.User
	buddy models.User
	days  []models.TripDay
}

func seedTrip(t *testing.T) tripFixture {
	t.Helper()

	payer := models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x"}
	buddy := models.User{Name: "Ben", Email: "ben@example.com", PasswordHash: "x"}
	database.DB.Create(&payer)
	database.DB.Create(&buddy)

	group := models.Group{Name: "Beach crew", CreatedBy: payer.ID}
	database.DB.Create(&group)
	database.DB.Create(&models.GroupMember{GroupID: group.ID, UserID: payer.ID, Role: "admin"})
	database.DB.Create(&models.GroupMember{GroupID: group.ID, UserID: buddy.ID, Role: "member"})

	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	trip := models.Trip{
		GroupID:   group.ID,
		Name:      "Lisbon",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 1),
		CreatedBy: payer.ID,
	}
	database.DB.Create(&trip)

	var days []models.TripDay
	for i := 0; i < 2; i++ {
		day := models.TripDay{TripID: trip.ID, Date: start.AddDate(0, 0, i)}
		database.DB.Create(&day)
		days = append(days, day)
	}

	return tripFixture{group: group, trip: trip, payer: payer, buddy: buddy, days: days}
}

func seedEvenExpense(t *testing.T, fx tripFixture, amount float64) models.Expense {
	t.Helper()

	expense := models.Expense{
		TripID:      fx.trip.ID,
		PaidBy:      fx.payer.ID,
		Description: "Dinner",
		Amount:      amount,
		Currency:    "USD",
		SplitType:   models.SplitEven,
		ExpenseDate: fx.trip.StartDate,
	}
	participants := []models.ParticipantInput{
		{ParticipantID: fx.payer.ID.String()},
		{ParticipantID: fx.buddy.ID.String()},
	}
	if _, err := persistExpense(&expense, fx.group.ID, participants, nil); err != nil {
		t.Fatalf("seed expense: %v", err)
	}
	return expense
}

func requestContext(method string, userID, id uuid.UUID, body string) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/api/expenses/"+id.String(), strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	c.Set("user_id", userID)
	return w, c
}

func TestUpdateExpenseRollsBackRejectedSplit(t *testing.T) {
	setupTestDB(t)
	fx := seedTrip(t)
	expense := seedEvenExpense(t, fx, 100)

	// Percentages sum to 90: the replacement must be rejected and neither the
	// new amount nor the row deletion may survive.
	body := fmt.Sprintf(`{"amount":80,"split_type":"custom","participants":[{"participant_id":%q,"split_percentage":60},{"participant_id":%q,"split_percentage":30}]}`,
		fx.payer.ID.String(), fx.buddy.ID.String())
	w, c := requestContext(http.MethodPut, fx.payer.ID, expense.ID, body)
	UpdateExpense(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var reloaded models.Expense
	if err := database.DB.First(&reloaded, expense.ID).Error; err != nil {
		t.Fatalf("reload expense: %v", err)
	}
	if reloaded.Amount != 100 {
		t.Errorf("amount = %v, want 100 (metadata must roll back with the rejected split)", reloaded.Amount)
	}
	if reloaded.SplitType != models.SplitEven {
		t.Errorf("split type = %q, want %q", reloaded.SplitType, models.SplitEven)
	}

	var rows []models.ExpenseParticipant
	database.DB.Where("expense_id = ?", expense.ID).Find(&rows)
	if len(rows) != 2 {
		t.Fatalf("participant rows = %d, want the original 2", len(rows))
	}
	for _, r := range rows {
		if r.AmountOwed != 50 {
			t.Errorf("amount owed = %v, want 50", r.AmountOwed)
		}
	}
}

func TestUpdateExpenseReplacesSplitRows(t *testing.T) {
	setupTestDB(t)
	fx := seedTrip(t)
	expense := seedEvenExpense(t, fx, 100)

	body := fmt.Sprintf(`{"amount":80,"split_type":"custom","participants":[{"participant_id":%q,"split_percentage":60},{"participant_id":%q,"split_percentage":40}]}`,
		fx.payer.ID.String(), fx.buddy.ID.String())
	w, c := requestContext(http.MethodPut, fx.payer.ID, expense.ID, body)
	UpdateExpense(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var reloaded models.Expense
	database.DB.First(&reloaded, expense.ID)
	if reloaded.Amount != 80 {
		t.Errorf("amount = %v, want 80", reloaded.Amount)
	}

	var rows []models.ExpenseParticipant
	database.DB.Where("expense_id = ?", expense.ID).Find(&rows)
	if len(rows) != 2 {
		t.Fatalf("participant rows = %d, want 2", len(rows))
	}
	owedByMember := make(map[uuid.UUID]float64)
	for _, r := range rows {
		if r.MemberID != nil {
			owedByMember[*r.MemberID] = r.AmountOwed
		}
	}
	if owedByMember[fx.payer.ID] != 48 {
		t.Errorf("payer share = %v, want 48", owedByMember[fx.payer.ID])
	}
	if owedByMember[fx.buddy.ID] != 32 {
		t.Errorf("buddy share = %v, want 32", owedByMember[fx.buddy.ID])
	}
}

func TestEngineListRejectsDuplicateMember(t *testing.T) {
	setupTestDB(t)
	fx := seedTrip(t)

	inputs := []models.ParticipantInput{
		{ParticipantID: fx.payer.ID.String(), SplitPercentage: 50},
		{ParticipantID: fx.payer.ID.String(), SplitPercentage: 50},
	}
	if _, _, err := engineList(fx.group.ID, inputs, false); err == nil {
		t.Error("a member listed twice should be rejected, not double-billed")
	}
}

func TestResolveExpenseAnchorsRejectsDayEventMismatch(t *testing.T) {
	setupTestDB(t)
	fx := seedTrip(t)

	event := models.Event{
		DayID:     fx.days[0].ID,
		TripID:    fx.trip.ID,
		Title:     "Surf lesson",
		StartTime: "09:00",
		EndTime:   "11:00",
	}
	database.DB.Create(&event)

	if _, _, err := resolveExpenseAnchors(fx.trip.ID, fx.days[1].ID.String(), event.ID.String()); err == nil {
		t.Error("event anchored to a different day than day_id should be rejected")
	}

	dayID, eventID, err := resolveExpenseAnchors(fx.trip.ID, fx.days[0].ID.String(), event.ID.String())
	if err != nil {
		t.Fatalf("matching day/event pair rejected: %v", err)
	}
	if dayID == nil || *dayID != fx.days[0].ID {
		t.Errorf("day anchor = %v, want %s", dayID, fx.days[0].ID)
	}
	if eventID == nil || *eventID != event.ID {
		t.Errorf("event anchor = %v, want %s", eventID, event.ID)
	}
}

func TestDeleteExpenseCascadesRows(t *testing.T) {
	setupTestDB(t)
	fx := seedTrip(t)
	expense := seedEvenExpense(t, fx, 100)

	w, c := requestContext(http.MethodDelete, fx.payer.ID, expense.ID, "")
	DeleteExpense(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var expenseCount, rowCount int64
	database.DB.Model(&models.Expense{}).Where("id = ?", expense.ID).Count(&expenseCount)
	database.DB.Model(&models.ExpenseParticipant{}).Where("expense_id = ?", expense.ID).Count(&rowCount)
	if expenseCount != 0 || rowCount != 0 {
		t.Errorf("leftovers after delete: %d expenses, %d rows", expenseCount, rowCount)
	}

	var activityCount int64
	database.DB.Model(&models.Activity{}).Where("group_id = ? AND type = ?", fx.group.ID, "expense_deleted").Count(&activityCount)
	if activityCount != 1 {
		t.Errorf("expense_deleted activity rows = %d, want 1", activityCount)
	}
}

func TestDeleteTripCascades(t *testing.T) {
	setupTestDB(t)
	fx := seedTrip(t)

	event := models.Event{
		DayID:     fx.days[0].ID,
		TripID:    fx.trip.ID,
		Title:     "Tram tour",
		StartTime: "14:00",
		EndTime:   "16:00",
	}
	database.DB.Create(&event)
	expense := seedEvenExpense(t, fx, 60)

	w, c := requestContext(http.MethodDelete, fx.payer.ID, fx.trip.ID, "")
	DeleteTrip(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var trips, days, events, expenses, rows int64
	database.DB.Model(&models.Trip{}).Where("id = ?", fx.trip.ID).Count(&trips)
	database.DB.Model(&models.TripDay{}).Where("trip_id = ?", fx.trip.ID).Count(&days)
	database.DB.Model(&models.Event{}).Where("trip_id = ?", fx.trip.ID).Count(&events)
	database.DB.Model(&models.Expense{}).Where("trip_id = ?", fx.trip.ID).Count(&expenses)
	database.DB.Model(&models.ExpenseParticipant{}).Where("expense_id = ?", expense.ID).Count(&rows)

	if trips != 0 || days != 0 || events != 0 || expenses != 0 || rows != 0 {
		t.Errorf("leftovers after trip delete: %d trips, %d days, %d events, %d expenses, %d rows",
			trips, days, events, expenses, rows)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/datasciencepursuer/bubufulplanet-sub000/database"
	"github.com/datasciencepursuer/bubufulplanet-sub000/models"
	"github.com/datasciencepursuer/bubufulplanet-sub000/split"
	"github.com/datasciencepursuer/bubufulplanet-sub000/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const balanceCacheTTL = 5 * time.Minute

// GET /api/trips/:id/balances
func GetTripBalances(c *gin.Context) {
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

	// Balance sheets are derived data; serve a cached copy when the trip's
	// expenses haven't changed since it was computed.
	if cached, ok := cachedBalanceSummary(tripID); ok {
		utils.SuccessResponse(c, http.StatusOK, "", cached)
		return
	}

	summary := computeTripBalances(trip)
	storeBalanceSummary(tripID, summary)

	utils.SuccessResponse(c, http.StatusOK, "", summary)
}

// GET /api/balances — overall balances across all trips for current user
func GetOverallBalances(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var memberships []models.GroupMember
	database.DB.Where("user_id = ?", userID).Find(&memberships)

	friendBalances := make(map[uuid.UUID]float64)

	for _, m := range memberships {
		var trips []models.Trip
		database.DB.Where("group_id = ?", m.GroupID).Find(&trips)

		for _, trip := range trips {
			expenses, names := loadTripExpenseShares(trip.ID)
			for _, entry := range split.BalanceSheet(expenses, names) {
				if entry.MemberID != userID {
					continue
				}
				for _, pair := range entry.BalancesWith {
					friendBalances[pair.MemberID] += pair.Amount
				}
			}
		}
	}

	var totalOwed, totalOwing float64
	var friends []models.FriendBalance

	for friendID, amount := range friendBalances {
		if split.Round2(amount) == 0 {
			continue
		}

		var user models.User
		database.DB.First(&user, friendID)

		friends = append(friends, models.FriendBalance{
			UserID:    friendID,
			Name:      user.Name,
			Email:     user.Email,
			AvatarURL: user.AvatarURL,
			Amount:    split.Round2(amount),
		})

		if amount > 0 {
			totalOwed += amount
		} else {
			totalOwing += -amount
		}
	}

	summary := models.OverallBalanceSummary{
		TotalOwed:  split.Round2(totalOwed),
		TotalOwing: split.Round2(totalOwing),
		Friends:    friends,
	}

	utils.SuccessResponse(c, http.StatusOK, "", summary)
}

func computeTripBalances(trip models.Trip) models.TripBalanceSummary {
	expenses, names := loadTripExpenseShares(trip.ID)
	entries := split.BalanceSheet(expenses, names)

	balances := make([]models.BalanceEntry, 0, len(entries))
	for _, e := range entries {
		entry := models.BalanceEntry{
			MemberID:   e.MemberID,
			MemberName: e.MemberName,
			TotalOwed:  e.TotalOwed,
			TotalOwing: e.TotalOwing,
			NetBalance: e.NetBalance,
		}
		for _, p := range e.BalancesWith {
			entry.BalancesWith = append(entry.BalancesWith, models.PairBalance{
				MemberID:   p.MemberID,
				MemberName: p.MemberName,
				Amount:     p.Amount,
			})
		}
		balances = append(balances, entry)
	}

	var totalExpenses float64
	database.DB.Model(&models.Expense{}).Where("trip_id = ?", trip.ID).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalExpenses)

	return models.TripBalanceSummary{
		TripID:        trip.ID,
		TripName:      trip.Name,
		Balances:      balances,
		TotalExpenses: totalExpenses,
	}
}

// loadTripExpenseShares converts a trip's stored expenses into the engine's
// balance input: direct participant rows for split expenses, aggregated
// line-item rows for itemized ones.
func loadTripExpenseShares(tripID uuid.UUID) ([]split.ExpenseShares, map[uuid.UUID]string) {
	var expenses []models.Expense
	database.DB.Where("trip_id = ?", tripID).Find(&expenses)

	names := make(map[uuid.UUID]string)
	resolveName := func(id uuid.UUID) {
		if _, ok := names[id]; ok {
			return
		}
		var user models.User
		if err := database.DB.First(&user, id).Error; err == nil {
			names[id] = user.Name
		}
	}

	out := make([]split.ExpenseShares, 0, len(expenses))
	for _, exp := range expenses {
		resolveName(exp.PaidBy)

		var shares []split.Share
		if exp.SplitType == models.SplitItemized {
			var lineItems []models.LineItem
			database.DB.Where("expense_id = ?", exp.ID).Find(&lineItems)

			items := make([][]split.Share, 0, len(lineItems))
			for _, li := range lineItems {
				var rows []models.ExpenseParticipant
				database.DB.Where("line_item_id = ?", li.ID).Find(&rows)
				items = append(items, rowShares(rows, resolveName))
			}
			shares = split.AggregateItems(items)
		} else {
			var rows []models.ExpenseParticipant
			database.DB.Where("expense_id = ?", exp.ID).Find(&rows)
			shares = rowShares(rows, resolveName)
		}

		out = append(out, split.ExpenseShares{PayerID: exp.PaidBy, Shares: shares})
	}

	return out, names
}

func rowShares(rows []models.ExpenseParticipant, resolveName func(uuid.UUID)) []split.Share {
	shares := make([]split.Share, 0, len(rows))
	for _, r := range rows {
		s := split.Share{
			ExternalName: r.ExternalName,
			Percentage:   r.SplitPercentage,
			Amount:       r.AmountOwed,
		}
		if r.MemberID != nil {
			s.MemberID = *r.MemberID
			resolveName(s.MemberID)
		}
		shares = append(shares, s)
	}
	return shares
}

func balanceCacheKey(tripID uuid.UUID) string {
	return fmt.Sprintf("balances:trip:%s", tripID)
}

func cachedBalanceSummary(tripID uuid.UUID) (models.TripBalanceSummary, bool) {
	var summary models.TripBalanceSummary
	if database.Redis == nil {
		return summary, false
	}

	raw, err := database.Redis.Get(context.Background(), balanceCacheKey(tripID)).Result()
	if err != nil {
		return summary, false
	}
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return summary, false
	}
	return summary, true
}

func storeBalanceSummary(tripID uuid.UUID, summary models.TripBalanceSummary) {
	if database.Redis == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	database.Redis.Set(context.Background(), balanceCacheKey(tripID), raw, balanceCacheTTL)
}

// invalidateBalanceCache drops the cached sheet after any expense write.
func invalidateBalanceCache(tripID uuid.UUID) {
	if database.Redis == nil {
		return
	}
	database.Redis.Del(context.Background(), balanceCacheKey(tripID))
}

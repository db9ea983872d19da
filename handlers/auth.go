package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/datasciencepursuer/bubufulplanet-sub000/database"
	"github.com/datasciencepursuer/bubufulplanet-sub000/models"
	"github.com/datasciencepursuer/bubufulplanet-sub000/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
	Currency string `json:"currency"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// POST /auth/register
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var existingUser models.User
	if err := database.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		utils.Conflict(c, "Email already registered")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.InternalError(c, "Failed to hash password")
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hashedPassword),
		Currency:     normalizeCurrency(req.Currency),
	}

	if err := database.DB.Create(&user).Error; err != nil {
		utils.InternalError(c, "Failed to create user")
		return
	}

	// Anyone who invited this address to a group gets their invite honored now
	go acceptPendingInvitations(user)

	token, err := utils.GenerateToken(user.ID, user.Email)
	if err != nil {
		utils.InternalError(c, "Failed to generate token")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Registration successful", AuthResponse{
		Token: token,
		User:  user.ToResponse(),
	})
}

// POST /auth/login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email)
	if err != nil {
		utils.InternalError(c, "Failed to generate token")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", AuthResponse{
		Token: token,
		User:  user.ToResponse(),
	})
}

// normalizeCurrency uppercases a submitted display currency and falls back to
// USD for anything that isn't a 3-letter code.
func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "USD"
	}
	return code
}

// acceptPendingInvitations joins the new user into every group that holds a
// live invitation for their address. Expired invitations stay pending and
// are simply skipped.
func acceptPendingInvitations(user models.User) {
	var invitations []models.Invitation
	database.DB.Where("(email = ? OR phone = ?) AND status = ? AND expires_at > ?",
		user.Email, user.Phone, "pending", time.Now()).Find(&invitations)

	for _, inv := range invitations {
		var existing models.GroupMember
		if err := database.DB.Where("group_id = ? AND user_id = ?", inv.GroupID, user.ID).First(&existing).Error; err != nil {
			database.DB.Create(&models.GroupMember{
				GroupID: inv.GroupID,
				UserID:  user.ID,
				Role:    "member",
			})
		}

		database.DB.Model(&inv).Update("status", "accepted")

		var group models.Group
		database.DB.First(&group, inv.GroupID)
		database.DB.Create(&models.Activity{
			GroupID:     inv.GroupID,
			UserID:      user.ID,
			Type:        "member_joined",
			Description: user.Name + " joined " + group.Name + " by invitation",
		})
	}
}

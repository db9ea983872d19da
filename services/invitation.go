package services

import (
	"log"
	"time"

	"github.com/datasciencepursuer/bubufulplanet-sub000/database"
	"github.com/datasciencepursuer/bubufulplanet-sub000/models"

	"github.com/google/uuid"
)

// Pending invitations stay actionable this long; after that the address can
// be invited again.
const invitationTTL = 14 * 24 * time.Hour

// InviteToGroup invites someone to a planning group by email or phone.
// Already-registered users are added as members immediately and notified;
// everyone else gets a pending invitation that registration auto-accepts.
func InviteToGroup(groupID uuid.UUID, invitedBy uuid.UUID, email string, phone string) {
	var group models.Group
	if err := database.DB.First(&group, groupID).Error; err != nil {
		log.Printf("❌ Invitation for unknown group %s: %v", groupID, err)
		return
	}
	var inviter models.User
	database.DB.First(&inviter, invitedBy)

	// Registered users skip the invitation flow entirely.
	if email != "" {
		var user models.User
		if err := database.DB.Where("email = ?", email).First(&user).Error; err == nil {
			addInvitedMember(group, inviter, user)
			return
		}
	}

	// One live pending invitation per address and group.
	pending := database.DB.Where("group_id = ? AND status = ? AND expires_at > ?", groupID, "pending", time.Now())
	if email != "" {
		pending = pending.Where("email = ?", email)
	} else {
		pending = pending.Where("phone = ?", phone)
	}
	var existing models.Invitation
	if err := pending.First(&existing).Error; err == nil {
		log.Printf("⚠️  Pending invitation already exists for %s/%s in group %q", email, phone, group.Name)
		return
	}

	invitation := models.Invitation{
		GroupID:   groupID,
		InvitedBy: invitedBy,
		Email:     email,
		Phone:     phone,
		Status:    "pending",
		ExpiresAt: time.Now().Add(invitationTTL),
	}
	if err := database.DB.Create(&invitation).Error; err != nil {
		log.Printf("❌ Failed to create invitation: %v", err)
		return
	}

	if email != "" {
		GetNotificationService().NotifyInvitation(email, inviter.Name, group.Name)
	}

	log.Printf("✅ Invitation to %q sent for %s/%s", group.Name, email, phone)
}

// addInvitedMember adds an already-registered invitee directly to the group
// and tells them about it.
func addInvitedMember(group models.Group, inviter models.User, user models.User) {
	var existing models.GroupMember
	if err := database.DB.Where("group_id = ? AND user_id = ?", group.ID, user.ID).First(&existing).Error; err == nil {
		return
	}

	database.DB.Create(&models.GroupMember{
		GroupID: group.ID,
		UserID:  user.ID,
		Role:    "member",
	})
	GetNotificationService().NotifyMemberAdded(group, inviter, user)

	log.Printf("✅ Added %s to %q by invitation", user.Email, group.Name)
}

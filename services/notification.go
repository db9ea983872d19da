package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"sync"

	"github.com/datasciencepursuer/bubufulplanet-sub000/config"
	"github.com/datasciencepursuer/bubufulplanet-sub000/database"
	"github.com/datasciencepursuer/bubufulplanet-sub000/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"google.golang.org/api/option"
)

type NotificationService struct {
	fcm *messaging.Client
}

var (
	notifService *NotificationService
	notifOnce    sync.Once
)

func GetNotificationService() *NotificationService {
	notifOnce.Do(func() {
		notifService = &NotificationService{fcm: newMessagingClient()}
	})
	return notifService
}

// newMessagingClient initializes the Firebase Admin SDK. Missing or invalid
// credentials degrade to push-less operation instead of failing the boot.
func newMessagingClient() *messaging.Client {
	ctx := context.Background()

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(config.AppConfig.FirebaseCredPath))
	if err != nil {
		log.Printf("⚠️  Firebase not configured, running without push notifications: %v", err)
		return nil
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("⚠️  Firebase messaging unavailable: %v", err)
		return nil
	}

	log.Println("✅ Firebase messaging initialized")
	return client
}

// ============================================================
// PUSH NOTIFICATIONS via Firebase Cloud Messaging
// ============================================================

func (ns *NotificationService) sendPush(fcmToken string, title string, body string, data map[string]string) {
	if ns.fcm == nil || fcmToken == "" {
		return
	}

	msg := &messaging.Message{
		Token: fcmToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := ns.fcm.Send(context.Background(), msg); err != nil {
		log.Printf("❌ FCM send error: %v", err)
		return
	}

	log.Printf("✅ Push notification sent: %s", title)
}

// ============================================================
// EMAIL NOTIFICATIONS via SendGrid
// ============================================================

func (ns *NotificationService) sendEmail(toEmail string, toName string, subject string, htmlBody string) {
	if config.AppConfig.SendGridAPIKey == "" {
		log.Printf("⚠️  SendGrid API key not set, skipping email to %s", toEmail)
		return
	}

	from := mail.NewEmail(config.AppConfig.AppName, config.AppConfig.SendGridFrom)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("❌ Email send error: %v", err)
		return
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.Printf("✅ Email sent to %s", toEmail)
	} else {
		log.Printf("⚠️  SendGrid returned status: %d", resp.StatusCode)
	}
}

// ============================================================
// NOTIFICATION EVENTS
// ============================================================

// NotifyExpenseAdded sends push + email to every registered member in the
// split. External participants have no account and receive nothing.
func (ns *NotificationService) NotifyExpenseAdded(expense models.Expense, rows []models.ExpenseParticipant, payer models.User, group models.Group) {
	for _, row := range rows {
		if row.MemberID == nil || *row.MemberID == expense.PaidBy {
			continue
		}

		var user models.User
		if err := database.DB.First(&user, *row.MemberID).Error; err != nil {
			continue
		}

		title := fmt.Sprintf("%s added an expense", payer.Name)
		body := fmt.Sprintf("You owe %s %.2f for \"%s\" in %s", expense.Currency, row.AmountOwed, expense.Description, group.Name)

		ns.sendPush(user.FCMToken, title, body, map[string]string{
			"type":       "expense_added",
			"expense_id": expense.ID.String(),
			"trip_id":    expense.TripID.String(),
		})

		htmlBody := buildExpenseEmailHTML(payer.Name, user.Name, expense.Description, expense.Amount, row.AmountOwed, expense.Currency, group.Name)
		ns.sendEmail(user.Email, user.Name, fmt.Sprintf("%s added \"%s\" in %s", payer.Name, expense.Description, group.Name), htmlBody)
	}
}

// NotifyMemberAdded sends push + email to the newly added member
func (ns *NotificationService) NotifyMemberAdded(group models.Group, adder models.User, newMember models.User) {
	title := fmt.Sprintf("You were added to \"%s\"", group.Name)
	body := fmt.Sprintf("%s added you to the group \"%s\"", adder.Name, group.Name)

	ns.sendPush(newMember.FCMToken, title, body, map[string]string{
		"type":     "member_added",
		"group_id": group.ID.String(),
	})

	htmlBody := buildMemberAddedEmailHTML(adder.Name, newMember.Name, group.Name)
	ns.sendEmail(newMember.Email, newMember.Name, title, htmlBody)
}

// NotifyInvitation sends email to non-registered users
func (ns *NotificationService) NotifyInvitation(email string, inviterName string, groupName string) {
	subject := fmt.Sprintf("%s invited you to join \"%s\" on %s", inviterName, groupName, config.AppConfig.AppName)
	htmlBody := buildInvitationEmailHTML(inviterName, groupName)
	ns.sendEmail(email, "", subject, htmlBody)
}

// ============================================================
// EMAIL TEMPLATES
// ============================================================

func buildExpenseEmailHTML(payerName, userName, description string, totalAmount, owedAmount float64, currency, groupName string) string {
	tmpl := `
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #2E86AB; margin-top: 0;">💰 New Expense Added</h2>
		<p>Hi <strong>{{.UserName}}</strong>,</p>
		<p><strong>{{.PayerName}}</strong> added a new expense in <strong>{{.GroupName}}</strong>:</p>
		<div style="background: #f8f9fa; border-radius: 8px; padding: 16px; margin: 16px 0;">
			<p style="margin: 4px 0; font-size: 18px;"><strong>{{.Description}}</strong></p>
			<p style="margin: 4px 0; color: #666;">Total: {{.Currency}} {{printf "%.2f" .TotalAmount}}</p>
			<p style="margin: 4px 0; color: #e53e3e; font-size: 18px;"><strong>Your share: {{.Currency}} {{printf "%.2f" .OwedAmount}}</strong></p>
		</div>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">— {{.AppName}}</p>
	</div>
</body>
</html>`

	t, _ := template.New("expense").Parse(tmpl)
	var buf bytes.Buffer
	t.Execute(&buf, map[string]interface{}{
		"PayerName":   payerName,
		"UserName":    userName,
		"Description": description,
		"TotalAmount": totalAmount,
		"OwedAmount":  owedAmount,
		"Currency":    currency,
		"GroupName":   groupName,
		"AppName":     config.AppConfig.AppName,
	})
	return buf.String()
}

func buildMemberAddedEmailHTML(adderName, memberName, groupName string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #2E86AB; margin-top: 0;">👋 You've been added to a group!</h2>
		<p>Hi <strong>%s</strong>,</p>
		<p><strong>%s</strong> added you to the group <strong>"%s"</strong>.</p>
		<p>Open the app to start planning trips and splitting expenses with your group!</p>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">— %s</p>
	</div>
</body>
</html>`, memberName, adderName, groupName, config.AppConfig.AppName)
}

func buildInvitationEmailHTML(inviterName, groupName string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5;">
	<div style="background: white; border-radius: 12px; padding: 32px; box-shadow: 0 2px 8px rgba(0,0,0,0.1);">
		<h2 style="color: #2E86AB; margin-top: 0;">🎉 You're invited!</h2>
		<p><strong>%s</strong> invited you to join <strong>"%s"</strong> on %s.</p>
		<p>%s makes it easy to plan group vacations and split trip expenses with your travel companions.</p>
		<div style="margin: 24px 0;">
			<a href="%s" style="background: #2E86AB; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none; font-weight: bold;">Join Now</a>
		</div>
		<p style="color: #999; font-size: 12px; margin-top: 24px;">— %s</p>
	</div>
</body>
</html>`, inviterName, groupName, config.AppConfig.AppName, config.AppConfig.AppName, config.AppConfig.AppURL, config.AppConfig.AppName)
}

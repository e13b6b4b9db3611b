package services

import (
	"fmt"
	"os"

	"studyhub/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_NOTIFICATIONS_FROM_EMAIL")
	fromName := os.Getenv("SENDGRID_FROM_NAME")

	client := sendgrid.NewSendClient(apiKey)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *EmailService) send(message *mail.SGMailV3) error {
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected email: status %d", response.StatusCode)
	}
	return nil
}

// SendSessionReminder emails the owner of an upcoming study session.
// leadLabel is the human-readable threshold ("15 minutes", "1 hour", "1 day").
func (s *EmailService) SendSessionReminder(toEmail, toName string, session models.StudySession, leadLabel string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)

	var subject string
	if leadLabel == "1 day" {
		subject = fmt.Sprintf("Reminder: %s is tomorrow", session.Title)
	} else {
		subject = fmt.Sprintf("Reminder: %s starts in %s", session.Title, leadLabel)
	}

	when := session.ScheduledStart.Format("Mon Jan 2, 3:04 PM")
	plainContent := fmt.Sprintf("Hello %s, your study session %s starts in %s (at %s). Time to get ready!",
		toName, session.Title, leadLabel, when)
	htmlContent := fmt.Sprintf("<p>Hello %s,</p><p>Your study session <strong>%s</strong> starts in %s (at %s).</p><p>Time to get ready!</p>",
		toName, session.Title, leadLabel, when)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	return s.send(message)
}

// SendJoinRequestEmail notifies a group organiser of a new join request
func (s *EmailService) SendJoinRequestEmail(organiserEmail, organiserName, requesterName, groupName string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(organiserName, organiserEmail)
	subject := fmt.Sprintf("New join request for %s", groupName)
	plainContent := fmt.Sprintf("%s has asked to join your study group '%s'", requesterName, groupName)
	htmlContent := fmt.Sprintf("<p>%s has asked to join your study group '<strong>%s</strong>'</p>", requesterName, groupName)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	return s.send(message)
}

// SendJoinApprovalEmail notifies a user their join request was approved
func (s *EmailService) SendJoinApprovalEmail(userEmail, userName, groupName string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(userName, userEmail)
	subject := fmt.Sprintf("You're in! Join request for %s approved", groupName)
	plainContent := fmt.Sprintf("Your request to join '%s' has been approved. See you at the next session!", groupName)
	htmlContent := fmt.Sprintf("<p>Good news! Your request to join '<strong>%s</strong>' has been approved.</p><p>See you at the next session!</p>", groupName)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	return s.send(message)
}

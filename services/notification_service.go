package services

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"ip-review-api/config"
	"ip-review-api/models"
)

var notifyLog = config.Logger("notify")

const (
	EventSuggestionProposed = "suggestion_proposed"
	EventSuggestionAccepted = "suggestion_accepted"
	EventSuggestionRejected = "suggestion_rejected"
	EventStatusUpdate       = "status_update"
)

// DecisionEventKey names the event fired for a review decision.
func DecisionEventKey(d models.Decision) string {
	return "decision_" + string(d)
}

type messageTemplate struct {
	Title string
	Body  string
}

var messageTemplates = map[string]messageTemplate{
	EventSuggestionProposed: {
		Title: "Suggested change on {{application_title}}",
		Body:  "A {{author_role}} proposed a new value for \"{{field}}\". Please accept or reject it.",
	},
	EventSuggestionAccepted: {
		Title: "Suggestion accepted on {{application_title}}",
		Body:  "Your suggestion for \"{{field}}\" was accepted. Note: {{note}}",
	},
	EventSuggestionRejected: {
		Title: "Suggestion rejected on {{application_title}}",
		Body:  "Your suggestion for \"{{field}}\" was rejected. Note: {{note}}",
	},
	EventStatusUpdate: {
		Title: "[{{priority}}] Update on {{application_title}}",
		Body:  "{{message}}",
	},
	DecisionEventKey(models.DecisionApproved): {
		Title: "{{application_title}} passed {{stage}}",
		Body:  "The {{reviewer_role}} approved your application. It is now in {{new_stage}}. Comments: {{comments}}",
	},
	DecisionEventKey(models.DecisionChangesRequired): {
		Title: "Changes requested on {{application_title}}",
		Body:  "The {{reviewer_role}} requested changes during {{stage}}. Please review the suggestions and resubmit. Comments: {{comments}}",
	},
	DecisionEventKey(models.DecisionApprove): {
		Title: "{{application_title}} approved",
		Body:  "The dean approved your application. Comments: {{comments}}",
	},
	DecisionEventKey(models.DecisionReject): {
		Title: "{{application_title}} rejected",
		Body:  "The dean rejected your application. Comments: {{comments}}",
	},
}

func applyTemplatePlaceholders(text string, data map[string]string) string {
	result := text
	for key, value := range data {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

func renderMessage(eventKey string, data map[string]string) (string, string, error) {
	tmpl, ok := messageTemplates[eventKey]
	if !ok {
		return "", "", fmt.Errorf("notification template missing for event %s", eventKey)
	}
	return applyTemplatePlaceholders(tmpl.Title, data), applyTemplatePlaceholders(tmpl.Body, data), nil
}

func buildFormalEmailHTML(subject, message, link string) string {
	escapedSubject := template.HTMLEscapeString(subject)
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	linkHTML := ""
	if link != "" {
		linkHTML = fmt.Sprintf(`
    <p style="margin:16px 0 0;font-size:14px;"><a href="%s" style="color:#2563eb;">Open the application</a></p>`,
			template.HTMLEscapeString(link))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px;">
    <p style="margin:0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>%s
  </div>
</div>
</body>
</html>`, escapedSubject, escapedMessage, linkHTML)
}

func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}

// MailSender delivers one HTML e-mail. config.Mailer satisfies it.
type MailSender interface {
	SendMail(to []string, subject, html string) error
}

// Recipients are the resolved addressees of a notification.
type Recipients struct {
	UserIDs []string
	Emails  []string
	// InventorEmails have no account and only get the e-mail and an
	// e-mail-addressed in-app row.
	InventorEmails []string
}

// RecipientDirectory turns notify flags into concrete recipients.
type RecipientDirectory interface {
	Resolve(ctx context.Context, req NotificationRequest) (Recipients, error)
}

// ApplicationDirectory resolves recipients from the application owner and
// its inventor list.
type ApplicationDirectory struct{ db *gorm.DB }

func NewApplicationDirectory(db *gorm.DB) *ApplicationDirectory {
	return &ApplicationDirectory{db: db}
}

func (d *ApplicationDirectory) Resolve(ctx context.Context, req NotificationRequest) (Recipients, error) {
	var out Recipients
	out.UserIDs = append(out.UserIDs, req.UserIDs...)
	if !req.NotifyApplicant && !req.NotifyInventors {
		return out, nil
	}

	app, err := NewApplicationStore(d.db).Get(ctx, req.ApplicationID)
	if err != nil {
		return Recipients{}, err
	}
	if req.NotifyApplicant {
		if app.OwnerID != "" {
			out.UserIDs = append(out.UserIDs, app.OwnerID)
		}
		if app.ApplicantEmail != "" {
			out.Emails = append(out.Emails, app.ApplicantEmail)
		}
	}
	if req.NotifyInventors {
		for _, inv := range app.Inventors {
			if inv.Email != "" {
				out.InventorEmails = append(out.InventorEmails, inv.Email)
			}
		}
	}
	out.UserIDs = uniqueStrings(out.UserIDs)
	out.Emails = uniqueStrings(out.Emails)
	out.InventorEmails = uniqueStrings(out.InventorEmails)
	return out, nil
}

// Dispatcher records in-app notifications and sends e-mail on a background
// goroutine. Failures are logged and never reach the caller.
type Dispatcher struct {
	db        *gorm.DB
	mailer    MailSender
	directory RecipientDirectory
	baseURL   string
	wg        sync.WaitGroup
}

// NewDispatcher builds a dispatcher. A non-empty appBaseURL adds a link to
// the application in every e-mail.
func NewDispatcher(db *gorm.DB, mailer MailSender, directory RecipientDirectory, appBaseURL string) *Dispatcher {
	if db == nil {
		db = config.DB
	}
	if directory == nil {
		directory = NewApplicationDirectory(db)
	}
	return &Dispatcher{db: db, mailer: mailer, directory: directory, baseURL: strings.TrimRight(strings.TrimSpace(appBaseURL), "/")}
}

func (d *Dispatcher) Notify(ctx context.Context, req NotificationRequest) {
	ctx = persistentContext(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				notifyLog.Printf("panic delivering %s for application=%s: %v", req.EventKey, req.ApplicationID, r)
			}
		}()
		if err := d.Deliver(ctx, req); err != nil {
			notifyLog.Printf("delivery of %s for application=%s failed: %v", req.EventKey, req.ApplicationID, err)
		}
	}()
}

// Wait blocks until every in-flight delivery finished. Used on shutdown.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Deliver performs one delivery synchronously.
func (d *Dispatcher) Deliver(ctx context.Context, req NotificationRequest) error {
	title, body, err := renderMessage(req.EventKey, req.Data)
	if err != nil {
		return err
	}
	recipients, err := d.directory.Resolve(ctx, req)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}

	now := time.Now()
	rows := make([]models.Notification, 0, len(recipients.UserIDs)+len(recipients.InventorEmails))
	for _, id := range recipients.UserIDs {
		rows = append(rows, models.Notification{UserID: &id, ApplicationID: req.ApplicationID, EventKey: req.EventKey, Title: title, Message: body, CreatedAt: now})
	}
	for _, email := range recipients.InventorEmails {
		rows = append(rows, models.Notification{Email: &email, ApplicationID: req.ApplicationID, EventKey: req.EventKey, Title: title, Message: body, CreatedAt: now})
	}
	if len(rows) > 0 {
		if err := d.db.WithContext(ctx).Create(&rows).Error; err != nil {
			return fmt.Errorf("record notifications: %w", err)
		}
	}

	to := uniqueStrings(append(append([]string{}, recipients.Emails...), recipients.InventorEmails...))
	if len(to) == 0 || d.mailer == nil {
		return nil
	}
	if err := d.mailer.SendMail(to, title, buildFormalEmailHTML(title, body, d.applicationLink(req.ApplicationID))); err != nil {
		return fmt.Errorf("send mail (subject=%q to=%v): %w", title, to, err)
	}
	return nil
}

func (d *Dispatcher) applicationLink(applicationID string) string {
	if d.baseURL == "" || applicationID == "" {
		return ""
	}
	return d.baseURL + "/applications/" + url.PathEscape(applicationID)
}

// NotificationService serves the in-app notification inbox.
type NotificationService struct{ db *gorm.DB }

func NewNotificationService(db *gorm.DB) *NotificationService {
	if db == nil {
		db = config.DB
	}
	return &NotificationService{db: db}
}

func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var items []models.Notification
	if err := q.Order("notification_id DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	return items, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID string, notificationID uint) error {
	var n models.Notification
	err := s.db.WithContext(ctx).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError("notification", fmt.Sprint(notificationID))
	}
	if err != nil {
		return fmt.Errorf("load notification: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

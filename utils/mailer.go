package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail (welcome notes, deadline reminders)
// over SMTP. A zero-host configuration disables sending.
type Mailer struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
}

func NewMailer(host string, port int, username, password, fromEmail, fromName string) *Mailer {
	return &Mailer{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// Enabled reports whether SMTP is configured.
func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

// Embedded email templates
var emailTemplates = map[string]string{
	"welcome": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Welcome to VisionDesk</h2>
    </div>

    <div class="content">
        <p>Hello {{.Name}},</p>
        <p>Your VisionDesk account has been created. You can now log in and
        track the projects and tasks that are visible to you.</p>
    </div>

    <div class="footer">
        <p>&copy; {{.Year}} VisionDesk. All rights reserved.</p>
    </div>
</body>
</html>`,

	"deadline_reminder": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .deadline { font-size: 18px; font-weight: bold; color: #e74c3c; margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Task Deadline Reminder</h2>
    </div>

    <div class="content">
        <p>Hello {{.Name}},</p>
        <p>Your task <strong>{{.TaskTitle}}</strong> is {{.DeadlineState}}.</p>

        <div class="deadline">Deadline: {{.Deadline}}</div>

        <p>Current progress: {{.Progress}}%. Please update the task status
        once you have made progress.</p>
    </div>

    <div class="footer">
        <p>&copy; {{.Year}} VisionDesk. All rights reserved.</p>
    </div>
</body>
</html>`,
}

// SendWelcomeEmail greets a freshly registered user.
func (m *Mailer) SendWelcomeEmail(to, name string) error {
	return m.send(to, "Welcome to VisionDesk", "welcome", map[string]interface{}{
		"Subject": "Welcome to VisionDesk",
		"Name":    name,
		"Year":    time.Now().Year(),
	})
}

// SendDeadlineReminder notifies an assignee about a due or overdue task.
func (m *Mailer) SendDeadlineReminder(to, name, taskTitle, deadlineState string, deadline time.Time, progress int) error {
	subject := fmt.Sprintf("Reminder: task %q is %s", taskTitle, deadlineState)
	return m.send(to, subject, "deadline_reminder", map[string]interface{}{
		"Subject":       subject,
		"Name":          name,
		"TaskTitle":     taskTitle,
		"DeadlineState": deadlineState,
		"Deadline":      deadline.Format("Mon, 02 Jan 2006"),
		"Progress":      progress,
		"Year":          time.Now().Year(),
	})
}

func (m *Mailer) send(to, subject, templateName string, data interface{}) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer not configured")
	}

	tmplText, ok := emailTemplates[templateName]
	if !ok {
		return fmt.Errorf("unknown email template %q", templateName)
	}

	tmpl, err := template.New(templateName).Parse(tmplText)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	d := gomail.NewDialer(m.host, m.port, m.username, m.password)
	return d.DialAndSend(msg)
}

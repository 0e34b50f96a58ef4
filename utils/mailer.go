package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"

	"boardly/config"
)

type EmailData struct {
	Subject   string
	To        []string
	CC        []string
	BCC       []string
	Template  string
	Data      interface{}
	Year      int
	FromName  string
	FromEmail string
}

// Embedded email templates
var emailTemplates = map[string]string{
	"verify_code": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .code { font-size: 24px; font-weight: bold; color: #3498db; margin: 20px 0; text-align: center; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Your Verification Code</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>Here is your one-time verification code:</p>

        <div class="code">{{.Code}}</div>

        <p>This code will expire in 15 minutes. Please don't share this code with anyone.</p>
    </div>

    <div class="footer">
        <p>If you didn't request this code, you can safely ignore this email.</p>
        <p>© {{.Year}} boardly. All rights reserved.</p>
    </div>
</body>
</html>`,

	"invitation": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .button { display: inline-block; padding: 10px 20px; background-color: #3498db; color: white; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>You've been invited to {{.WorkspaceName}}</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>{{.InviterName}} invited you to join the workspace <strong>{{.WorkspaceName}}</strong> as a {{.Role}}.</p>

        <p style="text-align: center;">
            <a href="{{.InviteLink}}" class="button">Accept Invitation</a>
        </p>

        <p>This invitation will expire in 72 hours.</p>

        <p>Or copy and paste this link into your browser:<br>
        <small>{{.InviteLink}}</small></p>
    </div>

    <div class="footer">
        <p>If you weren't expecting this invitation, you can safely ignore this email.</p>
        <p>© {{.Year}} boardly. All rights reserved.</p>
    </div>
</body>
</html>`,
}

func SendEmail(data EmailData) error {
	// Set default from email if not provided
	if data.FromEmail == "" {
		data.FromEmail = config.AppConfig.FromEmail
	}
	if data.FromName == "" {
		data.FromName = "boardly"
	}
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}

	// Get template from embedded templates
	tmplContent, ok := emailTemplates[data.Template]
	if !ok {
		return fmt.Errorf("template '%s' not found", data.Template)
	}

	tmpl, err := template.New("email").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("error parsing template: %v", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data.Data); err != nil {
		return fmt.Errorf("error executing template: %v", err)
	}

	smtpPort, err := strconv.Atoi(config.AppConfig.SMTPPort)
	if err != nil {
		return fmt.Errorf("invalid SMTP_PORT: %v", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", data.FromName, data.FromEmail))
	m.SetHeader("To", data.To...)
	if len(data.CC) > 0 {
		m.SetHeader("Cc", data.CC...)
	}
	if len(data.BCC) > 0 {
		m.SetHeader("Bcc", data.BCC...)
	}
	m.SetHeader("Subject", data.Subject)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(
		config.AppConfig.SMTPHost,
		smtpPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
	)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}

	return nil
}

func SendVerifyCodeEmail(email, code string) error {
	data := EmailData{
		Subject:  "Your Verification Code",
		To:       []string{email},
		Template: "verify_code",
		Year:     time.Now().Year(),
		Data: struct {
			Subject string
			Code    string
			Year    int
		}{
			Subject: "Your Verification Code",
			Code:    code,
			Year:    time.Now().Year(),
		},
	}

	return SendEmail(data)
}

func SendInvitationEmail(email, inviterName, workspaceName, role, token string) error {
	inviteLink := fmt.Sprintf("%s/invitations/accept?token=%s", config.AppConfig.AppURL, token)
	subject := fmt.Sprintf("Invitation to join %s", workspaceName)
	data := EmailData{
		Subject:  subject,
		To:       []string{email},
		Template: "invitation",
		Data: struct {
			Subject       string
			InviterName   string
			WorkspaceName string
			Role          string
			InviteLink    string
			Year          int
		}{
			Subject:       subject,
			InviterName:   inviterName,
			WorkspaceName: workspaceName,
			Role:          role,
			InviteLink:    inviteLink,
			Year:          time.Now().Year(),
		},
	}

	return SendEmail(data)
}

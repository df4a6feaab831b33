// internal/email/sender.go
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"samudaya.club/internal/config"
)

// SendEmail sends a message, optionally rendered from an HTML template in
// templates/emails. When SMTP is unconfigured in development the send is
// logged and skipped.
func SendEmail(appCfg *config.Config, to, subject, bodyContent string, bodyIsHTML bool, templateName string, templateData interface{}) error {
	if appCfg.Email.SMTPhost == "" || appCfg.Email.Sender == "" {
		slog.Warn("SMTP host or sender not configured, pseudo-sending email.", "to", to, "subject", subject)
		if appCfg.AppEnv != "development" {
			return fmt.Errorf("SMTP host or sender not configured")
		}
		return nil
	}

	auth := smtp.PlainAuth("", appCfg.Email.SMTPuser, appCfg.Email.SMTPpassword, appCfg.Email.SMTPhost)
	addr := fmt.Sprintf("%s:%d", appCfg.Email.SMTPhost, appCfg.Email.SMTPport)

	var finalBody bytes.Buffer
	finalContentType := "text/plain; charset=\"UTF-8\""

	if bodyIsHTML && templateName != "" {
		_, currentFilePath, _, ok := runtime.Caller(0)
		var basePath string
		if ok {
			projectRoot := filepath.Join(filepath.Dir(currentFilePath), "..", "..")
			basePath = filepath.Join(projectRoot, "templates", "emails")
		} else {
			basePath = filepath.Join("templates", "emails")
		}
		tplPath := filepath.Join(basePath, templateName)

		if _, errStat := os.Stat(tplPath); os.IsNotExist(errStat) {
			slog.Error("Email template not found", "path", tplPath, "error", errStat)
			finalBody.WriteString(bodyContent)
		} else {
			tpl, err := template.New(filepath.Base(tplPath)).ParseFiles(tplPath)
			if err != nil {
				slog.Error("Failed to parse email template", "template", templateName, "error", err)
				finalBody.WriteString(bodyContent)
			} else {
				if err := tpl.Execute(&finalBody, templateData); err != nil {
					slog.Error("Failed to execute email template", "template", templateName, "error", err)
					finalBody.Reset()
					finalBody.WriteString(bodyContent)
				} else {
					finalContentType = "text/html; charset=\"UTF-8\""
				}
			}
		}
	} else {
		finalBody.WriteString(bodyContent)
	}

	headers := make(map[string]string)
	headers["From"] = appCfg.Email.Sender
	headers["To"] = to
	headers["Subject"] = subject
	headers["MIME-version"] = "1.0"
	headers["Content-Type"] = finalContentType

	var msgBuilder strings.Builder
	for k, v := range headers {
		msgBuilder.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msgBuilder.WriteString("\r\n")
	msgBuilder.WriteString(finalBody.String())

	err := smtp.SendMail(addr, auth, appCfg.Email.Sender, []string{to}, []byte(msgBuilder.String()))
	if err != nil {
		slog.Error("Failed to send email", "to", to, "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Email sent", "to", to, "subject", subject)
	return nil
}

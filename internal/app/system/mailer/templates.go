// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
)

// SiteName appears in subjects and headers.
const SiteName = "light-speed checkout"

// LinkEmailData fills the welcome and recovery templates.
type LinkEmailData struct {
	FullName string
	Link     string
}

var (
	welcomeTmpl  = template.Must(template.New("welcome").Parse(welcomeHTMLTemplate))
	recoveryTmpl = template.Must(template.New("recovery").Parse(recoveryHTMLTemplate))
)

// BuildWelcomeEmail creates the account activation email sent after signup.
func BuildWelcomeEmail(to string, data LinkEmailData) Email {
	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Hi %s! Activate your account - %s", data.FullName, SiteName),
		TextBody: fmt.Sprintf("Hi %s,\n\nWelcome to %s. Open this link to activate your account:\n%s\n", data.FullName, SiteName, data.Link),
		HTMLBody: render(welcomeTmpl, data),
	}
}

// BuildRecoveryEmail creates the password reset email.
func BuildRecoveryEmail(to string, data LinkEmailData) Email {
	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Hi %s! You asked for an account recovery link", data.FullName),
		TextBody: fmt.Sprintf("Hi %s,\n\nOpen this link to choose a new password:\n%s\n\nIf you did not ask for this, ignore this email.\n", data.FullName, data.Link),
		HTMLBody: render(recoveryTmpl, data),
	}
}

func render(t *template.Template, data LinkEmailData) string {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}

func mimeEncode(s string) string {
	return mime.QEncoding.Encode("utf-8", s)
}

const welcomeHTMLTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Activate your account</title></head>
<body style="margin: 0; padding: 0; font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px;">
              <h1 style="margin: 0 0 16px; font-size: 22px; color: #4f46e5;">Hi {{.FullName}}!</h1>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151;">Thanks for signing up. Activate your account to get started.</p>
              <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 6px;">Activate account</a>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const recoveryHTMLTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Account recovery</title></head>
<body style="margin: 0; padding: 0; font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px;">
              <h1 style="margin: 0 0 16px; font-size: 22px; color: #4f46e5;">Hi {{.FullName}}!</h1>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151;">Use the button below to choose a new password. The link is valid for one day.</p>
              <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; border-radius: 6px;">Reset password</a>
              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af;">If you did not ask for this, you can safely ignore this email.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

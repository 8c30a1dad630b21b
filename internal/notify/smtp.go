package notify

import (
	"bytes"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// sendViaSMTP delivers the mail over plain SMTP with PLAIN auth
func sendViaSMTP(server, from, password string, recipients []string, subject, html string) error {
	auth := sasl.NewPlainClient("", from, password)

	buf := bytes.NewBufferString("From: " + from + "\r\n" +
		"To: " + strings.Join(recipients, ", ") + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		html + "\r\n")

	return smtp.SendMail(server, auth, from, recipients, buf)
}

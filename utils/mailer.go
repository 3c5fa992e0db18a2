package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// sendMail delivers a plain-text email through the configured SMTP relay.
// Callers treat failures as non-fatal: losing a notification must never
// roll back the state change that produced it.
func sendMail(to, subject, body string) error {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Printf("SMTP not configured, skipping email to %s (%s)", to, subject)
		return nil
	}

	port := 587
	if p := os.Getenv("SMTP_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			port = parsed
		}
	}

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@atlasworks.io"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(host, port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASS"))
	return d.DialAndSend(m)
}

// SendInviteEmail notifies a guest of a pending data-room invitation
func SendInviteEmail(to, roomName, accessCode string) error {
	body := fmt.Sprintf(
		"You have been invited to the data room %q.\n\n"+
			"Your access code is: %s\n\n"+
			"Open the data room link and enter this code together with your email address to get started.",
		roomName, accessCode)
	return sendMail(to, fmt.Sprintf("Invitation to data room %q", roomName), body)
}

// SendCredentialEmail delivers the generated secret to a guest. This is the
// only moment the plaintext credential leaves the server.
func SendCredentialEmail(to, roomName, credential string) error {
	body := fmt.Sprintf(
		"Your access to the data room %q is confirmed.\n\n"+
			"Your password is: %s\n\n"+
			"Use it together with your email address each time you open the data room.",
		roomName, credential)
	err := sendMail(to, fmt.Sprintf("Your access to data room %q", roomName), body)
	if err != nil {
		log.Printf("failed to send credential email to %s: %v", to, err)
	}
	return err
}

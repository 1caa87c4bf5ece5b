package services

import (
	"context"
	"log"
)

// Mailer delivers magic links
type Mailer interface {
	SendMagicLink(ctx context.Context, email, link string) error
}

// LogMailer writes links to the server log instead of sending mail
type LogMailer struct{}

func (LogMailer) SendMagicLink(ctx context.Context, email, link string) error {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("📧 MAGIC LINK for %s", email)
	log.Printf("   %s", link)
	log.Println("   Ce lien expire dans 15 minutes.")
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	return nil
}

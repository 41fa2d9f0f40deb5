package memberauth

import "log"

// SendEmail lets applications plug in their own email delivery for reset
// links.
type SendEmail interface {
	SendPasswordResetEmail(to string, resetLink string) error
}

// ConsoleEmailSender is a development implementation that logs emails to
// the console.
type ConsoleEmailSender struct{}

func (c *ConsoleEmailSender) SendPasswordResetEmail(to string, resetLink string) error {
	log.Printf("\n=== EMAIL: Password Reset ===")
	log.Printf("To: %s", to)
	log.Printf("Subject: Reset your password")
	log.Printf("Body: Reset your password by clicking: %s", resetLink)
	log.Printf("==============================\n")
	return nil
}

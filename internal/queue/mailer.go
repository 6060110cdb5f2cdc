package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-mail/mail/v2"
)

// Mailer sends the ticket of a booking to its owner.
type Mailer interface {
	SendTicket(ev TicketBookedEvent) error
}

// SMTPMailer delivers tickets through an SMTP relay.
type SMTPMailer struct {
	dialer *mail.Dialer
	sender string
}

// NewSMTPMailer returns a mailer for host:port.  Username and password may
// be empty for relays that do not authenticate.
func NewSMTPMailer(host string, port int, username, password, sender string) *SMTPMailer {
	d := mail.NewDialer(host, port, username, password)
	d.Timeout = 10 * time.Second
	return &SMTPMailer{dialer: d, sender: sender}
}

// SendTicket e-mails one ticket.
func (m *SMTPMailer) SendTicket(ev TicketBookedEvent) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", ev.Email)
	msg.SetHeader("Subject", "Your seats for "+ev.Seminar)
	msg.SetBody("text/plain", TicketText(ev))
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send ticket %d: %w", ev.TicketID, err)
	}
	return nil
}

// TicketText renders the plain-text body of a ticket e-mail.
func TicketText(ev TicketBookedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", ev.Username)
	fmt.Fprintf(&b, "your booking for %q is confirmed.\n\n", ev.Seminar)
	fmt.Fprintf(&b, "Department: %s\n", ev.Department)
	fmt.Fprintf(&b, "Room:       %d\n", ev.RoomNumber)
	fmt.Fprintf(&b, "Starts at:  %s\n", ev.StartsAt.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Seats:      %s\n", strings.Join(ev.Seats, ", "))
	fmt.Fprintf(&b, "\nTicket #%d\n", ev.TicketID)
	return b.String()
}

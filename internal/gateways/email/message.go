// Package email holds the SMTP and SES email transports. Both build MIME with gomail.
package email

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ilindan-dev/notification-engine/internal/notifiers"
	"gopkg.in/gomail.v2"
)

// buildMessage assembles a multipart/alternative message and returns it with its Message-ID.
func buildMessage(msg *notifiers.EmailMessage) (*gomail.Message, string) {
	m := gomail.NewMessage()

	id := messageID(msg.FromAddress)
	m.SetAddressHeader("From", msg.FromAddress, msg.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", id)
	m.SetDateHeader("Date", time.Now())

	keys := make([]string, 0, len(msg.Headers))
	for k := range msg.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.SetHeader(k, msg.Headers[k])
	}

	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m, id
}

func messageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

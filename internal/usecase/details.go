package usecase

import (
	"regexp"
	"strings"

	"loops-assistant/internal/domain"
)

const messageNotProvided = "Not provided"

var detailPattern = regexp.MustCompile(`([A-Za-z ]+),?\s*([\w.-]+@[\w.-]+\.\w+),?\s*(.*)`)

// ContactDetails is a name/email/message triple recognised in free text.
type ContactDetails struct {
	Name    string
	Email   string
	Message string
}

// ExtractDetails looks for "<name>, <email>, <message>" in text. It only
// matches while the conversation is in fallback mode; the first match wins and
// an empty message becomes "Not provided".
func ExtractDetails(text string, fallback bool) (ContactDetails, bool) {
	if !fallback {
		return ContactDetails{}, false
	}
	m := detailPattern.FindStringSubmatch(text)
	if m == nil {
		return ContactDetails{}, false
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return ContactDetails{}, false
	}
	msg := strings.TrimSpace(m[3])
	if msg == "" {
		msg = messageNotProvided
	}
	return ContactDetails{Name: name, Email: m[2], Message: msg}, true
}

func (d ContactDetails) record(source string) domain.ContactRecord {
	return domain.ContactRecord{
		Name:    d.Name,
		Email:   d.Email,
		Message: d.Message,
		Source:  source,
	}
}

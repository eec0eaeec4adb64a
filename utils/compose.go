package utils

import (
	"regexp"
	"strings"

	"mailcast/models"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// Message is one fully rendered email ready for the transport
type Message struct {
	To      string
	Subject string
	Text    string
}

// RecipientVariables derives the per-recipient placeholders. A nil contact means
// the contact row is gone, in which case only the email is known.
func RecipientVariables(email string, contact *models.ListContact) map[string]string {
	if contact == nil {
		return map[string]string{"email": email, "nome": "", "empresa": ""}
	}

	local, domain, _ := strings.Cut(email, "@")
	name := contact.Name
	if name == "" {
		name = local
	}
	company, _, _ := strings.Cut(domain, ".")

	return map[string]string{
		"email":   email,
		"nome":    name,
		"empresa": company,
	}
}

// ComposeMessage renders the campaign template for a single send. Plain text
// wins: when the template has text content the HTML is dropped, and when it only
// has HTML the text body is the HTML with its tags stripped.
func ComposeMessage(send models.EmailSend, tmpl *models.Template, contact *models.ListContact) Message {
	vars := make(map[string]string, len(tmpl.Variables)+3)
	for k, v := range tmpl.Variables {
		vars[k] = v
	}
	for k, v := range RecipientVariables(send.Email, contact) {
		vars[k] = v
	}

	text := ReplaceVariables(tmpl.TextContent, vars)
	if text == "" && tmpl.HTMLContent != "" {
		text = StripTags(ReplaceVariables(tmpl.HTMLContent, vars))
	}

	return Message{
		To:      send.Email,
		Subject: ReplaceVariables(tmpl.Subject, vars),
		Text:    text,
	}
}

// StripTags removes anything that looks like an HTML tag
func StripTags(html string) string {
	return htmlTagPattern.ReplaceAllString(html, "")
}

package utils

import (
	"testing"

	"mailcast/models"

	"github.com/stretchr/testify/assert"
)

func TestComposeMessage_StripsHTMLWhenNoText(t *testing.T) {
	tmpl := &models.Template{Subject: "Oi {{nome}}", HTMLContent: "<p>Hi {{nome}}</p>"}
	send := models.EmailSend{Email: "joao@acme.com"}
	contact := &models.ListContact{Email: "joao@acme.com"}

	msg := ComposeMessage(send, tmpl, contact)
	assert.Equal(t, "joao@acme.com", msg.To)
	assert.Equal(t, "Oi joao", msg.Subject)
	assert.Equal(t, "Hi joao", msg.Text)
}

func TestComposeMessage_PrefersText(t *testing.T) {
	tmpl := &models.Template{
		Subject:     "News",
		TextContent: "Hello {{nome}}",
		HTMLContent: "<b>Hello {{nome}}</b>",
	}
	msg := ComposeMessage(models.EmailSend{Email: "a@b.com"}, tmpl, &models.ListContact{Name: "Bia"})

	assert.Equal(t, "Hello Bia", msg.Text)
}

func TestComposeMessage_RecipientOverridesTemplateDefaults(t *testing.T) {
	tmpl := &models.Template{
		Subject:     "{{empresa}} / {{produto}}",
		TextContent: "{{nome}}",
		Variables:   map[string]string{"nome": "cliente", "empresa": "ACME", "produto": "Widget"},
	}
	msg := ComposeMessage(models.EmailSend{Email: "rui@globex.co.uk"}, tmpl, &models.ListContact{Name: "Rui"})

	assert.Equal(t, "globex / Widget", msg.Subject)
	assert.Equal(t, "Rui", msg.Text)
	// The template's own defaults are left untouched
	assert.Equal(t, "cliente", tmpl.Variables["nome"])
}

func TestComposeMessage_MissingContact(t *testing.T) {
	tmpl := &models.Template{
		Subject:     "Hi {{nome}}",
		TextContent: "{{email}}|{{nome}}|{{empresa}}",
		Variables:   map[string]string{"nome": "friend"},
	}
	msg := ComposeMessage(models.EmailSend{Email: "joao@acme.com"}, tmpl, nil)

	assert.Equal(t, "Hi ", msg.Subject)
	assert.Equal(t, "joao@acme.com||", msg.Text)
}

func TestRecipientVariables(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		contact *models.ListContact
		want    map[string]string
	}{
		{
			name:    "contact name wins",
			email:   "maria@acme.com",
			contact: &models.ListContact{Name: "Maria Silva"},
			want:    map[string]string{"email": "maria@acme.com", "nome": "Maria Silva", "empresa": "acme"},
		},
		{
			name:    "local part when unnamed",
			email:   "joao.p@mail.acme.com",
			contact: &models.ListContact{},
			want:    map[string]string{"email": "joao.p@mail.acme.com", "nome": "joao.p", "empresa": "mail"},
		},
		{
			name:    "no domain",
			email:   "broken",
			contact: &models.ListContact{},
			want:    map[string]string{"email": "broken", "nome": "broken", "empresa": ""},
		},
		{
			name:  "no contact",
			email: "x@y.com",
			want:  map[string]string{"email": "x@y.com", "nome": "", "empresa": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecipientVariables(tt.email, tt.contact))
		})
	}
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "Hi there, click", StripTags(`<div class="x">Hi <b>there</b>, <a href="/u">click</a></div>`))
	assert.Equal(t, "no tags", StripTags("no tags"))
}

package admin

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"formsadmin/internal/models"
	"formsadmin/internal/render"
)

const (
	submissionDataTemplate = "admin/display/submission_data.html"
	recipientsTemplate     = "admin/display/recipients.html"
)

// DisplayField is a read-only value shown on the detail page. AllowTags
// fields produce sanitized HTML.
type DisplayField struct {
	Name      string
	Label     string
	AllowTags bool
	Value     func(ctx context.Context, sub models.Submission) (string, error)
}

// FormatAddress formats a name/address pair for a mail header. The name is
// left bare when it is plain ASCII without specials, quoted when it contains
// specials and RFC 2047 encoded when it is not ASCII.
func FormatAddress(name, email string) string {
	if name == "" {
		return email
	}
	if isPlainASCII(name) && !strings.ContainsAny(name, `()<>@,:;."[]\`) {
		return name + " <" + email + ">"
	}
	return (&mail.Address{Name: name, Address: email}).String()
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf || s[i] < 0x20 {
			return false
		}
	}
	return true
}

// DataForDisplay renders the submitted fields as an HTML table.
func (a *SubmissionAdmin) DataForDisplay(sub models.Submission) (string, error) {
	return a.deps.Renderer.Fragment(submissionDataTemplate, render.Context{"data": sub.FormData()})
}

// Recipients lists who was notified about sub, formatted as mail addresses.
func (a *SubmissionAdmin) Recipients(sub models.Submission) []string {
	if a.recipients != nil {
		return a.recipients(sub)
	}
	recipients := sub.GetRecipients()
	formatted := make([]string, 0, len(recipients))
	for _, r := range recipients {
		formatted = append(formatted, FormatAddress(r.Name, r.Email))
	}
	return formatted
}

// RecipientsForDisplay renders Recipients as an HTML list.
func (a *SubmissionAdmin) RecipientsForDisplay(sub models.Submission) (string, error) {
	return a.deps.Renderer.Fragment(recipientsTemplate, render.Context{"people": a.Recipients(sub)})
}

// displayField resolves a readonly or list column name.
func (a *SubmissionAdmin) displayField(name string) (DisplayField, bool) {
	text := func(fn func(models.Submission) string) func(context.Context, models.Submission) (string, error) {
		return func(_ context.Context, sub models.Submission) (string, error) { return fn(sub), nil }
	}

	switch name {
	case "__str__":
		return DisplayField{Name: name, Label: a.meta.VerboseName, Value: text(models.Submission.String)}, true
	case "name":
		return DisplayField{Name: name, Label: "name", Value: text(func(s models.Submission) string { return s.Name })}, true
	case "language":
		return DisplayField{Name: name, Label: "language", Value: text(func(s models.Submission) string { return s.Language })}, true
	case "sent_at":
		return DisplayField{Name: name, Label: "sent at", Value: text(func(s models.Submission) string {
			return s.SentAt.Format("2006-01-02 15:04:05")
		})}, true
	case "form_url":
		return DisplayField{Name: name, Label: "form url", Value: text(func(s models.Submission) string { return s.FormURL })}, true
	case "data":
		return DisplayField{Name: name, Label: "data", Value: text(func(s models.Submission) string { return s.Data })}, true
	case "get_data_for_display":
		return DisplayField{Name: name, Label: "data", AllowTags: true, Value: func(_ context.Context, s models.Submission) (string, error) {
			return a.DataForDisplay(s)
		}}, true
	case "get_recipients_for_display":
		return DisplayField{Name: name, Label: "people notified", AllowTags: true, Value: func(_ context.Context, s models.Submission) (string, error) {
			return a.RecipientsForDisplay(s)
		}}, true
	}
	return DisplayField{}, false
}

package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Kind selects which stored submission entity a record belongs to.
type Kind string

const (
	// KindFormSubmission is a structured submission with JSON field data.
	KindFormSubmission Kind = "formsubmission"
	// KindFormData is the legacy plain-text submission.
	KindFormData Kind = "formdata"
)

// Field is one labeled value of a submitted form, in form order.
type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Recipient is someone notified about a submission.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Submission is one completed form as stored by the form-rendering side.
//
// Data and Recipients hold the raw stored payloads. For KindFormSubmission both
// are JSON arrays; for KindFormData Data holds "Label: value" lines and
// Recipients holds one pre-formatted address per line.
type Submission struct {
	ID         int64     `json:"id"`
	Kind       Kind      `json:"kind"`
	Name       string    `json:"name"`
	Language   string    `json:"language"`
	SentAt     time.Time `json:"sent_at"`
	Data       string    `json:"data"`
	Recipients string    `json:"recipients"`
	FormURL    string    `json:"form_url,omitempty"`
}

func (s Submission) String() string {
	return s.Name
}

// FormData returns the submitted fields in their stored order. Malformed
// payloads yield no fields.
func (s Submission) FormData() []Field {
	switch s.Kind {
	case KindFormData:
		return parseLegacyData(s.Data)
	default:
		if strings.TrimSpace(s.Data) == "" {
			return nil
		}
		var fields []Field
		if err := json.Unmarshal([]byte(s.Data), &fields); err != nil {
			return nil
		}
		return fields
	}
}

// GetRecipients decodes the structured recipient list of a form submission.
func (s Submission) GetRecipients() []Recipient {
	if s.Kind == KindFormData || strings.TrimSpace(s.Recipients) == "" {
		return nil
	}
	var recipients []Recipient
	if err := json.Unmarshal([]byte(s.Recipients), &recipients); err != nil {
		return nil
	}
	return recipients
}

// PeopleNotified returns the stored address lines of a legacy record.
func (s Submission) PeopleNotified() []string {
	var people []string
	for _, line := range strings.Split(s.Recipients, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			people = append(people, line)
		}
	}
	return people
}

// EncodeFields is the inverse of FormData for KindFormSubmission.
func EncodeFields(fields []Field) (string, error) {
	if fields == nil {
		fields = []Field{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// EncodeRecipients encodes a structured recipient list.
func EncodeRecipients(recipients []Recipient) (string, error) {
	if recipients == nil {
		recipients = []Recipient{}
	}
	raw, err := json.Marshal(recipients)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func parseLegacyData(raw string) []Field {
	var fields []Field
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		label, value, _ := strings.Cut(line, ":")
		label = strings.TrimSpace(label)
		fields = append(fields, Field{
			Name:  label,
			Label: label,
			Value: strings.TrimSpace(value),
		})
	}
	return fields
}

package export

import (
	"fmt"

	"formsadmin/internal/models"
)

const (
	LanguageColumn    = "Language"
	SubmittedOnColumn = "Submitted on"
)

// Accessor extracts one cell value from a submission. fields is the
// submission's decoded form data.
type Accessor func(sub models.Submission, fields []models.Field) any

// Header is one export column.
type Header struct {
	Name  string
	Value Accessor
}

// Headers is an ordered column set.
type Headers []Header

func (h Headers) Names() []string {
	names := make([]string, len(h))
	for i, header := range h {
		names[i] = header.Name
	}
	return names
}

// Row evaluates every accessor against sub. The form data is decoded once.
func (h Headers) Row(sub models.Submission) []any {
	fields := sub.FormData()
	row := make([]any, len(h))
	for i, header := range h {
		row[i] = header.Value(sub, fields)
	}
	return row
}

// BuildHeaders derives export columns from the field layout of reference,
// normally the most recent submission of the exported set. Fields removed
// from the form before that submission are not exported.
//
// A repeated label gets an occurrence suffix ("Email 2", "Email 3") and the
// Language and Submitted on columns always come last.
func BuildHeaders(reference models.Submission) Headers {
	fields := reference.FormData()
	headers := make(Headers, 0, len(fields)+2)

	seen := make(map[string]bool, len(fields))
	occurrences := make(map[string]int)
	for position, field := range fields {
		name := field.Label
		for seen[name] {
			n := max(occurrences[field.Label], 1) + 1
			occurrences[field.Label] = n
			name = fmt.Sprintf("%s %d", field.Label, n)
		}
		seen[name] = true
		headers = append(headers, Header{Name: name, Value: FieldValue(field.Label, position)})
	}

	headers = append(headers,
		Header{Name: LanguageColumn, Value: func(sub models.Submission, _ []models.Field) any { return sub.Language }},
		Header{Name: SubmittedOnColumn, Value: func(sub models.Submission, _ []models.Field) any { return sub.SentAt }},
	)
	return headers
}

// FieldValue returns an accessor for the field at position. The value is
// only returned while the submission still has label at that position;
// anything else (a reordered, renamed or missing field) yields "".
func FieldValue(label string, position int) Accessor {
	return func(_ models.Submission, fields []models.Field) any {
		if position < 0 || position >= len(fields) {
			return ""
		}
		if field := fields[position]; field.Label == label {
			return field.Value
		}
		return ""
	}
}

// Drifted counts the rows whose field labels differ from those of reference.
// Such rows export blank cells wherever a label moved.
func Drifted(reference models.Submission, rows []models.Submission) int {
	want := reference.FormData()
	n := 0
	for _, row := range rows {
		got := row.FormData()
		for position, field := range want {
			if position >= len(got) || got[position].Label != field.Label {
				n++
				break
			}
		}
	}
	return n
}

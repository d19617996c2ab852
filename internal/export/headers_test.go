package export

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"formsadmin/internal/models"
)

func submission(t *testing.T, fields ...models.Field) models.Submission {
	t.Helper()
	raw, err := models.EncodeFields(fields)
	if err != nil {
		t.Fatalf("encode fields: %v", err)
	}
	return models.Submission{
		Kind:     models.KindFormSubmission,
		Name:     "contact",
		Language: "en",
		SentAt:   time.Date(2024, time.May, 2, 9, 30, 0, 0, time.UTC),
		Data:     raw,
	}
}

func TestBuildHeaders_CountAndTrailingColumns(t *testing.T) {
	ref := submission(t,
		models.Field{Label: "Name", Value: "Jane"},
		models.Field{Label: "Email", Value: "jane@example.com"},
		models.Field{Label: "Message", Value: "hello"},
	)

	headers := BuildHeaders(ref)
	want := []string{"Name", "Email", "Message", LanguageColumn, SubmittedOnColumn}
	if diff := cmp.Diff(want, headers.Names()); diff != "" {
		t.Fatalf("header names mismatch (-want +got):\n%s", diff)
	}
	if len(headers) != len(ref.FormData())+2 {
		t.Fatalf("expected %d headers, got %d", len(ref.FormData())+2, len(headers))
	}

	row := headers.Row(ref)
	wantRow := []any{"Jane", "jane@example.com", "hello", "en", ref.SentAt}
	if diff := cmp.Diff(wantRow, row); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildHeaders_EmptyReference(t *testing.T) {
	headers := BuildHeaders(models.Submission{Kind: models.KindFormSubmission})
	if diff := cmp.Diff([]string{LanguageColumn, SubmittedOnColumn}, headers.Names()); diff != "" {
		t.Fatalf("header names mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildHeaders_DuplicateLabels(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   []string
	}{
		{
			name:   "second occurrence gets 2",
			labels: []string{"Email", "Phone", "Email"},
			want:   []string{"Email", "Phone", "Email 2"},
		},
		{
			name:   "counter keeps increasing",
			labels: []string{"Email", "Email", "Email"},
			want:   []string{"Email", "Email 2", "Email 3"},
		},
		{
			name:   "suffixed label already taken",
			labels: []string{"Email", "Email 2", "Email"},
			want:   []string{"Email", "Email 2", "Email 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := make([]models.Field, len(tt.labels))
			for i, label := range tt.labels {
				fields[i] = models.Field{Label: label, Value: label}
			}
			headers := BuildHeaders(submission(t, fields...))
			got := headers.Names()[:len(tt.labels)]
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("header names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFieldValue_DuplicateLabelsReadOwnPosition(t *testing.T) {
	ref := submission(t,
		models.Field{Label: "Email", Value: "first@example.com"},
		models.Field{Label: "Email", Value: "second@example.com"},
	)
	headers := BuildHeaders(ref)
	if got := headers[0].Value(ref, ref.FormData()); got != "first@example.com" {
		t.Fatalf("expected first email, got %v", got)
	}
	if got := headers[1].Value(ref, ref.FormData()); got != "second@example.com" {
		t.Fatalf("expected second email, got %v", got)
	}
}

func TestFieldValue_LayoutDrift(t *testing.T) {
	ref := submission(t,
		models.Field{Label: "Name", Value: "Jane"},
		models.Field{Label: "Email", Value: "jane@example.com"},
		models.Field{Label: "Company", Value: "ACME"},
	)
	headers := BuildHeaders(ref)

	older := submission(t,
		models.Field{Label: "Email", Value: "old@example.com"},
		models.Field{Label: "Name", Value: "Old"},
	)

	tests := []struct {
		column int
		want   any
	}{
		{column: 0, want: ""}, // label moved
		{column: 1, want: ""}, // label moved
		{column: 2, want: ""}, // position missing
	}
	for _, tt := range tests {
		got := headers[tt.column].Value(older, older.FormData())
		if got != tt.want {
			t.Fatalf("column %q: expected %q, got %v", headers[tt.column].Name, tt.want, got)
		}
	}

	broken := models.Submission{Kind: models.KindFormSubmission, Data: "not json"}
	for _, h := range headers[:3] {
		if got := h.Value(broken, broken.FormData()); got != "" {
			t.Fatalf("column %q: expected blank for unreadable data, got %v", h.Name, got)
		}
	}
}

func TestFieldValue_NegativePosition(t *testing.T) {
	sub := submission(t, models.Field{Label: "Name", Value: "x"})
	if got := FieldValue("Name", -1)(sub, sub.FormData()); got != "" {
		t.Fatalf("expected blank, got %v", got)
	}
}

func TestHeadersRow_MatchingAndDriftedRows(t *testing.T) {
	ref := submission(t,
		models.Field{Label: "Name", Value: "Jane"},
		models.Field{Label: "Email", Value: "jane@example.com"},
	)
	headers := BuildHeaders(ref)

	older := submission(t,
		models.Field{Label: "Name", Value: "Old"},
		models.Field{Label: "Phone", Value: "555"},
	)
	older.Language = "de"

	tests := []struct {
		name string
		sub  models.Submission
		want []any
	}{
		{name: "matching", sub: ref, want: []any{"Jane", "jane@example.com", "en", ref.SentAt}},
		{name: "drifted", sub: older, want: []any{"Old", "", "de", older.SentAt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, headers.Row(tt.sub)); diff != "" {
				t.Fatalf("row mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDrifted(t *testing.T) {
	ref := submission(t,
		models.Field{Label: "Name", Value: "Jane"},
		models.Field{Label: "Email", Value: "jane@example.com"},
	)
	rows := []models.Submission{
		ref,
		submission(t, models.Field{Label: "Name", Value: "Old"}),
		submission(t, models.Field{Label: "Email", Value: "x@example.com"}, models.Field{Label: "Name", Value: "Swapped"}),
		submission(t, models.Field{Label: "Name"}, models.Field{Label: "Email"}, models.Field{Label: "Extra"}),
	}
	if got := Drifted(ref, rows); got != 2 {
		t.Fatalf("Drifted = %d, want 2", got)
	}
}

package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSubmissionFormData_JSON(t *testing.T) {
	sub := Submission{
		Kind: KindFormSubmission,
		Data: `[{"name":"email","label":"Email","value":"a@b.c"},{"name":"msg","label":"Message","value":"hi"}]`,
	}

	want := []Field{
		{Name: "email", Label: "Email", Value: "a@b.c"},
		{Name: "msg", Label: "Message", Value: "hi"},
	}
	if diff := cmp.Diff(want, sub.FormData()); diff != "" {
		t.Fatalf("form data mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmissionFormData_MalformedJSON(t *testing.T) {
	sub := Submission{Kind: KindFormSubmission, Data: `{not json`}
	if got := sub.FormData(); got != nil {
		t.Fatalf("expected nil fields, got %#v", got)
	}
}

func TestSubmissionFormData_Legacy(t *testing.T) {
	sub := Submission{
		Kind: KindFormData,
		Data: "Name: Jane\r\n\nTime: 10:30\nNo colon here\n",
	}

	want := []Field{
		{Name: "Name", Label: "Name", Value: "Jane"},
		{Name: "Time", Label: "Time", Value: "10:30"},
		{Name: "No colon here", Label: "No colon here", Value: ""},
	}
	if diff := cmp.Diff(want, sub.FormData()); diff != "" {
		t.Fatalf("legacy form data mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmissionRecipients(t *testing.T) {
	raw, err := EncodeRecipients([]Recipient{{Name: "Ops", Email: "ops@example.com"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	sub := Submission{Kind: KindFormSubmission, Recipients: raw}
	want := []Recipient{{Name: "Ops", Email: "ops@example.com"}}
	if diff := cmp.Diff(want, sub.GetRecipients()); diff != "" {
		t.Fatalf("recipients mismatch (-want +got):\n%s", diff)
	}

	legacy := Submission{Kind: KindFormData, Recipients: "Ops <ops@example.com>\n\n  sales@example.com  \n"}
	if got := legacy.GetRecipients(); got != nil {
		t.Fatalf("legacy records have no structured recipients, got %#v", got)
	}
	wantPeople := []string{"Ops <ops@example.com>", "sales@example.com"}
	if diff := cmp.Diff(wantPeople, legacy.PeopleNotified()); diff != "" {
		t.Fatalf("people notified mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeFieldsEmpty(t *testing.T) {
	raw, err := EncodeFields(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if raw != "[]" {
		t.Fatalf("expected empty array, got %q", raw)
	}
}

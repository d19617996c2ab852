package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"formsadmin/internal/models"
)

type recordingExporter struct {
	calls []Request
	next  Exporter
}

func (r *recordingExporter) Export(ctx context.Context, req Request) (*Document, error) {
	r.calls = append(r.calls, req)
	return r.next.Export(ctx, req)
}

func exportRequest(t *testing.T) Request {
	t.Helper()
	ref := submission(t,
		models.Field{Label: "Name", Value: "Jane"},
		models.Field{Label: "Email", Value: "jane@example.com"},
	)
	return Request{
		Title:    "contact",
		Headers:  BuildHeaders(ref),
		Rows:     []models.Submission{ref},
		Filename: "contact-2024-05-02",
	}
}

func TestCall_CurrentExporterUsesFileType(t *testing.T) {
	rec := &recordingExporter{next: DefaultSpreadsheet()}
	doc, err := Call(context.Background(), rec, exportRequest(t), "csv")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(rec.calls) != 1 || rec.calls[0].FileType != "csv" || rec.calls[0].Format != "" {
		t.Fatalf("expected one call with FileType, got %#v", rec.calls)
	}
	if doc.Filename != "contact-2024-05-02.csv" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}
}

func TestCall_FallsBackToLegacyFormat(t *testing.T) {
	rec := &recordingExporter{next: LegacySpreadsheet{DefaultSpreadsheet()}}
	doc, err := Call(context.Background(), rec, exportRequest(t), "xlsx")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("expected two calls, got %d", len(rec.calls))
	}
	if rec.calls[1].FileType != "" || rec.calls[1].Format != "xlsx" {
		t.Fatalf("expected legacy retry with Format, got %#v", rec.calls[1])
	}
	if !strings.Contains(doc.ContentType, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", doc.ContentType)
	}
}

func TestCall_BothVariantsFail(t *testing.T) {
	rec := &recordingExporter{next: LegacySpreadsheet{DefaultSpreadsheet()}}
	_, err := Call(context.Background(), rec, exportRequest(t), "ods")
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("expected fallback attempt, got %d calls", len(rec.calls))
	}
}

func TestCall_OtherErrorsDoNotRetry(t *testing.T) {
	rec := &recordingExporter{next: DefaultSpreadsheet()}
	_, err := Call(context.Background(), rec, exportRequest(t), "ods")
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected ErrUnsupportedFileType, got %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected a single call, got %d", len(rec.calls))
	}
}

func TestXLSXWriter_RoundTrip(t *testing.T) {
	doc, err := Call(context.Background(), DefaultSpreadsheet(), exportRequest(t), "xlsx")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if doc.Filename != "contact-2024-05-02.xlsx" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(doc.Body))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("contact")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(rows))
	}
	wantHeader := []string{"Name", "Email", LanguageColumn, SubmittedOnColumn}
	if diff := cmp.Diff(wantHeader, rows[0]); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Jane", "jane@example.com", "en"}, rows[1][:3]); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVWriter(t *testing.T) {
	ds := NewDataset("x", exportRequest(t).Headers, exportRequest(t).Rows)
	var buf bytes.Buffer
	if err := (CSVWriter{}).Write(&buf, ds); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "Name,Email,Language,Submitted on\nJane,jane@example.com,en,2024-05-02 09:30:00\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestDocumentContentDisposition(t *testing.T) {
	doc := &Document{Filename: "contact-2024-05-02.xlsx"}
	if got := doc.ContentDisposition(); got != `attachment; filename=contact-2024-05-02.xlsx` {
		t.Fatalf("unexpected disposition %q", got)
	}
}

func TestSheetName(t *testing.T) {
	tests := map[string]string{
		"":                                  "Sheet1",
		"Contact [main]":                    "Contact (main)",
		"a/b:c":                             "a b c",
		"a very long form name that exceeds": "a very long form name that exce",
	}
	for in, want := range tests {
		if got := sheetName(in); got != want {
			t.Fatalf("sheetName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSpreadsheet_Supports(t *testing.T) {
	s := DefaultSpreadsheet()
	tests := map[string]bool{
		"xlsx":  true,
		" CSV ": true,
		"xls":   false,
		"ods":   false,
		"":      false,
	}
	for fileType, want := range tests {
		if got := s.Supports(fileType); got != want {
			t.Errorf("Supports(%q) = %v, want %v", fileType, got, want)
		}
	}
}

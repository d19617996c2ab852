package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"formsadmin/internal/models"
)

var (
	// ErrUnexpectedOption is returned by an exporter given an option name it
	// does not know, for example a legacy exporter receiving FileType.
	ErrUnexpectedOption    = errors.New("export: unexpected option")
	ErrUnsupportedFileType = errors.New("export: unsupported file type")
)

// Request describes one export call.
//
// FileType and Format carry the same value under the current and the legacy
// option name; an exporter accepts exactly one of them.
type Request struct {
	Title    string
	Headers  Headers
	Rows     []models.Submission
	Filename string // without extension
	FileType string
	Format   string
}

// Document is a serialized export ready to be sent as an attachment.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ContentDisposition returns the attachment header value for d.
func (d *Document) ContentDisposition() string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename})
}

type Exporter interface {
	Export(ctx context.Context, req Request) (*Document, error)
}

// Call runs exp with fileType under the current option name and retries under
// the legacy name when exp rejects it. Any other failure is returned as is.
func Call(ctx context.Context, exp Exporter, req Request, fileType string) (*Document, error) {
	req.FileType, req.Format = fileType, ""
	doc, err := exp.Export(ctx, req)
	if errors.Is(err, ErrUnexpectedOption) {
		req.FileType, req.Format = "", fileType
		doc, err = exp.Export(ctx, req)
	}
	return doc, err
}

// Spreadsheet exports through a set of writers keyed by file type.
type Spreadsheet struct {
	writers map[string]Writer
}

// NewSpreadsheet registers writers; later writers win on file type collisions.
func NewSpreadsheet(writers ...Writer) *Spreadsheet {
	s := &Spreadsheet{writers: make(map[string]Writer, len(writers))}
	for _, w := range writers {
		if w == nil {
			continue
		}
		s.writers[strings.ToLower(w.FileType())] = w
	}
	return s
}

// DefaultSpreadsheet knows xlsx and csv.
func DefaultSpreadsheet() *Spreadsheet {
	return NewSpreadsheet(XLSXWriter{ColumnWidth: 20}, CSVWriter{})
}

// Supports reports whether fileType has a registered writer.
func (s *Spreadsheet) Supports(fileType string) bool {
	_, ok := s.writers[strings.ToLower(strings.TrimSpace(fileType))]
	return ok
}

func (s *Spreadsheet) Export(ctx context.Context, req Request) (*Document, error) {
	if req.Format != "" {
		return nil, fmt.Errorf("%w: format", ErrUnexpectedOption)
	}
	return s.export(ctx, req, req.FileType)
}

func (s *Spreadsheet) export(ctx context.Context, req Request, fileType string) (*Document, error) {
	fileType = strings.ToLower(strings.TrimSpace(fileType))
	writer, ok := s.writers[fileType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, fileType)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ds := NewDataset(req.Title, req.Headers, req.Rows)
	var buf bytes.Buffer
	if err := writer.Write(&buf, ds); err != nil {
		return nil, err
	}

	filename := req.Filename
	if filename == "" {
		filename = "export"
	}
	return &Document{
		Filename:    filename + "." + writer.FileType(),
		ContentType: writer.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}

// LegacySpreadsheet is the older exporter API that only understands Format.
type LegacySpreadsheet struct {
	*Spreadsheet
}

func (l LegacySpreadsheet) Export(ctx context.Context, req Request) (*Document, error) {
	if req.FileType != "" {
		return nil, fmt.Errorf("%w: file_type", ErrUnexpectedOption)
	}
	return l.export(ctx, req, req.Format)
}

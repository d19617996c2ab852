package export

import (
	"fmt"
	"strings"
	"time"

	"formsadmin/internal/models"
)

// Dataset is a titled table ready to be written by a Writer.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]any
}

// NewDataset evaluates headers against every submission in rows.
func NewDataset(title string, headers Headers, rows []models.Submission) *Dataset {
	ds := &Dataset{
		Title:   title,
		Headers: headers.Names(),
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, sub := range rows {
		ds.Rows = append(ds.Rows, headers.Row(sub))
	}
	return ds
}

// cellText renders a value for text-only formats.
func cellText(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case time.Time:
		if value.IsZero() {
			return ""
		}
		return value.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(value)
	}
}

var sheetNameReplacer = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// sheetName turns a dataset title into a valid worksheet name.
func sheetName(title string) string {
	name := strings.TrimSpace(sheetNameReplacer.Replace(title))
	name = strings.Trim(name, "'")
	if name == "" {
		return "Sheet1"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

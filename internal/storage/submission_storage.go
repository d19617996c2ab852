package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"formsadmin/internal/models"
)

// Filter narrows a submission query the way a queryset filter would.
// Zero values leave a criterion unconstrained.
type Filter struct {
	Kind       models.Kind
	Name       string
	Language   string
	SentFrom   time.Time // inclusive
	SentBefore time.Time // exclusive
	Ascending  bool      // default order is newest first
	Limit      int
	Offset     int
}

type submissionTable struct {
	name       string
	recipients string
	formURL    string
}

var submissionTables = map[models.Kind]submissionTable{
	models.KindFormSubmission: {name: "form_submissions", recipients: "recipients", formURL: "form_url"},
	models.KindFormData:       {name: "form_data", recipients: "people_notified", formURL: "''"},
}

// columns usable with DistinctValues
var distinctColumns = map[string]bool{"name": true, "language": true}

func tableFor(kind models.Kind) (submissionTable, error) {
	t, ok := submissionTables[kind]
	if !ok {
		return submissionTable{}, fmt.Errorf("storage: unknown submission kind %q", kind)
	}
	return t, nil
}

func (f Filter) where() (string, []any) {
	var clauses []string
	var args []any
	if f.Name != "" {
		clauses = append(clauses, "name = ?")
		args = append(args, f.Name)
	}
	if f.Language != "" {
		clauses = append(clauses, "language = ?")
		args = append(args, f.Language)
	}
	if !f.SentFrom.IsZero() {
		clauses = append(clauses, "sent_at >= ?")
		args = append(args, formatTime(f.SentFrom))
	}
	if !f.SentBefore.IsZero() {
		clauses = append(clauses, "sent_at < ?")
		args = append(args, formatTime(f.SentBefore))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, raw, time.UTC)
}

// CreateSubmission stores a submission. The admin never calls this; it exists
// for the form-rendering side, fixtures and tests.
func (d *DB) CreateSubmission(ctx context.Context, sub *models.Submission) (int64, error) {
	t, err := tableFor(sub.Kind)
	if err != nil {
		return 0, err
	}
	sentAt := sub.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	var res sql.Result
	switch sub.Kind {
	case models.KindFormSubmission:
		res, err = d.conn.ExecContext(ctx,
			"INSERT INTO "+t.name+"(name, language, sent_at, data, recipients, form_url) VALUES(?, ?, ?, ?, ?, ?)",
			sub.Name, sub.Language, formatTime(sentAt), sub.Data, sub.Recipients, sub.FormURL)
	default:
		res, err = d.conn.ExecContext(ctx,
			"INSERT INTO "+t.name+"(name, language, sent_at, data, people_notified) VALUES(?, ?, ?, ?, ?)",
			sub.Name, sub.Language, formatTime(sentAt), sub.Data, sub.Recipients)
	}
	if err != nil {
		return 0, fmt.Errorf("storage.CreateSubmission(): %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	sub.ID = id
	sub.SentAt = sentAt.UTC()
	return id, nil
}

func (d *DB) ListSubmissions(ctx context.Context, f Filter) ([]models.Submission, error) {
	t, err := tableFor(f.Kind)
	if err != nil {
		return nil, err
	}
	where, args := f.where()
	order := " ORDER BY sent_at DESC, id DESC"
	if f.Ascending {
		order = " ORDER BY sent_at ASC, id ASC"
	}
	query := "SELECT id, name, language, sent_at, data, " + t.recipients + ", " + t.formURL +
		" FROM " + t.name + where + order
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.ListSubmissions(): %w", err)
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows, f.Kind)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// LatestSubmission returns the most recently sent submission matching f.
func (d *DB) LatestSubmission(ctx context.Context, f Filter) (models.Submission, error) {
	f.Ascending = false
	f.Limit = 1
	f.Offset = 0
	subs, err := d.ListSubmissions(ctx, f)
	if err != nil {
		return models.Submission{}, err
	}
	if len(subs) == 0 {
		return models.Submission{}, ErrNotFound
	}
	return subs[0], nil
}

func (d *DB) CountSubmissions(ctx context.Context, f Filter) (int, error) {
	t, err := tableFor(f.Kind)
	if err != nil {
		return 0, err
	}
	where, args := f.where()
	var count int
	if err := d.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.name+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage.CountSubmissions(): %w", err)
	}
	return count, nil
}

func (d *DB) SubmissionsExist(ctx context.Context, f Filter) (bool, error) {
	t, err := tableFor(f.Kind)
	if err != nil {
		return false, err
	}
	where, args := f.where()
	var exists bool
	if err := d.conn.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM "+t.name+where+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("storage.SubmissionsExist(): %w", err)
	}
	return exists, nil
}

func (d *DB) GetSubmission(ctx context.Context, kind models.Kind, id int64) (models.Submission, error) {
	t, err := tableFor(kind)
	if err != nil {
		return models.Submission{}, err
	}
	row := d.conn.QueryRowContext(ctx,
		"SELECT id, name, language, sent_at, data, "+t.recipients+", "+t.formURL+" FROM "+t.name+" WHERE id = ?", id)
	sub, err := scanSubmission(row, kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Submission{}, ErrNotFound
		}
		return models.Submission{}, err
	}
	return sub, nil
}

// DistinctValues lists the sorted distinct values of column ("name" or
// "language") for kind.
func (d *DB) DistinctValues(ctx context.Context, kind models.Kind, column string) ([]string, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if !distinctColumns[column] {
		return nil, fmt.Errorf("storage: column %q is not filterable", column)
	}
	rows, err := d.conn.QueryContext(ctx,
		"SELECT DISTINCT "+column+" FROM "+t.name+" WHERE "+column+" != '' ORDER BY "+column)
	if err != nil {
		return nil, fmt.Errorf("storage.DistinctValues(): %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// SentAtPeriods lists distinct sent_at prefixes of the given length among the
// rows matching f: 4 yields years ("2024"), 7 yields months ("2024-05").
func (d *DB) SentAtPeriods(ctx context.Context, f Filter, length int) ([]string, error) {
	t, err := tableFor(f.Kind)
	if err != nil {
		return nil, err
	}
	where, args := f.where()
	args = append([]any{length}, args...)
	rows, err := d.conn.QueryContext(ctx,
		"SELECT DISTINCT substr(sent_at, 1, ?) AS period FROM "+t.name+where+" ORDER BY period", args...)
	if err != nil {
		return nil, fmt.Errorf("storage.SentAtPeriods(): %w", err)
	}
	defer rows.Close()

	var periods []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner, kind models.Kind) (models.Submission, error) {
	sub := models.Submission{Kind: kind}
	var sentAt string
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Language, &sentAt, &sub.Data, &sub.Recipients, &sub.FormURL); err != nil {
		return sub, err
	}
	parsed, err := parseTime(sentAt)
	if err != nil {
		return sub, fmt.Errorf("storage: bad sent_at %q on %s %d: %w", sentAt, kind, sub.ID, err)
	}
	sub.SentAt = parsed
	return sub, nil
}

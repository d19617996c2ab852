package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"formsadmin/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *DB, subs ...models.Submission) []models.Submission {
	t.Helper()
	out := make([]models.Submission, 0, len(subs))
	for i := range subs {
		sub := subs[i]
		if _, err := db.CreateSubmission(context.Background(), &sub); err != nil {
			t.Fatalf("create submission: %v", err)
		}
		out = append(out, sub)
	}
	return out
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC)
}

func TestListSubmissions_FilterAndOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seed(t, db,
		models.Submission{Kind: models.KindFormSubmission, Name: "contact", Language: "en", SentAt: day(1), Data: "[]"},
		models.Submission{Kind: models.KindFormSubmission, Name: "contact", Language: "de", SentAt: day(3), Data: "[]"},
		models.Submission{Kind: models.KindFormSubmission, Name: "contact", Language: "en", SentAt: day(5), Data: "[]"},
		models.Submission{Kind: models.KindFormSubmission, Name: "signup", Language: "en", SentAt: day(4), Data: "[]"},
	)

	subs, err := db.ListSubmissions(ctx, Filter{Kind: models.KindFormSubmission, Name: "contact"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []time.Time
	for _, s := range subs {
		got = append(got, s.SentAt)
	}
	if diff := cmp.Diff([]time.Time{day(5), day(3), day(1)}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	subs, err = db.ListSubmissions(ctx, Filter{
		Kind:       models.KindFormSubmission,
		Name:       "contact",
		Language:   "en",
		SentFrom:   day(2),
		SentBefore: day(6),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 || !subs[0].SentAt.Equal(day(5)) {
		t.Fatalf("expected only the day-5 english submission, got %#v", subs)
	}
}

func TestLatestSubmissionAndExists(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	filter := Filter{Kind: models.KindFormSubmission, Name: "contact"}

	exists, err := db.SubmissionsExist(ctx, filter)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatalf("expected no submissions")
	}
	if _, err := db.LatestSubmission(ctx, filter); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	seed(t, db,
		models.Submission{Kind: models.KindFormSubmission, Name: "contact", SentAt: day(2), Data: "[]", FormURL: "/old/"},
		models.Submission{Kind: models.KindFormSubmission, Name: "contact", SentAt: day(9), Data: "[]", FormURL: "/new/"},
	)

	exists, err = db.SubmissionsExist(ctx, filter)
	if err != nil || !exists {
		t.Fatalf("expected submissions to exist, got %v, %v", exists, err)
	}
	latest, err := db.LatestSubmission(ctx, filter)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.FormURL != "/new/" {
		t.Fatalf("expected newest submission, got %#v", latest)
	}
	count, err := db.CountSubmissions(ctx, filter)
	if err != nil || count != 2 {
		t.Fatalf("expected count 2, got %d, %v", count, err)
	}
}

func TestGetSubmission_LegacyKind(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	subs := seed(t, db, models.Submission{
		Kind:       models.KindFormData,
		Name:       "legacy",
		SentAt:     day(1),
		Data:       "Name: Jane",
		Recipients: "Ops <ops@example.com>",
	})

	got, err := db.GetSubmission(ctx, models.KindFormData, subs[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(subs[0], got); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}

	if _, err := db.GetSubmission(ctx, models.KindFormSubmission, subs[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across kinds, got %v", err)
	}
}

func TestDistinctValuesAndPeriods(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seed(t, db,
		models.Submission{Kind: models.KindFormData, Name: "b", Language: "en", SentAt: day(1)},
		models.Submission{Kind: models.KindFormData, Name: "a", Language: "", SentAt: day(2)},
		models.Submission{Kind: models.KindFormData, Name: "b", Language: "de", SentAt: time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC)},
	)

	names, err := db.DistinctValues(ctx, models.KindFormData, "name")
	if err != nil {
		t.Fatalf("distinct names: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	langs, err := db.DistinctValues(ctx, models.KindFormData, "language")
	if err != nil {
		t.Fatalf("distinct languages: %v", err)
	}
	if diff := cmp.Diff([]string{"de", "en"}, langs); diff != "" {
		t.Fatalf("languages mismatch (-want +got):\n%s", diff)
	}
	if _, err := db.DistinctValues(ctx, models.KindFormData, "data"); err == nil {
		t.Fatalf("expected error for non-filterable column")
	}

	years, err := db.SentAtPeriods(ctx, Filter{Kind: models.KindFormData}, 4)
	if err != nil {
		t.Fatalf("periods: %v", err)
	}
	if diff := cmp.Diff([]string{"2023", "2024"}, years); diff != "" {
		t.Fatalf("years mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.CreateUser(ctx, "admin", "hash", true); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.CreateUser(ctx, "admin", "hash", true); !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}

	user, err := db.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !user.IsStaff || user.PasswordHash != "hash" {
		t.Fatalf("unexpected user %#v", user)
	}
	if err := db.SetUserPassword(ctx, "admin", "other"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := db.SetUserPassword(ctx, "nobody", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := db.GetUserByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

package admin

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"formsadmin/internal/export"
	"formsadmin/internal/models"
	"formsadmin/internal/render"
	"formsadmin/internal/storage"
)

// Store is the read side of submission storage the admin needs.
type Store interface {
	ListSubmissions(ctx context.Context, f storage.Filter) ([]models.Submission, error)
	LatestSubmission(ctx context.Context, f storage.Filter) (models.Submission, error)
	CountSubmissions(ctx context.Context, f storage.Filter) (int, error)
	SubmissionsExist(ctx context.Context, f storage.Filter) (bool, error)
	GetSubmission(ctx context.Context, kind models.Kind, id int64) (models.Submission, error)
	DistinctValues(ctx context.Context, kind models.Kind, column string) ([]string, error)
	SentAtPeriods(ctx context.Context, f storage.Filter, length int) ([]string, error)
}

// Deps are the collaborators shared by the submission admins.
type Deps struct {
	Store     Store
	Renderer  *render.Engine
	Exporter  export.Exporter
	FileType  string
	Languages []string
}

const defaultListPerPage = 100

// SubmissionAdmin is the read-only admin shared by both submission models.
type SubmissionAdmin struct {
	meta Meta
	kind models.Kind
	deps Deps

	DateHierarchy      string
	ListDisplay        []string
	ListFilter         []string
	ReadonlyFields     []string
	ListPerPage        int
	ChangeListTemplate string
	ExportForm         ExportFormFactory

	recipients func(models.Submission) []string
}

func newSubmissionAdmin(meta Meta, kind models.Kind, deps Deps) *SubmissionAdmin {
	if deps.FileType == "" {
		deps.FileType = "xlsx"
	}
	return &SubmissionAdmin{
		meta:          meta,
		kind:          kind,
		deps:          deps,
		DateHierarchy: "sent_at",
		ListDisplay:   []string{"__str__", "sent_at", "language"},
		ListFilter:    []string{"name", "language"},
		ReadonlyFields: []string{
			"name",
			"get_data_for_display",
			"language",
			"sent_at",
			"get_recipients_for_display",
		},
		ListPerPage:        defaultListPerPage,
		ChangeListTemplate: "admin/change_list.html",
	}
}

// NewFormSubmissionAdmin administers structured form submissions.
func NewFormSubmissionAdmin(deps Deps) *SubmissionAdmin {
	a := newSubmissionAdmin(Meta{
		AppLabel:          "forms",
		ModelName:         string(models.KindFormSubmission),
		VerboseName:       "form submission",
		VerboseNamePlural: "form submissions",
	}, models.KindFormSubmission, deps)
	a.ReadonlyFields = append(slices.Clone(a.ReadonlyFields), "form_url")
	a.ExportForm = FormSubmissionExportForm
	return a
}

// NewFormDataAdmin administers legacy form data, whose data and recipients
// are stored pre-formatted.
func NewFormDataAdmin(deps Deps) *SubmissionAdmin {
	a := newSubmissionAdmin(Meta{
		AppLabel:          "forms",
		ModelName:         string(models.KindFormData),
		VerboseName:       "form data",
		VerboseNamePlural: "form data",
	}, models.KindFormData, deps)
	a.ReadonlyFields = []string{
		"name",
		"data",
		"language",
		"sent_at",
		"get_recipients_for_display",
	}
	a.ExportForm = FormDataExportForm
	a.recipients = models.Submission.PeopleNotified
	return a
}

func (a *SubmissionAdmin) Meta() Meta { return a.meta }

// HasAddPermission is always false: submissions only come from filled forms.
func (a *SubmissionAdmin) HasAddPermission(c *gin.Context) bool {
	return false
}

func (a *SubmissionAdmin) URLs(site *Site) []Route {
	return []Route{
		{Methods: []string{http.MethodGet, http.MethodPost}, Path: "/export/", View: "export", Handler: a.exportView(site)},
		{Methods: []string{http.MethodGet, http.MethodPost}, Path: "/add/", View: "add", Handler: a.addView(site)},
		{Methods: []string{http.MethodGet}, Path: "/", View: "changelist", Handler: a.changelistView(site)},
		{Methods: []string{http.MethodGet}, Path: "/:id/", View: "change", Handler: a.changeView(site)},
	}
}

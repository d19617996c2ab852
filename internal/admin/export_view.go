package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"formsadmin/internal/export"
	"formsadmin/internal/render"
)

const noRecordsMessage = "No records found"

// exportView serves the filter form on GET and the spreadsheet on a valid POST.
// An empty selection redirects back to the form with a warning.
func (a *SubmissionAdmin) exportView(site *Site) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		exportURL := site.MustReverse(site.URLName(a.meta, "export"))

		names, err := a.deps.Store.DistinctValues(ctx, a.kind, "name")
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		form := a.ExportForm(names, a.deps.Languages)

		if c.Request.Method == http.MethodPost {
			form.Bind(c)
		}

		if form.IsValid() {
			filter := form.Filter()
			exists, err := a.deps.Store.SubmissionsExist(ctx, filter)
			if err != nil {
				_ = c.Error(err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			if !exists {
				site.MessageUser(c, noRecordsMessage, LevelWarning)
				c.Redirect(http.StatusFound, exportURL)
				return
			}

			latest, err := a.deps.Store.LatestSubmission(ctx, filter)
			if err != nil {
				_ = c.Error(err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			rows, err := a.deps.Store.ListSubmissions(ctx, filter)
			if err != nil {
				_ = c.Error(err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}

			doc, err := export.Call(ctx, a.deps.Exporter, export.Request{
				Title:    form.FormName,
				Headers:  export.BuildHeaders(latest),
				Rows:     rows,
				Filename: form.Filename(time.Now()),
			}, a.deps.FileType)
			if err != nil {
				_ = c.Error(err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}

			if drifted := export.Drifted(latest, rows); drifted > 0 {
				log.Warn().
					Str("model", a.meta.Key()).
					Str("form", form.FormName).
					Int("rows", drifted).
					Msg("admin: export rows with a different field layout have blank cells")
			}

			log.Info().
				Str("model", a.meta.Key()).
				Str("form", form.FormName).
				Int("rows", len(rows)).
				Str("file", doc.Filename).
				Msg("admin: export")

			c.Header("Content-Disposition", doc.ContentDisposition())
			c.Data(http.StatusOK, doc.ContentType, doc.Body)
			return
		}

		site.Render(c, http.StatusOK, "admin/export.html", render.Context{
			"opts":           a.opts(),
			"original":       "Export",
			"adminform":      form,
			"errors":         form.Errors(),
			"export_url":     exportURL,
			"changelist_url": site.MustReverse(site.URLName(a.meta, "changelist")),
		})
	}
}

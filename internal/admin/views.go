package admin

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"formsadmin/internal/render"
	"formsadmin/internal/storage"
)

// Choice is one link of a list filter or of the date hierarchy.
type Choice struct {
	Label    string
	URL      string
	Selected bool
}

type FilterGroup struct {
	Title   string
	Choices []Choice
}

type changelistRow struct {
	URL   string
	Cells []string
}

type readonlyField struct {
	Name      string
	Label     string
	Value     string
	AllowTags bool
}

func (a *SubmissionAdmin) opts() render.Context {
	return render.Context{
		"AppLabel":          a.meta.AppLabel,
		"ModelName":         a.meta.ModelName,
		"VerboseName":       a.meta.VerboseName,
		"VerboseNamePlural": a.meta.VerboseNamePlural,
	}
}

func (a *SubmissionAdmin) changelistView(site *Site) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		query := c.Request.URL.Query()

		filter := storage.Filter{
			Kind:     a.kind,
			Name:     query.Get("name"),
			Language: query.Get("language"),
		}
		year, month := dateParams(query)
		filter.SentFrom, filter.SentBefore = periodBounds(year, month)

		count, err := a.deps.Store.CountSubmissions(ctx, filter)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		perPage := a.ListPerPage
		if perPage <= 0 {
			perPage = defaultListPerPage
		}
		pages := max((count+perPage-1)/perPage, 1)
		page, _ := strconv.Atoi(query.Get("p"))
		page = min(max(page, 0), pages-1)

		filter.Limit = perPage
		filter.Offset = page * perPage
		subs, err := a.deps.Store.ListSubmissions(ctx, filter)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		columns := make([]string, 0, len(a.ListDisplay))
		fields := make([]DisplayField, 0, len(a.ListDisplay))
		for _, name := range a.ListDisplay {
			field, ok := a.displayField(name)
			if !ok || field.AllowTags {
				continue
			}
			columns = append(columns, field.Label)
			fields = append(fields, field)
		}

		rows := make([]changelistRow, 0, len(subs))
		for _, sub := range subs {
			row := changelistRow{URL: site.MustReverse(site.URLName(a.meta, "change"), strconv.FormatInt(sub.ID, 10))}
			for _, field := range fields {
				value, err := field.Value(ctx, sub)
				if err != nil {
					_ = c.Error(err)
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				row.Cells = append(row.Cells, value)
			}
			rows = append(rows, row)
		}

		filters, err := a.listFilters(c, query)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		hierarchy, err := a.dateHierarchy(c, query, filter)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		data := render.Context{
			"opts":               a.opts(),
			"columns":            columns,
			"rows":               rows,
			"filters":            filters,
			"date_hierarchy":     hierarchy,
			"result_count":       count,
			"page":               page + 1,
			"pages":              pages,
			"has_add_permission": a.HasAddPermission(c),
			"export_url":         site.MustReverse(site.URLName(a.meta, "export")),
			"add_url":            site.MustReverse(site.URLName(a.meta, "add")),
		}
		if page > 0 {
			data["prev_url"] = withParam(query, "p", strconv.Itoa(page-1))
		}
		if page < pages-1 {
			data["next_url"] = withParam(query, "p", strconv.Itoa(page+1))
		}

		template := a.ChangeListTemplate
		if template == "" {
			template = "admin/change_list.html"
		}
		site.Render(c, http.StatusOK, template, data)
	}
}

func (a *SubmissionAdmin) listFilters(c *gin.Context, query url.Values) ([]FilterGroup, error) {
	groups := make([]FilterGroup, 0, len(a.ListFilter))
	for _, column := range a.ListFilter {
		values, err := a.deps.Store.DistinctValues(c.Request.Context(), a.kind, column)
		if err != nil {
			return nil, err
		}
		current := query.Get(column)
		group := FilterGroup{Title: column}
		group.Choices = append(group.Choices, Choice{Label: "All", URL: withParam(query, column, ""), Selected: current == ""})
		for _, v := range values {
			group.Choices = append(group.Choices, Choice{Label: v, URL: withParam(query, column, v), Selected: current == v})
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (a *SubmissionAdmin) dateHierarchy(c *gin.Context, query url.Values, filter storage.Filter) ([]Choice, error) {
	if a.DateHierarchy == "" {
		return nil, nil
	}
	year, month := dateParams(query)
	ctx := c.Request.Context()

	if year == 0 {
		filter.SentFrom, filter.SentBefore = time.Time{}, time.Time{}
		years, err := a.deps.Store.SentAtPeriods(ctx, filter, 4)
		if err != nil {
			return nil, err
		}
		choices := make([]Choice, 0, len(years))
		for _, y := range years {
			choices = append(choices, Choice{Label: y, URL: withParams(query, map[string]string{"year": y, "month": ""})})
		}
		return choices, nil
	}

	choices := []Choice{{Label: "‹ All dates", URL: withParams(query, map[string]string{"year": "", "month": ""})}}
	filter.SentFrom, filter.SentBefore = periodBounds(year, 0)
	months, err := a.deps.Store.SentAtPeriods(ctx, filter, 7)
	if err != nil {
		return nil, err
	}
	for _, ym := range months {
		t, err := time.Parse("2006-01", ym)
		if err != nil {
			continue
		}
		m := strconv.Itoa(int(t.Month()))
		choices = append(choices, Choice{
			Label:    t.Format("January 2006"),
			URL:      withParams(query, map[string]string{"year": strconv.Itoa(year), "month": m}),
			Selected: int(t.Month()) == month,
		})
	}
	return choices, nil
}

func (a *SubmissionAdmin) addView(site *Site) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.HasAddPermission(c) {
			log.Warn().Str("model", a.meta.Key()).Str("user", c.GetString("username")).Msg("admin: add rejected")
			c.String(http.StatusForbidden, "403 Forbidden")
			c.Abort()
			return
		}
		// no admin in this site grants add permission
		c.String(http.StatusNotImplemented, "adding %s is not supported", a.meta.VerboseNamePlural)
	}
}

func (a *SubmissionAdmin) changeView(site *Site) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.String(http.StatusNotFound, "404 Not Found")
			return
		}
		ctx := c.Request.Context()
		sub, err := a.deps.Store.GetSubmission(ctx, a.kind, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.String(http.StatusNotFound, "404 Not Found")
				return
			}
			_ = c.Error(err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		fields := make([]readonlyField, 0, len(a.ReadonlyFields))
		for _, name := range a.ReadonlyFields {
			field, ok := a.displayField(name)
			if !ok {
				_ = c.Error(fmt.Errorf("admin: unknown readonly field %q on %s", name, a.meta.Key()))
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			value, err := field.Value(ctx, sub)
			if err != nil {
				_ = c.Error(err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			fields = append(fields, readonlyField{Name: name, Label: field.Label, Value: value, AllowTags: field.AllowTags})
		}

		site.Render(c, http.StatusOK, "admin/change_form.html", render.Context{
			"opts":           a.opts(),
			"original":       sub.String(),
			"fields":         fields,
			"changelist_url": site.MustReverse(site.URLName(a.meta, "changelist")),
		})
	}
}

func dateParams(query url.Values) (year, month int) {
	year, _ = strconv.Atoi(query.Get("year"))
	month, _ = strconv.Atoi(query.Get("month"))
	if year <= 0 {
		return 0, 0
	}
	if month < 1 || month > 12 {
		month = 0
	}
	return year, month
}

// periodBounds returns the [from, before) range of a year or month; zero
// times when year is unset.
func periodBounds(year, month int) (time.Time, time.Time) {
	if year == 0 {
		return time.Time{}, time.Time{}
	}
	if month == 0 {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

func withParam(query url.Values, key, value string) string {
	return withParams(query, map[string]string{key: value})
}

// withParams returns a query string based on query with params applied;
// empty values remove the key. Changing a filter always resets paging.
func withParams(query url.Values, params map[string]string) string {
	next := url.Values{}
	for k, v := range query {
		next[k] = append([]string(nil), v...)
	}
	if _, paging := params["p"]; !paging {
		next.Del("p")
	}
	for k, v := range params {
		if v == "" {
			next.Del(k)
			continue
		}
		next.Set(k, v)
	}
	if len(next) == 0 {
		return "?"
	}
	return "?" + next.Encode()
}

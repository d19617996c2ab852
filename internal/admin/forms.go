package admin

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"formsadmin/internal/models"
	"formsadmin/internal/storage"
)

const dateLayout = "2006-01-02"

// NonFieldErrors is the Errors key for problems not tied to one field.
const NonFieldErrors = "non_field"

type exportInput struct {
	FormName string `form:"form_name" binding:"required"`
	Language string `form:"language"`
	FromDate string `form:"from_date" binding:"omitempty,datetime=2006-01-02"`
	ToDate   string `form:"to_date" binding:"omitempty,datetime=2006-01-02"`
}

var inputFieldNames = map[string]string{
	"FormName": "form_name",
	"Language": "language",
	"FromDate": "from_date",
	"ToDate":   "to_date",
}

// ExportForm is the filter form of the export view. An unbound form is never
// valid and carries no errors.
type ExportForm struct {
	Kind            models.Kind
	NameChoices     []string
	LanguageChoices []string

	FormName string
	Language string
	FromDate string
	ToDate   string

	bound  bool
	errors map[string][]string
	from   time.Time
	to     time.Time
}

// ExportFormFactory builds the export form of one model admin.
type ExportFormFactory func(names, languages []string) *ExportForm

// FormSubmissionExportForm filters structured form submissions.
func FormSubmissionExportForm(names, languages []string) *ExportForm {
	return &ExportForm{Kind: models.KindFormSubmission, NameChoices: names, LanguageChoices: languages}
}

// FormDataExportForm filters legacy form data.
func FormDataExportForm(names, languages []string) *ExportForm {
	return &ExportForm{Kind: models.KindFormData, NameChoices: names, LanguageChoices: languages}
}

// Bind reads and validates the posted form values.
func (f *ExportForm) Bind(c *gin.Context) {
	f.bound = true
	f.errors = make(map[string][]string)

	var in exportInput
	err := c.ShouldBindWith(&in, binding.Form)
	f.FormName = strings.TrimSpace(in.FormName)
	f.Language = strings.TrimSpace(in.Language)
	f.FromDate = strings.TrimSpace(in.FromDate)
	f.ToDate = strings.TrimSpace(in.ToDate)

	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			f.addError(NonFieldErrors, "The submitted data could not be read.")
			return
		}
		for _, fe := range verrs {
			f.addError(inputFieldNames[fe.Field()], validationMessage(fe))
		}
	}
	f.clean()
}

func (f *ExportForm) clean() {
	switch {
	case f.FormName == "":
		// The validator sees the untrimmed value, so blanks get here.
		if len(f.errors["form_name"]) == 0 {
			f.addError("form_name", "This field is required.")
		}
	case !slices.Contains(f.NameChoices, f.FormName):
		f.addError("form_name", invalidChoice(f.FormName))
	}
	if f.Language != "" && len(f.LanguageChoices) > 0 && !slices.Contains(f.LanguageChoices, f.Language) {
		f.addError("language", invalidChoice(f.Language))
	}

	var err error
	if f.FromDate != "" && len(f.errors["from_date"]) == 0 {
		if f.from, err = time.ParseInLocation(dateLayout, f.FromDate, time.UTC); err != nil {
			f.addError("from_date", "Enter a valid date.")
		}
	}
	if f.ToDate != "" && len(f.errors["to_date"]) == 0 {
		if f.to, err = time.ParseInLocation(dateLayout, f.ToDate, time.UTC); err != nil {
			f.addError("to_date", "Enter a valid date.")
		}
	}
	if !f.from.IsZero() && !f.to.IsZero() && f.to.Before(f.from) {
		f.addError("to_date", "The end date must not be before the start date.")
	}
}

func (f *ExportForm) addError(field, message string) {
	if field == "" {
		field = NonFieldErrors
	}
	f.errors[field] = append(f.errors[field], message)
}

func (f *ExportForm) IsBound() bool { return f.bound }

func (f *ExportForm) IsValid() bool {
	return f.bound && len(f.errors) == 0
}

// Errors maps form field names to their messages.
func (f *ExportForm) Errors() map[string][]string {
	return f.errors
}

// Filter is the submission query selected by a valid form. Both dates are
// inclusive.
func (f *ExportForm) Filter() storage.Filter {
	filter := storage.Filter{
		Kind:     f.Kind,
		Name:     f.FormName,
		Language: f.Language,
		SentFrom: f.from,
	}
	if !f.to.IsZero() {
		filter.SentBefore = f.to.AddDate(0, 0, 1)
	}
	return filter
}

// Filename is the attachment name without extension.
func (f *ExportForm) Filename(now time.Time) string {
	name := Slugify(f.FormName)
	if name == "" {
		name = "export"
	}
	return name + "-" + now.Format(dateLayout)
}

func invalidChoice(value string) string {
	return fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", value)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "datetime":
		return "Enter a valid date."
	default:
		return "Enter a valid value."
	}
}

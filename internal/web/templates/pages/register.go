package pages

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/services/validation"
	"github.com/mcoot/datathon/internal/web/templates/layout"
)

// YearOptions are the study years offered on the form
var YearOptions = []string{"1st Year", "2nd Year", "3rd Year", "4th Year", "Postgraduate"}

// RegisterData is the data for the registration form
type RegisterData struct {
	layout.PageData
	// Form holds previously submitted values to redisplay
	Form validation.Form
	// Error is the first validation failure, if any
	Error string
	// ErrorField names the field Error refers to
	ErrorField string
}

// Register renders the registration form
func Register(data RegisterData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		f := data.Form
		if f == nil {
			f = validation.Form{}
		}
		if f.Get(validation.FieldName) == "" && f.Get(validation.FieldEmail) == "" && data.Identity != nil {
			f = validation.Form{
				validation.FieldName:  data.Identity.DisplayName,
				validation.FieldEmail: data.Identity.Email,
			}
		}

		var b strings.Builder
		b.WriteString(`<h1>Register</h1>`)
		b.WriteString(`<form id="registrationForm" method="post" action="/register" novalidate>`)
		b.WriteString(`<p class="form-error" id="formError" role="alert"`)
		if data.ErrorField != "" {
			b.WriteString(` data-field="` + layout.E(data.ErrorField) + `"`)
		}
		b.WriteString(`>` + layout.E(data.Error) + `</p>`)

		b.WriteString(`<fieldset><legend>About you</legend>`)
		input(&b, validation.FieldName, "Full name", "text", f, true)
		input(&b, validation.FieldEmail, "Email", "email", f, true)
		input(&b, validation.FieldPhone, "Phone", "tel", f, true)
		input(&b, validation.FieldUniversity, "University", "text", f, true)
		input(&b, validation.FieldDepartment, "Department", "text", f, true)
		selectInput(&b, validation.FieldYear, "Year", YearOptions, YearOptions, f.Get(validation.FieldYear))
		b.WriteString(`</fieldset>`)

		b.WriteString(`<fieldset><legend>Participation</legend>`)
		selectInput(&b, validation.FieldParticipation, "Participation",
			[]string{string(model.ParticipationSolo), string(model.ParticipationTeam)},
			[]string{"Solo", "Team"},
			f.Get(validation.FieldParticipation))

		b.WriteString(`<div id="teamSection">`)
		input(&b, validation.FieldTeamName, "Team name", "text", f, false)
		sizes := make([]string, 0, model.MaxTeamSize-model.MinTeamSize+1)
		for n := model.MinTeamSize; n <= model.MaxTeamSize; n++ {
			sizes = append(sizes, strconv.Itoa(n))
		}
		selectInput(&b, validation.FieldTeamSize, "Team size", sizes, sizes, f.Get(validation.FieldTeamSize))
		for i := 1; i <= model.MaxTeamSize; i++ {
			fmt.Fprintf(&b, `<div class="member" data-member-row="%d"><h3>Member %d</h3>`, i, i)
			input(&b, fmt.Sprintf("member%d_name", i), "Name", "text", f, false)
			input(&b, fmt.Sprintf("member%d_email", i), "Email", "email", f, false)
			b.WriteString(`</div>`)
		}
		b.WriteString(`<input type="hidden" id="team_members" name="team_members" value="` + layout.E(f.Get(validation.FieldTeamMembers)) + `">`)
		b.WriteString(`</div></fieldset>`)

		b.WriteString(`<fieldset><legend>Challenge</legend>`)
		input(&b, validation.FieldProblemStatement, "Problem statement", "text", f, true)
		b.WriteString(`<label class="check"><input type="checkbox" id="consent" name="consent" value="on"`)
		if f.Get(validation.FieldConsent) != "" {
			b.WriteString(` checked`)
		}
		b.WriteString(`> I agree to be contacted about the event</label>`)
		b.WriteString(`</fieldset>`)

		b.WriteString(`<button type="submit" id="submitBtn">Submit registration</button></form>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
	return layout.Base(data.PageData, content)
}

func input(b *strings.Builder, name, label, typ string, f validation.Form, required bool) {
	id := layout.E(name)
	b.WriteString(`<label for="` + id + `">` + layout.E(label) + `</label>`)
	b.WriteString(`<input type="` + typ + `" id="` + id + `" name="` + id + `" value="` + layout.E(f.Get(name)) + `"`)
	if required {
		b.WriteString(` required`)
	}
	b.WriteString(`>`)
}

func selectInput(b *strings.Builder, name, label string, values, labels []string, selected string) {
	id := layout.E(name)
	b.WriteString(`<label for="` + id + `">` + layout.E(label) + `</label>`)
	b.WriteString(`<select id="` + id + `" name="` + id + `"><option value="">Select</option>`)
	for i, v := range values {
		b.WriteString(`<option value="` + layout.E(v) + `"`)
		if v == selected {
			b.WriteString(` selected`)
		}
		b.WriteString(`>` + layout.E(labels[i]) + `</option>`)
	}
	b.WriteString(`</select>`)
}

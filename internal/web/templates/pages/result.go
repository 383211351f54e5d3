package pages

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/mcoot/datathon/internal/model"
	"github.com/mcoot/datathon/internal/web/templates/layout"
)

// SuccessData is the data for the registration confirmation
type SuccessData struct {
	layout.PageData
	Registration *model.Registration
}

// Success renders the confirmation shown after a registration is stored
func Success(data SuccessData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		reg := data.Registration
		var b strings.Builder
		b.WriteString(`<section class="result success" id="registrationSuccess"><h1>You're registered!</h1>`)
		b.WriteString(`<p>Thanks, ` + layout.E(reg.Name) + `. We'll be in touch at ` + layout.E(reg.Email) + `.</p>`)
		b.WriteString(`<dl>`)
		b.WriteString(`<dt>Reference</dt><dd id="registrationId">` + layout.E(string(reg.ID)) + `</dd>`)
		if reg.IsTeam() {
			b.WriteString(`<dt>Team</dt><dd id="teamName">` + layout.E(reg.TeamName) + `</dd>`)
			b.WriteString(`<dt>Members</dt><dd><ul id="teamMembers">`)
			for _, m := range reg.TeamMembers {
				b.WriteString(`<li>` + layout.E(m.Name) + ` (` + layout.E(m.Email) + `)</li>`)
			}
			b.WriteString(`</ul></dd>`)
		}
		b.WriteString(`<dt>Problem statement</dt><dd>` + layout.E(reg.ProblemStatement) + `</dd>`)
		b.WriteString(`</dl><a class="button" href="/">Back to home</a></section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
	return layout.Base(data.PageData, content)
}

// NoticeData is the data for a blocking notice or failure view
type NoticeData struct {
	layout.PageData
	Heading string
	Message string
	// Hint is remediation detail, only set outside production
	Hint string
}

// Notice renders a registration outcome that is not a success
func Notice(data NoticeData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section class="result notice" id="registrationNotice"><h1>` + layout.E(data.Heading) + `</h1>`)
		b.WriteString(`<p class="message" id="noticeMessage">` + layout.E(data.Message) + `</p>`)
		if data.Hint != "" {
			b.WriteString(`<p class="hint" id="noticeHint">` + layout.E(data.Hint) + `</p>`)
		}
		b.WriteString(`<a class="button" href="/">Back to home</a></section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
	return layout.Base(data.PageData, content)
}

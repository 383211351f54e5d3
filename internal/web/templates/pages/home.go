package pages

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/mcoot/datathon/internal/web/templates/layout"
)

// HomeData is the data for the landing page
type HomeData struct {
	layout.PageData
	// Registered is true when the signed-in identity already has a registration
	Registered bool
}

// Home renders the landing page
func Home(data HomeData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section class="hero"><h1>` + layout.SiteName + `</h1>`)
		if data.Identity != nil {
			b.WriteString(`<p class="greeting" id="greeting">Welcome back, ` + layout.E(data.Identity.Name()) + `!</p>`)
		}
		b.WriteString(`<p class="tagline">A day of data, problem statements and teams of up to four.</p>`)
		switch {
		case data.Registered:
			b.WriteString(`<p class="status" id="registrationStatus">You are registered. See you there!</p>`)
		default:
			b.WriteString(`<a class="button" id="registerCta" href="/register">Register now</a>`)
		}
		b.WriteString(`</section>`)
		b.WriteString(`<section class="details"><h2>How it works</h2><ul>`)
		b.WriteString(`<li>Enter solo or as a team of 2 to 4.</li>`)
		b.WriteString(`<li>Pick a problem statement when you register.</li>`)
		b.WriteString(`<li>One registration per person.</li>`)
		b.WriteString(`</ul></section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
	return layout.Base(data.PageData, content)
}

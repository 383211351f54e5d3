// Package layout holds the page chrome shared by every HTML view
package layout

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/mcoot/datathon/internal/model"
)

// SiteName is shown in the title bar and header
const SiteName = "Datathon"

// FlashMessage is a one-shot notice carried across a redirect
type FlashMessage struct {
	Type    string // success, error, info
	Message string
}

// PageData is common to every page
type PageData struct {
	Title       string
	Identity    *model.Identity
	Flash       *FlashMessage
	AuthEnabled bool
}

// Base wraps content in the document shell, navigation and flash banner
func Base(data PageData, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		b.WriteString(`<title>`)
		if data.Title != "" {
			b.WriteString(E(data.Title))
			b.WriteString(" | ")
		}
		b.WriteString(SiteName)
		b.WriteString(`</title><link rel="stylesheet" href="/static/css/style.css"></head><body>`)

		writeNav(&b, data)

		if data.Flash != nil && data.Flash.Message != "" {
			b.WriteString(`<div class="flash flash-` + E(data.Flash.Type) + `" role="status">`)
			b.WriteString(E(data.Flash.Message))
			b.WriteString(`</div>`)
		}

		b.WriteString(`<main>`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := content.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main><footer><p>`+SiteName+`</p></footer></body></html>`)
		return err
	})
}

func writeNav(b *strings.Builder, data PageData) {
	b.WriteString(`<header><nav><a class="brand" href="/">` + SiteName + `</a>`)
	b.WriteString(`<a href="/register">Register</a>`)
	if data.AuthEnabled {
		if data.Identity != nil {
			b.WriteString(`<a href="/dashboard">Dashboard</a>`)
			b.WriteString(`<span class="user" id="navUser">` + E(data.Identity.Name()) + `</span>`)
			b.WriteString(`<a href="/logout">Log out</a>`)
		} else {
			b.WriteString(`<a href="/login">Log in</a>`)
			b.WriteString(`<a href="/signup">Sign up</a>`)
		}
	}
	b.WriteString(`</nav></header>`)
}

// E escapes s for HTML text and attribute values
func E(s string) string {
	return templ.EscapeString(s)
}

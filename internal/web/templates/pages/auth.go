package pages

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/mcoot/datathon/internal/web/templates/layout"
)

// LoginData is the data for the login page
type LoginData struct {
	layout.PageData
	Email string
	Error string
	Next  string
}

// Login renders the login page
func Login(data LoginData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>Log in</h1>`)
		writeError(&b, data.Error)
		b.WriteString(`<form id="loginForm" method="post" action="/login">`)
		b.WriteString(`<input type="hidden" name="next" value="` + layout.E(data.Next) + `">`)
		b.WriteString(`<label for="email">Email</label><input type="email" id="email" name="email" value="` + layout.E(data.Email) + `" required>`)
		b.WriteString(`<label for="password">Password</label><input type="password" id="password" name="password" required>`)
		b.WriteString(`<button type="submit">Log in</button></form>`)
		b.WriteString(`<p>No account? <a href="/signup`)
		if data.Next != "" {
			b.WriteString(`?next=` + layout.E(data.Next))
		}
		b.WriteString(`">Sign up</a></p>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
	return layout.Base(data.PageData, content)
}

// SignupData is the data for the signup page
type SignupData struct {
	layout.PageData
	Email       string
	DisplayName string
	Error       string
	FieldErrors map[string]string
	Next        string
}

// Signup renders the signup page
func Signup(data SignupData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>Create an account</h1>`)
		writeError(&b, data.Error)
		b.WriteString(`<form id="signupForm" method="post" action="/signup">`)
		b.WriteString(`<input type="hidden" name="next" value="` + layout.E(data.Next) + `">`)
		b.WriteString(`<label for="display_name">Name</label><input type="text" id="display_name" name="display_name" value="` + layout.E(data.DisplayName) + `">`)
		writeFieldError(&b, data.FieldErrors, "display_name")
		b.WriteString(`<label for="email">Email</label><input type="email" id="email" name="email" value="` + layout.E(data.Email) + `" required>`)
		writeFieldError(&b, data.FieldErrors, "email")
		b.WriteString(`<label for="password">Password</label><input type="password" id="password" name="password" required>`)
		writeFieldError(&b, data.FieldErrors, "password")
		b.WriteString(`<label for="password_confirm">Confirm password</label><input type="password" id="password_confirm" name="password_confirm" required>`)
		writeFieldError(&b, data.FieldErrors, "password_confirm")
		b.WriteString(`<button type="submit">Sign up</button></form>`)
		b.WriteString(`<p>Already have an account? <a href="/login">Log in</a></p>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
	return layout.Base(data.PageData, content)
}

// DashboardData is the data for the signed-in dashboard
type DashboardData struct {
	layout.PageData
	Registered bool
}

// Dashboard renders the signed-in user's summary
func Dashboard(data DashboardData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>Hello, ` + layout.E(data.Identity.Name()) + `</h1>`)
		b.WriteString(`<p>Signed in as <span id="dashboardEmail">` + layout.E(data.Identity.Email) + `</span>.</p>`)
		if data.Registered {
			b.WriteString(`<p class="status" id="registrationStatus">Your registration is complete.</p>`)
		} else {
			b.WriteString(`<p class="status" id="registrationStatus">You have not registered yet.</p>`)
			b.WriteString(`<a class="button" href="/register">Register now</a>`)
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
	return layout.Base(data.PageData, content)
}

func writeError(b *strings.Builder, msg string) {
	if msg == "" {
		return
	}
	b.WriteString(`<p class="form-error" id="formError" role="alert">` + layout.E(msg) + `</p>`)
}

func writeFieldError(b *strings.Builder, errs map[string]string, field string) {
	if msg := errs[field]; msg != "" {
		b.WriteString(`<p class="field-error" data-field="` + field + `">` + layout.E(msg) + `</p>`)
	}
}

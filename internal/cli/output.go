package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mcoot/datathon/internal/api/response"
	"github.com/mcoot/datathon/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		o.printHealth(v)
	case response.Session:
		o.printSession(v)
	case response.Me:
		o.printMe(v)
	case response.Registration:
		o.printRegistration(v)
	case []*model.Registration:
		o.printRecords(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printHealth(h response.Health) {
	connected := "no"
	if h.Connected {
		connected = "yes"
	}
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
	fmt.Fprintf(o.w, "Connected: %s\n", connected)
}

func (o *Output) printSession(s response.Session) {
	fmt.Fprintf(o.w, "Signed in as %s\n", s.Identity.Email)
	fmt.Fprintf(o.w, "Expires: %s\n", s.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
}

func (o *Output) printMe(m response.Me) {
	fmt.Fprintf(o.w, "User: %s (%s)\n", m.Identity.Email, m.Identity.UserID)
	if m.Identity.DisplayName != "" {
		fmt.Fprintf(o.w, "Name: %s\n", m.Identity.DisplayName)
	}
	if m.Registered {
		fmt.Fprintln(o.w, "Registered: yes")
	} else {
		fmt.Fprintln(o.w, "Registered: no")
	}
}

func (o *Output) printRegistration(r response.Registration) {
	fmt.Fprintf(o.w, "Registered: %s\n", r.ID)
	fmt.Fprintf(o.w, "Participation: %s\n", r.Participation)
	if r.TeamName != "" {
		fmt.Fprintf(o.w, "Team: %s (%d members)\n", r.TeamName, r.TeamSize)
	}
	fmt.Fprintf(o.w, "Stored in: %s\n", r.Backend)
}

func (o *Output) printRecords(records []*model.Registration) {
	if len(records) == 0 {
		fmt.Fprintln(o.w, "No registrations")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REGISTERED AT\tNAME\tEMAIL\tPARTICIPATION\tTEAM")
	for _, r := range records {
		team := "-"
		if r.IsTeam() {
			names := make([]string, len(r.TeamMembers))
			for i, m := range r.TeamMembers {
				names[i] = m.Name
			}
			team = fmt.Sprintf("%s [%s]", r.TeamName, strings.Join(names, ", "))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.RegisteredAt, r.Name, r.Email, r.Participation, team)
	}
	_ = tw.Flush()
	fmt.Fprintf(o.w, "%d registration(s)\n", len(records))
}

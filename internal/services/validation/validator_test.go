package validation

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mcoot/datathon/internal/model"
)

func soloForm() Form {
	return Form{
		FieldName:             "Ann",
		FieldEmail:            "ann@x.com",
		FieldPhone:            "1234567890",
		FieldUniversity:       "X",
		FieldDepartment:       "Computer Science",
		FieldYear:             "2",
		FieldParticipation:    "solo",
		FieldProblemStatement: "Predict bus delays",
	}
}

func teamForm(size int, members []model.Member) Form {
	f := soloForm()
	f[FieldParticipation] = "team"
	f[FieldTeamSize] = strconv.Itoa(size)
	f[FieldTeamName] = "Outliers"
	raw, _ := json.Marshal(members)
	f[FieldTeamMembers] = string(raw)
	return f
}

func members(n int) []model.Member {
	out := make([]model.Member, n)
	for i := range out {
		out[i] = model.Member{Name: "M" + strconv.Itoa(i+1), Email: "m" + strconv.Itoa(i+1) + "@x.com"}
	}
	return out
}

func TestValidateSolo(t *testing.T) {
	form := soloForm()
	form[FieldEmail] = "  Ann@X.com "
	form[FieldConsent] = "on"

	reg, ferr := Validate(form)
	require.Nil(t, ferr)
	assert.Equal(t, "Ann", reg.Name)
	assert.Equal(t, "ann@x.com", reg.Email)
	assert.Equal(t, model.ParticipationSolo, reg.Participation)
	assert.Equal(t, 1, reg.TeamSize)
	assert.Empty(t, reg.TeamName)
	assert.Empty(t, reg.TeamMembers)
	assert.True(t, reg.Consent)
}

func TestValidateSoloIgnoresTeamFields(t *testing.T) {
	form := soloForm()
	form[FieldTeamName] = "ignored"
	form[FieldTeamSize] = "9"

	reg, ferr := Validate(form)
	require.Nil(t, ferr)
	assert.Empty(t, reg.TeamName)
	assert.Equal(t, 1, reg.TeamSize)
}

func TestValidateConsentIsOptional(t *testing.T) {
	reg, ferr := Validate(soloForm())
	require.Nil(t, ferr)
	assert.False(t, reg.Consent)
}

func TestValidateReportsFirstFailure(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(Form)
		field   string
		message string
	}{
		{"missing name", func(f Form) { delete(f, FieldName) }, FieldName, MsgRequired},
		{"blank university", func(f Form) { f[FieldUniversity] = "   " }, FieldUniversity, MsgRequired},
		{"missing beats bad email", func(f Form) { f[FieldEmail] = "nope"; f[FieldYear] = "" }, FieldYear, MsgRequired},
		{"bad email", func(f Form) { f[FieldEmail] = "ann@x" }, FieldEmail, MsgInvalidEmail},
		{"bad email beats bad phone", func(f Form) { f[FieldEmail] = "ann x.com"; f[FieldPhone] = "12" }, FieldEmail, MsgInvalidEmail},
		{"short phone", func(f Form) { f[FieldPhone] = "(555) 123-456" }, FieldPhone, MsgInvalidPhone},
		{"unknown participation", func(f Form) { f[FieldParticipation] = "duo" }, FieldParticipation, MsgParticipation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := soloForm()
			tt.mutate(form)

			reg, ferr := Validate(form)
			assert.Nil(t, reg)
			require.NotNil(t, ferr)
			assert.Equal(t, tt.field, ferr.Field)
			assert.Equal(t, tt.message, ferr.Message)
		})
	}
}

func TestValidatePhoneFormatting(t *testing.T) {
	form := soloForm()
	form[FieldPhone] = "+1 (555) 123-4567"

	reg, ferr := Validate(form)
	require.Nil(t, ferr)
	assert.Equal(t, "+1 (555) 123-4567", reg.Phone)
}

func TestValidateTeam(t *testing.T) {
	reg, ferr := Validate(teamForm(3, members(3)))
	require.Nil(t, ferr)
	assert.Equal(t, model.ParticipationTeam, reg.Participation)
	assert.Equal(t, 3, reg.TeamSize)
	assert.Equal(t, "Outliers", reg.TeamName)
	assert.Equal(t, members(3), reg.TeamMembers)
}

func TestValidateTeamTooFewMembers(t *testing.T) {
	_, ferr := Validate(teamForm(3, members(2)))
	require.NotNil(t, ferr)
	assert.Equal(t, FieldTeamMembers, ferr.Field)
	assert.Equal(t, "Please fill all team member details.", ferr.Message)
}

func TestValidateTeamRules(t *testing.T) {
	tests := []struct {
		name    string
		form    func() Form
		field   string
		message string
	}{
		{"size below range", func() Form { return teamForm(1, members(1)) }, FieldTeamSize, MsgTeamSize},
		{"size above range", func() Form { return teamForm(5, members(5)) }, FieldTeamSize, MsgTeamSize},
		{"size not a number", func() Form {
			f := teamForm(2, members(2))
			f[FieldTeamSize] = "two"
			return f
		}, FieldTeamSize, MsgTeamSize},
		{"missing team name", func() Form {
			f := teamForm(2, members(2))
			f[FieldTeamName] = ""
			return f
		}, FieldTeamName, MsgTeamName},
		{"too many members", func() Form { return teamForm(2, members(3)) }, FieldTeamMembers, MsgMemberDetails},
		{"members not json", func() Form {
			f := teamForm(2, members(2))
			f[FieldTeamMembers] = "{oops"
			return f
		}, FieldTeamMembers, MsgMemberDetails},
		{"member without name", func() Form {
			m := members(2)
			m[1].Name = ""
			return teamForm(2, m)
		}, FieldTeamMembers, "Please enter Member 2 name."},
		{"member with bad email", func() Form {
			m := members(3)
			m[2].Email = "m3"
			return teamForm(3, m)
		}, FieldTeamMembers, "Please enter a valid email for Member 3."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ferr := Validate(tt.form())
			require.NotNil(t, ferr)
			assert.Equal(t, tt.field, ferr.Field)
			assert.Equal(t, tt.message, ferr.Message)
		})
	}
}

func TestValidateTeamFromIndividualInputs(t *testing.T) {
	form := soloForm()
	form[FieldParticipation] = "team"
	form[FieldTeamSize] = "2"
	form[FieldTeamName] = "Outliers"
	form["member2_name"] = "Bo"
	form["member2_email"] = "BO@x.com"

	reg, ferr := Validate(form)
	require.Nil(t, ferr)
	require.Len(t, reg.TeamMembers, 2)
	assert.Equal(t, model.Member{Name: "Ann", Email: "ann@x.com"}, reg.TeamMembers[0], "member 1 defaults to the submitter")
	assert.Equal(t, model.Member{Name: "Bo", Email: "bo@x.com"}, reg.TeamMembers[1])
}

func TestValidateRejectsInvalidUTF8(t *testing.T) {
	form := soloForm()
	form[FieldName] = "Ann\xff"
	// Checked before the required fields
	delete(form, FieldEmail)

	_, ferr := Validate(form)
	require.NotNil(t, ferr)
	assert.Equal(t, FieldName, ferr.Field)
	assert.Equal(t, MsgInvalidText, ferr.Message)
}

func TestValidateLengthCaps(t *testing.T) {
	t.Run("problem statement at cap", func(t *testing.T) {
		form := soloForm()
		form[FieldProblemStatement] = strings.Repeat("é", MaxProblemStatementLength)
		_, ferr := Validate(form)
		assert.Nil(t, ferr)
	})

	t.Run("problem statement over cap", func(t *testing.T) {
		form := soloForm()
		form[FieldProblemStatement] = strings.Repeat("a", MaxProblemStatementLength+1)
		_, ferr := Validate(form)
		require.NotNil(t, ferr)
		assert.Equal(t, FieldProblemStatement, ferr.Field)
		assert.Contains(t, ferr.Message, "5000")
	})

	t.Run("short field over cap", func(t *testing.T) {
		form := soloForm()
		form[FieldUniversity] = strings.Repeat("u", MaxFieldLength+1)
		_, ferr := Validate(form)
		require.NotNil(t, ferr)
		assert.Equal(t, FieldUniversity, ferr.Field)
	})

	t.Run("member name over cap", func(t *testing.T) {
		m := members(2)
		m[1].Name = strings.Repeat("n", MaxFieldLength+1)
		_, ferr := Validate(teamForm(2, m))
		require.NotNil(t, ferr)
		assert.Equal(t, FieldTeamMembers, ferr.Field)
	})
}

func TestFormFromValues(t *testing.T) {
	f := FormFromValues(map[string][]string{"name": {"Ann", "ignored"}, "empty": {}})
	assert.Equal(t, "Ann", f.Get("name"))
	assert.Equal(t, "", f.Get("empty"))
}

// Properties

func TestMissingRequiredFieldAlwaysRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		form := soloForm()
		drop := rapid.SliceOfNDistinct(rapid.SampledFrom(requiredFields), 1, len(requiredFields), rapid.ID[string]).Draw(t, "drop")
		for _, field := range drop {
			if rapid.Bool().Draw(t, "blank") {
				form[field] = strings.Repeat(" ", rapid.IntRange(0, 3).Draw(t, "spaces"))
			} else {
				delete(form, field)
			}
		}

		reg, ferr := Validate(form)
		if reg != nil || ferr == nil || ferr.Message != MsgRequired {
			t.Fatalf("expected required-field error for %v, got %v", drop, ferr)
		}
	})
}

func TestMalformedEmailAlwaysRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		email := rapid.OneOf(
			rapid.StringMatching(`[a-z]{1,8}`),                  // no @
			rapid.StringMatching(`@[a-z]{1,8}\.[a-z]{2,3}`),     // no local part
			rapid.StringMatching(`[a-z]{1,8}@[a-z]{1,8}`),       // no tld
			rapid.StringMatching(`[a-z]{1,4} [a-z]{1,4}@x\.com`), // whitespace
			rapid.StringMatching(`[a-z]{1,8}@@[a-z]{1,8}\.com`), // double @
		).Draw(t, "email")

		form := soloForm()
		form[FieldEmail] = email

		_, ferr := Validate(form)
		if ferr == nil || ferr.Field != FieldEmail {
			t.Fatalf("expected email rejection for %q, got %v", email, ferr)
		}
	})
}

func TestShortPhoneAlwaysRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		digits := rapid.StringMatching(`[0-9]{1,9}`).Draw(t, "digits")
		noise := rapid.StringMatching(`[ ()+.-]{0,6}`).Draw(t, "noise")
		phone := noise + digits + noise

		form := soloForm()
		form[FieldPhone] = phone

		_, ferr := Validate(form)
		if ferr == nil || ferr.Field != FieldPhone {
			t.Fatalf("expected phone rejection for %q, got %v", phone, ferr)
		}
	})
}

func TestTeamAcceptedIffMembersMatchSize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(model.MinTeamSize, model.MaxTeamSize).Draw(t, "size")
		count := rapid.IntRange(0, 6).Draw(t, "count")

		ms := make([]model.Member, count)
		allValid := true
		for i := range ms {
			ms[i] = model.Member{
				Name:  rapid.SampledFrom([]string{"", "Kim", "Lee"}).Draw(t, "name"),
				Email: rapid.SampledFrom([]string{"", "bad", "k@x.com", "l@y.org"}).Draw(t, "email"),
			}
			if ms[i].Name == "" || !IsValidEmail(ms[i].Email) {
				allValid = false
			}
		}

		reg, ferr := Validate(teamForm(size, ms))
		accepted := ferr == nil
		want := count == size && allValid
		if accepted != want {
			t.Fatalf("size=%d members=%+v: accepted=%v want %v (err %v)", size, ms, accepted, want, ferr)
		}
		if accepted && len(reg.TeamMembers) != size {
			t.Fatalf("expected %d members, got %d", size, len(reg.TeamMembers))
		}
	})
}

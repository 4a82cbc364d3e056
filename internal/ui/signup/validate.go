package signup

import (
	"net/mail"
	"regexp"
	"strings"
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

const minPasswordLen = 6

// Form holds the raw signup fields.
type Form struct {
	Handle   string
	Email    string
	Password string
	Confirm  string
}

// Validate returns the problems with f in field order, or nil.
// reserved reports email addresses that may not self-register.
func Validate(f Form, reserved func(email string) bool) []string {
	var problems []string

	if !handlePattern.MatchString(strings.TrimSpace(f.Handle)) {
		problems = append(problems, "Handle must be 3-20 letters, digits or underscores")
	}

	email := strings.TrimSpace(f.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		problems = append(problems, "Enter a valid email address")
	} else if reserved != nil && reserved(email) {
		problems = append(problems, "This email address is reserved")
	}

	if len(f.Password) < minPasswordLen {
		problems = append(problems, "Password must be at least 6 characters")
	}
	if f.Password != f.Confirm {
		problems = append(problems, "Passwords do not match")
	}
	return problems
}

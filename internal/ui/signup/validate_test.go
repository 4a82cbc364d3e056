package signup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fragmede/ojterm/internal/config"
)

func TestValidate(t *testing.T) {
	reserved := config.Default().IsReservedEmail
	ok := Form{Handle: "ada_1", Email: "ada@example.com", Password: "secret1", Confirm: "secret1"}

	tests := []struct {
		name   string
		mutate func(*Form)
		want   []string
	}{
		{"valid", func(*Form) {}, nil},
		{"short handle", func(f *Form) { f.Handle = "ab" }, []string{"Handle must be 3-20 letters, digits or underscores"}},
		{"long handle", func(f *Form) { f.Handle = "abcdefghijklmnopqrstu" }, []string{"Handle must be 3-20 letters, digits or underscores"}},
		{"handle with dash", func(f *Form) { f.Handle = "ada-l" }, []string{"Handle must be 3-20 letters, digits or underscores"}},
		{"bad email", func(f *Form) { f.Email = "ada.example.com" }, []string{"Enter a valid email address"}},
		{"display-name email", func(f *Form) { f.Email = "Ada <ada@example.com>" }, []string{"Enter a valid email address"}},
		{"reserved email", func(f *Form) { f.Email = "admin@adminmail.com" }, []string{"This email address is reserved"}},
		{"short password", func(f *Form) { f.Password, f.Confirm = "12345", "12345" }, []string{"Password must be at least 6 characters"}},
		{"mismatch", func(f *Form) { f.Confirm = "secret2" }, []string{"Passwords do not match"}},
		{"everything wrong", func(f *Form) { *f = Form{Password: "x"} }, []string{
			"Handle must be 3-20 letters, digits or underscores",
			"Enter a valid email address",
			"Password must be at least 6 characters",
			"Passwords do not match",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ok
			tt.mutate(&f)
			assert.Equal(t, tt.want, Validate(f, reserved))
		})
	}
}

func TestValidate_NoReservedList(t *testing.T) {
	f := Form{Handle: "root", Email: "admin@adminmail.com", Password: "secret1", Confirm: "secret1"}
	assert.Empty(t, Validate(f, nil))
}

package mailroom

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "foo@bar.com", NormalizeEmail("  Foo@Bar.COM  "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestSubscribeRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		source  string
		wantErr string
	}{
		{name: "valid", email: "  Foo@Bar.COM ", source: "/about"},
		{name: "empty", email: "   ", wantErr: "Email is required"},
		{name: "malformed", email: "not-an-email", wantErr: "Invalid email address"},
		{name: "too long", email: strings.Repeat("a", 250) + "@b.com", wantErr: "Invalid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := SubscribeRequest{Email: tt.email, Source: tt.source}
			req.Normalize()
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				assert.Equal(t, "foo@bar.com", req.Email)
				return
			}
			assert.Equal(t, ErrInvalid, ErrorCode(err))
			assert.Equal(t, tt.wantErr, ErrorMessage(err))
		})
	}
}

func TestSubscribeRequest_NormalizeTruncatesSource(t *testing.T) {
	req := SubscribeRequest{Email: "a@b.com", Source: "  " + strings.Repeat("é", 300) + "  "}
	req.Normalize()
	assert.Equal(t, maxSourceLength, len([]rune(req.Source)))
}

func TestContactForm_Validate(t *testing.T) {
	valid := func() ContactForm {
		return ContactForm{FullName: " Jane Doe ", Email: "JANE@example.com", Message: " Hi "}
	}

	form := valid()
	form.Normalize()
	assert.NoError(t, form.Validate())
	assert.Equal(t, "Jane Doe", form.FullName)
	assert.Equal(t, "jane@example.com", form.Email)
	assert.Equal(t, "Hi", form.Message)

	tests := []struct {
		name    string
		mutate  func(f *ContactForm)
		wantErr string
	}{
		{name: "no name", mutate: func(f *ContactForm) { f.FullName = "  " }, wantErr: "Full name is required."},
		{name: "long name", mutate: func(f *ContactForm) { f.FullName = strings.Repeat("x", 256) }, wantErr: "Full name is too long."},
		{name: "long phone", mutate: func(f *ContactForm) { f.Phone = strings.Repeat("1", 51) }, wantErr: "Phone number is too long."},
		{name: "no email", mutate: func(f *ContactForm) { f.Email = "" }, wantErr: "Email is required."},
		{name: "bad email", mutate: func(f *ContactForm) { f.Email = "jane" }, wantErr: "Invalid email address."},
		{name: "no message", mutate: func(f *ContactForm) { f.Message = "\n\t" }, wantErr: "Message is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(&f)
			f.Normalize()
			err := f.Validate()
			assert.Equal(t, ErrInvalid, ErrorCode(err))
			assert.Equal(t, tt.wantErr, ErrorMessage(err))
		})
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("foo@bar.com"))
	assert.False(t, ValidEmail("foo@"))
	assert.False(t, ValidEmail(""))
}

func TestValidationError_KeepsMessageVerbatim(t *testing.T) {
	err := validationError(errors.New("bad"), "Email is required", "100% not an email")
	assert.Equal(t, ErrInvalid, ErrorCode(err))
	assert.Equal(t, "100% not an email", ErrorMessage(err))
}

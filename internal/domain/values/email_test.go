package values_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bwbexpress/leadflow-backend/internal/domain/values"
)

func TestNewEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "simple address",
			input: "user@example.com",
			want:  "user@example.com",
		},
		{
			name:  "normalizes case and whitespace",
			input: "  User.Name+tag@Example.COM ",
			want:  "user.name+tag@example.com",
		},
		{
			name:  "subdomain",
			input: "a@mail.example.co.uk",
			want:  "a@mail.example.co.uk",
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "missing at sign",
			input:   "userexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain dot",
			input:   "user@localhost",
			wantErr: true,
		},
		{
			name:    "single char tld",
			input:   "user@example.c",
			wantErr: true,
		},
		{
			name:    "spaces inside",
			input:   "us er@example.com",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   strings.Repeat("a", 250) + "@example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := values.NewEmail(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, email.Address())
		})
	}
}

func TestEmailParts(t *testing.T) {
	email := values.MustNewEmail("foo.bar@mail.example.com")
	assert.Equal(t, "foo.bar", email.LocalPart())
	assert.Equal(t, "mail.example.com", email.Domain())
}

func TestIsDisposableDomain(t *testing.T) {
	tests := []struct {
		name     string
		domain   string
		denylist []string
		want     bool
	}{
		{
			name:   "default denylist hit",
			domain: "mailinator.com",
			want:   true,
		},
		{
			name:   "default denylist hit case-insensitive",
			domain: "MAILINATOR.COM",
			want:   true,
		},
		{
			name:   "default denylist miss",
			domain: "example.com",
			want:   false,
		},
		{
			name:     "custom denylist hit",
			domain:   "burner.io",
			denylist: []string{"burner.io"},
			want:     true,
		},
		{
			name:     "custom denylist does not include defaults",
			domain:   "mailinator.com",
			denylist: []string{"burner.io"},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, values.IsDisposableDomain(tt.domain, tt.denylist))
		})
	}
}

func TestEmailIsDisposable(t *testing.T) {
	assert.True(t, values.MustNewEmail("foo@mailinator.com").IsDisposable(nil))
	assert.False(t, values.MustNewEmail("foo@example.com").IsDisposable(nil))
}

func TestEmailScan(t *testing.T) {
	var email values.Email
	require.NoError(t, email.Scan("user@example.com"))
	assert.Equal(t, "user@example.com", email.Address())

	require.NoError(t, email.Scan(nil))
	assert.True(t, email.IsEmpty())

	assert.Error(t, email.Scan(3.14))
}

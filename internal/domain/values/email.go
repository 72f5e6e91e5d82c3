package values

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Email represents a validated email address value object
type Email struct {
	address string
}

var (
	// Conservative RFC-lite regex: local part, @, domain with at least one dot
	emailRegex = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)
)

// DefaultDisposableDomains lists known throwaway email providers. Verification
// treats a hit as invalid regardless of what DNS says about the domain.
var DefaultDisposableDomains = []string{
	"mailinator.com",
	"guerrillamail.com",
	"10minutemail.com",
}

// NewEmail creates a new Email value object with validation
func NewEmail(address string) (Email, error) {
	if address == "" {
		return Email{}, fmt.Errorf("email address cannot be empty")
	}

	normalized := normalizeEmail(address)

	if !emailRegex.MatchString(normalized) {
		return Email{}, fmt.Errorf("invalid email format: %s", address)
	}

	if len(normalized) > 254 {
		return Email{}, fmt.Errorf("email address too long (max 254 characters)")
	}

	return Email{address: normalized}, nil
}

// MustNewEmail creates Email and panics on error (for constants/tests)
func MustNewEmail(address string) Email {
	email, err := NewEmail(address)
	if err != nil {
		panic(err)
	}
	return email
}

// String returns the email address
func (e Email) String() string {
	return e.address
}

// Address returns the email address (alias for String)
func (e Email) Address() string {
	return e.address
}

// LocalPart returns the local part of the email (before @)
func (e Email) LocalPart() string {
	at := strings.LastIndex(e.address, "@")
	if at < 0 {
		return ""
	}
	return e.address[:at]
}

// Domain returns the domain part of the email (after @)
func (e Email) Domain() string {
	at := strings.LastIndex(e.address, "@")
	if at < 0 {
		return ""
	}
	return e.address[at+1:]
}

// IsEmpty checks if the email is empty
func (e Email) IsEmpty() bool {
	return e.address == ""
}

// Equal checks if two Email values are equal
func (e Email) Equal(other Email) bool {
	return e.address == other.address
}

// IsDisposable checks the email domain against a denylist of throwaway
// providers. A nil denylist falls back to DefaultDisposableDomains.
func (e Email) IsDisposable(denylist []string) bool {
	return IsDisposableDomain(e.Domain(), denylist)
}

// IsDisposableDomain reports whether domain is on the given denylist.
func IsDisposableDomain(domain string, denylist []string) bool {
	if denylist == nil {
		denylist = DefaultDisposableDomains
	}
	for _, d := range denylist {
		if strings.EqualFold(domain, d) {
			return true
		}
	}
	return false
}

// MarshalJSON implements JSON marshaling
func (e Email) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.address)
}

// UnmarshalJSON implements JSON unmarshaling
func (e *Email) UnmarshalJSON(data []byte) error {
	var address string
	if err := json.Unmarshal(data, &address); err != nil {
		return err
	}

	email, err := NewEmail(address)
	if err != nil {
		return err
	}

	*e = email
	return nil
}

// Value implements driver.Valuer for database storage
func (e Email) Value() (driver.Value, error) {
	if e.address == "" {
		return nil, nil
	}
	return e.address, nil
}

// Scan implements sql.Scanner for database retrieval
func (e *Email) Scan(value interface{}) error {
	if value == nil {
		*e = Email{}
		return nil
	}

	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Email", value)
	}

	if str == "" {
		*e = Email{}
		return nil
	}

	email, err := NewEmail(str)
	if err != nil {
		return err
	}

	*e = email
	return nil
}

// Helper functions

func normalizeEmail(address string) string {
	return strings.TrimSpace(strings.ToLower(address))
}

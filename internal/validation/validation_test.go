package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHandle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		handle  string
		wantErr bool
	}{
		{"Valid", "test_user123", false},
		{"Too Short", "tu", true},
		{"Uppercase", "TestUser", true},
		{"Whitespace", "test user", true},
		{"Illegal Chars", "user@123", true},
		{"Starts Digit", "1user", true},
		{"Ends Underscore", "user_", true},
		{"Max Length", strings.Repeat("a", 24), false},
		{"Over Max Length", strings.Repeat("a", 25), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHandle(tt.handle)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "test@example.com", false},
		{"Invalid Format", "not-an-email", true},
		{"Missing Domain", "user@", true},
		{"Multiple At Symbols", "user@@example.com", true},
		{"Space In Local Part", "user @example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass12!@", false},
		{"Too Short", "Small1!", true},
		{"No Upper", "securepass12!", true},
		{"No Lower", "SECUREPASS12!", true},
		{"No Digit", "SecurePass!!", true},
		{"No Special", "SecurePass123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateReportReason(t *testing.T) {
	t.Parallel()
	assert.Error(t, ValidateReportReason("  "))
	assert.Error(t, ValidateReportReason(strings.Repeat("x", 501)))
	assert.NoError(t, ValidateReportReason("Spam"))
}

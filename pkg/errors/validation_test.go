package errors

import (
	"strings"
	"testing"
)

func TestValidateIdentity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "0123456789abcdef0123456789abcdef", false},
		{"valid all letters", strings.Repeat("f", 32), false},

		{"empty", "", true},
		{"too short", "0123456789abcdef", true},
		{"too long", strings.Repeat("a", 33), true},
		{"upper case", strings.Repeat("A", 32), true},
		{"uuid with dashes", "01234567-89ab-cdef-0123-456789abcdef", true},
		{"path traversal", "../" + strings.Repeat("a", 29), true},
		{"slash", strings.Repeat("a", 16) + "/" + strings.Repeat("a", 15), true},
		{"null byte", strings.Repeat("a", 31) + "\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentity(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidIdentity) {
				t.Errorf("ValidateIdentity(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateDir(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "temp", false},
		{"absolute", "/var/lib/latex2image/output", false},
		{"nested", "data/output", false},
		{"dots in name", "v1.2/output", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 600), true},
		{"traversal", "../../etc", true},
		{"traversal middle", "data/../etc", true},
		{"null byte", "temp\x00", true},
		{"newline", "temp\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDir(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDir(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeMissingInput,
		ErrCodeInvalidScale,
		ErrCodeInvalidFormat,
		ErrCodeUnsupportedCommand,
		ErrCodeInvalidIdentity,
		ErrCodeCompilationTimeout,
		ErrCodeCompilation,
		ErrCodeTranscode,
		ErrCodeWorkspaceConflict,
		ErrCodeInternal,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}

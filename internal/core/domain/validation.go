package domain

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinTitleLength = 3
	MaxTitleLength = 100
	MinOptions     = 2
	MaxOptions     = 10
	CodeLength     = 6
	MinNameLength  = 2
	MaxNameLength  = 50
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	n := utf8.RuneCountInString(title)
	if n < MinTitleLength {
		return &ValidationError{Field: "title", Reason: "title must be at least 3 characters"}
	}
	if n > MaxTitleLength {
		return &ValidationError{Field: "title", Reason: "title must be at most 100 characters"}
	}
	return nil
}

// NormalizeOptions trims every option, drops blank ones and checks the
// remaining set: 2 to 10 entries, no duplicates ignoring case.
func NormalizeOptions(options []string) ([]string, error) {
	normalized := make([]string, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		text := strings.TrimSpace(opt)
		if text == "" {
			continue
		}
		key := strings.ToLower(text)
		if _, dup := seen[key]; dup {
			return nil, &ValidationError{Field: "options", Reason: "duplicate option " + text}
		}
		seen[key] = struct{}{}
		normalized = append(normalized, text)
	}

	if len(normalized) < MinOptions {
		return nil, &ValidationError{Field: "options", Reason: "at least two options are required"}
	}
	if len(normalized) > MaxOptions {
		return nil, &ValidationError{Field: "options", Reason: "at most ten options are allowed"}
	}
	return normalized, nil
}

// NormalizeCode upper-cases code and checks its shape.
func NormalizeCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if !codePattern.MatchString(normalized) {
		return "", &ValidationError{Field: "code", Reason: "code must be 6 letters or digits"}
	}
	return normalized, nil
}

func ValidateUserName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	n := utf8.RuneCountInString(name)
	if n < MinNameLength || n > MaxNameLength {
		return &ValidationError{Field: "name", Reason: "name must be 2-50 characters"}
	}
	return nil
}

// GenerateCode returns a random 6 character code over A-Z and 0-9.
func GenerateCode() (string, error) {
	var b strings.Builder
	b.Grow(CodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

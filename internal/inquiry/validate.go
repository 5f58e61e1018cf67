package inquiry

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength    = 100
	maxSubjectLength = 200
	maxMessageLength = 5000
)

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	markupRunesOut = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "")
)

type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func sanitize(field, value string, maxLength int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ValidationError{Message: fmt.Sprintf("%s cannot be empty", field)}
	}
	if !utf8.ValidString(value) {
		return "", ValidationError{Message: fmt.Sprintf("%s is invalid", field)}
	}

	cleaned := markupRunesOut.Replace(value)
	if utf8.RuneCountInString(cleaned) > maxLength {
		return "", ValidationError{Message: fmt.Sprintf("%s is too long (max %d characters)", field, maxLength)}
	}

	return cleaned, nil
}

// Normalize trims and strips markup characters from every field and checks
// lengths and the email format.
func Normalize(input Input) (Input, error) {
	var err error
	out := Input{}

	if out.Name, err = sanitize("name", input.Name, maxNameLength); err != nil {
		return Input{}, err
	}
	out.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if !emailRegex.MatchString(out.Email) {
		return Input{}, ValidationError{Message: "invalid email format"}
	}
	if out.Subject, err = sanitize("subject", input.Subject, maxSubjectLength); err != nil {
		return Input{}, err
	}
	if out.Message, err = sanitize("message", input.Message, maxMessageLength); err != nil {
		return Input{}, err
	}

	return out, nil
}

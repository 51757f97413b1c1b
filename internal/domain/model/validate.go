package model

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Messages produced by ValidateDraft. MapFieldErrors relies on each message
// naming its field.
const (
	MsgNameTooShort  = "Name must be at least 3 characters"
	MsgInvalidURL    = "URL must be a valid git URL (https://... or git@...)"
	MsgMissingBranch = "Branch must be provided"
)

const minNameLength = 3

// gitURLPattern accepts http(s) and scp-style ssh git addresses.
var gitURLPattern = regexp.MustCompile(`(?i)^(https?://|git@)[\w@:/.\-~]+(\.git)?$`)

// Validation is the outcome of validating a draft. Errors keeps the order in
// which the rules are checked: name, url, branch.
type Validation struct {
	OK     bool
	Errors []string
}

// ValidateDraft checks the required fields of a candidate repository. Every
// rule is evaluated; no rule short-circuits another.
func ValidateDraft(name, url, branch string) Validation {
	var errs []string

	if utf8.RuneCountInString(strings.TrimSpace(name)) < minNameLength {
		errs = append(errs, MsgNameTooShort)
	}

	if !gitURLPattern.MatchString(strings.TrimSpace(url)) {
		errs = append(errs, MsgInvalidURL)
	}

	if strings.TrimSpace(branch) == "" {
		errs = append(errs, MsgMissingBranch)
	}

	return Validation{
		OK:     len(errs) == 0,
		Errors: errs,
	}
}

// FieldErrors holds at most one inline message per validated form field.
type FieldErrors struct {
	Name   string
	URL    string
	Branch string
}

// Empty reports whether no field carries a message.
func (f FieldErrors) Empty() bool {
	return f.Name == "" && f.URL == "" && f.Branch == ""
}

// MapFieldErrors attributes each message to the first field whose name it
// mentions, checking name, then url, then branch. Unattributable messages are
// dropped.
func MapFieldErrors(errs []string) FieldErrors {
	var fe FieldErrors
	for _, msg := range errs {
		lower := strings.ToLower(msg)
		switch {
		case strings.Contains(lower, "name"):
			fe.Name = msg
		case strings.Contains(lower, "url"):
			fe.URL = msg
		case strings.Contains(lower, "branch"):
			fe.Branch = msg
		}
	}
	return fe
}

// ValidationError is returned when a draft is rejected before submission.
type ValidationError struct {
	Validation Validation
}

// Fields maps the validation messages onto form fields.
func (e *ValidationError) Fields() FieldErrors {
	return MapFieldErrors(e.Validation.Errors)
}

func (e *ValidationError) Error() string {
	return "invalid repository: " + strings.Join(e.Validation.Errors, "; ")
}

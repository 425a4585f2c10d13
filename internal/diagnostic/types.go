package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"field-publisher/internal/common"
)

// Diagnostics collects the findings of one check, split by severity.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic is a single finding.
type Diagnostic struct {
	Severity DiagnosticSeverity
	// Code is a stable snake_case identifier such as "unknown_struct".
	Code    string
	Message string
	// Subject names the mapping, struct or entry concerned, if any.
	Subject string
	// Key is the published key concerned, if any.
	Key string
	// Suggestions are names the author may have meant.
	Suggestions []string
}

type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// Add files d under its severity.
func (d *Diagnostics) Add(diag Diagnostic) {
	switch diag.Severity {
	case DiagnosticError:
		d.Errors = append(d.Errors, diag)
	case DiagnosticWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Infos = append(d.Infos, diag)
	}
}

func (d *Diagnostics) AddError(code, message, subject, key string) {
	d.Add(Diagnostic{Severity: DiagnosticError, Code: code, Message: message, Subject: subject, Key: key})
}

func (d *Diagnostics) AddWarning(code, message, subject, key string) {
	d.Add(Diagnostic{Severity: DiagnosticWarning, Code: code, Message: message, Subject: subject, Key: key})
}

func (d *Diagnostics) AddInfo(code, message, subject, key string) {
	d.Add(Diagnostic{Severity: DiagnosticInfo, Code: code, Message: message, Subject: subject, Key: key})
}

// AddErrorWithSuggestions adds an error listing the names the author may have
// meant. An empty suggestion list is allowed.
func (d *Diagnostics) AddErrorWithSuggestions(code, message, subject, key string, suggestions []string) {
	d.Add(Diagnostic{
		Severity:    DiagnosticError,
		Code:        code,
		Message:     message,
		Subject:     subject,
		Key:         key,
		Suggestions: suggestions,
	})
}

// All returns errors, then warnings, then infos.
func (d *Diagnostics) All() []Diagnostic {
	all := make([]Diagnostic, 0, d.Count())
	all = append(all, d.Errors...)
	all = append(all, d.Warnings...)

	return append(all, d.Infos...)
}

func (d *Diagnostics) Count() int {
	return len(d.Errors) + len(d.Warnings) + len(d.Infos)
}

func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

func (d *Diagnostics) Merge(other Diagnostics) {
	for _, diag := range other.All() {
		d.Add(diag)
	}
}

// IsValid reports whether no error was found. Warnings do not count.
func (d *Diagnostics) IsValid() bool {
	return !d.HasErrors()
}

// Error joins every error diagnostic into one error, or returns nil.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	parts := make([]string, len(d.Errors))
	for i, e := range d.Errors {
		parts[i] = e.String()
	}

	return errors.New(strings.Join(parts, "; "))
}

// String formats d as "[subject] key: [code] message (did you mean a, b?)".
func (d Diagnostic) String() string {
	var where []string
	if d.Subject != "" {
		where = append(where, "["+d.Subject+"]")
	}

	if d.Key != "" {
		where = append(where, d.Key)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if !common.IsEmpty(d.Suggestions) {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if common.IsEmpty(where) {
		return msg
	}

	return strings.Join(where, " ") + ": " + msg
}

// Package deployerr defines the single error type returned while loading a
// repository's deployment configuration.
//
// Every failure carries a human readable description and, when one can be
// named, the subject it is attributed to: a dotted configuration key such as
// "branch.staging.notify_url", a branch ("branch.staging"), or a file path.
package deployerr

import (
	"errors"
	"fmt"
)

// Kind classifies a configuration failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindIO is a missing or unreadable configuration file.
	KindIO
	// KindParse is a malformed document.
	KindParse
	// KindStructure is a missing or wrongly shaped section.
	KindStructure
	// KindType is a key present with a non-string value.
	KindType
	// KindValue is a string outside the accepted set of values.
	KindValue
	// KindCrossField is a branch whose keys, combined with the defaults,
	// cannot produce a task.
	KindCrossField
	// KindPath is a referenced file that does not exist.
	KindPath
	// KindTask is a build task that cannot be resolved for the project.
	KindTask
)

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindIO:         "io",
	KindParse:      "parse",
	KindStructure:  "structure",
	KindType:       "type",
	KindValue:      "value",
	KindCrossField: "cross-field",
	KindPath:       "path",
	KindTask:       "task",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a configuration failure.
type Error struct {
	Kind    Kind
	Desc    string
	Subject string
	Err     error
}

// New returns an error without an underlying cause.
func New(kind Kind, desc, subject string) *Error {
	return &Error{Kind: kind, Desc: desc, Subject: subject}
}

// Wrap returns an error recording cause as the underlying failure.
func Wrap(kind Kind, desc, subject string, cause error) *Error {
	return &Error{Kind: kind, Desc: desc, Subject: subject, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Desc
	if e.Subject != "" {
		msg = e.Subject + ": " + msg
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// SubjectOf returns the subject of the first *Error in err's chain.
func SubjectOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Subject
	}
	return ""
}

package core

// These errors are user errors: rule text that doesn't parse or names
// that aren't registered.  Evaluation never returns an error; it
// returns sentinels.

import (
	"errors"
	"strconv"
)

// ParseError occurs when rule, expression, predicate, or clause text
// is malformed.
type ParseError struct {
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return e.Msg + ` in "` + e.Text + `"`
}

// UnknownName occurs when well-formed text refers to a name that
// isn't registered.
//
// Warning is true when the reference is plausibly just unconfigured
// in this run (an unknown condition or state, for example), as
// opposed to a name that can never be right.
type UnknownName struct {
	// Kind is what sort of name it should have been: "condition",
	// "state", "group", "network", "variable", "function", ...
	Kind    string
	Name    string
	Text    string
	Warning bool
}

func (e *UnknownName) Error() string {
	s := `unknown ` + e.Kind + ` "` + e.Name + `"`
	if e.Text != "" && e.Text != e.Name {
		s += ` in "` + e.Text + `"`
	}
	return s
}

// ArgCountError occurs when a function, predicate, or action gets the
// wrong number of arguments.
type ArgCountError struct {
	Name string
	Text string
	Want string
	Got  int
}

func (e *ArgCountError) Error() string {
	return e.Name + ` wants ` + e.Want + ` argument(s) but got ` +
		strconv.Itoa(e.Got) + ` in "` + e.Text + `"`
}

// RuleError wraps an error that occurred while parsing or compiling
// a Rule.
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string {
	return e.Err.Error() + `: rule "` + e.Rule + `"`
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// IsWarning reports whether err only indicates a reference to
// something that isn't configured in this run.
func IsWarning(err error) bool {
	var u *UnknownName
	if errors.As(err, &u) {
		return u.Warning
	}
	return false
}

var (
	// ErrSealed occurs when a name is added to a sealed Registry.
	ErrSealed = errors.New("registry is sealed")

	// ErrNotSealed occurs when a Rule is compiled before its
	// Registry is sealed.
	ErrNotSealed = errors.New("registry is not sealed")

	// ErrNotParsed occurs when a Rule is compiled before it has
	// been parsed.
	ErrNotParsed = errors.New("rule not parsed")

	// ErrDuplicateName occurs when a name is registered twice.
	ErrDuplicateName = errors.New("duplicate name")
)

func parseErr(text, msg string) error {
	return &ParseError{Text: text, Msg: msg}
}

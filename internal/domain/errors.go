package domain

import (
	"errors"
	"fmt"
)

// Error kinds raised by the rules core. Match them with errors.Is.
var (
	// ErrConfiguration reports a card or deck that could never have been dealt.
	ErrConfiguration = errors.New("configuration error")
	// ErrInput reports a malformed request from a caller or the network layer.
	ErrInput = errors.New("input error")
	// ErrConsistency reports a state the rules make impossible, such as a tied trick.
	ErrConsistency = errors.New("consistency error")
	// ErrIndex reports a seat or team index outside the table.
	ErrIndex = errors.New("index error")
)

// RuleError carries the failing operation alongside its error kind.
type RuleError struct {
	Kind error
	Op   string
	Msg  string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

// Unwrap exposes the kind so errors.Is(err, ErrInput) works.
func (e *RuleError) Unwrap() error {
	return e.Kind
}

func newRuleError(kind error, op, format string, args ...any) error {
	return &RuleError{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsFatalToHand reports whether err must abort the current hand.
func IsFatalToHand(err error) bool {
	return errors.Is(err, ErrConsistency) || errors.Is(err, ErrIndex)
}

package paxos

import "github.com/pkg/errors"

// ErrProposerNotReady is the sentinel wrapped into the panic raised when
// Proposer.Result is called before a round has reached a decision. Calling
// Result early is a caller bug, not a protocol condition, so it is not
// returned as an error.
var ErrProposerNotReady = errors.New("paxos: proposer: round not yet decided")

// ErrProviderMisuse is the sentinel wrapped into the panic raised when a
// Provider is asked to do something its directory invariants forbid, such
// as registering a second proposer under a key already in use.
var ErrProviderMisuse = errors.New("paxos: provider: invariant violated")

// errWrap wraps sentinel with message and returns the result, for panic
// call sites that need a single expression.
func errWrap(sentinel error, message string) error {
	return errors.Wrap(sentinel, message)
}

// errProviderWrap wraps ErrProviderMisuse with message, for call sites
// reporting a precondition violation: a bad constructor argument, or a
// second proposer registered for the same (slot, ballot).
func errProviderWrap(message string) error {
	return errors.Wrap(ErrProviderMisuse, message)
}

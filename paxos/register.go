package paxos

import "context"

// Register is a one-shot read/write façade over a single slot: Write drives
// one proposer round to completion and Read performs one learner quorum
// read, each a single round trip from the caller's perspective. It exists
// for callers that want Paxos-backed storage without touching the
// Proposer/Learner/Role plumbing directly.
type Register struct {
	provider *Provider
	slot     uint64
}

// NewRegister returns a façade over the given slot, wired against provider.
func NewRegister(provider *Provider, slot uint64) *Register {
	return &Register{provider: provider, slot: slot}
}

// Write proposes value for this register's slot and blocks until the
// proposer has reached its decision, which happens when it sends its
// Phase2A batch after a Phase1B quorum; it does not wait for Phase2B acks.
// It returns the value actually decided (which may differ from value if a
// recovered in-flight value won the round).
func (r *Register) Write(ctx context.Context, value Value) (Value, error) {
	return r.provider.proposeAndAwait(ctx, r.slot, value)
}

// Read performs a quorum read of this register's slot and blocks until a
// quorum of acceptors agree on a value, returning it with ok=true. While a
// quorum reports no accepted value the learner keeps polling, so on a slot
// with nothing decided Read returns a nil Value, ok=false, and ctx's error
// once ctx is done.
func (r *Register) Read(ctx context.Context) (Value, bool, error) {
	return r.provider.queryAndAwait(ctx, r.slot)
}

package paxos

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/certichain/protocol-combinators/actor"
	"github.com/certichain/protocol-combinators/status"
	"github.com/go-kit/kit/log"
)

// proposerKey identifies one proposer round: a given slot can have many
// rounds over time (one per ballot), and Provider must refuse to start two
// rounds for the same (Slot, Ballot) pair rather than silently letting the
// second one clobber the first's bookkeeping.
type proposerKey struct {
	Slot   uint64
	Ballot Ballot
}

// Provider is the only component in this package that touches the actor
// runtime: it owns the identity-to-mailbox directory, spawns the acceptor
// pool, and is the factory proposers and learners are created through. All
// message routing between role instances flows through Provider.route,
// which is the in-process stand-in for whatever transport a deployment
// would otherwise use.
//
// Every acceptor is spawned once as a fixed-identity actor, but internally
// wraps a SlotReplicator that lazily builds a fresh Acceptor per slot the
// first time that slot addresses it. Proposers and learners are already
// created fresh per round/read; wrapping their mailbox handlers with the
// SlotMessage envelope (rather than a SlotReplicator, since each instance
// only ever serves the one slot it was made for) is what lets their
// outbound Phase1A/Phase2A/QueryAcceptor reach the right per-slot acceptor
// state, and their inbound replies find their way back. The net effect is
// that no two slots ever share acceptor state, satisfying multi-decree
// independence.
type Provider struct {
	runtime *actor.Runtime
	logger  log.Logger
	metrics *Metrics

	mu          sync.Mutex
	mailboxes   map[ID]*actor.Actor
	acceptorIDs []ID
	quorum      int
	workerCount int
	selfID      uint32

	proposers map[proposerKey]*Proposer
	rounds    map[uint64]uint64 // per-slot ballot round counter
}

// ProviderOption configures a Provider at construction time.
type ProviderOption func(*Provider)

// WithProviderLogger overrides the provider's go-kit logger.
func WithProviderLogger(logger log.Logger) ProviderOption {
	return func(p *Provider) { p.logger = logger }
}

// WithProviderMetrics attaches a Metrics instance the provider updates as
// proposers and learners come and go.
func WithProviderMetrics(m *Metrics) ProviderOption {
	return func(p *Provider) { p.metrics = m }
}

// WithWorkerCount sets the logical shard count Provider.shardFor reduces
// slot numbers by. The default is 1. A slot's shard is only reported, in
// the proposer_started log line; it does not change which goroutine runs
// any actor, since every actor has its own.
func WithWorkerCount(n int) ProviderOption {
	return func(p *Provider) {
		if n > 0 {
			p.workerCount = n
		}
	}
}

// NewProvider constructs a Provider with numAcceptors acceptors spawned
// against runtime, each wired as its own actor holding one per-slot Acceptor
// instance per slot it has ever seen. selfID identifies this provider's
// proposers in the ballot's ProposerID field, so that multiple providers
// sharing the same acceptor pool can never produce colliding ballots.
func NewProvider(runtime *actor.Runtime, numAcceptors int, selfID uint32, opts ...ProviderOption) *Provider {
	if numAcceptors <= 0 {
		panic(errProviderWrap("paxos: NewProvider: numAcceptors must be positive"))
	}
	p := &Provider{
		runtime:     runtime,
		logger:      log.NewNopLogger(),
		mailboxes:   make(map[ID]*actor.Actor),
		quorum:      numAcceptors/2 + 1,
		workerCount: 1,
		selfID:      selfID,
		proposers:   make(map[proposerKey]*Proposer),
		rounds:      make(map[uint64]uint64),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := 0; i < numAcceptors; i++ {
		id := NewID()
		replicator := NewSlotReplicator(func(slot uint64) Role {
			return NewAcceptor(NewID())
		})
		a := runtime.Spawn(func(msg interface{}) {
			p.route(replicator.Step(msg))
		})
		p.mailboxes[id] = a
		p.acceptorIDs = append(p.acceptorIDs, id)
	}
	return p
}

// shardFor reports the logical shard a given slot is assigned to, by taking
// the slot number modulo the worker count.
func (p *Provider) shardFor(slot uint64) int {
	return int(slot % uint64(p.workerCount))
}

// route delivers every Outbound to its destination's mailbox, dropping
// (with a log line) any message addressed to an ID this provider has no
// mailbox for.
func (p *Provider) route(out []Outbound) {
	for _, o := range out {
		p.send(o.To, o.Msg)
	}
}

func (p *Provider) send(to ID, msg interface{}) {
	p.mu.Lock()
	a, ok := p.mailboxes[to]
	p.mu.Unlock()
	if !ok {
		p.logger.Log("event", "undeliverable", "to", to.String())
		return
	}
	a.Mailbox.Send(msg)
}

// nextBallot allocates the next ballot this provider will drive a proposer
// round for slot under. Each slot keeps its own round counter, so ballots
// in one slot never constrain or interact with ballots in another.
func (p *Provider) nextBallot(slot uint64) Ballot {
	p.mu.Lock()
	p.rounds[slot]++
	round := p.rounds[slot]
	p.mu.Unlock()
	return NewBallot(round, p.selfID)
}

// wrapSlot tags every outbound message with slot, the SlotMessage envelope
// the acceptor pool's per-slot dispatch expects.
func wrapSlot(slot uint64, out []Outbound) []Outbound {
	wrapped := make([]Outbound, len(out))
	for i, o := range out {
		wrapped[i] = Outbound{To: o.To, Msg: SlotMessage{Slot: slot, Inner: o.Msg}}
	}
	return wrapped
}

// unwrapSlot extracts msg's Inner payload if it is a SlotMessage addressed
// to slot, and reports whether it was.
func unwrapSlot(slot uint64, msg interface{}) (interface{}, bool) {
	sm, ok := msg.(SlotMessage)
	if !ok || sm.Slot != slot {
		return nil, false
	}
	return sm.Inner, true
}

// MakeProposer registers and wires a fresh Proposer for (slot, ballot). It
// panics, wrapping ErrProviderMisuse, if a proposer already exists for that
// exact (slot, ballot) pair: retrying a round must reuse a new ballot, not
// resubmit the same one.
func (p *Provider) MakeProposer(slot uint64, ballot Ballot) *Proposer {
	key := proposerKey{Slot: slot, Ballot: ballot}

	p.mu.Lock()
	if _, exists := p.proposers[key]; exists {
		p.mu.Unlock()
		panic(errProviderWrap(fmt.Sprintf("paxos: MakeProposer: proposer for slot %d ballot %v already exists", slot, ballot)))
	}
	id := NewID()
	prop := NewProposer(id, ballot, p.acceptorIDs, p.quorum)
	p.proposers[key] = prop
	a := p.runtime.Spawn(func(msg interface{}) {
		inner, ok := unwrapSlot(slot, msg)
		if !ok {
			return
		}
		p.route(wrapSlot(slot, prop.Step(inner)))
	})
	p.mailboxes[id] = a
	p.mu.Unlock()

	p.logger.Log("event", "proposer_started", "slot", slot, "ballot", ballot.String(), "shard", p.shardFor(slot))

	if p.metrics != nil {
		p.metrics.LiveProposers.Inc()
	}
	return prop
}

// MakeLearner registers and wires a fresh Learner for slot. Unlike
// proposers, a slot may have many successive ad hoc learners (one per
// Register.Read call); each gets a fresh ID and is torn down after use by
// the caller driving it.
func (p *Provider) MakeLearner(slot uint64) *Learner {
	id := NewID()
	l := NewLearner(id, p.acceptorIDs, p.quorum)

	p.mu.Lock()
	a := p.runtime.Spawn(func(msg interface{}) {
		inner, ok := unwrapSlot(slot, msg)
		if !ok {
			return
		}
		p.route(wrapSlot(slot, l.Step(inner)))
	})
	p.mailboxes[id] = a
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.LiveLearners.Inc()
	}
	return l
}

// retireProposer removes a finished proposer's actor and directory entry.
func (p *Provider) retireProposer(key proposerKey, id ID) {
	p.mu.Lock()
	a, ok := p.mailboxes[id]
	delete(p.mailboxes, id)
	delete(p.proposers, key)
	p.mu.Unlock()
	if ok {
		a.Stop()
	}
	if p.metrics != nil {
		p.metrics.LiveProposers.Dec()
	}
}

func (p *Provider) retireLearner(id ID) {
	p.mu.Lock()
	a, ok := p.mailboxes[id]
	delete(p.mailboxes, id)
	p.mu.Unlock()
	if ok {
		a.Stop()
	}
	if p.metrics != nil {
		p.metrics.LiveLearners.Dec()
	}
}

// proposeAndAwait drives one full proposer round for slot to completion,
// blocking until a decision is reached or ctx is done. It is the engine
// behind Register.Write.
func (p *Provider) proposeAndAwait(ctx context.Context, slot uint64, value Value) (Value, error) {
	ballot := p.nextBallot(slot)
	started := time.Now()
	prop := p.MakeProposer(slot, ballot)
	key := proposerKey{Slot: slot, Ballot: ballot}

	done := make(chan Value, 1)
	prop.decideHook = func(v Value) { done <- v }

	defer p.retireProposer(key, prop.self)

	out := prop.Start(value)
	p.route(wrapSlot(slot, out))

	select {
	case v := <-done:
		if p.metrics != nil {
			p.metrics.DecisionSpan.Observe(time.Since(started).Seconds())
		}
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// queryAndAwait performs one quorum read of slot, blocking until a quorum
// of acceptors agree on a value or ctx is done. It is the engine behind
// Register.Read.
func (p *Provider) queryAndAwait(ctx context.Context, slot uint64) (Value, bool, error) {
	learner := p.MakeLearner(slot)

	done := make(chan Value, 1)
	learner.doneHook = func(v Value) { done <- v }

	defer p.retireLearner(learner.self)

	out := learner.Poll()
	p.route(wrapSlot(slot, out))

	select {
	case v := <-done:
		return v, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Status writes a human-readable snapshot to sc: the acceptor, quorum and
// worker counts, then one line per live proposer. Learners, acceptor state
// and slots are not listed.
func (p *Provider) Status(sc *status.Consumer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sc.Emit("acceptors: %d, quorum: %d, workers: %d", len(p.acceptorIDs), p.quorum, p.workerCount)
	child := sc.Fork()
	for key := range p.proposers {
		child.Emit("proposer slot=%d ballot=%v", key.Slot, key.Ballot)
	}
	child.Join()
}

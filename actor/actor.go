// Package actor implements the minimal mailbox runtime the paxos package's
// Provider is built against: one goroutine per actor, draining a buffered
// inbox, so that every role instance's Step method is only ever called
// serially from a single goroutine.
//
// This is a deliberately small stand-in for the production actor framework
// (an external module, not part of this repository) that the core's
// external-interfaces section treats as a consumed collaborator. Within
// package paxos only the Provider (provider.go) imports this package — it is
// the only seam between the two.
package actor

import (
	"fmt"

	"github.com/go-kit/kit/log"
)

// ID is a stable address for one actor's mailbox.
type ID uint64

// Handler processes one message delivered to an actor. It runs on the
// actor's own goroutine only.
type Handler func(msg interface{})

// Mailbox is the send-side handle returned to callers that want to deliver
// a message to an actor without holding a reference to the actor itself.
type Mailbox struct {
	id     ID
	inbox  chan interface{}
	logger log.Logger
}

// Send enqueues msg for delivery. It blocks if the actor's inbox is full —
// a deliberately conservative choice over silently dropping messages; the
// runtime does not buffer unboundedly.
func (m *Mailbox) Send(msg interface{}) {
	m.inbox <- msg
}

// ID reports the stable address of this mailbox.
func (m *Mailbox) ID() ID { return m.id }

// Actor owns one goroutine draining one inbox and invoking a Handler for
// each delivered message.
type Actor struct {
	Mailbox *Mailbox
	done    chan struct{}
}

// Runtime spawns actors and tracks enough state to assign each one a
// distinct, stable ID; it is the concrete "actor runtime" the core's
// external-interfaces section names as a consumed collaborator.
type Runtime struct {
	logger  log.Logger
	nextID  ID
	inboxSz int
}

// NewRuntime constructs a Runtime. inboxSize bounds each actor's mailbox
// depth; NewRuntime panics if inboxSize <= 0.
func NewRuntime(logger log.Logger, inboxSize int) *Runtime {
	if inboxSize <= 0 {
		panic(fmt.Sprintf("actor: NewRuntime: inboxSize must be positive, got %d", inboxSize))
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Runtime{logger: logger, inboxSz: inboxSize}
}

// Spawn starts a new actor running handler on its own goroutine and returns
// the Actor, whose Mailbox field is its send-side handle. The actor runs
// until Stop is called on the returned Actor.
func (r *Runtime) Spawn(handler Handler) *Actor {
	r.nextID++
	id := r.nextID
	mbox := &Mailbox{
		id:     id,
		inbox:  make(chan interface{}, r.inboxSz),
		logger: log.With(r.logger, "actor", id),
	}
	a := &Actor{
		Mailbox: mbox,
		done:    make(chan struct{}),
	}
	go a.run(handler)
	return a
}

func (a *Actor) run(handler Handler) {
	defer close(a.done)
	for msg := range a.Mailbox.inbox {
		if _, ok := msg.(stopSentinel); ok {
			return
		}
		handler(msg)
	}
}

type stopSentinel struct{}

// Stop asks the actor's goroutine to exit after draining any messages
// already enqueued, and waits for it to do so.
func (a *Actor) Stop() {
	a.Mailbox.inbox <- stopSentinel{}
	<-a.done
}

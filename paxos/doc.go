// Package paxos implements the core of a Paxos-family consensus library:
// the three classical roles (Acceptor, Proposer, Learner) as pure
// message-step state machines, and the combinators that lift them into
// multi-decree (slot-replicated), batched, and stoppable operation.
//
// Every role is expressed independently of any transport: Step takes one
// inbound message and returns the outbound messages it produces. Nothing in
// this package sends a message itself; that is the job of the actor runtime
// a Provider is wired against (see package actor for one such runtime).
package paxos

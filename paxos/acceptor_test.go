package paxos

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcceptorPromisesHigherBallot(t *testing.T) {
	self, proposer := NewID(), NewID()
	a := NewAcceptor(self)

	out := a.Step(Phase1A{Ballot: NewBallot(1, 1), From: proposer})
	require.Len(t, out, 1)
	require.Equal(t, proposer, out[0].To)
	reply, ok := out[0].Msg.(Phase1B)
	require.True(t, ok)
	require.True(t, reply.Promise)
	require.False(t, reply.Accepted.Present)
}

func TestAcceptorRefusesStaleBallot(t *testing.T) {
	self, proposer := NewID(), NewID()
	a := NewAcceptor(self)

	a.Step(Phase1A{Ballot: NewBallot(5, 1), From: proposer})
	out := a.Step(Phase1A{Ballot: NewBallot(3, 2), From: proposer})
	require.Empty(t, out)
}

func TestAcceptorDefaultDisciplineAcceptsReplay(t *testing.T) {
	self, proposer := NewID(), NewID()
	a := NewAcceptor(self)

	b := NewBallot(1, 1)
	out1 := a.Step(Phase1A{Ballot: b, From: proposer})
	out2 := a.Step(Phase1A{Ballot: b, From: proposer})
	require.Len(t, out1, 1)
	require.Len(t, out2, 1)
}

func TestAcceptorStrictDisciplineRejectsReplay(t *testing.T) {
	self, proposer := NewID(), NewID()
	a := NewAcceptor(self, WithStrictBallotDiscipline())

	b := NewBallot(1, 1)
	out1 := a.Step(Phase1A{Ballot: b, From: proposer})
	out2 := a.Step(Phase1A{Ballot: b, From: proposer})
	require.Len(t, out1, 1)
	require.Empty(t, out2)
}

func TestAcceptorAcceptsThenReportsValue(t *testing.T) {
	self, proposer, learner := NewID(), NewID(), NewID()
	a := NewAcceptor(self)

	b := NewBallot(1, 1)
	a.Step(Phase1A{Ballot: b, From: proposer})
	out := a.Step(Phase2A{Ballot: b, From: proposer, Value: Value("v1")})
	require.Len(t, out, 1)
	ack, ok := out[0].Msg.(Phase2B)
	require.True(t, ok)
	require.True(t, ack.Ack)

	out = a.Step(QueryAcceptor{Requester: learner})
	require.Len(t, out, 1)
	val, ok := out[0].Msg.(ValueAcc)
	require.True(t, ok)
	require.True(t, val.Value.Present)
	require.True(t, val.Value.Value.Equal(Value("v1")))
}

func TestAcceptorRejectsPhase2AAtLowerBallotThanPromised(t *testing.T) {
	self, proposer := NewID(), NewID()
	a := NewAcceptor(self)

	a.Step(Phase1A{Ballot: NewBallot(5, 1), From: proposer})
	out := a.Step(Phase2A{Ballot: NewBallot(3, 1), From: proposer, Value: Value("v1")})
	require.Empty(t, out, "a stale Phase2A is dropped, not NACKed")
}

func TestAcceptorRejectsPhase2AAtHigherBallotThanPromised(t *testing.T) {
	self, proposer := NewID(), NewID()
	a := NewAcceptor(self)

	a.Step(Phase1A{Ballot: NewBallot(5, 1), From: proposer})
	out := a.Step(Phase2A{Ballot: NewBallot(7, 1), From: proposer, Value: Value("v1")})
	require.Empty(t, out, "a Phase2A must match the promised ballot exactly, not merely be admissible")
}

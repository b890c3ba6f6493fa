package paxos

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newAcceptorPool(n int) ([]ID, map[ID]Role) {
	ids := make([]ID, n)
	roles := make(map[ID]Role, n)
	for i := range ids {
		ids[i] = NewID()
		roles[ids[i]] = NewAcceptor(ids[i])
	}
	return ids, roles
}

func TestHappyPathSingleDecree(t *testing.T) {
	acceptorIDs, roles := newAcceptorPool(5)
	quorum := 3

	propID := NewID()
	prop := NewProposer(propID, NewBallot(1, 1), acceptorIDs, quorum)
	roles[propID] = prop

	net := newNetwork(roles)
	net.run(prop.Start(Value("hello")), 1000)

	require.True(t, prop.Decided())
	require.True(t, prop.Result().Equal(Value("hello")))

	learnerID := NewID()
	learner := NewLearner(learnerID, acceptorIDs, quorum)
	roles[learnerID] = learner

	net.run(learner.Poll(), 1000)
	v, ok := learner.Result()
	require.True(t, ok)
	require.True(t, v.Equal(Value("hello")))
}

func TestProposerRecoversInFlightValue(t *testing.T) {
	acceptorIDs, roles := newAcceptorPool(5)
	quorum := 3

	firstID := NewID()
	first := NewProposer(firstID, NewBallot(1, 1), acceptorIDs, quorum)
	roles[firstID] = first
	net := newNetwork(roles)
	net.run(first.Start(Value("first")), 1000)
	require.True(t, first.Decided())

	secondID := NewID()
	second := NewProposer(secondID, NewBallot(2, 2), acceptorIDs, quorum)
	roles[secondID] = second
	net.run(second.Start(Value("second")), 1000)

	require.True(t, second.Decided())
	require.True(t, second.Result().Equal(Value("first")),
		"a later ballot must recover the earlier decided value rather than overwrite it")
}

func TestStaleProposerCannotDecide(t *testing.T) {
	acceptorIDs, roles := newAcceptorPool(5)
	quorum := 3

	highID := NewID()
	high := NewProposer(highID, NewBallot(5, 1), acceptorIDs, quorum)
	roles[highID] = high
	net := newNetwork(roles)
	net.run(high.Start(Value("high")), 1000)
	require.True(t, high.Decided())

	lowID := NewID()
	low := NewProposer(lowID, NewBallot(2, 2), acceptorIDs, quorum)
	roles[lowID] = low
	net.run(low.Start(Value("low")), 1000)

	require.False(t, low.Decided())
}

func TestLearnerWaitsWhenNoGroupReachesMajority(t *testing.T) {
	// Three acceptors, each holding a distinct accepted value at a distinct
	// ballot: no value, and not "none" either, commands a majority of 2. The
	// learner must not report a winner, and since no equivalence group ever
	// reaches quorum it must not restart on its own either.
	a1, a2, a3 := NewID(), NewID(), NewID()
	roles := map[ID]Role{
		a1: NewAcceptor(a1),
		a2: NewAcceptor(a2),
		a3: NewAcceptor(a3),
	}
	acceptorIDs := []ID{a1, a2, a3}

	roles[a1].(*Acceptor).accepted = AcceptedValue{Present: true, Ballot: NewBallot(1, 1), Value: Value("x")}
	roles[a1].(*Acceptor).promised = NewBallot(1, 1)
	roles[a2].(*Acceptor).accepted = AcceptedValue{Present: true, Ballot: NewBallot(2, 2), Value: Value("y")}
	roles[a2].(*Acceptor).promised = NewBallot(2, 2)
	// a3 has nothing accepted.

	learnerID := NewID()
	learner := NewLearner(learnerID, acceptorIDs, 2)
	roles[learnerID] = learner

	queries := learner.Poll()
	require.Len(t, queries, 3)
	for _, q := range queries {
		replies := roles[q.To].Step(q.Msg)
		for _, r := range replies {
			out := learner.Step(r.Msg)
			require.Empty(t, out, "no group has majority yet, so the learner must neither decide nor restart")
		}
	}

	_, ok := learner.Result()
	require.False(t, ok, "no value holds a majority, so the learner must not report one")
}

func TestLearnerRestartsOnMajorityNone(t *testing.T) {
	// Three acceptors, two of which have accepted nothing: a majority of 2
	// reporting no accepted value must restart the poll immediately, without
	// waiting on the third acceptor.
	a1, a2, a3 := NewID(), NewID(), NewID()
	acceptorIDs := []ID{a1, a2, a3}
	learnerID := NewID()
	learner := NewLearner(learnerID, acceptorIDs, 2)

	queries := learner.Poll()
	require.Len(t, queries, 3)

	out := learner.Step(ValueAcc{From: a1, Value: AcceptedValue{}})
	require.Empty(t, out, "only one of two required none-replies has arrived so far")

	out = learner.Step(ValueAcc{From: a2, Value: AcceptedValue{}})
	require.Len(t, out, 3, "a majority reporting no accepted value must restart the poll")
	for _, o := range out {
		_, ok := o.Msg.(QueryAcceptor)
		require.True(t, ok)
	}
}

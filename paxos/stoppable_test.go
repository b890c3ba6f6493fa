package paxos

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// driveWindow pushes a window's Phase1A batch through a set of bare
// Acceptor instances and feeds every resulting Phase1B back into stoppable
// as a SlotMessage for the given slot, returning whatever Phase2A batch
// the combinator (with its veto applied) emits in response. It stands in
// for the slot-tagging a real transport adapter performs when it already
// knows, out of band, which window a reply belongs to.
func driveWindow(t *testing.T, stoppable *Stoppable, acceptors map[ID]*Acceptor, slot uint64, phase1a []Outbound) []Outbound {
	t.Helper()
	var phase2a []Outbound
	for _, o := range phase1a {
		p1a, ok := o.Msg.(Phase1A)
		require.True(t, ok)
		acc, ok := acceptors[o.To]
		require.True(t, ok)
		replies := acc.Step(p1a)
		for _, r := range replies {
			phase2a = append(phase2a, stoppable.Step(SlotMessage{Slot: slot, Inner: r.Msg})...)
		}
	}
	return phase2a
}

// decodePhase2A unwraps the SlotMessage envelope a Stoppable's Step returns
// and asserts the inner payload is a Phase2A.
func decodePhase2A(t *testing.T, msg interface{}) Phase2A {
	t.Helper()
	sm, ok := msg.(SlotMessage)
	require.True(t, ok)
	p2a, ok := sm.Inner.(Phase2A)
	require.True(t, ok)
	return p2a
}

func newBareAcceptors(n int) ([]ID, map[ID]*Acceptor) {
	ids := make([]ID, n)
	accs := make(map[ID]*Acceptor, n)
	for i := range ids {
		ids[i] = NewID()
		accs[ids[i]] = NewAcceptor(ids[i])
	}
	return ids, accs
}

func TestStoppableVoidsDataAfterEarlierStop(t *testing.T) {
	acceptorIDs, accs := newBareAcceptors(5)
	quorum := 3

	replicator := NewSlotReplicator(func(slot uint64) Role {
		return NewProposer(NewID(), NewBallot(1, 1), acceptorIDs, quorum)
	})
	stoppable := NewStoppable(replicator)

	stopP1A := stoppable.OpenWindow([]uint64{0}, DataOrStop{Kind: KindStop, StopID: "halt-1"})
	driveWindow(t, stoppable, accs, 0, stopP1A)

	stopSlot, ok := stoppable.StopSlot()
	require.True(t, ok)
	require.Equal(t, uint64(0), stopSlot)

	dataP1A := stoppable.OpenWindow([]uint64{1}, DataOrStop{Kind: KindData, Data: Value("late")})
	phase2a := driveWindow(t, stoppable, accs, 1, dataP1A)
	require.NotEmpty(t, phase2a)
	for _, o := range phase2a {
		p2a := decodePhase2A(t, o.Msg)
		decoded := decodeDataOrStop(p2a.Value)
		require.Equal(t, KindVoided, decoded.Kind, "a decree at a slot after an observed stop must be voided")
		require.Equal(t, reasonDataAfterEarlierStop, decoded.Reason)
	}
}

func TestStoppableVoidsStopBeforeLaterEqualBallotData(t *testing.T) {
	acceptorIDs, accs := newBareAcceptors(5)
	quorum := 3

	replicator := NewSlotReplicator(func(slot uint64) Role {
		return NewProposer(NewID(), NewBallot(1, 1), acceptorIDs, quorum)
	})
	stoppable := NewStoppable(replicator)

	// Slot 5 decides an ordinary Data decree first, at ballot 1.
	dataP1A := stoppable.OpenWindow([]uint64{5}, DataOrStop{Kind: KindData, Data: Value("later-data")})
	dataPhase2a := driveWindow(t, stoppable, accs, 5, dataP1A)
	require.NotEmpty(t, dataPhase2a)
	for _, o := range dataPhase2a {
		p2a := decodePhase2A(t, o.Msg)
		decoded := decodeDataOrStop(p2a.Value)
		require.Equal(t, KindData, decoded.Kind)
	}

	// Slot 3 now proposes a Stop at the same ballot. Slot 5 already carries
	// a non-Stop decree at a ballot >= the Stop's, so the Stop must be
	// voided instead of the earlier Data.
	stopP1A := stoppable.OpenWindow([]uint64{3}, DataOrStop{Kind: KindStop, StopID: "halt-3"})
	stopPhase2a := driveWindow(t, stoppable, accs, 3, stopP1A)
	require.NotEmpty(t, stopPhase2a)
	for _, o := range stopPhase2a {
		p2a := decodePhase2A(t, o.Msg)
		decoded := decodeDataOrStop(p2a.Value)
		require.Equal(t, KindVoided, decoded.Kind, "a stop preceded by a later, equal-or-higher-ballot data decree must be voided")
		require.Equal(t, reasonStopAfterLaterData, decoded.Reason)
	}

	_, ok := stoppable.StopSlot()
	require.False(t, ok, "the voided stop must not be observable as a live stop")
}

func TestStoppableAllowsDataBeforeObservedStop(t *testing.T) {
	acceptorIDs, accs := newBareAcceptors(5)
	quorum := 3

	replicator := NewSlotReplicator(func(slot uint64) Role {
		return NewProposer(NewID(), NewBallot(1, 1), acceptorIDs, quorum)
	})
	stoppable := NewStoppable(replicator)

	dataP1A := stoppable.OpenWindow([]uint64{0}, DataOrStop{Kind: KindData, Data: Value("early")})
	phase2a := driveWindow(t, stoppable, accs, 0, dataP1A)
	require.NotEmpty(t, phase2a)
	for _, o := range phase2a {
		p2a := decodePhase2A(t, o.Msg)
		decoded := decodeDataOrStop(p2a.Value)
		require.Equal(t, KindData, decoded.Kind)
		require.True(t, decoded.Data.Equal(Value("early")))
	}
}

package paxos

// Reason strings the stoppable veto attaches to a Voided payload, naming
// exactly which cross-slot condition triggered the substitution.
const (
	reasonDataAfterEarlierStop = "Data (Earlier Stop)"
	reasonStopAfterLaterData   = "Stop (Later Data)"
)

// Stoppable wraps a Bunch of DataOrStop-valued proposers with the
// post-processing veto rule stoppable Paxos adds on top of ordinary
// multi-decree Paxos: once a Stop decree is chosen at slot j, no later slot
// may decide a Data entry at a ballot at or above the Stop's, because a Stop
// at j means the replicated sequence ends there and anything proposed for a
// later slot can never be applied. Symmetrically, a Stop proposed at slot i
// is itself voided if a later slot already carries a non-Stop decree at a
// ballot at or above the Stop's: the later Data already won, so the Stop
// cannot retroactively end the sequence before it.
//
// The rule is enforced by rewriting outbound Phase2A payloads rather than
// refusing to send them: an acceptor and learner never see a raw veto, only
// a Voided decree with a Reason, which keeps the safety argument entirely
// inside the proposer side of the protocol.
type Stoppable struct {
	bunch *Bunch
}

// NewStoppable wraps replicator (whose factory must build Proposer
// instances agreeing on DataOrStop-shaped Values) with the stoppable veto
// rule.
func NewStoppable(replicator *SlotReplicator) *Stoppable {
	s := &Stoppable{}
	s.bunch = NewBunch(replicator, s.postProcess)
	return s
}

// OpenWindow starts a proposer round for every slot in slots, each
// proposing value. The veto itself is applied later, from postProcess, once
// each slot's Phase2A is actually about to go out and every other slot's
// latest proposal is known.
func (s *Stoppable) OpenWindow(slots []uint64, value DataOrStop) []Outbound {
	return s.bunch.OpenWindow(slots, encodeDataOrStop(value))
}

// Step implements Role, delegating to the wrapped Bunch; the veto is
// applied from postProcess, which Bunch invokes on every outbound batch.
func (s *Stoppable) Step(msg interface{}) []Outbound {
	return s.bunch.Step(msg)
}

// postProcess is the Bunch post-processing hook: it inspects every Phase2A
// actually going out for slot against the snapshot of every other slot's
// latest proposal and rewrites the payload to Voided if the cross-slot veto
// rule requires it.
func (s *Stoppable) postProcess(slot uint64, out []Outbound) []Outbound {
	for i, o := range out {
		sm, ok := o.Msg.(SlotMessage)
		if !ok {
			continue
		}
		p2a, ok := sm.Inner.(Phase2A)
		if !ok {
			continue
		}
		dos := decodeDataOrStop(p2a.Value)
		reason, voided := s.veto(slot, p2a.Ballot, dos)
		if !voided {
			continue
		}
		p2a.Value = encodeDataOrStop(DataOrStop{Kind: KindVoided, Reason: reason})
		sm.Inner = p2a
		out[i].Msg = sm
	}
	return out
}

// veto decides whether the decree about to be sent for slot must be voided,
// consulting every other slot this Stoppable has ever seen propose. Slots
// that have not proposed yet are treated as (None, -1) and never trigger
// either direction of the rule.
func (s *Stoppable) veto(slot uint64, ballot Ballot, dos DataOrStop) (reason string, voided bool) {
	switch dos.Kind {
	case KindData:
		for _, j := range s.bunch.Slots() {
			if j >= slot {
				continue
			}
			other := s.bunch.Meta(j)
			if !other.HasProposed {
				continue
			}
			if decodeDataOrStop(other.Payload).Kind == KindStop {
				return reasonDataAfterEarlierStop, true
			}
		}
	case KindStop:
		for _, j := range s.bunch.Slots() {
			if j <= slot {
				continue
			}
			other := s.bunch.Meta(j)
			if !other.HasProposed {
				continue
			}
			if decodeDataOrStop(other.Payload).Kind != KindStop && !other.Ballot.Less(ballot) {
				return reasonStopAfterLaterData, true
			}
		}
	}
	return "", false
}

// StopSlot reports the lowest slot a (non-voided, as last observed) Stop
// has been proposed at, if any.
func (s *Stoppable) StopSlot() (slot uint64, ok bool) {
	found := false
	var lowest uint64
	for _, j := range s.bunch.Slots() {
		meta := s.bunch.Meta(j)
		if !meta.HasProposed || decodeDataOrStop(meta.Payload).Kind != KindStop {
			continue
		}
		if !found || j < lowest {
			lowest = j
			found = true
		}
	}
	return lowest, found
}

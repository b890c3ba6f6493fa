package paxos

// SlotMeta records the per-slot bookkeeping the bunching combinator needs to
// decide, for each slot it has ever touched, whether a Phase2A has already
// gone out for that slot's chosen value at the current ballot.
type SlotMeta struct {
	HasProposed bool
	Ballot      Ballot
	Payload     Value
}

// Bunch lifts a SlotReplicator of proposers into a combinator that opens
// rounds for a window of slots at once and keeps, across calls, a record of
// the latest Phase2A each slot has sent out. OpenWindow concatenates the
// Phase1A messages of every slot in the window; each slot's proposer still
// runs its own phase 1 at the ballot its factory gave it, and each Step
// call returns only the output of the one slot it was addressed to. Phase2A
// messages of different slots are not merged into one batch.
type Bunch struct {
	replicator *SlotReplicator
	meta       map[uint64]*SlotMeta
	postProc   func(slot uint64, out []Outbound) []Outbound
}

// NewBunch wraps replicator, whose factory must build Proposer instances,
// with bunching bookkeeping. postProcess, if non-nil, is applied to every
// slot's outbound batch before it is merged into the combinator's return
// value; it is the seam the stoppable combinator uses to veto decrees.
func NewBunch(replicator *SlotReplicator, postProcess func(slot uint64, out []Outbound) []Outbound) *Bunch {
	return &Bunch{
		replicator: replicator,
		meta:       make(map[uint64]*SlotMeta),
		postProc:   postProcess,
	}
}

// OpenWindow starts a proposer round for every slot in slots, each proposing
// value, and returns the merged Phase1A batch for the whole window.
func (b *Bunch) OpenWindow(slots []uint64, value Value) []Outbound {
	var out []Outbound
	for _, slot := range slots {
		inst := b.replicator.Ensure(slot)
		prop, ok := inst.(*Proposer)
		if !ok {
			continue
		}
		if _, exists := b.meta[slot]; !exists {
			b.meta[slot] = &SlotMeta{Ballot: prop.Ballot()}
		}
		out = append(out, prop.Start(value)...)
	}
	return out
}

// Step implements Role. It unwraps a SlotMessage, routes it to the slot's
// proposer, applies postProcess (if any), records from the post-processed
// batch whether that slot has now produced its Phase2A and what it carried,
// and returns that batch for this one delivery. Because callers drive a Bunch with one SlotMessage per call,
// "bunching" here means the combinator's bookkeeping spans calls: repeated
// calls across the slots in a window accumulate into the same meta table,
// so a Bunch can always answer which slots in its window are still
// undecided.
func (b *Bunch) Step(msg interface{}) []Outbound {
	sm, ok := msg.(SlotMessage)
	if !ok {
		return nil
	}
	out := b.replicator.Step(msg)

	meta, exists := b.meta[sm.Slot]
	if !exists {
		meta = &SlotMeta{}
		b.meta[sm.Slot] = meta
	}
	if b.postProc != nil {
		out = b.postProc(sm.Slot, out)
	}
	for _, o := range out {
		wrapped, ok := o.Msg.(SlotMessage)
		if !ok {
			continue
		}
		if p2a, ok := wrapped.Inner.(Phase2A); ok {
			meta.HasProposed = true
			meta.Ballot = p2a.Ballot
			meta.Payload = p2a.Value
		}
	}
	return out
}

// Proposed reports whether the given slot's proposer has emitted a Phase2A
// in this window, and the value it proposed if so.
func (b *Bunch) Proposed(slot uint64) (Value, bool) {
	meta, ok := b.meta[slot]
	if !ok || !meta.HasProposed {
		return nil, false
	}
	return meta.Payload, true
}

// Meta returns the bookkeeping for slot, creating an empty entry if none
// exists yet.
func (b *Bunch) Meta(slot uint64) *SlotMeta {
	meta, ok := b.meta[slot]
	if !ok {
		meta = &SlotMeta{}
		b.meta[slot] = meta
	}
	return meta
}

// Slots returns every slot this Bunch has touched, in no particular order.
func (b *Bunch) Slots() []uint64 {
	out := make([]uint64, 0, len(b.meta))
	for slot := range b.meta {
		out = append(out, slot)
	}
	return out
}

package paxos

// SlotFactory builds a fresh Role instance for a slot the first time that
// slot is addressed. Provider supplies one for each of its acceptors;
// its proposers and learners each serve a single slot and are not built
// through a factory.
type SlotFactory func(slot uint64) Role

// SlotReplicator lifts a single-decree Role factory into a multi-decree
// combinator: every inbound SlotMessage is dispatched to the Role instance
// for its Slot, lazily creating that instance on first use. Each slot's
// state machine runs fully independently of every other slot's, which is
// multi-decree Paxos's defining property.
type SlotReplicator struct {
	factory   SlotFactory
	instances map[uint64]Role
}

// NewSlotReplicator constructs a combinator that creates per-slot role
// instances with factory.
func NewSlotReplicator(factory SlotFactory) *SlotReplicator {
	return &SlotReplicator{factory: factory, instances: make(map[uint64]Role)}
}

// Step implements Role, unwrapping a SlotMessage and dispatching its Inner
// payload to the role instance for its Slot. Messages that are not a
// SlotMessage are ignored: a SlotReplicator only speaks the slot-addressed
// dialect. Every outbound message the instance produces is re-wrapped with
// the same Slot before being returned, so a reply can cross back through
// another SlotReplicator (or this one) and still land on the right
// per-slot instance.
func (s *SlotReplicator) Step(msg interface{}) []Outbound {
	sm, ok := msg.(SlotMessage)
	if !ok {
		return nil
	}
	inst, ok := s.instances[sm.Slot]
	if !ok {
		inst = s.factory(sm.Slot)
		s.instances[sm.Slot] = inst
	}
	out := inst.Step(sm.Inner)
	wrapped := make([]Outbound, len(out))
	for i, o := range out {
		wrapped[i] = Outbound{To: o.To, Msg: SlotMessage{Slot: sm.Slot, Inner: o.Msg}}
	}
	return wrapped
}

// Instance returns the role instance for slot if one has been created, and
// whether it exists. It does not create one.
func (s *SlotReplicator) Instance(slot uint64) (Role, bool) {
	inst, ok := s.instances[slot]
	return inst, ok
}

// Ensure returns the role instance for slot, creating it via factory if
// this is the first reference to that slot.
func (s *SlotReplicator) Ensure(slot uint64) Role {
	inst, ok := s.instances[slot]
	if !ok {
		inst = s.factory(slot)
		s.instances[slot] = inst
	}
	return inst
}

// Slots returns the slot numbers with a live instance, in no particular
// order.
func (s *SlotReplicator) Slots() []uint64 {
	out := make([]uint64, 0, len(s.instances))
	for slot := range s.instances {
		out = append(out, slot)
	}
	return out
}

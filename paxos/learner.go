package paxos

// learnerPhase tracks whether a Learner has an outstanding quorum read.
type learnerPhase int

const (
	learnerIdle learnerPhase = iota
	learnerPolling
)

// Learner determines the agreed value by polling every acceptor for its
// current accepted value and waiting for a quorum to agree on the same one.
// If a quorum of replies report no accepted value at all, the learner
// discards the round and polls again; while no group of equal replies
// (including the no-value group) has reached quorum, it keeps waiting for
// more replies. It never reports a value without quorum agreement on that
// exact value.
type Learner struct {
	self      ID
	acceptors []ID
	quorum    int

	phase     learnerPhase
	responses map[ID]AcceptedValue
	waiters   []ID

	// doneHook, if set, is invoked with the agreed value the moment quorum
	// agreement is reached, independent of the waiters list. Provider uses
	// it to bridge back to a caller blocked in Provider.queryAndAwait.
	doneHook func(Value)

	logger func(format string, args ...interface{})
}

// NewLearner constructs a Learner that polls the given acceptors and
// requires quorum agreeing replies before reporting a value.
func NewLearner(self ID, acceptors []ID, quorum int) *Learner {
	if quorum <= 0 || quorum > len(acceptors) {
		panic(errProviderWrap("paxos: NewLearner: quorum must be in [1, len(acceptors)]"))
	}
	return &Learner{
		self:      self,
		acceptors: append([]ID(nil), acceptors...),
		quorum:    quorum,
		responses: make(map[ID]AcceptedValue, len(acceptors)),
		logger:    DebugLog,
	}
}

// Poll begins (or restarts) a read, broadcasting QueryAcceptor to every
// acceptor. Calling it again abandons any in-flight round and starts fresh.
func (l *Learner) Poll() []Outbound {
	l.phase = learnerPolling
	l.responses = make(map[ID]AcceptedValue, len(l.acceptors))
	out := make([]Outbound, 0, len(l.acceptors))
	for _, acc := range l.acceptors {
		out = append(out, Outbound{To: acc, Msg: QueryAcceptor{Requester: l.self}})
	}
	return out
}

// Step implements Role. It recognizes ValueAcc and QueryLearner.
func (l *Learner) Step(msg interface{}) []Outbound {
	switch m := msg.(type) {
	case ValueAcc:
		return l.stepValueAcc(m)
	case QueryLearner:
		l.waiters = append(l.waiters, m.Requester)
		if l.phase == learnerPolling {
			return nil
		}
		return l.Poll()
	default:
		return nil
	}
}

func (l *Learner) stepValueAcc(m ValueAcc) []Outbound {
	if l.phase != learnerPolling {
		return nil
	}
	if _, seen := l.responses[m.From]; seen {
		return nil
	}
	l.responses[m.From] = m.Value

	counts := make(map[string]int, len(l.responses))
	samples := make(map[string]AcceptedValue, len(l.responses))
	for _, v := range l.responses {
		k := v.equivalenceKey()
		counts[k]++
		samples[k] = v
	}

	for k, n := range counts {
		if n < l.quorum {
			continue
		}
		if k == noneKey {
			// Majority-of-none: a quorum has replied with nothing accepted,
			// so no value can possibly win this round. Restart immediately
			// rather than waiting on the remaining acceptors.
			l.logger("learner %v: majority-of-none, restarting poll", l.self)
			return l.Poll()
		}
		winner := samples[k]
		l.logger("learner %v: agreed %v", l.self, winner.Value)
		l.phase = learnerIdle
		if l.doneHook != nil {
			l.doneHook(winner.Value)
		}
		out := make([]Outbound, 0, len(l.waiters))
		for _, w := range l.waiters {
			out = append(out, Outbound{To: w, Msg: LearnedAgreedValue{Value: winner.Value, From: l.self}})
		}
		l.waiters = nil
		return out
	}

	// No equivalence group, including none, has reached quorum yet. The
	// round is still inconclusive; wait for more replies instead of
	// restarting speculatively.
	return nil
}

// Result reports the learned value, if a quorum has agreed on one since the
// last Poll. ok is false while no agreement has been reached.
func (l *Learner) Result() (value Value, ok bool) {
	counts := make(map[string]int, len(l.responses))
	samples := make(map[string]AcceptedValue, len(l.responses))
	for _, v := range l.responses {
		k := v.equivalenceKey()
		counts[k]++
		samples[k] = v
	}
	for k, n := range counts {
		if k == noneKey {
			continue
		}
		if n >= l.quorum {
			return samples[k].Value, true
		}
	}
	return nil, false
}

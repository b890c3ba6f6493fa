package paxos

// Acceptor is the classical Paxos acceptor: it remembers the highest ballot
// it has promised and the highest-ballot value it has accepted, and answers
// Phase1A/Phase2A strictly according to those two watermarks. It holds no
// opinion about slots, quorums, or learners; those are the proposer's and
// the combinators' concern.
type Acceptor struct {
	self ID

	promised Ballot
	accepted AcceptedValue

	strict        bool
	onBeforeReply func()
	logger        func(format string, args ...interface{})
}

// AcceptorOption configures an Acceptor at construction time.
type AcceptorOption func(*Acceptor)

// WithStrictBallotDiscipline makes the acceptor require a Phase1A ballot to
// be strictly greater than its current promise, rejecting a replayed
// Phase1A at the same ballot it already promised. The default discipline
// (no option) accepts ballots that are at least the current promise, which
// makes a proposer's own retried Phase1A at an unchanged ballot idempotent.
func WithStrictBallotDiscipline() AcceptorOption {
	return func(a *Acceptor) { a.strict = true }
}

// WithBeforeReply installs a hook invoked synchronously before the acceptor
// computes a reply to a promise- or accept-affecting message, after any
// state mutation. It exists for callers that need to interpose durability
// (writing promised/accepted state to stable storage) between the mutation
// and the reply leaving the process; it is a no-op by default.
func WithBeforeReply(fn func()) AcceptorOption {
	return func(a *Acceptor) { a.onBeforeReply = fn }
}

// WithAcceptorLogger overrides the package-level DebugLog for one acceptor.
func WithAcceptorLogger(fn func(format string, args ...interface{})) AcceptorOption {
	return func(a *Acceptor) { a.logger = fn }
}

// NewAcceptor constructs an Acceptor identified by self, initially holding
// no promise and no accepted value.
func NewAcceptor(self ID, opts ...AcceptorOption) *Acceptor {
	a := &Acceptor{self: self, logger: DebugLog}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Acceptor) log(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger(format, args...)
	}
}

func (a *Acceptor) admits(b Ballot) bool {
	if a.strict {
		return a.promised.Equal(ZeroBallot) || (a.promised.Less(b) && !a.promised.Equal(b))
	}
	return b.AtLeast(a.promised)
}

// Step implements Role. It recognizes Phase1A, Phase2A, and QueryAcceptor;
// any other message is ignored.
func (a *Acceptor) Step(msg interface{}) []Outbound {
	switch m := msg.(type) {
	case Phase1A:
		return a.stepPhase1A(m)
	case Phase2A:
		return a.stepPhase2A(m)
	case QueryAcceptor:
		return []Outbound{{To: m.Requester, Msg: ValueAcc{From: a.self, Value: a.accepted}}}
	default:
		return nil
	}
}

func (a *Acceptor) stepPhase1A(m Phase1A) []Outbound {
	if !a.admits(m.Ballot) {
		a.log("acceptor %v: refusing phase1a at %v, promised %v", a.self, m.Ballot, a.promised)
		return nil
	}
	a.promised = m.Ballot
	if a.onBeforeReply != nil {
		a.onBeforeReply()
	}
	a.log("acceptor %v: promising %v", a.self, m.Ballot)
	return []Outbound{{To: m.From, Msg: Phase1B{
		Ballot:   m.Ballot,
		From:     a.self,
		Promise:  true,
		Accepted: a.accepted,
	}}}
}

// stepPhase2A admits only a ballot exactly equal to the current promise.
// Phase1A's ≥/> admission discipline does not apply here: a Phase2A at any
// other ballot is a stale or premature accept request, and per the stale
// ballot contract the acceptor emits nothing and leaves its promise
// untouched.
func (a *Acceptor) stepPhase2A(m Phase2A) []Outbound {
	if !m.Ballot.Equal(a.promised) {
		a.log("acceptor %v: refusing phase2a at %v, promised %v", a.self, m.Ballot, a.promised)
		return nil
	}
	a.accepted = AcceptedValue{Present: true, Ballot: m.Ballot, Value: m.Value}
	if a.onBeforeReply != nil {
		a.onBeforeReply()
	}
	a.log("acceptor %v: accepting %v at %v", a.self, m.Value, m.Ballot)
	return []Outbound{{To: m.From, Msg: Phase2B{Ballot: m.Ballot, From: a.self, Ack: true}}}
}

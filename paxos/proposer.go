package paxos

// proposerPhase tracks where a single Proposer round stands.
type proposerPhase int

const (
	phaseInit proposerPhase = iota
	phaseCollecting
	phaseDecided
)

// Proposer drives exactly one ballot to a decision against a fixed set of
// acceptors, following the standard two-phase protocol plus the
// value-recovery safety rule: once a majority of acceptors have replied to
// Phase1A, the proposer must propose the value carried by the
// highest-ballot accepted value among those replies, if any reply carried
// one, and is otherwise free to propose its own client-supplied value.
type Proposer struct {
	self      ID
	ballot    Ballot
	acceptors []ID
	quorum    int

	phase     proposerPhase
	responses map[ID]Phase1B

	clientValue Value
	chosenValue Value
	decided     Value
	hasDecided  bool

	// decideHook, if set, is invoked with the decided value the moment this
	// round reaches a decision. It exists for Provider to bridge the
	// actor-goroutine-serialized Step calls back to a caller blocked in
	// Provider.proposeAndAwait; nothing in this package calls it directly.
	decideHook func(Value)

	logger func(format string, args ...interface{})
}

// NewProposer constructs a Proposer for ballot, driving the given set of
// acceptor addresses. quorum is the number of replies required to proceed;
// callers typically pass len(acceptors)/2+1.
func NewProposer(self ID, ballot Ballot, acceptors []ID, quorum int) *Proposer {
	if quorum <= 0 || quorum > len(acceptors) {
		panic(errProviderWrap("paxos: NewProposer: quorum must be in [1, len(acceptors)]"))
	}
	return &Proposer{
		self:      self,
		ballot:    ballot,
		acceptors: append([]ID(nil), acceptors...),
		quorum:    quorum,
		responses: make(map[ID]Phase1B, len(acceptors)),
		logger:    DebugLog,
	}
}

// Start begins the round for the given client value, broadcasting Phase1A
// to every acceptor. Call it once; subsequent calls are no-ops.
func (p *Proposer) Start(value Value) []Outbound {
	if p.phase != phaseInit {
		return nil
	}
	p.clientValue = value
	p.phase = phaseCollecting
	out := make([]Outbound, 0, len(p.acceptors))
	for _, acc := range p.acceptors {
		out = append(out, Outbound{To: acc, Msg: Phase1A{Ballot: p.ballot, From: p.self}})
	}
	return out
}

// Step implements Role. It recognizes only Phase1B: per the proposer's
// state machine, the round decides the instant its Phase2A batch is
// emitted, so Decided takes no further input at all, and Phase2B plays no
// part in reaching a decision.
func (p *Proposer) Step(msg interface{}) []Outbound {
	m, ok := msg.(Phase1B)
	if !ok {
		return nil
	}
	return p.stepPhase1B(m)
}

func (p *Proposer) stepPhase1B(m Phase1B) []Outbound {
	if p.phase != phaseCollecting || !m.Ballot.Equal(p.ballot) || !m.Promise {
		return nil
	}
	if _, seen := p.responses[m.From]; seen {
		return nil
	}
	p.responses[m.From] = m
	if len(p.responses) < p.quorum {
		return nil
	}
	if p.chosenValue != nil {
		return nil
	}
	p.chosenValue = p.recoverValue()
	p.logger("proposer %v: phase1 quorum reached at %v, proposing %v", p.self, p.ballot, p.chosenValue)
	out := make([]Outbound, 0, len(p.acceptors))
	for _, acc := range p.acceptors {
		out = append(out, Outbound{To: acc, Msg: Phase2A{Ballot: p.ballot, From: p.self, Value: p.chosenValue}})
	}

	p.hasDecided = true
	p.decided = p.chosenValue
	p.phase = phaseDecided
	p.logger("proposer %v: decided %v at %v", p.self, p.decided, p.ballot)
	if p.decideHook != nil {
		p.decideHook(p.decided)
	}
	return out
}

// recoverValue implements the safety rule: propose the value attached to
// the highest ballot among the accepted values seen in phase1 replies, or
// the client's own value if no reply carried an accepted value.
func (p *Proposer) recoverValue() Value {
	var best AcceptedValue
	for _, reply := range p.responses {
		if reply.Accepted.Present && (!best.Present || best.Ballot.Less(reply.Accepted.Ballot)) {
			best = reply.Accepted
		}
	}
	if best.Present {
		return best.Value
	}
	return p.clientValue
}

// Decided reports whether this round has reached a decision.
func (p *Proposer) Decided() bool {
	return p.hasDecided
}

// Result returns the decided value. It panics, wrapping ErrProposerNotReady,
// if called before Decided reports true: reading the result of an
// in-progress round is a caller bug, not a recoverable protocol condition.
func (p *Proposer) Result() Value {
	if !p.hasDecided {
		panic(errWrap(ErrProposerNotReady, "proposer.Result called before decision"))
	}
	return p.decided
}

// Ballot returns the ballot this proposer drives.
func (p *Proposer) Ballot() Ballot {
	return p.ballot
}

package paxos

import "fmt"

// Ballot is a totally ordered, per-proposer-unique round number. It is
// encoded as (Round, ProposerID) compared lexicographically — round first —
// which is the uniqueness discipline the base specification itself
// recommends (see DESIGN.md, "Ballot encoding"): as long as every proposer
// is handed a distinct ProposerID, no two proposers can ever produce equal
// ballots, without any coordination between them.
//
// The zero value, ZeroBallot, is the sentinel "none" ballot and compares
// below every ballot constructed with NewBallot (which requires Round >= 1).
type Ballot struct {
	Round      uint64
	ProposerID uint32
}

// ZeroBallot is the "no ballot" sentinel; it is lower than any real ballot.
var ZeroBallot = Ballot{}

// NewBallot constructs a ballot for round (>= 1) and the given proposer
// identity. It panics if round is zero, since round zero is reserved for
// ZeroBallot.
func NewBallot(round uint64, proposerID uint32) Ballot {
	if round == 0 {
		panic("paxos: NewBallot: round must be >= 1")
	}
	return Ballot{Round: round, ProposerID: proposerID}
}

// Less reports whether b sorts strictly before o.
func (b Ballot) Less(o Ballot) bool {
	if b.Round != o.Round {
		return b.Round < o.Round
	}
	return b.ProposerID < o.ProposerID
}

// AtLeast reports whether b sorts at or after o (the acceptor's default,
// non-strict Phase1A discipline).
func (b Ballot) AtLeast(o Ballot) bool {
	return !b.Less(o)
}

// Equal reports exact equality.
func (b Ballot) Equal(o Ballot) bool {
	return b == o
}

func (b Ballot) String() string {
	return fmt.Sprintf("%d.%d", b.Round, b.ProposerID)
}

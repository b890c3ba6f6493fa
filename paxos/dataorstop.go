package paxos

import (
	"strconv"
	"strings"
)

// encodeDataOrStop and decodeDataOrStop let a Stoppable's wrapped Bunch
// carry DataOrStop values through Proposer and Acceptor, both of which only
// know how to hold a plain Value ([]byte). The encoding is internal to this
// package; nothing outside it ever needs to parse the result.
//
// Format: "<kind>\x1f<stopID>\x1f<reason>\x1f<data...>"
const fieldSep = "\x1f"

func encodeDataOrStop(d DataOrStop) Value {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(d.Kind)))
	b.WriteString(fieldSep)
	b.WriteString(d.StopID)
	b.WriteString(fieldSep)
	b.WriteString(d.Reason)
	b.WriteString(fieldSep)
	b.Write([]byte(d.Data))
	return Value(b.String())
}

func decodeDataOrStop(v Value) DataOrStop {
	parts := strings.SplitN(string(v), fieldSep, 4)
	if len(parts) != 4 {
		return DataOrStop{Kind: KindData, Data: v}
	}
	kind, err := strconv.Atoi(parts[0])
	if err != nil {
		return DataOrStop{Kind: KindData, Data: v}
	}
	return DataOrStop{
		Kind:   StopKind(kind),
		StopID: parts[1],
		Reason: parts[2],
		Data:   Value(parts[3]),
	}
}

func uintString(v uint64) string {
	return strconv.FormatUint(v, 10)
}

package paxos

// DebugLog is called with a format string and arguments on every role
// transition. Acceptor, Proposer and Learner copy it when they are
// constructed. It defaults to a no-op; set it (for example, to a
// go-kit/log logger adapter) to trace protocol activity.
var DebugLog = func(format string, args ...interface{}) {}

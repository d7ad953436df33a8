package seed

import "fmt"

// State is a step of a seeding run.
type State int

const (
	StateStart State = iota
	StateTruncate
	StateLoadStocks
	StateInsertStocks
	StateLoadTrades
	StateInsertTrades
	StateDone
	StateAbort
)

var stateNames = [...]string{
	StateStart:        "START",
	StateTruncate:     "TRUNCATE",
	StateLoadStocks:   "LOAD_STOCKS",
	StateInsertStocks: "INSERT_STOCKS",
	StateLoadTrades:   "LOAD_TRADES",
	StateInsertTrades: "INSERT_TRADES",
	StateDone:         "DONE",
	StateAbort:        "ABORT",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

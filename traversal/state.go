package traversal

// State is a step of the per-layer loop.
type State int

const (
	AwaitingArchive State = iota
	Unlocking
	Unlocked
	Exhausted
	Extracting
	ScanningForHints
	SeekingNestedArchive
	FoundNested
	NoneFound
	Complete
	Failed
)

var stateNames = [...]string{
	AwaitingArchive:      "awaiting_archive",
	Unlocking:            "unlocking",
	Unlocked:             "unlocked",
	Exhausted:            "exhausted",
	Extracting:           "extracting",
	ScanningForHints:     "scanning_for_hints",
	SeekingNestedArchive: "seeking_nested_archive",
	FoundNested:          "found_nested",
	NoneFound:            "none_found",
	Complete:             "complete",
	Failed:               "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Complete || s == Failed
}

// transitions lists the legal successors of each state.
var transitions = map[State][]State{
	AwaitingArchive:      {Unlocking, Failed},
	Unlocking:            {Unlocked, Exhausted},
	Unlocked:             {Extracting},
	Exhausted:            {Failed},
	Extracting:           {ScanningForHints, Failed},
	ScanningForHints:     {SeekingNestedArchive, Failed},
	SeekingNestedArchive: {FoundNested, NoneFound},
	FoundNested:          {AwaitingArchive},
	NoneFound:            {Complete},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

package pipeline

// State is a step of the rebuild-and-launch pipeline
type State string

const (
	Idle        State = "idle"
	Terminating State = "terminating"
	Cleaning    State = "cleaning"
	Resolving   State = "resolving"
	Building    State = "building"
	Launching   State = "launching"
	Done        State = "done"
	Failed      State = "failed"
)

// transitions lists the states reachable from each state
var transitions = map[State][]State{
	Idle:        {Terminating},
	Terminating: {Cleaning, Failed},
	Cleaning:    {Resolving, Failed},
	Resolving:   {Building, Failed},
	Building:    {Launching, Failed},
	Launching:   {Done, Failed},
}

// Terminal reports whether no further transitions are possible
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// CanTransition reports whether the pipeline may move from s to next
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

func (s State) String() string {
	return string(s)
}

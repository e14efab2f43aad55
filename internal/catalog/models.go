package catalog

import (
	"strings"
	"time"
)

// State represents the lifecycle of a session directory.
type State string

const (
	// StateOpen means the live frame store is still writing frames.
	StateOpen State = "open"
	// StateClosed means capture finished; the session awaits metadata.
	StateClosed State = "closed"
	// StateMetadataReady means the frame table exists and is validated.
	StateMetadataReady State = "metadata_ready"
	// StateMovieBuilt means a non-empty movie artifact exists.
	StateMovieBuilt State = "movie_built"
	// StateCompressed is terminal: frames and metadata are archived.
	StateCompressed State = "compressed"
)

var allStates = []State{
	StateOpen,
	StateClosed,
	StateMetadataReady,
	StateMovieBuilt,
	StateCompressed,
}

var stateRank = func() map[State]int {
	ranks := make(map[State]int, len(allStates))
	for i, state := range allStates {
		ranks[state] = i
	}
	return ranks
}()

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stateRank[normalized]
	return normalized, ok
}

// Rank returns the position of the state in lifecycle order, or -1 for an
// unknown state.
func (s State) Rank() int {
	rank, ok := stateRank[s]
	if !ok {
		return -1
	}
	return rank
}

// Terminal reports whether no further automatic processing applies.
func (s State) Terminal() bool {
	return s == StateCompressed
}

// CanTransition reports whether from -> to is a legal lifecycle move.
// Moves are strictly forward and step one stage at a time.
func CanTransition(from, to State) bool {
	fromRank, toRank := from.Rank(), to.Rank()
	if fromRank < 0 || toRank < 0 {
		return false
	}
	return toRank == fromRank+1
}

// Session represents one capture session directory tracked by the catalog.
type Session struct {
	ID      int64
	Key     string
	DirPath string
	State   State
	// Legacy marks a directory created by an earlier version, discovered
	// with frames but no metadata artifact.
	Legacy bool
	// TargetWidth/TargetHeight cache the computed output resolution. Zero
	// until the movie assembler first computes it; never recomputed once
	// the session reaches StateMovieBuilt.
	TargetWidth  int
	TargetHeight int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasTargetResolution reports whether the cached resolution has been set.
func (s *Session) HasTargetResolution() bool {
	return s.TargetWidth > 0 && s.TargetHeight > 0
}

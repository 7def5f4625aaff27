package domain

// OutcomeKind classifies the result of advancing a client.
type OutcomeKind string

const (
	// OutcomeSetAdvanced - current exercise not finished, moved to the next set
	OutcomeSetAdvanced OutcomeKind = "set_advanced"
	// OutcomeExerciseAdvanced - moved to the next exercise, equipment was free
	OutcomeExerciseAdvanced OutcomeKind = "exercise_advanced"
	// OutcomeSubstituted - moved to the next exercise via an auto-substitution
	OutcomeSubstituted OutcomeKind = "substituted"
	// OutcomeWaiting - blocked on equipment with no substitute available
	OutcomeWaiting OutcomeKind = "waiting"
	// OutcomeProgramComplete - no more exercises in the program
	OutcomeProgramComplete OutcomeKind = "program_complete"
)

// Outcome is the single result of one advance call. Exactly one kind is
// set; the remaining fields are populated according to the kind.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`

	// SetAdvanced
	NextSet     int `json:"nextSet,omitempty"`
	TotalSets   int `json:"totalSets,omitempty"`
	RestSeconds int `json:"restSeconds,omitempty"`

	// ExerciseAdvanced / Substituted
	Exercise *Exercise `json:"exercise,omitempty"`
	Sets     int       `json:"sets,omitempty"`
	Reps     int       `json:"reps,omitempty"`

	// Substituted
	SubstitutedFrom string `json:"substitutedFrom,omitempty"`
	Reason          string `json:"reason,omitempty"`

	// Waiting
	BlockedExercise string   `json:"blockedExercise,omitempty"`
	Conflicts       []string `json:"conflicts,omitempty"`
}

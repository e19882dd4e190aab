package session

// SetCompleted is emitted by the Mutator when a set goes from not
// completed to completed. The Store starts the rest timer on it.
type SetCompleted struct {
	ExerciseID string
	SetIndex   int
	SetID      string
}

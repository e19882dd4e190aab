package session

import "errors"

var (
	ErrSessionActive     = errors.New("a workout is already in progress")
	ErrNotActive         = errors.New("no workout in progress")
	ErrNothingToSave     = errors.New("workout has no completed sets")
	ErrFinishInProgress  = errors.New("workout is already being saved")
	ErrExerciseNotFound  = errors.New("exercise not in workout")
	ErrDuplicateExercise = errors.New("exercise already in workout")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrSetIncomplete     = errors.New("set needs weight and reps before it can be completed")
	ErrUnknownField      = errors.New("unknown set field")
	ErrInvalidValue      = errors.New("invalid set value")
	ErrNotOwner          = errors.New("workout belongs to another user")
)

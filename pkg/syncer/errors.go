package syncer

import (
	"errors"
	"fmt"
)

// ErrDestinationLocked is returned when another sync holds the destination lock.
var ErrDestinationLocked = errors.New("destination is locked by another sync")

// Stage names, in execution order.
const (
	StageCleanup   = "stale session cleanup"
	StageLockCheck = "lock check"
	StageAcquire   = "lock acquire"
	StageFetch     = "manifest fetch"
	StageScan      = "local scan"
	StageExclude   = "exclusion"
	StageDiff      = "diff"
	StageUpload    = "upload"
	StagePersist   = "manifest persist"
	StageRelease   = "lock release"
	StageRemove    = "local cleanup"
)

// StageError records which stage of a run failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

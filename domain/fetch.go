package domain

import (
	"fake-fetch/errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// FetchResult is the ordered list of items a fetch settles with.
// The caller owns it once the fetch is settled.
type FetchResult []string

var defaultFruits = FetchResult{"apple", "banana", "cherry"}

// DefaultFruits returns a fresh copy of the default data set,
// so a caller mutating its result never leaks into another fetch.
func DefaultFruits() FetchResult {
	return slices.Clone(defaultFruits)
}

type FetchState string

const (
	PENDING   FetchState = "PENDING"
	RESOLVED  FetchState = "RESOLVED"
	REJECTED  FetchState = "REJECTED"
	CANCELLED FetchState = "CANCELLED"
)

func (s FetchState) IsTerminal() bool {
	switch s {
	case RESOLVED, REJECTED, CANCELLED:
		return true
	default:
		return false
	}
}

// Transition validates a state change. Only a pending fetch can move,
// and only towards a terminal state.
func Transition(from, to FetchState) error {
	if from == PENDING && to.IsTerminal() {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, from, to)
}

func ToFetchState(state string) FetchState {
	switch FetchState(state) {
	case RESOLVED:
		return RESOLVED
	case REJECTED:
		return REJECTED
	case CANCELLED:
		return CANCELLED
	default:
		return PENDING
	}
}

// FetchRecord is what the journal keeps about a settled fetch.
type FetchRecord struct {
	ID          uuid.UUID
	Delay       time.Duration
	Items       FetchResult
	State       FetchState
	Error       string
	RequestedAt time.Time
	SettledAt   time.Time
}

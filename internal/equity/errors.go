package equity

import (
	"errors"

	"github.com/lox/holdem-equity/poker"
)

// ErrInvalidCardFormat is re-exported so callers need only this package to
// classify failures.
var ErrInvalidCardFormat = poker.ErrInvalidCardFormat

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrDuplicateCard        = errors.New("duplicate card")
	ErrInsufficientDeck     = errors.New("insufficient deck")
	ErrInvalidOpponentCount = errors.New("invalid opponent count")
	ErrExactModeUnsupported = errors.New("exact mode unsupported")
	// ErrScenarioCountExceeded never reaches callers of ComputeEquity; it
	// turns into a Monte Carlo fallback.
	ErrScenarioCountExceeded = errors.New("scenario count exceeded")
	ErrConsistencyViolation  = errors.New("consistency violation")
)

// DuplicateCardError names the card that appeared more than once.
type DuplicateCardError struct {
	Card poker.Card
}

func (e *DuplicateCardError) Error() string {
	return "duplicate card: " + e.Card.String()
}

func (e *DuplicateCardError) Unwrap() error {
	return ErrDuplicateCard
}

// Package lifecycle decides when a pending order becomes completed or overdue.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/corray333/gamesbakery/internal/service/models/apperr"
	"github.com/corray333/gamesbakery/internal/service/models/order"
)

// DefaultOverdueAfter is how long sellers have to deliver every key.
const DefaultOverdueAfter = 14 * 24 * time.Hour

// Precedence decides which rule wins when an order is both past the
// deadline and fully keyed.
type Precedence int

const (
	OverdueFirst Precedence = iota
	CompletionFirst
)

func ParsePrecedence(s string) (Precedence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overdue":
		return OverdueFirst, nil
	case "completion", "completed":
		return CompletionFirst, nil
	default:
		return OverdueFirst, apperr.Invalid("precedence", "must be overdue or completion")
	}
}

func (p Precedence) String() string {
	if p == CompletionFirst {
		return "completion"
	}
	return "overdue"
}

// Outcome is the result of evaluating one order.
type Outcome int

const (
	Unchanged Outcome = iota
	Completed
	Overdue
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Overdue:
		return "overdue"
	default:
		return "unchanged"
	}
}

// Policy holds the transition rules.
type Policy struct {
	OverdueAfter time.Duration
	Precedence   Precedence
}

func DefaultPolicy() Policy {
	return Policy{OverdueAfter: DefaultOverdueAfter, Precedence: OverdueFirst}
}

// Evaluate returns the transition o should take at now. The order's items
// must be loaded. Terminal orders always evaluate to Unchanged.
func (p Policy) Evaluate(o *order.Order, now time.Time) Outcome {
	if o.IsTerminal() {
		return Unchanged
	}

	after := p.OverdueAfter
	if after <= 0 {
		after = DefaultOverdueAfter
	}
	expired := now.Sub(o.OrderDate) >= after

	if p.Precedence == CompletionFirst && o.AllKeysAssigned() {
		return Completed
	}
	if expired {
		return Overdue
	}
	if o.AllKeysAssigned() {
		return Completed
	}

	return Unchanged
}

// Apply mutates o according to outcome.
func Apply(o *order.Order, outcome Outcome) error {
	switch outcome {
	case Unchanged:
		return nil
	case Completed:
		return o.Complete()
	case Overdue:
		return o.MarkOverdue()
	default:
		return fmt.Errorf("unknown lifecycle outcome %d", outcome)
	}
}

// Step evaluates and applies in one go, returning the outcome taken.
func (p Policy) Step(o *order.Order, now time.Time) (Outcome, error) {
	outcome := p.Evaluate(o, now)
	if err := Apply(o, outcome); err != nil {
		return Unchanged, err
	}
	return outcome, nil
}

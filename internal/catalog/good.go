package catalog

import (
	"fmt"
	"time"

	"github.com/gagarin78/vendo/currency"
)

// Good is one sellable product. Perishable and plain goods differ only in
// availability; dispatch goes through this interface, no other coupling.
type Good interface {
	Description() string
	Price() currency.Amount
	Available(now time.Time) bool
}

type Plain struct {
	Name      string
	UnitPrice currency.Amount
}

func (p Plain) Description() string          { return p.Name }
func (p Plain) Price() currency.Amount       { return p.UnitPrice }
func (p Plain) Available(now time.Time) bool { return true }

type Perishable struct {
	Name       string
	UnitPrice  currency.Amount
	BestBefore time.Time
}

func (p Perishable) Description() string {
	return fmt.Sprintf("%s (best before %s)", p.Name, p.BestBefore.Format("2006-01-02 15:04"))
}
func (p Perishable) Price() currency.Amount       { return p.UnitPrice }
func (p Perishable) Available(now time.Time) bool { return !now.After(p.BestBefore) }

// Package vend is the transactional purchase coordinator. It never creates
// or destroys money, never dispenses without full payment, and never commits
// a change withdrawal it cannot fulfill. Every abort before commit leaves
// the ledger exactly as it was.
package vend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagarin78/vendo/currency"
	"github.com/gagarin78/vendo/internal/catalog"
	"github.com/gagarin78/vendo/internal/money"
	"github.com/gagarin78/vendo/log2"
	"github.com/gagarin78/vendo/tele"
	"github.com/google/uuid"
	"github.com/juju/errors"
)

var (
	ErrNoCredit         = errors.New("insert funds first")
	ErrItemUnavailable  = errors.New("item is not available")
	ErrItemExpired      = errors.New("item is expired")
	ErrCannotMakeChange = errors.New("cannot make change, use exact amount")
	ErrDispenseFailure  = errors.New("dispense failed, funds remain deposited")
	ErrNothingToRefund  = errors.New("nothing to refund")

	// ErrChangeDispense is the one genuinely fatal case: the item is out of
	// the machine, the change commit failed. Requires operator reconciliation.
	ErrChangeDispense = errors.New("item dispensed but change failed, call operator")
)

// NeedMoreMoneyError carries the shortfall so the UI can render it.
type NeedMoreMoneyError struct {
	Needed currency.Amount
}

func (e NeedMoreMoneyError) Error() string {
	return fmt.Sprintf("insufficient funds, need %s more", e.Needed.Format100I())
}

type Receipt struct {
	ID     uuid.UUID
	Item   string
	Price  currency.Amount
	Paid   currency.Amount
	Change *currency.NominalGroup
}

type Vendor struct {
	Log     *log2.Log
	Money   *money.MoneySystem
	Catalog *catalog.Catalog
	Tele    tele.Teler
	Now     func() time.Time // tests override

	// one transaction in flight per terminal
	lk    sync.Mutex
	state State

	XXX_testHook func(State)
}

func NewVendor(log *log2.Log, ms *money.MoneySystem, cat *catalog.Catalog, teler tele.Teler) *Vendor {
	return &Vendor{
		Log:     log,
		Money:   ms,
		Catalog: cat,
		Tele:    teler,
		Now:     time.Now,
	}
}

// Purchase runs the whole transaction for one slot code.
// Ledger mutations happen only after dispense succeeded; every earlier exit
// leaves credit and coin counts untouched.
func (self *Vendor) Purchase(ctx context.Context, code uint16) (*Receipt, error) {
	self.lk.Lock()
	defer self.lk.Unlock()
	defer self.setState(StateIdle)

	self.setState(StateAwaitingPayment)
	credit := self.Money.Credit()
	if credit == 0 {
		return nil, self.abort(ErrNoCredit)
	}

	slot, err := self.Catalog.Get(code)
	if err != nil {
		return nil, self.abort(err)
	}
	now := self.Now()
	if !slot.Good.Available(now) {
		return nil, self.abort(errors.Annotatef(ErrItemExpired, "code=%d %s", code, slot.Good.Description()))
	}
	if slot.Remaining() == 0 {
		return nil, self.abort(errors.Annotatef(ErrItemUnavailable, "code=%d", code))
	}
	price := slot.Good.Price()
	if credit < price {
		return nil, self.abort(NeedMoreMoneyError{Needed: price - credit})
	}

	self.setState(StateFeasibilityCheck)
	changeDue := credit - price
	var breakdown *currency.NominalGroup
	if changeDue > 0 {
		// read-only snapshot, nothing is taken yet
		breakdown, err = self.Money.Snapshot().MakeChange(changeDue)
		if err != nil {
			return nil, self.abort(errors.Annotatef(ErrCannotMakeChange, "due=%s", changeDue.Format100I()))
		}
	}

	self.setState(StateCommitting)
	if !slot.TryDispense(now) {
		// stock or expiry raced between check and commit; ledger untouched
		return nil, self.abort(errors.Annotatef(ErrDispenseFailure, "code=%d", code))
	}
	if changeDue > 0 {
		if err = self.Money.CommitWithdraw(breakdown); err != nil {
			// item is out of the machine, no rollback possible
			err = errors.Annotatef(ErrChangeDispense, "code=%d due=%s cause=%v", code, changeDue.Format100I(), err)
			self.Log.Errorf("vend CRITICAL %v", err)
			self.Tele.Error(err)
			self.setState(StateAborted)
			return nil, err
		}
	}

	self.Money.ClearCredit()
	self.Money.AddEarnings(price)
	self.setState(StateCompleted)

	if breakdown == nil {
		breakdown = self.Money.Snapshot()
		breakdown.Clear()
	}
	r := &Receipt{
		ID:     uuid.New(),
		Item:   slot.Good.Description(),
		Price:  price,
		Paid:   credit,
		Change: breakdown,
	}
	self.Log.Infof("vend.purchase id=%s item=%s price=%s paid=%s change=%s",
		r.ID, r.Item, r.Price.Format100I(), r.Paid.Format100I(), r.Change.String())
	self.Tele.Transaction(&tele.Tx{
		ID: r.ID.String(), Kind: "sale", Item: r.Item,
		Price: r.Price, Paid: r.Paid, Change: r.Change.Total(),
	})
	return r, nil
}

// Refund returns the whole deposited balance, same feasibility-then-commit
// shape as Purchase with price 0. Infeasible refund leaves the balance
// deposited, never forfeits it.
func (self *Vendor) Refund(ctx context.Context) (*Receipt, error) {
	self.lk.Lock()
	defer self.lk.Unlock()
	defer self.setState(StateIdle)

	credit := self.Money.Credit()
	if credit == 0 {
		return nil, ErrNothingToRefund
	}

	self.setState(StateFeasibilityCheck)
	breakdown, err := self.Money.Snapshot().MakeChange(credit)
	if err != nil {
		return nil, self.abort(errors.Annotatef(ErrCannotMakeChange, "refund=%s", credit.Format100I()))
	}

	self.setState(StateCommitting)
	if err = self.Money.CommitWithdraw(breakdown); err != nil {
		return nil, self.abort(errors.Annotatef(ErrCannotMakeChange, "refund=%s cause=%v", credit.Format100I(), err))
	}
	self.Money.ClearCredit()
	self.setState(StateCompleted)

	r := &Receipt{
		ID:     uuid.New(),
		Paid:   credit,
		Change: breakdown,
	}
	self.Log.Infof("vend.refund id=%s amount=%s change=%s", r.ID, credit.Format100I(), breakdown.String())
	self.Tele.Transaction(&tele.Tx{
		ID: r.ID.String(), Kind: "refund", Paid: credit, Change: breakdown.Total(),
	})
	return r, nil
}

func (self *Vendor) abort(err error) error {
	self.setState(StateAborted)
	self.Log.Debugf("vend.abort %v", err)
	return err
}

// Package money is the payment ledger: coin stock per nominal plus the
// credit a customer has deposited and not yet resolved.
// Overview:
//   - ui->money: Deposit inserted coin, coin joins machine stock immediately
//     so it can be given back as change within the same transaction
//   - vend->money: Snapshot for non-mutating change feasibility probes
//   - vend->money: CommitWithdraw removes a probed breakdown atomically
package money

import (
	"sync"

	"github.com/gagarin78/vendo/currency"
	"github.com/gagarin78/vendo/log2"
	"github.com/juju/errors"
)

var ErrCoinRejected = errors.New("coin rejected")

type MoneySystem struct {
	Log *log2.Log

	lk       sync.RWMutex
	coins    currency.NominalGroup // machine stock, deposits included
	credit   currency.Amount       // deposited, not yet resolved
	earnings currency.Amount       // prices of committed sales since last collect
}

func NewMoneySystem(log *log2.Log, accepted []currency.Nominal) *MoneySystem {
	ms := &MoneySystem{Log: log}
	ms.coins.SetValid(accepted)
	return ms
}

// LoadFloat adds seed/service coins to stock without touching credit.
func (self *MoneySystem) LoadFloat(n currency.Nominal, count uint) error {
	self.lk.Lock()
	defer self.lk.Unlock()
	return errors.Annotate(self.coins.Add(n, count), "money.LoadFloat")
}

// Deposit accepts one coin from the customer. Invalid nominal is rejected
// with zero state change; accepted coin is merged into stock and credited.
func (self *MoneySystem) Deposit(n currency.Nominal) (currency.Amount, error) {
	self.lk.Lock()
	defer self.lk.Unlock()
	if err := self.coins.Add(n, 1); err != nil {
		return self.credit, errors.Annotatef(ErrCoinRejected, "Deposit(%s)", currency.Amount(n).Format100I())
	}
	self.credit += currency.Amount(n)
	self.Log.Debugf("money.deposit n=%s credit=%s", currency.Amount(n).Format100I(), self.credit.Format100I())
	return self.credit, nil
}

func (self *MoneySystem) Credit() currency.Amount {
	self.lk.RLock()
	defer self.lk.RUnlock()
	return self.credit
}

// ClearCredit resolves the deposited balance. Coin counts are untouched,
// the coins merged into stock on Deposit.
func (self *MoneySystem) ClearCredit() {
	self.lk.Lock()
	self.credit = 0
	self.lk.Unlock()
}

// Snapshot returns a copy of coin counts for feasibility probes.
func (self *MoneySystem) Snapshot() *currency.NominalGroup {
	self.lk.RLock()
	defer self.lk.RUnlock()
	return self.coins.Copy()
}

// CommitWithdraw removes breakdown from stock. All counts or nothing.
func (self *MoneySystem) CommitWithdraw(breakdown *currency.NominalGroup) error {
	self.lk.Lock()
	defer self.lk.Unlock()
	if err := self.coins.Take(breakdown); err != nil {
		return errors.Annotate(err, "money.CommitWithdraw")
	}
	self.Log.Debugf("money.withdraw %s stock=%s", breakdown.String(), self.coins.String())
	return nil
}

// Total is the value of all coins in the machine.
func (self *MoneySystem) Total() currency.Amount {
	self.lk.RLock()
	defer self.lk.RUnlock()
	return self.coins.Total()
}

func (self *MoneySystem) AddEarnings(a currency.Amount) {
	self.lk.Lock()
	self.earnings += a
	self.lk.Unlock()
}

// CollectEarnings reports and zeroes the earnings counter. Coins stay in
// stock as change float; the counter is bookkeeping for the operator.
func (self *MoneySystem) CollectEarnings() currency.Amount {
	self.lk.Lock()
	defer self.lk.Unlock()
	collected := self.earnings
	self.earnings = 0
	self.Log.Infof("money.collect earnings=%s", collected.Format100I())
	return collected
}

func (self *MoneySystem) Earnings() currency.Amount {
	self.lk.RLock()
	defer self.lk.RUnlock()
	return self.earnings
}

func (self *MoneySystem) StockString() string {
	self.lk.RLock()
	defer self.lk.RUnlock()
	return self.coins.String()
}

package vend

import (
	"context"
	"testing"
	"time"

	"github.com/gagarin78/vendo/currency"
	"github.com/gagarin78/vendo/internal/catalog"
	"github.com/gagarin78/vendo/internal/money"
	"github.com/gagarin78/vendo/log2"
	"github.com/gagarin78/vendo/tele"
	tele_config "github.com/gagarin78/vendo/tele/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNominals = []currency.Nominal{10, 50, 100, 200, 500, 1000}

type teleRecorder struct {
	errs []error
	txs  []*tele.Tx
}

func (*teleRecorder) Init(context.Context, *log2.Log, tele_config.Config) error { return nil }
func (*teleRecorder) Close()                                                    {}
func (*teleRecorder) State(tele.State)                                          {}
func (self *teleRecorder) Error(e error)                                        { self.errs = append(self.errs, e) }
func (self *teleRecorder) Transaction(tx *tele.Tx)                              { self.txs = append(self.txs, tx) }

type testEnv struct {
	v  *Vendor
	ms *money.MoneySystem
	tr *teleRecorder
}

func newTestEnv(t testing.TB, float map[currency.Nominal]uint) *testEnv {
	log := log2.NewTest(t, log2.LDebug)
	ms := money.NewMoneySystem(log, testNominals)
	for n, c := range float {
		require.NoError(t, ms.LoadFloat(n, c))
	}
	cat := catalog.NewCatalog(log)
	tr := &teleRecorder{}
	return &testEnv{v: NewVendor(log, ms, cat, tr), ms: ms, tr: tr}
}

func (env *testEnv) addSlot(t testing.TB, code uint16, good catalog.Good, stock uint) *catalog.Slot {
	s := catalog.NewSlot(code, good, stock)
	require.NoError(t, env.v.Catalog.Add(s))
	return s
}

func (env *testEnv) deposit(t testing.TB, ns ...currency.Nominal) {
	for _, n := range ns {
		_, err := env.ms.Deposit(n)
		require.NoError(t, err)
	}
}

func checkNoMutation(t testing.TB, env *testEnv, fun func() error) {
	stockBefore := env.ms.StockString()
	creditBefore := env.ms.Credit()
	err := fun()
	require.Error(t, err)
	assert.Equal(t, stockBefore, env.ms.StockString(), "ledger must be untouched on abort")
	assert.Equal(t, creditBefore, env.ms.Credit(), "credit must be untouched on abort")
}

// deposit 2.00+1.00+0.50, buy at 2.50: change 1.00 as one coin,
// the 1.00 count drops by one, balance resets
func TestPurchaseWithChange(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, map[currency.Nominal]uint{10: 10, 50: 4, 100: 2})
	env.addSlot(t, 1, catalog.Plain{Name: "cola", UnitPrice: 250}, 3)
	initial := env.ms.Total()

	env.deposit(t, 200, 100, 50)
	require.Equal(t, currency.Amount(350), env.ms.Credit())

	r, err := env.v.Purchase(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, currency.Amount(100), r.Change.Total())
	count100, err := r.Change.Get(100)
	require.NoError(t, err)
	assert.Equal(t, uint(1), count100, "greedy picks the largest nominal first")

	assert.Equal(t, currency.Amount(0), env.ms.Credit())
	// conservation: initial + deposits - withdrawal
	assert.Equal(t, initial+350-100, env.ms.Total())
	assert.Equal(t, currency.Amount(250), env.ms.Earnings())
	require.Len(t, env.tr.txs, 1)
	assert.Equal(t, "sale", env.tr.txs[0].Kind)
}

// five 0.10 coins for a 0.50 item: no change, no withdrawal
func TestPurchaseExactPayment(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, map[currency.Nominal]uint{50: 2})
	env.addSlot(t, 7, catalog.Plain{Name: "gum", UnitPrice: 50}, 1)
	initial := env.ms.Total()

	env.deposit(t, 10, 10, 10, 10, 10)
	r, err := env.v.Purchase(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, currency.Amount(0), r.Change.Total())
	assert.Equal(t, currency.Amount(0), env.ms.Credit())
	assert.Equal(t, initial+50, env.ms.Total())
}

func TestPurchaseNoCredit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, map[currency.Nominal]uint{100: 5})
	env.addSlot(t, 1, catalog.Plain{Name: "cola", UnitPrice: 250}, 3)
	checkNoMutation(t, env, func() error {
		_, err := env.v.Purchase(context.Background(), 1)
		assert.Equal(t, ErrNoCredit, errors.Cause(err))
		return err
	})
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, map[currency.Nominal]uint{100: 5})
	env.addSlot(t, 1, catalog.Plain{Name: "cola", UnitPrice: 250}, 3)
	env.deposit(t, 100)
	checkNoMutation(t, env, func() error {
		_, err := env.v.Purchase(context.Background(), 1)
		need, ok := errors.Cause(err).(NeedMoreMoneyError)
		require.True(t, ok, "expected NeedMoreMoneyError, got %v", err)
		assert.Equal(t, currency.Amount(150), need.Needed)
		return err
	})
}

// no combination of stocked nominals sums to 0.40: abort, balance stays
func TestPurchaseCannotMakeChange(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, map[currency.Nominal]uint{200: 2})
	env.addSlot(t, 1, catalog.Plain{Name: "cola", UnitPrice: 960}, 3)
	env.deposit(t, 1000)
	checkNoMutation(t, env, func() error {
		_, err := env.v.Purchase(context.Background(), 1)
		assert.Equal(t, ErrCannotMakeChange, errors.Cause(err))
		return err
	})
	assert.Equal(t, currency.Amount(1000), env.ms.Credit())
}

// expired is rejected regardless of stock or credit
func TestPurchaseExpired(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, map[currency.Nominal]uint{100: 5})
	stale := catalog.Perishable{Name: "sandwich", UnitPrice: 100, BestBefore: time.Now().Add(-time.Minute)}
	env.addSlot(t, 2, stale, 10)
	env.deposit(t, 500)
	checkNoMutation(t, env, func() error {
		_, err := env.v.Purchase(context.Background(), 2)
		assert.Equal(t, ErrItemExpired, errors.Cause(err))
		return err
	})
}

func TestPurchaseOutOfStock(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, map[currency.Nominal]uint{100: 5})
	env.addSlot(t, 1, catalog.Plain{Name: "cola", UnitPrice: 100}, 0)
	env.deposit(t, 100)
	checkNoMutation(t, env, func() error {
		_, err := env.v.Purchase(context.Background(), 1)
		assert.Equal(t, ErrItemUnavailable, errors.Cause(err))
		return err
	})
}

// stock drained between feasibility check and dispense: ledger untouched,
// funds stay deposited for retry or refund
func TestDispenseRace(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, map[currency.Nominal]uint{100: 5})
	slot := env.addSlot(t, 1, catalog.Plain{Name: "cola", UnitPrice: 100}, 1)
	env.deposit(t, 100)

	drained := false
	env.v.XXX_testHook = func(s State) {
		if s == StateCommitting && !drained {
			drained = true
			require.True(t, slot.TryDispense(time.Now()))
		}
	}
	checkNoMutation(t, env, func() error {
		_, err := env.v.Purchase(context.Background(), 1)
		assert.Equal(t, ErrDispenseFailure, errors.Cause(err))
		return err
	})
	assert.Equal(t, currency.Amount(100), env.ms.Credit())
}

// coins for change vanish between probe and commit: the one unrecoverable
// case, must surface distinctly and reach the operator channel
func TestChangeDispenseFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, map[currency.Nominal]uint{100: 1})
	env.addSlot(t, 1, catalog.Plain{Name: "cola", UnitPrice: 100}, 1)
	env.deposit(t, 200)

	drained := false
	env.v.XXX_testHook = func(s State) {
		if s == StateCommitting && !drained {
			drained = true
			steal := env.ms.Snapshot()
			steal.Clear()
			require.NoError(t, steal.Add(100, 1))
			require.NoError(t, env.ms.CommitWithdraw(steal))
		}
	}
	_, err := env.v.Purchase(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, ErrChangeDispense, errors.Cause(err))
	require.Len(t, env.tr.errs, 1, "operator must see the fault")
}

func TestRefund(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, map[currency.Nominal]uint{10: 10, 100: 2})
	initial := env.ms.Total()

	env.deposit(t, 100, 50)
	r, err := env.v.Refund(context.Background())
	require.NoError(t, err)
	assert.Equal(t, currency.Amount(150), r.Change.Total())
	assert.Equal(t, currency.Amount(0), env.ms.Credit())
	assert.Equal(t, initial, env.ms.Total(), "refund must conserve initial stock value")
	require.Len(t, env.tr.txs, 1)
	assert.Equal(t, "refund", env.tr.txs[0].Kind)
}

func TestRefundNothing(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, map[currency.Nominal]uint{100: 2})
	_, err := env.v.Refund(context.Background())
	assert.Equal(t, ErrNothingToRefund, errors.Cause(err))
}

// refund infeasible in coins: balance stays deposited, not forfeited
func TestRefundCannotMakeChange(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)
	env.deposit(t, 50)
	// stock holds exactly the deposited 0.50 coin; take it out from under
	// the refund to make the payout infeasible
	steal := env.ms.Snapshot()
	steal.Clear()
	require.NoError(t, steal.Add(50, 1))
	require.NoError(t, env.ms.CommitWithdraw(steal))

	checkNoMutation(t, env, func() error {
		_, err := env.v.Refund(context.Background())
		assert.Equal(t, ErrCannotMakeChange, errors.Cause(err))
		return err
	})
	assert.Equal(t, currency.Amount(50), env.ms.Credit())
}

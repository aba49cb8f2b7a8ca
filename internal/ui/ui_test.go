package ui

import (
	"context"
	"sync"
	"testing"

	"github.com/gagarin78/vendo/currency"
	state_new "github.com/gagarin78/vendo/internal/state/new"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConf = `
money {
	scale = 10
	coin "1" { count = 20 }
	coin "5" { count = 4 }
	coin "10" { count = 4 }
	coin "20" {}
	coin "50" {}
	coin "100" {}
}
catalog {
	slot "1" { name = "water" price = 15 stock = 6 }
	slot "2" { name = "cola" price = 25 stock = 0 }
}
ui {
	service { auth {
		enable = true
		passwords = ["1234"]
	} }
}
`

type uiTestEnv struct {
	ui  *UI
	out []string
	mu  sync.Mutex
}

func (env *uiTestEnv) lines() []string {
	env.mu.Lock()
	defer env.mu.Unlock()
	return append([]string(nil), env.out...)
}

func (env *uiTestEnv) lastLine() string {
	ls := env.lines()
	if len(ls) == 0 {
		return ""
	}
	return ls[len(ls)-1]
}

func newUITestEnvConf(t testing.TB, conf string) (context.Context, *uiTestEnv) {
	ctx, _ := state_new.NewTestContext(t, "test", conf)
	env := &uiTestEnv{ui: &UI{}}
	require.NoError(t, env.ui.Init(ctx, func(s string) {
		env.mu.Lock()
		env.out = append(env.out, s)
		env.mu.Unlock()
	}))
	return ctx, env
}

func newUITestEnv(t testing.TB) (context.Context, *uiTestEnv) {
	return newUITestEnvConf(t, testConf)
}

func TestFrontCoin(t *testing.T) {
	t.Parallel()
	ctx, env := newUITestEnv(t)

	next := env.ui.handleFrontLine(ctx, "coin 20")
	assert.Equal(t, StateFrontSelect, next)
	assert.Equal(t, "credit=2", env.lastLine())

	next = env.ui.handleFrontLine(ctx, "coin 3")
	assert.Equal(t, StateFrontSelect, next)
	assert.Contains(t, env.lastLine(), "not accepted")
	assert.Equal(t, currency.Amount(200), env.ui.g.Money.Credit())
}

func TestFrontCreditLimit(t *testing.T) {
	t.Parallel()
	ctx, env := newUITestEnvConf(t, `
money {
	scale = 10
	credit_max = 30
	coin "10" { count = 2 }
}
catalog { slot "1" { name = "water" price = 15 stock = 1 } }
`)

	for i := 0; i < 3; i++ {
		next := env.ui.handleFrontLine(ctx, "coin 10")
		assert.Equal(t, StateFrontSelect, next)
	}
	assert.Equal(t, currency.Amount(300), env.ui.g.Money.Credit())

	next := env.ui.handleFrontLine(ctx, "coin 10")
	assert.Equal(t, StateFrontSelect, next)
	assert.Contains(t, env.lastLine(), "credit limit")
	assert.Equal(t, currency.Amount(300), env.ui.g.Money.Credit())
}

func TestFrontBuy(t *testing.T) {
	t.Parallel()
	ctx, env := newUITestEnv(t)

	// no money yet
	next := env.ui.handleFrontLine(ctx, "buy 1")
	assert.Equal(t, StateFrontSelect, next)
	assert.Contains(t, env.lastLine(), "insert funds")

	env.ui.handleFrontLine(ctx, "coin 20")
	next = env.ui.handleFrontLine(ctx, "buy 1")
	assert.Equal(t, StateFrontEnd, next)
	found := false
	for _, l := range env.lines() {
		if l == "dispensed water" {
			found = true
		}
	}
	assert.True(t, found, "expected dispense line in %v", env.lines())
	assert.Equal(t, currency.Amount(0), env.ui.g.Money.Credit())

	// out of stock slot
	env.ui.handleFrontLine(ctx, "coin 50")
	next = env.ui.handleFrontLine(ctx, "buy 2")
	assert.Equal(t, StateFrontSelect, next)
	assert.Contains(t, env.lastLine(), "not available")
}

func TestFrontRefund(t *testing.T) {
	t.Parallel()
	ctx, env := newUITestEnv(t)

	next := env.ui.handleFrontLine(ctx, "refund")
	assert.Equal(t, StateFrontSelect, next)
	assert.Contains(t, env.lastLine(), "nothing to refund")

	env.ui.handleFrontLine(ctx, "coin 10")
	next = env.ui.handleFrontLine(ctx, "refund")
	assert.Equal(t, StateFrontEnd, next)
	assert.Contains(t, env.lastLine(), "returned")
	assert.Equal(t, currency.Amount(0), env.ui.g.Money.Credit())
}

func TestServiceAuth(t *testing.T) {
	t.Parallel()
	_, env := newUITestEnv(t)

	assert.False(t, env.ui.service.Auth("guess"))
	assert.False(t, env.ui.service.Auth(""))
	assert.True(t, env.ui.service.Auth("1234"))
}

func TestServiceCommands(t *testing.T) {
	t.Parallel()
	ctx, env := newUITestEnv(t)

	next := env.ui.handleServiceLine(ctx, "restock 2 5")
	assert.Equal(t, StateServiceMenu, next)
	slot, err := env.ui.g.Catalog.Get(2)
	require.NoError(t, err)
	assert.Equal(t, uint(5), slot.Remaining())

	next = env.ui.handleServiceLine(ctx, "add 3 juice 30 4")
	assert.Equal(t, StateServiceMenu, next)
	slot, err = env.ui.g.Catalog.Get(3)
	require.NoError(t, err)
	assert.Equal(t, currency.Amount(300), slot.Good.Price())

	next = env.ui.handleServiceLine(ctx, "add 3 dup 30 4")
	assert.Equal(t, StateServiceMenu, next)
	assert.Contains(t, env.lastLine(), "already registered")

	next = env.ui.handleServiceLine(ctx, "load 5 10")
	assert.Equal(t, StateServiceMenu, next)
	assert.Contains(t, env.lastLine(), "stock")

	next = env.ui.handleServiceLine(ctx, "collect")
	assert.Equal(t, StateServiceMenu, next)
	assert.Equal(t, "collected 0", env.lastLine())

	next = env.ui.handleServiceLine(ctx, "report")
	assert.Equal(t, StateServiceMenu, next)

	next = env.ui.handleServiceLine(ctx, "end")
	assert.Equal(t, StateServiceEnd, next)
}

func TestLoopSmoke(t *testing.T) {
	t.Parallel()
	ctx, env := newUITestEnv(t)
	g := env.ui.g

	done := make(chan struct{})
	go func() {
		env.ui.Loop(ctx)
		close(done)
	}()

	env.ui.Submit("coin 10")
	env.ui.Submit("coin 5")
	env.ui.Submit("buy 1")
	env.ui.Submit("stop")
	<-done
	g.Alive.Stop()

	assert.Equal(t, currency.Amount(0), g.Money.Credit())
	found := false
	for _, l := range env.lines() {
		if l == "dispensed water" {
			found = true
		}
	}
	assert.True(t, found, "expected dispense in %v", env.lines())
}

package state_test

import (
	"context"
	"strings"
	"testing"

	"github.com/gagarin78/vendo/currency"
	"github.com/gagarin78/vendo/internal/state"
	state_new "github.com/gagarin78/vendo/internal/state/new"
	"github.com/gagarin78/vendo/log2"
	"github.com/gagarin78/vendo/tele"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const confMinimal = `
money {
	scale = 10
	coin "1" { count = 10 }
	coin "5" { count = 4 }
	coin "10" { count = 2 }
	coin "20" {}
	coin "50" {}
	coin "100" {}
}
catalog {
	slot "1" { name = "water" price = 15 stock = 6 }
	slot "2" { name = "sandwich" price = 25 stock = 3 shelf_life_sec = 3600 }
}
`

func TestReadConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(testing.TB, context.Context)
		expectErr string
	}
	cases := []Case{
		{"minimal", confMinimal, func(t testing.TB, ctx context.Context) {
			g := state.GetGlobal(ctx)
			assert.Equal(t, 10, g.Config.Money.Scale)
			assert.Equal(t, 6, len(g.Config.Money.Coins))
			// nominal 1 at scale 10 = 10 minor units; float 10 coins = 1.00
			// plus 4x0.50 plus 2x1.00 = 5.00 total
			assert.Equal(t, currency.Amount(500), g.Money.Total())
			assert.Equal(t, 2, g.Catalog.Len())
			slot, err := g.Catalog.Get(1)
			require.NoError(t, err)
			assert.Equal(t, currency.Amount(150), slot.Good.Price())
		}, ""},

		{"no-coins", `money { scale = 1 }`, nil, "money has no coin blocks"},

		{"bad-nominal", `money { scale = 1 coin "x" { count = 1 } }`, nil, "money.coin nominal=x"},

		{"negative-count", `money { scale = 1 coin "1" { count = -2 } }`, nil, "money.coin nominal=1 count=-2"},

		{"negative-stock", `money { scale = 1 coin "1" { count = 1 } }
catalog { slot "9" { name = "x" price = 1 stock = -1 } }`, nil, "catalog.slot code=9"},

		{"service-auth", confMinimal + `
ui { service { auth {
	enable = true
	passwords = ["1234"]
} } }`, func(t testing.TB, ctx context.Context) {
			g := state.GetGlobal(ctx)
			assert.True(t, g.Config.UI.Service.Auth.Enable)
			assert.Equal(t, []string{"1234"}, g.Config.UI.Service.Auth.Passwords)
		}, ""},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			if c.expectErr == "" {
				ctx, _ := state_new.NewTestContext(t, "test", c.input)
				if c.check != nil {
					c.check(t, ctx)
				}
				return
			}
			log := log2.NewFunc(t.Logf, log2.LDebug)
			fs := state.NewMockFullReader(map[string]string{"test-inline": c.input})
			cfg, err := state.ReadConfig(log, fs, "test-inline")
			if err == nil {
				ctx, g := state_new.NewContext(log, tele.NewStub())
				err = g.Init(ctx, cfg)
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), c.expectErr),
				"expected err to contain %q, got %v", c.expectErr, err)
		})
	}
}

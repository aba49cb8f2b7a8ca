package state

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gagarin78/vendo/currency"
	"github.com/gagarin78/vendo/helpers"
	"github.com/gagarin78/vendo/internal/catalog"
	"github.com/gagarin78/vendo/internal/money"
	"github.com/gagarin78/vendo/internal/vend"
	"github.com/gagarin78/vendo/log2"
	"github.com/gagarin78/vendo/tele"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/atomic_clock"
)

// Global is the explicit context object: catalog, ledger, credentials,
// telemetry. Constructed once at startup and threaded through calls,
// no ambient process state.
type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *Config
	Log          *log2.Log
	Money        *money.MoneySystem
	Catalog      *catalog.Catalog
	Vendor       *vend.Vendor
	Tele         tele.Teler
	StartedAt    *atomic_clock.Clock

	_copy_guard sync.Mutex //nolint:unused
}

const ContextKey = "run/state-global"

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg
	g.Log.Infof("build version=%s", g.BuildVersion)
	g.StartedAt = atomic_clock.Now()

	// Since tele is the remote error reporting mechanism, it must be inited
	// before anything else. Tele gets a log clone before SetErrorFunc so
	// tele's own log.Error does not recurse onto itself.
	g.Config.Tele.BuildVersion = g.BuildVersion
	if g.Config.Tele.Enable {
		if err := g.Tele.Init(ctx, g.Log.Clone(log2.LInfo), g.Config.Tele); err != nil {
			g.Tele = tele.NewStub()
			return errors.Annotate(err, "tele init")
		}
	}
	g.Log.SetErrorFunc(g.Tele.Error)

	if g.Config.Money.Scale == 0 {
		g.Config.Money.Scale = 1
		g.Log.Errorf("config: money.scale is not set")
	} else if g.Config.Money.Scale < 0 {
		return errors.NotValidf("config: money.scale < 0")
	}
	g.Config.Money.CreditMax *= g.Config.Money.Scale

	errs := make([]error, 0, 8)

	nominals := make([]currency.Nominal, 0, len(g.Config.Money.Coins))
	floats := make(map[currency.Nominal]uint, len(g.Config.Money.Coins))
	for _, cc := range g.Config.Money.Coins {
		n, err := strconv.Atoi(cc.Nominal)
		if err != nil || n <= 0 || cc.Count < 0 {
			errs = append(errs, errors.NotValidf("config: money.coin nominal=%s count=%d", cc.Nominal, cc.Count))
			continue
		}
		nominal := currency.Nominal(g.Config.ScaleI(n))
		nominals = append(nominals, nominal)
		if cc.Count > 0 {
			floats[nominal] = uint(cc.Count)
		}
	}
	if len(nominals) == 0 {
		errs = append(errs, errors.NotValidf("config: money has no coin blocks"))
	}
	g.Money = money.NewMoneySystem(g.Log, nominals)
	for nominal, count := range floats {
		if err := g.Money.LoadFloat(nominal, count); err != nil {
			errs = append(errs, errors.Annotatef(err, "config: money.coin nominal=%s", currency.Amount(nominal).Format100I()))
		}
	}

	g.Catalog = catalog.NewCatalog(g.Log)
	now := time.Now()
	for _, sc := range g.Config.Catalog.Slots {
		codeInt, err := strconv.Atoi(sc.Code)
		if err != nil || codeInt < 0 || codeInt > 65535 || sc.Stock < 0 {
			errs = append(errs, errors.NotValidf("config: catalog.slot code=%s", sc.Code))
			continue
		}
		sc.Price = g.Config.ScaleI(sc.XXX_Price)
		var good catalog.Good
		if sc.ShelfLifeSec > 0 {
			good = catalog.Perishable{
				Name:       sc.Name,
				UnitPrice:  sc.Price,
				BestBefore: now.Add(time.Duration(sc.ShelfLifeSec) * time.Second),
			}
		} else {
			good = catalog.Plain{Name: sc.Name, UnitPrice: sc.Price}
		}
		if err := g.Catalog.Add(catalog.NewSlot(uint16(codeInt), good, uint(sc.Stock))); err != nil {
			errs = append(errs, errors.Annotatef(err, "config: catalog.slot code=%s", sc.Code))
		}
	}

	g.Vendor = vend.NewVendor(g.Log, g.Money, g.Catalog, g.Tele)

	if g.Config.UI.Front.MsgIntro == "" {
		g.Config.UI.Front.MsgIntro = "insert coins, choose product"
	}
	if g.Config.UI.Front.MsgError == "" {
		g.Config.UI.Front.MsgError = "error"
	}
	if g.Config.UI.Front.MsgThanks == "" {
		g.Config.UI.Front.MsgThanks = "thank you"
	}
	if g.Config.UI.Service.MsgAuth == "" {
		g.Config.UI.Service.MsgAuth = "service password:"
	}

	return helpers.FoldErrors(errs)
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	if err := g.Init(ctx, cfg); err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

// Error logs; the log error hook forwards to telemetry exactly once.
func (g *Global) Error(err error) {
	if err != nil {
		g.Log.Error(err)
	}
}

func (g *Global) Uptime() time.Duration { return atomic_clock.Since(g.StartedAt) }

func (g *Global) Stop() {
	g.Tele.Close()
	g.Alive.Stop()
}

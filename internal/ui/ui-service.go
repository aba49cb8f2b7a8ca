package ui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gagarin78/vendo/currency"
	"github.com/gagarin78/vendo/helpers"
	"github.com/gagarin78/vendo/internal/catalog"
	"github.com/gagarin78/vendo/internal/state"
	"github.com/gagarin78/vendo/tele"
)

const serviceHelp = "commands: restock <code> <n> | add <code> <name> <price> <stock> [shelf_life_sec] | load <nominal> <n> | collect | report | end"

type uiService struct {
	g            *state.Global
	resetTimeout time.Duration
}

func (self *uiService) Init(g *state.Global) {
	self.g = g
	self.resetTimeout = helpers.IntSecondDefault(g.Config.UI.Service.ResetTimeoutSec, 3*time.Minute)
}

// Auth is a plain equality check against the configured password list.
// Known weak point, kept simple on purpose; do not store anything valuable
// behind it.
func (self *uiService) Auth(input string) bool {
	for _, p := range self.g.Config.UI.Service.Auth.Passwords {
		if p != "" && p == input {
			return true
		}
	}
	return false
}

func (self *UI) onServiceBegin(ctx context.Context) State {
	self.g.Tele.State(tele.State_Service)
	if !self.g.Config.UI.Service.Auth.Enable {
		return StateServiceMenu
	}
	return StateServiceAuth
}

func (self *UI) onServiceAuth(ctx context.Context) State {
	self.Printf("%s", self.g.Config.UI.Service.MsgAuth)
	line, ev := self.wait(self.service.resetTimeout)
	if ev != waitLine {
		return StateServiceEnd
	}
	if self.service.Auth(line) {
		self.Printf("service mode, %s", serviceHelp)
		return StateServiceMenu
	}
	self.g.Log.Infof("ui service wrong password")
	self.Printf("access denied")
	return StateServiceEnd
}

func (self *UI) onServiceMenu(ctx context.Context) State {
	line, ev := self.wait(self.service.resetTimeout)
	if ev != waitLine {
		return StateServiceEnd
	}
	return self.handleServiceLine(ctx, line)
}

func (self *UI) handleServiceLine(ctx context.Context, line string) State {
	words := strings.Fields(line)
	if len(words) == 0 {
		return StateServiceMenu
	}
	switch words[0] {
	case "restock":
		if len(words) != 3 {
			self.Printf("usage: restock <code> <n>")
			return StateServiceMenu
		}
		code, err1 := strconv.ParseUint(words[1], 10, 16)
		count, err2 := strconv.ParseUint(words[2], 10, 31)
		if err1 != nil || err2 != nil || count == 0 {
			self.Printf("restock args must be numbers")
			return StateServiceMenu
		}
		slot, err := self.g.Catalog.Get(uint16(code))
		if err != nil {
			self.Printf("%s", err.Error())
			return StateServiceMenu
		}
		slot.Restock(uint(count))
		self.Printf("%s", slot.String())
		return StateServiceMenu

	case "add":
		if len(words) < 5 || len(words) > 6 {
			self.Printf("usage: add <code> <name> <price> <stock> [shelf_life_sec]")
			return StateServiceMenu
		}
		code, err1 := strconv.ParseUint(words[1], 10, 16)
		price, err2 := strconv.Atoi(words[3])
		stock, err3 := strconv.ParseUint(words[4], 10, 31)
		if err1 != nil || err2 != nil || err3 != nil || price < 0 {
			self.Printf("add args must be numbers")
			return StateServiceMenu
		}
		var good catalog.Good
		if len(words) == 6 {
			shelf, err := strconv.Atoi(words[5])
			if err != nil || shelf <= 0 {
				self.Printf("shelf_life_sec must be a positive number")
				return StateServiceMenu
			}
			good = catalog.Perishable{
				Name:       words[2],
				UnitPrice:  self.g.Config.ScaleI(price),
				BestBefore: self.g.Vendor.Now().Add(time.Duration(shelf) * time.Second),
			}
		} else {
			good = catalog.Plain{Name: words[2], UnitPrice: self.g.Config.ScaleI(price)}
		}
		slot := catalog.NewSlot(uint16(code), good, uint(stock))
		if err := self.g.Catalog.Add(slot); err != nil {
			self.Printf("%s", err.Error())
			return StateServiceMenu
		}
		self.Printf("%s", slot.String())
		return StateServiceMenu

	case "load":
		if len(words) != 3 {
			self.Printf("usage: load <nominal> <n>")
			return StateServiceMenu
		}
		v, err1 := strconv.Atoi(words[1])
		count, err2 := strconv.ParseUint(words[2], 10, 31)
		if err1 != nil || err2 != nil || v <= 0 || count == 0 {
			self.Printf("load args must be numbers")
			return StateServiceMenu
		}
		nominal := currency.Nominal(self.g.Config.ScaleI(v))
		if err := self.g.Money.LoadFloat(nominal, uint(count)); err != nil {
			self.Printf("nominal %s is not accepted", currency.Amount(nominal).Format100I())
			return StateServiceMenu
		}
		self.Printf("stock %s", self.g.Money.StockString())
		return StateServiceMenu

	case "collect":
		collected := self.g.Money.CollectEarnings()
		self.Printf("collected %s", collected.Format100I())
		return StateServiceMenu

	case "report":
		self.Printf("uptime %s", self.g.Uptime().Round(time.Second))
		self.Printf("coins %s", self.g.Money.StockString())
		self.Printf("earnings %s", self.g.Money.Earnings().Format100I())
		self.g.Catalog.Iter(func(s *catalog.Slot) {
			self.Printf("%s", s.String())
		})
		return StateServiceMenu

	case "end":
		return StateServiceEnd

	default:
		self.Printf("%s", serviceHelp)
		return StateServiceMenu
	}
}

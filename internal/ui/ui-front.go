package ui

import (
	"context"
	"strconv"
	"strings"

	"github.com/gagarin78/vendo/currency"
	"github.com/gagarin78/vendo/internal/catalog"
	"github.com/gagarin78/vendo/internal/vend"
	"github.com/gagarin78/vendo/tele"
	"github.com/juju/errors"
)

func (self *UI) onFrontBegin(ctx context.Context) State {
	self.Printf("%s", self.g.Config.UI.Front.MsgIntro)
	if credit := self.g.Money.Credit(); credit > 0 {
		self.Printf("credit=%s", credit.Format100I())
	}
	return StateFrontSelect
}

func (self *UI) onFrontSelect(ctx context.Context) State {
	line, ev := self.wait(self.frontResetTimeout)
	switch ev {
	case waitStop:
		return StateStop
	case waitTimeout:
		return StateFrontBegin
	}
	return self.handleFrontLine(ctx, line)
}

func (self *UI) handleFrontLine(ctx context.Context, line string) State {
	words := strings.Fields(line)
	if len(words) == 0 {
		return StateFrontSelect
	}
	self.g.Tele.State(tele.State_Client)

	switch words[0] {
	case "coin":
		if len(words) != 2 {
			self.Printf("usage: coin <value>")
			return StateFrontSelect
		}
		v, err := strconv.Atoi(words[1])
		if err != nil || v <= 0 {
			self.Printf("coin value must be a positive number")
			return StateFrontSelect
		}
		nominal := currency.Nominal(self.g.Config.ScaleI(v))
		if max := currency.Amount(self.g.Config.Money.CreditMax); max > 0 &&
			self.g.Money.Credit()+currency.Amount(nominal) > max {
			self.Printf("credit limit %s, buy or refund first", max.Format100I())
			return StateFrontSelect
		}
		credit, err := self.g.Money.Deposit(nominal)
		if err != nil {
			self.Printf("coin %s is not accepted, accepted: %s",
				currency.Amount(nominal).Format100I(), self.acceptedString())
			return StateFrontSelect
		}
		self.Printf("credit=%s", credit.Format100I())
		return StateFrontSelect

	case "menu":
		self.g.Catalog.Iter(func(s *catalog.Slot) {
			mark := ""
			if !s.Available(self.g.Vendor.Now()) {
				mark = " (not available)"
			}
			self.Printf("%d\t%s\t%s%s", s.Code, s.Good.Price().Format100I(), s.Good.Description(), mark)
		})
		return StateFrontSelect

	case "credit":
		self.Printf("credit=%s", self.g.Money.Credit().Format100I())
		return StateFrontSelect

	case "buy":
		if len(words) != 2 {
			self.Printf("usage: buy <code>")
			return StateFrontSelect
		}
		code, err := strconv.ParseUint(words[1], 10, 16)
		if err != nil {
			self.Printf("buy code must be a number")
			return StateFrontSelect
		}
		r, err := self.g.Vendor.Purchase(ctx, uint16(code))
		if err != nil {
			self.showVendError(err)
			return StateFrontSelect
		}
		self.Printf("dispensed %s", r.Item)
		if r.Change.Total() > 0 {
			self.Printf("change %s", r.Change.String())
		}
		return StateFrontEnd

	case "refund":
		r, err := self.g.Vendor.Refund(ctx)
		if err != nil {
			self.showVendError(err)
			return StateFrontSelect
		}
		self.Printf("returned %s", r.Change.String())
		return StateFrontEnd

	case "service":
		return StateServiceBegin

	case "stop":
		return StateStop

	default:
		self.Printf("commands: coin <value> | menu | credit | buy <code> | refund | service")
		return StateFrontSelect
	}
}

func (self *UI) showVendError(err error) {
	cause := errors.Cause(err)
	if _, ok := cause.(vend.NeedMoreMoneyError); ok {
		self.Printf("%s", cause.Error())
		return
	}
	switch cause {
	case vend.ErrNoCredit, vend.ErrItemUnavailable, vend.ErrItemExpired,
		vend.ErrCannotMakeChange, vend.ErrDispenseFailure, vend.ErrNothingToRefund,
		catalog.ErrSlotNotFound:
		self.Printf("%s", cause.Error())
	case vend.ErrChangeDispense:
		// already escalated by the engine, tell the customer too
		self.Printf("%s", cause.Error())
	default:
		self.Printf("%s", self.g.Config.UI.Front.MsgError)
		self.g.Error(err)
	}
}

func (self *UI) acceptedString() string {
	parts := make([]string, 0, 8)
	_ = self.g.Money.Snapshot().Iter(func(n currency.Nominal, count uint) error {
		parts = append(parts, currency.Amount(n).Format100I())
		return nil
	})
	return strings.Join(parts, " ")
}

package ui

import (
	"context"
	"sync/atomic"

	"github.com/gagarin78/vendo/tele"
)

type State uint32

const (
	StateDefault State = iota

	StateBoot // t=onstart ->FrontBegin

	StateFrontBegin  // print intro ->FrontSelect
	StateFrontSelect // t=input/timeout +service=ServiceBegin +buy/refund=...
	StateFrontEnd    // ->FrontBegin

	StateServiceBegin // ->ServiceAuth or ServiceMenu when auth disabled
	StateServiceAuth  // equality check against config passwords
	StateServiceMenu
	StateServiceEnd // ->FrontBegin

	StateStop
)

func (s State) String() string {
	switch s {
	case StateDefault:
		return "Default"
	case StateBoot:
		return "Boot"
	case StateFrontBegin:
		return "FrontBegin"
	case StateFrontSelect:
		return "FrontSelect"
	case StateFrontEnd:
		return "FrontEnd"
	case StateServiceBegin:
		return "ServiceBegin"
	case StateServiceAuth:
		return "ServiceAuth"
	case StateServiceMenu:
		return "ServiceMenu"
	case StateServiceEnd:
		return "ServiceEnd"
	case StateStop:
		return "Stop"
	}
	return "unknown"
}

func (self *UI) State() State { return State(atomic.LoadUint32((*uint32)(&self.state))) }
func (self *UI) setState(new State) {
	atomic.StoreUint32((*uint32)(&self.state), uint32(new))
	if self.XXX_testHook != nil {
		self.XXX_testHook(new)
	}
}

func (self *UI) Loop(ctx context.Context) {
	self.g.Alive.Add(1)
	defer self.g.Alive.Done()
	next := StateDefault
	for next != StateStop && self.g.Alive.IsRunning() {
		current := self.State()
		next = self.enter(ctx, current)
		if next == StateDefault {
			self.g.Log.Fatalf("ui state=%s next=default", current.String())
		}
		if !self.g.Alive.IsRunning() {
			self.g.Log.Debugf("ui Loop stopping because g.Alive")
			next = StateStop
		}
		self.setState(next)
	}
	self.g.Log.Debugf("ui loop end")
}

func (self *UI) enter(ctx context.Context, s State) State {
	self.g.Log.Debugf("ui enter %s", s.String())
	switch s {
	case StateBoot:
		self.g.Tele.State(tele.State_Boot)
		return StateFrontBegin

	case StateFrontBegin:
		return self.onFrontBegin(ctx)

	case StateFrontSelect:
		return self.onFrontSelect(ctx)

	case StateFrontEnd:
		self.Printf("%s", self.g.Config.UI.Front.MsgThanks)
		return StateFrontBegin

	case StateServiceBegin:
		return self.onServiceBegin(ctx)
	case StateServiceAuth:
		return self.onServiceAuth(ctx)
	case StateServiceMenu:
		return self.onServiceMenu(ctx)
	case StateServiceEnd:
		self.g.Tele.State(tele.State_Nominal)
		return StateFrontBegin

	case StateStop:
		return StateStop

	default:
		self.g.Log.Fatalf("unhandled ui state=%s", s.String())
		return StateDefault
	}
}

// Package ui drives the terminal: a line-command front for customers and a
// password-gated service mode for the operator. It owns no payment state;
// every request goes through the engine and results are rendered back.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gagarin78/vendo/helpers"
	"github.com/gagarin78/vendo/internal/state"
	"github.com/temoto/atomic_clock"
)

type UI struct { //nolint:maligned
	g       *state.Global
	state   State
	service uiService

	inputch chan string
	print   func(s string)

	lastActivity      *atomic_clock.Clock
	frontResetTimeout time.Duration

	XXX_testHook func(State)
}

// Init wires the UI to the global context. print may be nil (stdout).
func (self *UI) Init(ctx context.Context, print func(s string)) error {
	self.g = state.GetGlobal(ctx)
	if print == nil {
		print = func(s string) { fmt.Println(s) }
	}
	self.print = print
	self.inputch = make(chan string)
	self.lastActivity = atomic_clock.Now()
	self.frontResetTimeout = helpers.IntSecondDefault(self.g.Config.UI.Front.ResetTimeoutSec, 5*time.Minute)
	self.service.Init(self.g)
	self.setState(StateBoot)
	return nil
}

// Submit feeds one input line to the UI loop. Blocks until the loop takes it
// or the machine stops.
func (self *UI) Submit(line string) {
	select {
	case self.inputch <- line:
	case <-self.g.Alive.StopChan():
	}
}

func (self *UI) Printf(format string, args ...interface{}) {
	self.print(fmt.Sprintf(format, args...))
}

type waitEvent uint8

const (
	waitLine waitEvent = iota
	waitTimeout
	waitStop
)

func (self *UI) wait(timeout time.Duration) (string, waitEvent) {
	var tmr <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		tmr = t.C
	}
	select {
	case line := <-self.inputch:
		self.lastActivity.SetNow()
		return line, waitLine
	case <-tmr:
		return "", waitTimeout
	case <-self.g.Alive.StopChan():
		return "", waitStop
	}
}

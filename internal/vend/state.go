package vend

import "sync/atomic"

type State uint32

const (
	StateIdle State = iota

	StateAwaitingPayment  // credit check, item lookup
	StateFeasibilityCheck // change probe against ledger snapshot, no mutation
	StateCommitting       // dispense then withdraw, the critical section
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingPayment:
		return "AwaitingPayment"
	case StateFeasibilityCheck:
		return "FeasibilityCheck"
	case StateCommitting:
		return "Committing"
	case StateCompleted:
		return "Completed"
	case StateAborted:
		return "Aborted"
	}
	return "unknown"
}

func (self *Vendor) State() State { return State(atomic.LoadUint32((*uint32)(&self.state))) }

func (self *Vendor) setState(new State) {
	atomic.StoreUint32((*uint32)(&self.state), uint32(new))
	if self.XXX_testHook != nil {
		self.XXX_testHook(new)
	}
}

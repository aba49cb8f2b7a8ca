// Package tele is the operator telemetry channel, vending machine side.
// Faults that require a human (change debt after dispense, broken state)
// go here; so does the transaction journal.
package tele

import (
	"context"

	"github.com/gagarin78/vendo/currency"
	"github.com/gagarin78/vendo/log2"
	tele_config "github.com/gagarin78/vendo/tele/config"
)

type State uint8

const (
	State_Invalid State = iota
	State_Boot
	State_Nominal
	State_Client
	State_Service
	State_Problem
)

func (s State) String() string {
	switch s {
	case State_Boot:
		return "boot"
	case State_Nominal:
		return "nominal"
	case State_Client:
		return "client"
	case State_Service:
		return "service"
	case State_Problem:
		return "problem"
	}
	return "invalid"
}

// Tx is one resolved customer transaction.
type Tx struct {
	ID     string          `json:"id"`
	Kind   string          `json:"kind"` // sale | refund
	Item   string          `json:"item,omitempty"`
	Price  currency.Amount `json:"price"`
	Paid   currency.Amount `json:"paid"`
	Change currency.Amount `json:"change"`
}

// Teler is the telemetry client. Not for external public usage.
type Teler interface {
	Init(context.Context, *log2.Log, tele_config.Config) error
	Close()
	State(State)
	Error(error)
	Transaction(*Tx)
}

type stub struct{}

func (stub) Init(context.Context, *log2.Log, tele_config.Config) error { return nil }
func (stub) Close()                                                    {}
func (stub) State(State)                                               {}
func (stub) Error(error)                                               {}
func (stub) Transaction(*Tx)                                           {}

var _ Teler = stub{}

func NewStub() Teler { return stub{} }

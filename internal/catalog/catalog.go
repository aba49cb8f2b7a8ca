// Package catalog owns the sellable slots. The payment engine only borrows
// a slot for the duration of one purchase, it never owns catalog state.
package catalog

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagarin78/vendo/log2"
	"github.com/juju/errors"
)

var (
	ErrSlotNotFound  = errors.New("slot is not registered")
	ErrSlotDuplicate = errors.New("slot code already registered")
)

type Slot struct {
	Code uint16
	Good Good

	remaining int32 // atomic
}

func NewSlot(code uint16, good Good, stock uint) *Slot {
	return &Slot{Code: code, Good: good, remaining: int32(stock)}
}

func (s *Slot) Remaining() uint { return uint(atomic.LoadInt32(&s.remaining)) }

func (s *Slot) Available(now time.Time) bool {
	return atomic.LoadInt32(&s.remaining) > 0 && s.Good.Available(now)
}

// TryDispense takes one unit. False when out of stock or the good went
// stale between selection and dispense.
func (s *Slot) TryDispense(now time.Time) bool {
	if !s.Good.Available(now) {
		return false
	}
	for {
		old := atomic.LoadInt32(&s.remaining)
		if old <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&s.remaining, old, old-1) {
			return true
		}
	}
}

func (s *Slot) Restock(count uint) { atomic.AddInt32(&s.remaining, int32(count)) }

func (s *Slot) String() string {
	return fmt.Sprintf("slot(code=%d good=%s price=%s remaining=%d)",
		s.Code, s.Good.Description(), s.Good.Price().Format100I(), s.Remaining())
}

type Catalog struct {
	log *log2.Log
	mu  sync.RWMutex
	ss  map[uint16]*Slot
}

func NewCatalog(log *log2.Log) *Catalog {
	return &Catalog{log: log, ss: make(map[uint16]*Slot, 16)}
}

func (self *Catalog) Add(slot *Slot) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if _, ok := self.ss[slot.Code]; ok {
		return errors.Annotatef(ErrSlotDuplicate, "code=%d", slot.Code)
	}
	self.ss[slot.Code] = slot
	self.log.Debugf("catalog.add %s", slot.String())
	return nil
}

func (self *Catalog) Get(code uint16) (*Slot, error) {
	self.mu.RLock()
	defer self.mu.RUnlock()
	if s, ok := self.ss[code]; ok {
		return s, nil
	}
	return nil, errors.Annotatef(ErrSlotNotFound, "code=%d", code)
}

// Iter visits slots in ascending code order.
func (self *Catalog) Iter(fun func(s *Slot)) {
	self.mu.RLock()
	codes := make([]int, 0, len(self.ss))
	for code := range self.ss {
		codes = append(codes, int(code))
	}
	sort.Ints(codes)
	slots := make([]*Slot, 0, len(codes))
	for _, code := range codes {
		slots = append(slots, self.ss[uint16(code)])
	}
	self.mu.RUnlock()
	for _, s := range slots {
		fun(s)
	}
}

func (self *Catalog) Len() int {
	self.mu.RLock()
	defer self.mu.RUnlock()
	return len(self.ss)
}

package currency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/juju/errors"
)

// Amount is integer counting lowest currency unit, e.g. $1.20 = 120
type Amount uint32

func (self Amount) Format100I() string { return fmt.Sprint(float32(self) / 100) }

// Nominal is value of one accepted coin
type Nominal Amount

var (
	ErrNominalInvalid = errors.New("Nominal is not valid for this group")
	ErrNominalCount   = errors.New("Not enough nominals for this amount")
)

// NominalGroup is money counted per nominal, like coin tubes.
// coin10 : 3
// coin50 : 1
// coin100: 4
// total  : 480
type NominalGroup struct {
	values map[Nominal]uint
}

func (self *NominalGroup) SetValid(valid []Nominal) {
	self.values = make(map[Nominal]uint, len(valid))
	for _, n := range valid {
		if n != 0 {
			self.values[n] = 0
		}
	}
}

func (self *NominalGroup) Copy() *NominalGroup {
	ng2 := &NominalGroup{
		values: make(map[Nominal]uint, len(self.values)),
	}
	for k, v := range self.values {
		ng2.values[k] = v
	}
	return ng2
}

func (self *NominalGroup) Add(n Nominal, count uint) error {
	if _, ok := self.values[n]; !ok {
		return errors.Annotatef(ErrNominalInvalid, "Add(n=%s, c=%d)", Amount(n).Format100I(), count)
	}
	self.values[n] += count
	return nil
}

func (self *NominalGroup) MustAdd(n Nominal, count uint) {
	if err := self.Add(n, count); err != nil {
		panic(err)
	}
}

func (self *NominalGroup) AddFrom(source *NominalGroup) {
	if self.values == nil {
		self.values = make(map[Nominal]uint, len(source.values))
	}
	for k, v := range source.values {
		self.values[k] += v
	}
}

func (self *NominalGroup) Clear() {
	for n := range self.values {
		self.values[n] = 0
	}
}

func (self *NominalGroup) Get(n Nominal) (uint, error) {
	if stored, ok := self.values[n]; !ok {
		return 0, ErrNominalInvalid
	} else {
		return stored, nil
	}
}

// Nominals returns the valid set sorted high to low.
func (self *NominalGroup) Nominals() []Nominal {
	ns := make([]Nominal, 0, len(self.values))
	for n := range self.values {
		ns = append(ns, n)
	}
	sort.Slice(ns, func(i, j int) bool { return ns[i] > ns[j] })
	return ns
}

// Iter visits nominals high to low, deterministic order.
func (self *NominalGroup) Iter(f func(nominal Nominal, count uint) error) error {
	for _, nominal := range self.Nominals() {
		if err := f(nominal, self.values[nominal]); err != nil {
			return err
		}
	}
	return nil
}

func (self *NominalGroup) Total() Amount {
	sum := Amount(0)
	for nominal, count := range self.values {
		sum += Amount(nominal) * Amount(count)
	}
	return sum
}

func (self *NominalGroup) String() string {
	parts := make([]string, 0, len(self.values)+1)
	sum := Amount(0)
	for nominal, count := range self.values {
		if count > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", Amount(nominal).Format100I(), count))
			sum += Amount(nominal) * Amount(count)
		}
	}
	sort.Strings(parts)
	parts = append(parts, fmt.Sprintf("total:%s", sum.Format100I()))
	return strings.Join(parts, ",")
}

// MakeChange picks nominals summing exactly to amount, greedy high to low.
// Does not modify the receiver. Greedy may refuse amounts a smarter
// combination could serve; Contains must agree with that refusal.
func (self *NominalGroup) MakeChange(amount Amount) (*NominalGroup, error) {
	change := &NominalGroup{values: make(map[Nominal]uint, len(self.values))}
	remaining := amount
	for _, n := range self.Nominals() {
		if remaining == 0 {
			break
		}
		take := uint(remaining / Amount(n))
		if avail := self.values[n]; take > avail {
			take = avail
		}
		if take > 0 {
			change.values[n] = take
			remaining -= Amount(n) * Amount(take)
		}
	}
	if remaining != 0 {
		return nil, errors.Annotatef(ErrNominalCount, "MakeChange(%s) short=%s", amount.Format100I(), remaining.Format100I())
	}
	return change, nil
}

// Contains reports whether MakeChange(amount) would succeed.
func (self *NominalGroup) Contains(amount Amount) bool {
	_, err := self.MakeChange(amount)
	return err == nil
}

// Take removes breakdown from the group. Either all counts are available and
// all are subtracted, or nothing changes.
func (self *NominalGroup) Take(breakdown *NominalGroup) error {
	for n, c := range breakdown.values {
		if stored, ok := self.values[n]; !ok {
			return errors.Annotatef(ErrNominalInvalid, "Take(n=%s)", Amount(n).Format100I())
		} else if stored < c {
			return errors.Annotatef(ErrNominalCount, "Take(n=%s, c=%d) stored=%d", Amount(n).Format100I(), c, stored)
		}
	}
	for n, c := range breakdown.values {
		self.values[n] -= c
	}
	return nil
}

package risk

import (
	"fmt"
	"sync"
)

// Limits caps outgoing payments in MIST. Zero disables a cap.
type Limits struct {
	MaxPerTransfer uint64
	MaxTotal       uint64
}

func (l Limits) Allow(amount uint64) bool {
	return l.MaxPerTransfer == 0 || amount <= l.MaxPerTransfer
}

// Affordable returns how many of n transfers of amount the limits let through.
func (l Limits) Affordable(n int, amount uint64) int {
	if n <= 0 || !l.Allow(amount) {
		return 0
	}
	if l.MaxTotal == 0 || amount == 0 {
		return n
	}
	if fit := l.MaxTotal / amount; fit < uint64(n) {
		return int(fit)
	}
	return n
}

// Budget tracks what one run has spent against Limits.
type Budget struct {
	limits Limits

	mu    sync.Mutex
	spent uint64
}

func NewBudget(limits Limits) *Budget { return &Budget{limits: limits} }

// Reserve accounts amount against the budget or explains why it cannot be sent.
func (b *Budget) Reserve(amount uint64) error {
	if !b.limits.Allow(amount) {
		return fmt.Errorf("amount %d MIST exceeds per-transfer cap %d", amount, b.limits.MaxPerTransfer)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limits.MaxTotal != 0 && (b.spent+amount < b.spent || b.spent+amount > b.limits.MaxTotal) {
		return fmt.Errorf("amount %d MIST would exceed total cap %d (spent %d)", amount, b.limits.MaxTotal, b.spent)
	}
	b.spent += amount
	return nil
}

// Release returns a reservation whose payment did not go out.
func (b *Budget) Release(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if amount > b.spent {
		b.spent = 0
		return
	}
	b.spent -= amount
}

func (b *Budget) Spent() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spent
}

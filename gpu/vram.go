package gpu

import "sync"

// VRAMBudgets maps each buffer-usage category to its byte budget. Zero means
// unbounded for that category.
type VRAMBudgets map[BufferUsage]int64

// VRAMAccountant tracks bytes charged per BufferUsage category and rejects
// allocations that would exceed a category's configured budget.
type VRAMAccountant struct {
	mu      sync.Mutex
	budgets VRAMBudgets
	used    map[BufferUsage]int64
}

func NewVRAMAccountant(budgets VRAMBudgets) *VRAMAccountant {
	return &VRAMAccountant{budgets: budgets, used: make(map[BufferUsage]int64)}
}

// Charge reserves size bytes against category, failing with
// ErrVRAMBudgetExceeded if the category has a configured budget that this
// charge would exceed.
func (v *VRAMAccountant) Charge(category BufferUsage, size int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	budget := v.budgets[category]
	used := v.used[category]
	if budget > 0 && used+size > budget {
		return &ErrVRAMBudgetExceeded{Category: category, Requested: size, Used: used, Budget: budget}
	}
	v.used[category] = used + size
	return nil
}

// Release returns size bytes to category's available budget.
func (v *VRAMAccountant) Release(category BufferUsage, size int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.used[category] -= size
	if v.used[category] < 0 {
		v.used[category] = 0
	}
}

// Used reports the current charge against category.
func (v *VRAMAccountant) Used(category BufferUsage) int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.used[category]
}

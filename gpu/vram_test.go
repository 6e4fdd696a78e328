package gpu

import "testing"

func TestVRAMAccountant_ChargeRejectsOverBudget(t *testing.T) {
	v := NewVRAMAccountant(VRAMBudgets{BufferUsageVertex: 1024})
	if err := v.Charge(BufferUsageVertex, 700); err != nil {
		t.Fatalf("unexpected error for in-budget charge: %v", err)
	}
	if err := v.Charge(BufferUsageVertex, 500); err == nil {
		t.Fatal("expected ErrVRAMBudgetExceeded, got nil")
	}
	if got := v.Used(BufferUsageVertex); got != 700 {
		t.Errorf("Used = %d, want 700 (rejected charge must not apply)", got)
	}
}

func TestVRAMAccountant_ZeroBudgetIsUnbounded(t *testing.T) {
	v := NewVRAMAccountant(VRAMBudgets{})
	if err := v.Charge(BufferUsageStorage, 1<<40); err != nil {
		t.Fatalf("unbudgeted category must never reject: %v", err)
	}
}

func TestVRAMAccountant_ReleaseNeverGoesNegative(t *testing.T) {
	v := NewVRAMAccountant(VRAMBudgets{BufferUsageIndex: 1024})
	v.Charge(BufferUsageIndex, 200)
	v.Release(BufferUsageIndex, 500)
	if got := v.Used(BufferUsageIndex); got != 0 {
		t.Errorf("Used = %d, want 0 (clamped at zero)", got)
	}
}

func TestVRAMAccountant_CategoriesAreIndependent(t *testing.T) {
	v := NewVRAMAccountant(VRAMBudgets{BufferUsageVertex: 100, BufferUsageIndex: 100})
	if err := v.Charge(BufferUsageVertex, 100); err != nil {
		t.Fatal(err)
	}
	if err := v.Charge(BufferUsageIndex, 100); err != nil {
		t.Fatal(err)
	}
}

package estimate

import (
	"strings"
	"testing"
)

func TestSeverityMultiplier(t *testing.T) {
	tests := []struct {
		severity Severity
		want     float64
	}{
		{SeverityMild, 0.7},
		{SeverityModerate, 1.0},
		{SeveritySevere, 1.6},
		{SeverityCritical, 2.5},
		{Severity(""), 1.0},
		{Severity("bogus"), 1.0},
	}
	for _, tt := range tests {
		if got := tt.severity.Multiplier(); got != tt.want {
			t.Errorf("Multiplier(%q) = %v, want %v", tt.severity, got, tt.want)
		}
	}
}

func TestEstimateCostBaselinePlan(t *testing.T) {
	const plan = "Original Medicare (Part A/B)"

	t.Run("in-network below deductible pays full", func(t *testing.T) {
		// x-ray mild: 200 * 0.7 = 140, under the $240 deductible
		got := EstimateCost("x-ray", plan, NetworkIn, SeverityMild, false)
		if got.PatientCost != 140 {
			t.Errorf("PatientCost = %v, want 140", got.PatientCost)
		}
	})

	t.Run("in-network above deductible pays deductible plus 20%", func(t *testing.T) {
		// mri moderate: 1500 -> 240 + (1500-240)*0.20 = 492
		got := EstimateCost("mri", plan, NetworkIn, SeverityModerate, false)
		if got.PatientCost != 492 {
			t.Errorf("PatientCost = %v, want 492", got.PatientCost)
		}
	})

	t.Run("in-network with deductible met pays 20%", func(t *testing.T) {
		got := EstimateCost("mri", plan, NetworkIn, SeverityModerate, true)
		if got.PatientCost != 300 {
			t.Errorf("PatientCost = %v, want 300", got.PatientCost)
		}
	})

	t.Run("non-assigned pays 35%", func(t *testing.T) {
		got := EstimateCost("mri", plan, NetworkBaseline, SeverityModerate, false)
		if got.PatientCost != 525 {
			t.Errorf("PatientCost = %v, want 525", got.PatientCost)
		}
	})
}

func TestEstimateCostManagedPlan(t *testing.T) {
	const plan = "Humana Gold Plus HMO"

	t.Run("in-network cheap procedure gets copay plus 25%", func(t *testing.T) {
		// x-ray moderate: 200 < 500 -> 40 + 200*0.25 = 90
		got := EstimateCost("x-ray", plan, NetworkIn, SeverityModerate, false)
		if got.PatientCost != 90 {
			t.Errorf("PatientCost = %v, want 90", got.PatientCost)
		}
	})

	t.Run("in-network expensive procedure skips copay", func(t *testing.T) {
		// mri moderate: 1500 >= 500 -> 1500*0.25 = 375
		got := EstimateCost("mri", plan, NetworkIn, SeverityModerate, false)
		if got.PatientCost != 375 {
			t.Errorf("PatientCost = %v, want 375", got.PatientCost)
		}
	})

	t.Run("in-network with deductible met pays 20%", func(t *testing.T) {
		got := EstimateCost("mri", plan, NetworkIn, SeverityModerate, true)
		if got.PatientCost != 300 {
			t.Errorf("PatientCost = %v, want 300", got.PatientCost)
		}
	})

	t.Run("out-of-network pays 50%", func(t *testing.T) {
		got := EstimateCost("mri", plan, NetworkOut, SeverityModerate, false)
		if got.PatientCost != 750 {
			t.Errorf("PatientCost = %v, want 750", got.PatientCost)
		}
	})

	t.Run("medicare advantage counts as managed", func(t *testing.T) {
		got := EstimateCost("mri", "Medicare Advantage PPO", NetworkOut, SeverityModerate, false)
		if got.PatientCost != 750 {
			t.Errorf("PatientCost = %v, want 750", got.PatientCost)
		}
	})
}

func TestEstimateCostBaseLookup(t *testing.T) {
	tests := []struct {
		procedure string
		want      float64
	}{
		{"knee MRI", 1500},
		{"CT scan of the head", 800},
		{"outpatient colonoscopy", 2500},
		{"major surgery", 15000},
		{"acupuncture", 1000}, // no table match, default base cost
	}
	for _, tt := range tests {
		got := EstimateCost(tt.procedure, "Humana Gold Plus HMO", NetworkUnknown, SeverityModerate, false)
		if got.BaseCost != tt.want {
			t.Errorf("BaseCost(%q) = %v, want %v", tt.procedure, got.BaseCost, tt.want)
		}
	}
}

func TestEstimateCostAlternative(t *testing.T) {
	got := EstimateCost("mri", "Humana Gold Plus HMO", NetworkIn, SeverityModerate, false)
	if got.AlternativeCost != got.PatientCost*0.65 {
		t.Errorf("AlternativeCost = %v, want %v", got.AlternativeCost, got.PatientCost*0.65)
	}
	if !strings.Contains(got.AlternativeNote, "imaging center") {
		t.Errorf("AlternativeNote = %q, want imaging center note", got.AlternativeNote)
	}

	tests := []struct {
		procedure string
		wantNote  string
	}{
		{"emergency room visit", "Urgent care center"},
		{"knee surgery", "Ambulatory Surgery Center"},
		{"blood test", "Outpatient facility"},
	}
	for _, tt := range tests {
		got := EstimateCost(tt.procedure, "plan", NetworkIn, SeverityModerate, false)
		if !strings.Contains(got.AlternativeNote, tt.wantNote) {
			t.Errorf("AlternativeNote(%q) = %q, want substring %q", tt.procedure, got.AlternativeNote, tt.wantNote)
		}
	}
}

func TestEstimateCostDeterministic(t *testing.T) {
	a := EstimateCost("knee MRI", "Humana Gold Plus HMO", NetworkIn, SeveritySevere, false)
	b := EstimateCost("knee MRI", "Humana Gold Plus HMO", NetworkIn, SeveritySevere, false)
	if a != b {
		t.Errorf("EstimateCost is not deterministic: %+v vs %+v", a, b)
	}
}

func TestSortProvidersByCost(t *testing.T) {
	providers := []Provider{
		{Name: "zero", EstimatedCost: 0},
		{Name: "mid", EstimatedCost: 300},
		{Name: "low", EstimatedCost: 150},
	}
	sortProvidersByCost(providers)

	wantOrder := []string{"low", "mid", "zero"}
	for i, want := range wantOrder {
		if providers[i].Name != want {
			t.Fatalf("position %d = %q, want %q (order %v)", i, providers[i].Name, want, providers)
		}
	}
}

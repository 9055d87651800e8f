package estimate

import "strings"

// Benchmark prices for common procedures, matched by substring against the
// lowercased procedure name. Order matters: the first match wins, so more
// specific keys sit above their generic prefixes.
var baseCosts = []struct {
	key  string
	cost float64
}{
	{"mri", 1500},
	{"ct scan", 800},
	{"x-ray", 200},
	{"colonoscopy", 2500},
	{"ultrasound", 400},
	{"blood test", 150},
	{"lab", 150},
	{"surgery", 15000},
	{"emergency", 3000},
	{"physical", 250},
	{"wellness visit", 250},
	{"specialist", 350},
	{"primary care", 200},
	{"mental health", 200},
	{"mammogram", 300},
	{"ecg", 300},
	{"echocardiogram", 1200},
	{"endoscopy", 1800},
	{"biopsy", 1000},
	{"infusion", 2000},
	{"physical therapy", 200},
}

const defaultBaseCost = 1000

// baselineDeductible is the fixed Part B annual deductible applied when the
// plan is baseline coverage and the deductible has not been met.
const baselineDeductible = 240

// Estimate is the deterministic cost breakdown for one provider visit.
type Estimate struct {
	BaseCost        float64 `json:"base_cost"`
	AdjustedCost    float64 `json:"adjusted_cost"`
	PatientCost     float64 `json:"patient_cost"`
	AlternativeCost float64 `json:"alternative_cost"`
	AlternativeNote string  `json:"alternative_note"`
}

// EstimateCost computes the patient's out-of-pocket cost for a procedure
// under a plan, plus a cheaper-alternative estimate. Pure function: identical
// inputs always produce identical outputs, so cost comparisons across
// providers in one run are reproducible.
func EstimateCost(procedure, planName string, status NetworkStatus, severity Severity, deductibleMet bool) Estimate {
	procedureLower := strings.ToLower(procedure)

	baseCost := float64(defaultBaseCost)
	for _, entry := range baseCosts {
		if strings.Contains(procedureLower, entry.key) {
			baseCost = entry.cost
			break
		}
	}

	adjusted := baseCost * severity.Multiplier()

	var patientCost float64
	if isBaselinePlan(planName) {
		// Baseline coverage pays 80% after the annual deductible. There is
		// no network, but non-assigned providers still cost the patient more.
		if status == NetworkIn {
			if deductibleMet {
				patientCost = adjusted * 0.20
			} else if adjusted <= baselineDeductible {
				patientCost = adjusted
			} else {
				patientCost = baselineDeductible + (adjusted-baselineDeductible)*0.20
			}
		} else {
			patientCost = adjusted * 0.35
		}
	} else {
		// Managed or commercial plan: copays and coinsurance vary, so use
		// typical values.
		if status == NetworkIn {
			if deductibleMet {
				patientCost = adjusted * 0.20
			} else {
				copay := 0.0
				if adjusted < 500 {
					copay = 40
				}
				patientCost = copay + adjusted*0.25
			}
		} else {
			patientCost = adjusted * 0.50
		}
	}

	return Estimate{
		BaseCost:        baseCost,
		AdjustedCost:    adjusted,
		PatientCost:     patientCost,
		AlternativeCost: patientCost * 0.65,
		AlternativeNote: alternativeNote(procedureLower),
	}
}

// isBaselinePlan reports whether the plan name describes baseline government
// coverage rather than a managed plan.
func isBaselinePlan(planName string) bool {
	lower := strings.ToLower(planName)
	return strings.Contains(lower, "medicare") && !strings.Contains(lower, "advantage")
}

// alternativeNote names the lower-cost care setting for the procedure
// category. Outpatient facilities typically charge 30-40% less than
// hospitals.
func alternativeNote(procedureLower string) string {
	switch {
	case strings.Contains(procedureLower, "emergency"):
		return "Urgent care center (for non-life-threatening conditions)"
	case strings.Contains(procedureLower, "mri"),
		strings.Contains(procedureLower, "ct"),
		strings.Contains(procedureLower, "x-ray"),
		strings.Contains(procedureLower, "ultrasound"):
		return "Freestanding imaging center (same equipment, lower facility fee)"
	case strings.Contains(procedureLower, "surgery"):
		return "Ambulatory Surgery Center (outpatient, same procedure)"
	default:
		return "Outpatient facility or community health center"
	}
}

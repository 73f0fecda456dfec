package validate

import (
	"fmt"
	"math"

	"aquatrack/internal/config"
	"aquatrack/internal/models"
)

// Audit runs the post-generation sanity checks over a sample sequence.
// Findings are collected into a report and returned to the caller; they
// never abort generation. Undefined WUR values are counted separately and
// excluded from the range check — they are unknown, not out of range.
func Audit(scenario models.Scenario, samples []models.ProcessSample, cfg config.ValidationConfig) *models.ValidationReport {
	report := &models.ValidationReport{Scenario: scenario}

	if len(samples) == 0 {
		report.Errors = append(report.Errors, "empty sample sequence")
		return report
	}

	var wurOut, prodOut, condOut, undefinedWUR, balanceViolations int

	for _, s := range samples {
		if s.WUR == nil {
			undefinedWUR++
		} else if *s.WUR < cfg.WURMin || *s.WUR > cfg.WURMax {
			wurOut++
		}

		if s.Production < 0 || s.Production > cfg.ProductionMaxLPH {
			prodOut++
		}

		if s.Conductivity < cfg.ConductivityMin || s.Conductivity > cfg.ConductivityMax {
			condOut++
		}

		if s.InletFlow > 0 {
			accounted := s.PostTreatmentFlow + s.RinseFlow + s.CIPFlow
			if math.Abs(s.InletFlow-accounted)/s.InletFlow > cfg.BalanceTolerance {
				balanceViolations++
			}
		}
	}

	if wurOut > 0 {
		report.Errors = append(report.Errors,
			fmt.Sprintf("%d samples with WUR outside [%.1f, %.1f]", wurOut, cfg.WURMin, cfg.WURMax))
	}
	if prodOut > 0 {
		report.Errors = append(report.Errors,
			fmt.Sprintf("%d samples with production outside [0, %.0f]", prodOut, cfg.ProductionMaxLPH))
	}
	if condOut > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d samples with conductivity outside typical [%.0f, %.0f]", condOut, cfg.ConductivityMin, cfg.ConductivityMax))
	}

	if balanceViolations > int(float64(len(samples))*cfg.BalanceMaxFraction) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d samples with mass-balance error > %.0f%%", balanceViolations, cfg.BalanceTolerance*100))
	}

	if undefinedWUR > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d samples with undefined WUR (production = 0)", undefinedWUR))
	}

	return report
}

// Summarize computes the headline figures for a scenario dataset. Samples
// with undefined WUR are excluded from the mean.
func Summarize(scenario models.Scenario, samples []models.ProcessSample) models.ScenarioSummary {
	summary := models.ScenarioSummary{Scenario: scenario, Samples: len(samples)}

	var wurSum float64
	var wurCount int
	for _, s := range samples {
		summary.TotalInletM3 += s.InletFlow / 1000
		summary.TotalProductM3 += s.Production / 1000
		if s.WUR != nil {
			wurSum += *s.WUR
			wurCount++
		} else {
			summary.UndefinedWURPts++
		}
	}
	if wurCount > 0 {
		summary.MeanWUR = wurSum / float64(wurCount)
	}

	return summary
}

package scenario

import (
	"fmt"
	"time"

	"aquatrack/internal/config"
	"aquatrack/internal/models"
	"aquatrack/internal/simulator"
)

// Transformer derives the anomaly and optimized datasets from a baseline
// sequence. Transforms are pure: the input is never mutated, the three
// datasets stay comparable point-by-point, and WUR is recomputed for every
// output sample.
type Transformer struct {
	sim config.SimulationConfig
	cfg config.ScenarioConfig
}

func New(sim config.SimulationConfig, cfg config.ScenarioConfig) *Transformer {
	return &Transformer{sim: sim, cfg: cfg}
}

// Transform returns a new sequence for the requested derived scenario.
func (t *Transformer) Transform(baseline []models.ProcessSample, kind models.Scenario) ([]models.ProcessSample, error) {
	out := clone(baseline)

	switch kind {
	case models.ScenarioAnomaly:
		t.applyAnomalies(out)
	case models.ScenarioOptimized:
		t.applyOptimizations(out)
	default:
		return nil, fmt.Errorf("scenario %q is not a derived scenario", kind)
	}

	recomputeWUR(out)
	return out, nil
}

// applyAnomalies injects three independent time-windowed perturbations:
// a leak, an over-rinse episode, and an unplanned cleaning cycle.
func (t *Transformer) applyAnomalies(out []models.ProcessSample) {
	leak := t.cfg.Anomaly.Leak
	leakFrom, leakTo := leak.Bounds(t.sim.Start)

	rinse := t.cfg.Anomaly.OverRinse
	rinseFrom, rinseTo := rinse.Bounds(t.sim.Start)

	cipFrom, cipTo := t.cfg.Anomaly.UnplannedCIP.Bounds(t.sim.Start)

	for i := range out {
		s := &out[i]
		s.Scenario = models.ScenarioAnomaly
		ts := s.Timestamp

		if within(ts, leakFrom, leakTo) {
			s.InletFlow *= leak.Factor
		}

		if within(ts, rinseFrom, rinseTo) {
			s.RinseFlow *= rinse.Factor
			s.InletFlow += s.RinseFlow * rinse.Carryover
		}

		if within(ts, cipFrom, cipTo) {
			s.CIPFlow = t.sim.CIP.FlowLPH
			s.CIPActive = true
			s.InletFlow += t.sim.CIP.FlowLPH
			s.Production *= t.sim.CIP.ProductionSlowdown
		}
	}
}

// applyOptimizations applies the scenario-wide adjustments in a fixed
// order; later steps read the already-adjusted flows, so the order is part
// of the contract.
func (t *Transformer) applyOptimizations(out []models.ProcessSample) {
	o := t.cfg.Optimized
	recovery := (100 - o.TreatmentLossPctTo) / (100 - t.sim.Water.TreatmentLossPct)

	for i := range out {
		s := &out[i]
		s.Scenario = models.ScenarioOptimized

		s.RinseFlow *= 1 - o.RinseReduction

		s.PostTreatmentFlow *= recovery
		s.InletFlow *= 1 - o.InletCompensation

		if s.CIPActive {
			s.CIPFlow *= 1 - o.CIPReduction
			s.InletFlow -= s.CIPFlow * o.CIPInletRebate
		}

		s.InletFlow *= 1 - o.GlobalInletReduction
	}
}

// within tests half-open [from, to) containment.
func within(ts, from, to time.Time) bool {
	return !ts.Before(from) && ts.Before(to)
}

// clone deep-copies a sample sequence, including the WUR pointers, so the
// caller's data stays untouched.
func clone(samples []models.ProcessSample) []models.ProcessSample {
	out := make([]models.ProcessSample, len(samples))
	copy(out, samples)
	for i := range out {
		if out[i].WUR != nil {
			wur := *out[i].WUR
			out[i].WUR = &wur
		}
	}
	return out
}

func recomputeWUR(samples []models.ProcessSample) {
	for i := range samples {
		samples[i].WUR = simulator.ComputeWUR(samples[i].InletFlow, samples[i].Production)
	}
}

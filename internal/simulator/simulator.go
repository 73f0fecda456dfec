package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"aquatrack/internal/config"
	"aquatrack/internal/models"
)

// Simulator produces the baseline dataset: one ProcessSample per interval
// over the configured horizon. A Simulator is cheap to construct and each
// Generate call is independent, so parallel runs with different
// configurations never share state.
type Simulator struct {
	cfg config.SimulationConfig
}

// New validates the configuration and returns a Simulator.
func New(cfg config.SimulationConfig) (*Simulator, error) {
	if cfg.HorizonDays <= 0 {
		return nil, fmt.Errorf("horizon_days must be positive, got %d", cfg.HorizonDays)
	}
	if cfg.IntervalMinutes <= 0 || 60%cfg.IntervalMinutes != 0 {
		return nil, fmt.Errorf("interval_minutes must be positive and divide 60, got %d", cfg.IntervalMinutes)
	}
	if cfg.Seed <= 0 {
		return nil, fmt.Errorf("seed must be positive, got %d", cfg.Seed)
	}
	return &Simulator{cfg: cfg}, nil
}

// CIPWindow is one half-open [Start, End) cleaning interval.
type CIPWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the window.
func (w CIPWindow) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// GenerateCIPSchedule places cleaning windows of fixed duration at the
// configured hour-of-day, recurring every FrequencyDays (fractional days
// allowed: each occurrence anchors to the calendar date reached by the
// recurrence step). Windows starting at or past the horizon end are
// discarded, and a window that would overlap its predecessor is skipped.
func GenerateCIPSchedule(start time.Time, horizonDays int, cfg config.CIPConfig) []CIPWindow {
	end := start.AddDate(0, 0, horizonDays)
	duration := time.Duration(cfg.DurationHours * float64(time.Hour))
	step := time.Duration(cfg.FrequencyDays * 24 * float64(time.Hour))

	var schedule []CIPWindow
	for cursor := start; cursor.Before(end); cursor = cursor.Add(step) {
		y, m, d := cursor.Date()
		cipStart := time.Date(y, m, d, cfg.StartHour, 0, 0, 0, cursor.Location())
		if !cipStart.Before(end) {
			continue
		}
		if len(schedule) > 0 && cipStart.Before(schedule[len(schedule)-1].End) {
			continue
		}
		schedule = append(schedule, CIPWindow{Start: cipStart, End: cipStart.Add(duration)})
	}
	return schedule
}

// Generate runs the simulation and returns the baseline sample sequence.
// The generator is seeded exactly once per call: identical configuration
// and seed produce bit-identical sequences.
func (s *Simulator) Generate() ([]models.ProcessSample, error) {
	schedule := GenerateCIPSchedule(s.cfg.Start, s.cfg.HorizonDays, s.cfg.CIP)
	rng := rand.New(rand.NewSource(s.cfg.Seed))

	total := s.cfg.TotalPoints()
	interval := s.cfg.Interval()
	samples := make([]models.ProcessSample, 0, total)

	for i := 0; i < total; i++ {
		ts := s.cfg.Start.Add(time.Duration(i) * interval)
		samples = append(samples, s.step(ts, schedule, rng))
	}

	return samples, nil
}

// step computes one sample. Noise draws happen in a fixed order so the
// sequence stays reproducible for a given seed.
func (s *Simulator) step(ts time.Time, schedule []CIPWindow, rng *rand.Rand) models.ProcessSample {
	shift := ShiftFor(ts.Hour())

	production := s.cfg.Production.NominalLPH
	if shift == models.ShiftNight {
		production *= s.cfg.Production.NightFactor
	}
	production = addNoise(rng, production, s.cfg.Production.Noise)

	cipActive := inSchedule(ts, schedule)

	var cipFlow, inletFlow, rinseFlow float64
	if cipActive {
		cipFlow = s.cfg.CIP.FlowLPH
		inletFlow = s.cfg.Water.InletBaseLPH + cipFlow
		rinseFlow = s.cfg.Water.RinseBaseLPH * s.cfg.CIP.RinseReduction
		production *= s.cfg.CIP.ProductionSlowdown
	} else {
		inletFlow = s.cfg.Water.InletBaseLPH
		rinseFlow = s.cfg.Water.RinseBaseLPH
	}

	inletFlow = addNoise(rng, inletFlow, s.cfg.Water.InletNoise)
	rinseFlow = addNoise(rng, rinseFlow, s.cfg.Water.RinseNoise)

	postTreatment := inletFlow * (1 - s.cfg.Water.TreatmentLossPct/100)
	postTreatment = addNoise(rng, postTreatment, s.cfg.Water.PostTreatmentNoise)

	q := s.cfg.Quality
	conductivity := addNoise(rng, q.ConductivityMean, q.ConductivityNoise)
	turbidity := math.Max(q.TurbidityFloor, addNoise(rng, q.TurbidityMean, q.TurbidityNoise))
	temperature := addNoise(rng, q.TemperatureMean, q.TemperatureNoise)

	lineStatus := models.LineStopped
	if production > s.cfg.Production.MinRunningLPH {
		lineStatus = models.LineRunning
	}

	return models.ProcessSample{
		Timestamp:         ts,
		Scenario:          models.ScenarioBaseline,
		InletFlow:         inletFlow,
		PostTreatmentFlow: postTreatment,
		RinseFlow:         rinseFlow,
		CIPFlow:           cipFlow,
		Production:        production,
		Conductivity:      conductivity,
		Turbidity:         turbidity,
		Temperature:       temperature,
		CIPActive:         cipActive,
		Shift:             shift,
		LineStatus:        lineStatus,
		WUR:               ComputeWUR(inletFlow, production),
	}
}

// ShiftFor maps an hour-of-day to the operating shift.
func ShiftFor(hour int) string {
	switch {
	case hour >= 6 && hour < 14:
		return models.ShiftMorning
	case hour >= 14 && hour < 22:
		return models.ShiftAfternoon
	default:
		return models.ShiftNight
	}
}

// ComputeWUR returns inlet/production, or nil when production is zero and
// the ratio is undefined.
func ComputeWUR(inlet, production float64) *float64 {
	if production <= 0 {
		return nil
	}
	wur := inlet / production
	return &wur
}

func inSchedule(ts time.Time, schedule []CIPWindow) bool {
	for _, w := range schedule {
		if w.Contains(ts) {
			return true
		}
	}
	return false
}

// addNoise applies multiplicative Gaussian noise to simulate sensor
// variability.
func addNoise(rng *rand.Rand, value, factor float64) float64 {
	return value * (1 + rng.NormFloat64()*factor)
}

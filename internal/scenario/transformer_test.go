package scenario

import (
	"math"
	"reflect"
	"testing"
	"time"

	"aquatrack/internal/config"
	"aquatrack/internal/models"
	"aquatrack/internal/simulator"
)

func testSimulationConfig() config.SimulationConfig {
	return config.SimulationConfig{
		Start:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		HorizonDays:     2,
		IntervalMinutes: 5,
		Seed:            42,
		Production: config.ProductionConfig{
			NominalLPH:    1000,
			NightFactor:   0.7,
			Noise:         0.03,
			MinRunningLPH: 500,
		},
		Water: config.WaterConfig{
			InletBaseLPH:       1450,
			InletNoise:         0.04,
			RinseBaseLPH:       185,
			RinseNoise:         0.06,
			TreatmentLossPct:   15,
			PostTreatmentNoise: 0.03,
		},
		CIP: config.CIPConfig{
			FlowLPH:            1000,
			DurationHours:      1.5,
			FrequencyDays:      3.5,
			StartHour:          14,
			RinseReduction:     0.5,
			ProductionSlowdown: 0.8,
		},
		Quality: config.QualityConfig{
			ConductivityMean:  245,
			ConductivityNoise: 0.02,
			TurbidityMean:     0.6,
			TurbidityNoise:    0.15,
			TurbidityFloor:    0.1,
			TemperatureMean:   22,
			TemperatureNoise:  0.05,
		},
	}
}

// Windows placed inside the 2-day test horizon.
func testScenarioConfig() config.ScenarioConfig {
	return config.ScenarioConfig{
		Anomaly: config.AnomalyConfig{
			Leak: config.LeakConfig{
				WindowConfig: config.WindowConfig{StartDay: 0, StartHour: 2, DurationHours: 4},
				Factor:       1.20,
			},
			OverRinse: config.OverRinseConfig{
				WindowConfig: config.WindowConfig{StartDay: 1, StartHour: 9, DurationHours: 8},
				Factor:       1.50,
				Carryover:    0.3,
			},
			UnplannedCIP: config.WindowConfig{StartDay: 1, StartHour: 20, DurationHours: 1.5},
		},
		Optimized: config.OptimizedConfig{
			RinseReduction:       0.25,
			TreatmentLossPctTo:   12,
			InletCompensation:    0.03,
			CIPReduction:         0.10,
			CIPInletRebate:       0.1,
			GlobalInletReduction: 0.10,
		},
	}
}

func generateBaseline(t *testing.T, cfg config.SimulationConfig) []models.ProcessSample {
	t.Helper()
	sim, err := simulator.New(cfg)
	if err != nil {
		t.Fatalf("simulator.New() error = %v", err)
	}
	baseline, err := sim.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return baseline
}

// equalCore compares every field except the scenario label.
func equalCore(a, b models.ProcessSample) bool {
	if !a.Timestamp.Equal(b.Timestamp) ||
		a.InletFlow != b.InletFlow ||
		a.PostTreatmentFlow != b.PostTreatmentFlow ||
		a.RinseFlow != b.RinseFlow ||
		a.CIPFlow != b.CIPFlow ||
		a.Production != b.Production ||
		a.Conductivity != b.Conductivity ||
		a.Turbidity != b.Turbidity ||
		a.Temperature != b.Temperature ||
		a.CIPActive != b.CIPActive ||
		a.Shift != b.Shift ||
		a.LineStatus != b.LineStatus {
		return false
	}
	if (a.WUR == nil) != (b.WUR == nil) {
		return false
	}
	return a.WUR == nil || *a.WUR == *b.WUR
}

func TestTransform_UnknownScenario(t *testing.T) {
	tr := New(testSimulationConfig(), testScenarioConfig())
	if _, err := tr.Transform(nil, models.ScenarioBaseline); err == nil {
		t.Error("Expected error for non-derived scenario, got nil")
	}
}

func TestTransform_InputNotMutated(t *testing.T) {
	simCfg := testSimulationConfig()
	baseline := generateBaseline(t, simCfg)
	snapshot := clone(baseline)

	tr := New(simCfg, testScenarioConfig())
	for _, sc := range []models.Scenario{models.ScenarioAnomaly, models.ScenarioOptimized} {
		if _, err := tr.Transform(baseline, sc); err != nil {
			t.Fatalf("Transform(%s) error = %v", sc, err)
		}
	}

	if !reflect.DeepEqual(baseline, snapshot) {
		t.Error("Transform mutated the baseline input")
	}
}

func TestTransform_Anomaly(t *testing.T) {
	simCfg := testSimulationConfig()
	scCfg := testScenarioConfig()
	baseline := generateBaseline(t, simCfg)

	tr := New(simCfg, scCfg)
	anomaly, err := tr.Transform(baseline, models.ScenarioAnomaly)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if len(anomaly) != len(baseline) {
		t.Fatalf("Transform() returned %d samples, want %d", len(anomaly), len(baseline))
	}

	leakFrom, leakTo := scCfg.Anomaly.Leak.Bounds(simCfg.Start)
	rinseFrom, rinseTo := scCfg.Anomaly.OverRinse.Bounds(simCfg.Start)
	cipFrom, cipTo := scCfg.Anomaly.UnplannedCIP.Bounds(simCfg.Start)

	touchedLeak, touchedRinse, touchedCIP := 0, 0, 0
	for i := range anomaly {
		b, a := baseline[i], anomaly[i]
		ts := a.Timestamp

		if a.Scenario != models.ScenarioAnomaly {
			t.Fatalf("sample %d scenario = %v", i, a.Scenario)
		}

		inLeak := within(ts, leakFrom, leakTo)
		inRinse := within(ts, rinseFrom, rinseTo)
		inCIP := within(ts, cipFrom, cipTo)

		if !inLeak && !inRinse && !inCIP {
			if !equalCore(a, b) {
				t.Fatalf("sample %d outside all windows differs from baseline", i)
			}
			continue
		}

		if inLeak {
			touchedLeak++
			if math.Abs(a.InletFlow-b.InletFlow*scCfg.Anomaly.Leak.Factor) > 1e-9 {
				t.Fatalf("sample %d in leak window: inlet = %v, want %v", i, a.InletFlow, b.InletFlow*scCfg.Anomaly.Leak.Factor)
			}
		}

		if inRinse {
			touchedRinse++
			wantRinse := b.RinseFlow * scCfg.Anomaly.OverRinse.Factor
			if math.Abs(a.RinseFlow-wantRinse) > 1e-9 {
				t.Fatalf("sample %d in over-rinse window: rinse = %v, want %v", i, a.RinseFlow, wantRinse)
			}
			wantInlet := b.InletFlow + wantRinse*scCfg.Anomaly.OverRinse.Carryover
			if math.Abs(a.InletFlow-wantInlet) > 1e-9 {
				t.Fatalf("sample %d in over-rinse window: inlet = %v, want %v", i, a.InletFlow, wantInlet)
			}
		}

		if inCIP {
			touchedCIP++
			if !a.CIPActive {
				t.Fatalf("sample %d in unplanned CIP window: cip_active false", i)
			}
			if a.CIPFlow != simCfg.CIP.FlowLPH {
				t.Fatalf("sample %d in unplanned CIP window: cip_flow = %v", i, a.CIPFlow)
			}
			if math.Abs(a.InletFlow-(b.InletFlow+simCfg.CIP.FlowLPH)) > 1e-9 {
				t.Fatalf("sample %d in unplanned CIP window: inlet = %v", i, a.InletFlow)
			}
			if math.Abs(a.Production-b.Production*simCfg.CIP.ProductionSlowdown) > 1e-9 {
				t.Fatalf("sample %d in unplanned CIP window: production = %v", i, a.Production)
			}
		}
	}

	if touchedLeak == 0 || touchedRinse == 0 || touchedCIP == 0 {
		t.Fatalf("windows did not cover any samples: leak=%d rinse=%d cip=%d", touchedLeak, touchedRinse, touchedCIP)
	}

	// WUR recomputed for every sample, not only the touched ones.
	for i, a := range anomaly {
		if a.Production > 0 {
			if a.WUR == nil || math.Abs(*a.WUR-a.InletFlow/a.Production) > 1e-9 {
				t.Fatalf("sample %d: WUR not recomputed after transform", i)
			}
		} else if a.WUR != nil {
			t.Fatalf("sample %d: WUR = %v with zero production", i, *a.WUR)
		}
	}
}

func TestTransform_Optimized(t *testing.T) {
	simCfg := testSimulationConfig()
	scCfg := testScenarioConfig()
	baseline := generateBaseline(t, simCfg)

	tr := New(simCfg, scCfg)
	optimized, err := tr.Transform(baseline, models.ScenarioOptimized)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	o := scCfg.Optimized
	recovery := (100 - o.TreatmentLossPctTo) / (100 - simCfg.Water.TreatmentLossPct)

	var baseInlet, optInlet float64
	for i := range optimized {
		b, s := baseline[i], optimized[i]
		baseInlet += b.InletFlow
		optInlet += s.InletFlow

		if s.Scenario != models.ScenarioOptimized {
			t.Fatalf("sample %d scenario = %v", i, s.Scenario)
		}

		wantRinse := b.RinseFlow * (1 - o.RinseReduction)
		if math.Abs(s.RinseFlow-wantRinse) > 1e-9 {
			t.Fatalf("sample %d: rinse = %v, want %v", i, s.RinseFlow, wantRinse)
		}

		wantPost := b.PostTreatmentFlow * recovery
		if math.Abs(s.PostTreatmentFlow-wantPost) > 1e-9 {
			t.Fatalf("sample %d: post-treatment = %v, want %v", i, s.PostTreatmentFlow, wantPost)
		}

		// Adjustments are ordered: the CIP rebate reads the already-reduced
		// cip_flow and the global cut applies last.
		wantInlet := b.InletFlow * (1 - o.InletCompensation)
		if s.CIPActive {
			wantCIP := b.CIPFlow * (1 - o.CIPReduction)
			if math.Abs(s.CIPFlow-wantCIP) > 1e-9 {
				t.Fatalf("sample %d: cip_flow = %v, want %v", i, s.CIPFlow, wantCIP)
			}
			wantInlet -= wantCIP * o.CIPInletRebate
		}
		wantInlet *= 1 - o.GlobalInletReduction
		if math.Abs(s.InletFlow-wantInlet) > 1e-9 {
			t.Fatalf("sample %d: inlet = %v, want %v", i, s.InletFlow, wantInlet)
		}

		if s.Production > 0 {
			if s.WUR == nil || math.Abs(*s.WUR-s.InletFlow/s.Production) > 1e-9 {
				t.Fatalf("sample %d: WUR not recomputed after transform", i)
			}
		}
	}

	if optInlet >= baseInlet {
		t.Errorf("optimized total inlet %.1f not lower than baseline %.1f", optInlet, baseInlet)
	}
}

func TestTransform_ZeroProductionStaysUndefined(t *testing.T) {
	simCfg := testSimulationConfig()
	ts := simCfg.Start

	baseline := []models.ProcessSample{
		{
			Timestamp:  ts,
			Scenario:   models.ScenarioBaseline,
			InletFlow:  1450,
			Production: 0,
			WUR:        nil,
		},
	}

	tr := New(simCfg, testScenarioConfig())
	out, err := tr.Transform(baseline, models.ScenarioOptimized)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	if out[0].WUR != nil {
		t.Errorf("WUR = %v for zero production, want nil", *out[0].WUR)
	}
}

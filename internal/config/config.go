package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	instance *Config
	once     sync.Once
)

// Config holds every calibration constant of the simulation. The numbers in
// config.yaml are illustrative calibration values, not validated plant data,
// so all of them are parameters rather than code constants.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Scenarios  ScenarioConfig   `yaml:"scenarios"`
	Alerts     AlertConfig      `yaml:"alerts"`
	Validation ValidationConfig `yaml:"validation"`
	Export     ExportConfig     `yaml:"export"`
	Server     ServerConfig     `yaml:"server"`
}

// SimulationConfig drives the baseline generator.
type SimulationConfig struct {
	Start           time.Time `yaml:"start"`
	HorizonDays     int       `yaml:"horizon_days"`
	IntervalMinutes int       `yaml:"interval_minutes"`
	Seed            int64     `yaml:"seed"`

	Production ProductionConfig `yaml:"production"`
	Water      WaterConfig      `yaml:"water"`
	CIP        CIPConfig        `yaml:"cip"`
	Quality    QualityConfig    `yaml:"quality"`
}

// TotalPoints returns the number of samples one run produces.
func (s SimulationConfig) TotalPoints() int {
	return s.HorizonDays * 24 * (60 / s.IntervalMinutes)
}

// Interval returns the sample interval as a duration.
func (s SimulationConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

type ProductionConfig struct {
	NominalLPH    float64 `yaml:"nominal_lph"`
	NightFactor   float64 `yaml:"night_factor"`
	Noise         float64 `yaml:"noise"`
	MinRunningLPH float64 `yaml:"min_running_lph"`
}

type WaterConfig struct {
	InletBaseLPH       float64 `yaml:"inlet_base_lph"`
	InletNoise         float64 `yaml:"inlet_noise"`
	RinseBaseLPH       float64 `yaml:"rinse_base_lph"`
	RinseNoise         float64 `yaml:"rinse_noise"`
	TreatmentLossPct   float64 `yaml:"treatment_loss_pct"`
	PostTreatmentNoise float64 `yaml:"post_treatment_noise"`
}

type CIPConfig struct {
	FlowLPH            float64 `yaml:"flow_lph"`
	DurationHours      float64 `yaml:"duration_hours"`
	FrequencyDays      float64 `yaml:"frequency_days"`
	StartHour          int     `yaml:"start_hour"`
	RinseReduction     float64 `yaml:"rinse_reduction"`
	ProductionSlowdown float64 `yaml:"production_slowdown"`
}

type QualityConfig struct {
	ConductivityMean  float64 `yaml:"conductivity_mean"`
	ConductivityNoise float64 `yaml:"conductivity_noise"`
	TurbidityMean     float64 `yaml:"turbidity_mean"`
	TurbidityNoise    float64 `yaml:"turbidity_noise"`
	TurbidityFloor    float64 `yaml:"turbidity_floor"`
	TemperatureMean   float64 `yaml:"temperature_mean"`
	TemperatureNoise  float64 `yaml:"temperature_noise"`
}

// ScenarioConfig parameterizes the derived datasets.
type ScenarioConfig struct {
	Anomaly   AnomalyConfig   `yaml:"anomaly"`
	Optimized OptimizedConfig `yaml:"optimized"`
}

// WindowConfig places a perturbation window relative to the simulation
// start: [start + start_day days + start_hour hours, + duration_hours).
type WindowConfig struct {
	StartDay      int     `yaml:"start_day"`
	StartHour     float64 `yaml:"start_hour"`
	DurationHours float64 `yaml:"duration_hours"`
}

// Bounds resolves the window against the simulation start time.
func (w WindowConfig) Bounds(start time.Time) (time.Time, time.Time) {
	from := start.AddDate(0, 0, w.StartDay).
		Add(time.Duration(w.StartHour * float64(time.Hour)))
	return from, from.Add(time.Duration(w.DurationHours * float64(time.Hour)))
}

type LeakConfig struct {
	WindowConfig `yaml:",inline"`
	Factor       float64 `yaml:"factor"`
}

type OverRinseConfig struct {
	WindowConfig `yaml:",inline"`
	Factor       float64 `yaml:"factor"`
	Carryover    float64 `yaml:"carryover"`
}

type AnomalyConfig struct {
	Leak         LeakConfig      `yaml:"leak"`
	OverRinse    OverRinseConfig `yaml:"over_rinse"`
	UnplannedCIP WindowConfig    `yaml:"unplanned_cip"`
}

// OptimizedConfig lists the scenario-wide adjustments in their fixed
// application order: rinse cut, treatment recovery, CIP cut, global cut.
type OptimizedConfig struct {
	RinseReduction       float64 `yaml:"rinse_reduction"`
	TreatmentLossPctTo   float64 `yaml:"treatment_loss_pct_to"`
	InletCompensation    float64 `yaml:"inlet_compensation"`
	CIPReduction         float64 `yaml:"cip_reduction"`
	CIPInletRebate       float64 `yaml:"cip_inlet_rebate"`
	GlobalInletReduction float64 `yaml:"global_inlet_reduction"`
}

type AlertConfig struct {
	MinSamples       int     `yaml:"min_samples"`
	WURHigh          float64 `yaml:"wur_high"`
	WURMedium        float64 `yaml:"wur_medium"`
	LeakWindow       int     `yaml:"leak_window"`
	LeakDeviationPct float64 `yaml:"leak_deviation_pct"`
	RinseMaxLPH      float64 `yaml:"rinse_max_lph"`
}

type ValidationConfig struct {
	WURMin             float64 `yaml:"wur_min"`
	WURMax             float64 `yaml:"wur_max"`
	ProductionMaxLPH   float64 `yaml:"production_max_lph"`
	ConductivityMin    float64 `yaml:"conductivity_min"`
	ConductivityMax    float64 `yaml:"conductivity_max"`
	BalanceTolerance   float64 `yaml:"balance_tolerance"`
	BalanceMaxFraction float64 `yaml:"balance_max_fraction"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func Load(configPath string) (*Config, error) {
	var err error
	once.Do(func() {
		// Optional .env for DB/Redis settings read via environment.
		_ = godotenv.Load(".env")

		instance = &Config{}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file %s: %w", configPath, readErr)
			return
		}

		if parseErr := yaml.Unmarshal(data, instance); parseErr != nil {
			err = fmt.Errorf("failed to parse config: %w", parseErr)
			return
		}

		if validateErr := instance.Validate(); validateErr != nil {
			err = validateErr
			return
		}
	})

	return instance, err
}

func Get() *Config {
	if instance == nil {
		panic("config not loaded - call config.Load() first")
	}
	return instance
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	s := c.Simulation
	if s.HorizonDays <= 0 {
		return fmt.Errorf("simulation.horizon_days must be positive, got %d", s.HorizonDays)
	}
	if s.IntervalMinutes <= 0 || s.IntervalMinutes > 60 {
		return fmt.Errorf("simulation.interval_minutes must be in (0, 60], got %d", s.IntervalMinutes)
	}
	if 60%s.IntervalMinutes != 0 {
		return fmt.Errorf("simulation.interval_minutes must divide 60, got %d", s.IntervalMinutes)
	}
	if s.Seed <= 0 {
		return fmt.Errorf("simulation.seed must be positive, got %d", s.Seed)
	}
	if s.Production.NominalLPH <= 0 {
		return fmt.Errorf("simulation.production.nominal_lph must be positive")
	}
	if s.CIP.DurationHours <= 0 || s.CIP.FrequencyDays <= 0 {
		return fmt.Errorf("simulation.cip duration and frequency must be positive")
	}
	if s.CIP.StartHour < 0 || s.CIP.StartHour > 23 {
		return fmt.Errorf("simulation.cip.start_hour must be in [0, 23], got %d", s.CIP.StartHour)
	}
	a := c.Alerts
	if a.MinSamples <= 0 {
		return fmt.Errorf("alerts.min_samples must be positive, got %d", a.MinSamples)
	}
	if a.LeakWindow <= 0 {
		return fmt.Errorf("alerts.leak_window must be positive, got %d", a.LeakWindow)
	}
	if a.WURMedium <= 0 || a.WURHigh <= a.WURMedium {
		return fmt.Errorf("alerts thresholds must satisfy 0 < wur_medium < wur_high")
	}
	return nil
}

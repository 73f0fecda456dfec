package alerts

import (
	"fmt"

	"aquatrack/internal/config"
	"aquatrack/internal/models"
)

// Engine evaluates the fixed alert rule battery against the samples
// observed so far. Rules fire at most once per call, in a fixed order, and
// only against the latest sample and its trailing window — no future
// samples are ever visible to a rule.
type Engine struct {
	cfg config.AlertConfig
}

// NewEngine creates an alert engine with the given thresholds.
func NewEngine(cfg config.AlertConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate returns the alerts raised by the latest observed sample.
// Fewer than MinSamples observations is not an error: there is simply not
// enough history to judge, so no alerts are produced.
func (e *Engine) Evaluate(observed []models.ProcessSample) []models.Alert {
	if len(observed) < e.cfg.MinSamples {
		return nil
	}

	latest := observed[len(observed)-1]
	var alerts []models.Alert

	raise := func(kind, severity, message string) {
		alerts = append(alerts, models.Alert{
			Scenario:  latest.Scenario,
			Kind:      kind,
			Severity:  severity,
			Message:   message,
			Timestamp: latest.Timestamp,
		})
	}

	// Rules 1 and 2: WUR thresholds, mutually exclusive — only the more
	// severe fires. Skipped entirely when WUR is undefined.
	if latest.WUR != nil {
		switch wur := *latest.WUR; {
		case wur > e.cfg.WURHigh:
			raise(models.AlertWURCritical, models.SeverityHigh,
				fmt.Sprintf("current WUR %.2f L/L (> %.2f)", wur, e.cfg.WURHigh))
		case wur > e.cfg.WURMedium:
			raise(models.AlertWURElevated, models.SeverityMedium,
				fmt.Sprintf("current WUR %.2f L/L (> %.2f)", wur, e.cfg.WURMedium))
		}
	}

	// Rule 3: latest inlet flow against the mean of the preceding window,
	// excluding the latest sample. Needs LeakWindow prior samples.
	if n := len(observed); n > e.cfg.LeakWindow {
		window := observed[n-1-e.cfg.LeakWindow : n-1]
		mean := meanInletFlow(window)
		if mean > 0 {
			deviation := (latest.InletFlow - mean) / mean * 100
			if deviation > e.cfg.LeakDeviationPct {
				raise(models.AlertSuspectedLeak, models.SeverityHigh,
					fmt.Sprintf("inlet flow +%.1f%% vs trailing mean (possible leak)", deviation))
			}
		}
	}

	// Rule 4: absolute over-rinse threshold.
	if latest.RinseFlow > e.cfg.RinseMaxLPH {
		raise(models.AlertOverRinse, models.SeverityMedium,
			fmt.Sprintf("rinse flow %.0f L/h (> %.0f)", latest.RinseFlow, e.cfg.RinseMaxLPH))
	}

	return alerts
}

// meanInletFlow calculates the mean inlet flow over a window of samples.
func meanInletFlow(samples []models.ProcessSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.InletFlow
	}
	return sum / float64(len(samples))
}

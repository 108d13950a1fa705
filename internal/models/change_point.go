package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// TradingDaysPerYear is the annualization factor for daily log returns.
const TradingDaysPerYear = 252

// RegimeParams are the return parameters of one regime as fitted upstream.
type RegimeParams struct {
	MeanReturn float64 `json:"mean_return"`
	StdReturn  float64 `json:"std_return"`
}

// AnnualReturn returns MeanReturn scaled to a trading year.
func (r RegimeParams) AnnualReturn() float64 {
	return r.MeanReturn * TradingDaysPerYear
}

// AnnualVolatility returns StdReturn scaled to a trading year.
func (r RegimeParams) AnnualVolatility() float64 {
	return r.StdReturn * math.Sqrt(TradingDaysPerYear)
}

// ChangePointResult is the output of the upstream change-point fit.
// It is consumed read-only.
type ChangePointResult struct {
	ChangePointDate                time.Time    `json:"change_point_date"`
	RegimeBefore                   RegimeParams `json:"regime_before"`
	RegimeAfter                    RegimeParams `json:"regime_after"`
	ProbabilityMeanIncreased       float64      `json:"prob_mu_increase"`
	ProbabilityVolatilityIncreased float64      `json:"prob_sigma_increase"`
}

// ModelResultsFile is the flat upstream wire format of a change-point fit.
type ModelResultsFile struct {
	ChangePointDate   string  `json:"change_point_date"`
	MuBefore          float64 `json:"mu_before"`
	SigmaBefore       float64 `json:"sigma_before"`
	MuAfter           float64 `json:"mu_after"`
	SigmaAfter        float64 `json:"sigma_after"`
	ProbMuIncrease    float64 `json:"prob_mu_increase"`
	ProbSigmaIncrease float64 `json:"prob_sigma_increase"`
}

// ToChangePointResult converts the wire format and validates it.
func (f ModelResultsFile) ToChangePointResult() (ChangePointResult, error) {
	date, err := ParseDate(f.ChangePointDate)
	if err != nil {
		return ChangePointResult{}, fmt.Errorf("change_point_date: %w", err)
	}
	cp := ChangePointResult{
		ChangePointDate:                date,
		RegimeBefore:                   RegimeParams{MeanReturn: f.MuBefore, StdReturn: f.SigmaBefore},
		RegimeAfter:                    RegimeParams{MeanReturn: f.MuAfter, StdReturn: f.SigmaAfter},
		ProbabilityMeanIncreased:       f.ProbMuIncrease,
		ProbabilityVolatilityIncreased: f.ProbSigmaIncrease,
	}
	return cp, cp.Validate()
}

// Validate checks the parameter ranges of a change-point result.
func (c ChangePointResult) Validate() error {
	if c.ChangePointDate.IsZero() {
		return fmt.Errorf("change point date must be set")
	}
	if c.RegimeBefore.StdReturn < 0 || c.RegimeAfter.StdReturn < 0 {
		return fmt.Errorf("regime standard deviations must not be negative")
	}
	for name, p := range map[string]float64{
		"prob_mu_increase":    c.ProbabilityMeanIncreased,
		"prob_sigma_increase": c.ProbabilityVolatilityIncreased,
	} {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got %v", name, p)
		}
	}
	return nil
}

// ModelSummary is the change-point result with annualized figures attached.
type ModelSummary struct {
	ChangePointDate        time.Time
	MuBefore               float64
	SigmaBefore            float64
	AnnualReturnBefore     float64
	AnnualVolatilityBefore float64
	MuAfter                float64
	SigmaAfter             float64
	AnnualReturnAfter      float64
	AnnualVolatilityAfter  float64
	ProbMuIncrease         float64
	ProbSigmaIncrease      float64
}

// NewModelSummary derives the annualized view of a change-point result.
func NewModelSummary(cp ChangePointResult) ModelSummary {
	return ModelSummary{
		ChangePointDate:        cp.ChangePointDate,
		MuBefore:               cp.RegimeBefore.MeanReturn,
		SigmaBefore:            cp.RegimeBefore.StdReturn,
		AnnualReturnBefore:     cp.RegimeBefore.AnnualReturn(),
		AnnualVolatilityBefore: cp.RegimeBefore.AnnualVolatility(),
		MuAfter:                cp.RegimeAfter.MeanReturn,
		SigmaAfter:             cp.RegimeAfter.StdReturn,
		AnnualReturnAfter:      cp.RegimeAfter.AnnualReturn(),
		AnnualVolatilityAfter:  cp.RegimeAfter.AnnualVolatility(),
		ProbMuIncrease:         cp.ProbabilityMeanIncreased,
		ProbSigmaIncrease:      cp.ProbabilityVolatilityIncreased,
	}
}

// MarshalJSON renders the flat model-results contract.
func (m ModelSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"change_point_date":        m.ChangePointDate.Format(DateLayout),
		"mu_before":                m.MuBefore,
		"sigma_before":             m.SigmaBefore,
		"annual_return_before":     m.AnnualReturnBefore,
		"annual_volatility_before": m.AnnualVolatilityBefore,
		"mu_after":                 m.MuAfter,
		"sigma_after":              m.SigmaAfter,
		"annual_return_after":      m.AnnualReturnAfter,
		"annual_volatility_after":  m.AnnualVolatilityAfter,
		"prob_mu_increase":         m.ProbMuIncrease,
		"prob_sigma_increase":      m.ProbSigmaIncrease,
	})
}

// RegimeStats are the empirical statistics of one partition of the series.
type RegimeStats struct {
	Start               time.Time
	End                 time.Time
	Observations        int
	Returns             int
	MeanReturn          float64
	StdReturn           float64
	PopulationStdReturn float64
	AnnualReturn        float64
	AnnualVolatility    float64
}

// MarshalJSON renders the partition with YYYY-MM-DD bounds.
func (r RegimeStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"start":                 r.Start.Format(DateLayout),
		"end":                   r.End.Format(DateLayout),
		"observations":          r.Observations,
		"returns":               r.Returns,
		"mean_return":           r.MeanReturn,
		"std_return":            r.StdReturn,
		"population_std_return": r.PopulationStdReturn,
		"annual_return":         r.AnnualReturn,
		"annual_volatility":     r.AnnualVolatility,
	})
}

// RegimeSummary pairs the upstream model view with the empirical regimes.
type RegimeSummary struct {
	Model  ModelSummary
	Before RegimeStats
	After  RegimeStats
}

// MarshalJSON renders the flat model-results contract with an added
// "empirical" block holding both partitions.
func (s RegimeSummary) MarshalJSON() ([]byte, error) {
	flat, err := json.Marshal(s.Model)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(flat, &out); err != nil {
		return nil, err
	}
	out["empirical"] = map[string]RegimeStats{
		"before": s.Before,
		"after":  s.After,
	}
	return json.Marshal(out)
}

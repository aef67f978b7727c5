package scoring

import (
	"errors"
	"fmt"
)

// Weights of the three sub-scores in the composite score
type Weights struct {
	Position float64 `json:"position"`
	Traffic  float64 `json:"traffic"`
	Trend    float64 `json:"trend"`
}

// Config holds every tunable constant of the scoring pipeline
type Config struct {
	MinPosition     float64
	MaxPosition     float64
	MinTrafficRatio float64 // fraction of the mean traffic a row must reach

	Weights Weights

	TrendPositionFactor float64
	TrendTrafficFactor  float64

	Page1Boundary        float64 // last position still on the first results page
	Page1Bonus           float64
	RankDropBonus        float64
	RankDropThreshold    float64 // ranks lost before RankDropBonus applies
	TrafficDropBonus     float64
	TrafficDropThreshold float64 // percent, negative
}

// DefaultConfig returns the standard scoring configuration
func DefaultConfig() Config {
	return Config{
		MinPosition:     5,
		MaxPosition:     20,
		MinTrafficRatio: 0.3,
		Weights: Weights{
			Position: 0.5,
			Traffic:  0.3,
			Trend:    0.2,
		},
		TrendPositionFactor:  1.0,
		TrendTrafficFactor:   0.5,
		Page1Boundary:        10,
		Page1Bonus:           30,
		RankDropBonus:        15,
		RankDropThreshold:    3,
		TrafficDropBonus:     10,
		TrafficDropThreshold: -20,
	}
}

// Validate checks that the configuration describes a usable pipeline
func (c Config) Validate() error {
	var errs []error
	if c.MinPosition <= 0 {
		errs = append(errs, fmt.Errorf("min position must be positive, got %g", c.MinPosition))
	}
	if c.MaxPosition <= c.MinPosition {
		errs = append(errs, fmt.Errorf("max position %g must be greater than min position %g", c.MaxPosition, c.MinPosition))
	}
	if c.MinTrafficRatio < 0 {
		errs = append(errs, fmt.Errorf("min traffic ratio must not be negative, got %g", c.MinTrafficRatio))
	}
	if c.Weights.Position < 0 || c.Weights.Traffic < 0 || c.Weights.Trend < 0 {
		errs = append(errs, errors.New("weights must not be negative"))
	}
	if c.Weights.Position+c.Weights.Traffic+c.Weights.Trend == 0 {
		errs = append(errs, errors.New("at least one weight must be positive"))
	}
	return errors.Join(errs...)
}

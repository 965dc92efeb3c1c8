// Package priority implements the pure priority model: tier classification
// and fitness scoring. It performs no I/O and holds no mutable state.
package priority

import (
	"time"

	"github.com/arfis/waiting-room-sub002/domain"
)

// Calculator evaluates entries against one immutable PriorityConfig snapshot.
type Calculator struct {
	config domain.PriorityConfig
}

// NewCalculator normalizes the config (incomplete sections degrade to neutral
// weights, they never error) and returns a calculator plus the list of
// sections that were defaulted, for the caller to log.
func NewCalculator(config domain.PriorityConfig) (*Calculator, []string) {
	defaulted := config.Normalize()
	return &Calculator{config: config}, defaulted
}

// Input carries everything needed for one evaluation. CurrentTime is supplied
// by the caller so a whole ranking pass shares a single time reference.
type Input struct {
	Symbols         []string
	AppointmentTime *time.Time
	Age             *int
	ManualOverride  bool
	ArrivalTime     time.Time
	CurrentTime     time.Time
}

// Result is the derived tier and fitness score.
type Result struct {
	Tier         int
	FitnessScore float64
}

// Calculate classifies the tier and computes the fitness score.
func (c *Calculator) Calculate(input Input) Result {
	return Result{
		Tier:         c.ClassifyTier(input.Symbols),
		FitnessScore: c.ComputeFitness(input),
	}
}

// ClassifyTier returns the index of the first tier (in declared order) whose
// condition matches the symbols. An entry matching no tier lands in the
// implicit lowest-priority tier at index len(tiers).
func (c *Calculator) ClassifyTier(symbols []string) int {
	symbolSet := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		symbolSet[s] = true
	}

	for i, tier := range c.config.PriorityModel.Tiers {
		if matchesCondition(symbolSet, tier.Condition) {
			return i
		}
	}
	return len(c.config.PriorityModel.Tiers)
}

func matchesCondition(symbolSet map[string]bool, cond domain.Condition) bool {
	if len(cond.SymbolsAnyOf) > 0 {
		hasAny := false
		for _, s := range cond.SymbolsAnyOf {
			if symbolSet[s] {
				hasAny = true
				break
			}
		}
		if !hasAny {
			return false
		}
	}
	for _, s := range cond.SymbolsNotAnyOf {
		if symbolSet[s] {
			return false
		}
	}
	return true
}

// ComputeFitness sums the independent contributions. The result is not
// clamped; higher scores rank earlier under the default ordering.
func (c *Calculator) ComputeFitness(input Input) float64 {
	score := 0.0
	contrib := c.config.PriorityModel.Fitness.Contributions

	for _, symbol := range input.Symbols {
		if weight, ok := contrib.SymbolWeights.Values[symbol]; ok {
			score += weight
		}
	}

	// Waiting time is clamped at zero: a clock skewed before arrival must not
	// produce a negative wait.
	waitingMinutes := input.CurrentTime.Sub(input.ArrivalTime).Minutes()
	if waitingMinutes < 0 {
		waitingMinutes = 0
	}
	score += waitingMinutes * contrib.WaitingTime.WeightPerMinute

	if input.AppointmentTime != nil {
		deviationMinutes := input.CurrentTime.Sub(*input.AppointmentTime).Minutes()
		if deviationMinutes < 0 {
			// Arrived before the appointment.
			score += (-deviationMinutes) * contrib.AppointmentDeviation.EarlyPenaltyPerMinute
		} else {
			score += deviationMinutes * contrib.AppointmentDeviation.LateBonusPerMinute
		}
	}

	if input.Age != nil {
		age := *input.Age
		if age < 6 {
			score += float64(6-age) * contrib.Age.Under6PerYearYounger
		} else if age > contrib.Age.AgeThresholdSenior {
			score += float64(age-contrib.Age.AgeThresholdSenior) * contrib.Age.Over65PerYearOlder
		}
	}

	if contrib.ManualOverride.Enabled && input.ManualOverride {
		score += contrib.ManualOverride.Weight
	}

	return score
}

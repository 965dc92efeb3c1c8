package domain

// PriorityConfig drives tier classification and fitness scoring for one room.
// The engine treats it as an immutable snapshot for the duration of a single
// ranking computation.
type PriorityConfig struct {
	Version       string        `json:"version,omitempty"`
	Description   string        `json:"description,omitempty"`
	PriorityModel PriorityModel `json:"priorityModel"`
}

type PriorityModel struct {
	Algorithm Algorithm     `json:"algorithm"`
	Tiers     []Tier        `json:"tiers"`
	Fitness   FitnessConfig `json:"fitness"`
}

// Algorithm describes the ordering logic applied after scoring.
type Algorithm struct {
	OrderingFields []string `json:"orderingFields,omitempty"`
}

// Tier is a coarse priority bucket matched on entry symbols. Tiers are
// evaluated in declared order; the first match wins.
type Tier struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description,omitempty"`
}

// Condition matches when (SymbolsAnyOf is empty OR intersects the entry
// symbols) AND (SymbolsNotAnyOf is empty OR is disjoint from them).
type Condition struct {
	SymbolsAnyOf    []string `json:"symbolsAnyOf,omitempty"`
	SymbolsNotAnyOf []string `json:"symbolsNotAnyOf,omitempty"`
}

type FitnessConfig struct {
	Contributions Contributions `json:"contributions"`
}

// Contributions are the independent factors summed into the fitness score.
// Zero values are neutral: a structurally valid but incomplete config never
// fails, it just contributes nothing.
type Contributions struct {
	SymbolWeights        SymbolWeights        `json:"symbolWeights"`
	WaitingTime          WaitingTime          `json:"waitingTime"`
	AppointmentDeviation AppointmentDeviation `json:"appointmentDeviation"`
	Age                  AgeConfig            `json:"age"`
	ManualOverride       ManualOverride       `json:"manualOverride"`
}

type SymbolWeights struct {
	Values map[string]float64 `json:"values,omitempty"`
}

type WaitingTime struct {
	WeightPerMinute float64 `json:"weightPerMinute"`
}

type AppointmentDeviation struct {
	EarlyPenaltyPerMinute float64 `json:"earlyPenaltyPerMinute"`
	LateBonusPerMinute    float64 `json:"lateBonusPerMinute"`
}

type AgeConfig struct {
	Under6PerYearYounger float64 `json:"under6PerYearYounger"`
	Over65PerYearOlder   float64 `json:"over65PerYearOlder"`
	AgeThresholdSenior   int     `json:"ageThresholdSenior"`
}

type ManualOverride struct {
	Enabled bool    `json:"enabled"`
	Weight  float64 `json:"weight"`
}

// Ordering field names accepted in Algorithm.OrderingFields. The short forms
// carry the default direction (tier ascending, score descending); the
// suffixed spellings are kept for configs migrated from older tenants.
const (
	OrderByTier            = "tier"
	OrderByFitnessScore    = "fitnessScore"
	OrderByTierAsc         = "tierAsc"
	OrderByScoreAsc        = "scoreAsc"
	OrderByScoreDesc       = "fitnessScoreDesc"
	OrderByArrivalTimeAsc  = "arrivalTimeAsc"
	OrderByTicketNumberAsc = "ticketNumberAsc"
)

// DefaultOrderingFields is used when a config declares no ordering.
var DefaultOrderingFields = []string{OrderByTier, OrderByFitnessScore}

// DefaultAgeThresholdSenior applies when the age section leaves the senior
// threshold unset.
const DefaultAgeThresholdSenior = 65

// DefaultPriorityConfig is the configuration used for rooms whose tenant has
// not supplied one: STATIM before VIP before everyone else, waiting time
// raising the score one point per minute.
func DefaultPriorityConfig() PriorityConfig {
	return PriorityConfig{
		Version:     "1.0",
		Description: "Default waiting-list prioritization: tiers plus fitness score.",
		PriorityModel: PriorityModel{
			Algorithm: Algorithm{OrderingFields: DefaultOrderingFields},
			Tiers: []Tier{
				{ID: 0, Name: "STATIM", Condition: Condition{SymbolsAnyOf: []string{"STATIM"}},
					Description: "Highest priority regardless of other symbols."},
				{ID: 1, Name: "VIP", Condition: Condition{SymbolsAnyOf: []string{"VIP"}, SymbolsNotAnyOf: []string{"STATIM"}},
					Description: "VIP tickets that are not STATIM."},
				{ID: 2, Name: "NORMAL", Condition: Condition{SymbolsNotAnyOf: []string{"STATIM", "VIP"}},
					Description: "Regular tickets."},
			},
			Fitness: FitnessConfig{
				Contributions: Contributions{
					SymbolWeights: SymbolWeights{Values: map[string]float64{
						"STATIM":   1000,
						"VIP":      500,
						"IMMOBILE": 50,
					}},
					WaitingTime: WaitingTime{WeightPerMinute: 1},
					AppointmentDeviation: AppointmentDeviation{
						EarlyPenaltyPerMinute: -2,
						LateBonusPerMinute:    3,
					},
					Age: AgeConfig{
						Under6PerYearYounger: 5,
						Over65PerYearOlder:   1,
						AgeThresholdSenior:   DefaultAgeThresholdSenior,
					},
					ManualOverride: ManualOverride{Enabled: true, Weight: 100},
				},
			},
		},
	}
}

// Normalize fills neutral defaults into an incomplete config and returns the
// names of the sections that were defaulted. It never rejects a structurally
// valid config.
func (c *PriorityConfig) Normalize() []string {
	var defaulted []string
	if len(c.PriorityModel.Algorithm.OrderingFields) == 0 {
		c.PriorityModel.Algorithm.OrderingFields = DefaultOrderingFields
		defaulted = append(defaulted, "algorithm.orderingFields")
	}
	if c.PriorityModel.Fitness.Contributions.SymbolWeights.Values == nil {
		c.PriorityModel.Fitness.Contributions.SymbolWeights.Values = map[string]float64{}
		defaulted = append(defaulted, "fitness.contributions.symbolWeights")
	}
	if c.PriorityModel.Fitness.Contributions.Age.AgeThresholdSenior <= 0 {
		c.PriorityModel.Fitness.Contributions.Age.AgeThresholdSenior = DefaultAgeThresholdSenior
		defaulted = append(defaulted, "fitness.contributions.age.ageThresholdSenior")
	}
	return defaulted
}

// Package ranking produces the authoritative ordered view of a room by
// combining the entry store with the priority model.
package ranking

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/arfis/waiting-room-sub002/domain"
	"github.com/arfis/waiting-room-sub002/priority"
	"github.com/arfis/waiting-room-sub002/store"
)

type Engine struct {
	store *store.Store
}

func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Rank fetches the room's entries matching the filter, scores every entry
// under the same "now", sorts by the configured ordering fields and assigns
// dense 1-based positions. It performs no I/O and is safe for concurrent
// readers; calling it twice with no intervening mutation and the same now
// yields an identical ordering.
func (e *Engine) Rank(roomID string, filter domain.StatusFilter, config domain.PriorityConfig, now time.Time) ([]domain.RankedEntry, error) {
	entries, err := e.store.List(roomID, filter)
	if err != nil {
		return nil, err
	}

	calc, _ := priority.NewCalculator(config)
	ranked := lo.Map(entries, func(entry domain.Entry, _ int) domain.RankedEntry {
		result := calc.Calculate(priority.Input{
			Symbols:         entry.Symbols,
			AppointmentTime: entry.AppointmentTime,
			Age:             entry.Age,
			ManualOverride:  entry.ManualOverride,
			ArrivalTime:     entry.CreatedAt,
			CurrentTime:     now,
		})
		return domain.RankedEntry{Entry: entry, Tier: result.Tier, FitnessScore: result.FitnessScore}
	})

	less := comparator(config.PriorityModel.Algorithm.OrderingFields)
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })

	for i := range ranked {
		ranked[i].Position = i + 1
	}
	return ranked, nil
}

// comparator builds the ordering from the configured fields. Remaining ties
// always break by admission time, then entry id, so the result is fully
// deterministic.
func comparator(fields []string) func(a, b domain.RankedEntry) bool {
	if len(fields) == 0 {
		fields = domain.DefaultOrderingFields
	}
	return func(a, b domain.RankedEntry) bool {
		for _, field := range fields {
			switch field {
			case domain.OrderByTier, domain.OrderByTierAsc:
				if a.Tier != b.Tier {
					return a.Tier < b.Tier
				}
			case domain.OrderByFitnessScore, domain.OrderByScoreDesc:
				if a.FitnessScore != b.FitnessScore {
					return a.FitnessScore > b.FitnessScore
				}
			case domain.OrderByScoreAsc:
				if a.FitnessScore != b.FitnessScore {
					return a.FitnessScore < b.FitnessScore
				}
			case domain.OrderByArrivalTimeAsc:
				if !a.CreatedAt.Equal(b.CreatedAt) {
					return a.CreatedAt.Before(b.CreatedAt)
				}
			case domain.OrderByTicketNumberAsc:
				if a.TicketNumber != b.TicketNumber {
					return a.TicketNumber < b.TicketNumber
				}
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	}
}

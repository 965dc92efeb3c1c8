package rest

import (
	"time"

	"github.com/arfis/waiting-room-sub002/domain"
)

// JoinRequest is the admission payload accepted from the kiosk or the card
// reader. Symbols are passed through to tier matching uppercased elsewhere;
// the transport validates shape only.
type JoinRequest struct {
	Symbols                []string         `json:"symbols" validate:"max=16,dive,min=1,max=32"`
	AppointmentTime        *time.Time       `json:"appointmentTime,omitempty"`
	Age                    *int             `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
	ManualOverride         bool             `json:"manualOverride"`
	ServiceName            string           `json:"serviceName" validate:"max=128"`
	ServiceDurationMinutes int64            `json:"serviceDurationMinutes" validate:"min=0,max=1440"`
	CardData               *domain.CardData `json:"cardData,omitempty"`
}

func (r JoinRequest) toAdmission() domain.Admission {
	return domain.Admission{
		Symbols:                r.Symbols,
		AppointmentTime:        r.AppointmentTime,
		Age:                    r.Age,
		ManualOverride:         r.ManualOverride,
		ServiceName:            r.ServiceName,
		ServiceDurationMinutes: r.ServiceDurationMinutes,
		CardData:               r.CardData,
	}
}

type CallNextRequest struct {
	ServicePointID string `json:"servicePointId" validate:"max=64"`
}

// EntryResponse is the transport shape of one entry, ranked or not. Position,
// Tier and FitnessScore are present only on ranked reads.
type EntryResponse struct {
	ID                     string           `json:"id"`
	RoomID                 string           `json:"roomId"`
	TicketNumber           string           `json:"ticketNumber"`
	Status                 domain.Status    `json:"status"`
	Position               int              `json:"position,omitempty"`
	Tier                   int              `json:"tier,omitempty"`
	FitnessScore           float64          `json:"fitnessScore,omitempty"`
	ServicePoint           string           `json:"servicePoint,omitempty"`
	ServiceName            string           `json:"serviceName,omitempty"`
	ServiceDurationMinutes int64            `json:"serviceDurationMinutes,omitempty"`
	CreatedAt              time.Time        `json:"createdAt"`
	UpdatedAt              time.Time        `json:"updatedAt"`
	CardData               *domain.CardData `json:"cardData,omitempty"`
}

func toEntryResponse(entry domain.Entry) EntryResponse {
	return EntryResponse{
		ID:                     entry.ID,
		RoomID:                 entry.RoomID,
		TicketNumber:           entry.TicketNumber,
		Status:                 entry.Status,
		ServicePoint:           entry.ServicePoint,
		ServiceName:            entry.ServiceName,
		ServiceDurationMinutes: entry.ServiceDurationMinutes,
		CreatedAt:              entry.CreatedAt,
		UpdatedAt:              entry.UpdatedAt,
		CardData:               entry.CardData,
	}
}

func toRankedResponse(ranked domain.RankedEntry) EntryResponse {
	response := toEntryResponse(ranked.Entry)
	response.Position = ranked.Position
	response.Tier = ranked.Tier
	response.FitnessScore = ranked.FitnessScore
	return response
}

// ErrorResponse carries a machine-readable code next to the human message so
// displays can distinguish an empty queue from a real fault.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

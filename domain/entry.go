// Package domain contains the core concepts of the waiting-room system:
// entries, rooms, statuses and the priority configuration. No runtime,
// network, or transport logic belongs here.
package domain

import "time"

// Entry is one queued person. ID, TicketNumber and CreatedAt are immutable
// after admission; Status moves only along the allowed transitions.
type Entry struct {
	ID           string
	RoomID       string
	TicketNumber string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Priority inputs.
	Symbols         []string
	AppointmentTime *time.Time
	Age             *int
	ManualOverride  bool

	// Service assignment and display metadata.
	ServicePoint           string
	ServiceName            string
	ServiceDurationMinutes int64
	CardData               *CardData
}

// Admission is the payload the admission collaborator (kiosk, card reader)
// supplies when a person joins a queue. Fields arrive already validated;
// the engine enforces only the status-machine invariant.
type Admission struct {
	Symbols                []string
	AppointmentTime        *time.Time
	Age                    *int
	ManualOverride         bool
	ServiceName            string
	ServiceDurationMinutes int64
	CardData               *CardData
}

// CardData is the demographic block scanned by the admission collaborator.
// The engine never interprets it; it is passed through to displays verbatim.
type CardData struct {
	IDNumber    string `json:"idNumber,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Source      string `json:"source,omitempty"`
}

// ServicePoint is a door or window inside a room.
type ServicePoint struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Room is an independently ranked queue scope. Rooms are created and
// destroyed by the admin collaborator; the engine only reads them.
type Room struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	ServicePoints []ServicePoint `json:"servicePoints"`
}

// HasServicePoint reports whether the room declares the given service point.
func (r Room) HasServicePoint(id string) bool {
	for _, sp := range r.ServicePoints {
		if sp.ID == id {
			return true
		}
	}
	return false
}

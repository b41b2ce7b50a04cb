package domain

import "time"

// LifecycleEvent is emitted after every applied reservation transition
type LifecycleEvent struct {
	ReservationID  int64             `json:"reservation_id"`
	WindowID       int64             `json:"availability_window_id"`
	StartTime      string            `json:"start_time"`
	UserID         int64             `json:"user_id"`
	ProfessionalID int64             `json:"professional_id"`
	Action         Action            `json:"action"`
	From           ReservationStatus `json:"from,omitempty"`
	To             ReservationStatus `json:"to"`
	ActorID        int64             `json:"actor_id"`
	ActorRole      Role              `json:"actor_role"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// NewLifecycleEvent builds the event for a transition of r
func NewLifecycleEvent(r *Reservation, action Action, from ReservationStatus, actor Actor, at time.Time) LifecycleEvent {
	return LifecycleEvent{
		ReservationID:  r.ID,
		WindowID:       r.WindowID,
		StartTime:      r.StartTime.String(),
		UserID:         r.UserID,
		ProfessionalID: r.ProfessionalID,
		Action:         action,
		From:           from,
		To:             r.Status,
		ActorID:        actor.UserID,
		ActorRole:      actor.Role,
		OccurredAt:     at,
	}
}

package models

import "time"

// Provider statuses.
const (
	ProviderStatusActive   = "active"
	ProviderStatusApproved = "approved"
	ProviderStatusInactive = "inactive"
)

// WorkInterval is one contiguous working block on a weekday, expressed in
// minutes from midnight (e.g. 540 to 720 is 09:00 to 12:00).
type WorkInterval struct {
	Weekday time.Weekday `bson:"weekday" json:"weekday"`
	Start   int          `bson:"start" json:"start"`
	End     int          `bson:"end" json:"end"`
}

// Provider is a clinic or an individual professional able to perform
// procedures under contract.
type Provider struct {
	ID          string         `bson:"id" json:"id"`
	Kind        ProviderKind   `bson:"kind" json:"kind"`
	Name        string         `bson:"name" json:"name"`
	Status      string         `bson:"status" json:"status"`
	Address     string         `bson:"address" json:"address,omitempty"`
	City        string         `bson:"city" json:"city,omitempty"`
	State       string         `bson:"state" json:"state,omitempty"`
	LocationGeo GeoPoint       `bson:"locationGeo" json:"locationGeo,omitzero"`
	Schedule    []WorkInterval `bson:"schedule,omitempty" json:"schedule,omitempty"`
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt,omitzero"`
	UpdatedAt   time.Time      `bson:"updatedAt" json:"updatedAt,omitzero"`
}

// Ref returns the provider's cross-collection reference.
func (p Provider) Ref() ProviderRef {
	return ProviderRef{Kind: p.Kind, ID: p.ID}
}

// Bookable reports whether the provider may receive new appointments.
func (p Provider) Bookable() bool {
	return p.Status == ProviderStatusActive || p.Status == ProviderStatusApproved
}

// DefaultWeekSchedule is the fallback working-hours grid used when a provider
// has no schedule configured: Mon-Fri 09:00-12:00 and 14:00-18:00,
// Sat 09:00-12:00, Sun closed.
func DefaultWeekSchedule() []WorkInterval {
	var schedule []WorkInterval
	for wd := time.Monday; wd <= time.Friday; wd++ {
		schedule = append(schedule,
			WorkInterval{Weekday: wd, Start: 9 * 60, End: 12 * 60},
			WorkInterval{Weekday: wd, Start: 14 * 60, End: 18 * 60},
		)
	}
	schedule = append(schedule, WorkInterval{Weekday: time.Saturday, Start: 9 * 60, End: 12 * 60})
	return schedule
}

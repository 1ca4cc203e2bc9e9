package models

import "time"

// Role is the application role stored on a profile.
type Role string

// RoleCoordinator is the only role currently produced.
const RoleCoordinator Role = "coordinator"

// ProfileRecord is the application's own per-user document. ID always equals
// the owning Identity.ID.
type ProfileRecord struct {
	ID        string    `json:"uid" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	FullName  string    `json:"fullName,omitempty" bson:"fullName,omitempty"`
	Role      Role      `json:"role" bson:"role"`
	Cluster   string    `json:"cluster,omitempty" bson:"cluster,omitempty"`
	Mobile    string    `json:"mobile,omitempty" bson:"mobile,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ProfileFields is a partial profile document. Nil fields are "not supplied".
type ProfileFields struct {
	Email     *string
	FullName  *string
	Role      *Role
	Cluster   *string
	Mobile    *string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// Apply writes the fields onto rec. With merge=false the record is replaced by
// the supplied fields, so anything not supplied is zeroed; with merge=true only
// the supplied fields change and CreatedAt is written only to a record that has
// none. The ID is always kept.
func (f ProfileFields) Apply(rec *ProfileRecord, merge bool) {
	if !merge {
		*rec = ProfileRecord{ID: rec.ID}
	}
	if f.Email != nil {
		rec.Email = *f.Email
	}
	if f.FullName != nil {
		rec.FullName = *f.FullName
	}
	if f.Role != nil {
		rec.Role = *f.Role
	}
	if f.Cluster != nil {
		rec.Cluster = *f.Cluster
	}
	if f.Mobile != nil {
		rec.Mobile = *f.Mobile
	}
	if f.CreatedAt != nil && (!merge || rec.CreatedAt.IsZero()) {
		rec.CreatedAt = *f.CreatedAt
	}
	if f.UpdatedAt != nil {
		rec.UpdatedAt = *f.UpdatedAt
	}
}

// Ptr returns a pointer to v. It keeps ProfileFields literals short.
func Ptr[T any](v T) *T {
	return &v
}

// Package consent holds the consent records collected when a meeting is
// scheduled and the policy engine that gates every data-affecting operation
// on them.
package consent

import (
	"time"

	"notarius/pkg/domain"
	dErrors "notarius/pkg/domain-errors"
)

// Profile is a named consent bundle fixing scope, retention, and residency.
type Profile string

const (
	ProfileBas     Profile = "bas"
	ProfilePlus    Profile = "plus"
	ProfileJuridik Profile = "juridik"
)

// Scope tags one class of captured meeting data.
type Scope string

const (
	ScopeAudio     Scope = "audio"
	ScopeVideo     Scope = "video"
	ScopeChat      Scope = "chat"
	ScopeScreen    Scope = "screen"
	ScopeDocuments Scope = "documents"
)

// Residency constrains where a meeting's data may be stored or exported.
type Residency string

const (
	ResidencyEU       Residency = "eu"
	ResidencyCustomer Residency = "customer"
	ResidencyGlobal   Residency = "global"
)

// Record is the consent captured for one meeting. Records are replaced
// wholesale, never mutated in place.
type Record struct {
	MeetingID     domain.MeetingID
	Profile       Profile
	Scope         []Scope
	RetentionDays int
	DataResidency Residency
	AcceptedAt    time.Time
}

// HasScope reports whether the record covers the given data scope.
func (r Record) HasScope(s Scope) bool {
	for _, have := range r.Scope {
		if have == s {
			return true
		}
	}
	return false
}

// profileDefaults is the fixed profile table.
var profileDefaults = map[Profile]Record{
	ProfileBas: {
		Scope:         []Scope{ScopeAudio, ScopeChat},
		RetentionDays: 30,
		DataResidency: ResidencyEU,
	},
	ProfilePlus: {
		Scope:         []Scope{ScopeAudio, ScopeChat, ScopeDocuments},
		RetentionDays: 90,
		DataResidency: ResidencyEU,
	},
	ProfileJuridik: {
		Scope:         []Scope{ScopeAudio, ScopeChat, ScopeDocuments, ScopeScreen},
		RetentionDays: 180,
		DataResidency: ResidencyCustomer,
	},
}

// NewRecordFromProfile builds a consent record from a profile. Pure:
// persistence is the caller's responsibility.
func NewRecordFromProfile(meetingID domain.MeetingID, profile Profile, acceptedAt time.Time) (Record, error) {
	defaults, ok := profileDefaults[profile]
	if !ok {
		return Record{}, dErrors.Newf(dErrors.CodeValidation, "unknown consent profile %q", profile)
	}
	record := defaults
	record.Scope = append([]Scope(nil), defaults.Scope...)
	record.MeetingID = meetingID
	record.Profile = profile
	record.AcceptedAt = acceptedAt
	return record, nil
}

// ParseProfile constructs a Profile from external input.
func ParseProfile(s string) (Profile, error) {
	p := Profile(s)
	if _, ok := profileDefaults[p]; !ok {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown consent profile %q", s)
	}
	return p, nil
}

// Package memory provides in-memory meeting stores for tests and for
// deployments without postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"notarius/internal/consent"
	"notarius/internal/meeting"
	"notarius/pkg/domain"
	"notarius/pkg/platform/sentinel"
)

// Store implements every meeting store interface over one mutex.
type Store struct {
	mu        sync.RWMutex
	meetings  map[domain.MeetingID]meeting.Detail
	actions   map[domain.ActionID]meeting.Action
	decisions map[domain.DecisionID]meeting.Decision
	briefs    map[domain.BriefID]meeting.Brief
	consents  map[domain.MeetingID]consent.Record
}

func New() *Store {
	return &Store{
		meetings:  make(map[domain.MeetingID]meeting.Detail),
		actions:   make(map[domain.ActionID]meeting.Action),
		decisions: make(map[domain.DecisionID]meeting.Decision),
		briefs:    make(map[domain.BriefID]meeting.Brief),
		consents:  make(map[domain.MeetingID]consent.Record),
	}
}

// PutMeeting seeds a meeting header.
func (s *Store) PutMeeting(detail meeting.Detail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[detail.ID] = detail
}

func (s *Store) GetMeetingDetail(_ context.Context, id domain.MeetingID) (*meeting.Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	detail, ok := s.meetings[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &detail, nil
}

func (s *Store) Get(_ context.Context, id domain.ActionID) (*meeting.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	action, ok := s.actions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &action, nil
}

func (s *Store) Put(_ context.Context, action *meeting.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[action.ID] = *action
	return nil
}

func (s *Store) SetStatus(_ context.Context, id domain.ActionID, status meeting.ActionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	action, ok := s.actions[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	action.Status = status
	if status != meeting.ActionOpen && action.AcknowledgedAt == nil {
		now := time.Now()
		action.AcknowledgedAt = &now
	}
	s.actions[id] = action
	return nil
}

func (s *Store) ListByMeeting(_ context.Context, meetingID domain.MeetingID) ([]meeting.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []meeting.Action
	for _, action := range s.actions {
		if action.MeetingID == meetingID {
			out = append(out, action)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteByMeeting(_ context.Context, meetingID domain.MeetingID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, action := range s.actions {
		if action.MeetingID == meetingID {
			delete(s.actions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) CountByMeeting(_ context.Context, meetingID domain.MeetingID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, action := range s.actions {
		if action.MeetingID == meetingID {
			n++
		}
	}
	return n, nil
}

// Decisions returns a DecisionStore view over the same data.
func (s *Store) Decisions() meeting.DecisionStore { return (*decisionView)(s) }

// Briefs returns a BriefStore view over the same data.
func (s *Store) Briefs() meeting.BriefStore { return (*briefView)(s) }

// Consents returns a ConsentStore view over the same data.
func (s *Store) Consents() meeting.ConsentStore { return (*consentView)(s) }

type decisionView Store

func (v *decisionView) Put(_ context.Context, decision *meeting.Decision) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.decisions[decision.ID] = *decision
	return nil
}

func (v *decisionView) DeleteByMeeting(_ context.Context, meetingID domain.MeetingID) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	removed := 0
	for id, decision := range v.decisions {
		if decision.MeetingID == meetingID {
			delete(v.decisions, id)
			removed++
		}
	}
	return removed, nil
}

func (v *decisionView) CountByMeeting(_ context.Context, meetingID domain.MeetingID) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n := 0
	for _, decision := range v.decisions {
		if decision.MeetingID == meetingID {
			n++
		}
	}
	return n, nil
}

type briefView Store

func (v *briefView) Put(_ context.Context, brief *meeting.Brief) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.briefs[brief.ID] = *brief
	return nil
}

func (v *briefView) DeleteByMeeting(_ context.Context, meetingID domain.MeetingID) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	removed := 0
	for id, brief := range v.briefs {
		if brief.MeetingID == meetingID {
			delete(v.briefs, id)
			removed++
		}
	}
	return removed, nil
}

func (v *briefView) CountByMeeting(_ context.Context, meetingID domain.MeetingID) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n := 0
	for _, brief := range v.briefs {
		if brief.MeetingID == meetingID {
			n++
		}
	}
	return n, nil
}

type consentView Store

func (v *consentView) Get(_ context.Context, meetingID domain.MeetingID) (*consent.Record, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	record, ok := v.consents[meetingID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &record, nil
}

func (v *consentView) Replace(_ context.Context, record consent.Record) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.consents[record.MeetingID] = record
	return nil
}

func (v *consentView) DeleteByMeeting(_ context.Context, meetingID domain.MeetingID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.consents, meetingID)
	return nil
}

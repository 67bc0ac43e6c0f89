package consent

import (
	"context"
	"errors"

	"notarius/pkg/domain"
	dErrors "notarius/pkg/domain-errors"
	"notarius/pkg/platform/sentinel"
)

// DataClass categorizes the data a caller wants to touch.
type DataClass string

const (
	ClassTranscript DataClass = "transcript"
	ClassRecording  DataClass = "recording"
	ClassAction     DataClass = "action"
	ClassDocument   DataClass = "document"
	ClassAnalytics  DataClass = "analytics"
)

// ScopeFor maps a data class to the consent scope tag it requires.
// Unknown classes fall back to chat, the narrowest capture scope.
func ScopeFor(class DataClass) Scope {
	switch class {
	case ClassTranscript:
		return ScopeAudio
	case ClassRecording:
		return ScopeVideo
	case ClassDocument:
		return ScopeDocuments
	case ClassAnalytics:
		return ScopeScreen
	default:
		return ScopeChat
	}
}

// Policy tags carried on decisions, stable for audit correlation.
const (
	PolicyOK        = "consent.ok"
	PolicyRequired  = "consent.required"
	PolicyScope     = "consent.scope"
	PolicyResidency = "consent.residency"
)

// Decision is the ephemeral outcome of one policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string
	Policy  string
}

// Lookup resolves the current consent record for a meeting. Implementations
// return sentinel.ErrNotFound when no record exists.
type Lookup interface {
	Get(ctx context.Context, meetingID domain.MeetingID) (*Record, error)
}

// Request describes one data operation to be gated.
type Request struct {
	MeetingID domain.MeetingID
	// Consent short-circuits the lookup when the caller already holds the
	// record (e.g. inside a handler that just loaded it).
	Consent      *Record
	DataClass    DataClass
	Operation    string
	TargetRegion Residency
}

// Engine evaluates allow/deny decisions from consent records.
type Engine struct {
	lookup Lookup
}

// NewEngine creates a policy engine backed by the given consent lookup.
func NewEngine(lookup Lookup) *Engine {
	return &Engine{lookup: lookup}
}

// Evaluate applies the precedence chain, first match wins:
//  1. no consent resolvable            -> deny consent.required
//  2. required scope missing           -> deny consent.scope
//  3. target region differs            -> deny consent.residency
//  4. otherwise                        -> allow consent.ok
//
// The returned error covers lookup infrastructure failures only; a denial is
// an allowed=false decision, not an error.
func (e *Engine) Evaluate(ctx context.Context, req Request) (Decision, error) {
	record := req.Consent
	if record == nil {
		found, err := e.lookup.Get(ctx, req.MeetingID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return Decision{Allowed: false, Reason: "no consent on record for meeting", Policy: PolicyRequired}, nil
			}
			return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "consent lookup failed")
		}
		record = found
	}
	if record == nil {
		return Decision{Allowed: false, Reason: "no consent on record for meeting", Policy: PolicyRequired}, nil
	}

	required := ScopeFor(req.DataClass)
	if !record.HasScope(required) {
		return Decision{
			Allowed: false,
			Reason:  "scope " + string(required) + " not granted by profile " + string(record.Profile),
			Policy:  PolicyScope,
		}, nil
	}

	if req.TargetRegion != "" && req.TargetRegion != record.DataResidency {
		return Decision{
			Allowed: false,
			Reason:  "residency " + string(record.DataResidency) + " forbids " + string(req.TargetRegion),
			Policy:  PolicyResidency,
		}, nil
	}

	return Decision{Allowed: true, Policy: PolicyOK}, nil
}

// Require is Evaluate for callers that treat a denial as a hard stop. It
// returns a CodePolicyDenied error carrying the decision's reason.
func (e *Engine) Require(ctx context.Context, req Request) error {
	decision, err := e.Evaluate(ctx, req)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return dErrors.Newf(dErrors.CodePolicyDenied, "%s: %s", decision.Policy, decision.Reason)
	}
	return nil
}

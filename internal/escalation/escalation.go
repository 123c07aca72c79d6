// Package escalation maps escalation reasons to a priority and SLA window
package escalation

import "time"

// Reasons recognized by the priority table
const (
	ReasonDistress        = "distress_flag"
	ReasonObjection       = "objection_threshold"
	ReasonHNIGrievance    = "hni_grievance"
	ReasonReview          = "review_escalation"
	ReasonReviewLegacy    = "Critique B escalation"
	ReasonInboundDistress = "Inbound distress detected"
	ReasonOrchestrator    = "orchestrator_escalation"
)

const (
	DefaultPriority         = 0.6
	InboundDistressPriority = 1.0

	urgentPriority   = 0.9
	elevatedPriority = 0.7
)

// SLA windows by priority tier
const (
	UrgentSLAHours   = 2
	ElevatedSLAHours = 4
	StandardSLAHours = 8
)

var priorities = map[string]float64{
	ReasonDistress:        1.0,
	ReasonObjection:       0.8,
	ReasonHNIGrievance:    0.9,
	ReasonReview:          0.7,
	ReasonReviewLegacy:    0.7,
	ReasonInboundDistress: InboundDistressPriority,
}

// Evaluate returns the priority and SLA hours for a reason. Unrecognized
// reasons receive DefaultPriority
func Evaluate(reason string) (float64, int) {
	priority, ok := priorities[reason]
	if !ok {
		priority = DefaultPriority
	}
	return priority, SLAHours(priority)
}

// SLAHours derives the SLA window from a priority. Tier boundaries are
// inclusive
func SLAHours(priority float64) int {
	switch {
	case priority >= urgentPriority:
		return UrgentSLAHours
	case priority >= elevatedPriority:
		return ElevatedSLAHours
	default:
		return StandardSLAHours
	}
}

// Deadline returns the SLA deadline for a priority measured from now
func Deadline(now time.Time, priority float64) time.Time {
	return now.Add(time.Duration(SLAHours(priority)) * time.Hour)
}

// ObjectionThreshold is the objection count at which a policy is handed to
// a human
const ObjectionThreshold = 3

// Threshold reports whether distress or repeated objections require
// escalation, returning the matching reason
func Threshold(distress bool, objections int) (string, bool) {
	switch {
	case distress:
		return ReasonDistress, true
	case objections >= ObjectionThreshold:
		return ReasonObjection, true
	default:
		return "", false
	}
}

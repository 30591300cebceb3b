package notify

import "shiftdesk/pkg/models"

// Matches reports whether a subscription should receive an event about the
// given employee: it must be active and scoped to the sentinel or to that
// exact id.
func Matches(sub models.Subscription, subjectEmployeeID string) bool {
	if !sub.Active {
		return false
	}
	return sub.SubscribedTo.Contains(subjectEmployeeID)
}

// WantsNewEmployee gates roster-grew events on the per-subscription flag
// rather than subject matching.
func WantsNewEmployee(sub models.Subscription) bool {
	return sub.Active && sub.NotifyNewEmployee
}

// WantsDeleteEmployee gates roster-shrank events.
func WantsDeleteEmployee(sub models.Subscription) bool {
	return sub.Active && sub.NotifyDeleteEmployee
}

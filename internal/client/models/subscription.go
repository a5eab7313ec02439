package models

// SubscriptionStatusActive is the only status that grants paid features.
const SubscriptionStatusActive = "active"

// Subscription is the cached billing status of the signed-in account.
// It is informational only; the API stays authoritative.
type Subscription struct {
	Status   string `json:"status"`
	IsActive bool   `json:"is_active"`
}

// HasActiveSubscription reports whether the snapshot describes a paid,
// currently active plan. A nil snapshot is never active.
func (s *Subscription) HasActiveSubscription() bool {
	if s == nil {
		return false
	}
	return s.Status == SubscriptionStatusActive && s.IsActive
}

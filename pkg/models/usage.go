package models

import "time"

// SubscriptionStatus of the account owning the quota
type SubscriptionStatus string

const (
	StatusFree    SubscriptionStatus = "free"
	StatusPremium SubscriptionStatus = "premium"
	StatusExpired SubscriptionStatus = "expired"
)

// Unlimited is the Max value the backend uses for accounts without a cap
const Unlimited = -1

// UsageSnapshot tracks generations consumed against the allowed maximum
type UsageSnapshot struct {
	Used               int                `json:"used"`
	Max                int                `json:"max"`
	Remaining          int                `json:"remaining"`
	Percentage         int                `json:"percentage"`
	Status             SubscriptionStatus `json:"status"`
	SubscriptionExpiry *time.Time         `json:"subscription_expiry,omitempty"`
	UserID             string             `json:"user_id,omitempty"`
}

// NewUsageSnapshot returns a fresh free-tier snapshot
func NewUsageSnapshot(max int) UsageSnapshot {
	s := UsageSnapshot{Max: max, Status: StatusFree}
	s.Recalculate()
	return s
}

// Recalculate derives Remaining and Percentage from Used and Max
func (u *UsageSnapshot) Recalculate() {
	if u.Max == Unlimited {
		u.Remaining = Unlimited
		u.Percentage = 0
		return
	}
	u.Remaining = u.Max - u.Used
	if u.Remaining < 0 {
		u.Remaining = 0
	}
	if u.Max > 0 {
		u.Percentage = (u.Used*100 + u.Max/2) / u.Max
	} else {
		u.Percentage = 100
	}
}

// PremiumActive reports an unexpired premium subscription
func (u UsageSnapshot) PremiumActive(now time.Time) bool {
	if u.Status != StatusPremium {
		return false
	}
	return u.SubscriptionExpiry == nil || u.SubscriptionExpiry.After(now)
}

// CanGenerate reports whether another generation fits the quota
func (u UsageSnapshot) CanGenerate(now time.Time) bool {
	if u.PremiumActive(now) || u.Max == Unlimited {
		return true
	}
	return u.Used < u.Max
}

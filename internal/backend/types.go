package backend

import "proposal-autofill/pkg/models"

// envelope wraps every backend response
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Tokens is the data of login and refresh
type Tokens struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user,omitempty"`
}

// Limits are the proposal counters in /api/proposals/stats
type Limits struct {
	Current    int `json:"current"`
	Max        int `json:"max"`
	Remaining  int `json:"remaining"`
	Percentage int `json:"percentage"`
}

// ProposalStats is the data of /api/proposals/stats
type ProposalStats struct {
	Limits             Limits                    `json:"limits"`
	SubscriptionStatus models.SubscriptionStatus `json:"subscriptionStatus,omitempty"`
}

// Apply copies the server counts onto a snapshot
func (l Limits) Apply(u *models.UsageSnapshot) {
	u.Used = l.Current
	u.Max = l.Max
	u.Recalculate()
}

// IncrementResult is the data of /api/proposals/increment
type IncrementResult struct {
	CurrentProposals int `json:"currentProposals"`
	MaxProposals     int `json:"maxProposals"`
	Remaining        int `json:"remaining"`
}

// Apply copies the server counts onto a snapshot
func (r IncrementResult) Apply(u *models.UsageSnapshot) {
	u.Used = r.CurrentProposals
	u.Max = r.MaxProposals
	u.Recalculate()
}

// ProfileUpdate is the body of PUT /api/users/profile
type ProfileUpdate struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// PasswordChange is the body of PUT /api/users/change-password
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

package models

// Credentials for the login action
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest for the register action
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// User is the backend's profile document
type User struct {
	ID               string             `json:"id,omitempty"`
	Email            string             `json:"email,omitempty"`
	FirstName        string             `json:"firstName,omitempty"`
	LastName         string             `json:"lastName,omitempty"`
	CurrentProposals *int               `json:"currentProposals,omitempty"`
	MaxProposals     *int               `json:"maxProposals,omitempty"`
	Subscription     SubscriptionStatus `json:"subscriptionStatus,omitempty"`
}

// AuthState is the session's view of the logged-in account.
// Tokens are never serialized back to callers.
type AuthState struct {
	Authenticated bool   `json:"isAuthenticated"`
	Token         string `json:"-"`
	RefreshToken  string `json:"-"`
	User          *User  `json:"user,omitempty"`
}

// APIKey is one entry of GET /api/api-keys
type APIKey struct {
	ID       string `json:"id,omitempty"`
	Key      string `json:"key"`
	KeyType  string `json:"keyType"`
	IsActive bool   `json:"isActive"`
}

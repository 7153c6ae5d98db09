package models

import "time"

// MessageResponse is the reply envelope of the message bus.
// Failures carry Error and, for quota exhaustion, LimitReached.
type MessageResponse struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	LimitReached bool   `json:"limitReached,omitempty"`
	Message      string `json:"message,omitempty"`

	CoverLetter string                `json:"coverLetter,omitempty"`
	Answers     []string              `json:"answers,omitempty"`
	Usage       *UsageSnapshot        `json:"usage,omitempty"`
	Job         *JobPosting           `json:"job,omitempty"`
	Questions   []ApplicationQuestion `json:"questions,omitempty"`
	Filled      *bool                 `json:"filled,omitempty"`

	IsAuthenticated *bool      `json:"isAuthenticated,omitempty"`
	AuthState       *AuthState `json:"authState,omitempty"`
	User            *User      `json:"user,omitempty"`

	Subscription *UsageSnapshot `json:"subscription,omitempty"`
	Data         interface{}    `json:"data,omitempty"`
	APIKey       string         `json:"apiKey,omitempty"`
	Settings     *Settings      `json:"settings,omitempty"`
}

// Fail builds a failed reply
func Fail(msg string) MessageResponse {
	return MessageResponse{Success: false, Error: msg}
}

// OK builds an empty successful reply
func OK() MessageResponse {
	return MessageResponse{Success: true}
}

// UsageLimits is the `data.limits` payload of getProposalStats/getUsageInfo
type UsageLimits struct {
	Limits UsageSnapshot `json:"limits"`
}

// TabResponse describes an opened browser tab
type TabResponse struct {
	TabID     string      `json:"tab_id"`
	URL       string      `json:"url"`
	State     string      `json:"state"`
	Generated bool        `json:"generated"`
	Job       *JobPosting `json:"job,omitempty"`
	RequestID string      `json:"request_id"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

package models

// Action names accepted on the message bus
const (
	ActionRegister                = "register"
	ActionLogin                   = "login"
	ActionLogout                  = "logout"
	ActionGetAuthState            = "getAuthState"
	ActionGetUsage                = "getUsage"
	ActionGetUsageInfo            = "getUsageInfo"
	ActionResetUsage              = "resetUsage"
	ActionCheckSubscription       = "checkSubscription"
	ActionGetUserProfile          = "getUserProfile"
	ActionUpdateProfile           = "updateProfile"
	ActionChangePassword          = "changePassword"
	ActionGetProposalStats        = "getProposalStats"
	ActionIncrementProposal       = "incrementProposal"
	ActionGenerateCoverLetter     = "generateCoverLetter"
	ActionGenerateQuestionAnswers = "generateQuestionAnswers"
	ActionExtractJobData          = "extractJobData"
	ActionFillCoverLetter         = "fillCoverLetter"
	ActionDetectQuestions         = "detectQuestions"
	ActionGetAPIKey               = "getApiKey"
	ActionTestConnection          = "testConnection"
	ActionPageReady               = "pageReady"
	ActionGetSettings             = "getSettings"
	ActionSaveSettings            = "saveSettings"
	ActionSetMetaPromptOverride   = "setMetaPromptOverride"
)

// MessageRequest is the `{action, ...payload}` envelope of the message bus
type MessageRequest struct {
	Action string `json:"action" validate:"required"`
	TabID  string `json:"tabId,omitempty"`

	JobTitle       string            `json:"jobTitle,omitempty"`
	JobDescription string            `json:"jobDescription,omitempty"`
	URL            string            `json:"url,omitempty"`
	Questions      []QuestionPayload `json:"questions,omitempty" validate:"omitempty,dive"`
	Text           string            `json:"text,omitempty"`

	Credentials *Credentials     `json:"credentials,omitempty"`
	UserData    *RegisterRequest `json:"userData,omitempty"`

	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`

	Settings     *Settings `json:"settings,omitempty"`
	TemplateType string    `json:"templateType,omitempty"`
	MetaPrompt   string    `json:"metaPrompt,omitempty"`
}

// OpenTabRequest opens a proposal page in the managed browser
type OpenTabRequest struct {
	URL   string `json:"url" validate:"required,page_url"`
	Watch bool   `json:"watch"`
}

// FillRequest writes user supplied text into a tab's cover-letter field
type FillRequest struct {
	Text string `json:"text" validate:"required"`
}

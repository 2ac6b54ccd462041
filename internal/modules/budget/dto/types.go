package dto

type ConsumeInput struct {
	ProfileID string
	Tier      string
	Seconds   int64
}

type BudgetOutput struct {
	ProfileID        string `json:"profile_id"`
	Day              string `json:"day"`
	AllowedSeconds   int64  `json:"allowed_seconds"`
	ConsumedSeconds  int64  `json:"consumed_seconds"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Exhausted        bool   `json:"exhausted"`
}

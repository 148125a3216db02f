package domain

import "time"

// Vote is the request the client sends to the authority.
type Vote struct {
	PollID    string    `json:"votingId"`
	OptionID  string    `json:"optionId"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

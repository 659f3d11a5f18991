package dto

import "time"

type RateLimitInfo struct {
	Allowed      bool       `json:"allowed"`
	Remaining    int        `json:"remaining"`
	ResetTime    *time.Time `json:"reset_time,omitempty"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
}

type RateLimitConfigInfo struct {
	EndpointType  string `json:"endpointType"`
	MaxRequests   int    `json:"maxRequests"`
	WindowSeconds int64  `json:"windowSeconds"`
	BlockSeconds  int64  `json:"blockSeconds"`
	IsActive      bool   `json:"isActive"`
}

type RateLimitStats struct {
	Configs        []RateLimitConfigInfo `json:"configs"`
	TotalRecords   int64                 `json:"totalRecords"`
	BlockedRecords int64                 `json:"blockedRecords"`
	Timestamp      time.Time             `json:"timestamp"`
}

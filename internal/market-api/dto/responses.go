package dto

import "github.com/radieske/prediction-market-poc/internal/market-api/validation"

// ErrorResponse é o corpo de toda resposta 4xx/5xx
type ErrorResponse struct {
	Message string             `json:"message"`
	Issues  []validation.Issue `json:"issues,omitempty"`
}

type FollowResponse struct {
	Success   bool `json:"success"`
	Following bool `json:"following"`
}

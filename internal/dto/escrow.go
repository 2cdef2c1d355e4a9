package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// HoldFundsRequest defines the payload for placing a verified transaction's
// funds on hold.
type HoldFundsRequest struct {
	Reason    string     `json:"reason" binding:"required"`
	HoldUntil *time.Time `json:"holdUntil,omitempty"`
}

// SplitRuleRequest defines one recipient's share in a split request.
type SplitRuleRequest struct {
	Type          string          `json:"type"`
	RecipientID   string          `json:"recipientID" binding:"required"`
	RecipientType string          `json:"recipientType" binding:"required"`
	Rate          decimal.Decimal `json:"rate"`
}

// SplitFundsRequest defines the payload for apportioning held funds.
type SplitFundsRequest struct {
	Rules []SplitRuleRequest `json:"rules" binding:"required,min=1,dive"`
}

// ReleaseFundsRequest defines the payload for releasing held funds to one
// recipient. A nil amount releases the full remaining balance.
type ReleaseFundsRequest struct {
	RecipientID   string           `json:"recipientID" binding:"required"`
	RecipientType string           `json:"recipientType" binding:"required"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
}

// CancelHoldRequest defines the payload for cancelling a hold.
type CancelHoldRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SplitFundsResponse returns the updated transaction plus the organization's
// remainder after all splits.
type SplitFundsResponse struct {
	Transaction        TransactionResponse `json:"transaction"`
	OrganizationPayout decimal.Decimal     `json:"organizationPayout"`
}

package domain

import "time"

// RefundStatus enumerates refund workflow labels.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusApproved  RefundStatus = "APPROVED"
	RefundStatusDenied    RefundStatus = "DENIED"
	RefundStatusProcessed RefundStatus = "PROCESSED"
	RefundStatusCompleted RefundStatus = "COMPLETED"
)

// RefundStatuses lists every refund status.
var RefundStatuses = []RefundStatus{
	RefundStatusPending,
	RefundStatusApproved,
	RefundStatusDenied,
	RefundStatusProcessed,
	RefundStatusCompleted,
}

// Refund is a customer request to return money for an order.
type Refund struct {
	ID          string
	OrderID     string
	UserID      string
	AmountCents int64
	Reason      string
	Status      RefundStatus
	AdminNotes  string
	ReviewedBy  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

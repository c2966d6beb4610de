package enums

import "fmt"

// SellOrderStatus tracks the lifecycle of a member-facing sell order.
type SellOrderStatus string

const (
	SellOrderStatusPending         SellOrderStatus = "pending"
	SellOrderStatusApproved        SellOrderStatus = "approved"
	SellOrderStatusPaymentVerified SellOrderStatus = "payment_verified"
	SellOrderStatusCompleted       SellOrderStatus = "completed"
	SellOrderStatusRejected        SellOrderStatus = "rejected"
	SellOrderStatusCancelled       SellOrderStatus = "cancelled"
)

var validSellOrderStatuses = []SellOrderStatus{
	SellOrderStatusPending,
	SellOrderStatusApproved,
	SellOrderStatusPaymentVerified,
	SellOrderStatusCompleted,
	SellOrderStatusRejected,
	SellOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s SellOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SellOrderStatus.
func (s SellOrderStatus) IsValid() bool {
	for _, candidate := range validSellOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s SellOrderStatus) IsTerminal() bool {
	switch s {
	case SellOrderStatusCompleted, SellOrderStatusRejected, SellOrderStatusCancelled:
		return true
	}
	return false
}

// ParseSellOrderStatus converts raw input into a SellOrderStatus.
func ParseSellOrderStatus(value string) (SellOrderStatus, error) {
	for _, candidate := range validSellOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sell order status %q", value)
}

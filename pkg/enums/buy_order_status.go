package enums

import "fmt"

// BuyOrderStatus tracks the lifecycle of a buy-from-member order. Buy orders
// skip payment verification because the corporation pays on completion.
type BuyOrderStatus string

const (
	BuyOrderStatusPending   BuyOrderStatus = "pending"
	BuyOrderStatusApproved  BuyOrderStatus = "approved"
	BuyOrderStatusCompleted BuyOrderStatus = "completed"
	BuyOrderStatusRejected  BuyOrderStatus = "rejected"
	BuyOrderStatusCancelled BuyOrderStatus = "cancelled"
)

var validBuyOrderStatuses = []BuyOrderStatus{
	BuyOrderStatusPending,
	BuyOrderStatusApproved,
	BuyOrderStatusCompleted,
	BuyOrderStatusRejected,
	BuyOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s BuyOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BuyOrderStatus.
func (s BuyOrderStatus) IsValid() bool {
	for _, candidate := range validBuyOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s BuyOrderStatus) IsTerminal() bool {
	switch s {
	case BuyOrderStatusCompleted, BuyOrderStatusRejected, BuyOrderStatusCancelled:
		return true
	}
	return false
}

// ParseBuyOrderStatus converts raw input into a BuyOrderStatus.
func ParseBuyOrderStatus(value string) (BuyOrderStatus, error) {
	for _, candidate := range validBuyOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid buy order status %q", value)
}

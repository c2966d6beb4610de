package enums

import "fmt"

// Capability names a permission granted to a user by the host platform.
type Capability string

const (
	CapabilityAccessHub              Capability = "access_hub"
	CapabilityManageMaterialExchange Capability = "manage_material_exchange"
)

var validCapabilities = []Capability{
	CapabilityAccessHub,
	CapabilityManageMaterialExchange,
}

// String implements fmt.Stringer.
func (c Capability) String() string {
	return string(c)
}

// IsValid reports whether the capability is recognized.
func (c Capability) IsValid() bool {
	for _, candidate := range validCapabilities {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCapability converts a raw string into a Capability.
func ParseCapability(value string) (Capability, error) {
	for _, candidate := range validCapabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid capability %q", value)
}

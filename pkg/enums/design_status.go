package enums

import "fmt"

// DesignStatus tracks a submitted design through review.
type DesignStatus string

const (
	DesignStatusDraft    DesignStatus = "draft"
	DesignStatusPending  DesignStatus = "pending"
	DesignStatusApproved DesignStatus = "approved"
	DesignStatusRejected DesignStatus = "rejected"
)

var validDesignStatuses = []DesignStatus{
	DesignStatusDraft,
	DesignStatusPending,
	DesignStatusApproved,
	DesignStatusRejected,
}

// String implements fmt.Stringer.
func (d DesignStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DesignStatus.
func (d DesignStatus) IsValid() bool {
	for _, candidate := range validDesignStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDesignStatus converts raw input into a DesignStatus.
func ParseDesignStatus(value string) (DesignStatus, error) {
	for _, candidate := range validDesignStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid design status %q", value)
}

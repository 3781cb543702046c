package enums

import "fmt"

// CouponStatus is the lifecycle state of a published coupon.
type CouponStatus string

const (
	CouponStatusActive  CouponStatus = "active"
	CouponStatusExpired CouponStatus = "expired"
	CouponStatusPaused  CouponStatus = "paused"
)

var validCouponStatuses = []CouponStatus{
	CouponStatusActive,
	CouponStatusExpired,
	CouponStatusPaused,
}

// String implements fmt.Stringer.
func (s CouponStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s CouponStatus) IsValid() bool {
	for _, candidate := range validCouponStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCouponStatus converts raw input into a CouponStatus.
func ParseCouponStatus(value string) (CouponStatus, error) {
	for _, candidate := range validCouponStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon status %q", value)
}

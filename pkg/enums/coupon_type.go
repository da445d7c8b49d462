package enums

import "fmt"

// CouponType maps to the discount kinds the commerce engine supports.
type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

var validCouponTypes = []CouponType{CouponPercentage, CouponFixed}

// IsValid reports whether the value is a known coupon type.
func (c CouponType) IsValid() bool {
	for _, candidate := range validCouponTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponType converts raw input into CouponType, defaulting unknown
// values to percentage the way the source plugin did.
func ParseCouponType(value string) (CouponType, error) {
	for _, candidate := range validCouponTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon type %q", value)
}

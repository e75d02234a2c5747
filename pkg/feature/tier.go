package feature

import (
	"errors"
	"fmt"
)

// Tier represents a subscription tier in the billing system's ordering.
// Tiers are comparable: free < basic < pro < enterprise.
type Tier string

const (
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

var tierOrdinals = map[Tier]int{
	TierFree:       0,
	TierBasic:      1,
	TierPro:        2,
	TierEnterprise: 3,
}

// Ordinal returns the tier's position in the tier ordering.
// Unknown tiers map to the lowest position so a malformed tier value
// never grants more access than free.
func (t Tier) Ordinal() int {
	return tierOrdinals[t]
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	_, ok := tierOrdinals[t]
	return ok
}

// AtLeast reports whether t grants at least the access level of min.
func (t Tier) AtLeast(min Tier) bool {
	return t.Ordinal() >= min.Ordinal()
}

// ParseTier converts a lowercase tier string into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", errors.Join(ErrInvalidTier, fmt.Errorf("unknown tier %q", s))
	}
	return t, nil
}

package pricing

import "strconv"

// GroupID identifies a customer group
type GroupID int

const (
	// GroupNotLoggedIn is the default group, also used when group pricing is disabled
	GroupNotLoggedIn GroupID = 0
	// GroupAll is the wildcard id used by price records that apply to every group
	GroupAll GroupID = -1
)

// IsWildcard reports whether the id is the all-groups sentinel
func (g GroupID) IsWildcard() bool {
	return g == GroupAll
}

// AttributePrefix returns the index attribute prefix for the group, e.g. "group_1"
func (g GroupID) AttributePrefix() string {
	return "group_" + strconv.Itoa(int(g))
}

// CustomerGroup is a customer segment with potentially distinct pricing
type CustomerGroup struct {
	ID         GroupID
	Code       string
	TaxClassID int64
}

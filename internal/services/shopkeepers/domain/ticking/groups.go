// Package ticking spreads periodic shopkeeper work over scheduler pulses.
// Each shopkeeper belongs to one of a fixed number of groups and every pulse
// ticks a single group, cycling through the groups round robin.
package ticking

// DefaultGroups is the default number of ticking groups.
const DefaultGroups = 4

// GroupCounter assigns groups from a monotonically increasing counter.
type GroupCounter struct {
	groups int
	next   uint64
}

// NewGroupCounter builds a counter for groups groups. Non-positive counts use
// DefaultGroups.
func NewGroupCounter(groups int) *GroupCounter {
	if groups <= 0 {
		groups = DefaultGroups
	}
	return &GroupCounter{groups: groups}
}

// Groups returns the number of groups.
func (c *GroupCounter) Groups() int { return c.groups }

// NextGroup returns the group of the next shopkeeper.
func (c *GroupCounter) NextGroup() int {
	group := int(c.next % uint64(c.groups))
	c.next++
	return group
}

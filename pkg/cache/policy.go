package cache

// Policy decides which way of a set to evict and observes every access so
// it can maintain its recency metadata. Implementations are constant-time
// and allocation-free after construction; every access that reaches a line
// ends in exactly one OnHit or OnFill call.
type Policy interface {
	// ChooseVictim returns the way to evict from the given set. Called
	// only when every way of the set is valid.
	ChooseVictim(set uint32) uint32

	// OnHit records an access to a resident line.
	OnHit(set, way uint32)

	// OnFill records that a line was just filled into the given way.
	OnFill(set, way uint32)

	// Name is the label used in the statistics report.
	Name() string
}

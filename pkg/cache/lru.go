package cache

// lru is exact least-recently-used replacement. Each set keeps one age per
// way; the ages of a set are a permutation of {0..Ways-1} at all times,
// with 0 the most recently used way and Ways-1 the victim.
type lru struct {
	age [SetCount][Ways]uint8
}

// NewLRU returns a true-LRU replacement policy.
func NewLRU() Policy {
	p := &lru{}
	for set := range p.age {
		for way := range p.age[set] {
			p.age[set][way] = uint8(way)
		}
	}
	return p
}

func (p *lru) Name() string { return "LRU" }

func (p *lru) ChooseVictim(set uint32) uint32 {
	victim := uint32(0)
	maxAge := p.age[set][0]
	for way := uint32(1); way < Ways; way++ {
		if p.age[set][way] > maxAge {
			maxAge = p.age[set][way]
			victim = way
		}
	}
	return victim
}

// touch moves way to the front: every way younger than it ages by one,
// which keeps the ages a permutation.
func (p *lru) touch(set, way uint32) {
	old := p.age[set][way]
	for w := uint32(0); w < Ways; w++ {
		if p.age[set][w] < old {
			p.age[set][w]++
		}
	}
	p.age[set][way] = 0
}

func (p *lru) OnHit(set, way uint32)  { p.touch(set, way) }
func (p *lru) OnFill(set, way uint32) { p.touch(set, way) }

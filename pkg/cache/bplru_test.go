package cache

import "testing"

func TestTreeLRUInitialVictim(t *testing.T) {
	p := NewTreeLRU().(*treeLRU)
	for set := uint32(0); set < SetCount; set++ {
		if got := p.ChooseVictim(set); got != 0 {
			t.Fatalf("set %d: initial victim = %d, want 0", set, got)
		}
	}
}

func TestTreeLRUTouchFlipsPath(t *testing.T) {
	p := NewTreeLRU().(*treeLRU)
	const set = 0

	tests := []struct {
		touch      uint32
		wantVictim uint32
	}{
		// Touch way 0: root points right, left bit points to way 1.
		{0, 2},
		// Touch way 2: root points left, right bit points to way 3;
		// left bit still points to way 1 from the previous step.
		{2, 1},
		// Touch way 1: root points right again; right bit unchanged.
		{1, 3},
		// Touch way 3: root points left, left bit points to way 0.
		{3, 0},
	}
	for i, tc := range tests {
		p.OnHit(set, tc.touch)
		if got := p.ChooseVictim(set); got != tc.wantVictim {
			t.Fatalf("step %d: touch %d -> victim %d, want %d (bits %03b)",
				i, tc.touch, got, tc.wantVictim, p.bits[set])
		}
	}
}

func TestTreeLRUOppositeSubtreeUntouched(t *testing.T) {
	p := NewTreeLRU().(*treeLRU)
	const set = 2

	// Point the right subtree's bit at way 3.
	p.OnHit(set, 2)
	rightBefore := p.bits[set] & treeRight

	// Touches inside the left subtree must not disturb it.
	p.OnHit(set, 0)
	p.OnHit(set, 1)
	if p.bits[set]&treeRight != rightBefore {
		t.Errorf("right subtree bit changed by left-side touches")
	}
}

func TestTreeLRUFillSequence(t *testing.T) {
	p := NewTreeLRU().(*treeLRU)
	const set = 9

	// Fills behave exactly like hits: warm the set 0,1,2,3 and check the
	// victim after each step against the tree rule.
	wantAfter := []uint32{2, 2, 0, 0}
	for way := uint32(0); way < Ways; way++ {
		p.OnFill(set, way)
		if got := p.ChooseVictim(set); got != wantAfter[way] {
			t.Fatalf("after fill %d: victim = %d, want %d", way, got, wantAfter[way])
		}
	}
}

func TestTreeLRUDivergesFromLRU(t *testing.T) {
	// Same warm-up on both policies, then one revisit: true LRU and the
	// tree approximation may disagree on the next victim. This pins the
	// concrete divergence for the 0,1,2,3 + touch(0) trace.
	l := NewLRU().(*lru)
	bp := NewTreeLRU().(*treeLRU)
	const set = 0

	for way := uint32(0); way < Ways; way++ {
		l.OnFill(set, way)
		bp.OnFill(set, way)
	}
	l.OnHit(set, 0)
	bp.OnHit(set, 0)

	if got := l.ChooseVictim(set); got != 1 {
		t.Errorf("LRU victim = %d, want 1", got)
	}
	if got := bp.ChooseVictim(set); got != 2 {
		t.Errorf("bpLRU victim = %d, want 2", got)
	}
}

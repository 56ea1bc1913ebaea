package battle

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// seqRNG replays fixed draws.
type seqRNG struct {
	draws []int
	i     int
}

func (s *seqRNG) Intn(n int) int {
	v := s.draws[s.i%len(s.draws)] % n
	s.i++
	return v
}

func TestDamage_VarianceRange(t *testing.T) {
	rng := &seqRNG{draws: []int{0, 1, 2, 3, 4}}
	var got []int
	for i := 0; i < 5; i++ {
		got = append(got, Damage(rng, 20, 5))
	}
	assert.Equal(t, []int{13, 14, 15, 16, 17}, got)
}

func TestDamage_FloorOfOne(t *testing.T) {
	rng := &seqRNG{draws: []int{4}}
	assert.Equal(t, 1, Damage(rng, 5, 50))
	assert.Equal(t, 1, Damage(&seqRNG{draws: []int{0}}, 10, 9))
}

func TestDamage_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		atk := rapid.IntRange(0, 500).Draw(t, "atk")
		def := rapid.IntRange(0, 500).Draw(t, "def")
		seed := rapid.Int64().Draw(t, "seed")

		d := Damage(rand.New(rand.NewSource(seed)), atk, def)
		if d < 1 {
			t.Fatalf("damage %d below floor", d)
		}
		base := atk - def
		if base-Variance >= 1 && (d < base-Variance || d > base+Variance) {
			t.Fatalf("damage %d outside [%d,%d]", d, base-Variance, base+Variance)
		}
		if base+Variance < 1 && d != 1 {
			t.Fatalf("damage %d, want floor 1", d)
		}
	})
}

func TestLockedRand_DefaultsSeed(t *testing.T) {
	r := newLockedRand(nil)
	for i := 0; i < 50; i++ {
		v := r.Intn(5)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 5)
	}
}

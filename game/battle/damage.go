package battle

import (
	"math/rand"
	"sync"
	"time"
)

// Variance bounds the random adjustment added to every hit: an integer drawn
// uniformly from [-Variance, +Variance].
const Variance = 2

// RNG is the randomness source of the engine. *rand.Rand satisfies it.
type RNG interface {
	Intn(n int) int
}

// Damage computes one hit: attack minus defense plus variance, never below 1.
func Damage(rng RNG, attack, defense int) int {
	v := rng.Intn(2*Variance+1) - Variance
	d := attack - defense + v
	if d < 1 {
		d = 1
	}
	return d
}

// lockedRand makes a *rand.Rand safe for concurrent requests.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(r *rand.Rand) *lockedRand {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &lockedRand{r: r}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

package game

import (
	"math/rand"
	"sync"
	"time"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

var palette = []string{
	"#8e44ad", // purple
	"#2980b9", // blue
	"#27ae60", // green
	"#d35400", // orange
	"#c0392b", // red
	"#16a085", // teal
	"#f39c12", // yellow
	"#7f8c8d", // gray
}

type randomizer interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// lockedRand makes a seeded *rand.Rand safe for use from several room goroutines.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}

func defaultRand() *lockedRand { return newLockedRand(time.Now().UnixNano()) }

func randomCode(rnd randomizer) string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rnd.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// Colors may repeat inside a room.
func randomColor(rnd randomizer) string {
	return palette[rnd.Intn(len(palette))]
}

// Package dice produces six-sided die rolls.
package dice

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"sync"
)

const Sides = 6

// Roller rolls count six-sided dice.
type Roller interface {
	Roll(count int) ([]int, error)
}

// CryptoRoller draws from crypto/rand. It is the roller used in play.
type CryptoRoller struct{}

func NewCryptoRoller() *CryptoRoller {
	return &CryptoRoller{}
}

func (CryptoRoller) Roll(count int) ([]int, error) {
	if count <= 0 {
		return nil, fmt.Errorf("dice: invalid count %d", count)
	}
	out := make([]int, count)
	max := big.NewInt(Sides)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return nil, fmt.Errorf("dice: read random: %w", err)
		}
		out[i] = int(n.Int64()) + 1
	}
	return out, nil
}

// SeededRoller is deterministic for a given seed. Safe for concurrent use.
type SeededRoller struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

func NewSeededRoller(seed int64) *SeededRoller {
	return &SeededRoller{rng: mrand.New(mrand.NewSource(seed))}
}

func (r *SeededRoller) Roll(count int) ([]int, error) {
	if count <= 0 {
		return nil, fmt.Errorf("dice: invalid count %d", count)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, count)
	for i := range out {
		out[i] = r.rng.Intn(Sides) + 1
	}
	return out, nil
}

// FixedRoller replays a scripted sequence of rolls, then repeats the last one.
type FixedRoller struct {
	mu    sync.Mutex
	rolls [][]int
	next  int
}

func NewFixedRoller(rolls ...[]int) *FixedRoller {
	return &FixedRoller{rolls: rolls}
}

func (r *FixedRoller) Roll(count int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rolls) == 0 {
		return nil, fmt.Errorf("dice: no scripted rolls")
	}
	i := r.next
	if i >= len(r.rolls) {
		i = len(r.rolls) - 1
	} else {
		r.next++
	}
	roll := r.rolls[i]
	if len(roll) != count {
		return nil, fmt.Errorf("dice: scripted roll %v does not have %d dice", roll, count)
	}
	return append([]int(nil), roll...), nil
}

// Total sums a roll.
func Total(roll []int) int {
	total := 0
	for _, d := range roll {
		total += d
	}
	return total
}

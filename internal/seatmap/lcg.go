package seatmap

// Source is the pseudo-random sequence seat generation draws from. It must be
// deterministic for a given seed.
type Source interface {
	// Intn returns a value in [0, n).
	Intn(n int) int
}

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// LCG is a linear-congruential generator with a full period of lcgModulus.
type LCG struct {
	state int
}

func NewLCG(seed int) *LCG {
	state := seed % lcgModulus
	if state < 0 {
		state += lcgModulus
	}

	return &LCG{state: state}
}

func (l *LCG) Intn(n int) int {
	if n <= 0 {
		return 0
	}

	l.state = (l.state*lcgMultiplier + lcgIncrement) % lcgModulus

	// floor(state*n/m) split on n = q*m + r, so no product exceeds n or m*m.
	q, r := n/lcgModulus, n%lcgModulus
	return l.state*q + l.state*r/lcgModulus
}

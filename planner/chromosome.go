package planner

import (
	"math"
	"math/rand"
)

// Bit widths below minBits lose too much resolution for the curve family;
// above maxBits the integer no longer fits a float64 mantissa.
const (
	minBits = 8
	maxBits = 52
)

// Chromosome is a fixed-length bit string, one byte per bit.
type Chromosome []uint8

// Clone returns an independent copy.
func (c Chromosome) Clone() Chromosome {
	out := make(Chromosome, len(c))
	copy(out, c)
	return out
}

// BitsFor returns the number of bits needed to cover r at the given precision.
func BitsFor(r Range, precision float64) int {
	span := r.Span()
	if span <= 0 || precision <= 0 {
		return minBits
	}
	n := int(math.Ceil(math.Log2(span / precision)))
	if n < minBits {
		n = minBits
	}
	if n > maxBits {
		n = maxBits
	}
	return n
}

// Encode writes v as MSB-first bits quantised over r into dst.
// v is clamped to r first.
func Encode(dst Chromosome, v float64, r Range) {
	bits := len(dst)
	maxInt := uint64(1)<<uint(bits) - 1
	var norm float64
	if span := r.Span(); span > 0 {
		norm = (r.Clamp(v) - r.Min) / span
	}
	n := uint64(norm * float64(maxInt))
	for i := 0; i < bits; i++ {
		dst[i] = uint8(n >> uint(bits-1-i) & 1)
	}
}

// Decode reads src as an MSB-first integer mapped linearly onto r.
func Decode(src Chromosome, r Range) float64 {
	bits := len(src)
	if bits == 0 {
		return r.Min
	}
	var n uint64
	for _, b := range src {
		n = n<<1 | uint64(b&1)
	}
	maxInt := uint64(1)<<uint(bits) - 1
	if maxInt == 0 || r.Span() == 0 {
		return r.Min
	}
	return r.Min + float64(n)/float64(maxInt)*r.Span()
}

// Layout describes where each gene sits in a chromosome. The trailing bit
// always holds the direction; forced policies ignore it when decoding.
type Layout struct {
	K0Bits   int
	K1Bits   int
	K0, K1   Range
	totalLen int
}

// NewLayout sizes a chromosome for the settings.
func NewLayout(s Settings) Layout {
	l := Layout{
		K0Bits: BitsFor(s.K0Range, s.Precision),
		K1Bits: BitsFor(s.K1Range, s.Precision),
		K0:     s.K0Range,
		K1:     s.K1Range,
	}
	l.totalLen = l.K0Bits + l.K1Bits + 1
	return l
}

// Len is the chromosome length.
func (l Layout) Len() int { return l.totalLen }

// Encode packs a candidate into a new chromosome.
func (l Layout) Encode(k0, k1 float64, dirBit uint8) Chromosome {
	c := make(Chromosome, l.totalLen)
	Encode(c[:l.K0Bits], k0, l.K0)
	Encode(c[l.K0Bits:l.K0Bits+l.K1Bits], k1, l.K1)
	c[l.totalLen-1] = dirBit & 1
	return c
}

// Decode unpacks k0 and k1 and the raw direction bit.
func (l Layout) Decode(c Chromosome) (k0, k1 float64, dirBit uint8) {
	k0 = Decode(c[:l.K0Bits], l.K0)
	k1 = Decode(c[l.K0Bits:l.K0Bits+l.K1Bits], l.K1)
	return k0, k1, c[l.totalLen-1] & 1
}

// Random draws a uniformly distributed candidate.
func (l Layout) Random(rng *rand.Rand) Chromosome {
	k0 := l.K0.Min + rng.Float64()*l.K0.Span()
	k1 := l.K1.Min + rng.Float64()*l.K1.Span()
	return l.Encode(k0, k1, uint8(rng.Intn(2)))
}

package exhaustive

import (
	"errors"
	"math"
)

// ErrSearchSpaceTooLarge is returned when the number of assignments does not
// fit in 64 bits.
var ErrSearchSpaceTooLarge = errors.New(
	"exhaustive: search space exceeds 2^64 assignments")

// An Enumerator walks all vectors of length slots whose entries are in
// [0, radix), in lexicographic order: the last slot changes fastest. Any
// vector can also be decoded directly from its index, so ranges can be
// handed to different workers.
type Enumerator struct {
	radix int
	slots int
	total uint64
	next  uint64
	cur   []int
}

// NewEnumerator creates an enumerator over radix^slots vectors.
func NewEnumerator(radix, slots int) (*Enumerator, error) {
	if radix < 1 {
		return nil, errors.New("exhaustive: radix must be at least 1")
	}

	total := uint64(1)
	for i := 0; i < slots; i++ {
		if total > math.MaxUint64/uint64(radix) {
			return nil, ErrSearchSpaceTooLarge
		}

		total *= uint64(radix)
	}

	return &Enumerator{
		radix: radix,
		slots: slots,
		total: total,
		cur:   make([]int, slots),
	}, nil
}

// Total returns the number of vectors.
func (e *Enumerator) Total() uint64 {
	return e.total
}

// Slots returns the vector length.
func (e *Enumerator) Slots() int {
	return e.slots
}

// Decode writes the vector with the given index into dst.
func (e *Enumerator) Decode(index uint64, dst []int) {
	if index >= e.total {
		panic("exhaustive: index out of range")
	}

	r := uint64(e.radix)
	for i := e.slots - 1; i >= 0; i-- {
		dst[i] = int(index % r)
		index /= r
	}
}

// Advance moves vec to its successor in place. It returns false when vec was
// the last vector.
func (e *Enumerator) Advance(vec []int) bool {
	for i := e.slots - 1; i >= 0; i-- {
		vec[i]++
		if vec[i] < e.radix {
			return true
		}

		vec[i] = 0
	}

	return false
}

// Next returns the next vector and its index, or false when all vectors have
// been produced. The returned slice is reused by the following call.
func (e *Enumerator) Next() ([]int, uint64, bool) {
	if e.next >= e.total {
		return nil, 0, false
	}

	index := e.next
	if index == 0 {
		clear(e.cur)
	} else {
		e.Advance(e.cur)
	}

	e.next++

	return e.cur, index, true
}

// Reset restarts Next from the first vector.
func (e *Enumerator) Reset() {
	e.next = 0
}

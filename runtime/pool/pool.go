// Package pool maintains sync.Pools of byte buffers with power-of-two
// capacities. The codec Encoder borrows its coalescing buffer here so that
// encoding small messages in a loop does not allocate.
package pool

import (
	"sync"

	"github.com/kanengo/podgen/internal/umath"
)

const maxPooledSize = 1 << 20

var pow2Pools map[int]*sync.Pool

func init() {
	pow2Pools = make(map[int]*sync.Pool, 21)
	for n := 1; n <= maxPooledSize; n *= 2 {
		pow2Pools[n] = &sync.Pool{New: func() any {
			s := make([]byte, 0, n)
			return &s
		}}
	}
}

// GetBytes returns an empty buffer whose capacity is the smallest power of
// two covering size. Buffers larger than the pooled maximum are allocated
// directly and FreeBytes drops them.
func GetBytes(size int) *[]byte {
	n := umath.NextPowerOfTwo(size)
	p, ok := pow2Pools[n]
	if !ok {
		s := make([]byte, 0, n)
		return &s
	}
	return p.Get().(*[]byte)
}

// FreeBytes returns a buffer obtained from GetBytes. Buffers whose
// capacity is no longer an exact pooled size (e.g. after append regrew
// them past the pooled maximum) are dropped.
func FreeBytes(b *[]byte) {
	if b == nil {
		return
	}
	c := cap(*b)
	p, ok := pow2Pools[c]
	if !ok {
		return
	}
	*b = (*b)[:0]
	p.Put(b)
}

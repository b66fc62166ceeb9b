package comm

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

type Mode uint8

const (
	Insert Mode = iota // received values replace local values
	Add                // received values are summed into local values
)

func (m Mode) String() string {
	switch m {
	case Insert:
		return "Insert"
	case Add:
		return "Add"
	}
	return "Mode(?)"
}

// Buffer is anything whose per-block values can take part in a halo exchange:
// Size blocks of Stride values each
type Buffer interface {
	Size() int
	Stride() int
	Pack(indices []int) []byte
	Unpack(data []byte, indices []int, mode Mode) error
}

type Number interface {
	~int32 | ~int64 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// SliceBuffer adapts a flat slice holding Size()*Stride() values. A borrowed
// buffer writes through to the caller's slice, an owned one allocates its own.
type SliceBuffer[T Number] struct {
	data    []T
	stride  int
	owned   bool
	scratch []T
}

// Borrow wraps caller memory, e.g. Vector.Raw()
func Borrow[T Number](data []T, stride int) *SliceBuffer[T] {
	if stride < 1 || len(data)%stride != 0 {
		panic(errors.Newf("slice of length %d does not hold whole blocks of %d", len(data), stride))
	}
	return &SliceBuffer[T]{data: data, stride: stride}
}

func NewSliceBuffer[T Number](size, stride int) *SliceBuffer[T] {
	sb := Borrow(make([]T, size*stride), stride)
	sb.owned = true
	return sb
}

func (sb *SliceBuffer[T]) Size() int     { return len(sb.data) / sb.stride }
func (sb *SliceBuffer[T]) Stride() int   { return sb.stride }
func (sb *SliceBuffer[T]) Data() []T     { return sb.data }
func (sb *SliceBuffer[T]) IsOwned() bool { return sb.owned }

// Pack serializes the blocks at indices, little endian, in the order given
func (sb *SliceBuffer[T]) Pack(indices []int) []byte {
	var (
		zero T
		out  = make([]byte, 0, len(indices)*sb.stride*binary.Size(zero))
		err  error
	)
	for _, i := range indices {
		if out, err = binary.Append(out, binary.LittleEndian, sb.data[i*sb.stride:(i+1)*sb.stride]); err != nil {
			panic(err)
		}
	}
	return out
}

func (sb *SliceBuffer[T]) Unpack(data []byte, indices []int, mode Mode) (err error) {
	n := len(indices) * sb.stride
	if cap(sb.scratch) < n {
		sb.scratch = make([]T, n)
	}
	vals := sb.scratch[:n]
	if size := binary.Size(vals); size != len(data) {
		return errors.Newf("received %d bytes for %d blocks of %d values, need %d",
			len(data), len(indices), sb.stride, size)
	}
	if _, err = binary.Decode(data, binary.LittleEndian, vals); err != nil {
		return errors.Wrap(err, "unable to decode halo values")
	}
	for ii, i := range indices {
		if i < 0 || i >= sb.Size() {
			return errors.Newf("block %d outside buffer of %d blocks", i, sb.Size())
		}
		dst := sb.data[i*sb.stride : (i+1)*sb.stride]
		src := vals[ii*sb.stride : (ii+1)*sb.stride]
		for k := range dst {
			if mode == Add {
				dst[k] += src[k]
			} else {
				dst[k] = src[k]
			}
		}
	}
	return
}

package timeline

import "fmt"

// Word constrains channel algebra and reinterpretation to the unsigned
// integer widths the store knows how to decompose into bytes.
type Word interface {
	uint8 | uint16 | uint32 | uint64
}

// mergedTimes returns the sorted union of two ascending key slices.
func mergedTimes(a, b []uint64) []uint64 {
	out := make([]uint64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i, j = i+1, j+1
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func checkSameWidth[T Word](a, b *Store[T]) {
	if a.width != b.width {
		panic(fmt.Sprintf("timeline: channel width mismatch (%d vs %d)", a.width, b.width))
	}
}

// combine walks the union of both operands' keys, applying op to the held
// value of each side per channel. A result entry is written only when it
// differs from the result's own held value (initially zero): that keeps
// the output minimal under floor semantics while still recording a
// transition back to zero, which a plain omit-all-zeros rule would lose.
func combine[T Word](a, b *Store[T], op func(T, T) T) *Store[T] {
	checkSameWidth(a, b)
	result := NewStore[T](a.width)
	lastA := make([]T, a.width)
	lastB := make([]T, a.width)
	lastOut := make([]T, a.width)
	for _, time := range mergedTimes(a.times, b.times) {
		arrA := a.snaps[time]
		arrB := b.snaps[time]
		for c := 0; c < a.width; c++ {
			valA := lastA[c]
			if arrA != nil {
				if v, ok := arrA.Get(c); ok {
					valA = v
				}
			}
			valB := lastB[c]
			if arrB != nil {
				if v, ok := arrB.Get(c); ok {
					valB = v
				}
			}
			if out := op(valA, valB); out != lastOut[c] {
				result.Set(time, c, out)
				lastOut[c] = out
			}
			lastA[c] = valA
			lastB[c] = valB
		}
	}
	return result
}

// CombineOr returns a new store holding heldA | heldB at every key present
// in either operand, with entries redundant under floor omitted.
func CombineOr[T Word](a, b *Store[T]) *Store[T] {
	return combine(a, b, func(x, y T) T { return x | y })
}

// CombineAnd returns a new store holding heldA & heldB at every key
// present in either operand, with entries redundant under floor omitted.
func CombineAnd[T Word](a, b *Store[T]) *Store[T] {
	return combine(a, b, func(x, y T) T { return x & y })
}

// CombineXor returns a new store holding heldA ^ heldB at every key
// present in either operand, with entries redundant under floor omitted.
func CombineXor[T Word](a, b *Store[T]) *Store[T] {
	return combine(a, b, func(x, y T) T { return x ^ y })
}

// Complement returns the bitwise complement of the operand's held values
// at the operand's explicit keys only; no keys are synthesized from
// holding. Zero-valued results are omitted.
func Complement[T Word](a *Store[T]) *Store[T] {
	result := NewStore[T](a.width)
	held := make([]T, a.width)
	for _, time := range a.times {
		arr := a.snaps[time]
		for c := 0; c < a.width; c++ {
			val := held[c]
			if v, ok := arr.Get(c); ok {
				val = v
			}
			if out := ^val; out != 0 {
				result.Set(time, c, out)
			}
			held[c] = val
		}
	}
	return result
}

// merge applies op in place on dst under the same redundancy rule as
// combine. Unlike combine it must actively prune: dst may already hold a
// stale entry at a key where the combined value no longer changes the
// held result.
func merge[T Word](dst, src *Store[T], op func(T, T) T) {
	checkSameWidth(dst, src)
	lastDst := make([]T, dst.width)
	lastSrc := make([]T, dst.width)
	lastOut := make([]T, dst.width)
	times := mergedTimes(dst.times, src.times)
	var emptied []uint64
	for _, time := range times {
		arrDst := dst.snaps[time]
		arrSrc := src.snaps[time]
		for c := 0; c < dst.width; c++ {
			valDst := lastDst[c]
			if arrDst != nil {
				if v, ok := arrDst.Get(c); ok {
					valDst = v
				}
			}
			valSrc := lastSrc[c]
			if arrSrc != nil {
				if v, ok := arrSrc.Get(c); ok {
					valSrc = v
				}
			}
			if out := op(valDst, valSrc); out != lastOut[c] {
				if arrDst == nil {
					arrDst = dst.snapshotAt(time)
				}
				arrDst.Set(c, out)
				lastOut[c] = out
			} else if arrDst != nil {
				arrDst.Remove(c)
			}
			lastDst[c] = valDst
			lastSrc[c] = valSrc
		}
		if arrDst != nil && arrDst.CountPresent() == 0 {
			emptied = append(emptied, time)
		}
	}
	for _, time := range emptied {
		dst.dropKey(time)
	}
}

// MergeOr applies dst = dst | src in place.
func MergeOr[T Word](dst, src *Store[T]) {
	merge(dst, src, func(x, y T) T { return x | y })
}

// MergeAnd applies dst = dst & src in place.
func MergeAnd[T Word](dst, src *Store[T]) {
	merge(dst, src, func(x, y T) T { return x & y })
}

// MergeXor applies dst = dst ^ src in place.
func MergeXor[T Word](dst, src *Store[T]) {
	merge(dst, src, func(x, y T) T { return x ^ y })
}

// seqCombine is the single-channel analogue of combine, under the same
// redundancy rule.
func seqCombine[T Word](a, b *Sequence[T], op func(T, T) T) *Sequence[T] {
	result := NewSequence[T]()
	var last T
	for _, time := range mergedTimes(a.times, b.times) {
		if out := op(a.Floor(time), b.Floor(time)); out != last {
			result.Insert(time, out)
			last = out
		}
	}
	return result
}

// SeqOr returns heldA | heldB over the union of keys, redundant entries
// omitted.
func SeqOr[T Word](a, b *Sequence[T]) *Sequence[T] {
	return seqCombine(a, b, func(x, y T) T { return x | y })
}

// SeqAnd returns heldA & heldB over the union of keys, redundant entries
// omitted.
func SeqAnd[T Word](a, b *Sequence[T]) *Sequence[T] {
	return seqCombine(a, b, func(x, y T) T { return x & y })
}

// SeqXor returns heldA ^ heldB over the union of keys, redundant entries
// omitted.
func SeqXor[T Word](a, b *Sequence[T]) *Sequence[T] {
	return seqCombine(a, b, func(x, y T) T { return x ^ y })
}

// SeqNot complements each explicit entry; no keys are synthesized and,
// as with Complement, zero results are omitted.
func SeqNot[T Word](a *Sequence[T]) *Sequence[T] {
	result := NewSequence[T]()
	for time, v := range a.Points() {
		if out := ^v; out != 0 {
			result.Insert(time, out)
		}
	}
	return result
}

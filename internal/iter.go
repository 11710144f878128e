package internal

import (
	"iter"
)

// IterSeqConcat concatenates multiple iterators into a single iterator sequence.
func IterSeqConcat[T any](seqs ...iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, seq := range seqs {
			for val := range seq {
				if !yield(val) {
					return
				}
			}
		}
	}
}

// IterRange yields the integers in [lo, hi). Nothing is yielded when hi <= lo.
func IterRange(lo, hi int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for n := lo; n < hi; n++ {
			if !yield(n) {
				return
			}
		}
	}
}

// IterMap applies fn to each value of seq.
func IterMap[T any, U any](seq iter.Seq[T], fn func(T) U) iter.Seq[U] {
	return func(yield func(U) bool) {
		for val := range seq {
			if !yield(fn(val)) {
				return
			}
		}
	}
}

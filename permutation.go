package main

import (
	"cmp"
	"slices"
)

// BuildPermutation turns a chaotic sequence into a bijection over [0, len(seq)):
// positions are stably sorted by their value and the sorted order of positions
// is the permutation.
//
// This sort is O(N log N) and dominates the cost of a cipher call on large images.
func BuildPermutation(seq []float64) []int {
	perm := make([]int, len(seq))
	for i := range perm {
		perm[i] = i
	}
	slices.SortStableFunc(perm, func(a, b int) int {
		return cmp.Compare(seq[a], seq[b])
	})
	return perm
}

// Gather returns dst with dst[i] = src[perm[i]].
func Gather[T any](src []T, perm []int) []T {
	dst := make([]T, len(perm))
	for i, p := range perm {
		dst[i] = src[p]
	}
	return dst
}

// Scatter returns dst with dst[perm[i]] = src[i]. It undoes Gather.
func Scatter[T any](src []T, perm []int) []T {
	dst := make([]T, len(perm))
	for i, p := range perm {
		dst[p] = src[i]
	}
	return dst
}

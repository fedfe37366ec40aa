package match

// Ratio reports the similarity of two strings as 2*M/T, where T is the
// combined length of both strings and M is the total length of the matching
// blocks found by the Ratcliff/Obershelp recursion: locate the longest
// common substring, then recurse on the pieces to its left and right.
//
// The result is in [0, 1]. Two empty strings are identical (1.0); if only
// one side is empty the result is 0. Comparison is per code point, so
// multi-byte characters count once.
func Ratio(left, right string) float64 {
	a := []rune(left)
	b := []rune(right)
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	matched := matchingRunes(a, b, 0, len(a), 0, len(b))
	return 2.0 * float64(matched) / float64(total)
}

// matchingRunes counts the code points covered by matching blocks within
// a[alo:ahi] and b[blo:bhi].
func matchingRunes(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	n := size
	n += matchingRunes(a, b, alo, i, blo, j)
	n += matchingRunes(a, b, i+size, ahi, j+size, bhi)
	return n
}

// longestMatch finds the longest run of code points common to a[alo:ahi]
// and b[blo:bhi]. Ties prefer the run starting earliest in a, then earliest
// in b, which keeps the recursion deterministic.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (bestI, bestJ, bestSize int) {
	// Index positions of each code point in b's window so the inner loop
	// only visits actual occurrences.
	b2j := make(map[rune][]int, bhi-blo)
	for j := blo; j < bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	bestI, bestJ = alo, blo
	runLen := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for _, j := range b2j[a[i]] {
			k := runLen[j-1] + 1
			next[j] = k
			if k > bestSize {
				bestI, bestJ, bestSize = i-k+1, j-k+1, k
			}
		}
		runLen = next
	}
	return bestI, bestJ, bestSize
}

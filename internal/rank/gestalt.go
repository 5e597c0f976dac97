package rank

// Ratio is the gestalt pattern-matching similarity of two strings in
// [0,1]: twice the total length of all matched blocks over the combined
// length. Blocks are found by locating the longest common contiguous
// run and recursing on the unmatched remainders either side of it, so
// transposed fragments still contribute. Comparison is per rune, so
// accented titles score the same as their single-byte lookalikes would.
// Thresholds elsewhere depend on these exact values.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 0
	}

	m := matchedLength(ra, rb)

	return 2 * float64(m) / float64(len(ra)+len(rb))
}

func matchedLength(a, b []rune) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}

	return size +
		matchedLength(a[:ai], b[:bi]) +
		matchedLength(a[ai+size:], b[bi+size:])
}

// longestCommonBlock finds the longest common contiguous run of runes,
// preferring the earliest start in a, then in b, on ties.
func longestCommonBlock(a, b []rune) (ai, bi, size int) {
	for i := 0; i < len(a); i++ {
		if len(a)-i <= size {
			break
		}

		for j := 0; j < len(b); j++ {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}

			if k > size {
				ai, bi, size = i, j, k
			}
		}
	}

	return ai, bi, size
}

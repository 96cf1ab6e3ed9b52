package value

import "sort"

func sortStrings(s []string) {
	sort.Strings(s)
}

func sortHashes(h [][16]byte) {
	sort.Slice(h, func(i, j int) bool {
		for k := 0; k < 16; k++ {
			if h[i][k] != h[j][k] {
				return h[i][k] < h[j][k]
			}
		}
		return false
	})
}

package match

// WeightedJaccard is sum(weight, a∩b) / sum(weight, a∪b). It is symmetric
// and returns 0 when both sets are empty.
func WeightedJaccard(a, b map[string]struct{}, weight func(string) float64) float64 {
	var inter, union float64
	for t := range a {
		w := weight(t)
		union += w
		if _, ok := b[t]; ok {
			inter += w
		}
	}
	for t := range b {
		if _, ok := a[t]; !ok {
			union += weight(t)
		}
	}
	if union == 0 {
		return 0
	}
	return inter / union
}

// Levenshtein returns the edit distance between a and b, or bound+1 as soon
// as the distance is known to exceed bound. A negative bound disables pruning.
func Levenshtein(a, b string, bound int) int {
	if a == b {
		return 0
	}
	s, t := []rune(a), []rune(b)
	n, m := len(s), len(t)
	if n == 0 || m == 0 {
		return clampDistance(max(n, m), bound)
	}
	if bound >= 0 && abs(n-m) > bound {
		return bound + 1
	}

	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= n; i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= m; j++ {
			cost := 1
			if s[i-1] == t[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if bound >= 0 && rowMin > bound {
			return bound + 1
		}
		prev, curr = curr, prev
	}
	return clampDistance(prev[m], bound)
}

func clampDistance(d, bound int) int {
	if bound >= 0 && d > bound {
		return bound + 1
	}
	return d
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

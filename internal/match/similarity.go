package match

// Trigram similarity over normalized titles, same shape as PostgreSQL's
// pg_trgm: Jaccard coefficient of padded three-character grams.

// trigrams extracts the padded trigram set of a normalized string.
func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	if s == "" {
		return set
	}
	padded := "  " + s + " "
	for i := 0; i+3 <= len(padded); i++ {
		set[padded[i:i+3]] = struct{}{}
	}
	return set
}

// Similarity returns the trigram similarity of two job titles in [0,1].
// Both inputs are normalized first; identical normalized titles score 1.0.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	ta, tb := trigrams(na), trigrams(nb)
	var shared int
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// BestSimilarity returns the highest similarity between title and any of
// the candidates, along with the winning candidate.
func BestSimilarity(title string, candidates []string) (string, float64) {
	var best string
	var bestScore float64
	for _, c := range candidates {
		if s := Similarity(title, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore
}

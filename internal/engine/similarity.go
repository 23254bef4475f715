package engine

import "strings"

// NormalizeDescription lowercases a bank-statement description and collapses
// runs of whitespace so "VIR  SALAIRES" and "vir salaires" share a cache key.
func NormalizeDescription(description string) string {
	return strings.Join(strings.Fields(strings.ToLower(description)), " ")
}

// DescriptionSimilarity computes the Sorensen-Dice coefficient over word
// bigrams of the two normalized descriptions. The result is in [0, 1]: 1 for
// identical token sequences, 0 for no shared bigram. Descriptions shorter
// than two words fall back to exact token comparison.
func DescriptionSimilarity(a, b string) float64 {
	aTokens := strings.Fields(strings.ToLower(a))
	bTokens := strings.Fields(strings.ToLower(b))

	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}

	if len(aTokens) < 2 || len(bTokens) < 2 {
		if strings.Join(aTokens, " ") == strings.Join(bTokens, " ") {
			return 1
		}
		return 0
	}

	aBigrams := wordBigrams(aTokens)
	bBigrams := wordBigrams(bTokens)

	var shared int
	for bigram, count := range aBigrams {
		if other, ok := bBigrams[bigram]; ok {
			shared += min(count, other)
		}
	}

	aTotal := len(aTokens) - 1
	bTotal := len(bTokens) - 1
	return float64(2*shared) / float64(aTotal+bTotal)
}

func wordBigrams(tokens []string) map[string]int {
	bigrams := make(map[string]int, len(tokens)-1)
	for i := 0; i < len(tokens)-1; i++ {
		bigrams[tokens[i]+" "+tokens[i+1]]++
	}
	return bigrams
}

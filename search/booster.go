package search

// DefaultPassageWeight is the standard weight given to the best passage
// score when blending it with the book-level score.
const DefaultPassageWeight = 0.6

// BoostScore combines a book-level score with the best passage-level
// score for the same book:
//
//	boosted = max(bookScore, w*bestPassageScore + (1-w)*bookScore)
//
// The outer max guarantees boosting never lowers a candidate's score,
// so applying the boost can never push a book below its unboosted rank.
func BoostScore(bookScore, bestPassageScore, passageWeight float32) float32 {
	blended := passageWeight*bestPassageScore + (1-passageWeight)*bookScore
	if blended > bookScore {
		return blended
	}
	return bookScore
}

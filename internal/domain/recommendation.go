package domain

// Diagnostic reasons attached to an empty recommendation result. The
// distinction matters to clients: the first means "go favorite something",
// the second means "you're early, nobody overlaps with you yet".
const (
	ReasonNoFavorites      = "need at least one favorite"
	ReasonNoSimilarReaders = "no similar readers yet"
)

// RecommendedBook is one candidate book inside a recommendation group,
// carrying the recommending reader's own note about it when they left one.
type RecommendedBook struct {
	Book        *Book  `json:"book"`
	Explanation string `json:"explanation,omitempty"`
}

// RecommendationGroup collects the candidate books attributed to a single
// similar reader. Shared titles explain why this reader's taste is trusted;
// Books lists what they loved that the target hasn't favorited yet.
//
// Each candidate book appears in exactly one group across a result: the
// group of the strongest-overlap reader who favorited it.
type RecommendationGroup struct {
	NeighborID     string            `json:"neighbor_id"`
	NeighborHandle string            `json:"neighbor_handle"`
	OverlapCount   int               `json:"overlap_count"`
	SharedTitles   []string          `json:"shared_titles"`
	Books          []RecommendedBook `json:"books"`
}

// RecommendationDiagnostic summarizes the result regardless of whether any
// groups were produced.
type RecommendationDiagnostic struct {
	TotalFavorites       int    `json:"total_favorites"`
	SimilarUsersCount    int    `json:"similar_users_count"`
	RecommendationsCount int    `json:"recommendations_count"`
	Reason               string `json:"reason,omitempty"`
}

// Recommendations is the full engine output for one user. Groups are
// ordered strongest overlap first; the diagnostic is always populated.
type Recommendations struct {
	Groups     []RecommendationGroup    `json:"groups"`
	Diagnostic RecommendationDiagnostic `json:"diagnostic"`
}

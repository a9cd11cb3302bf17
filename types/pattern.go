package types

// Pattern is a finding signature recurring across enough accounts in a
// batch to indicate a systemic rather than isolated issue. Created only
// by the pattern detector after a batch completes.
type Pattern struct {
	Signature  string   `json:"signature"`
	Service    string   `json:"service"`
	Title      string   `json:"title"`
	AccountIDs []string `json:"account_ids"`
	Severity   Severity `json:"severity"` // highest observed among contributors
	Count      int      `json:"count"`    // total finding occurrences
}

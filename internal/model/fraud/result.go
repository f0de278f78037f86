package fraud

// Result is the outcome of one scoring call. FraudProbability is always the
// backend-computed score; the explanation provider contributes Reason only.
type Result struct {
	FraudProbability int    `json:"fraud_probability"`
	Reason           string `json:"reason"`
	APIError         bool   `json:"api_error,omitempty"`
	Transcript       string `json:"transcript,omitempty"`
}

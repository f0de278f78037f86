package session

// Policy controls how a transport path accumulates turns: how many recent
// turns to keep, how to join them into scoring input, and whether a new turn
// replaces a prior turn it extends.
type Policy struct {
	Window    int
	Separator string
	Dedupe    bool
}

// PredictPolicy is used by the request/response path.
var PredictPolicy = Policy{Window: 4, Separator: " "}

// StreamPolicy is used by the websocket path. Dedupe handles incremental
// transcripts where each fragment re-sends the corrected previous one.
var StreamPolicy = Policy{Window: 5, Separator: ", ", Dedupe: true}

package types

// Boundary types. Profile axes and mastery cross this boundary on the
// [0,100] scale; graph storage of mastery on [0,1] is internal.

type Profile struct {
	Cognition  int    `json:"cognition"`
	Affect     int    `json:"affect"`
	Behavior   int    `json:"behavior"`
	LastUpdate string `json:"lastUpdate"`
}

type ProfileDelta struct {
	Cognition int `json:"cognition"`
	Affect    int `json:"affect"`
	Behavior  int `json:"behavior"`
}

type ProfileChange struct {
	Dimension Dimension `json:"dimension"`
	Change    int       `json:"change"`
	Timestamp string    `json:"timestamp"`
	Trend     string    `json:"trend"`
}

type EvidenceSpan struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type Evidence struct {
	Spans      []EvidenceSpan `json:"spans"`
	Confidence float64        `json:"confidence"`
}

type Analysis struct {
	Intent           string       `json:"intent"`
	Emotion          string       `json:"emotion"`
	DetectedConcepts []string     `json:"detectedConcepts"`
	Delta            ProfileDelta `json:"delta"`
	Evidence         Evidence     `json:"evidence"`
}

type ContextMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type GraphNode struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Mastery     float64 `json:"mastery"`
	Frequency   int     `json:"frequency"`
	IsFlagged   bool    `json:"isFlagged"`
}

type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type ChatResult struct {
	Message         string    `json:"message"`
	Analysis        Analysis  `json:"analysis"`
	UpdatedProfile  Profile   `json:"updatedProfile"`
	UpdatedConcepts []string  `json:"updatedConcepts"`
}

package snapshot

// Proposal is an off-chain voting record as returned by the hub.
type Proposal struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Choices  []string  `json:"choices"`
	Scores   []float64 `json:"scores"`
	State    string    `json:"state"`
	Start    int64     `json:"start"`
	End      int64     `json:"end"`
	Quorum   float64   `json:"quorum"`
	Snapshot string    `json:"snapshot"`
	Votes    int       `json:"votes"`
	Link     string    `json:"link"`
	Author   string    `json:"author"`
}

const (
	StateActive  = "active"
	StatePending = "pending"
	StateClosed  = "closed"
)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlResponse struct {
	Data struct {
		Proposal  *Proposal  `json:"proposal"`
		Proposals []Proposal `json:"proposals"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

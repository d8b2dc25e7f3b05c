package adjudication

// StageResult is the closed set of results a workflow step can produce.
// Each stage returns exactly one concrete type, letting the decision
// engine and scoring layer switch exhaustively on the kind.
type StageResult interface {
	StageKind() string
}

func (r *EligibilityResult) StageKind() string { return "eligibility" }
func (r *NecessityResult) StageKind() string   { return "necessity" }
func (r *FraudResult) StageKind() string       { return "fraud" }
func (r *FinancialResult) StageKind() string   { return "financial" }
func (d *Decision) StageKind() string          { return "decision" }
func (f *ReviewFindings) StageKind() string    { return "review" }

// ReviewFindings records the outcome of an enhanced or manual clinical
// review step.
type ReviewFindings struct {
	Reviewer string   `json:"reviewer"`
	Outcome  string   `json:"outcome"`
	Notes    []string `json:"notes,omitempty"`
}

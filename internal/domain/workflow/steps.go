package workflow

// Step identifiers.
const (
	stepValidate             = "validate"
	stepEligibility          = "eligibility"
	stepFraud                = "fraud"
	stepNecessity            = "necessity"
	stepFinancial            = "financial"
	stepDecision             = "decision"
	stepGenerateEOB          = "generate-eob"
	stepEnhancedReview       = "enhanced-review"
	stepManualClinicalReview = "manual-clinical-review"
)

type stepDef struct {
	ID          string
	Name        string
	Description string
	Critical    bool
}

var (
	defValidate = stepDef{
		ID: stepValidate, Name: "Validate Claim",
		Description: "Structural validation of the submitted claim", Critical: true,
	}
	defEligibility = stepDef{
		ID: stepEligibility, Name: "Eligibility Check",
		Description: "Coverage, enrollment and network verification", Critical: true,
	}
	defFraud = stepDef{
		ID: stepFraud, Name: "Fraud Risk Analysis",
		Description: "Risk scoring from provider and member signals",
	}
	defNecessity = stepDef{
		ID: stepNecessity, Name: "Medical Necessity Validation",
		Description: "Clinical guideline matching and scoring",
	}
	defFinancial = stepDef{
		ID: stepFinancial, Name: "Financial Calculation",
		Description: "Cost-share breakdown per benefit parameters", Critical: true,
	}
	defDecision = stepDef{
		ID: stepDecision, Name: "Adjudication Decision",
		Description: "Final disposition from stage results", Critical: true,
	}
	defGenerateEOB = stepDef{
		ID: stepGenerateEOB, Name: "Generate EOB",
		Description: "Member-facing explanation of benefits",
	}
	defEnhancedReview = stepDef{
		ID: stepEnhancedReview, Name: "Enhanced Review",
		Description: "Deep review for high-value claims", Critical: true,
	}
	defManualClinicalReview = stepDef{
		ID: stepManualClinicalReview, Name: "Manual Clinical Review",
		Description: "Clinician review of flagged claims",
	}
)

// stepPlans maps each workflow type to its ordered step list. Adding a
// workflow variant means adding a row here, not new control flow.
var stepPlans = map[string][]stepDef{
	TypeStandard: {
		defValidate, defEligibility, defFraud, defNecessity,
		defFinancial, defDecision, defGenerateEOB,
	},
	TypeExpedited: {
		defValidate, defEligibility, defFinancial, defDecision, defGenerateEOB,
	},
	TypeInvestigation: {
		defValidate, defEligibility, defFraud, defNecessity,
		defEnhancedReview, defFinancial, defDecision,
	},
	TypeManualReview: {
		defValidate, defEligibility, defFraud, defNecessity,
		defManualClinicalReview, defFinancial, defDecision, defGenerateEOB,
	},
}

// newSteps builds fresh pending steps for a workflow type.
func newSteps(workflowType string) []*WorkflowStep {
	plan, ok := stepPlans[workflowType]
	if !ok {
		return nil
	}
	steps := make([]*WorkflowStep, 0, len(plan))
	for _, def := range plan {
		steps = append(steps, &WorkflowStep{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Critical:    def.Critical,
			Status:      StepPending,
		})
	}
	return steps
}

// skippableAfterIneligibility lists the steps bypassed once eligibility
// fails; the decision (and EOB for the denial) still run.
var skippableAfterIneligibility = map[string]bool{
	stepFraud:                true,
	stepNecessity:            true,
	stepFinancial:            true,
	stepEnhancedReview:       true,
	stepManualClinicalReview: true,
}

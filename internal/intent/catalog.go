package intent

// DefaultPriority is the tie-break order used when two intents aggregate to
// the same score. Intents not listed rank after these, compliance first.
var DefaultPriority = []ID{
	NDAPrivacy,
	AssignmentBrief,
	AssetsRequest,
	Compensation,
	DataProcessingIP,
	AccessibilityCompliance,
}

var descriptions = map[ID]string{
	Competencies:            "Verification of design craft and process (UX, UI, research, prototyping, accessibility).",
	Leadership:              "Leading and growing teams, mentoring, leadership style.",
	Experience:              "Career history, roles, companies and responsibilities.",
	CaseStudy:               "Deep dive into portfolio projects: trade-offs, metrics, outcomes.",
	ProductSense:            "Product thinking, prioritisation and problem framing.",
	ResearchProcess:         "User research methods, synthesis and validation.",
	DesignSystems:           "Building and governing design systems and component libraries.",
	MetricsExperiments:      "KPIs, A/B tests and measuring impact.",
	StakeholderMgmt:         "Working with stakeholders, alignment and conflict.",
	ToolsAutomation:         "Tools, AI, automation and workflow.",
	SkillVerification:       "Checking a specific skill or seniority claim.",
	DomainExpertise:         "Industry or domain knowledge (fintech, healthcare, B2B).",
	FitAssessment:           "Fit for the role, team or company.",
	Behavioral:              "Behavioural questions about past situations.",
	Availability:            "Start date and notice period.",
	LocationRemote:          "Location, remote or hybrid work.",
	Compensation:            "Salary or band, contract type, equity or bonus.",
	Scheduling:              "Arranging calls and interviews.",
	VisaRelocationTravel:    "Visa, relocation and travel.",
	HiringProcess:           "Recruitment stages and timeline.",
	AssignmentBrief:         "Take-home assignment or design task brief.",
	AssetsRequest:           "Requests for CV, portfolio or other materials.",
	CodeOrDesignFiles:       "Requests for source files, Figma or code.",
	NDAPrivacy:              "Confidentiality, NDA, sensitive data in cases.",
	DataProcessingIP:        "Data processing consent and intellectual property.",
	AccessibilityCompliance: "Accessibility standards and legal compliance (WCAG).",
	Clarification:           "Asking to clarify scope, meaning or context.",
	Smalltalk:               "Greetings and small talk.",
	RapportMeta:             "Questions about this assistant or the conversation itself.",
	CurveballsCreative:      "Unusual or creative curveball questions.",
}

// Describe returns a one-line description of id, or "" for unknown ids.
func Describe(id ID) string {
	return descriptions[id]
}

// priorityRank returns the position of id in priority, or len(priority) when absent.
// Compliance intents missing from the list still outrank everything else absent from it.
func priorityRank(priority []ID, id ID) int {
	for i, p := range priority {
		if p == id {
			return i
		}
	}
	if id.IsCompliance() {
		return len(priority)
	}
	return len(priority) + 1
}

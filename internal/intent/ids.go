// Package intent classifies recruiter questions into a closed taxonomy of
// intents using nearest-neighbour voting over labeled examples.
package intent

import "strings"

// ID is an intent label of the form "family.name".
type ID string

const (
	Competencies       ID = "retrieval_core.competencies"
	Leadership         ID = "retrieval_core.leadership"
	Experience         ID = "retrieval_core.experience"
	CaseStudy          ID = "retrieval_core.case_study"
	ProductSense       ID = "retrieval_core.product_sense"
	ResearchProcess    ID = "retrieval_core.research_process"
	DesignSystems      ID = "retrieval_core.design_systems"
	MetricsExperiments ID = "retrieval_core.metrics_experiments"
	StakeholderMgmt    ID = "retrieval_core.stakeholder_mgmt"
	ToolsAutomation    ID = "retrieval_core.tools_automation"

	SkillVerification ID = "role_fit.skill_verification"
	DomainExpertise   ID = "role_fit.domain_expertise"
	FitAssessment     ID = "role_fit.fit_assessment"
	Behavioral        ID = "role_fit.behavioral"

	Availability         ID = "logistics.availability"
	LocationRemote       ID = "logistics.location_remote"
	Compensation         ID = "logistics.compensation"
	Scheduling           ID = "logistics.scheduling"
	VisaRelocationTravel ID = "logistics.visa_relocation_travel"

	HiringProcess   ID = "process.hiring_process"
	AssignmentBrief ID = "process.assignment_brief"

	AssetsRequest     ID = "assets.assets_request"
	CodeOrDesignFiles ID = "assets.code_or_design_files"

	NDAPrivacy              ID = "compliance.nda_privacy"
	DataProcessingIP        ID = "compliance.data_processing_ip"
	AccessibilityCompliance ID = "compliance.accessibility_compliance"

	Clarification      ID = "conversational.clarification"
	Smalltalk          ID = "conversational.smalltalk"
	RapportMeta        ID = "conversational.rapport_meta"
	CurveballsCreative ID = "conversational.curveballs_creative"
)

var all = []ID{
	Competencies, Leadership, Experience, CaseStudy, ProductSense, ResearchProcess,
	DesignSystems, MetricsExperiments, StakeholderMgmt, ToolsAutomation,
	SkillVerification, DomainExpertise, FitAssessment, Behavioral,
	Availability, LocationRemote, Compensation, Scheduling, VisaRelocationTravel,
	HiringProcess, AssignmentBrief,
	AssetsRequest, CodeOrDesignFiles,
	NDAPrivacy, DataProcessingIP, AccessibilityCompliance,
	Clarification, Smalltalk, RapportMeta, CurveballsCreative,
}

var known = func() map[ID]struct{} {
	m := make(map[ID]struct{}, len(all))
	for _, id := range all {
		m[id] = struct{}{}
	}
	return m
}()

// All returns every intent in taxonomy order.
func All() []ID {
	out := make([]ID, len(all))
	copy(out, all)
	return out
}

// Valid reports whether id belongs to the taxonomy.
func (id ID) Valid() bool {
	_, ok := known[id]
	return ok
}

// Family returns the prefix before the dot, e.g. "compliance".
func (id ID) Family() string {
	family, _, _ := strings.Cut(string(id), ".")
	return family
}

// IsRetrieval reports whether answering id should draw on the knowledge base.
func (id ID) IsRetrieval() bool {
	f := id.Family()
	return f == "retrieval_core" || f == "role_fit"
}

// IsCompliance reports whether id is in the compliance family.
func (id ID) IsCompliance() bool {
	return id.Family() == "compliance"
}

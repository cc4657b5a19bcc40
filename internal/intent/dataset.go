package intent

// Example is one labeled utterance.
type Example struct {
	Intent ID     `json:"intent"`
	Text   string `json:"text"`
}

// DefaultExamples returns the bilingual seed dataset.
func DefaultExamples() []Example {
	out := make([]Example, len(seedExamples))
	copy(out, seedExamples)
	return out
}

var seedExamples = []Example{
	{Competencies, "Jak definiujesz problem projektowy?"},
	{Competencies, "How do you structure a rapid usability test under time pressure?"},
	{Competencies, "Jak zapewniasz dostępność (WCAG) w codziennej pracy?"},
	{Leadership, "What is your leadership style?"},
	{Leadership, "How do you mentor junior designers on your team?"},
	{Leadership, "Jak budujesz i rozwijasz zespół projektowy?"},
	{Experience, "Walk me through your career so far."},
	{Experience, "Gdzie pracowałeś wcześniej i za co odpowiadałeś?"},
	{CaseStudy, "Który projekt w portfolio najlepiej pokazuje Twoje umiejętności i dlaczego?"},
	{CaseStudy, "Jak mierzyłeś sukces projektu i jakie były wyniki?"},
	{CaseStudy, "Describe the hardest trade-off you made in this case."},
	{ProductSense, "How do you decide what to build next?"},
	{ProductSense, "Jak priorytetyzujesz backlog funkcji?"},
	{ResearchProcess, "How do you plan and run user interviews?"},
	{ResearchProcess, "Jak syntetyzujesz wyniki badań z użytkownikami?"},
	{DesignSystems, "Have you built a design system from scratch?"},
	{DesignSystems, "How do you govern component libraries and design tokens?"},
	{MetricsExperiments, "Which metrics did you move and how did you run A/B tests?"},
	{MetricsExperiments, "Jak mierzysz wpływ zmian w produkcie?"},
	{StakeholderMgmt, "How do you handle disagreements with stakeholders?"},
	{StakeholderMgmt, "Jak przekonujesz interesariuszy do swoich decyzji?"},
	{ToolsAutomation, "Which tools do you use day to day, and do you use AI in your workflow?"},
	{ToolsAutomation, "Czy automatyzujesz swoją pracę, np. skryptami lub LLM?"},
	{SkillVerification, "Can you actually code front-end or only prototype?"},
	{SkillVerification, "Are you senior enough to own the whole design process?"},
	{DomainExpertise, "Do you have experience in fintech or banking?"},
	{DomainExpertise, "Czy pracowałeś w branży medycznej?"},
	{FitAssessment, "Why do you think you are a good fit for this role?"},
	{FitAssessment, "Dlaczego chcesz pracować właśnie u nas?"},
	{Behavioral, "Tell me about a time you failed and what you learned."},
	{Behavioral, "Opowiedz o sytuacji, w której musiałeś szybko zmienić plan."},
	{Availability, "When could you start?"},
	{Availability, "Jaki masz okres wypowiedzenia?"},
	{LocationRemote, "Are you open to hybrid work or only remote?"},
	{LocationRemote, "Gdzie mieszkasz i czy możesz pracować z biura?"},
	{Compensation, "Jakie masz oczekiwania finansowe?"},
	{Compensation, "What range are you targeting?"},
	{Compensation, "B2B czy UoP, co preferujesz i dlaczego?"},
	{Scheduling, "Can we schedule a call next week?"},
	{Scheduling, "Kiedy masz czas na rozmowę?"},
	{VisaRelocationTravel, "Would you relocate, and do you need a visa?"},
	{VisaRelocationTravel, "Czy możesz podróżować służbowo?"},
	{HiringProcess, "What does your ideal recruitment process look like?"},
	{HiringProcess, "Ile etapów rekrutacji jest dla Ciebie akceptowalne?"},
	{AssignmentBrief, "Would you do a take-home design assignment?"},
	{AssignmentBrief, "Czy zrobisz zadanie rekrutacyjne?"},
	{AssetsRequest, "Can you send me your CV and portfolio?"},
	{AssetsRequest, "Możesz przesłać swoje CV?"},
	{CodeOrDesignFiles, "Can I see the Figma files for this project?"},
	{CodeOrDesignFiles, "Czy możesz udostępnić kod źródłowy?"},
	{NDAPrivacy, "Czy podpiszemy NDA przed zagłębieniem w case?"},
	{NDAPrivacy, "Does your case reveal any confidential data?"},
	{NDAPrivacy, "Jak anonimizujesz materiały w portfolio?"},
	{DataProcessingIP, "Who owns the intellectual property of your side projects?"},
	{DataProcessingIP, "Czy zgadzasz się na przetwarzanie danych osobowych?"},
	{AccessibilityCompliance, "Do your designs meet WCAG 2.1 AA requirements?"},
	{AccessibilityCompliance, "Jak zapewniasz zgodność z European Accessibility Act?"},
	{Clarification, "Możesz doprecyzować pytanie?"},
	{Clarification, "What do you mean by 'impact'?"},
	{Clarification, "Czy chodzi o projekt X czy Y?"},
	{Smalltalk, "Hi, how are you today?"},
	{Smalltalk, "Cześć, miłego dnia!"},
	{RapportMeta, "Are you a bot? How does this assistant work?"},
	{RapportMeta, "Skąd bierzesz te odpowiedzi?"},
	{CurveballsCreative, "If you were an animal, which one would you be?"},
	{CurveballsCreative, "Jak zaprojektowałbyś windę dla kosmitów?"},
}

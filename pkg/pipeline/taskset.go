package pipeline

// SetID selects one of the built-in task sets.
type SetID string

const (
	SetFull      SetID = "full"
	SetQuick     SetID = "quick"
	SetEmergency SetID = "emergency"
)

func defaultRoles() map[string]Role {
	return map[string]Role{
		"market_research_analyst": {
			Name:      "Market Research Analyst",
			Goal:      "Provide quick, focused market analysis with key insights",
			Backstory: "You are an efficient market research analyst who provides concise, actionable insights. You focus on the most important market data and avoid lengthy explanations.",
		},
		"technology_expert": {
			Name:      "Technology Expert",
			Goal:      "Assess technical feasibility with practical recommendations",
			Backstory: "You are a practical technology expert who focuses on implementable solutions. You provide clear technical assessments without unnecessary complexity.",
		},
		"business_consultant": {
			Name:      "Business Consultant",
			Goal:      "Create actionable business strategies and launch plans",
			Backstory: "You are a results-oriented business consultant who creates practical, implementable business strategies. You focus on clear action items and realistic timelines.",
		},
	}
}

// BuiltinTaskSet returns one of the built-in task sets. The full and quick
// sets use the search tool; the emergency set is deliberately tool-free so it
// cannot be taken down by search failures.
func BuiltinTaskSet(id SetID) *TaskSet {
	switch id {
	case SetQuick:
		return quickTaskSet()
	case SetEmergency:
		return emergencyTaskSet()
	default:
		return fullTaskSet()
	}
}

func fullTaskSet() *TaskSet {
	return &TaskSet{
		Name:  string(SetFull),
		Roles: defaultRoles(),
		Tasks: []*Task{
			{
				ID:   "market_analysis",
				Role: "market_research_analyst",
				Description: `Conduct a rapid market analysis for {{.Product}}.
Focus ONLY on essential information.

Provide exactly these 5 points (keep each under 2 sentences):
1. Primary target customer (age, income, behavior)
2. Market size estimate (global/regional)
3. Top 3 direct competitors
4. Best marketing channel (online/offline/hybrid)
5. Suggested price range

Total response: Maximum 300 words. Be direct and specific.`,
				ExpectedOutput: "5-point market analysis covering target customers, market size, competitors, marketing channel, and pricing (max 300 words).",
				UsesSearch:     true,
			},
			{
				ID:   "technical_assessment",
				Role: "technology_expert",
				Description: `Provide a basic technical assessment for {{.Product}}.
Focus on practical implementation only.

Cover exactly these 4 areas (2 sentences each):
1. Manufacturing method (how it's made)
2. Key equipment needed
3. Main quality control point
4. Biggest technical challenge

Total response: Maximum 250 words. Focus on practicality.`,
				ExpectedOutput: "4-point technical assessment covering manufacturing, equipment, quality control, and challenges (max 250 words).",
				UsesSearch:     true,
			},
			{
				ID:   "business_strategy",
				Role: "business_consultant",
				Description: `Create a focused business strategy for {{.Product}} using the previous analyses.

Provide exactly these 6 elements (keep each concise):
1. Business model (B2B/B2C/subscription/one-time)
2. Primary revenue stream
3. Launch timeline (3-6-12 months)
4. Success metric (1 key KPI)
5. Biggest risk
6. Initial funding estimate

Total response: Maximum 350 words. Be actionable and realistic.`,
				ExpectedOutput: "6-point business strategy with model, revenue, timeline, metrics, risks, and funding (max 350 words).",
				DependsOn:      []string{"market_analysis", "technical_assessment"},
				UsesSearch:     true,
			},
		},
	}
}

// quickTaskSet keeps the full task definitions but tightens the expected
// outputs; the strategy's shorter time budget does the rest.
func quickTaskSet() *TaskSet {
	set := fullTaskSet()
	set.Name = string(SetQuick)
	for _, task := range set.Tasks {
		task.ExpectedOutput = "Essential insights only, as short as the format allows."
	}
	return set
}

func emergencyTaskSet() *TaskSet {
	return &TaskSet{
		Name:  string(SetEmergency),
		Roles: defaultRoles(),
		Tasks: []*Task{
			{
				ID:   "market_analysis",
				Role: "market_research_analyst",
				Description: `Quick analysis: Who would buy {{.Product}} and why?
Answer in exactly 3 sentences. No research needed if obvious.`,
				ExpectedOutput: "3-sentence customer analysis.",
			},
			{
				ID:   "technical_assessment",
				Role: "technology_expert",
				Description: `Simple question: How difficult is it to make {{.Product}}?
Answer in exactly 2 sentences.`,
				ExpectedOutput: "2-sentence technical difficulty assessment.",
			},
			{
				ID:   "business_strategy",
				Role: "business_consultant",
				Description: `Basic business plan: How would you sell {{.Product}}?
Answer in exactly 4 sentences covering: how to sell, pricing, timeline, main challenge.`,
				ExpectedOutput: "4-sentence basic business plan.",
				DependsOn:      []string{"market_analysis", "technical_assessment"},
			},
		},
	}
}

package chat

import "regexp"

// Intent is the handler a chat message is routed to.
type Intent int

const (
	IntentGeneral Intent = iota
	IntentUpload
	IntentBuildCustomerApp
	IntentAddFeature
	IntentRefineUI
	IntentGenerate
	IntentAnalyze
	IntentList
	IntentHelp
)

var intentNames = map[Intent]string{
	IntentGeneral:          "general",
	IntentUpload:           "upload",
	IntentBuildCustomerApp: "build_customer_app",
	IntentAddFeature:       "add_feature",
	IntentRefineUI:         "refine_ui",
	IntentGenerate:         "generate",
	IntentAnalyze:          "analyze",
	IntentList:             "list",
	IntentHelp:             "help",
}

func (i Intent) String() string {
	if n, ok := intentNames[i]; ok {
		return n
	}
	return "unknown"
}

type rule struct {
	intent    Intent
	pattern   *regexp.Regexp
	needsSpec bool
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{IntentUpload, regexp.MustCompile(`upload|add|paste|spec|openapi|swagger|https?://`), false},
	{IntentBuildCustomerApp, regexp.MustCompile(`build.*dashboard|build.*for customers|build.*beautiful|create.*ui|make.*frontend`), true},
	{IntentAddFeature, regexp.MustCompile(`add.*feature|add.*search|add.*filter|add.*cart|add.*auth`), false},
	{IntentRefineUI, regexp.MustCompile(`make.*more|add.*to|change.*color|refine|improve|update|modify`), false},
	{IntentGenerate, regexp.MustCompile(`generate|create|build|make.*app|code`), false},
	{IntentAnalyze, regexp.MustCompile(`analyze|examine|check|review|inspect`), false},
	{IntentList, regexp.MustCompile(`list|show.*all|what.*have|display|endpoints`), false},
	{IntentHelp, regexp.MustCompile(`help|what.*can.*do|how.*work|guide`), false},
}

var (
	urlRe         = regexp.MustCompile(`https?://[^\s]+`)
	backendRe     = regexp.MustCompile(`node|express|backend|server`)
	endpointReqRe = regexp.MustCompile(`endpoint|api|route`)
)

// Route classifies a lower-cased message. Intents that need a spec are
// skipped when none is active.
func Route(lowerMessage string, hasActiveSpec bool) Intent {
	for _, r := range rules {
		if r.needsSpec && !hasActiveSpec {
			continue
		}
		if r.pattern.MatchString(lowerMessage) {
			return r.intent
		}
	}
	return IntentGeneral
}

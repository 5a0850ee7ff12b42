package domain

// IntentType classifies what the user wants to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentSearchRecipe
	IntentStartRecipe
	IntentNavNext
	IntentNavPrev
	IntentNavGoTo
	IntentNavRepeat
	IntentNavStart
	IntentQuestion
	IntentStopPause
	IntentResume
	IntentConfirm
	IntentCancel
	IntentSmallTalk
	IntentClarify
	IntentHelp
	IntentSetTimer
	IntentDismissTimer
	IntentListRecipes
	IntentQuit
)

// String returns the snake_case intent name.
func (i IntentType) String() string {
	switch i {
	case IntentSearchRecipe:
		return "search_recipe"
	case IntentStartRecipe:
		return "start_recipe"
	case IntentNavNext:
		return "nav_next"
	case IntentNavPrev:
		return "nav_prev"
	case IntentNavGoTo:
		return "nav_go_to"
	case IntentNavRepeat:
		return "nav_repeat"
	case IntentNavStart:
		return "nav_start"
	case IntentQuestion:
		return "question"
	case IntentStopPause:
		return "stop_pause"
	case IntentResume:
		return "resume"
	case IntentConfirm:
		return "confirm"
	case IntentCancel:
		return "cancel"
	case IntentSmallTalk:
		return "small_talk"
	case IntentClarify:
		return "clarify"
	case IntentHelp:
		return "help"
	case IntentSetTimer:
		return "set_timer"
	case IntentDismissTimer:
		return "dismiss_timer"
	case IntentListRecipes:
		return "list_recipes"
	case IntentQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Intent is a parsed user action with whatever entities the classifier
// could pull out of the utterance.
type Intent struct {
	Type       IntentType
	Payload    string  // recipe name, question text, or raw input
	StepNum    int     // target step for nav_go_to, 0 when absent
	Confidence float64 // classifier confidence in [0, 1]
}

// intentNames maps snake_case names to IntentType values.
var intentNames = map[string]IntentType{
	"search_recipe": IntentSearchRecipe,
	"start_recipe":  IntentStartRecipe,
	"nav_next":      IntentNavNext,
	"nav_prev":      IntentNavPrev,
	"nav_go_to":     IntentNavGoTo,
	"nav_repeat":    IntentNavRepeat,
	"nav_start":     IntentNavStart,
	"question":      IntentQuestion,
	"stop_pause":    IntentStopPause,
	"resume":        IntentResume,
	"confirm":       IntentConfirm,
	"cancel":        IntentCancel,
	"small_talk":    IntentSmallTalk,
	"clarify":       IntentClarify,
	"help":          IntentHelp,
	"set_timer":     IntentSetTimer,
	"dismiss_timer": IntentDismissTimer,
	"list_recipes":  IntentListRecipes,
	"quit":          IntentQuit,
	"unknown":       IntentUnknown,
}

// IntentFromString converts a snake_case intent name to an IntentType.
// Returns IntentUnknown for unrecognized names.
func IntentFromString(name string) IntentType {
	if t, ok := intentNames[name]; ok {
		return t
	}
	return IntentUnknown
}

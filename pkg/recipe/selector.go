package recipe

// Entropy weights per selector field. AutomationID dominates because it is
// the only field that is stable across layout and localization changes.
const (
	entropyAutomationID   = 10
	entropyControlType    = 5
	entropyClassName      = 3
	entropyName           = 2
	entropyValue          = 2
	entropyHelpText       = 1
	entropyAccessibleName = 1

	// WeakEntropyThreshold marks the score below which a selector is
	// flagged as weak by recipe validation.
	WeakEntropyThreshold = 5
)

// EntropyScore computes the specificity score of the selector: the sum of
// the weights of every present field. An empty selector scores 0.
func (e ElementSelector) EntropyScore() int {
	score := 0
	if e.AutomationID != "" {
		score += entropyAutomationID
	}
	if e.ControlType != "" {
		score += entropyControlType
	}
	if e.ClassName != "" {
		score += entropyClassName
	}
	if e.Name != "" {
		score += entropyName
	}
	if e.Value != "" {
		score += entropyValue
	}
	if e.HelpText != "" {
		score += entropyHelpText
	}
	if e.AccessibleName != "" {
		score += entropyAccessibleName
	}
	return score
}

// HasSelectors reports whether any selector field is set. Index alone does
// not count: it disambiguates matches but cannot select on its own.
func (e ElementSelector) HasSelectors() bool {
	return e.AutomationID != "" || e.ControlType != "" || e.ClassName != "" ||
		e.Name != "" || e.Value != "" || e.HelpText != "" || e.AccessibleName != ""
}

// Fallbacks generates lower-entropy selectors for self-healing resolution
// when the primary AutomationID lookup stops matching. Fallbacks exist only
// for selectors anchored on an AutomationID; in order:
//
//  1. ControlType + Name, when both are present.
//  2. ClassName + Name, when both are present.
//
// Each fallback keeps the source selector's index and drops the
// AutomationID. A selector without an AutomationID gets no fallbacks.
func (e ElementSelector) Fallbacks() []ElementSelector {
	if e.AutomationID == "" {
		return nil
	}
	var fallbacks []ElementSelector
	if e.ControlType != "" && e.Name != "" {
		fallbacks = append(fallbacks, ElementSelector{
			ControlType: e.ControlType,
			Name:        e.Name,
			Index:       e.Index,
		})
	}
	if e.ClassName != "" && e.Name != "" {
		fallbacks = append(fallbacks, ElementSelector{
			ClassName: e.ClassName,
			Name:      e.Name,
			Index:     e.Index,
		})
	}
	return fallbacks
}

package recipe

import (
	"fmt"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// Substitute expands every ${name} placeholder in text with the stringified
// value of vars[name]. Names absent from vars are left verbatim, delimiters
// included, so a later attempt can still see them once the variable exists.
// The function is pure and performs no escaping beyond the literal match.
func Substitute(text string, vars map[string]any) string {
	if len(vars) == 0 {
		return text
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-1]
		value, ok := vars[name]
		if !ok {
			return match
		}
		return fmt.Sprintf("%v", value)
	})
}

// SubstituteStep returns a copy of the step with Substitute applied to every
// string-valued field, including the nested target and its selectors.
// Non-string fields are untouched. The step state machine re-invokes this on
// every attempt so variables written by earlier steps become visible, while
// an attempt's own in-flight result never is.
func SubstituteStep(step ActionStep, vars map[string]any) ActionStep {
	out := step

	out.Name = Substitute(step.Name, vars)
	out.Target.App = Substitute(step.Target.App, vars)
	out.Target.FilePath = Substitute(step.Target.FilePath, vars)
	out.Target.Text = Substitute(step.Target.Text, vars)

	if step.Target.Window != nil {
		w := *step.Target.Window
		w.Name = Substitute(w.Name, vars)
		w.ClassName = Substitute(w.ClassName, vars)
		out.Target.Window = &w
	}
	if step.Target.Element != nil {
		e := *step.Target.Element
		e.AutomationID = Substitute(e.AutomationID, vars)
		e.ControlType = Substitute(e.ControlType, vars)
		e.ClassName = Substitute(e.ClassName, vars)
		e.Name = Substitute(e.Name, vars)
		e.Value = Substitute(e.Value, vars)
		e.HelpText = Substitute(e.HelpText, vars)
		e.AccessibleName = Substitute(e.AccessibleName, vars)
		out.Target.Element = &e
	}
	if step.Target.Region != nil {
		r := *step.Target.Region
		out.Target.Region = &r
	}
	return out
}

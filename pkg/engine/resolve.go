package engine

import (
	"context"
	"fmt"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

// BuildQueries expands an element selector into the ordered candidate query
// list, most specific first:
//
//  1. automation_id alone
//  2. control_type + name (both present)
//  3. class_name + name (both present)
//  4. name alone
//  5. control_type alone
//
// Fields the selector does not set produce no query. An empty selector
// yields no queries at all.
func BuildQueries(sel recipe.ElementSelector) []ElementQuery {
	var queries []ElementQuery
	if sel.AutomationID != "" {
		queries = append(queries, ElementQuery{AutomationID: sel.AutomationID})
	}
	if sel.ControlType != "" && sel.Name != "" {
		queries = append(queries, ElementQuery{ControlType: sel.ControlType, Name: sel.Name})
	}
	if sel.ClassName != "" && sel.Name != "" {
		queries = append(queries, ElementQuery{ClassName: sel.ClassName, Name: sel.Name})
	}
	if sel.Name != "" {
		queries = append(queries, ElementQuery{Name: sel.Name})
	}
	if sel.ControlType != "" {
		queries = append(queries, ElementQuery{ControlType: sel.ControlType})
	}
	return queries
}

// Resolver locates windows and elements through a UI backend using the
// specificity-ranked query strategy.
type Resolver struct {
	ui UIBackend
}

// NewResolver creates a resolver over the given UI backend.
func NewResolver(ui UIBackend) *Resolver {
	return &Resolver{ui: ui}
}

// ResolveWindow resolves the window a step operates in. With a selector it
// queries the backend directly; without one it falls back to the tracked
// application's foremost window. When neither yields a window, resolution
// fails with a not-found error.
func (r *Resolver) ResolveWindow(ctx context.Context, sel *recipe.WindowSelector, app string) (WindowHandle, error) {
	if sel != nil && !sel.IsZero() {
		win, err := r.ui.FindWindow(ctx, *sel, app)
		if err != nil {
			return nil, err
		}
		if win == nil {
			return nil, NewNotFoundError(fmt.Sprintf("window not found: %+v", *sel), nil)
		}
		return win, nil
	}

	win, err := r.ui.ForegroundWindow(ctx, app)
	if err != nil {
		return nil, err
	}
	if win == nil {
		return nil, NewNotFoundError("no window selector and no foreground window available", nil)
	}
	return win, nil
}

// ResolveElement resolves an element within the step's window. Candidate
// queries are tried in specificity order; resolution stops at the first
// query that returns at least one match — lower-specificity queries are
// never attempted once any query matches, even if the match set is smaller
// than expected. The element at the selector's index within that match set
// is returned; an out-of-range index fails resolution outright rather than
// falling through to the next query.
func (r *Resolver) ResolveElement(ctx context.Context, target recipe.Target) (ElementHandle, error) {
	if target.Element == nil || !target.Element.HasSelectors() {
		return nil, NewValidationError("step target has no element selector", nil)
	}

	win, err := r.ResolveWindow(ctx, target.Window, target.App)
	if err != nil {
		return nil, err
	}

	sel := *target.Element
	for _, q := range BuildQueries(sel) {
		matches, err := r.ui.FindElements(ctx, win, q)
		if err != nil {
			// A backend enumeration failure for one query does not
			// invalidate the less specific ones.
			continue
		}
		if len(matches) == 0 {
			continue
		}
		if sel.Index >= len(matches) {
			return nil, NewNotFoundError(fmt.Sprintf(
				"element query matched %d element(s) but index %d was requested",
				len(matches), sel.Index), nil)
		}
		return matches[sel.Index], nil
	}

	return nil, NewNotFoundError(fmt.Sprintf("no element matched selector (entropy=%d)", sel.EntropyScore()), nil)
}

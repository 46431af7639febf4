package engine

import (
	"context"
	"testing"

	"github.com/SimplyAISolution/windows-desktop-automator/pkg/recipe"
)

func TestBuildQueries(t *testing.T) {
	tests := []struct {
		name string
		sel  recipe.ElementSelector
		want []ElementQuery
	}{
		{
			name: "empty selector yields no queries",
			sel:  recipe.ElementSelector{},
			want: nil,
		},
		{
			name: "automation id alone",
			sel:  recipe.ElementSelector{AutomationID: "SaveButton"},
			want: []ElementQuery{{AutomationID: "SaveButton"}},
		},
		{
			name: "full selector in specificity order",
			sel: recipe.ElementSelector{
				AutomationID: "SaveButton",
				ControlType:  "Button",
				ClassName:    "Btn",
				Name:         "Save",
			},
			want: []ElementQuery{
				{AutomationID: "SaveButton"},
				{ControlType: "Button", Name: "Save"},
				{ClassName: "Btn", Name: "Save"},
				{Name: "Save"},
				{ControlType: "Button"},
			},
		},
		{
			name: "control type without name skips pair queries",
			sel:  recipe.ElementSelector{ControlType: "Button", ClassName: "Btn"},
			want: []ElementQuery{{ControlType: "Button"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildQueries(tt.sel)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d queries, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("query %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolveElementStopsAtFirstMatchingQuery(t *testing.T) {
	var queried []ElementQuery
	ui := &mockUI{
		findElementsFn: func(ctx context.Context, win WindowHandle, q ElementQuery) ([]ElementHandle, error) {
			queried = append(queried, q)
			if q.ControlType == "Button" && q.Name == "Save" {
				return []ElementHandle{"button-1"}, nil
			}
			return nil, nil
		},
	}
	r := NewResolver(ui)

	target := recipe.Target{
		Element: &recipe.ElementSelector{
			AutomationID: "missing-id",
			ControlType:  "Button",
			Name:         "Save",
		},
	}

	el, err := r.ResolveElement(context.Background(), target)
	if err != nil {
		t.Fatalf("resolution failed: %v", err)
	}
	if el != ElementHandle("button-1") {
		t.Errorf("got element %v", el)
	}
	// The automation_id query misses, the control_type+name query hits,
	// and nothing less specific runs.
	if len(queried) != 2 {
		t.Errorf("expected 2 queries, got %d: %+v", len(queried), queried)
	}
}

func TestResolveElementOutOfRangeIndexFailsOutright(t *testing.T) {
	var queries int
	ui := &mockUI{
		findElementsFn: func(ctx context.Context, win WindowHandle, q ElementQuery) ([]ElementHandle, error) {
			queries++
			return []ElementHandle{"only-match"}, nil
		},
	}
	r := NewResolver(ui)

	target := recipe.Target{
		Element: &recipe.ElementSelector{
			AutomationID: "SaveButton",
			Name:         "Save",
			Index:        3,
		},
	}

	_, err := r.ResolveElement(context.Background(), target)
	if err == nil {
		t.Fatal("expected failure for an out-of-range index")
	}
	if !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
	// An out-of-range index must not fall through to less specific queries.
	if queries != 1 {
		t.Errorf("expected 1 query, got %d", queries)
	}
}

func TestResolveElementIndexSelectsAmongMatches(t *testing.T) {
	ui := &mockUI{
		findElementsFn: func(ctx context.Context, win WindowHandle, q ElementQuery) ([]ElementHandle, error) {
			return []ElementHandle{"row-0", "row-1", "row-2"}, nil
		},
	}
	r := NewResolver(ui)

	target := recipe.Target{
		Element: &recipe.ElementSelector{Name: "Row", Index: 2},
	}

	el, err := r.ResolveElement(context.Background(), target)
	if err != nil {
		t.Fatalf("resolution failed: %v", err)
	}
	if el != ElementHandle("row-2") {
		t.Errorf("got %v, want row-2", el)
	}
}

func TestResolveElementBackendErrorFallsThrough(t *testing.T) {
	ui := &mockUI{
		findElementsFn: func(ctx context.Context, win WindowHandle, q ElementQuery) ([]ElementHandle, error) {
			if q.AutomationID != "" {
				return nil, NewBackendError("enumeration crashed", nil)
			}
			return []ElementHandle{"fallback-match"}, nil
		},
	}
	r := NewResolver(ui)

	target := recipe.Target{
		Element: &recipe.ElementSelector{AutomationID: "SaveButton", Name: "Save"},
	}

	el, err := r.ResolveElement(context.Background(), target)
	if err != nil {
		t.Fatalf("resolution failed: %v", err)
	}
	if el != ElementHandle("fallback-match") {
		t.Errorf("got %v", el)
	}
}

func TestResolveElementNoSelectorIsValidationError(t *testing.T) {
	r := NewResolver(&mockUI{})

	for _, target := range []recipe.Target{
		{},
		{Element: &recipe.ElementSelector{Index: 1}}, // index alone selects nothing
	} {
		_, err := r.ResolveElement(context.Background(), target)
		if !IsValidation(err) {
			t.Errorf("target %+v: expected a validation error, got %v", target, err)
		}
	}
}

func TestResolveElementExhaustedQueriesIsNotFound(t *testing.T) {
	r := NewResolver(&mockUI{}) // zero-value mock matches nothing

	target := recipe.Target{
		Element: &recipe.ElementSelector{AutomationID: "Ghost", Name: "Ghost"},
	}

	_, err := r.ResolveElement(context.Background(), target)
	if !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestResolveWindowFallsBackToForeground(t *testing.T) {
	r := NewResolver(&mockUI{})

	win, err := r.ResolveWindow(context.Background(), nil, "notepad.exe")
	if err != nil {
		t.Fatalf("resolution failed: %v", err)
	}
	if win != WindowHandle("window") {
		t.Errorf("got %v", win)
	}
}

func TestResolveWindowNotFound(t *testing.T) {
	ui := &mockUI{
		findWindowFn: func(ctx context.Context, sel recipe.WindowSelector, app string) (WindowHandle, error) {
			return nil, nil
		},
	}
	r := NewResolver(ui)

	_, err := r.ResolveWindow(context.Background(), &recipe.WindowSelector{Name: "Untitled"}, "")
	if !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

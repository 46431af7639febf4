package recipe

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ValidationError is a single structural problem found in a recipe.
type ValidationError struct {
	// Field names the offending field (dotted path where nested).
	Field string `json:"field"`

	// Message describes the constraint that was violated.
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every structural problem found in a recipe so
// callers can report them all at once instead of fixing one at a time.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("recipe validation failed: %s", strings.Join(msgs, "; "))
}

var nameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Parser parses and structurally validates recipe documents.
type Parser struct {
	validate *validator.Validate
}

// NewParser creates a recipe parser.
func NewParser() *Parser {
	return &Parser{validate: validator.New()}
}

// ParseFile reads and parses a recipe from a YAML file.
func (p *Parser) ParseFile(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}
	return p.Parse(data)
}

// Parse parses a recipe from YAML bytes and validates it. On structural
// problems the returned error is a ValidationErrors listing all of them.
func (p *Parser) Parse(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, ValidationErrors{{Message: fmt.Sprintf("malformed YAML: %v", err)}}
	}

	if errs := p.Check(&r); len(errs) > 0 {
		return nil, errs
	}
	return &r, nil
}

// Check validates an already-constructed recipe and returns every
// constraint violation found. A nil result means the recipe is valid.
func (p *Parser) Check(r *Recipe) ValidationErrors {
	var errs ValidationErrors

	// Tag-declared constraints (required fields, numeric ranges).
	if err := p.validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, ValidationError{
					Field:   fe.Namespace(),
					Message: fmt.Sprintf("failed constraint %q", fe.Tag()),
				})
			}
		} else {
			errs = append(errs, ValidationError{Message: err.Error()})
		}
	}

	// Constraints the tags cannot express, stated as plain functions so
	// they stay testable in isolation.
	errs = append(errs, CheckRecipeName(r.Name)...)
	errs = append(errs, CheckStepCount(len(r.Steps))...)
	for i, step := range r.Steps {
		errs = append(errs, checkStep(i, step)...)
	}
	return errs
}


// CheckRecipeName validates the recipe name pattern: it must start with a
// letter and contain only letters, digits, underscores, and hyphens.
func CheckRecipeName(name string) ValidationErrors {
	if name == "" {
		// Emptiness is already reported by the required tag.
		return nil
	}
	if !nameRe.MatchString(name) {
		return ValidationErrors{{
			Field:   "name",
			Message: "must start with a letter and contain only letters, digits, underscores, and hyphens",
		}}
	}
	return nil
}

// CheckStepCount validates the step list length against the 1-100 bound.
func CheckStepCount(n int) ValidationErrors {
	if n < MinSteps {
		return ValidationErrors{{Field: "steps", Message: "recipe must contain at least one step"}}
	}
	if n > MaxSteps {
		return ValidationErrors{{
			Field:   "steps",
			Message: fmt.Sprintf("recipe cannot contain more than %d steps", MaxSteps),
		}}
	}
	return nil
}

// CheckWindowSelector validates a window selector: a name, when present,
// must be at least two characters long.
func CheckWindowSelector(w WindowSelector) ValidationErrors {
	if w.Name != "" && len(w.Name) < 2 {
		return ValidationErrors{{
			Field:   "window.name",
			Message: "window name must be at least 2 characters long",
		}}
	}
	if w.ProcessID < 0 {
		return ValidationErrors{{Field: "window.process_id", Message: "process id cannot be negative"}}
	}
	return nil
}

// CheckRegion validates a screen region: all coordinates non-negative.
// Presence of all four keys is enforced during YAML decoding.
func CheckRegion(r Region) ValidationErrors {
	if r.X < 0 || r.Y < 0 || r.Width < 0 || r.Height < 0 {
		return ValidationErrors{{Field: "region", Message: "region values must be non-negative integers"}}
	}
	return nil
}

// CheckElementIndex validates the match index of an element selector.
func CheckElementIndex(index int) ValidationErrors {
	if index < 0 {
		return ValidationErrors{{Field: "element.index", Message: "index cannot be negative"}}
	}
	return nil
}

func checkStep(i int, step ActionStep) ValidationErrors {
	var errs ValidationErrors
	prefix := func(field string) string {
		return fmt.Sprintf("steps[%d].%s", i, field)
	}

	if step.Action != "" && !step.Action.Valid() {
		errs = append(errs, ValidationError{
			Field:   prefix("action"),
			Message: fmt.Sprintf("unknown action kind %q", step.Action),
		})
	}
	if step.Target.Window != nil {
		for _, ve := range CheckWindowSelector(*step.Target.Window) {
			ve.Field = prefix("target." + ve.Field)
			errs = append(errs, ve)
		}
	}
	if step.Target.Element != nil {
		for _, ve := range CheckElementIndex(step.Target.Element.Index) {
			ve.Field = prefix("target." + ve.Field)
			errs = append(errs, ve)
		}
	}
	if step.Target.Region != nil {
		for _, ve := range CheckRegion(*step.Target.Region) {
			ve.Field = prefix("target." + ve.Field)
			errs = append(errs, ve)
		}
	}
	return errs
}

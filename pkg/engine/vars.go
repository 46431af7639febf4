package engine

import "fmt"

// Vars is the mutable variable mapping shared across the steps of one run.
// The orchestrator owns the single instance and passes it explicitly into
// substitution and result storage; it is never ambient state. Execution is
// strictly sequential, so no locking is required — a reimplementation that
// runs steps concurrently must add synchronization here first.
type Vars struct {
	values map[string]any
}

// NewVars creates a variable context seeded from the recipe's variables.
// The seed map is copied so the parsed recipe stays immutable.
func NewVars(seed map[string]any) *Vars {
	values := make(map[string]any, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &Vars{values: values}
}

// Get returns the value bound to name and whether it exists.
func (v *Vars) Get(name string) (any, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Set binds name to value.
func (v *Vars) Set(name string, value any) {
	v.values[name] = value
}

// StoreStepResult stores a step handler's produced value under the derived
// key for the given 1-based step index, making it visible to substitution
// in all later steps.
func (v *Vars) StoreStepResult(stepIndex int, value any) {
	v.values[StepResultKey(stepIndex)] = value
}

// Snapshot returns the current mapping for substitution. The map is shared,
// not copied: substitution only reads it, and the producing attempt stores
// its result only after its own substitution already happened, so an attempt
// never sees its own in-flight result.
func (v *Vars) Snapshot() map[string]any {
	return v.values
}

// Len returns the number of bound variables.
func (v *Vars) Len() int {
	return len(v.values)
}

// StepResultKey derives the variable key a step's result is stored under.
func StepResultKey(stepIndex int) string {
	return fmt.Sprintf("step_%d_result", stepIndex)
}

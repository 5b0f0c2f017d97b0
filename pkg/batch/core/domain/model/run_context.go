package model

import (
	"encoding/json"
)

// ExecutionContext is a key/value scratch area that item processors may use
// to carry state between items of the same job.
type ExecutionContext map[string]interface{}

// NewExecutionContext creates a new, empty ExecutionContext.
func NewExecutionContext() ExecutionContext {
	return make(ExecutionContext)
}

// Put sets the value for the specified key.
func (ec ExecutionContext) Put(key string, value interface{}) {
	ec[key] = value
}

// Get retrieves the value for the specified key. Returns nil and false if the value does not exist.
func (ec ExecutionContext) Get(key string) (interface{}, bool) {
	val, ok := ec[key]
	return val, ok
}

// GetString retrieves the value for the specified key as a string.
func (ec ExecutionContext) GetString(key string) (string, bool) {
	str, ok := ec[key].(string)
	return str, ok
}

// GetInt retrieves the value for the specified key as an int.
// Numbers restored from JSON arrive as float64 and are converted.
func (ec ExecutionContext) GetInt(key string) (int, bool) {
	switch v := ec[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Remove deletes the specified key.
func (ec ExecutionContext) Remove(key string) {
	delete(ec, key)
}

// Copy creates a shallow copy of the ExecutionContext.
func (ec ExecutionContext) Copy() ExecutionContext {
	out := make(ExecutionContext, len(ec))
	for k, v := range ec {
		out[k] = v
	}
	return out
}

// RunContext is the mutable, job-scoped progress state threaded through every chunk step.
//
// The tracker is initialised lazily on the first chunk. progress never decreases and,
// once initialised, never exceeds total. A RunContext is owned by exactly one job and
// is not safe for concurrent use.
type RunContext struct {
	progress      int
	total         int
	lastProcessed Identifier
	initialized   bool

	// Values is scratch space for the item processor.
	Values ExecutionContext
}

// NewRunContext creates an uninitialised RunContext.
func NewRunContext() *RunContext {
	return &RunContext{Values: NewExecutionContext()}
}

// Init sets total and resets progress, but only on the first call.
// It reports whether this call performed the initialisation.
func (rc *RunContext) Init(total int) bool {
	if rc.initialized {
		return false
	}
	if total < 0 {
		total = 0
	}
	rc.total = total
	rc.progress = 0
	rc.initialized = true
	if rc.Values == nil {
		rc.Values = NewExecutionContext()
	}
	return true
}

// Advance records that n more identifiers were handled, the last of which was lastID.
// Non-positive n leaves the tracker untouched.
func (rc *RunContext) Advance(n int, lastID Identifier) {
	if n <= 0 {
		return
	}
	rc.progress += n
	if rc.initialized && rc.progress > rc.total {
		rc.progress = rc.total
	}
	rc.lastProcessed = lastID
}

// Initialized reports whether Init has been called.
func (rc *RunContext) Initialized() bool { return rc.initialized }

// Progress returns the number of identifiers processed so far.
func (rc *RunContext) Progress() int { return rc.progress }

// Total returns the declared identifier count of the job.
func (rc *RunContext) Total() int { return rc.total }

// LastProcessed returns the last identifier handled.
func (rc *RunContext) LastProcessed() Identifier { return rc.lastProcessed }

// Percent returns progress as a percentage of total, or 0 when total is unknown or zero.
func (rc *RunContext) Percent() float64 {
	if rc.total == 0 {
		return 0
	}
	return float64(rc.progress) * 100 / float64(rc.total)
}

// Done reports whether every declared identifier has been processed.
func (rc *RunContext) Done() bool {
	return rc.initialized && rc.progress >= rc.total
}

// Clone returns an independent copy. The scratch values are copied shallowly.
func (rc *RunContext) Clone() *RunContext {
	c := *rc
	if rc.Values != nil {
		c.Values = rc.Values.Copy()
	}
	return &c
}

type runContextJSON struct {
	Progress      int              `json:"progress"`
	Total         int              `json:"total"`
	LastProcessed Identifier       `json:"last_processed,omitempty"`
	Initialized   bool             `json:"initialized"`
	Values        ExecutionContext `json:"values,omitempty"`
}

// MarshalJSON implements json.Marshaler so a RunContext can be checkpointed.
func (rc *RunContext) MarshalJSON() ([]byte, error) {
	return json.Marshal(runContextJSON{
		Progress:      rc.progress,
		Total:         rc.total,
		LastProcessed: rc.lastProcessed,
		Initialized:   rc.initialized,
		Values:        rc.Values,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (rc *RunContext) UnmarshalJSON(data []byte) error {
	var v runContextJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	rc.progress = v.Progress
	rc.total = v.Total
	rc.lastProcessed = v.LastProcessed
	rc.initialized = v.Initialized
	rc.Values = v.Values
	if rc.Values == nil {
		rc.Values = NewExecutionContext()
	}
	return nil
}

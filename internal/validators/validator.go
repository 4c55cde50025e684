package validators

import (
	"sort"
	"strings"
)

// Validator collects field errors instead of failing on the first one, so callers can report every violation at once.
type Validator struct {
	Errors map[string]interface{}
}

func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]interface{})}
}

func (v *Validator) HasErrors() bool {
	return len(v.Errors) > 0
}

// Check records message under key when ok is false. The first message recorded for a key wins.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// CheckError is a convenience method for checking if an error is nil. An empty message is replaced by the error text.
func (v *Validator) CheckError(err error, key, message string) *Validator {
	if err != nil && message == "" {
		message = err.Error()
	}
	v.Check(err == nil, key, message)
	return v
}

func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; exists {
		return
	}
	v.Errors[key] = message
}

// FieldErrors returns the collected errors as strings.
func (v *Validator) FieldErrors() map[string]string {
	fields := make(map[string]string, len(v.Errors))
	for key, value := range v.Errors {
		if s, ok := value.(string); ok {
			fields[key] = s
		}
	}
	return fields
}

// Keys returns the names of the fields with errors, sorted.
func (v *Validator) Keys() []string {
	keys := make([]string, 0, len(v.Errors))
	for key := range v.Errors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (v *Validator) String() string {
	parts := make([]string, 0, len(v.Errors))
	for _, key := range v.Keys() {
		parts = append(parts, key+": "+v.FieldErrors()[key])
	}
	return strings.Join(parts, ", ")
}

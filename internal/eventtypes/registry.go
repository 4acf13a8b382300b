// Package eventtypes maps event type tags to payload schemas. The open set of
// event subtypes (class, sport_class, clinic, ...) is a plugin table populated
// at startup rather than a type hierarchy.
package eventtypes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
)

var ErrUnknownType = errors.New("unknown event type")

// PayloadFactory returns a fresh pointer to the payload struct for a type, so
// each validation decodes into its own instance.
type PayloadFactory func() any

type Registry struct {
	mu        sync.RWMutex
	factories map[string]PayloadFactory
	validate  *validator.Validate
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]PayloadFactory),
		validate:  validator.New(),
	}
}

func (r *Registry) Register(name string, factory PayloadFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Types returns the registered type tags, sorted for stable API output.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidatePayload decodes raw against the type's schema and runs struct
// validation. A nil/empty payload is accepted for any known type.
func (r *Registry) ValidatePayload(name string, raw json.RawMessage) error {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	if len(raw) == 0 {
		return nil
	}

	payload := factory()
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(payload); err != nil {
		return fmt.Errorf("invalid %s payload: %w", name, err)
	}
	if err := r.validate.Struct(payload); err != nil {
		return fmt.Errorf("invalid %s payload: %w", name, err)
	}
	return nil
}

// Built-in payload schemas.

type ClassPayload struct {
	Subject    string `json:"subject" validate:"required"`
	GradeLevel string `json:"grade_level,omitempty"`
	Capacity   *int   `json:"capacity,omitempty" validate:"omitempty,gte=0"`
}

type SportClassPayload struct {
	Sport      string `json:"sport" validate:"required"`
	SkillLevel string `json:"skill_level,omitempty"`
	Coach      string `json:"coach,omitempty"`
}

type ClinicPayload struct {
	Topic string `json:"topic" validate:"required"`
	Coach string `json:"coach,omitempty"`
}

type GenericPayload struct {
	Notes string `json:"notes,omitempty"`
}

// Default returns a registry populated with the built-in event types.
func Default() *Registry {
	r := NewRegistry()
	r.Register("class", func() any { return &ClassPayload{} })
	r.Register("sport_class", func() any { return &SportClassPayload{} })
	r.Register("clinic", func() any { return &ClinicPayload{} })
	r.Register("event", func() any { return &GenericPayload{} })
	return r
}

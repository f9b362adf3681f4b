// Package standards holds the task standards registry: how many points each
// kind of back-office task is worth per completion.
package standards

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// TaskStandard is one row of the registry.
type TaskStandard struct {
	TaskName    string `yaml:"task_name" json:"task_name"`
	Category    string `yaml:"category" json:"category"`
	BaseScore   int    `yaml:"base_score" json:"base_score"`
	TargetDaily int    `yaml:"target_daily" json:"target_daily"`
}

// Points returns count × base score.
func (s TaskStandard) Points(count int) float64 {
	return float64(count) * float64(s.BaseScore)
}

func (s TaskStandard) validate() error {
	if strings.TrimSpace(s.TaskName) == "" {
		return fmt.Errorf("%w: empty task name", ErrInvalidStandard)
	}
	if s.BaseScore <= 0 {
		return fmt.Errorf("%w: %q base score must be positive, got %d", ErrInvalidStandard, s.TaskName, s.BaseScore)
	}
	if s.TargetDaily <= 0 {
		return fmt.Errorf("%w: %q daily target must be positive, got %d", ErrInvalidStandard, s.TaskName, s.TargetDaily)
	}
	return nil
}

type document struct {
	Standards []TaskStandard `yaml:"standards"`
}

// Registry maps task names to standards. Reads are safe concurrently with
// writes; listing follows first-registration order.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]TaskStandard

	seed []TaskStandard
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithStandards replaces the embedded seed table.
func WithStandards(seed []TaskStandard) Option {
	return func(r *Registry) {
		if seed != nil {
			r.seed = append([]TaskStandard(nil), seed...)
		}
	}
}

// New builds a registry seeded from the embedded defaults unless
// WithStandards supplies a table. Every seed row is validated.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{byName: make(map[string]TaskStandard)}
	for _, opt := range opts {
		opt(r)
	}

	if r.seed == nil {
		seed, err := decodeYAML(bytes.NewReader(defaultsYAML))
		if err != nil {
			return nil, fmt.Errorf("decode default standards: %w", err)
		}
		r.seed = seed
	}

	for _, s := range r.seed {
		if err := r.put(s); err != nil {
			return nil, err
		}
	}
	r.seed = nil
	return r, nil
}

// LoadYAML builds a registry from a YAML document shaped like the embedded defaults.
func LoadYAML(rd io.Reader) (*Registry, error) {
	seed, err := decodeYAML(rd)
	if err != nil {
		return nil, err
	}
	return New(WithStandards(seed))
}

func decodeYAML(rd io.Reader) ([]TaskStandard, error) {
	var doc document
	if err := yaml.NewDecoder(rd).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStandard, err)
	}
	if doc.Standards == nil {
		doc.Standards = []TaskStandard{}
	}
	return doc.Standards, nil
}

// Lookup returns the standard for name. A miss is not an error.
func (r *Registry) Lookup(name string) (TaskStandard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// Score returns the points for count completions of name, or 0 for
// unregistered tasks.
func (r *Registry) Score(name string, count int) float64 {
	s, ok := r.Lookup(name)
	if !ok {
		return 0
	}
	return s.Points(count)
}

// Register inserts or overwrites a standard. Last write wins.
func (r *Registry) Register(name, category string, baseScore, targetDaily int) error {
	return r.put(TaskStandard{
		TaskName:    name,
		Category:    category,
		BaseScore:   baseScore,
		TargetDaily: targetDaily,
	})
}

func (r *Registry) put(s TaskStandard) error {
	if err := s.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[s.TaskName]; !exists {
		r.order = append(r.order, s.TaskName)
	}
	r.byName[s.TaskName] = s
	return nil
}

// ListTasks returns every registered task name.
func (r *Registry) ListTasks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// TasksInCategory returns the task names tagged with category.
func (r *Registry) TasksInCategory(category string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, name := range r.order {
		if r.byName[name].Category == category {
			out = append(out, name)
		}
	}
	return out
}

// Standards returns a copy of every standard in registration order.
func (r *Registry) Standards() []TaskStandard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TaskStandard, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// File: internal/act/registry.go
package act

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// ActionInfo is the capability set every action provider implements.
type ActionInfo interface {
	// Type is the registry key, e.g. "CONT Ship".
	Type() string
	// Description summarizes an action; "--" when required fields are missing.
	Description(action Action, cfg ActionConfig) string
	// NeedsConfigure is true iff some field holds ConfigurableValue.
	NeedsConfigure(action Action) bool
	// IsValidConfig is true iff every configurable field has a value in cfg.
	IsValidConfig(action Action, cfg ActionConfig) bool
	// GenerateSteps emits one or more steps, or fails through gc.
	GenerateSteps(ctx context.Context, gc *GenerateContext) error
}

// MaterialGroupInfo is the capability set every material group provider
// implements.
type MaterialGroupInfo interface {
	Type() string
	Description(group MaterialGroup) string
	NeedsConfigure(group MaterialGroup) bool
	IsValidConfig(group MaterialGroup, cfg MaterialGroupConfig) bool
	// GenerateMaterialBill returns ticker -> quantity. A nil map with a nil
	// error means the bill could not be produced and was already logged.
	GenerateMaterialBill(ctx context.Context, bc *BillContext) (map[string]int, error)
}

// StepInfo drives one kind of generated step against the live page.
type StepInfo interface {
	Type() string
	Description(step Step) (string, error)
	// Execute ends by calling ec.Complete or ec.Fail, or returns without
	// either when the step was aborted.
	Execute(ctx context.Context, ec *ExecContext)
}

// Registry maps type tags to providers. It is immutable once built.
type Registry struct {
	actions map[string]ActionInfo
	groups  map[string]MaterialGroupInfo
	steps   map[string]StepInfo
}

// RegistryBuilder collects providers during process initialization.
type RegistryBuilder struct {
	actions map[string]ActionInfo
	groups  map[string]MaterialGroupInfo
	steps   map[string]StepInfo
	errs    []error
}

// NewRegistryBuilder returns an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		actions: make(map[string]ActionInfo),
		groups:  make(map[string]MaterialGroupInfo),
		steps:   make(map[string]StepInfo),
	}
}

// AddAction registers an action provider.
func (b *RegistryBuilder) AddAction(info ActionInfo) *RegistryBuilder {
	if _, dup := b.actions[info.Type()]; dup {
		b.errs = append(b.errs, fmt.Errorf("action type %q registered twice", info.Type()))
		return b
	}
	b.actions[info.Type()] = info
	return b
}

// AddMaterialGroup registers a material group provider.
func (b *RegistryBuilder) AddMaterialGroup(info MaterialGroupInfo) *RegistryBuilder {
	if _, dup := b.groups[info.Type()]; dup {
		b.errs = append(b.errs, fmt.Errorf("material group type %q registered twice", info.Type()))
		return b
	}
	b.groups[info.Type()] = info
	return b
}

// AddStep registers an action step.
func (b *RegistryBuilder) AddStep(info StepInfo) *RegistryBuilder {
	if _, dup := b.steps[info.Type()]; dup {
		b.errs = append(b.errs, fmt.Errorf("step type %q registered twice", info.Type()))
		return b
	}
	b.steps[info.Type()] = info
	return b
}

// Build freezes the collected providers into a Registry. Every duplicate
// registration is reported.
func (b *RegistryBuilder) Build() (*Registry, error) {
	if err := multierr.Combine(b.errs...); err != nil {
		return nil, err
	}
	r := &Registry{
		actions: make(map[string]ActionInfo, len(b.actions)),
		groups:  make(map[string]MaterialGroupInfo, len(b.groups)),
		steps:   make(map[string]StepInfo, len(b.steps)),
	}
	for k, v := range b.actions {
		r.actions[k] = v
	}
	for k, v := range b.groups {
		r.groups[k] = v
	}
	for k, v := range b.steps {
		r.steps[k] = v
	}
	return r, nil
}

// ActionInfo looks up an action provider.
func (r *Registry) ActionInfo(actionType string) (ActionInfo, bool) {
	info, ok := r.actions[actionType]
	return info, ok
}

// MaterialGroupInfo looks up a material group provider.
func (r *Registry) MaterialGroupInfo(groupType string) (MaterialGroupInfo, bool) {
	info, ok := r.groups[groupType]
	return info, ok
}

// StepInfo looks up an action step.
func (r *Registry) StepInfo(stepType string) (StepInfo, bool) {
	info, ok := r.steps[stepType]
	return info, ok
}

// ActionTypes lists the registered action types in sorted order.
func (r *Registry) ActionTypes() []string {
	out := make([]string, 0, len(r.actions))
	for k := range r.actions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MaterialGroupTypes lists the registered material group types in sorted order.
func (r *Registry) MaterialGroupTypes() []string {
	out := make([]string, 0, len(r.groups))
	for k := range r.groups {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package act

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadPackage reads an action package from a YAML (or JSON) file.
func LoadPackage(path string) (*ActionPackage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read action package: %w", err)
	}
	var pkg ActionPackage
	if err := yaml.Unmarshal(raw, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse action package %s: %w", path, err)
	}
	if strings.TrimSpace(pkg.Global.Name) == "" {
		return nil, fmt.Errorf("action package %s has no global.name", path)
	}
	return &pkg, nil
}

// LoadPackageConfig reads a package configuration file. An empty path yields
// an empty configuration.
func LoadPackageConfig(path string) (ActionPackageConfig, error) {
	cfg := ActionPackageConfig{
		Actions:        map[string]ActionConfig{},
		MaterialGroups: map[string]MaterialGroupConfig{},
	}
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read package config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse package config %s: %w", path, err)
	}
	return cfg, nil
}

// FindGroup returns the group with the given name.
func (p *ActionPackage) FindGroup(name string) (MaterialGroup, bool) {
	for _, g := range p.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return MaterialGroup{}, false
}

// NeedsConfigure reports whether any registered action or group of pkg has a
// field waiting for a configure-time answer.
func NeedsConfigure(reg *Registry, pkg *ActionPackage) bool {
	for _, a := range pkg.Actions {
		if info, ok := reg.ActionInfo(a.Type); ok && info.NeedsConfigure(a) {
			return true
		}
	}
	for _, g := range pkg.Groups {
		if info, ok := reg.MaterialGroupInfo(g.Type); ok && info.NeedsConfigure(g) {
			return true
		}
	}
	return false
}

// ConfigProblem names an action or group whose configuration is incomplete.
type ConfigProblem struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// ValidateConfig lists every registered action and group of pkg that needs
// configuration and is not satisfied by cfg.
func ValidateConfig(reg *Registry, pkg *ActionPackage, cfg ActionPackageConfig) []ConfigProblem {
	var problems []ConfigProblem
	for _, a := range pkg.Actions {
		info, ok := reg.ActionInfo(a.Type)
		if !ok || !info.NeedsConfigure(a) {
			continue
		}
		if !info.IsValidConfig(a, cfg.Action(a.Name)) {
			problems = append(problems, ConfigProblem{Kind: "action", Name: a.Name})
		}
	}
	for _, g := range pkg.Groups {
		info, ok := reg.MaterialGroupInfo(g.Type)
		if !ok || !info.NeedsConfigure(g) {
			continue
		}
		if !info.IsValidConfig(g, cfg.MaterialGroup(g.Name)) {
			problems = append(problems, ConfigProblem{Kind: "group", Name: g.Name})
		}
	}
	return problems
}

// IsValidConfig reports whether cfg answers every configurable field of pkg.
func IsValidConfig(reg *Registry, pkg *ActionPackage, cfg ActionPackageConfig) bool {
	return len(ValidateConfig(reg, pkg, cfg)) == 0
}

// Describe returns one human-readable line per action of pkg. Unregistered
// actions are shown by their type.
func Describe(reg *Registry, pkg *ActionPackage, cfg ActionPackageConfig) []string {
	lines := make([]string, 0, len(pkg.Actions))
	for _, a := range pkg.Actions {
		info, ok := reg.ActionInfo(a.Type)
		if !ok {
			lines = append(lines, fmt.Sprintf("%s: unknown action type %q", a.Name, a.Type))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", a.Name, info.Description(a, cfg.Action(a.Name))))
	}
	return lines
}

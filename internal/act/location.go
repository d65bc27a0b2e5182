package act

import (
	"fmt"
	"strings"
)

// FallbackLocationLabel is shown for a configurable location with no answer yet.
const FallbackLocationLabel = "configured location"

// ResolveLocation turns a location field into a concrete location:
// a literal is returned as-is, ConfigurableValue is replaced by configured, and
// a group-target reference is replaced by that group's planet. "" means the
// location could not be resolved.
func ResolveLocation(value, configured string, planetOf func(group string) string) string {
	switch {
	case value == "":
		return ""
	case value == ConfigurableValue:
		return configured
	case strings.HasPrefix(value, GroupTargetPrefix):
		return planetOf(strings.TrimPrefix(value, GroupTargetPrefix))
	default:
		return value
	}
}

// DisplayLocation renders a location field for descriptions.
func DisplayLocation(value string) string {
	if strings.HasPrefix(value, GroupTargetPrefix) {
		return fmt.Sprintf("[%s] target", strings.TrimPrefix(value, GroupTargetPrefix))
	}
	return value
}

// DescribeLocation is DisplayLocation with configurable fields shown as their
// configured value or FallbackLocationLabel.
func DescribeLocation(value, configured string) string {
	if value == ConfigurableValue {
		if configured != "" {
			return configured
		}
		return FallbackLocationLabel
	}
	return DisplayLocation(value)
}

// GroupTarget builds a group-target reference to the named group.
func GroupTarget(group string) string { return GroupTargetPrefix + group }

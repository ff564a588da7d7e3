package artifacts

import (
	"fmt"
	"path"
	"strings"

	"github.com/theory-cloud/sitetheory"
)

// SettingsFile is the name of the generated settings document written at the destination.
const SettingsFile = "settings.json"

// InjectedArtifact is an extra file written at the destination after the copy.
type InjectedArtifact struct {
	Path    string `json:"path" yaml:"path"`
	Content string `json:"content" yaml:"content"`
}

// CopyConfiguration describes one artifact copy into a serving bucket.
//
// Settings is nil when no settings were supplied; an empty non-nil map still produces a
// settings file.
type CopyConfiguration struct {
	Location                   ArtifactLocation   `json:"location" yaml:"location"`
	Mode                       CopyMode           `json:"copyMode" yaml:"copyMode"`
	Settings                   map[string]string  `json:"settings,omitempty" yaml:"settings,omitempty"`
	InjectedArtifacts          []InjectedArtifact `json:"injectedArtifacts,omitempty" yaml:"injectedArtifacts,omitempty"`
	PolicyStatements           []PolicyStatement  `json:"policyStatements,omitempty" yaml:"policyStatements,omitempty"`
	AdditionalPolicyStatements []PolicyStatement  `json:"additionalPolicyStatements,omitempty" yaml:"additionalPolicyStatements,omitempty"`
}

func configProblem(field, format string, args ...any) error {
	return sitetheory.ConfigurationError(field, format, args...)
}

// Validate reports every configuration problem at once.
func (c CopyConfiguration) Validate() error {
	var problems sitetheory.Problems
	problems.Add(c.Location.Validate())

	if !c.Mode.valid() {
		problems.Addf("copyMode", "unknown copy mode %d", int(c.Mode))
	}
	for key := range c.Settings {
		if strings.TrimSpace(key) == "" {
			problems.Addf("settings", "setting names must not be empty")
			break
		}
	}
	for i, artifact := range c.InjectedArtifacts {
		if err := ValidateRelativePath(fmt.Sprintf("injectedArtifacts[%d].path", i), artifact.Path); err != nil {
			problems.Add(err)
		}
	}
	for i, s := range c.PolicyStatements {
		for _, err := range s.validate(fmt.Sprintf("policyStatements[%d]", i)) {
			problems.Add(err)
		}
	}
	for i, s := range c.AdditionalPolicyStatements {
		for _, err := range s.validate(fmt.Sprintf("additionalPolicyStatements[%d]", i)) {
			problems.Add(err)
		}
	}
	return problems.Err()
}

// ValidateRelativePath rejects empty, absolute, and parent-escaping object paths.
func ValidateRelativePath(field, value string) error {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return configProblem(field, "path is required")
	case strings.HasPrefix(value, "/"):
		return configProblem(field, "path %q must be relative (no leading /)", value)
	case !isSafeRelative(value):
		return configProblem(field, "path %q must not contain ..", value)
	case path.Clean(value) == ".":
		return configProblem(field, "path %q does not name a file", value)
	}
	return nil
}

// HasSettings reports whether a settings file was requested.
func (c CopyConfiguration) HasSettings() bool {
	return c.Settings != nil
}

// WithSettings returns a copy whose settings are replaced by settings.
func (c CopyConfiguration) WithSettings(settings map[string]string) CopyConfiguration {
	out := c.Clone()
	if settings == nil {
		out.Settings = nil
		return out
	}
	out.Settings = make(map[string]string, len(settings))
	for k, v := range settings {
		out.Settings[k] = v
	}
	return out
}

// WithMode returns a copy using mode.
func (c CopyConfiguration) WithMode(mode CopyMode) CopyConfiguration {
	out := c.Clone()
	out.Mode = mode
	return out
}

// Clone returns a deep copy.
func (c CopyConfiguration) Clone() CopyConfiguration {
	out := c
	if c.Settings != nil {
		out.Settings = make(map[string]string, len(c.Settings))
		for k, v := range c.Settings {
			out.Settings[k] = v
		}
	}
	out.InjectedArtifacts = append([]InjectedArtifact(nil), c.InjectedArtifacts...)
	out.PolicyStatements = cloneStatements(c.PolicyStatements)
	out.AdditionalPolicyStatements = cloneStatements(c.AdditionalPolicyStatements)
	return out
}

package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

const maxSlugLength = 48

// Slug lowercases value and collapses anything outside [a-z0-9-] into single dashes.
func Slug(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "_", "-")
	value = strings.ReplaceAll(value, " ", "-")
	value = strings.ReplaceAll(value, "/", "-")
	value = nonAlnum.ReplaceAllString(value, "-")
	value = multiDash.ReplaceAllString(value, "-")
	value = strings.Trim(value, "-")
	if len(value) > maxSlugLength {
		value = strings.TrimRight(value[:maxSlugLength], "-")
	}
	return value
}

// ShortHash returns the first n hex characters of sha256(value).
func ShortHash(value string, n int) string {
	sum := sha256.Sum256([]byte(value))
	out := hex.EncodeToString(sum[:])
	if n <= 0 || n > len(out) {
		return out
	}
	return out[:n]
}

// UniqueName returns slug(identity)-<hash>; stable for one identity and distinct across identities.
func UniqueName(identity string) string {
	hash := ShortHash(identity, 12)
	slug := Slug(identity)
	if slug == "" {
		return hash
	}
	return slug + "-" + hash
}

// NormalizeStage maps stage aliases to canonical values.
func NormalizeStage(stage string) string {
	stage = strings.ToLower(strings.TrimSpace(stage))
	switch stage {
	case "prod", "production", "live":
		return "live"
	case "dev", "development":
		return "dev"
	case "stg", "stage", "staging":
		return "stage"
	case "test", "testing":
		return "test"
	case "local":
		return "local"
	default:
		return Slug(stage)
	}
}

// StackName returns a deterministic stack name:
// - <app>-<stage>
// - <app>-<site>-<stage> (when site is provided)
func StackName(appName, site, stage string) string {
	parts := []string{Slug(appName)}
	if site = Slug(site); site != "" {
		parts = append(parts, site)
	}
	if stage = NormalizeStage(stage); stage != "" {
		parts = append(parts, stage)
	}
	return strings.Trim(strings.Join(parts, "-"), "-")
}

// FQDN joins a record name onto a hosted zone name. An empty record yields the zone apex.
func FQDN(recordName, hostedZoneName string) string {
	zone := strings.Trim(strings.TrimSpace(hostedZoneName), ".")
	record := strings.Trim(strings.TrimSpace(recordName), ".")
	if record == "" {
		return zone
	}
	if zone == "" {
		return record
	}
	return record + "." + zone
}

// ZoneName returns the hosted zone name in its fully-qualified, trailing-dot form.
func ZoneName(hostedZoneName string) string {
	zone := strings.Trim(strings.TrimSpace(hostedZoneName), ".")
	if zone == "" {
		return ""
	}
	return zone + "."
}

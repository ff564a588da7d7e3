package artifacts

import (
	"fmt"
	"strings"

	"github.com/theory-cloud/sitetheory/pkg/naming"
)

// CopyMode decides where copied content lands in the destination bucket.
type CopyMode int

const (
	// CopyModeSubfolder isolates each copy under a dedicated prefix that becomes the
	// distribution's origin path.
	CopyModeSubfolder CopyMode = iota
	// CopyModeRoot copies into the bucket root. Existing objects are left untouched.
	CopyModeRoot
)

const rootDestination = "/"

func (m CopyMode) String() string {
	switch m {
	case CopyModeSubfolder:
		return "SUBFOLDER"
	case CopyModeRoot:
		return "ROOT"
	default:
		return fmt.Sprintf("CopyMode(%d)", int(m))
	}
}

func (m CopyMode) valid() bool {
	return m == CopyModeSubfolder || m == CopyModeRoot
}

func (m CopyMode) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, fmt.Errorf("invalid copy mode %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *CopyMode) UnmarshalText(text []byte) error {
	mode, err := ParseCopyMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseCopyMode parses "SUBFOLDER" or "ROOT" (case-insensitive). Empty means SUBFOLDER.
func ParseCopyMode(value string) (CopyMode, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", "SUBFOLDER":
		return CopyModeSubfolder, nil
	case "ROOT":
		return CopyModeRoot, nil
	default:
		return CopyModeSubfolder, fmt.Errorf("unknown copy mode %q", value)
	}
}

// ResolveDestination returns the destination path prefix for a copy.
//
// ROOT always yields "/". SUBFOLDER yields a prefix derived from identity, so repeat
// deployments of one construct reuse the same prefix.
func ResolveDestination(mode CopyMode, identity string) string {
	if mode == CopyModeRoot {
		return rootDestination
	}
	return rootDestination + naming.UniqueName(identity)
}

// ObjectPrefix converts a destination path into an S3 key prefix ("" for the root).
func ObjectPrefix(destination string) string {
	prefix := strings.Trim(destination, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// OriginPath converts a destination path into a CloudFront origin path ("" for the root).
func OriginPath(destination string) string {
	trimmed := strings.Trim(destination, "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}

// ObjectKey joins a destination and a relative path into an S3 object key.
func ObjectKey(destination, rel string) string {
	return ObjectPrefix(destination) + strings.TrimLeft(rel, "/")
}

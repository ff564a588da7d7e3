package artifacts

import (
	"path"
	"strings"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/plan"
)

// zipAllEntries selects every entry of a zipped source.
const zipAllEntries = "."

// BucketRef references a bucket by name. Name may be a literal or a deferred reference.
type BucketRef struct {
	Name string `json:"name" yaml:"name"`
	Arn  string `json:"arn,omitempty" yaml:"arn,omitempty"`
}

// BucketNamed returns a reference to an existing bucket.
func BucketNamed(name string) BucketRef {
	return BucketRef{Name: strings.TrimSpace(name)}
}

// ARN returns the bucket ARN, derived from the name when not set explicitly.
func (b BucketRef) ARN() string {
	if b.Arn != "" {
		return b.Arn
	}
	return "arn:" + plan.Ref(plan.PseudoPartition) + ":s3:::" + b.Name
}

// ObjectsARN returns the ARN matching every object in the bucket.
func (b BucketRef) ObjectsARN() string {
	return b.ARN() + "/*"
}

// ArtifactLocation identifies a source of deployable bytes.
type ArtifactLocation struct {
	Bucket       BucketRef `json:"bucket" yaml:"bucket"`
	Key          string    `json:"key,omitempty" yaml:"key,omitempty"`
	ZipSubfolder string    `json:"zipSubfolder,omitempty" yaml:"zipSubfolder,omitempty"`
}

// NewArtifactLocation normalises and validates a source location.
func NewArtifactLocation(bucket BucketRef, key, zipSubfolder string) (ArtifactLocation, error) {
	loc := ArtifactLocation{
		Bucket:       BucketRef{Name: strings.TrimSpace(bucket.Name), Arn: strings.TrimSpace(bucket.Arn)},
		Key:          strings.TrimSpace(key),
		ZipSubfolder: normalizeZipSubfolder(zipSubfolder),
	}
	if err := loc.Validate(); err != nil {
		return ArtifactLocation{}, err
	}
	return loc, nil
}

func normalizeZipSubfolder(value string) string {
	value = strings.TrimSpace(value)
	switch value {
	case "":
		return ""
	case ".", "/", "./":
		return zipAllEntries
	default:
		return value
	}
}

// Validate reports configuration errors in the location.
func (l ArtifactLocation) Validate() error {
	var problems sitetheory.Problems
	if strings.TrimSpace(l.Bucket.Name) == "" {
		problems.Addf("sourceBucket", "source bucket is required")
	}
	if strings.TrimSpace(l.ZipSubfolder) != "" && strings.TrimSpace(l.Key) == "" {
		problems.Addf("zipSubfolder", "zipSubfolder %q requires sourceKey", l.ZipSubfolder)
	}
	return problems.Err()
}

// IsZipped reports whether the source key is a zip archive to unpack.
func (l ArtifactLocation) IsZipped() bool {
	return strings.TrimSpace(l.ZipSubfolder) != ""
}

// CopiesBucketRoot reports whether the whole source bucket is copied.
func (l ArtifactLocation) CopiesBucketRoot() bool {
	return strings.TrimSpace(l.Key) == ""
}

// ExtractsAll reports whether every zip entry is extracted.
func (l ArtifactLocation) ExtractsAll() bool {
	return normalizeZipSubfolder(l.ZipSubfolder) == zipAllEntries
}

// EntryPath maps a zip entry name to its path relative to the destination prefix.
// ok is false for directories, entries outside the zip subfolder, and unsafe paths.
func (l ArtifactLocation) EntryPath(name string) (string, bool) {
	if name == "" || strings.HasSuffix(name, "/") {
		return "", false
	}
	clean := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." || !isSafeRelative(name) {
		return "", false
	}
	if l.ExtractsAll() {
		return clean, true
	}

	prefix := strings.Trim(strings.TrimPrefix(l.ZipSubfolder, "./"), "/")
	if prefix == "" {
		return clean, true
	}
	prefix += "/"
	if !strings.HasPrefix(clean, prefix) {
		return "", false
	}
	rel := strings.TrimPrefix(clean, prefix)
	if rel == "" {
		return "", false
	}
	return rel, true
}

func isSafeRelative(name string) bool {
	for _, segment := range strings.Split(strings.ReplaceAll(name, "\\", "/"), "/") {
		if segment == ".." {
			return false
		}
	}
	return true
}

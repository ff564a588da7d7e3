// Package customresource defines the properties exchanged between the planned custom
// resources and the Lambda handlers that realise them.
//
// CloudFormation delivers every scalar property as a string, so all fields are strings.
package customresource

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
)

// Copy drives the generic copier: source location, destination prefix, and generated files.
type Copy struct {
	ServiceToken      string          `json:"ServiceToken,omitempty"`
	SourceBucket      string          `json:"SourceBucket"`
	SourceKey         string          `json:"SourceKey,omitempty"`
	ZipSubfolder      string          `json:"ZipSubfolder,omitempty"`
	DestinationBucket string          `json:"DestinationBucket"`
	DestinationPrefix string          `json:"DestinationPrefix,omitempty"`
	Files             artifacts.Files `json:"Files,omitempty"`
	Digest            string          `json:"Digest,omitempty"`
}

// Location rebuilds the source location.
func (c Copy) Location() (artifacts.ArtifactLocation, error) {
	return artifacts.NewArtifactLocation(artifacts.BucketNamed(c.SourceBucket), c.SourceKey, c.ZipSubfolder)
}

// Validate reports missing required properties.
func (c Copy) Validate() error {
	var problems sitetheory.Problems
	if strings.TrimSpace(c.SourceBucket) == "" {
		problems.Addf("SourceBucket", "source bucket is required")
	}
	if strings.TrimSpace(c.DestinationBucket) == "" {
		problems.Addf("DestinationBucket", "destination bucket is required")
	}
	if strings.HasPrefix(c.DestinationPrefix, "/") {
		problems.Addf("DestinationPrefix", "prefix %q must not start with /", c.DestinationPrefix)
	}
	return problems.Err()
}

// PhysicalID identifies the copied content: s3://<bucket>/<prefix>.
func (c Copy) PhysicalID() string {
	return "s3://" + c.DestinationBucket + "/" + c.DestinationPrefix
}

// DefaultInvalidationPaths is used when no paths are supplied.
const DefaultInvalidationPaths = "/*"

// Invalidation drives the CloudFront invalidator. CopyDigest and SourceKey change on every
// content update, so CloudFormation sends an Update whenever the site changes.
type Invalidation struct {
	ServiceToken      string `json:"ServiceToken,omitempty"`
	DistributionID    string `json:"DistributionId"`
	InvalidationPaths string `json:"InvalidationPaths,omitempty"`
	CopyDigest        string `json:"CopyDigest,omitempty"`
	SourceKey         string `json:"SourceKey,omitempty"`
}

// JoinPaths renders invalidation paths as the comma separated property value.
func JoinPaths(paths []string) string {
	if len(paths) == 0 {
		return DefaultInvalidationPaths
	}
	return strings.Join(paths, ",")
}

// Paths splits InvalidationPaths, falling back to "/*".
func (i Invalidation) Paths() []string {
	var out []string
	for _, p := range strings.Split(i.InvalidationPaths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{DefaultInvalidationPaths}
	}
	return out
}

func (i Invalidation) Validate() error {
	if strings.TrimSpace(i.DistributionID) == "" {
		return sitetheory.ConfigurationError("DistributionId", "distribution id is required")
	}
	return nil
}

// Map renders v as a CloudFormation property map.
func Map(v any) (map[string]any, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode reads CloudFormation resource properties into out.
func Decode(props map[string]any, out any) error {
	body, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encode resource properties: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return sitetheory.ConfigurationError("ResourceProperties", "decode: %v", err)
	}
	return nil
}

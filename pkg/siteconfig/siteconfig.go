// Package siteconfig reads the YAML document describing one deployment and converts it into
// the assembler props. Conversion errors are ConfigurationErrors whose field is the YAML path.
package siteconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/network"
	"github.com/theory-cloud/sitetheory/pkg/plan"
	"github.com/theory-cloud/sitetheory/pkg/webapp"
	"github.com/theory-cloud/sitetheory/pkg/website"
)

const (
	DefaultWebsiteID = "Website"
	DefaultWebappID  = "Webapp"
	DefaultVPCID     = "Vpc"
)

type Document struct {
	Stack   StackConfig    `yaml:"stack"`
	Website *WebsiteConfig `yaml:"website,omitempty"`
	Webapp  *WebappConfig  `yaml:"webapp,omitempty"`
	VPC     *VPCConfig     `yaml:"vpc,omitempty"`
}

type StackConfig struct {
	Name    string `yaml:"name"`
	Region  string `yaml:"region,omitempty"`
	Account string `yaml:"account,omitempty"`
}

// ArtifactsConfig is the flat YAML form of an artifact copy configuration.
type ArtifactsConfig struct {
	SourceBucket string `yaml:"sourceBucket,omitempty"`
	SourceKey    string `yaml:"sourceKey,omitempty"`
	ZipSubfolder string `yaml:"zipSubfolder,omitempty"`
	CopyMode     string `yaml:"copyMode,omitempty"`
	// CodeBuild reads the source from the CodeBuildBucket/CodeBuildKey deployment parameters.
	CodeBuild bool `yaml:"codeBuild,omitempty"`

	Settings                   map[string]string            `yaml:"settings,omitempty"`
	InjectedArtifacts          []artifacts.InjectedArtifact `yaml:"injectedArtifacts,omitempty"`
	PolicyStatements           []artifacts.PolicyStatement  `yaml:"policyStatements,omitempty"`
	AdditionalPolicyStatements []artifacts.PolicyStatement  `yaml:"additionalPolicyStatements,omitempty"`
}

type WebsiteConfig struct {
	ID         string                    `yaml:"id,omitempty"`
	Artifacts  ArtifactsConfig           `yaml:"artifacts"`
	Route53    *website.DNSConfig        `yaml:"route53,omitempty"`
	CloudFront *website.CloudFrontConfig `yaml:"cloudfront,omitempty"`
	S3         *website.S3Config         `yaml:"s3,omitempty"`
}

// WebappConfig wraps the website section: with a webapp the website is assembled by it.
type WebappConfig struct {
	ID       string                `yaml:"id,omitempty"`
	API      webapp.APIConfig      `yaml:"api"`
	DNS      *webapp.DNSConfig     `yaml:"dns,omitempty"`
	Identity webapp.IdentityConfig `yaml:"identity,omitempty"`
}

type VPCConfig struct {
	ID            string `yaml:"id,omitempty"`
	network.Props `yaml:",inline"`
}

// Load reads and parses the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site configuration: %w", err)
	}
	return Parse(data)
}

// Parse decodes a document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, sitetheory.ConfigurationError("document", "site configuration is empty")
		}
		return nil, sitetheory.ConfigurationError("document", "%v", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the document shape. Props are validated by the assemblers.
func (d *Document) Validate() error {
	var problems sitetheory.Problems
	if strings.TrimSpace(d.Stack.Name) == "" {
		problems.Addf("stack.name", "stack name is required")
	}
	if d.Website == nil && d.VPC == nil {
		problems.Addf("website", "a website or a vpc is required")
	}
	if d.Webapp != nil && d.Website == nil {
		problems.Addf("website", "a webapp needs a website section")
	}
	if d.Website != nil {
		a := d.Website.Artifacts
		if a.CodeBuild && a.SourceBucket != "" {
			problems.Addf("website.artifacts.sourceBucket", "sourceBucket and codeBuild are mutually exclusive")
		}
		if !a.CodeBuild && strings.TrimSpace(a.SourceBucket) == "" {
			problems.Addf("website.artifacts.sourceBucket", "source bucket is required")
		}
		if _, err := artifacts.ParseCopyMode(a.CopyMode); err != nil {
			problems.Addf("website.artifacts.copyMode", "%v", err)
		}
	}
	return problems.Err()
}

// NewStack returns the plan stack the document deploys into.
func (d *Document) NewStack(opts ...plan.StackOption) *plan.Stack {
	all := []plan.StackOption{plan.WithRegion(d.Stack.Region), plan.WithAccount(d.Stack.Account)}
	return plan.NewStack(d.Stack.Name, append(all, opts...)...)
}

// CopyConfiguration converts the website artifacts section. CodeBuild sources declare their
// deployment parameters on stack.
func (d *Document) CopyConfiguration(stack *plan.Stack) (artifacts.CopyConfiguration, error) {
	if d.Website == nil {
		return artifacts.CopyConfiguration{}, sitetheory.ConfigurationError("website", "website section is missing")
	}
	cfg, err := d.Website.Artifacts.CopyConfiguration(stack)
	if err != nil {
		return artifacts.CopyConfiguration{}, withFieldPrefix(err, "website.artifacts")
	}
	return cfg, nil
}

// CopyConfiguration converts the section into a validated copy configuration. Error fields
// are relative to the section.
func (a ArtifactsConfig) CopyConfiguration(stack *plan.Stack) (artifacts.CopyConfiguration, error) {
	mode, err := artifacts.ParseCopyMode(a.CopyMode)
	if err != nil {
		return artifacts.CopyConfiguration{}, sitetheory.ConfigurationError("copyMode", "%v", err)
	}

	var cfg artifacts.CopyConfiguration
	if a.CodeBuild {
		if stack == nil {
			return artifacts.CopyConfiguration{}, sitetheory.ConfigurationError("codeBuild", "codeBuild sources need a stack")
		}
		cfg, err = artifacts.NewCodeBuildArtifacts(stack,
			artifacts.WithWebsiteSettings(literalSettings(a.Settings)),
			artifacts.WithWebsiteSubfolder(a.ZipSubfolder),
		).WebsiteCopyConfiguration()
		if err != nil {
			return artifacts.CopyConfiguration{}, err
		}
		if a.CopyMode != "" {
			cfg.Mode = mode
		}
	} else {
		loc, err := artifacts.NewArtifactLocation(artifacts.BucketNamed(a.SourceBucket), a.SourceKey, a.ZipSubfolder)
		if err != nil {
			return artifacts.CopyConfiguration{}, err
		}
		cfg = artifacts.CopyConfiguration{Location: loc, Mode: mode}
		if a.Settings != nil {
			cfg = cfg.WithSettings(literalSettings(a.Settings))
		}
	}
	cfg.InjectedArtifacts = a.InjectedArtifacts
	cfg.PolicyStatements = a.PolicyStatements
	cfg.AdditionalPolicyStatements = a.AdditionalPolicyStatements

	if err := cfg.Validate(); err != nil {
		return artifacts.CopyConfiguration{}, err
	}
	return cfg.Clone(), nil
}

// literalSettings escapes configured values so a "${" written in the file is kept as text
// rather than read as a deferred reference.
func literalSettings(settings map[string]string) map[string]string {
	if settings == nil {
		return nil
	}
	out := make(map[string]string, len(settings))
	for k, v := range settings {
		out[k] = plan.Escape(v)
	}
	return out
}

func (d *Document) WebsiteProps(stack *plan.Stack) (website.Props, error) {
	cfg, err := d.CopyConfiguration(stack)
	if err != nil {
		return website.Props{}, err
	}
	return website.Props{
		Artifacts:  cfg,
		Route53:    d.Website.Route53,
		CloudFront: d.Website.CloudFront,
		S3:         d.Website.S3,
	}, nil
}

func (d *Document) WebappProps(stack *plan.Stack) (webapp.Props, error) {
	if d.Webapp == nil {
		return webapp.Props{}, sitetheory.ConfigurationError("webapp", "webapp section is missing")
	}
	site, err := d.WebsiteProps(stack)
	if err != nil {
		return webapp.Props{}, err
	}
	return webapp.Props{
		API:      d.Webapp.API,
		DNS:      d.Webapp.DNS,
		Identity: d.Webapp.Identity,
		Website:  site,
	}, nil
}

// Result holds what Assemble built.
type Result struct {
	Stack   *plan.Stack
	Website *website.Website
	Webapp  *webapp.Webapp
	Network *network.Network
}

// Assemble builds every construct of the document into stack: the vpc first, then the webapp
// (which assembles the website) or the website alone.
func (d *Document) Assemble(stack *plan.Stack) (*Result, error) {
	if stack == nil {
		stack = d.NewStack()
	}
	out := &Result{Stack: stack}

	if d.VPC != nil {
		n, err := network.Assemble(stack, idOr(d.VPC.ID, DefaultVPCID), d.VPC.Props)
		if err != nil {
			return nil, withFieldPrefix(err, "vpc")
		}
		out.Network = n
	}

	switch {
	case d.Webapp != nil:
		props, err := d.WebappProps(stack)
		if err != nil {
			return nil, err
		}
		app, err := webapp.Assemble(stack, idOr(d.Webapp.ID, DefaultWebappID), props)
		if err != nil {
			return nil, withFieldPrefix(err, "webapp")
		}
		out.Webapp = app
		out.Website = app.Website
	case d.Website != nil:
		props, err := d.WebsiteProps(stack)
		if err != nil {
			return nil, err
		}
		site, err := website.Assemble(stack, idOr(d.Website.ID, DefaultWebsiteID), props)
		if err != nil {
			return nil, withFieldPrefix(err, "website")
		}
		out.Website = site
	}
	return out, nil
}

func idOr(id, fallback string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return fallback
}

// withFieldPrefix rewrites the field of every configuration error in err to sit under prefix.
func withFieldPrefix(err error, prefix string) error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		inner := joined.Unwrap()
		out := make([]error, 0, len(inner))
		for _, e := range inner {
			out = append(out, withFieldPrefix(e, prefix))
		}
		return errors.Join(out...)
	}
	var e *sitetheory.Error
	if !errors.As(err, &e) || e.Code != sitetheory.ErrorCodeConfiguration || e.Field == "" {
		return err
	}
	if strings.HasPrefix(e.Field, prefix+".") {
		return err
	}
	scoped := *e
	scoped.Field = prefix + "." + e.Field
	return &scoped
}

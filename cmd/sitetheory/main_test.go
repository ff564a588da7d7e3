package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/sitetheory/cdk-go/sitetheorycdk"
	"github.com/theory-cloud/sitetheory/pkg/siteconfig"
)

const siteConfig = `
stack:
  name: demo
  region: us-west-2
website:
  artifacts:
    sourceBucket: build-artifacts
    sourceKey: out.zip
    settings:
      apiEndpoint: api.example.com
  cloudfront:
    singlePageWebapp: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newDeps(out, errOut *bytes.Buffer) commandDeps {
	return commandDeps{
		load: siteconfig.Load,
		synth: func(*siteconfig.Document, sitetheorycdk.SynthOptions) (string, error) {
			return "", errors.New("synth not expected")
		},
		out:    out,
		errOut: errOut,
	}
}

func TestRunShowsHelp(t *testing.T) {
	var out, errOut bytes.Buffer

	code := run([]string{"--help"}, newDeps(&out, &errOut))
	require.Equal(t, 0, code)
	for _, cmd := range []string{"validate", "plan", "settings", "synth"} {
		require.Contains(t, out.String(), cmd)
	}
	require.Empty(t, errOut.String())
}

func TestRunRequiresSubcommand(t *testing.T) {
	var out, errOut bytes.Buffer

	code := run(nil, newDeps(&out, &errOut))
	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), "sitetheory --help")
}

func TestRunPlanRequiresConfig(t *testing.T) {
	var out, errOut bytes.Buffer

	code := run([]string{"plan"}, newDeps(&out, &errOut))
	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), "--config")
}

func TestRunValidate(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, siteConfig)

	code := run([]string{"validate", "--config", path}, newDeps(&out, &errOut))
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), path+": ok")
}

func TestRunValidateReportsConfigurationErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, `
stack:
  name: demo
website:
  artifacts:
    sourceKey: out.zip
`)

	code := run([]string{"validate", "-c", path}, newDeps(&out, &errOut))
	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), "website.artifacts.sourceBucket")
	require.Contains(t, errOut.String(), "Hint:")
}

func TestRunPlanPrintsResources(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, siteConfig)

	code := run([]string{"plan", "--config", path}, newDeps(&out, &errOut))
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "AWS::S3::Bucket")
	require.Contains(t, out.String(), "AWS::CloudFront::Distribution")
	require.Contains(t, out.String(), "SiteTheoryCopierFunction")
}

func TestRunSettingsPrintsDocument(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, siteConfig)

	code := run([]string{"settings", "--config", path}, newDeps(&out, &errOut))
	require.Equal(t, 0, code, errOut.String())

	var settings map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &settings))
	require.Equal(t, "api.example.com", settings["apiEndpoint"])
}

func TestRunSettingsKeepsLiteralTemplates(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, `
stack:
  name: demo
website:
  artifacts:
    sourceBucket: build-artifacts
    sourceKey: out.zip
    settings:
      greeting: "hello ${name}"
`)

	code := run([]string{"settings", "--config", path}, newDeps(&out, &errOut))
	require.Equal(t, 0, code, errOut.String())

	var settings map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &settings))
	require.Equal(t, "hello ${name}", settings["greeting"])
}

func TestRunSynthDispatches(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, siteConfig)

	var got sitetheorycdk.SynthOptions
	var gotStack string
	deps := newDeps(&out, &errOut)
	deps.synth = func(doc *siteconfig.Document, opts sitetheorycdk.SynthOptions) (string, error) {
		got, gotStack = opts, doc.Stack.Name
		return opts.OutDir, nil
	}

	code := run([]string{"synth", "--config", path, "--out", "build/cdk.out", "--handlers", "bin"}, deps)
	require.Equal(t, 0, code, errOut.String())
	require.Equal(t, "demo", gotStack)
	require.Equal(t, sitetheorycdk.SynthOptions{OutDir: "build/cdk.out", HandlerCodePath: "bin"}, got)
	require.Contains(t, out.String(), "build/cdk.out")
}

func TestRunSynthReportsFailure(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, siteConfig)

	code := run([]string{"synth", "--config", path}, newDeps(&out, &errOut))
	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), "synth failed: synth not expected")
}

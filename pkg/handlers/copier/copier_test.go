package copier

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/customresource"
	"github.com/theory-cloud/sitetheory/pkg/observability"
	"github.com/theory-cloud/sitetheory/testkit"
)

func zipArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func copyEvent(requestType cfn.RequestType, req customresource.Copy) cfn.Event {
	return testkit.CustomResourceEvent(testkit.CustomResourceEventOptions{
		RequestType:       requestType,
		LogicalResourceID: "SiteCopy",
		Properties:        req,
	})
}

func TestHandle_ExtractsZipIntoPrefix(t *testing.T) {
	t.Parallel()

	env := testkit.New()
	env.S3.Put("build-artifacts", "out.zip", zipArchive(t, map[string]string{
		"index.html":     "<html></html>",
		"assets/app.js":  "console.log(1)",
		"assets/":        "",
		"../escape.txt":  "nope",
		"settings.json":  `{"stale":"true"}`,
		"assets/app.css": "body{}",
	}), "application/zip")

	log := observability.NewTestLogger()
	h := New(env.S3, WithLogger(log))
	req := customresource.Copy{
		SourceBucket:      "build-artifacts",
		SourceKey:         "out.zip",
		ZipSubfolder:      ".",
		DestinationBucket: "site",
		DestinationPrefix: "demo-site-0123456789ab/",
		Files:             artifacts.Files{{Path: "settings.json", Content: `{"apiEndpoint":"api.example.com"}`}},
	}

	physicalID, data, err := h.Handle(context.Background(), copyEvent(cfn.RequestCreate, req))
	require.NoError(t, err)
	require.Equal(t, "s3://site/demo-site-0123456789ab/", physicalID)
	require.Equal(t, "demo-site-0123456789ab/", data["DestinationPrefix"])
	require.Equal(t, 5, data["ObjectCount"])

	require.Equal(t, []string{
		"demo-site-0123456789ab/assets/app.css",
		"demo-site-0123456789ab/assets/app.js",
		"demo-site-0123456789ab/index.html",
		"demo-site-0123456789ab/settings.json",
	}, env.S3.Keys("site"))

	settings, ok := env.S3.Object("site", "demo-site-0123456789ab/settings.json")
	require.True(t, ok)
	require.Equal(t, `{"apiEndpoint":"api.example.com"}`, string(settings.Body))
	require.Equal(t, "application/json", settings.ContentType)

	index, _ := env.S3.Object("site", "demo-site-0123456789ab/index.html")
	require.Contains(t, index.ContentType, "text/html")

	entries := log.Entries()
	require.NotEmpty(t, entries)
	require.Equal(t, "SiteCopy", entries[0].ResourceID)
}

func TestHandle_ZipSubfolderFiltersAndStrips(t *testing.T) {
	t.Parallel()

	env := testkit.New()
	env.S3.Put("ci", "bundle.zip", zipArchive(t, map[string]string{
		"website/build/index.html": "site",
		"website/build/js/app.js":  "js",
		"lambda/handler.zip":       "code",
	}), "")

	h := New(env.S3)
	_, data, err := h.Handle(context.Background(), copyEvent(cfn.RequestUpdate, customresource.Copy{
		SourceBucket:      "ci",
		SourceKey:         "bundle.zip",
		ZipSubfolder:      "website/build/",
		DestinationBucket: "site",
	}))
	require.NoError(t, err)
	require.Equal(t, 2, data["ObjectCount"])
	require.Equal(t, []string{"index.html", "js/app.js"}, env.S3.Keys("site"))
}

func TestHandle_SpoolsArchiveToTempDir(t *testing.T) {
	t.Parallel()

	entries := map[string]string{}
	for i := 0; i < 64; i++ {
		entries[fmt.Sprintf("assets/chunk-%02d.js", i)] = string(bytes.Repeat([]byte{'x'}, 32<<10))
	}
	env := testkit.New()
	env.S3.Put("ci", "bundle.zip", zipArchive(t, entries), "application/zip")

	dir := t.TempDir()
	h := New(env.S3, WithTempDir(dir))
	_, data, err := h.Handle(context.Background(), copyEvent(cfn.RequestCreate, customresource.Copy{
		SourceBucket:      "ci",
		SourceKey:         "bundle.zip",
		ZipSubfolder:      ".",
		DestinationBucket: "site",
	}))
	require.NoError(t, err)
	require.Equal(t, 64, data["ObjectCount"])

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, left)
}

func TestHandle_CopiesBucketRoot(t *testing.T) {
	t.Parallel()

	env := testkit.New()
	env.S3.PageSize = 2
	for _, key := range []string{"index.html", "css/site.css", "img/", "img/logo.png"} {
		env.S3.Put("src", key, []byte(key), "")
	}
	env.S3.Put("site", "existing.txt", []byte("kept"), "")

	h := New(env.S3)
	_, data, err := h.Handle(context.Background(), copyEvent(cfn.RequestCreate, customresource.Copy{
		SourceBucket:      "src",
		DestinationBucket: "site",
		DestinationPrefix: "v1/",
	}))
	require.NoError(t, err)
	require.Equal(t, 3, data["ObjectCount"])
	require.Equal(t, []string{"existing.txt", "v1/css/site.css", "v1/img/logo.png", "v1/index.html"}, env.S3.Keys("site"))
}

func TestHandle_CopiesSingleObject(t *testing.T) {
	t.Parallel()

	env := testkit.New()
	env.S3.Put("src", "releases/app.html", []byte("app"), "text/html")

	h := New(env.S3)
	_, data, err := h.Handle(context.Background(), copyEvent(cfn.RequestCreate, customresource.Copy{
		SourceBucket:      "src",
		SourceKey:         "releases/app.html",
		DestinationBucket: "site",
	}))
	require.NoError(t, err)
	require.Equal(t, 1, data["ObjectCount"])
	obj, ok := env.S3.Object("site", "app.html")
	require.True(t, ok)
	require.Equal(t, "app", string(obj.Body))
}

func TestHandle_DeleteIsNoop(t *testing.T) {
	t.Parallel()

	env := testkit.New()
	env.S3.Put("site", "v1/index.html", []byte("x"), "")

	h := New(env.S3)
	ev := copyEvent(cfn.RequestDelete, customresource.Copy{SourceBucket: "src", DestinationBucket: "site", DestinationPrefix: "v1/"})
	ev.PhysicalResourceID = "s3://site/v1/"
	physicalID, data, err := h.Handle(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, "s3://site/v1/", physicalID)
	require.Nil(t, data)
	require.Equal(t, []string{"v1/index.html"}, env.S3.Keys("site"))
	require.Empty(t, env.S3.Puts)
}

func TestHandle_Failures(t *testing.T) {
	t.Parallel()

	t.Run("missing archive", func(t *testing.T) {
		t.Parallel()
		h := New(testkit.NewFakeS3Client())
		_, _, err := h.Handle(context.Background(), copyEvent(cfn.RequestCreate, customresource.Copy{
			SourceBucket: "src", SourceKey: "out.zip", ZipSubfolder: ".", DestinationBucket: "site",
		}))
		require.True(t, sitetheory.IsCode(err, sitetheory.ErrorCodeProvisioningFailed))
	})

	t.Run("not a zip", func(t *testing.T) {
		t.Parallel()
		client := testkit.NewFakeS3Client()
		client.Put("src", "out.zip", []byte("plain"), "")
		h := New(client)
		_, _, err := h.Handle(context.Background(), copyEvent(cfn.RequestCreate, customresource.Copy{
			SourceBucket: "src", SourceKey: "out.zip", ZipSubfolder: ".", DestinationBucket: "site",
		}))
		require.True(t, sitetheory.IsCode(err, sitetheory.ErrorCodeProvisioningFailed))
	})

	t.Run("temp dir unavailable", func(t *testing.T) {
		t.Parallel()
		client := testkit.NewFakeS3Client()
		client.Put("src", "out.zip", zipArchive(t, map[string]string{"index.html": "x"}), "")
		h := New(client, WithTempDir(filepath.Join(t.TempDir(), "missing")))
		_, _, err := h.Handle(context.Background(), copyEvent(cfn.RequestCreate, customresource.Copy{
			SourceBucket: "src", SourceKey: "out.zip", ZipSubfolder: ".", DestinationBucket: "site",
		}))
		require.True(t, sitetheory.IsCode(err, sitetheory.ErrorCodeProvisioningFailed))
		require.Empty(t, client.Keys("site"))
	})

	t.Run("put error on injected file", func(t *testing.T) {
		t.Parallel()
		client := testkit.NewFakeS3Client()
		client.Put("src", "index.html", []byte("x"), "")
		client.PutErr = errors.New("access denied")
		h := New(client)
		_, _, err := h.Handle(context.Background(), copyEvent(cfn.RequestCreate, customresource.Copy{
			SourceBucket: "src", DestinationBucket: "site",
			Files: artifacts.Files{{Path: "settings.json", Content: "{}"}},
		}))
		require.ErrorContains(t, err, "access denied")
		require.True(t, sitetheory.IsCode(err, sitetheory.ErrorCodeProvisioningFailed))
	})

	t.Run("invalid properties", func(t *testing.T) {
		t.Parallel()
		h := New(testkit.NewFakeS3Client())
		_, _, err := h.Handle(context.Background(), copyEvent(cfn.RequestCreate, customresource.Copy{SourceBucket: "src"}))
		require.True(t, sitetheory.IsConfigurationError(err))
	})
}

func TestContentType(t *testing.T) {
	t.Parallel()

	require.Equal(t, "application/json", ContentType("settings.json"))
	require.Contains(t, ContentType("INDEX.HTML"), "text/html")
	require.Equal(t, "application/octet-stream", ContentType("LICENSE"))
	require.Equal(t, "application/octet-stream", ContentType("data.unknownext"))
}

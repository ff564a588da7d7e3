package artifacts

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/sitetheory"
)

func TestNewArtifactLocation_Forms(t *testing.T) {
	t.Parallel()

	root, err := NewArtifactLocation(BucketNamed("src"), "", "")
	require.NoError(t, err)
	require.True(t, root.CopiesBucketRoot())
	require.False(t, root.IsZipped())

	single, err := NewArtifactLocation(BucketNamed("src"), "site/index.html", "")
	require.NoError(t, err)
	require.False(t, single.CopiesBucketRoot())
	require.False(t, single.IsZipped())

	zipped, err := NewArtifactLocation(BucketNamed("src"), "build.zip", "dist/")
	require.NoError(t, err)
	require.True(t, zipped.IsZipped())
	require.False(t, zipped.ExtractsAll())
}

func TestNewArtifactLocation_ZipAliases(t *testing.T) {
	t.Parallel()

	for _, alias := range []string{".", "/", "./", " . "} {
		loc, err := NewArtifactLocation(BucketNamed("src"), "build.zip", alias)
		require.NoError(t, err, alias)
		require.Equal(t, ".", loc.ZipSubfolder)
		require.True(t, loc.ExtractsAll())
	}
}

func TestNewArtifactLocation_ZipWithoutKey(t *testing.T) {
	t.Parallel()

	_, err := NewArtifactLocation(BucketNamed("src"), "", "dist/")
	require.Error(t, err)
	require.True(t, sitetheory.IsConfigurationError(err))

	var e *sitetheory.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "zipSubfolder", e.Field)
}

func TestNewArtifactLocation_MissingBucket(t *testing.T) {
	t.Parallel()

	_, err := NewArtifactLocation(BucketRef{}, "", "")
	require.True(t, sitetheory.IsConfigurationError(err))
}

func TestArtifactLocation_EntryPath(t *testing.T) {
	t.Parallel()

	all := ArtifactLocation{Bucket: BucketNamed("src"), Key: "a.zip", ZipSubfolder: "."}
	rel, ok := all.EntryPath("website/build/index.html")
	require.True(t, ok)
	require.Equal(t, "website/build/index.html", rel)

	_, ok = all.EntryPath("website/")
	require.False(t, ok)
	_, ok = all.EntryPath("../etc/passwd")
	require.False(t, ok)
	_, ok = all.EntryPath("a/../../b")
	require.False(t, ok)

	sub := ArtifactLocation{Bucket: BucketNamed("src"), Key: "a.zip", ZipSubfolder: "website/build/"}
	rel, ok = sub.EntryPath("website/build/static/app.js")
	require.True(t, ok)
	require.Equal(t, "static/app.js", rel)

	_, ok = sub.EntryPath("website/buildx/app.js")
	require.False(t, ok)
	_, ok = sub.EntryPath("README.md")
	require.False(t, ok)
	_, ok = sub.EntryPath("website/build/")
	require.False(t, ok)

	noSlash := ArtifactLocation{Bucket: BucketNamed("src"), Key: "a.zip", ZipSubfolder: "dist"}
	rel, ok = noSlash.EntryPath("dist/index.html")
	require.True(t, ok)
	require.Equal(t, "index.html", rel)
}

func TestBucketRef_ARN(t *testing.T) {
	t.Parallel()

	require.Equal(t, "arn:${AWS::Partition}:s3:::src", BucketNamed("src").ARN())
	require.Equal(t, "arn:${AWS::Partition}:s3:::src/*", BucketNamed("src").ObjectsARN())
	require.Equal(t, "arn:aws:s3:::x", BucketRef{Name: "x", Arn: "arn:aws:s3:::x"}.ARN())
}

package website

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/sitetheory"
)

func TestResolveMode(t *testing.T) {
	t.Parallel()

	mode, err := ResolveMode(Props{})
	require.NoError(t, err)
	require.Equal(t, ModeStorageOnly, mode)

	mode, err = ResolveMode(Props{S3: &S3Config{}})
	require.NoError(t, err)
	require.Equal(t, ModeStorageOnly, mode)

	mode, err = ResolveMode(Props{CloudFront: &CloudFrontConfig{}})
	require.NoError(t, err)
	require.Equal(t, ModeDistributed, mode)
	require.Equal(t, "DISTRIBUTED", mode.String())

	_, err = ResolveMode(Props{S3: &S3Config{}, CloudFront: &CloudFrontConfig{}})
	require.True(t, sitetheory.IsConfigurationError(err))
	require.ErrorContains(t, err, "no longer fall back to a storage-only site")
	require.ErrorContains(t, err, "remove cloudfront")
}

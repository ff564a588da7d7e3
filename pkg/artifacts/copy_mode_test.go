package artifacts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"
)

func TestResolveDestination_Root(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/", ResolveDestination(CopyModeRoot, "stack/Site"))
	require.Equal(t, "/", ResolveDestination(CopyModeRoot, ""))
}

func TestResolveDestination_Subfolder(t *testing.T) {
	t.Parallel()

	dest := ResolveDestination(CopyModeSubfolder, "Demo/Site")
	require.True(t, strings.HasPrefix(dest, "/demo-site-"), dest)
	require.Len(t, dest, len("/demo-site-")+12)
	require.Equal(t, dest, ResolveDestination(CopyModeSubfolder, "Demo/Site"))
	require.NotEqual(t, dest, ResolveDestination(CopyModeSubfolder, "Demo/Site2"))
}

func TestProperty_SubfolderDestinationIsStable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.StringMatching(`[A-Za-z0-9/_-]{1,40}`).Draw(t, "a")
		b := rapid.StringMatching(`[A-Za-z0-9/_-]{1,40}`).Draw(t, "b")

		first := ResolveDestination(CopyModeSubfolder, a)
		if first != ResolveDestination(CopyModeSubfolder, a) {
			t.Fatalf("destination for %q is not deterministic", a)
		}
		if first == "/" || !strings.HasPrefix(first, "/") {
			t.Fatalf("unexpected subfolder destination %q", first)
		}
		if a != b && first == ResolveDestination(CopyModeSubfolder, b) {
			t.Fatalf("identities %q and %q collide on %q", a, b, first)
		}
		if ResolveDestination(CopyModeRoot, a) != "/" {
			t.Fatalf("root destination must be /")
		}
	})
}

func TestObjectPrefixAndOriginPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", ObjectPrefix("/"))
	require.Equal(t, "site-abc/", ObjectPrefix("/site-abc"))
	require.Equal(t, "", OriginPath("/"))
	require.Equal(t, "/site-abc", OriginPath("/site-abc"))
	require.Equal(t, "index.html", ObjectKey("/", "index.html"))
	require.Equal(t, "site-abc/settings.json", ObjectKey("/site-abc", "/settings.json"))
}

func TestCopyMode_Text(t *testing.T) {
	t.Parallel()

	var cfg struct {
		Mode CopyMode `yaml:"mode"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("mode: root\n"), &cfg))
	require.Equal(t, CopyModeRoot, cfg.Mode)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.Equal(t, "mode: ROOT\n", string(out))

	require.Error(t, yaml.Unmarshal([]byte("mode: sideways\n"), &cfg))

	mode, err := ParseCopyMode("")
	require.NoError(t, err)
	require.Equal(t, CopyModeSubfolder, mode)
	require.Equal(t, "CopyMode(7)", CopyMode(7).String())
}

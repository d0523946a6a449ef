package vendorconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ParsesRosterAndExpandsEnv(t *testing.T) {
	t.Setenv("TEST_COUNTY", "Alameda")
	dir := t.TempDir()
	path := filepath.Join(dir, "cities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cities:
  - banana: berkeleyCA
    name: Berkeley
    state: CA
    vendor: custom
    slug: berkeley
    county: ${TEST_COUNTY}
    status: active
    zipcodes: ["94702", "94703"]
`), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	require.Len(t, r.Cities, 1)
	assert.Equal(t, "berkeleyCA", r.Cities[0].Banana)
	assert.Equal(t, "Alameda", r.Cities[0].County)
	assert.Equal(t, []string{"94702", "94703"}, r.Cities[0].Zipcodes)
}

func TestLoad_MissingBananaRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cities:
  - name: Nowhere
    vendor: legistar
`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

package checklist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overridesCSV = `nm_id,field,comment,2025-05-01,2025-05-02
100,orders_count,manual fix,5,
100,spp,,"0,12",0.15
200,stocks_total,,,40
broken,orders_count,,1,2
`

func TestCrossOverrideStore_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.csv")
	require.NoError(t, os.WriteFile(path, []byte(overridesCSV), 0o644))

	store := NewCrossOverrideStore(path, testLogger())
	overrides := store.Overrides()
	require.NotNil(t, overrides)

	v, ok := overrides.Value(100, "2025-05-01", "orders_count")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)

	// Comma decimals parse; empty cells stay absent.
	v, ok = overrides.Value(100, "2025-05-01", "spp")
	require.True(t, ok)
	assert.Equal(t, 0.12, v)
	_, ok = overrides.Value(100, "2025-05-02", "orders_count")
	assert.False(t, ok)

	v, ok = overrides.Value(200, "2025-05-02", "stocks_total")
	require.True(t, ok)
	assert.Equal(t, 40.0, v)

	// Rows with an unparseable SKU are dropped.
	_, ok = overrides[dayKey{0, "2025-05-01"}]
	assert.False(t, ok)
}

func TestCrossOverrideStore_MtimeReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.csv")
	require.NoError(t, os.WriteFile(path, []byte(overridesCSV), 0o644))

	store := NewCrossOverrideStore(path, testLogger())
	first := store.Overrides()
	require.NotNil(t, first)

	// Unchanged mtime returns the cached set.
	assert.Equal(t, len(first), len(store.Overrides()))

	updated := "nm_id,field,comment,2025-05-01\n100,orders_count,,9\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	reloaded := store.Overrides()
	v, ok := reloaded.Value(100, "2025-05-01", "orders_count")
	require.True(t, ok)
	assert.Equal(t, 9.0, v)
	_, ok = reloaded.Value(100, "2025-05-01", "spp")
	assert.False(t, ok)
}

func TestCrossOverrideStore_MissingFile(t *testing.T) {
	store := NewCrossOverrideStore(filepath.Join(t.TempDir(), "nope.csv"), testLogger())
	assert.Nil(t, store.Overrides())

	empty := NewCrossOverrideStore("", testLogger())
	assert.Nil(t, empty.Overrides())
}

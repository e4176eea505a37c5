package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/nsequant/pkg/models"
)

func TestCacheRoundTrip(t *testing.T) {
	in := []models.PriceRecord{
		{Date: day("2025-01-02"), Symbol: "AAA", Series: "EQ", Open: 1, High: 2, Low: 0.5, Close: 1.5,
			Last: 1.4, PrevClose: 1.1, Volume: 10, Value: 15, DeliveryQty: 5, DeliveryPct: 50, HasDelivery: true},
		{Date: day("2025-01-03"), Symbol: "BBB", Series: "BE", Close: 99.95, Volume: 1 << 40},
		{Date: day("1999-12-31"), Symbol: "AAA", Series: "SM", Close: 3},
	}
	path := filepath.Join(t.TempDir(), "nested", CacheFileName)
	require.NoError(t, writeCache(path, in))

	out, err := readCache(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file renamed away")
}

func TestCacheEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), CacheFileName)
	require.NoError(t, writeCache(path, nil))
	out, err := readCache(path)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadCacheRejectsForeignFiles(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"wrong magic", []byte("PK\x03\x04garbage")},
		{"future version", append([]byte(cacheMagic), 9)},
		{"truncated body", append([]byte(cacheMagic), cacheVersion, 0x28, 0xb5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), CacheFileName)
			require.NoError(t, os.WriteFile(path, tt.content, 0o644))
			_, err := readCache(path)
			require.Error(t, err)
			var dse *DataSourceError
			assert.ErrorAs(t, err, &dse)
		})
	}
}

func TestStatCache(t *testing.T) {
	assert.False(t, statCache("").Exists)

	path := filepath.Join(t.TempDir(), CacheFileName)
	assert.False(t, statCache(path).Exists)
	require.NoError(t, writeCache(path, []models.PriceRecord{{Date: day("2025-01-01"), Symbol: "A", Series: "EQ", Close: 1}}))

	info := statCache(path)
	assert.True(t, info.Exists)
	assert.Equal(t, path, info.Path)
	assert.Positive(t, info.SizeBytes)
	assert.False(t, info.ModTime.IsZero())
}

package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayBounds(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name    string
		loc     *time.Location
		day     string
		wantLen time.Duration
		wantErr bool
	}{
		{name: "utc", loc: time.UTC, day: "2024-05-01", wantLen: 24 * time.Hour},
		{name: "dst start", loc: ny, day: "2024-03-10", wantLen: 23 * time.Hour},
		{name: "bad date", loc: time.UTC, day: "05/01/2024", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			start, end, err := dayBounds(tt.loc, tt.day)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.day, start.Format("2006-01-02"))
			assert.Zero(t, start.Hour())
			assert.Equal(t, tt.wantLen, end.Sub(start))
		})
	}
}

func TestConfigInitThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)

	rootCmd.SetArgs([]string{"config", "init", "-o", path})
	require.NoError(t, rootCmd.Execute())
	assert.FileExists(t, path)

	out.Reset()
	rootCmd.SetArgs([]string{"config", "validate", "-f", path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Configuration valid")
	assert.Contains(t, out.String(), "paper-001 (10000.00 USDT)")
	assert.Contains(t, out.String(), "4 prices, 2 orders")
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "trader version "+version+"\n", out.String())
}

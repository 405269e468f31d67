package sim

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile_OverridesDefaults(t *testing.T) {
	p, err := ParseProfile([]byte(`
stroke_rate: 1.1
turn_at: 20s
turn_deg: -30
fix_every: 0s
seed: 7
`))
	require.NoError(t, err)

	want := DefaultProfile()
	want.StrokeRate = 1.1
	want.TurnAt = 20 * time.Second
	want.TurnDeg = -30
	want.FixEvery = 0
	want.Seed = 7
	assert.Equal(t, want, p)
}

func TestParseProfile_Empty(t *testing.T) {
	p, err := ParseProfile(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), p)
}

func TestParseProfile_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "stroke_hz: 1\n",
		"bad duration":   "turn_at: soon\n",
		"negative rate":  "stroke_rate: -1\n",
		"negative noise": "noise: -0.1\n",
		"negative rest":  "rest_at: -5s\n",
		"not a mapping":  "- 1\n- 2\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProfile([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stroke_rate: 1.4\nrest_at: 30s\n"), 0o644))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, 1.4, p.StrokeRate)
	assert.Equal(t, 30*time.Second, p.RestAt)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadProfile_Shipped(t *testing.T) {
	p, err := LoadProfile(filepath.Join("..", "..", "profiles", "lake_crossing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, p.TurnAt)
	assert.Equal(t, int64(42), p.Seed)
}

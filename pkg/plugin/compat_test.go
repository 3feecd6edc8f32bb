package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckEngineCompatibility(t *testing.T) {
	manifestWithEngine := func(constraint string) *Manifest {
		m := testManifest("p1")
		m.Engines = &Engines{SQLPro: constraint}
		return m
	}

	t.Run("no engines block is compatible", func(t *testing.T) {
		assert.NoError(t, CheckEngineCompatibility(testManifest("p1"), "1.0.0"))
	})

	t.Run("empty constraint is compatible", func(t *testing.T) {
		assert.NoError(t, CheckEngineCompatibility(manifestWithEngine(""), "1.0.0"))
	})

	t.Run("satisfied range", func(t *testing.T) {
		assert.NoError(t, CheckEngineCompatibility(manifestWithEngine(">=1.0.0 <2.0.0"), "1.4.2"))
		assert.NoError(t, CheckEngineCompatibility(manifestWithEngine("^1.0.0"), "1.9.0"))
	})

	t.Run("unsatisfied range", func(t *testing.T) {
		err := CheckEngineCompatibility(manifestWithEngine(">=2.0.0"), "1.4.2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires sqlpro")
	})

	t.Run("invalid constraint", func(t *testing.T) {
		err := CheckEngineCompatibility(manifestWithEngine("not-a-range!"), "1.0.0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid engine constraint")
	})

	t.Run("invalid host version", func(t *testing.T) {
		err := CheckEngineCompatibility(manifestWithEngine("^1.0.0"), "garbage")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid host version")
	})
}

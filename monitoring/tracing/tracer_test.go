package tracing

import (
	"testing"

	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
)

func TestSetup_Disabled(t *testing.T) {
	done, err := Setup("", "", "", 0, false)
	require.NoError(t, err)
	done()
}

func TestSetup_Validation(t *testing.T) {
	_, err := Setup("", "node", "http://127.0.0.1:14268/api/traces", 0.2, true)
	assert.ErrorContains(t, "service name cannot be empty", err)

	_, err = Setup("epoch-engine", "node", "http://127.0.0.1:14268/api/traces", 1.5, true)
	assert.ErrorContains(t, "sample fraction", err)
}

func TestSetup_Enabled(t *testing.T) {
	done, err := Setup("epoch-engine", "node", "http://127.0.0.1:14268/api/traces", 0.2, true)
	require.NoError(t, err)
	t.Cleanup(func() {
		done()
		_, err := Setup("", "", "", 0, false)
		require.NoError(t, err)
	})
}

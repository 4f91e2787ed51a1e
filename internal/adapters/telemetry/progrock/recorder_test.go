package progrock_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/crosscheck/internal/adapters/telemetry/progrock"
)

func TestRecorder_Units(t *testing.T) {
	recorder := progrock.New()

	ok := recorder.Unit("root@1.0.0")
	n, err := ok.Write([]byte("solver=solved reference=solved\n"))
	require.NoError(t, err)
	assert.Equal(t, 31, n)
	ok.Done(nil)

	recorder.Unit("leaf@1.0.0").Done(errors.New("engines disagree"))
	recorder.Unit("other@9.9.9").Skipped()

	assert.NoError(t, recorder.Close())
}

package cli

import (
	"os"
	"path/filepath"
	"testing"

	coreerrors "securesvc-core/internal/core/errors"
	"securesvc-core/internal/secure/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const videoAudioScenario = `
name: video-audio
steps:
  - action: bind
  - action: protect
    service: video
    outcome: success
  - action: protect
    service: audio
    outcome: rejected
  - action: data
    service: video
    hex: "16 03 03 00 05"
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(videoAudioScenario))
	require.NoError(t, err)

	assert.Equal(t, "video-audio", sc.Name)
	require.Len(t, sc.Steps, 4)

	assert.Equal(t, ActionBind, sc.Steps[0].Action)

	assert.Equal(t, service.Video, sc.Steps[1].ServiceType())
	assert.Equal(t, service.ProtectSuccess, sc.Steps[1].ProtectOutcome())

	assert.Equal(t, service.Audio, sc.Steps[2].ServiceType())
	assert.Equal(t, service.ProtectRejected, sc.Steps[2].ProtectOutcome())

	assert.Equal(t, service.HandshakePayload{0x16, 0x03, 0x03, 0x00, 0x05}, sc.Steps[3].Payload())
}

func TestParseScenario_NumericValues(t *testing.T) {
	sc, err := ParseScenario([]byte(`
steps:
  - action: PROTECT
    service: "0x07"
    outcome: "42"
`))
	require.NoError(t, err)
	assert.Equal(t, ActionProtect, sc.Steps[0].Action)
	assert.Equal(t, service.RPC, sc.Steps[0].ServiceType())
	assert.Equal(t, service.ProtectResult(42), sc.Steps[0].ProtectOutcome())
	assert.False(t, sc.Steps[0].ProtectOutcome().Known())
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code coreerrors.ErrorCode
	}{
		{"malformed", "steps: [", coreerrors.CodeInvalidData},
		{"no steps", "name: empty", coreerrors.CodeValidationError},
		{"unknown action", "steps:\n  - action: reconnect", coreerrors.CodeValidationError},
		{"missing action", "steps:\n  - service: video", coreerrors.CodeValidationError},
		{"bad service", "steps:\n  - action: protect\n    service: fax\n    outcome: success", coreerrors.CodeValidationError},
		{"bad outcome", "steps:\n  - action: protect\n    service: video\n    outcome: maybe", coreerrors.CodeValidationError},
		{"bad hex", "steps:\n  - action: data\n    service: video\n    hex: zz", coreerrors.CodeValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, tt.code, coreerrors.GetCode(err))
		})
	}
}

func TestParseScenario_StepDetail(t *testing.T) {
	_, err := ParseScenario([]byte("steps:\n  - action: bind\n  - action: fly"))
	require.Error(t, err)

	var ce *coreerrors.Error
	require.True(t, coreerrors.As(err, &ce))
	assert.Equal(t, "2", ce.Detail("step"))
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(videoAudioScenario), 0o600))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Len(t, sc.Steps, 4)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeNotFound, coreerrors.GetCode(err))
}

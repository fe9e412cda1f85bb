package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "framestream.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, CodecLengthPrefix, cfg.Codec)
	assert.Equal(t, ByteOrderBig, cfg.ByteOrder)
	assert.Equal(t, 4096, cfg.ChunkSize)
	assert.Zero(t, cfg.ReadTimeout)
	assert.Equal(t, "q", cfg.Window.QuitKey)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
address: ws://camera.local:8485/stream
codec: tagged
byte_order: little
envelope: json
decoder: gocv
read_timeout: 5s
chunk_size: 8192
window:
  title: Driver
  quit_key: x
alert:
  sound: /tmp/beep.wav
  command: [ffplay, -nodisp, -autoexit]
log:
  level: debug
  backend: zap
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://camera.local:8485/stream", cfg.Address)
	assert.Equal(t, CodecTagged, cfg.Codec)
	assert.Equal(t, ByteOrderLittle, cfg.ByteOrder)
	assert.Equal(t, EnvelopeJSON, cfg.Envelope)
	assert.Equal(t, DecoderGoCV, cfg.Decoder)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 8192, cfg.ChunkSize)
	assert.Equal(t, uint64(64<<20), cfg.MaxMessageSize)
	assert.Equal(t, "Driver", cfg.Window.Title)
	assert.Equal(t, "x", cfg.Window.QuitKey)
	assert.Equal(t, []string{"ffplay", "-nodisp", "-autoexit"}, cfg.Alert.Command)
	assert.Equal(t, BackendZap, cfg.Log.Backend)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"codec":      "codec: pickle\n",
		"byte order": "byte_order: middle\n",
		"quit key":   "window:\n  quit_key: qq\n",
		"backend":    "log:\n  backend: logrus\n",
		"syntax":     "address: [unterminated\n",
		"timeout":    "read_timeout: -1s\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

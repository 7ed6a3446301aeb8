package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  log_level: info
  broadcast_interval: 30
  access_plus: true
shares:
  - name: Data
    path: /srv/data
  - name: Secret
    path: /srv/secret
    attributes: [protected, readonly]
    password: AB12
printers:
  - name: Laser
    path: /srv/print/laser
    definition: /etc/ras/laser.fc6
    description: Office laser
    poll_interval: 10
    command: lp -d laser %f
mimemap:
  - ext: log
    filetype: "fff"
  - ext: dat
    filetype: "0xADF"
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 30, cfg.Server.BroadcastInterval)
	assert.True(t, cfg.Server.AccessPlus)

	require.Len(t, cfg.Shares, 2)
	assert.Equal(t, uint32(0), cfg.Shares[0].Attributes)
	assert.Equal(t, uint32(ShareProtected|ShareReadOnly), cfg.Shares[1].Attributes)
	assert.True(t, cfg.Shares[1].Protected())
	assert.Equal(t, "AB12", cfg.Shares[1].Password)

	require.Len(t, cfg.Printers, 1)
	assert.Equal(t, "lp -d laser %f", cfg.Printers[0].Command)
	assert.Equal(t, 10, cfg.Printers[0].PollInterval)

	assert.Equal(t, uint32(0xFFF), cfg.MimeMap["log"])
	assert.Equal(t, uint32(0xADF), cfg.MimeMap["dat"])
}

func TestShareNamedIsCaseInsensitive(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.NotNil(t, cfg.ShareNamed("data"))
	assert.Equal(t, "Data", cfg.ShareNamed("DATA").Name)
	assert.Nil(t, cfg.ShareNamed("nope"))
}

func TestDefaultBroadcastInterval(t *testing.T) {
	cfg, err := Parse([]byte("shares:\n  - name: A\n    path: /srv/a\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBroadcastInterval, cfg.Server.BroadcastInterval)

	cfg, err = Parse([]byte("server:\n  broadcast_interval: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Server.BroadcastInterval, "zero disables broadcasts and must survive loading")
}

func TestPrinterCommandNeedsPlaceholder(t *testing.T) {
	_, err := Parse([]byte(`
printers:
  - name: Bad
    path: /srv/print/bad
    definition: /etc/ras/bad.fc6
    command: lp -d bad
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Command")
}

func TestDuplicateShareNames(t *testing.T) {
	_, err := Parse([]byte(`
shares:
  - name: Data
    path: /srv/a
  - name: data
    path: /srv/b
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestProtectedShareNeedsPassword(t *testing.T) {
	_, err := Parse([]byte(`
shares:
  - name: Secret
    path: /srv/secret
    attributes: [protected]
`))
	require.Error(t, err)
}

func TestBadFiletype(t *testing.T) {
	_, err := Parse([]byte("mimemap:\n  - ext: x\n    filetype: \"123456\"\n"))
	require.Error(t, err)

	_, err = Parse([]byte("mimemap:\n  - ext: x\n    filetype: \"zzz\"\n"))
	require.Error(t, err)
}

func TestBadAttribute(t *testing.T) {
	_, err := Parse([]byte("shares:\n  - name: A\n    path: /srv/a\n    attributes: [magic]\n"))
	require.Error(t, err)
}

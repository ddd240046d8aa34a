package keyfile

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcafuse/mcafuse/internal/cryptosec"
)

func writeKeyfile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.xml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoad_RoundTrip(t *testing.T) {
	raw := make([]byte, cryptosec.KeySize)
	for i := range raw {
		raw[i] = byte(i)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	path := writeKeyfile(t, `<?xml version="1.0"?><McAfeeKey><key>`+encoded+`</key></McAfeeKey>`)

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestLoad_MissingKeyElement(t *testing.T) {
	path := writeKeyfile(t, `<?xml version="1.0"?><McAfeeKey></McAfeeKey>`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_NotBase64(t *testing.T) {
	path := writeKeyfile(t, `<McAfeeKey><key>not-valid-base64!!</key></McAfeeKey>`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_WrongKeyLength(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("too-short"))
	path := writeKeyfile(t, `<McAfeeKey><key>`+encoded+`</key></McAfeeKey>`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MalformedXML(t *testing.T) {
	path := writeKeyfile(t, `<McAfeeKey><key>unterminated`)
	_, err := Load(path)
	require.Error(t, err)
}

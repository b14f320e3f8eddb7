package clientconf

import (
	"os"
	"path/filepath"
	"testing"

	"wgward/internal/clients/types"
	"wgward/internal/params"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() *params.ServerParameters {
	return &params.ServerParameters{
		InterfaceName: "wg0",
		PublicIP:      "2001:db8::1",
		Port:          51820,
		PublicKey:     "server-public",
		DNS1:          "1.1.1.1",
		DNS2:          "1.0.0.1",
		AllowedIPs:    "0.0.0.0/0,::/0",
		IPv4Base:      "10.66.66.",
		IPv6Base:      "fd42:42:42::",
	}
}

func testClient() *types.Client {
	return &types.Client{
		Name:         "alice",
		IPv4:         "10.66.66.2",
		IPv6:         "fd42:42:42::2",
		PublicKey:    "alice-public",
		PrivateKey:   "alice+private/key=",
		PresharedKey: "alice+psk=",
	}
}

const expectedClientFile = `[Interface]
PrivateKey = alice+private/key=
Address = 10.66.66.2/32,fd42:42:42::2/128
DNS = 1.1.1.1,1.0.0.1

[Peer]
PublicKey = server-public
PresharedKey = alice+psk=
Endpoint = [2001:db8::1]:51820
AllowedIPs = 0.0.0.0/0,::/0
`

func TestRender(t *testing.T) {
	content, err := Render(testClient(), testParams())

	require.NoError(t, err)
	assert.Equal(t, expectedClientFile, content)
}

func TestWriteCreatesOwnerOnlyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clients")
	writer := NewWriter(dir, testParams())

	path, err := writer.Write(testClient())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "wg0-client-alice.conf"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, FileMode, info.Mode().Perm())

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, DirMode, dirInfo.Mode().Perm())

	content, err := writer.Read(path)
	require.NoError(t, err)
	assert.Equal(t, expectedClientFile, string(content))
}

func TestReadMissingFile(t *testing.T) {
	writer := NewWriter(t.TempDir(), testParams())

	_, err := writer.Read(writer.Path("nobody"))

	assert.ErrorIs(t, err, ErrClientFileNotFound)
}

func TestRemoveIgnoresMissingFile(t *testing.T) {
	writer := NewWriter(t.TempDir(), testParams())

	path, err := writer.Write(testClient())
	require.NoError(t, err)

	require.NoError(t, writer.Remove(path))
	assert.NoFileExists(t, path)
	assert.NoError(t, writer.Remove(path))
	assert.NoError(t, writer.Remove(""))
}

func TestValidateNameRejectsPathEscapes(t *testing.T) {
	for _, name := range []string{"", "../wg0", "x/../../wg0", `a\b`, "a..b", "nul\x00"} {
		assert.ErrorIs(t, ValidateName(name), ErrUnsafeClientName, name)
	}

	for _, name := range []string{"alice", "bob_2", "my-phone", "laptop.home"} {
		assert.NoError(t, ValidateName(name), name)
	}
}

func TestWriteRejectsUnsafeName(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(filepath.Join(dir, "clients"), testParams())

	client := testClient()
	client.Name = "x/../../wg0"

	_, err := writer.Write(client)

	assert.ErrorIs(t, err, ErrUnsafeClientName)
	assert.NoFileExists(t, filepath.Join(dir, "wg0.conf"))
}

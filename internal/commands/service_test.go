package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wgward/internal/clientconf"
	"wgward/internal/clients"
	"wgward/internal/database"
	"wgward/internal/lifecycle"
	"wgward/internal/metrics"
	"wgward/internal/params"
	"wgward/internal/serverconf"
	"wgward/internal/wg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

type noopSyncer struct{}

func (noopSyncer) Sync(context.Context) error { return nil }

type staticState struct {
	peers []wg.PeerState
}

func (s *staticState) ReadPeers(context.Context, string) ([]wg.PeerState, error) {
	return s.peers, nil
}

const testServerDocument = "[Interface]\nListenPort = 51820\n"

func newTestService(t *testing.T) (*Service, *staticState) {
	t.Helper()

	return newTestServiceWithDocument(t, testServerDocument)
}

// newTestServiceWithDocument seeds the server config before the manager is built.
func newTestServiceWithDocument(t *testing.T, document string) (*Service, *staticState) {
	t.Helper()

	dir := t.TempDir()

	serverKey, err := wgtypes.GeneratePrivateKey()
	require.NoError(t, err)

	serverParams, err := params.FromMap(map[string]string{
		"SERVER_PUB_IP":  "203.0.113.10",
		"SERVER_PUB_KEY": serverKey.PublicKey().String(),
	})
	require.NoError(t, err)

	db, err := database.InitDB(filepath.Join(dir, "wgward.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		database.CloseDB(db)
	})

	editor := serverconf.NewEditor(serverconf.ConfigPath(dir, "wg0"))
	require.NoError(t, os.WriteFile(editor.Path(), []byte(document), 0600))

	state := &staticState{}
	m := metrics.New()

	manager, err := lifecycle.New(context.Background(), lifecycle.Options{
		Params:      serverParams,
		Registry:    clients.NewRepository(db),
		Editor:      editor,
		Keys:        wg.NewProvisioner(wg.NativeKeyTool{}),
		ClientFiles: clientconf.NewWriter(filepath.Join(dir, "clients"), serverParams),
		Syncer:      noopSyncer{},
		State:       state,
		Metrics:     m,
		Now:         func() time.Time { return time.Unix(1_800_000_000, 0) },
	})
	require.NoError(t, err)

	return &Service{
		LocalCommandsService: LocalCommandsService{Manager: manager, Metrics: m},
	}, state
}

func TestClientCommands(t *testing.T) {
	service, _ := newTestService(t)

	var stdOut, errOut bytes.Buffer

	require.NoError(t, service.ClientAdd(&stdOut, &errOut, "alice", 7))
	assert.Contains(t, stdOut.String(), "Client alice added")
	assert.Contains(t, stdOut.String(), "IPv4:   10.66.66.2")
	assert.Contains(t, stdOut.String(), "[Interface]")

	stdOut.Reset()
	require.NoError(t, service.ClientRename(&stdOut, &errOut, "alice", "alicia"))
	assert.Equal(t, "Client alice renamed to alicia\n", stdOut.String())

	stdOut.Reset()
	require.NoError(t, service.ClientList(&stdOut, &errOut))
	assert.Equal(t, "alicia\n", stdOut.String())

	output := filepath.Join(t.TempDir(), "alicia.conf")
	stdOut.Reset()
	require.NoError(t, service.ClientConfig(&stdOut, &errOut, "alicia", output))
	assert.FileExists(t, output)

	stdOut.Reset()
	require.NoError(t, service.ClientRemove(&stdOut, &errOut, "alicia"))
	assert.Equal(t, "Client alicia removed\n", stdOut.String())

	stdOut.Reset()
	require.NoError(t, service.ClientList(&stdOut, &errOut))
	assert.Equal(t, "No clients\n", stdOut.String())
	assert.Empty(t, errOut.String())
}

func TestClientCommandErrors(t *testing.T) {
	service, _ := newTestService(t)

	var stdOut, errOut bytes.Buffer

	err := service.ClientAdd(&stdOut, &errOut, "not valid", 0)
	assert.ErrorIs(t, err, lifecycle.ErrValidation)
	assert.Contains(t, errOut.String(), "Failed to add client")
	assert.Contains(t, errOut.String(), "1-15 characters")

	errOut.Reset()
	err = service.ClientRemove(&stdOut, &errOut, "ghost")
	assert.ErrorIs(t, err, lifecycle.ErrNotFound)
	assert.Contains(t, errOut.String(), "Failed to remove client")
}

func TestStatsCommand(t *testing.T) {
	service, state := newTestService(t)

	var stdOut, errOut bytes.Buffer

	require.NoError(t, service.ClientAdd(&stdOut, &errOut, "alice", 0))

	names, err := service.LocalCommandsService.Manager.ListClients(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, names)

	state.peers = []wg.PeerState{{PublicKey: "unknown-peer", ReceiveBytes: 2048}}

	textfile := filepath.Join(t.TempDir(), "wgward.prom")

	stdOut.Reset()
	require.NoError(t, service.Stats(&stdOut, &errOut, false, textfile))

	assert.Contains(t, stdOut.String(), "CLIENT")
	assert.Contains(t, stdOut.String(), "(unnamed)")
	assert.Contains(t, stdOut.String(), "never")
	assert.Contains(t, stdOut.String(), "2.0 KiB")

	content, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "wgward_peer_receive_bytes")
	assert.Contains(t, string(content), "wgward_operations_total")
}

func TestReconcileReportsStartupBackfill(t *testing.T) {
	document := testServerDocument + "\n### Client carol\n[Peer]\nPublicKey = carol-public\nAllowedIPs = 10.66.66.5/32\n"
	service, _ := newTestServiceWithDocument(t, document)

	var stdOut, errOut bytes.Buffer

	require.NoError(t, service.Reconcile(&stdOut, &errOut))
	assert.Equal(t, "Reconciled 1 client(s)\n", stdOut.String())

	stdOut.Reset()
	require.NoError(t, service.Reconcile(&stdOut, &errOut))
	assert.Equal(t, "Reconciled 0 client(s)\n", stdOut.String())
}

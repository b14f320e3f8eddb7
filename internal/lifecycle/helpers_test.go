package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"wgward/internal/clientconf"
	"wgward/internal/clients"
	"wgward/internal/clients/types"
	"wgward/internal/database"
	"wgward/internal/metrics"
	"wgward/internal/params"
	"wgward/internal/serverconf"
	"wgward/internal/wg"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

const serverDocument = `[Interface]
Address = 10.66.66.1/24,fd42:42:42::1/64
ListenPort = 51820
PrivateKey = server-private
`

type fakeSyncer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *fakeSyncer) Sync(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++

	return s.err
}

func (s *fakeSyncer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls
}

type fakeState struct {
	peers []wg.PeerState
	err   error
}

func (s *fakeState) ReadPeers(context.Context, string) ([]wg.PeerState, error) {
	return s.peers, s.err
}

type failingKeys struct{}

func (failingKeys) GenerateKeyTriple(context.Context) (*wg.KeyTriple, error) {
	return nil, wg.ErrKeyGeneration
}

// flakyRegistry fails selected writes on demand.
type flakyRegistry struct {
	*clients.Repository
	failUpsert  bool
	failReplace bool
}

var errDiskFull = errors.New("disk full")

func (r *flakyRegistry) Upsert(client *types.Client) error {
	if r.failUpsert {
		return errDiskFull
	}

	return r.Repository.Upsert(client)
}

func (r *flakyRegistry) Replace(oldName string, client *types.Client) error {
	if r.failReplace {
		return errDiskFull
	}

	return r.Repository.Replace(oldName, client)
}

type harness struct {
	dir      string
	params   *params.ServerParameters
	registry *flakyRegistry
	editor   *serverconf.Editor
	files    *clientconf.Writer
	syncer   *fakeSyncer
	state    *fakeState
	metrics  *metrics.Metrics
	options  Options
}

// newHarness prepares the stores; seed runs before the manager is built.
func newHarness(t *testing.T, seed func(h *harness)) (*harness, *Manager) {
	t.Helper()

	h := newStores(t)

	if seed != nil {
		seed(h)
	}

	manager, err := New(context.Background(), h.options)
	require.NoError(t, err)

	return h, manager
}

func newStores(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()

	serverKey, err := wgtypes.GeneratePrivateKey()
	require.NoError(t, err)

	serverParams, err := params.FromMap(map[string]string{
		"SERVER_PUB_IP":  "203.0.113.10",
		"SERVER_PUB_KEY": serverKey.PublicKey().String(),
	})
	require.NoError(t, err)

	db, err := database.InitDB(filepath.Join(dir, "state", "wgward.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		database.CloseDB(db)
	})

	editor := serverconf.NewEditor(serverconf.ConfigPath(dir, serverParams.InterfaceName))
	require.NoError(t, os.WriteFile(editor.Path(), []byte(serverDocument), 0600))

	h := &harness{
		dir:      dir,
		params:   serverParams,
		registry: &flakyRegistry{Repository: clients.NewRepository(db)},
		editor:   editor,
		files:    clientconf.NewWriter(filepath.Join(dir, "clients"), serverParams),
		syncer:   &fakeSyncer{},
		state:    &fakeState{},
		metrics:  metrics.New(),
	}

	h.options = Options{
		Params:      serverParams,
		Registry:    h.registry,
		Editor:      editor,
		Allocator:   serverconf.NewAllocator(serverParams.IPv4Base, serverParams.IPv6Base),
		Keys:        wg.NewProvisioner(wg.NativeKeyTool{}),
		ClientFiles: h.files,
		Syncer:      h.syncer,
		State:       h.state,
		Metrics:     h.metrics,
		Now:         func() time.Time { return testNow },
	}

	return h
}

func (h *harness) document(t *testing.T) string {
	t.Helper()

	content, err := h.editor.Read()
	require.NoError(t, err)

	return content
}

func (h *harness) registryNames(t *testing.T) []string {
	t.Helper()

	records, err := h.registry.List()
	require.NoError(t, err)

	names := []string{}
	for _, record := range records {
		names = append(names, record.Name)
	}

	return names
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	_ = c.Write(m)
	return m.GetCounter().GetValue()
}

func mustAdd(t *testing.T, manager *Manager, name string) *types.Client {
	t.Helper()

	client, err := manager.AddClient(context.Background(), name, 1)
	require.NoError(t, err)

	return client
}

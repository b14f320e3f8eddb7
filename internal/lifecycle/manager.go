// Package lifecycle provisions, renames, removes and reconciles VPN clients, keeping
// the live interface, the server config document and the client registry in step.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wgward/internal/clientconf"
	"wgward/internal/clients"
	"wgward/internal/clients/types"
	"wgward/internal/logger"
	"wgward/internal/metrics"
	"wgward/internal/params"
	"wgward/internal/serverconf"
	"wgward/internal/wg"
)

// Registry implementations report missing names with clients.ErrClientNotFound.
type Registry interface {
	Upsert(client *types.Client) error
	Replace(oldName string, client *types.Client) error
	Delete(name string) (bool, error)
	Get(name string) (*types.Client, error)
	List() ([]*types.Client, error)
	Exists(name string) (bool, error)
}

type KeyProvisioner interface {
	GenerateKeyTriple(ctx context.Context) (*wg.KeyTriple, error)
}

type LiveSyncer interface {
	Sync(ctx context.Context) error
}

type StateReader interface {
	ReadPeers(ctx context.Context, interfaceName string) ([]wg.PeerState, error)
}

type Options struct {
	Params      *params.ServerParameters
	Registry    Registry
	Editor      *serverconf.Editor
	Allocator   *serverconf.Allocator
	Keys        KeyProvisioner
	ClientFiles *clientconf.Writer
	Syncer      LiveSyncer
	State       StateReader
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

// Manager owns one server interface. Add, Remove, Rename and Reconcile are
// serialized by writeMu; reads rely on the editor's atomic file replacement.
type Manager struct {
	params      *params.ServerParameters
	registry    Registry
	editor      *serverconf.Editor
	allocator   *serverconf.Allocator
	keys        KeyProvisioner
	clientFiles *clientconf.Writer
	syncer      LiveSyncer
	state       StateReader
	metrics     *metrics.Metrics
	now         func() time.Time

	writeMu sync.Mutex

	// backfilled at construction and not yet reported
	startupReconciled int
}

// New builds the manager and runs reconciliation before returning it.
func New(ctx context.Context, opts Options) (*Manager, error) {
	if opts.Params == nil || opts.Registry == nil || opts.Editor == nil || opts.Keys == nil || opts.ClientFiles == nil {
		return nil, fmt.Errorf("%w: params, registry, editor, key provisioner and client file writer are required", ErrValidation)
	}

	m := &Manager{
		params:      opts.Params,
		registry:    opts.Registry,
		editor:      opts.Editor,
		allocator:   opts.Allocator,
		keys:        opts.Keys,
		clientFiles: opts.ClientFiles,
		syncer:      opts.Syncer,
		state:       opts.State,
		metrics:     opts.Metrics,
		now:         opts.Now,
	}

	if m.allocator == nil {
		m.allocator = serverconf.NewAllocator(opts.Params.IPv4Base, opts.Params.IPv6Base)
	}

	if m.now == nil {
		m.now = time.Now
	}

	count, err := m.Reconcile(ctx)

	if err != nil {
		logger.Error("Reconciliation failed: %v", err)
	} else if count > 0 {
		logger.Info("Reconciliation backfilled %d client(s)", count)
	}

	m.startupReconciled = count

	return m, nil
}

// TakeStartupReconciled returns how many records the construction-time pass
// backfilled, once; later calls return 0.
func (m *Manager) TakeStartupReconciled() int {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	count := m.startupReconciled
	m.startupReconciled = 0

	return count
}

// syncLive never fails the calling operation.
func (m *Manager) syncLive(ctx context.Context) {
	if m.syncer == nil {
		return
	}

	if err := m.syncer.Sync(ctx); err != nil {
		m.metrics.SyncFailed()

		hint := fmt.Sprintf("systemctl restart wg-quick@%s", m.params.InterfaceName)

		if hinter, ok := m.syncer.(interface{ RestartHint() string }); ok {
			hint = hinter.RestartHint()
		}

		logger.Warn("Live interface not updated, config on disk is current; apply it with `%s`: %v", hint, err)
	}
}

func (m *Manager) refreshClientGauge() {
	if m.metrics == nil {
		return
	}

	names, err := m.listNames()

	if err == nil {
		m.metrics.SetClients(len(names))
	}
}

// lookup returns the registry record and the document section for name; either may be nil.
func (m *Manager) lookup(name string) (*types.Client, *serverconf.Section, error) {
	record, err := m.registry.Get(name)

	if err != nil {
		if !errors.Is(err, clients.ErrClientNotFound) {
			return nil, nil, ioError("read registry", err)
		}

		record = nil
	}

	section, err := m.editor.FindPeerSection(name)

	if err != nil {
		if !errors.Is(err, serverconf.ErrSectionNotFound) {
			return nil, nil, ioError("read server config", err)
		}

		section = nil
	}

	return record, section, nil
}

func ioError(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, action, err)
}

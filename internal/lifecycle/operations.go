package lifecycle

import (
	"context"
	"fmt"

	"wgward/internal/clientconf"
	"wgward/internal/clients/types"
	"wgward/internal/logger"
	"wgward/internal/serverconf"
)

const (
	operationAdd    = "add"
	operationRemove = "remove"
	operationRename = "rename"
)

func validateName(name string) error {
	if !types.IsValidClientName(name) {
		return fmt.Errorf("%w: client name %q must be 1-15 characters of letters, digits, '_' or '-'", ErrValidation, name)
	}

	return nil
}

// AddClient allocates addresses and keys for a new client, writes its config file,
// adds its peer section, syncs the live interface and records it. createdBy is the
// requesting user's id (types.CreatedByUnknown when not known).
func (m *Manager) AddClient(ctx context.Context, name string, createdBy int64) (client *types.Client, err error) {
	defer func() { m.metrics.ObserveOperation(operationAdd, err) }()

	if err := validateName(name); err != nil {
		return nil, err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	exists, err := m.registry.Exists(name)

	if err != nil {
		return nil, ioError("read registry", err)
	}

	doc, err := m.editor.Load()

	if err != nil {
		return nil, ioError("read server config", err)
	}

	if exists || doc.Has(name) {
		return nil, fmt.Errorf("%w: client %q already exists", ErrConflict, name)
	}

	reservedIPv4, reservedIPv6, err := m.registryAddresses()

	if err != nil {
		return nil, err
	}

	content := doc.Render()

	ipv4, err := m.allocator.AllocateIPv4(content, reservedIPv4...)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}

	ipv6, err := m.allocator.AllocateIPv6(content, reservedIPv6...)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}

	keys, err := m.keys.GenerateKeyTriple(ctx)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExternalTool, err)
	}

	client = &types.Client{
		Name:         name,
		IPv4:         ipv4,
		IPv6:         ipv6,
		PublicKey:    keys.PublicKey,
		PrivateKey:   keys.PrivateKey,
		PresharedKey: keys.PresharedKey,
		Origin:       types.ClientOriginProvisioned,
		CreatedBy:    createdBy,
		CreatedAt:    m.now(),
	}

	path, err := m.clientFiles.Write(client)

	if err != nil {
		return nil, ioError("write client config", err)
	}

	client.ConfigFilePath = path

	section := serverconf.NewPeerSection(name, client.PublicKey, client.PresharedKey, ipv4, ipv6)

	if err := m.editor.UpsertPeerSection(name, section); err != nil {
		m.removeFile(path)

		return nil, ioError("update server config", err)
	}

	m.syncLive(ctx)

	if err := m.registry.Upsert(client); err != nil {
		m.removeFile(path)

		if _, restoreErr := m.editor.RemovePeerSection(name); restoreErr != nil {
			logger.Error("Failed to roll back peer section %s: %v", name, restoreErr)
		} else {
			m.syncLive(ctx)
		}

		return nil, ioError("save client", err)
	}

	logger.Info("Client %s added with %s and %s", name, ipv4, ipv6)

	m.refreshClientGauge()

	return client, nil
}

// RemoveClient reports false when the client exists in neither store.
func (m *Manager) RemoveClient(ctx context.Context, name string) (removed bool, err error) {
	defer func() { m.metrics.ObserveOperation(operationRemove, err) }()

	if name == "" {
		return false, fmt.Errorf("%w: client name is required", ErrValidation)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	record, section, err := m.lookup(name)

	if err != nil {
		return false, err
	}

	if record == nil && section == nil {
		return false, nil
	}

	for _, path := range m.clientFilePaths(name, record) {
		if err := m.clientFiles.Remove(path); err != nil {
			return false, ioError("remove client config", err)
		}
	}

	if _, err := m.editor.RemovePeerSection(name); err != nil {
		return false, ioError("update server config", err)
	}

	m.syncLive(ctx)

	if _, err := m.registry.Delete(name); err != nil {
		return false, ioError("delete client", err)
	}

	logger.Info("Client %s removed", name)

	m.refreshClientGauge()

	return true, nil
}

// RenameClient moves a client to a new name keeping its keys, addresses and
// creation metadata. A "newName" section that already carries the client's public
// key is treated as a leftover of an interrupted rename, not a collision.
func (m *Manager) RenameClient(ctx context.Context, oldName, newName string) (renamed *types.Client, err error) {
	defer func() { m.metrics.ObserveOperation(operationRename, err) }()

	if err := validateName(oldName); err != nil {
		return nil, err
	}

	if err := validateName(newName); err != nil {
		return nil, err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	record, oldSection, err := m.lookup(oldName)

	if err != nil {
		return nil, err
	}

	if record == nil && oldSection == nil {
		return nil, fmt.Errorf("%w: client %q", ErrNotFound, oldName)
	}

	if record == nil {
		if record, err = m.recordFromDocument(oldName, oldSection); err != nil {
			return nil, err
		}
	}

	if oldName == newName {
		return record, nil
	}

	newRecord, newSection, err := m.lookup(newName)

	if err != nil {
		return nil, err
	}

	if newRecord != nil {
		return nil, fmt.Errorf("%w: client %q already exists", ErrConflict, newName)
	}

	if newSection != nil {
		publicKey := record.PublicKey

		if publicKey == "" && oldSection != nil {
			publicKey = oldSection.PublicKey()
		}

		if publicKey == "" || newSection.PublicKey() != publicKey {
			return nil, fmt.Errorf("%w: server config already has a different client named %q", ErrConflict, newName)
		}

		logger.Info("Server config already has %s with the key of %s, completing the rename", newName, oldName)
	}

	renamed = record.Renamed(newName)
	renamed.ConfigFilePath = ""

	if renamed.PrivateKey != "" {
		path, err := m.clientFiles.Write(renamed)

		if err != nil {
			return nil, ioError("write client config", err)
		}

		renamed.ConfigFilePath = path
	}

	section := serverconf.NewPeerSection(newName, renamed.PublicKey, renamed.PresharedKey, renamed.IPv4, renamed.IPv6)

	if oldSection != nil {
		section = oldSection.Retag(newName)
	}

	err = m.editor.Edit(func(doc *serverconf.Document) (bool, error) {
		doc.Remove(oldName)
		doc.Upsert(newName, section)

		return true, nil
	})

	if err != nil {
		m.removeFile(renamed.ConfigFilePath)

		return nil, ioError("update server config", err)
	}

	m.syncLive(ctx)

	if err := m.registry.Replace(oldName, renamed); err != nil {
		m.removeFile(renamed.ConfigFilePath)
		m.restoreSection(ctx, oldName, newName, oldSection, newSection)

		return nil, ioError("save client", err)
	}

	for _, path := range m.clientFilePaths(oldName, record) {
		if path != renamed.ConfigFilePath {
			m.removeFile(path)
		}
	}

	logger.Info("Client %s renamed to %s", oldName, newName)

	return renamed, nil
}

// restoreSection puts the document back the way it was before a failed rename.
func (m *Manager) restoreSection(ctx context.Context, oldName, newName string, oldSection, newSection *serverconf.Section) {
	err := m.editor.Edit(func(doc *serverconf.Document) (bool, error) {
		doc.Remove(newName)

		if newSection != nil {
			doc.Upsert(newName, *newSection)
		}

		if oldSection != nil {
			doc.Upsert(oldName, *oldSection)
		}

		return true, nil
	})

	if err != nil {
		logger.Error("Failed to roll back server config after renaming %s: %v", oldName, err)
		return
	}

	m.syncLive(ctx)
}

// clientFilePaths lists the recorded and the conventional file path for name.
func (m *Manager) clientFilePaths(name string, record *types.Client) []string {
	paths := []string{}

	if record != nil && record.ConfigFilePath != "" {
		paths = append(paths, record.ConfigFilePath)
	}

	if clientconf.ValidateName(name) != nil {
		return paths
	}

	if path := m.clientFiles.Path(name); len(paths) == 0 || paths[0] != path {
		paths = append(paths, path)
	}

	return paths
}

func (m *Manager) removeFile(path string) {
	if err := m.clientFiles.Remove(path); err != nil {
		logger.Error("Failed to remove client config %s: %v", path, err)
	}
}

func (m *Manager) registryAddresses() ([]string, []string, error) {
	records, err := m.registry.List()

	if err != nil {
		return nil, nil, ioError("read registry", err)
	}

	var ipv4, ipv6 []string

	for _, record := range records {
		if record.IPv4 != "" {
			ipv4 = append(ipv4, record.IPv4)
		}

		if record.IPv6 != "" {
			ipv6 = append(ipv6, record.IPv6)
		}
	}

	return ipv4, ipv6, nil
}

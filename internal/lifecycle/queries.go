package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"wgward/internal/clientconf"
)

// ListClients returns the sorted union of registry and server config names.
func (m *Manager) ListClients(ctx context.Context) ([]string, error) {
	return m.listNames()
}

func (m *Manager) listNames() ([]string, error) {
	records, err := m.registry.List()

	if err != nil {
		return nil, ioError("read registry", err)
	}

	documentNames, err := m.editor.ListPeerNames()

	if err != nil {
		return nil, ioError("read server config", err)
	}

	seen := map[string]bool{}
	names := []string{}

	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, record := range records {
		add(record.Name)
	}

	for _, name := range documentNames {
		add(name)
	}

	sort.Strings(names)

	return names, nil
}

// GetClientConfig returns the client's config file exactly as stored.
func (m *Manager) GetClientConfig(ctx context.Context, name string) ([]byte, error) {
	if err := clientconf.ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	record, _, err := m.lookup(name)

	if err != nil {
		return nil, err
	}

	for _, path := range m.clientFilePaths(name, record) {
		content, err := m.clientFiles.Read(path)

		if err == nil {
			return content, nil
		}

		if !errors.Is(err, clientconf.ErrClientFileNotFound) {
			return nil, ioError("read client config", err)
		}
	}

	return nil, fmt.Errorf("%w: no config file for client %q", ErrNotFound, name)
}

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"wgward/internal/clientconf"
	"wgward/internal/clients/types"
	"wgward/internal/logger"
	"wgward/internal/serverconf"
	"wgward/internal/wg"
)

// Reconcile backfills registry rows for peer sections the registry does not know.
// It never deletes rows, and a failure for one name does not stop the others.
func (m *Manager) Reconcile(ctx context.Context) (int, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	doc, err := m.editor.Load()

	if err != nil {
		if errors.Is(err, serverconf.ErrDocumentNotFound) {
			logger.Warn("Server config %s not found, nothing to reconcile", m.editor.Path())
			return 0, nil
		}

		return 0, ioError("read server config", err)
	}

	records, err := m.registry.List()

	if err != nil {
		return 0, ioError("read registry", err)
	}

	known := map[string]bool{}

	for _, record := range records {
		known[record.Name] = true
	}

	count := 0

	for _, name := range doc.PeerNames() {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}

		if known[name] {
			continue
		}

		section, err := doc.Find(name)

		if err != nil {
			continue
		}

		record, err := m.recordFromDocument(name, section)

		if err != nil {
			logger.Error("Failed to reconcile client %s: %v", name, err)
			continue
		}

		if err := m.registry.Upsert(record); err != nil {
			logger.Error("Failed to save reconciled client %s: %v", name, err)
			continue
		}

		logger.Info("Reconciled client %s (%s)", name, record.Origin)

		count++
	}

	m.refreshClientGauge()

	return count, nil
}

// recordFromDocument builds a registry record for a client known only from its peer
// section. Keys and addresses come from the client's own config file; without one
// the record keeps them empty and is flagged ClientOriginReconciledWithoutFile.
func (m *Manager) recordFromDocument(name string, section *serverconf.Section) (*types.Client, error) {
	record := &types.Client{
		Name:      name,
		Origin:    types.ClientOriginReconciledWithoutFile,
		CreatedBy: types.CreatedByUnknown,
		CreatedAt: m.now(),
	}

	if err := clientconf.ValidateName(name); err != nil {
		logger.Warn("Not looking up a config file for client %q: %v", name, err)
		return record, nil
	}

	path := m.clientFiles.Path(name)
	content, err := m.clientFiles.Read(path)

	if err != nil {
		if errors.Is(err, clientconf.ErrClientFileNotFound) {
			return record, nil
		}

		return nil, ioError("read client config", err)
	}

	file, err := clientconf.Parse(string(content))

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}

	record.Origin = types.ClientOriginReconciled
	record.ConfigFilePath = path
	record.PrivateKey = file.PrivateKey
	record.PresharedKey = file.PresharedKey
	record.IPv4 = file.IPv4
	record.IPv6 = file.IPv6

	if section != nil {
		record.PublicKey = section.PublicKey()

		if record.PresharedKey == "" {
			record.PresharedKey = section.PresharedKey()
		}

		if record.IPv4 == "" && record.IPv6 == "" {
			record.IPv4, record.IPv6 = sectionAddresses(section)
		}
	}

	if record.PublicKey == "" {
		if record.PublicKey, err = wg.PublicKeyFromPrivate(record.PrivateKey); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrIO, path, err)
		}
	}

	return record, nil
}

func sectionAddresses(section *serverconf.Section) (string, string) {
	var ipv4, ipv6 string

	for _, entry := range section.AllowedIPs() {
		host, _, _ := strings.Cut(entry, "/")
		ip := net.ParseIP(host)

		switch {
		case ip == nil:
		case ip.To4() != nil && ipv4 == "":
			ipv4 = host
		case ip.To4() == nil && ipv6 == "":
			ipv6 = host
		}
	}

	return ipv4, ipv6
}

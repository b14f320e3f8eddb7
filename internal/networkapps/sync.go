// Package networkapps pushes the on-disk server config into the running interface.
package networkapps

import (
	"context"
	"fmt"
	"time"

	"wgward/internal/logger"
	"wgward/internal/serverconf"
	"wgward/internal/terminal"
)

// DocumentReader is the part of the config editor the syncer needs.
type DocumentReader interface {
	Read() (string, error)
}

// WireguardSyncer applies the document with "wg syncconf", which adds, updates and
// removes peers without tearing the interface down.
type WireguardSyncer struct {
	InterfaceName string
	Document      DocumentReader
	Binary        string
	Timeout       time.Duration
}

func NewWireguardSyncer(interfaceName string, document DocumentReader, binary string, timeout time.Duration) *WireguardSyncer {
	return &WireguardSyncer{
		InterfaceName: interfaceName,
		Document:      document,
		Binary:        binary,
		Timeout:       timeout,
	}
}

func (s *WireguardSyncer) Sync(ctx context.Context) error {
	content, err := s.Document.Read()

	if err != nil {
		return fmt.Errorf("failed to read wireguard config: %w", err)
	}

	_, err = terminal.NewCommand(s.Binary, "syncconf", s.InterfaceName, "/dev/stdin").
		WithStdin(serverconf.Strip(content)).
		WithTimeout(s.Timeout).
		Execute(ctx)

	if err != nil {
		return fmt.Errorf("failed to sync wireguard interface %s: %w", s.InterfaceName, err)
	}

	logger.Info("Wireguard interface %s synced", s.InterfaceName)

	return nil
}

// RestartHint is the manual recovery command printed when a sync fails.
func (s *WireguardSyncer) RestartHint() string {
	return fmt.Sprintf("systemctl restart wg-quick@%s", s.InterfaceName)
}

package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"wgward/internal/metrics"
)

const UnnamedPeer = "(unnamed)"

type StatsRow struct {
	Name          string
	PublicKey     string
	Address       string // first allowed IP without prefix length; empty unless requested
	Endpoint      string // empty unless addresses were requested
	LastHandshake time.Time
	Handshake     string
	ReceiveBytes  int64
	TransmitBytes int64
}

// GetStats reads the live interface and names each peer by its section in the
// server config. Rows are sorted by name, case-insensitively.
func (m *Manager) GetStats(ctx context.Context, includeAddresses bool) ([]StatsRow, error) {
	if m.state == nil {
		return nil, fmt.Errorf("%w: live state reader is not configured", ErrExternalTool)
	}

	peers, err := m.state.ReadPeers(ctx, m.params.InterfaceName)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExternalTool, err)
	}

	doc, err := m.editor.Load()

	if err != nil {
		return nil, ioError("read server config", err)
	}

	names := doc.NamesByPublicKey()
	now := m.now()

	rows := make([]StatsRow, 0, len(peers))
	samples := make([]metrics.PeerSample, 0, len(peers))

	for _, peer := range peers {
		name, ok := names[peer.PublicKey]

		if !ok {
			name = UnnamedPeer
		}

		row := StatsRow{
			Name:          name,
			PublicKey:     peer.PublicKey,
			LastHandshake: peer.LastHandshake,
			Handshake:     FormatHandshake(now, peer.LastHandshake),
			ReceiveBytes:  peer.ReceiveBytes,
			TransmitBytes: peer.TransmitBytes,
		}

		if includeAddresses {
			row.Endpoint = peer.Endpoint

			if len(peer.AllowedIPs) > 0 {
				row.Address, _, _ = strings.Cut(peer.AllowedIPs[0], "/")
			}
		}

		rows = append(rows, row)
		samples = append(samples, metrics.PeerSample{
			Client:        name,
			PublicKey:     peer.PublicKey,
			LastHandshake: peer.LastHandshake,
			ReceiveBytes:  peer.ReceiveBytes,
			TransmitBytes: peer.TransmitBytes,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := strings.ToLower(rows[i].Name), strings.ToLower(rows[j].Name)

		if a != b {
			return a < b
		}

		return rows[i].PublicKey < rows[j].PublicKey
	})

	m.metrics.ObservePeers(samples)

	return rows, nil
}

// FormatHandshake buckets the age of a handshake: "never", "Ns ago", "Nm ago",
// "Nh ago" or "Nd ago".
func FormatHandshake(now, handshake time.Time) string {
	if handshake.IsZero() || handshake.Unix() <= 0 {
		return "never"
	}

	age := now.Sub(handshake)

	if age < 0 {
		age = 0
	}

	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age/time.Second))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age/time.Minute))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(age/(24*time.Hour)))
	}
}

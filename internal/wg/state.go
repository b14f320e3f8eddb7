package wg

import (
	"context"
	"fmt"
	"time"

	"golang.zx2c4.com/wireguard/wgctrl"
)

// PeerState is one row of live interface state.
type PeerState struct {
	PublicKey     string
	Endpoint      string
	AllowedIPs    []string
	LastHandshake time.Time
	ReceiveBytes  int64
	TransmitBytes int64
}

// DeviceStateReader reads peers from the running interface via wgctrl.
type DeviceStateReader struct {
	Timeout time.Duration
}

func NewDeviceStateReader(timeout time.Duration) *DeviceStateReader {
	return &DeviceStateReader{Timeout: timeout}
}

type readResult struct {
	peers []PeerState
	err   error
}

// ReadPeers gives up after Timeout; the netlink call itself cannot be cancelled
// and finishes in the background.
func (r *DeviceStateReader) ReadPeers(ctx context.Context, interfaceName string) ([]PeerState, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	done := make(chan readResult, 1)

	go func() {
		peers, err := readDevice(interfaceName)
		done <- readResult{peers: peers, err: err}
	}()

	select {
	case result := <-done:
		return result.peers, result.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceRead, interfaceName, ctx.Err())
	}
}

func readDevice(interfaceName string) ([]PeerState, error) {
	client, err := wgctrl.New()

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceRead, err)
	}

	defer client.Close()

	device, err := client.Device(interfaceName)

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceRead, interfaceName, err)
	}

	peers := make([]PeerState, 0, len(device.Peers))

	for _, peer := range device.Peers {
		state := PeerState{
			PublicKey:     peer.PublicKey.String(),
			LastHandshake: peer.LastHandshakeTime,
			ReceiveBytes:  peer.ReceiveBytes,
			TransmitBytes: peer.TransmitBytes,
		}

		if peer.Endpoint != nil {
			state.Endpoint = peer.Endpoint.String()
		}

		for _, allowed := range peer.AllowedIPs {
			state.AllowedIPs = append(state.AllowedIPs, allowed.String())
		}

		peers = append(peers, state)
	}

	return peers, nil
}

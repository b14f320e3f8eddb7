// Package params loads the static facts about the WireGuard server from the
// KEY=VALUE parameters file written by the server installer.
package params

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

const (
	defaultInterfaceName = "wg0"
	defaultPort          = 51820
	defaultDNS1          = "1.1.1.1"
	defaultDNS2          = "1.0.0.1"
	defaultAllowedIPs    = "0.0.0.0/0,::/0"
	defaultServerIPv4    = "10.66.66.1"
	defaultServerIPv6    = "fd42:42:42::1"
)

// ServerParameters is immutable once loaded.
type ServerParameters struct {
	InterfaceName string
	PublicIP      string
	Port          uint16
	PublicKey     string
	DNS1          string
	DNS2          string
	AllowedIPs    string
	ServerIPv4    string
	ServerIPv6    string
	IPv4Base      string // e.g. "10.66.66."
	IPv6Base      string // e.g. "fd42:42:42::"
}

// Load reads the parameters file at path.
func Load(path string) (*ServerParameters, error) {
	values, err := godotenv.Read(path)

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrParamsNotFound, path)
		}

		return nil, fmt.Errorf("read parameters file %s: %w", path, err)
	}

	return FromMap(values)
}

// FromMap builds parameters from already parsed KEY=VALUE pairs, applying defaults.
func FromMap(values map[string]string) (*ServerParameters, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(values[key]); v != "" {
			return v
		}

		return fallback
	}

	p := &ServerParameters{
		InterfaceName: get("SERVER_WG_NIC", defaultInterfaceName),
		PublicIP:      get("SERVER_PUB_IP", ""),
		PublicKey:     get("SERVER_PUB_KEY", ""),
		DNS1:          get("CLIENT_DNS_1", defaultDNS1),
		DNS2:          get("CLIENT_DNS_2", defaultDNS2),
		AllowedIPs:    get("ALLOWED_IPS", defaultAllowedIPs),
		ServerIPv4:    get("SERVER_WG_IPV4", defaultServerIPv4),
		ServerIPv6:    get("SERVER_WG_IPV6", defaultServerIPv6),
	}

	port, err := strconv.ParseUint(get("SERVER_PORT", strconv.Itoa(defaultPort)), 10, 16)

	if err != nil || port == 0 {
		return nil, fmt.Errorf("%w: SERVER_PORT %q", ErrInvalidParameter, values["SERVER_PORT"])
	}

	p.Port = uint16(port)

	if err := p.Validate(); err != nil {
		return nil, err
	}

	p.IPv4Base = p.ServerIPv4[:strings.LastIndex(p.ServerIPv4, ".")+1]
	p.IPv6Base = p.ServerIPv6[:strings.LastIndex(p.ServerIPv6, ":")+1]

	return p, nil
}

func (p *ServerParameters) Validate() error {
	if p.PublicIP == "" {
		return fmt.Errorf("%w: SERVER_PUB_IP", ErrMissingParameter)
	}

	if p.PublicKey == "" {
		return fmt.Errorf("%w: SERVER_PUB_KEY", ErrMissingParameter)
	}

	if _, err := wgtypes.ParseKey(p.PublicKey); err != nil {
		return fmt.Errorf("%w: SERVER_PUB_KEY: %v", ErrInvalidParameter, err)
	}

	if ip := net.ParseIP(p.ServerIPv4); ip == nil || ip.To4() == nil {
		return fmt.Errorf("%w: SERVER_WG_IPV4 %q", ErrInvalidParameter, p.ServerIPv4)
	}

	if ip := net.ParseIP(p.ServerIPv6); ip == nil || ip.To4() != nil || !strings.Contains(p.ServerIPv6, ":") {
		return fmt.Errorf("%w: SERVER_WG_IPV6 %q", ErrInvalidParameter, p.ServerIPv6)
	}

	return nil
}

// Endpoint renders host:port for client configs; IPv6 literals are bracketed.
func (p *ServerParameters) Endpoint() string {
	return net.JoinHostPort(strings.Trim(p.PublicIP, "[]"), strconv.Itoa(int(p.Port)))
}

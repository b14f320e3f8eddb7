package clientconf

import (
	"fmt"
	"net"
	"strings"
)

// ClientFile holds the fields recoverable from a client config file.
type ClientFile struct {
	PrivateKey   string
	PresharedKey string
	IPv4         string
	IPv6         string
}

// Parse reads the [Interface] PrivateKey and Address lines and the [Peer]
// PresharedKey line.
func Parse(content string) (*ClientFile, error) {
	result := &ClientFile{}
	section := ""

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(line)
			continue
		}

		key, value, ok := strings.Cut(line, "=")

		if !ok || strings.HasPrefix(line, "#") {
			continue
		}

		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch {
		case section == "[interface]" && key == "privatekey":
			result.PrivateKey = value
		case section == "[interface]" && key == "address":
			result.IPv4, result.IPv6 = splitAddresses(value)
		case section == "[peer]" && key == "presharedkey":
			result.PresharedKey = value
		}
	}

	if result.PrivateKey == "" {
		return nil, fmt.Errorf("%w: no [Interface] PrivateKey", ErrMalformedClientFile)
	}

	return result, nil
}

func splitAddresses(value string) (string, string) {
	var ipv4, ipv6 string

	for _, entry := range strings.Split(value, ",") {
		host, _, _ := strings.Cut(strings.TrimSpace(entry), "/")
		ip := net.ParseIP(host)

		switch {
		case ip == nil:
			continue
		case ip.To4() != nil && ipv4 == "":
			ipv4 = host
		case ip.To4() == nil && ipv6 == "":
			ipv6 = host
		}
	}

	return ipv4, ipv6
}

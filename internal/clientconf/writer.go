// Package clientconf renders, writes and parses the per-client WireGuard config files.
package clientconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wgward/internal/clients/types"
	"wgward/internal/logger"
	"wgward/internal/params"
	"wgward/internal/templates"

	"github.com/aymerick/raymond"
	"github.com/moby/sys/atomicwriter"
)

const (
	FileMode os.FileMode = 0600
	DirMode  os.FileMode = 0700
)

type Writer struct {
	Dir    string
	Params *params.ServerParameters
}

func NewWriter(dir string, serverParams *params.ServerParameters) *Writer {
	return &Writer{Dir: dir, Params: serverParams}
}

// ValidateName rejects names that could resolve outside Dir once joined into a
// file name. Peer section headers are hand-editable, so their names are untrusted.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\\x00") || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrUnsafeClientName, name)
	}

	return nil
}

// Path returns <dir>/<nic>-client-<name>.conf. Callers holding an untrusted name
// check it with ValidateName first.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%s-client-%s.conf", w.Params.InterfaceName, name))
}

// Render is a pure function of the client record and the server parameters.
func Render(client *types.Client, serverParams *params.ServerParameters) (string, error) {
	template, err := templates.Configs.ReadFile(templates.ClientConfigTemplatePath)

	if err != nil {
		return "", err
	}

	tpl, err := raymond.Parse(string(template))

	if err != nil {
		return "", err
	}

	return tpl.Exec(map[string]interface{}{
		"PrivateKey":      client.PrivateKey,
		"Address":         addressList(client.IPv4, client.IPv6),
		"DNS":             strings.Join(nonEmpty(serverParams.DNS1, serverParams.DNS2), ","),
		"ServerPublicKey": serverParams.PublicKey,
		"PresharedKey":    client.PresharedKey,
		"Endpoint":        serverParams.Endpoint(),
		"AllowedIPs":      serverParams.AllowedIPs,
	})
}

// Write renders the client's file with owner-only permissions and returns its path.
func (w *Writer) Write(client *types.Client) (string, error) {
	content, err := Render(client, w.Params)

	if err != nil {
		return "", err
	}

	if err := ValidateName(client.Name); err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.Dir, DirMode); err != nil {
		return "", err
	}

	path := w.Path(client.Name)

	if err := atomicwriter.WriteFile(path, []byte(content), FileMode); err != nil {
		return "", err
	}

	logger.Debug("Wrote client config %s", path)

	return path, nil
}

func (w *Writer) Read(path string) ([]byte, error) {
	content, err := os.ReadFile(path)

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrClientFileNotFound, path)
		}

		return nil, err
	}

	return content, nil
}

// Remove deletes the file at path; a missing file is not an error.
func (w *Writer) Remove(path string) error {
	if path == "" {
		return nil
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

func addressList(ipv4, ipv6 string) string {
	var addresses []string

	if ipv4 != "" {
		addresses = append(addresses, ipv4+"/32")
	}

	if ipv6 != "" {
		addresses = append(addresses, ipv6+"/128")
	}

	return strings.Join(addresses, ",")
}

func nonEmpty(values ...string) []string {
	result := []string{}

	for _, value := range values {
		if value != "" {
			result = append(result, value)
		}
	}

	return result
}

// Package wg talks to WireGuard: key generation through the wg tool and
// read-only device state through wgctrl.
package wg

import (
	"context"
	"fmt"
	"time"

	"wgward/internal/terminal"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

type KeyTriple struct {
	PrivateKey   string
	PublicKey    string
	PresharedKey string
}

// KeyTool is the key-generation capability. Each call is one invocation.
type KeyTool interface {
	GenPrivateKey(ctx context.Context) (string, error)
	DerivePublicKey(ctx context.Context, privateKey string) (string, error)
	GenPresharedKey(ctx context.Context) (string, error)
}

// CLIKeyTool shells out to the wg binary.
type CLIKeyTool struct {
	Binary  string
	Timeout time.Duration
}

func NewCLIKeyTool(binary string, timeout time.Duration) *CLIKeyTool {
	return &CLIKeyTool{Binary: binary, Timeout: timeout}
}

func (t *CLIKeyTool) run(ctx context.Context, stdin string, args ...string) (string, error) {
	return terminal.NewCommand(t.Binary, args...).WithStdin(stdin).WithTimeout(t.Timeout).Execute(ctx)
}

func (t *CLIKeyTool) GenPrivateKey(ctx context.Context) (string, error) {
	return t.run(ctx, "", "genkey")
}

func (t *CLIKeyTool) DerivePublicKey(ctx context.Context, privateKey string) (string, error) {
	return t.run(ctx, privateKey+"\n", "pubkey")
}

func (t *CLIKeyTool) GenPresharedKey(ctx context.Context) (string, error) {
	return t.run(ctx, "", "genpsk")
}

// NativeKeyTool generates keys in-process, for hosts without wireguard-tools.
type NativeKeyTool struct{}

func (NativeKeyTool) GenPrivateKey(context.Context) (string, error) {
	key, err := wgtypes.GeneratePrivateKey()

	if err != nil {
		return "", err
	}

	return key.String(), nil
}

func (NativeKeyTool) DerivePublicKey(_ context.Context, privateKey string) (string, error) {
	key, err := wgtypes.ParseKey(privateKey)

	if err != nil {
		return "", err
	}

	return key.PublicKey().String(), nil
}

func (NativeKeyTool) GenPresharedKey(context.Context) (string, error) {
	key, err := wgtypes.GenerateKey()

	if err != nil {
		return "", err
	}

	return key.String(), nil
}

type Provisioner struct {
	tool KeyTool
}

func NewProvisioner(tool KeyTool) *Provisioner {
	return &Provisioner{tool: tool}
}

// GenerateKeyTriple returns a complete, validated triple or ErrKeyGeneration.
func (p *Provisioner) GenerateKeyTriple(ctx context.Context) (*KeyTriple, error) {
	privateKey, err := p.tool.GenPrivateKey(ctx)

	if err != nil {
		return nil, fmt.Errorf("%w: genkey: %w", ErrKeyGeneration, err)
	}

	parsedPrivate, err := wgtypes.ParseKey(privateKey)

	if err != nil {
		return nil, fmt.Errorf("%w: genkey output: %w", ErrKeyGeneration, err)
	}

	publicKey, err := p.tool.DerivePublicKey(ctx, privateKey)

	if err != nil {
		return nil, fmt.Errorf("%w: pubkey: %w", ErrKeyGeneration, err)
	}

	if publicKey != parsedPrivate.PublicKey().String() {
		return nil, fmt.Errorf("%w: %w", ErrKeyGeneration, ErrKeyMismatch)
	}

	presharedKey, err := p.tool.GenPresharedKey(ctx)

	if err != nil {
		return nil, fmt.Errorf("%w: genpsk: %w", ErrKeyGeneration, err)
	}

	if _, err := wgtypes.ParseKey(presharedKey); err != nil {
		return nil, fmt.Errorf("%w: genpsk output: %w", ErrKeyGeneration, err)
	}

	return &KeyTriple{
		PrivateKey:   privateKey,
		PublicKey:    publicKey,
		PresharedKey: presharedKey,
	}, nil
}

// PublicKeyFromPrivate derives the public key in-process.
func PublicKeyFromPrivate(privateKey string) (string, error) {
	return NativeKeyTool{}.DerivePublicKey(context.Background(), privateKey)
}

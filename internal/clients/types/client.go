package types

import (
	"regexp"
	"time"
)

type ClientOrigin string

const (
	ClientOriginProvisioned ClientOrigin = "provisioned"
	// ClientOriginReconciled: backfilled at startup from the client's own config file.
	ClientOriginReconciled ClientOrigin = "reconciled"
	// ClientOriginReconciledWithoutFile: backfilled from the server document only;
	// key and address fields that the document does not carry are empty.
	ClientOriginReconciledWithoutFile ClientOrigin = "reconciled-without-file"
)

// CreatedByUnknown marks records whose creator is not known, such as reconciled ones.
const CreatedByUnknown int64 = 0

var clientNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,15}$`)

// Client is one VPN peer identity.
type Client struct {
	ID   string `gorm:"type:text;primary_key"`
	Name string `gorm:"type:text;not null;uniqueIndex"`

	IPv4 string `gorm:"type:text"`
	IPv6 string `gorm:"type:text"`

	PublicKey    string `gorm:"type:text"`
	PrivateKey   string `gorm:"type:text"`
	PresharedKey string `gorm:"type:text"`

	ConfigFilePath string       `gorm:"type:text"`
	Origin         ClientOrigin `gorm:"type:text;not null"`

	CreatedBy int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

func IsValidClientName(name string) bool {
	return clientNamePattern.MatchString(name)
}

// HasKeys reports whether the record carries a complete key triple.
func (c *Client) HasKeys() bool {
	return c.PublicKey != "" && c.PrivateKey != "" && c.PresharedKey != ""
}

// Renamed returns a copy under a new name with keys, addresses and creation
// metadata preserved.
func (c *Client) Renamed(name string) *Client {
	renamed := *c
	renamed.Name = name

	return &renamed
}

package serverconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateFirstFree(t *testing.T) {
	a := NewAllocator("10.66.66.", "fd42:42:42::")

	v4, err := a.AllocateIPv4(sampleDocument)
	require.NoError(t, err)
	assert.Equal(t, "10.66.66.4", v4)

	v6, err := a.AllocateIPv6(sampleDocument)
	require.NoError(t, err)
	assert.Equal(t, "fd42:42:42::4", v6)
}

func TestAllocateFillsGaps(t *testing.T) {
	a := NewAllocator("10.66.66.", "fd42:42:42::")

	v4, err := a.AllocateIPv4("AllowedIPs = 10.66.66.3/32,10.66.66.4/32")
	require.NoError(t, err)
	assert.Equal(t, "10.66.66.2", v4)
}

func TestAllocateEmptyDocument(t *testing.T) {
	a := NewAllocator("10.66.66.", "fd42:42:42::")

	v4, err := a.AllocateIPv4("")
	require.NoError(t, err)
	assert.Equal(t, "10.66.66.2", v4)

	v6, err := a.AllocateIPv6("")
	require.NoError(t, err)
	assert.Equal(t, "fd42:42:42::2", v6)
}

func TestAllocateIgnoresLongerAddresses(t *testing.T) {
	a := NewAllocator("10.66.66.", "fd42:42:42::")

	// 110.66.66.2 and 10.66.66.2000 share the base text but are other addresses
	v4, err := a.AllocateIPv4("Endpoint = 110.66.66.2:51820\nAllowedIPs = 10.66.66.2000/32")
	require.NoError(t, err)
	assert.Equal(t, "10.66.66.2", v4)

	v6, err := a.AllocateIPv6("AllowedIPs = 1fd42:42:42::2/128,fd42:42:42::2a/128")
	require.NoError(t, err)
	assert.Equal(t, "fd42:42:42::2", v6)
}

func TestAllocateAdjacentAddresses(t *testing.T) {
	a := NewAllocator("10.66.66.", "fd42:42:42::")

	v4, err := a.AllocateIPv4("AllowedIPs = 10.66.66.2,10.66.66.3,10.66.66.4")
	require.NoError(t, err)
	assert.Equal(t, "10.66.66.5", v4)
}

func TestAllocateHonoursReserved(t *testing.T) {
	a := NewAllocator("10.66.66.", "fd42:42:42::")

	v4, err := a.AllocateIPv4("AllowedIPs = 10.66.66.2/32", "10.66.66.3", "10.66.66.4")
	require.NoError(t, err)
	assert.Equal(t, "10.66.66.5", v4)
}

func TestAllocateExhausted(t *testing.T) {
	a := NewAllocator("10.66.66.", "fd42:42:42::")
	a.MaxHost = 4

	_, err := a.AllocateIPv4(sampleDocument + "AllowedIPs = 10.66.66.4/32\n")
	assert.ErrorIs(t, err, ErrAddressesExhausted)

	v6, err := a.AllocateIPv6(sampleDocument)
	require.NoError(t, err)
	assert.Equal(t, "fd42:42:42::4", v6)
}

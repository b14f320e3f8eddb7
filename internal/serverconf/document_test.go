package serverconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `[Interface]
Address = 10.66.66.1/24,fd42:42:42::1/64
ListenPort = 51820
PrivateKey = server-private

### Client alice
[Peer]
PublicKey = alice-public
PresharedKey = alice-psk
AllowedIPs = 10.66.66.2/32,fd42:42:42::2/128

### Client bob
[Peer]
PublicKey = bob-public
PresharedKey = bob-psk
AllowedIPs = 10.66.66.3/32,fd42:42:42::3/128
`

func TestParseRenderRoundTrip(t *testing.T) {
	doc := Parse(sampleDocument)

	assert.Equal(t, sampleDocument, doc.Render())
	assert.Equal(t, []string{"alice", "bob"}, doc.PeerNames())
}

func TestParseSectionBoundaries(t *testing.T) {
	doc := Parse("### Client a\n[Peer]\nPublicKey = ka\n### Client b\nPublicKey = kb\n\n# trailing comment\n")

	a, err := doc.Find("a")
	require.NoError(t, err)
	assert.Equal(t, "ka", a.PublicKey())
	assert.Len(t, a.Lines, 3)

	b, err := doc.Find("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"### Client b", "PublicKey = kb"}, b.Lines)

	// a section with no blank line runs to the end of the document
	c := Parse("### Client c\n[Peer]\nPublicKey = kc")
	section, err := c.Find("c")
	require.NoError(t, err)
	assert.Len(t, section.Lines, 3)
}

func TestFindMissingSection(t *testing.T) {
	_, err := Parse(sampleDocument).Find("carol")

	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestSectionValues(t *testing.T) {
	section, err := Parse(sampleDocument).Find("alice")
	require.NoError(t, err)

	assert.Equal(t, "alice-public", section.PublicKey())
	assert.Equal(t, "alice-psk", section.PresharedKey())
	assert.Equal(t, []string{"10.66.66.2/32", "fd42:42:42::2/128"}, section.AllowedIPs())
}

func TestUpsertAppendsNewSection(t *testing.T) {
	doc := Parse(sampleDocument)

	doc.Upsert("carol", NewPeerSection("carol", "carol-public", "carol-psk", "10.66.66.4", "fd42:42:42::4"))

	expected := sampleDocument + `
### Client carol
[Peer]
PublicKey = carol-public
PresharedKey = carol-psk
AllowedIPs = 10.66.66.4/32,fd42:42:42::4/128
`
	assert.Equal(t, expected, doc.Render())
	assert.Equal(t, []string{"alice", "bob", "carol"}, doc.PeerNames())
}

func TestUpsertIntoEmptyDocument(t *testing.T) {
	doc := Parse("")

	doc.Upsert("alice", NewPeerSection("alice", "k", "", "10.66.66.2", ""))

	assert.Equal(t, "### Client alice\n[Peer]\nPublicKey = k\nAllowedIPs = 10.66.66.2/32\n", doc.Render())
}

func TestUpsertReplacesInPlace(t *testing.T) {
	doc := Parse(sampleDocument)

	doc.Upsert("alice", NewPeerSection("alice", "rotated", "psk2", "10.66.66.2", "fd42:42:42::2"))

	assert.Equal(t, []string{"alice", "bob"}, doc.PeerNames())

	section, err := doc.Find("alice")
	require.NoError(t, err)
	assert.Equal(t, "rotated", section.PublicKey())

	reparsed := Parse(doc.Render())
	assert.Equal(t, "alice", reparsed.Sections[1].Name)
	assert.Len(t, reparsed.Sections[1].Lines, 5)
}

func TestUpsertCollapsesDuplicates(t *testing.T) {
	doc := Parse(sampleDocument + "\n### Client alice\n[Peer]\nPublicKey = stale\n")

	doc.Upsert("alice", NewPeerSection("alice", "fresh", "", "10.66.66.2", ""))

	assert.Equal(t, []string{"alice", "bob"}, doc.PeerNames())

	reparsed := Parse(doc.Render())
	section, err := reparsed.Find("alice")
	require.NoError(t, err)
	assert.Equal(t, "fresh", section.PublicKey())
	assert.NotContains(t, doc.Render(), "stale")
}

func TestUpsertRetagsSection(t *testing.T) {
	doc := Parse(sampleDocument)
	alice, err := doc.Find("alice")
	require.NoError(t, err)

	doc.Upsert("alicia", *alice)

	section, err := doc.Find("alicia")
	require.NoError(t, err)
	assert.Equal(t, "### Client alicia", section.Lines[0])
	assert.Equal(t, "alice-public", section.PublicKey())
}

func TestRemoveMiddleSection(t *testing.T) {
	doc := Parse(sampleDocument)

	assert.True(t, doc.Remove("alice"))

	expected := `[Interface]
Address = 10.66.66.1/24,fd42:42:42::1/64
ListenPort = 51820
PrivateKey = server-private

### Client bob
[Peer]
PublicKey = bob-public
PresharedKey = bob-psk
AllowedIPs = 10.66.66.3/32,fd42:42:42::3/128
`
	assert.Equal(t, expected, doc.Render())
}

func TestRemoveLastSection(t *testing.T) {
	doc := Parse(sampleDocument)

	assert.True(t, doc.Remove("bob"))

	expected := `[Interface]
Address = 10.66.66.1/24,fd42:42:42::1/64
ListenPort = 51820
PrivateKey = server-private

### Client alice
[Peer]
PublicKey = alice-public
PresharedKey = alice-psk
AllowedIPs = 10.66.66.2/32,fd42:42:42::2/128
`
	assert.Equal(t, expected, doc.Render())
}

func TestRemoveThenUpsertIsStable(t *testing.T) {
	doc := Parse(sampleDocument)

	for i := 0; i < 3; i++ {
		doc.Remove("bob")
		doc.Upsert("bob", NewPeerSection("bob", "bob-public", "bob-psk", "10.66.66.3", "fd42:42:42::3"))
	}

	assert.Equal(t, sampleDocument, doc.Render())
}

func TestRemoveMissingSection(t *testing.T) {
	doc := Parse(sampleDocument)

	assert.False(t, doc.Remove("carol"))
	assert.Equal(t, sampleDocument, doc.Render())
}

func TestNamesByPublicKey(t *testing.T) {
	names := Parse(sampleDocument).NamesByPublicKey()

	assert.Equal(t, map[string]string{"alice-public": "alice", "bob-public": "bob"}, names)
}

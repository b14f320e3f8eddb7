// Package serverconf models the server's WireGuard configuration file as an ordered
// list of sections. Peer sections are introduced by a "### Client <name>" header and
// run until the next blank line, the next header, or the end of the document.
package serverconf

import (
	"fmt"
	"strings"
)

const ClientHeaderPrefix = "### Client "

type SectionKind int

const (
	SectionText SectionKind = iota
	SectionPeer
)

// Section is a contiguous run of lines. For peer sections Lines[0] is the header.
type Section struct {
	Kind  SectionKind
	Name  string
	Lines []string
}

// Value returns the value of the first "Key = Value" line in the section, matching
// the key case-insensitively.
func (s *Section) Value(key string) string {
	for _, line := range s.Lines {
		k, v, ok := splitKeyValue(line)

		if ok && strings.EqualFold(k, key) {
			return v
		}
	}

	return ""
}

func (s *Section) PublicKey() string {
	return s.Value("PublicKey")
}

func (s *Section) PresharedKey() string {
	return s.Value("PresharedKey")
}

// AllowedIPs returns the comma separated entries of the AllowedIPs line.
func (s *Section) AllowedIPs() []string {
	var result []string

	for _, entry := range strings.Split(s.Value("AllowedIPs"), ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			result = append(result, entry)
		}
	}

	return result
}

func (s *Section) String() string {
	return strings.Join(s.Lines, "\n") + "\n"
}

// NewPeerSection renders the server-side block for one client.
func NewPeerSection(name, publicKey, presharedKey, ipv4, ipv6 string) Section {
	lines := []string{
		ClientHeaderPrefix + name,
		"[Peer]",
		"PublicKey = " + publicKey,
	}

	if presharedKey != "" {
		lines = append(lines, "PresharedKey = "+presharedKey)
	}

	var allowed []string

	if ipv4 != "" {
		allowed = append(allowed, ipv4+"/32")
	}

	if ipv6 != "" {
		allowed = append(allowed, ipv6+"/128")
	}

	if len(allowed) > 0 {
		lines = append(lines, "AllowedIPs = "+strings.Join(allowed, ","))
	}

	return Section{Kind: SectionPeer, Name: name, Lines: lines}
}

// Retag returns a copy of a peer section under a new client name, body unchanged.
func (s Section) Retag(name string) Section {
	lines := make([]string, len(s.Lines))
	copy(lines, s.Lines)

	if len(lines) > 0 && isHeader(lines[0]) {
		lines[0] = ClientHeaderPrefix + name
	} else {
		lines = append([]string{ClientHeaderPrefix + name}, lines...)
	}

	return Section{Kind: SectionPeer, Name: name, Lines: lines}
}

type Document struct {
	Sections []Section
}

// Parse never fails: anything that is not a peer section is kept as text.
func Parse(content string) *Document {
	doc := &Document{}

	if content == "" {
		return doc
	}

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")

	var current *Section

	flush := func() {
		if current != nil {
			doc.Sections = append(doc.Sections, *current)
			current = nil
		}
	}

	for _, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")

		switch {
		case isHeader(line):
			flush()
			current = &Section{Kind: SectionPeer, Name: headerName(line), Lines: []string{line}}
		case current != nil && current.Kind == SectionPeer && strings.TrimSpace(line) == "":
			flush()
			current = &Section{Kind: SectionText, Lines: []string{line}}
		case current == nil:
			current = &Section{Kind: SectionText, Lines: []string{line}}
		default:
			current.Lines = append(current.Lines, line)
		}
	}

	flush()

	return doc
}

// Render is the inverse of Parse; every line is newline terminated.
func (d *Document) Render() string {
	var sb strings.Builder

	for _, section := range d.Sections {
		for _, line := range section.Lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (d *Document) indexOf(name string) int {
	for i := range d.Sections {
		if d.Sections[i].Kind == SectionPeer && d.Sections[i].Name == name {
			return i
		}
	}

	return -1
}

func (d *Document) Has(name string) bool {
	return d.indexOf(name) >= 0
}

func (d *Document) Find(name string) (*Section, error) {
	i := d.indexOf(name)

	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, name)
	}

	section := d.Sections[i]

	return &section, nil
}

// PeerNames lists peer section names in document order, without duplicates.
func (d *Document) PeerNames() []string {
	seen := map[string]bool{}
	names := []string{}

	for _, section := range d.Sections {
		if section.Kind != SectionPeer || seen[section.Name] {
			continue
		}

		seen[section.Name] = true
		names = append(names, section.Name)
	}

	return names
}

// NamesByPublicKey maps every peer section's public key to its client name.
func (d *Document) NamesByPublicKey() map[string]string {
	result := map[string]string{}

	for i := range d.Sections {
		if d.Sections[i].Kind != SectionPeer {
			continue
		}

		if key := d.Sections[i].PublicKey(); key != "" {
			if _, exists := result[key]; !exists {
				result[key] = d.Sections[i].Name
			}
		}
	}

	return result
}

// Upsert replaces the section named name in place, or appends it after a blank
// separator line. Duplicate sections of the same name are dropped.
func (d *Document) Upsert(name string, section Section) {
	section = section.Retag(name)

	if i := d.indexOf(name); i >= 0 {
		d.Sections[i] = section
		d.removeFrom(name, i+1)

		return
	}

	if n := len(d.Sections); n > 0 {
		last := &d.Sections[n-1]

		if len(last.Lines) > 0 && strings.TrimSpace(last.Lines[len(last.Lines)-1]) != "" {
			if last.Kind == SectionText {
				last.Lines = append(last.Lines, "")
			} else {
				d.Sections = append(d.Sections, Section{Kind: SectionText, Lines: []string{""}})
			}
		}
	}

	d.Sections = append(d.Sections, section)
}

// Remove deletes every section named name together with the blank line that
// separated it from its neighbour. It reports whether anything was removed.
func (d *Document) Remove(name string) bool {
	return d.removeFrom(name, 0)
}

func (d *Document) removeFrom(name string, start int) bool {
	removed := false

	for i := start; i < len(d.Sections); {
		if d.Sections[i].Kind != SectionPeer || d.Sections[i].Name != name {
			i++
			continue
		}

		d.Sections = append(d.Sections[:i], d.Sections[i+1:]...)
		removed = true

		switch {
		case i < len(d.Sections) && d.Sections[i].Kind == SectionText && isBlank(d.Sections[i].Lines, 0):
			d.Sections[i].Lines = d.Sections[i].Lines[1:]
		case i == len(d.Sections) && i > 0 && d.Sections[i-1].Kind == SectionText && isBlank(d.Sections[i-1].Lines, len(d.Sections[i-1].Lines)-1):
			d.Sections[i-1].Lines = d.Sections[i-1].Lines[:len(d.Sections[i-1].Lines)-1]
		}
	}

	d.compact()

	return removed
}

// compact drops empty sections and merges adjacent text sections.
func (d *Document) compact() {
	sections := d.Sections[:0]

	for _, section := range d.Sections {
		if len(section.Lines) == 0 {
			continue
		}

		if n := len(sections); n > 0 && section.Kind == SectionText && sections[n-1].Kind == SectionText {
			sections[n-1].Lines = append(sections[n-1].Lines, section.Lines...)
			continue
		}

		sections = append(sections, section)
	}

	d.Sections = sections
}

func isHeader(line string) bool {
	return strings.HasPrefix(line, ClientHeaderPrefix) && headerName(line) != ""
}

func headerName(line string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, ClientHeaderPrefix))
}

func isBlank(lines []string, i int) bool {
	return i >= 0 && i < len(lines) && strings.TrimSpace(lines[i]) == ""
}

func splitKeyValue(line string) (string, string, bool) {
	line = strings.TrimSpace(line)

	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[") {
		return "", "", false
	}

	key, value, ok := strings.Cut(line, "=")

	if !ok {
		return "", "", false
	}

	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

package serverconf

import "strings"

// Interface keys understood by wg-quick but rejected by "wg setconf"/"wg syncconf".
var wgQuickOnlyKeys = map[string]bool{
	"address":    true,
	"dns":        true,
	"mtu":        true,
	"table":      true,
	"preup":      true,
	"postup":     true,
	"predown":    true,
	"postdown":   true,
	"saveconfig": true,
}

// Strip renders the document the way "wg-quick strip" does: comments, blank lines
// and wg-quick-only keys are dropped so the result can be fed to "wg syncconf".
func Strip(content string) string {
	var sb strings.Builder

	for _, line := range strings.Split(content, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if key, _, ok := strings.Cut(line, "="); ok && wgQuickOnlyKeys[strings.ToLower(strings.TrimSpace(key))] {
			continue
		}

		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

package serverconf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultMinHost = 2
	DefaultMaxHost = 254
)

const (
	ipv4Continuation = "0123456789."
	ipv6Continuation = "0123456789abcdefABCDEF:"
)

// Allocator hands out the lowest host index not already used in the document.
// It holds no reservations: the caller must mutate the document before the next call.
type Allocator struct {
	IPv4Base string
	IPv6Base string
	MinHost  int
	MaxHost  int
}

func NewAllocator(ipv4Base, ipv6Base string) *Allocator {
	return &Allocator{
		IPv4Base: ipv4Base,
		IPv6Base: ipv6Base,
		MinHost:  DefaultMinHost,
		MaxHost:  DefaultMaxHost,
	}
}

// AllocateIPv4 scans content and any reserved addresses for "<base><index>" and
// returns the first free address.
func (a *Allocator) AllocateIPv4(content string, reserved ...string) (string, error) {
	return a.allocate(a.IPv4Base, ipv4Continuation, content, reserved)
}

// AllocateIPv6 reads the host index as decimal, the way indices are handed out.
func (a *Allocator) AllocateIPv6(content string, reserved ...string) (string, error) {
	return a.allocate(a.IPv6Base, ipv6Continuation, content, reserved)
}

func (a *Allocator) allocate(base, continuation, content string, reserved []string) (string, error) {
	used := map[int]bool{}

	for _, text := range append([]string{content}, reserved...) {
		for _, index := range usedIndices(text, base, continuation) {
			used[index] = true
		}
	}

	for i := a.MinHost; i <= a.MaxHost; i++ {
		if !used[i] {
			return base + strconv.Itoa(i), nil
		}
	}

	return "", fmt.Errorf("%w: %s[%d-%d]", ErrAddressesExhausted, base, a.MinHost, a.MaxHost)
}

// usedIndices finds "<base><digits>" occurrences that are not part of a longer
// address on either side.
func usedIndices(text, base, continuation string) []int {
	if base == "" {
		return nil
	}

	pattern := regexp.MustCompile(regexp.QuoteMeta(base) + `(\d{1,3})`)

	var indices []int

	for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > 0 && strings.IndexByte(continuation, text[loc[0]-1]) >= 0 {
			continue
		}

		if loc[1] < len(text) && strings.IndexByte(continuation, text[loc[1]]) >= 0 {
			continue
		}

		if index, err := strconv.Atoi(text[loc[2]:loc[3]]); err == nil {
			indices = append(indices, index)
		}
	}

	return indices
}

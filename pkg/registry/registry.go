package registry

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Unmatched is the sentinel config for devices that matched no known
// identifier. They are rendered commented out, for manual placement.
const Unmatched = "unmatched"

// unmatchedHeader precedes the commented-out unmatched entries.
const unmatchedHeader = "# Unmatched devices, assign manually:"

// Entry is one registry line: a device address grouped under a config
// identifier, annotated with the advertised device name.
type Entry struct {
	Config string
	Addr   string
	Name   string
}

// Render writes entries in the registry text format: sections in
// lexical config order, each preceded by a blank line, entries within
// a section ordered by the numeric value of the last address octet
// (stable for ties). Unmatched entries come last, commented out.
func Render(w io.Writer, entries []Entry) error {
	grouped := make(map[string][]Entry)
	var unmatched []Entry
	for _, e := range entries {
		if e.Config == Unmatched {
			unmatched = append(unmatched, e)
			continue
		}
		grouped[e.Config] = append(grouped[e.Config], e)
	}

	configs := make([]string, 0, len(grouped))
	for c := range grouped {
		configs = append(configs, c)
	}
	sort.Strings(configs)

	for _, c := range configs {
		section := grouped[c]
		sort.SliceStable(section, func(i, j int) bool {
			return lastOctet(section[i].Addr) < lastOctet(section[j].Addr)
		})

		if _, err := fmt.Fprintf(w, "\n[%s]\n", c); err != nil {
			return err
		}
		for _, e := range section {
			if err := writeEntry(w, "", e); err != nil {
				return err
			}
		}
	}

	if len(unmatched) > 0 {
		if _, err := fmt.Fprintf(w, "\n%s\n", unmatchedHeader); err != nil {
			return err
		}
		for _, e := range unmatched {
			if err := writeEntry(w, "# ", e); err != nil {
				return err
			}
		}
	}

	return nil
}

func writeEntry(w io.Writer, prefix string, e Entry) error {
	var err error
	if e.Name != "" {
		_, err = fmt.Fprintf(w, "%s%s  # %s\n", prefix, e.Addr, e.Name)
	} else {
		_, err = fmt.Fprintf(w, "%s%s\n", prefix, e.Addr)
	}
	return err
}

// lastOctet returns the numeric host portion of a dotted-quad address.
// Addresses within one section share a subnet in practice, so sorting
// on the final octet orders them by host.
func lastOctet(addr string) int {
	idx := strings.LastIndexByte(addr, '.')
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(addr[idx+1:])
	if err != nil {
		return 0
	}
	return n
}

// line is one parsed address line in file order.
type line struct {
	section string
	addr    string
	name    string
}

// File is a parsed registry.
type File struct {
	lines     []line
	sections  []string // unique, in order of first appearance
	unmatched []Entry
}

// Parse folds over r line by line, tracking the current section, and
// collects every address line in file order.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	seen := make(map[string]bool)

	section := ""
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
			section = text[1 : len(text)-1]
			if !seen[section] {
				seen[section] = true
				f.sections = append(f.sections, section)
			}
			continue
		}

		if addr, name, ok := splitAddrLine(text); ok {
			f.lines = append(f.lines, line{section: section, addr: addr, name: name})
			continue
		}

		// Commented-out address lines are unmatched devices awaiting
		// manual placement. They are invisible to lookups but kept so
		// tooling can offer them for assignment.
		if rest, found := strings.CutPrefix(text, "#"); found {
			if addr, name, ok := splitAddrLine(strings.TrimSpace(rest)); ok {
				f.unmatched = append(f.unmatched, Entry{Config: Unmatched, Addr: addr, Name: name})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	return f, nil
}

// Load parses the registry file at path.
func Load(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	defer r.Close()
	return Parse(r)
}

// splitAddrLine splits a registry address line into the address token
// and the trailing comment text. ok is false when the first token is
// not a dotted-quad IPv4 address.
func splitAddrLine(text string) (addr, name string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", "", false
	}
	tok := fields[0]
	ip := net.ParseIP(tok)
	if ip == nil || ip.To4() == nil || !strings.Contains(tok, ".") {
		return "", "", false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(text, tok))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "#"))
	return tok, rest, true
}

// ConfigFor returns the section of the first line, top to bottom,
// whose address equals addr. ok is false when no line matches.
func (f *File) ConfigFor(addr string) (string, bool) {
	for _, l := range f.lines {
		if l.addr == addr {
			return l.section, true
		}
	}
	return "", false
}

// Addresses returns the addresses under the named section, in file
// order.
func (f *File) Addresses(section string) []string {
	var addrs []string
	for _, l := range f.lines {
		if l.section == section {
			addrs = append(addrs, l.addr)
		}
	}
	return addrs
}

// Sections returns the section names in order of first appearance.
func (f *File) Sections() []string {
	return append([]string(nil), f.sections...)
}

// Entries returns every address line as an Entry, in file order.
func (f *File) Entries() []Entry {
	entries := make([]Entry, 0, len(f.lines))
	for _, l := range f.lines {
		entries = append(entries, Entry{Config: l.section, Addr: l.addr, Name: l.name})
	}
	return entries
}

// UnmatchedEntries returns the commented-out unmatched devices, in
// file order.
func (f *File) UnmatchedEntries() []Entry {
	return append([]Entry(nil), f.unmatched...)
}

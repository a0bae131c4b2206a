package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/espfleet/espfleet/pkg/config"
	"github.com/espfleet/espfleet/pkg/registry"
)

// AssignOptions configures the assign command.
type AssignOptions struct {
	ConfigDir    string
	RegistryPath string
}

// assignment moves one unmatched entry into a section.
type assignment struct {
	entry  registry.Entry
	config string
}

// RunAssign walks the registry's unmatched entries and lets the
// operator place each into a config section interactively. The
// registry file is rewritten once at the end.
func RunAssign(opts AssignOptions, stderr io.Writer) error {
	reg, err := registry.Load(opts.RegistryPath)
	if err != nil {
		return err
	}

	unmatched := reg.UnmatchedEntries()
	if len(unmatched) == 0 {
		fmt.Fprintln(stderr, "No unmatched devices in the registry.")
		return nil
	}

	ids, err := config.Scan(opts.ConfigDir)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no configurations in %s to assign to", opts.ConfigDir)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "assign> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "done",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	assigned, err := promptAssignments(rl, unmatched, ids)
	if err != nil {
		return err
	}
	if len(assigned) == 0 {
		fmt.Fprintln(stderr, "Nothing assigned.")
		return nil
	}

	entries, leftover := applyAssignments(reg, assigned)
	if err := writeRegistry(opts.RegistryPath, append(entries, leftover...)); err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Assigned %d device(s), registry updated.\n", len(assigned))
	return nil
}

// promptAssignments asks the operator for a target config per
// unmatched entry. Empty input or "s" skips, "q" stops early.
func promptAssignments(rl *readline.Instance, unmatched []registry.Entry, ids []config.Identifier) ([]assignment, error) {
	w := rl.Stdout()

	fmt.Fprintln(w, "Known configurations:")
	for i, id := range ids {
		fmt.Fprintf(w, "  %2d) %s\n", i+1, id.File)
	}

	var assigned []assignment
	for _, entry := range unmatched {
		fmt.Fprintf(w, "\n%s  # %s\n", entry.Addr, entry.Name)
		fmt.Fprintln(w, "Pick a configuration number, s to skip, q to quit:")

		choice, err := readChoice(rl, len(ids))
		if err != nil {
			return assigned, err
		}
		if choice == choiceQuit {
			break
		}
		if choice == choiceSkip {
			continue
		}

		assigned = append(assigned, assignment{entry: entry, config: ids[choice].File})
	}
	return assigned, nil
}

const (
	choiceSkip = -1
	choiceQuit = -2
)

func readChoice(rl *readline.Instance, max int) (int, error) {
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return choiceQuit, nil
		}
		if err != nil {
			return 0, err
		}

		switch input := strings.TrimSpace(line); input {
		case "", "s":
			return choiceSkip, nil
		case "q":
			return choiceQuit, nil
		default:
			n, err := strconv.Atoi(input)
			if err != nil || n < 1 || n > max {
				fmt.Fprintf(rl.Stdout(), "Enter a number between 1 and %d\n", max)
				continue
			}
			return n - 1, nil
		}
	}
}

// applyAssignments returns the registry's entries with the assigned
// devices moved into their sections, plus the still-unmatched rest.
func applyAssignments(reg *registry.File, assigned []assignment) (entries, leftover []registry.Entry) {
	moved := make(map[string]string, len(assigned)) // addr -> config
	for _, a := range assigned {
		moved[a.entry.Addr] = a.config
	}

	entries = reg.Entries()
	for _, a := range assigned {
		entries = append(entries, registry.Entry{Config: a.config, Addr: a.entry.Addr, Name: a.entry.Name})
	}

	for _, e := range reg.UnmatchedEntries() {
		if _, ok := moved[e.Addr]; !ok {
			leftover = append(leftover, e)
		}
	}
	return entries, leftover
}

func writeRegistry(path string, entries []registry.Entry) error {
	var sb strings.Builder
	if err := registry.Render(&sb, entries); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}

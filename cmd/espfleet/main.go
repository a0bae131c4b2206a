// Command espfleet discovers ESPHome devices on the local network and
// drives per-device compile/upload/log operations through the external
// esphome tool.
//
// The discover command browses for mDNS advertisements of the ESPHome
// native API, matches each device name against the local config files
// and prints a registry file grouping addresses by config:
//
//	espfleet discover 5 > devices.txt
//
// The remaining commands look devices up in that registry:
//
//	espfleet run 192.168.2.5        # compile + upload to one device
//	espfleet logs 192.168.2.5       # stream logs from one device
//	espfleet validate kitchen       # esphome config check
//	espfleet compile kitchen        # build without uploading
//	espfleet run-all                # every registry entry, abort on failure
//	espfleet run-config kitchen     # every device of one config
//	espfleet logs-config kitchen    # interleaved logs, [ip]-prefixed
//	espfleet validate-all           # OK/FAILED per config, keeps going
//	espfleet assign                 # place unmatched devices interactively
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/espfleet/espfleet/cmd/espfleet/commands"
)

const usage = `espfleet - ESPHome fleet discovery and bulk operations

Usage:
  espfleet <command> [flags] [args]

Commands:
  discover      Scan the network and print the device registry
  run           Compile + upload to one device by address
  logs          Stream logs from one device by address
  validate      Validate one configuration
  compile       Compile one configuration without uploading
  run-all       Upload to every registry entry (abort on failure)
  run-config    Upload to every device of one configuration
  logs-config   Stream logs from every device of one configuration
  validate-all  Validate every configuration (report and continue)
  assign        Interactively place unmatched registry entries

Use "espfleet <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "discover":
		runDiscover(ctx, args)
	case "run":
		runDevice(ctx, "run", args)
	case "logs":
		runDevice(ctx, "logs", args)
	case "validate":
		runDevice(ctx, "validate", args)
	case "compile":
		runDevice(ctx, "compile", args)
	case "run-all":
		runBulk(ctx, "run-all", args)
	case "run-config":
		runBulk(ctx, "run-config", args)
	case "logs-config":
		runBulk(ctx, "logs-config", args)
	case "validate-all":
		runBulk(ctx, "validate-all", args)
	case "assign":
		runAssign(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

// commonFlags registers the flags every command shares.
func commonFlags(fs *flag.FlagSet) (configDir, registryPath *string) {
	configDir = fs.String("config-dir", ".", "Directory with the device YAML files")
	registryPath = fs.String("registry", "devices.txt", "Registry file path")
	return configDir, registryPath
}

func runDiscover(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `espfleet discover - Scan the network and print the device registry

Usage:
  espfleet discover [flags] [timeout_seconds]

The registry text goes to stdout, progress to stderr. Zero devices
found is not an error.

Flags:
`)
		fs.PrintDefaults()
	}

	configDir := fs.String("config-dir", ".", "Directory with the device YAML files")
	snapshotPath := fs.String("snapshot", "", "Record the scan and report changes against the previous one")

	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	timeout := 5 * time.Second
	if fs.NArg() > 0 {
		secs, err := strconv.Atoi(fs.Arg(0))
		if err != nil || secs <= 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid timeout %q\n", fs.Arg(0))
			fs.Usage()
			os.Exit(2)
		}
		timeout = time.Duration(secs) * time.Second
	}

	opts := commands.DiscoverOptions{
		ConfigDir:    *configDir,
		Timeout:      timeout,
		SnapshotPath: *snapshotPath,
	}
	exitOnError(commands.RunDiscover(ctx, opts, os.Stdout, os.Stderr))
}

func runDevice(ctx context.Context, name string, args []string) {
	argName := "address"
	if name == "validate" || name == "compile" {
		argName = "config"
	}

	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `espfleet %s

Usage:
  espfleet %s [flags] <%s>

Flags:
`, name, name, argName)
		fs.PrintDefaults()
	}

	configDir, registryPath := commonFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: %s required\n", argName)
		fs.Usage()
		os.Exit(2)
	}

	opts := commands.DeviceOptions{ConfigDir: *configDir, RegistryPath: *registryPath}
	arg := fs.Arg(0)

	var err error
	switch name {
	case "run":
		err = commands.RunUpload(ctx, opts, arg)
	case "logs":
		err = commands.RunLogs(ctx, opts, arg)
	case "validate":
		err = commands.RunValidate(ctx, opts, arg)
	case "compile":
		err = commands.RunCompile(ctx, opts, arg)
	}
	exitOnError(err)
}

func runBulk(ctx context.Context, name string, args []string) {
	needsConfig := name == "run-config" || name == "logs-config"

	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		arg := ""
		if needsConfig {
			arg = " <config>"
		}
		fmt.Fprintf(os.Stderr, `espfleet %s

Usage:
  espfleet %s [flags]%s

Flags:
`, name, name, arg)
		fs.PrintDefaults()
	}

	configDir, registryPath := commonFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}
	if needsConfig && fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: config required")
		fs.Usage()
		os.Exit(2)
	}

	opts := commands.DeviceOptions{ConfigDir: *configDir, RegistryPath: *registryPath}

	var err error
	switch name {
	case "run-all":
		err = commands.RunAll(ctx, opts, os.Stderr)
	case "run-config":
		err = commands.RunConfigAll(ctx, opts, fs.Arg(0), os.Stderr)
	case "logs-config":
		err = commands.LogsConfig(ctx, opts, fs.Arg(0))
	case "validate-all":
		err = commands.ValidateAll(ctx, opts, os.Stdout)
	}
	exitOnError(err)
}

func runAssign(args []string) {
	fs := flag.NewFlagSet("assign", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `espfleet assign - Interactively place unmatched registry entries

Usage:
  espfleet assign [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	configDir, registryPath := commonFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	opts := commands.AssignOptions{ConfigDir: *configDir, RegistryPath: *registryPath}
	exitOnError(commands.RunAssign(opts, os.Stderr))
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		// Interrupted by the operator; subprocesses are already down.
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

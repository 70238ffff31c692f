// Package cmd implements the CLI command structure for nextask.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/nextask/internal/config"
	"github.com/nibzard/nextask/internal/logging"
	"github.com/nibzard/nextask/internal/storage"
	"github.com/nibzard/nextask/internal/store"
	"github.com/nibzard/nextask/internal/task"
	"github.com/nibzard/nextask/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the nextask CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("nextask", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// Determine the subcommand
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	// Execute the subcommand
	switch subcommand {
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "add":
		return addCommand(cfg, remainingArgs)
	case "ls", "list":
		return lsCommand(cfg, remainingArgs)
	case "toggle", "done":
		return toggleCommand(cfg, remainingArgs)
	case "rm", "delete":
		return rmCommand(cfg, remainingArgs)
	case "reset":
		return resetCommand(cfg, remainingArgs)
	case "doctor":
		return doctorCommand(cfg, remainingArgs)
	case "config":
		return configCommand(cws, remainingArgs)
	case "logs":
		return logsCommand(cfg, remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// newSlot builds the storage slot selected by the config.
func newSlot(cfg *config.Config) storage.Slot {
	if cfg.Storage == config.StorageMemory {
		return storage.NewMemorySlot()
	}
	return storage.NewFileSlot(cfg.DataDir, storage.WithQuota(cfg.StorageQuotaBytes))
}

// openStore creates a store for cfg and loads the persisted list.
func openStore(cfg *config.Config, logger *log.Logger) *store.Store {
	st := store.New(newSlot(cfg),
		store.WithStorageKey(cfg.StorageKey),
		store.WithLogger(logger),
		store.WithErrorTimeout(cfg.ErrorTimeout()),
		store.WithShakeTimeout(cfg.ShakeTimeout()),
	)
	st.LoadTasksFromLocalStorage()
	return st
}

// headlessStore opens the store for a one-shot command, logging to stderr.
// Mutating commands pass mutate=true and are refused when the persisted list
// is corrupted or not valid JSON, so the blob stays on disk until an
// explicit reset.
func headlessStore(cfg *config.Config, mutate bool) (*store.Store, error) {
	logger := logging.NewFromConfig(stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
	st := openStore(cfg, logger)

	state := st.State()
	switch state.AppStatus {
	case store.StatusError:
		if mutate {
			st.Close()
			return nil, fmt.Errorf("%s Run 'nextask reset' to start a fresh list", state.ErrorMessage)
		}
	case store.StatusLocalStorageUnavailable:
		if mutate && errors.Is(st.LoadError(), task.ErrMalformed) {
			st.Close()
			return nil, errors.New("saved task list is not valid JSON and was left untouched. Fix it by hand or run 'nextask reset' to start a fresh list")
		}
		fmt.Fprintln(stderr, "Warning: "+state.ErrorMessage)
	}
	return st, nil
}

// finish stops pending timers and reports a failed write-through.
func finish(st *store.Store) error {
	st.Close()
	if err := st.LastPersistError(); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	return nil
}

// tuiCommand launches the TUI.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("nextask tui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	logger := logging.Discard()
	runLog, err := logging.NewRunLog(cfg.LogDir)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: logging disabled: %v\n", err)
	} else {
		defer runLog.Close()
		logger = logging.NewFromConfig(runLog.Writer(), cfg.LogLevel, cfg.LogFormat, true, cfg.LogCaller)
		logger.Info("starting tui", "run", runLog.RunID, "storage", cfg.Storage, "key", cfg.StorageKey)
	}

	st := store.New(newSlot(cfg),
		store.WithStorageKey(cfg.StorageKey),
		store.WithLogger(logger),
		store.WithErrorTimeout(cfg.ErrorTimeout()),
		store.WithShakeTimeout(cfg.ShakeTimeout()),
	)
	defer st.Close()

	if err := ui.RunTUI(ctx, st); err != nil {
		return err
	}
	if err := st.LastPersistError(); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	return nil
}

// addCommand appends a task built from the remaining arguments.
func addCommand(cfg *config.Config, args []string) error {
	st, err := headlessStore(cfg, true)
	if err != nil {
		return err
	}

	st.SetTaskInputDescription(strings.Join(args, " "))
	if !st.AddNewTask() {
		st.Close()
		return errors.New(st.State().ErrorMessage)
	}
	if err := finish(st); err != nil {
		return err
	}

	tasks := st.State().Tasks
	added := tasks[len(tasks)-1]
	fmt.Fprintf(stdout, "Added %s\n", added.ID)
	return nil
}

// lsCommand prints tasks in insertion order.
func lsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("nextask ls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	statusFilter := fs.String("status", "", "Filter by status (pending|done)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	switch *statusFilter {
	case "", "pending", "done":
	default:
		return fmt.Errorf("invalid status %q, must be pending or done", *statusFilter)
	}

	st, err := headlessStore(cfg, false)
	if err != nil {
		return err
	}
	defer st.Close()

	state := st.State()
	if state.AppStatus == store.StatusError {
		return errors.New(state.ErrorMessage)
	}

	var tasks []task.Task
	for _, t := range state.Tasks {
		switch {
		case *statusFilter == "pending" && t.Completed:
			continue
		case *statusFilter == "done" && !t.Completed:
			continue
		}
		tasks = append(tasks, t)
	}
	printTaskList(tasks)
	return nil
}

// toggleCommand flips the completion flag of one task.
func toggleCommand(cfg *config.Config, args []string) error {
	return mutateByID(cfg, "toggle", args, func(st *store.Store, t task.Task) string {
		st.ToggleTaskCompletion(t.ID)
		if t.Completed {
			return "Reopened " + t.ID
		}
		return "Completed " + t.ID
	})
}

// rmCommand deletes one task.
func rmCommand(cfg *config.Config, args []string) error {
	return mutateByID(cfg, "rm", args, func(st *store.Store, t task.Task) string {
		st.DeleteTask(t.ID)
		return "Deleted " + t.ID
	})
}

func mutateByID(cfg *config.Config, name string, args []string, fn func(*store.Store, task.Task) string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: nextask %s <id>", name)
	}

	st, err := headlessStore(cfg, true)
	if err != nil {
		return err
	}

	t, err := resolveTask(st.State().Tasks, args[0])
	if err != nil {
		st.Close()
		return err
	}
	msg := fn(st, t)
	if err := finish(st); err != nil {
		return err
	}
	fmt.Fprintln(stdout, msg)
	return nil
}

// resolveTask finds a task by exact id or unique id prefix.
func resolveTask(tasks []task.Task, ref string) (task.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return task.Task{}, fmt.Errorf("task id is empty")
	}
	if i := task.Index(tasks, ref); i >= 0 {
		return tasks[i], nil
	}

	var matches []task.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return task.Task{}, fmt.Errorf("no task with id %q", ref)
	case 1:
		return matches[0], nil
	default:
		return task.Task{}, fmt.Errorf("id prefix %q matches %d tasks", ref, len(matches))
	}
}

// resetCommand replaces the persisted list with an empty one.
func resetCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("nextask reset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "Reset even if the list has tasks")
	fs.BoolVar(force, "f", false, "Reset even if the list has tasks")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := headlessStore(cfg, false)
	if err != nil {
		return err
	}

	state := st.State()
	if state.AppStatus == store.StatusInitialized && len(state.Tasks) > 0 && !*force {
		st.Close()
		return fmt.Errorf("list has %d tasks, use --force to discard them", len(state.Tasks))
	}

	st.StartFreshList()
	if err := finish(st); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Started a fresh list.")
	return nil
}

// doctorCommand checks the data directory, the persisted list and logging.
func doctorCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("nextask doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintln(stdout, "NexTask Doctor")
	fmt.Fprintln(stdout, "==============")
	fmt.Fprintln(stdout)

	allOK := true

	fmt.Fprintf(stdout, "Storage: %s (key %s)\n", cfg.Storage, cfg.StorageKey)
	if cfg.Storage == config.StorageMemory {
		fmt.Fprintln(stdout, "  ⚠️  Memory storage, tasks are not kept between runs")
	} else {
		slot := storage.NewFileSlot(cfg.DataDir, storage.WithQuota(cfg.StorageQuotaBytes))
		fmt.Fprintf(stdout, "  File: %s\n", slot.Path(cfg.StorageKey))
		if !checkSlot(slot, cfg.StorageKey, cfg.StorageQuotaBytes, *verbose) {
			allOK = false
		}
	}
	fmt.Fprintln(stdout)

	fmt.Fprintf(stdout, "Log directory: %s\n", cfg.LogDir)
	if info, err := os.Stat(cfg.LogDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(stdout, "  ⚠️  Not found (will be created by the tui)")
		} else {
			fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
			allOK = false
		}
	} else if !info.IsDir() {
		fmt.Fprintln(stdout, "  ❌ Error: path is not a directory")
		allOK = false
	} else {
		fmt.Fprintln(stdout, "  ✅ OK")
	}
	fmt.Fprintln(stdout)

	if allOK {
		fmt.Fprintln(stdout, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(stdout, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

func checkSlot(slot *storage.FileSlot, key string, quota int64, verbose bool) bool {
	data, ok, err := slot.Get(key)
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ Unreadable: %v\n", err)
		return false
	}
	if !ok {
		fmt.Fprintln(stdout, "  ⚠️  Not found (will be created on first change)")
		return true
	}

	snap, err := task.DecodeSnapshot(data)
	if err != nil {
		var corrupt *task.CorruptionError
		if errors.As(err, &corrupt) {
			fmt.Fprintln(stdout, "  ❌ Corrupted:")
			for _, e := range corrupt.Errors {
				fmt.Fprintf(stdout, "     - %v\n", e)
			}
		} else {
			fmt.Fprintf(stdout, "  ❌ Not valid JSON: %v\n", err)
		}
		return false
	}

	fmt.Fprintln(stdout, "  ✅ Valid")
	if quota > 0 {
		fmt.Fprintf(stdout, "  Size: %d of %d bytes\n", len(data), quota)
	}
	if verbose {
		fmt.Fprintf(stdout, "  Tasks: %d\n", len(snap.Tasks))
		for _, t := range snap.Tasks {
			fmt.Fprintln(stdout, "  "+formatTask(t))
		}
	}
	return true
}

// configCommand prints the effective configuration and where each value came from.
func configCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("nextask config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *example {
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	}

	cfg := cws.Config
	if file := cws.GetConfigFile(); file != "" {
		fmt.Fprintf(stdout, "Config file: %s\n\n", file)
	}
	rows := []struct {
		field string
		value any
	}{
		{"data_dir", cfg.DataDir},
		{"storage", cfg.Storage},
		{"storage_key", cfg.StorageKey},
		{"storage_quota_bytes", cfg.StorageQuotaBytes},
		{"error_timeout_ms", cfg.ErrorTimeoutMS},
		{"shake_timeout_ms", cfg.ShakeTimeoutMS},
		{"log_dir", cfg.LogDir},
		{"log_level", cfg.LogLevel},
		{"log_format", cfg.LogFormat},
		{"log_timestamps", cfg.LogTimestamps},
		{"log_caller", cfg.LogCaller},
	}
	for _, row := range rows {
		fmt.Fprintf(stdout, "%-20s = %-40v (%s)\n", row.field, row.value, cws.Sources[row.field])
	}
	return nil
}

// logsCommand prints the latest TUI run log.
func logsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("nextask logs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	pathOnly := fs.Bool("path", false, "Print only the log file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logPath, err := logging.FindLatestLog(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(stdout, "No log files found.")
		return nil
	}
	if *pathOnly {
		fmt.Fprintln(stdout, logPath)
		return nil
	}
	return logging.CopyLog(stdout, logPath)
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "nextask version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "NexTask - A small persistent task list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  nextask [options] [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui              Launch the terminal UI (default command)")
	fmt.Fprintln(w, "  add <text...>    Add a task")
	fmt.Fprintln(w, "  ls               List tasks (-status pending|done)")
	fmt.Fprintln(w, "  toggle <id>      Toggle completion (unique id prefixes work)")
	fmt.Fprintln(w, "  rm <id>          Delete a task")
	fmt.Fprintln(w, "  reset            Start a fresh list (-f to discard tasks)")
	fmt.Fprintln(w, "  doctor           Check storage and log directories")
	fmt.Fprintln(w, "  config           Show effective config (-example for a template)")
	fmt.Fprintln(w, "  logs             Print the latest tui log (-path for its location)")
	fmt.Fprintln(w, "  version          Show version information")
	fmt.Fprintln(w, "  help             Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// printTaskList prints tasks in list order.
func printTaskList(tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(stdout, "No tasks found.")
		return
	}
	for _, t := range tasks {
		fmt.Fprintln(stdout, formatTask(t))
	}
}

func formatTask(t task.Task) string {
	mark := "[ ]"
	if t.Completed {
		mark = "[x]"
	}
	return fmt.Sprintf("%s %s  %s", mark, t.ID, t.Description)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vsnap-go/internal/app"
	"vsnap-go/internal/config"
	"vsnap-go/internal/vsnap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "save", "restore").
func newApp(operation string, args []string) (*app.App, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewApp(cfg, operation, strings.Join(args, " "))
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// report prints the one-line message for domain outcomes and swallows
// them; anything else is returned so the process exits non-zero.
func report(err error) error {
	if err == nil {
		return nil
	}
	if vsnap.IsUserError(err) {
		fmt.Println(vsnap.UserMessage(err))
		return nil
	}
	return err
}

var rootCmd = &cobra.Command{
	Use:          "vsnap",
	Short:        "Local file version snapshots",
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a repository in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("init", args)
		if err != nil {
			return err
		}
		defer a.Close()

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		if _, err := a.Init(cwd); err != nil {
			return report(err)
		}
		fmt.Printf("Initialized repository in %s.\n", cwd)
		return nil
	},
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Print the nearest repository up the directory tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("find", args)
		if err != nil {
			return err
		}
		defer a.Close()

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		root, err := a.FindRepository(cwd)
		if err != nil {
			return report(err)
		}
		fmt.Printf("Repository is at %s.\n", root)
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save FILE",
	Short: "Save the given file into the repository",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("save", args)
		if err != nil {
			return err
		}
		defer a.Close()

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		var path string
		if len(args) > 0 {
			path = args[0]
		}

		result, err := a.Save(cwd, path)
		if err != nil {
			return report(err)
		}
		if result.MirrorErr != nil {
			fmt.Println("File saved in the repository, but copying it to the vault failed.")
			return nil
		}
		fmt.Println("File saved in the repository.")
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [D.M.YYYY [H[.MIN]]] FILE",
	Short: "Restore a saved file into the current directory",
	Args:  cobra.MaximumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("restore", args)
		if err != nil {
			return err
		}
		defer a.Close()

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		result, err := a.Restore(cwd, args, app.PromptPassphrase(os.Stderr, "Passphrase: "))
		if err != nil {
			return report(err)
		}

		switch result.Outcome {
		case vsnap.OutcomeRestored:
			fmt.Printf("Restored %s saved %s.\n", result.Snapshot.Name, result.Snapshot.Timestamp)
		case vsnap.OutcomeNoMatch:
			fmt.Println("No saved version matches.")
		case vsnap.OutcomeAmbiguous:
			fmt.Println("Several saved versions match. Give a more precise time:")
			for _, m := range result.Candidates {
				fmt.Printf("  %-16s  %s\n", m.Timestamp, m.Name)
			}
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list [FRAGMENT]",
	Short: "List saved versions, optionally only names ending with FRAGMENT",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("list", args)
		if err != nil {
			return err
		}
		defer a.Close()

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		var fragment string
		if len(args) > 0 {
			fragment = args[0]
		}

		matches, err := a.List(cwd, fragment)
		if err != nil {
			return report(err)
		}
		if len(matches) == 0 {
			fmt.Println("No saved versions.")
			return nil
		}

		for _, m := range matches {
			fmt.Printf("%-16s  %-30s  %8s  %s\n",
				m.Timestamp,
				m.Name,
				humanize.Bytes(uint64(m.Size)),
				humanize.Time(m.Timestamp.Time(time.Local)),
			)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch FILE...",
	Short: "Save files whenever they change",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("watch", args)
		if err != nil {
			return err
		}
		defer a.Close()

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %d file(s). Press Ctrl-C to stop.\n", len(args))
		err = a.Watch(ctx, cwd, args, func(path string, result *vsnap.SaveResult, err error) {
			if err != nil {
				fmt.Printf("%s: %s\n", path, vsnap.UserMessage(err))
				return
			}
			fmt.Printf("Saved %s\n", result.StoredName)
		})
		return report(err)
	},
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Copy saved versions missing from the vault",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("mirror", args)
		if err != nil {
			return err
		}
		defer a.Close()

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		n, err := a.Mirror(cwd)
		if err != nil {
			return report(err)
		}
		fmt.Printf("Copied %d saved version(s) to the vault.\n", n)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent vsnap operations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history", args)
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.Finished() {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("%.8s  %-8s  %s  %-7s  %-6s  %s %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
				op.Message,
			)
		}
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the encryption key pair",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("keys init", args)
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := app.PromptNewPassphrase(os.Stderr)
		if err != nil {
			return err
		}
		if err := a.SetupKeys(pass); err != nil {
			return err
		}
		fmt.Println("Encryption keys created.")
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Host ID:    %s\n", cfg.HostID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Journal:    %s %s\n", cfg.Journal.Type, cfg.Journal.DataDir)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		fmt.Printf("Ignore:     %s\n", strings.Join(cfg.Filesystem.Ignore, ", "))
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:      %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// root commands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mirrorCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(configCmd)
}

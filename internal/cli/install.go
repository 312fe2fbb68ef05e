package cli

import (
	"fmt"
	"path/filepath"

	"github.com/glorpus-work/gccfetch/internal/logger"
	"github.com/glorpus-work/gccfetch/pkg/config"
	"github.com/glorpus-work/gccfetch/pkg/database"
	"github.com/glorpus-work/gccfetch/pkg/download"
	"github.com/glorpus-work/gccfetch/pkg/fsutil"
	"github.com/glorpus-work/gccfetch/pkg/manifest"
	"github.com/glorpus-work/gccfetch/pkg/orchestrator"
	"github.com/glorpus-work/gccfetch/pkg/toolchain"
	"github.com/spf13/cobra"
)

type installFlags struct {
	arch     string
	workers  int
	attempts int
	cacheDir string
	force    bool
}

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var flags installFlags

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Download and install the MinGW toolchain",
		Long: `Install the MinGW GCC toolchain for the host architecture into the cache directory.
A valid existing installation is reused. Otherwise the newest matching release is
downloaded in parallel chunks, verified, extracted and validated, with retries.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.arch, "arch", "", "Target architecture (amd64 selects mingw64, anything else mingw32)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Number of parallel chunk downloads (defaults to config)")
	cmd.Flags().IntVar(&flags.attempts, "attempts", 0, "Maximum download attempts (defaults to config)")
	cmd.Flags().StringVar(&flags.cacheDir, "cache-dir", "", "Cache directory (defaults to config)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Remove an existing installation first")

	return cmd
}

func runInstall(cmd *cobra.Command, flags installFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyInstallFlags(cfg, flags); err != nil {
		return err
	}

	records, err := openRecords(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = records.Close() }()

	if flags.force {
		if err := removeInstalled(cfg, records); err != nil {
			return err
		}
	}

	progress := &progressLine{w: cmd.ErrOrStderr()}
	orch := newOrchestrator(cfg, records, progress)

	res, err := orch.Acquire(cmd.Context())
	progress.finish()

	out := cmd.OutOrStdout()
	st := newStyles()
	switch res.State {
	case orchestrator.StateDone:
		how := "installed after " + formatAttempts(res.Attempts)
		if res.FromCache {
			how = "already installed"
		}
		_, _ = fmt.Fprintf(out, "%s %s %s\n", st.ok.Render("✓"), res.Variant, st.dim.Render(how))
		st.field(out, "Path", res.Path)
		st.field(out, "gcc", filepath.Join(res.Path, "bin", "gcc.exe"))
		logger.Success("Toolchain ready", logger.Fields{"path": res.Path, "variant": res.Variant})
		return nil
	case orchestrator.StateCancelled:
		_, _ = fmt.Fprintf(out, "%s installation cancelled\n", st.warn.Render("!"))
		return err
	default:
		_, _ = fmt.Fprintf(out, "%s %s\n", st.fail.Render("✗"), res.Reason)
		return fmt.Errorf("toolchain installation failed: %w", err)
	}
}

func applyInstallFlags(cfg *config.Config, flags installFlags) error {
	if flags.arch != "" {
		cfg.Settings.Arch = flags.arch
	}
	if flags.workers != 0 {
		cfg.Settings.Workers = flags.workers
	}
	if flags.attempts != 0 {
		cfg.Settings.MaxAttempts = flags.attempts
	}
	if flags.cacheDir != "" {
		cfg.Settings.CacheDir = flags.cacheDir
	}
	return cfg.Validate()
}

// removeInstalled deletes every installation the acquisition would otherwise reuse.
func removeInstalled(cfg *config.Config, records database.InstalledStore) error {
	for _, v := range toolchain.SearchOrder(cfg.GetArch()) {
		dir := filepath.Join(cfg.GetCacheDir(), v.Name)
		if !fsutil.Exists(dir) {
			continue
		}
		logger.Info("Removing existing installation", logger.Fields{"path": dir})
		if err := fsutil.RemoveAllWithRetry(dir, fsutil.DefaultRetryPolicy()); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
		if err := records.Delete(v.Name); err != nil {
			return err
		}
	}
	return nil
}

// newOrchestrator wires the production components from cfg. Log lines go to the logger,
// progress lines to the given status line.
func newOrchestrator(cfg *config.Config, records orchestrator.RecordStore, progress *progressLine) *orchestrator.Orchestrator {
	s := cfg.Settings

	logHook := func(msg string) {
		progress.finish()
		logger.Info(msg)
	}

	client := download.NewClient(download.ClientOptions{
		Timeout:        s.HTTPTimeout,
		UserAgent:      s.UserAgent,
		BytesPerSecond: int64(s.MaxBandwidth),
	})
	resolver := manifest.NewResolver(manifest.Options{
		URL:       s.ManifestURL,
		Timeout:   s.HTTPTimeout,
		UserAgent: s.UserAgent,
		Token:     cfg.Token(),
		Log:       logHook,
	})

	orch := orchestrator.New(orchestrator.Options{
		CacheDir:       cfg.GetCacheDir(),
		Arch:           cfg.GetArch(),
		Workers:        s.Workers,
		MaxAttempts:    s.MaxAttempts,
		BackoffBase:    s.BackoffBase,
		BackoffMax:     s.BackoffMax,
		KeepArchive:    s.KeepArchive,
		CheckDiskSpace: s.CheckDiskSpace,
	}, orchestrator.Components{
		Client:          client,
		Resolver:        resolver,
		MinArchiveSize:  int64(s.MinArchiveSize),
		VerifyChecksums: s.VerifyChecksums,
	})
	orch.Records = records

	orch.Hooks = orchestrator.Hooks{
		OnEvent: func(e orchestrator.Event) {
			logger.Debug(e.Msg, logger.Fields{"state": e.State.String(), "attempt": e.Attempt})
		},
		Log: logHook,
		Progress: func(msg string) {
			if s.OutputFormat == string(logger.FormatJSON) {
				logger.Debug(msg)
				return
			}
			progress.update(msg)
		},
	}
	return orch
}

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/glorpus-work/gccfetch/internal/logger"
	"github.com/glorpus-work/gccfetch/pkg/cache"
	"github.com/glorpus-work/gccfetch/pkg/config"
	"github.com/glorpus-work/gccfetch/pkg/fsutil"
	"github.com/glorpus-work/gccfetch/pkg/toolchain"
	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache command with subcommands
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the toolchain cache",
		Long:  "Clean, show information about, and locate the toolchain cache",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var options cache.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the cache",
		Long: `Remove cached files to free up disk space. Without flags, leftover download
staging files and downloaded archives are removed and installed toolchains are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClean(cmd, options)
		},
	}

	cmd.Flags().BoolVar(&options.All, "all", false, "Remove everything, install records included")
	cmd.Flags().BoolVar(&options.Staging, "staging", false, "Remove leftover chunk files and extraction directories")
	cmd.Flags().BoolVar(&options.Archives, "archives", false, "Remove downloaded archives")
	cmd.Flags().BoolVar(&options.Toolchains, "toolchains", false, "Remove installed toolchains")

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Long:  "Display sizes of staging files, archives and installed toolchains",
		Args:  cobra.NoArgs,
		RunE:  runCacheInfo,
	}
}

func newCacheDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Show cache directory path",
		Long:  "Display the path to the cache directory",
		Args:  cobra.NoArgs,
		RunE:  runCacheDir,
	}
}

func newCacheOperation(cfg *config.Config) *cache.Operation {
	return cache.NewOperation(cache.NewManager(cfg.GetCacheDir()))
}

func runCacheClean(cmd *cobra.Command, options cache.CleanOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	msg, err := newCacheOperation(cfg).Clean(options)
	if err != nil {
		return err
	}

	if options.Toolchains && !options.All {
		if err := forgetRemovedToolchains(cfg); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

// forgetRemovedToolchains drops the install records of toolchain directories that no longer exist.
func forgetRemovedToolchains(cfg *config.Config) error {
	records, err := openRecords(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = records.Close() }()

	for _, name := range toolchain.CanonicalNames() {
		if fsutil.Exists(filepath.Join(cfg.GetCacheDir(), name)) {
			continue
		}
		if err := records.Delete(name); err != nil {
			return err
		}
		logger.Debug("Dropped install record", logger.Fields{"variant": name})
	}
	return nil
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	info, err := newCacheOperation(cfg).GetInfo()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), info)
	return nil
}

func runCacheDir(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), newCacheOperation(cfg).GetDirectory())
	return nil
}

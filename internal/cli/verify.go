package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/glorpus-work/gccfetch/pkg/archive"
	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/toolchain"
	"github.com/spf13/cobra"
)

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify PATH",
		Short: "Check a toolchain directory or archive",
		Long: `Verify a toolchain directory (name, bin directory and executables) or a
downloaded .zip archive (size, format, entries and top-level directory).`,
		Args: cobra.ExactArgs(1),
		RunE: runVerify,
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot verify %s: %w", path, err)
	}

	if info.IsDir() {
		return verifyDirectory(cmd, path)
	}
	if strings.EqualFold(filepath.Ext(path), toolchain.ArchiveExt) {
		verifier := archive.NewVerifier(int64(cfg.Settings.MinArchiveSize))
		verifier.CheckIntegrity = cfg.Settings.VerifyChecksums
		return verifyArchive(cmd, verifier, path)
	}
	return fmt.Errorf("cannot verify %s: expected a directory or a %s archive", path, toolchain.ArchiveExt)
}

func verifyDirectory(cmd *cobra.Command, dir string) error {
	out := cmd.OutOrStdout()
	st := newStyles()

	res := toolchain.Validate(dir)
	if res.Valid {
		_, _ = fmt.Fprintf(out, "%s %s is a valid %s toolchain\n", st.ok.Render("✓"), dir, res.Variant.Name)
		return nil
	}

	_, _ = fmt.Fprintf(out, "%s %s\n", st.fail.Render("✗"), res.Reason)
	for _, m := range res.Missing {
		_, _ = fmt.Fprintf(out, "  %s %s\n", st.dim.Render("missing"), m)
	}
	return errors.Wrap(errors.ErrValidationFailed, dir)
}

func verifyArchive(cmd *cobra.Command, verifier *archive.Verifier, path string) error {
	out := cmd.OutOrStdout()
	st := newStyles()

	res := verifier.Verify(cmd.Context(), path)
	if res.IsValid() {
		_, _ = fmt.Fprintf(out, "%s %s\n", st.ok.Render("✓"), path)
	} else {
		_, _ = fmt.Fprintf(out, "%s %s\n", st.fail.Render("✗"), res.Reason)
	}
	st.field(out, "Verdict", res.Verdict.String())
	st.field(out, "Size", formatSize(res.Size))
	if res.EntryCount > 0 {
		st.field(out, "Entries", strconv.Itoa(res.EntryCount))
	}
	if res.RootDir != "" {
		st.field(out, "Root", res.RootDir)
	}
	return res.Err()
}

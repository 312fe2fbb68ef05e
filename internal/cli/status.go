package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/glorpus-work/gccfetch/pkg/database"
	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/fsutil"
	"github.com/glorpus-work/gccfetch/pkg/toolchain"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show installed toolchains",
		Long:  "Validate every toolchain directory in the cache and show which one an install would use.",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	records, err := openRecords(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = records.Close() }()

	out := cmd.OutOrStdout()
	st := newStyles()
	cacheDir := cfg.GetCacheDir()

	_, _ = fmt.Fprintf(out, "%s %s\n", st.label.Render("Cache:"), cacheDir)
	_, _ = fmt.Fprintf(out, "%s %s\n\n", st.label.Render("Architecture:"), cfg.GetArch())

	activeDir, found := toolchain.Locate(cacheDir, cfg.GetArch())
	active := ""
	if found {
		active = filepath.Base(activeDir)
	}

	for _, name := range toolchain.CanonicalNames() {
		dir := filepath.Join(cacheDir, name)
		if !fsutil.Exists(dir) {
			_, _ = fmt.Fprintf(out, "%s %s %s\n", st.dim.Render("-"), name, st.dim.Render("not installed"))
			continue
		}

		res := toolchain.Validate(dir)
		if res.Valid {
			mark := ""
			if name == active {
				mark = " " + st.dim.Render("(active)")
			}
			_, _ = fmt.Fprintf(out, "%s %s%s\n", st.ok.Render("✓"), name, mark)
		} else {
			_, _ = fmt.Fprintf(out, "%s %s %s\n", st.fail.Render("✗"), name, res.Reason)
		}

		st.field(out, "Path", dir)
		rec, err := records.Get(name)
		switch {
		case err == nil:
			printRecord(st, out, rec)
		case errors.Is(err, errors.ErrRecordNotFound):
			st.field(out, "Installed", "unknown")
		default:
			return err
		}
	}

	if active == "" {
		_, _ = fmt.Fprintf(out, "\nNo usable toolchain. Run 'gccfetch install'.\n")
	}
	return nil
}

func printRecord(st styles, out io.Writer, rec database.Record) {
	st.field(out, "Asset", rec.AssetName)
	st.field(out, "Size", formatSize(rec.Size))
	st.field(out, "Installed", rec.InstalledAt.Local().Format(time.DateTime))
	st.field(out, "Attempts", formatAttempts(rec.Attempts))
}

func formatSize(n int64) string {
	if n <= 0 {
		return "unknown"
	}
	return datasize.ByteSize(n).HR()
}

func formatAttempts(n int) string {
	if n == 1 {
		return "1 attempt"
	}
	return strconv.Itoa(n) + " attempts"
}

package toolchain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Result is the verdict on a toolchain directory.
type Result struct {
	Valid  bool
	Reason string
	// Missing names the required files that are absent, or the optional set when none of it exists.
	Missing []string
	Variant Variant
}

// Validator checks installed toolchain directories. It only reads the filesystem.
type Validator struct{}

// NewValidator returns a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks dir through three gates in order: canonical name, bin directory, executables.
func (v *Validator) Validate(dir string) Result {
	return Validate(dir)
}

// Validate is the package-level form of Validator.Validate.
func Validate(dir string) Result {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return reject("directory does not exist")
		}
		return reject(fmt.Sprintf("cannot access directory: %v", err))
	}
	if !info.IsDir() {
		return reject("path is not a directory")
	}

	base := filepath.Base(filepath.Clean(dir))
	variant, ok := ByName(base)
	if !ok {
		return reject(fmt.Sprintf("wrong name: directory must be %s, got %s",
			strings.Join(CanonicalNames(), " or "), strings.ToLower(base)))
	}

	if !isDir(filepath.Join(dir, "bin")) {
		return Result{Reason: "missing bin directory", Variant: variant}
	}

	var missing []string
	for _, rel := range RequiredExecutables {
		if !isFile(filepath.Join(dir, filepath.FromSlash(rel))) {
			missing = append(missing, rel)
		}
	}
	if len(missing) > 0 {
		return Result{
			Reason:  "missing required files: " + strings.Join(missing, ", "),
			Missing: missing,
			Variant: variant,
		}
	}

	optional := variant.OptionalExecutables()
	for _, rel := range optional {
		if isFile(filepath.Join(dir, filepath.FromSlash(rel))) {
			return Result{Valid: true, Reason: "toolchain is valid", Variant: variant}
		}
	}
	return Result{
		Reason:  "missing architecture-specific files, need one of: " + strings.Join(optional, ", "),
		Missing: optional,
		Variant: variant,
	}
}

// Locate returns the first valid installation under root for the host arch.
func Locate(root, arch string) (string, bool) {
	for _, variant := range SearchOrder(arch) {
		dir := filepath.Join(root, variant.Name)
		if Validate(dir).Valid {
			return dir, true
		}
	}
	return "", false
}

func reject(reason string) Result {
	return Result{Reason: reason}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Package manifest resolves the release asset to download for a toolchain variant.
package manifest

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/glorpus-work/gccfetch/pkg/toolchain"
	"github.com/hashicorp/go-version"
)

// DefaultURL is the release manifest of the winlibs MinGW builds.
const DefaultURL = "https://api.github.com/repos/brechtsanders/winlibs_mingw/releases/latest"

// Asset is a downloadable release file. Size 0 means unknown.
type Asset struct {
	URL  string
	Name string
	Size int64
	// Fallback is set when the asset did not come from the manifest.
	Fallback bool
}

// release is the part of the manifest document the resolver reads.
type release struct {
	Assets []releaseAsset `json:"assets"`
}

type releaseAsset struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"browser_download_url"`
}

// Tier is the priority class of a matching asset. Lower is better.
type Tier int

const (
	TierArchABI Tier = iota + 1
	TierArch
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierArchABI:
		return "architecture and ABI match"
	case TierArch:
		return "architecture match"
	default:
		return "fallback"
	}
}

var gccVersionPattern = regexp.MustCompile(`gcc-(\d+(?:\.\d+)*)`)

// gccVersion extracts the compiler version from an asset name, or nil.
func gccVersion(name string) *version.Version {
	m := gccVersionPattern.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	v, err := version.NewVersion(m[1])
	if err != nil {
		return nil
	}
	return v
}

// selectAsset picks the best asset for v: architecture and ABI keywords first, then architecture
// only. Within a tier the highest embedded GCC version wins, then manifest order.
// ok is false when nothing matches.
func selectAsset(assets []releaseAsset, v toolchain.Variant) (Asset, Tier, bool) {
	for _, tier := range []Tier{TierArchABI, TierArch} {
		var candidates []releaseAsset
		for _, a := range assets {
			if a.DownloadURL == "" || a.Size < 0 || !SafeName(a.Name) {
				continue
			}
			if v.MatchesAsset(a.Name, tier == TierArchABI) {
				candidates = append(candidates, a)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return newer(gccVersion(candidates[i].Name), gccVersion(candidates[j].Name))
		})
		best := candidates[0]
		return Asset{URL: best.DownloadURL, Name: best.Name, Size: best.Size}, tier, true
	}
	return Asset{}, TierFallback, false
}

// SafeName reports whether name is a plain file name, so that joining it to a directory
// stays inside that directory. Asset names come from the network and are used as cache paths.
func SafeName(name string) bool {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\:`) {
		return false
	}
	return filepath.Base(name) == name
}

// newer orders versioned names before unversioned ones.
func newer(a, b *version.Version) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.GreaterThan(b)
	}
}

// FallbackAsset is the hardcoded release of v with unknown size.
func FallbackAsset(v toolchain.Variant) Asset {
	return Asset{URL: v.FallbackURL, Name: v.FallbackName(), Fallback: true}
}

// Package atlas finds and decodes the labelled white-matter atlas volume.
package atlas

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ErrAtlasNotFound is returned when no candidate location holds the atlas.
var ErrAtlasNotFound = errors.New("atlas not found")

// SearchOptions controls where Locate looks for the atlas file.
type SearchOptions struct {
	// Filename is the atlas file name, e.g. JHU-ICBM-labels-1mm.nii.gz
	Filename string

	// Path, when set, is the only location tried
	Path string

	// WorkDir and ExecDir are the working directory and the directory of the
	// running binary; each contributes a data/ candidate when non-empty
	WorkDir string
	ExecDir string

	// EnvVar names the FSL installation variable and EnvDefault is used
	// when it is unset
	EnvVar     string
	EnvDefault string
}

// Candidates returns the paths Locate tries, in order.
func (o SearchOptions) Candidates() []string {
	if o.Path != "" {
		return []string{o.Path}
	}

	var out []string
	if o.WorkDir != "" {
		out = append(out, filepath.Join(o.WorkDir, "data", o.Filename))
	}
	if o.ExecDir != "" {
		out = append(out, filepath.Join(o.ExecDir, "data", o.Filename))
	}

	fslDir := o.EnvDefault
	if o.EnvVar != "" {
		if v := os.Getenv(o.EnvVar); v != "" {
			fslDir = v
		}
	}
	if fslDir != "" {
		out = append(out, filepath.Join(fslDir, "data", "atlases", "JHU", o.Filename))
	}
	return out
}

// Locate returns the first existing candidate path.
func Locate(ctx context.Context, opts SearchOptions) (string, error) {
	candidates := opts.Candidates()
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			zerolog.Ctx(ctx).Info().Str("component", "atlas").Str("path", path).Msg("atlas located")
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s (download from https://neurovault.org/images/1401/ and place it under data/)",
		ErrAtlasNotFound, strings.Join(candidates, ", "))
}

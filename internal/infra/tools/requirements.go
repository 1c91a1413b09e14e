package tools

import (
	"context"
	"fmt"
	"regexp"
	"time"

	goversion "github.com/hashicorp/go-version"

	"github.com/codesectools/sastbench/internal/infra/execx"
	"github.com/codesectools/sastbench/pkg/domain/shared"
)

// versionRegex extracts the first semver-looking token from a tool's
// --version output.
var versionRegex = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)

// Requirement names a binary an adapter needs and, optionally, the
// minimum version it must report.
type Requirement struct {
	Binary string
	// MinVersion is a version constraint like "1.50.0". Empty means
	// any version.
	MinVersion string
	// VersionArgs invokes the binary to print its version.
	// Defaults to ["--version"].
	VersionArgs []string
}

// CheckRequirements verifies every requirement against this host.
// The first unmet requirement is returned wrapped in
// shared.ErrToolUnavailable.
func CheckRequirements(reqs []Requirement) error {
	for _, req := range reqs {
		if err := checkRequirement(req); err != nil {
			return err
		}
	}
	return nil
}

func checkRequirement(req Requirement) error {
	if !execx.LookPath(req.Binary) {
		return fmt.Errorf("%w: binary %q not found on PATH", shared.ErrToolUnavailable, req.Binary)
	}
	if req.MinVersion == "" {
		return nil
	}

	installed, err := installedVersion(req)
	if err != nil {
		return fmt.Errorf("%w: cannot determine %s version: %v", shared.ErrToolUnavailable, req.Binary, err)
	}

	minimum, err := goversion.NewVersion(req.MinVersion)
	if err != nil {
		return fmt.Errorf("invalid minimum version %q for %s: %w", req.MinVersion, req.Binary, err)
	}
	if installed.LessThan(minimum) {
		return fmt.Errorf("%w: %s %s is older than required %s",
			shared.ErrToolUnavailable, req.Binary, installed, minimum)
	}
	return nil
}

func installedVersion(req Requirement) (*goversion.Version, error) {
	args := req.VersionArgs
	if len(args) == 0 {
		args = []string{"--version"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := execx.Run(ctx, execx.Spec{Name: req.Binary, Args: args})
	if err != nil {
		return nil, err
	}

	out := res.Stdout
	if out == "" {
		out = res.Stderr
	}
	m := versionRegex.FindString(out)
	if m == "" {
		return nil, fmt.Errorf("no version in output %q", out)
	}
	return goversion.NewVersion(m)
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// ProbeService checks a registered repository against its remote: the branch
// must be advertised and the compose file must exist on it.
type ProbeService struct {
	remote  driven.RemoteInspector
	compose driven.ComposeLocator
	logger  *slog.Logger
}

// NewProbeService creates a ProbeService. compose may be nil, in which case
// the compose check is always skipped.
func NewProbeService(remote driven.RemoteInspector, compose driven.ComposeLocator, logger *slog.Logger) *ProbeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProbeService{remote: remote, compose: compose, logger: logger}
}

// Probe runs both checks for repo. Failures are reported in the result, not
// as an error.
func (s *ProbeService) Probe(ctx context.Context, repo model.Repository) model.ProbeResult {
	start := time.Now()
	branch := repo.Branch
	if branch == "" {
		branch = model.DefaultBranch
	}

	res := model.ProbeResult{
		RepoID:      repo.ID,
		ComposePath: model.ComposePath(repo.ComposeFolder),
	}

	branches, err := s.remote.Branches(ctx, repo.URL)
	switch {
	case err != nil:
		s.logger.Warn("listing remote branches failed", "repo", repo.ID, "url", repo.URL, "error", err)
		res.Branch = model.ProbeFailed
		res.BranchDetail = err.Error()
	case slices.Contains(branches, branch):
		res.Branch = model.ProbeFound
		res.BranchDetail = fmt.Sprintf("branch %q exists", branch)
	default:
		res.Branch = model.ProbeMissing
		res.BranchDetail = fmt.Sprintf("branch %q not found", branch)
		if len(branches) > 0 {
			res.BranchDetail += " (remote has " + strings.Join(branches, ", ") + ")"
		}
	}

	switch {
	case s.compose == nil:
		res.Compose = model.ProbeSkipped
		res.ComposeDetail = "compose lookup is not configured"
	case res.Branch == model.ProbeMissing:
		res.Compose = model.ProbeSkipped
		res.ComposeDetail = "branch not found"
	default:
		s.probeCompose(ctx, repo.URL, branch, &res)
	}

	s.logger.Debug("repository probed",
		"repo", repo.ID,
		"branch", res.Branch,
		"compose", res.Compose,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return res
}

func (s *ProbeService) probeCompose(ctx context.Context, url, branch string, res *model.ProbeResult) {
	ok, err := s.compose.FileExists(ctx, url, branch, res.ComposePath)
	switch {
	case errors.Is(err, driven.ErrUnsupportedHost):
		res.Compose = model.ProbeSkipped
		res.ComposeDetail = "compose lookup is only available for GitHub repositories"
	case err != nil:
		s.logger.Warn("compose lookup failed", "repo", res.RepoID, "path", res.ComposePath, "error", err)
		res.Compose = model.ProbeFailed
		res.ComposeDetail = err.Error()
	case ok:
		res.Compose = model.ProbeFound
		res.ComposeDetail = res.ComposePath + " found"
	default:
		res.Compose = model.ProbeMissing
		res.ComposeDetail = res.ComposePath + " not found on " + branch
	}
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
	"github.com/ericfisherdev/spaceport/internal/domain/port/driven"
)

// FetcherFactory builds a ComposeFetcher authenticated with token. An empty
// token asks for anonymous access.
type FetcherFactory func(token string) driven.ComposeFetcher

// IndexService fetches the compose file of every registered repository and
// records it in the index.
type IndexService struct {
	repos      driven.RepoStore
	creds      driven.CredentialStore
	index      driven.IndexStore
	newFetcher FetcherFactory
	logger     *slog.Logger
	now        func() time.Time
}

// NewIndexService creates an IndexService.
func NewIndexService(
	repos driven.RepoStore,
	creds driven.CredentialStore,
	index driven.IndexStore,
	newFetcher FetcherFactory,
	logger *slog.Logger,
) *IndexService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexService{
		repos:      repos,
		creds:      creds,
		index:      index,
		newFetcher: newFetcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Rescan indexes every registered repository in list order. Without force,
// repositories that already have an entry are kept as they are. Per-repository
// failures are reported in the outcomes; the error is only set when the
// repositories cannot be listed or ctx is cancelled.
func (s *IndexService) Rescan(ctx context.Context, force bool) ([]model.IndexOutcome, error) {
	start := time.Now()

	repos, err := s.repos.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	fetchers := make(map[string]driven.ComposeFetcher)
	outcomes := make([]model.IndexOutcome, 0, len(repos))
	counts := make(map[model.IndexStatus]int)
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out := s.indexOne(ctx, repo, force, fetchers)
		counts[out.Status]++
		outcomes = append(outcomes, out)
	}

	s.logger.Info("index rescan complete",
		"force", force,
		"repos", len(repos),
		"stored", counts[model.IndexStored],
		"kept", counts[model.IndexKept],
		"missing", counts[model.IndexMissing],
		"skipped", counts[model.IndexSkipped],
		"failed", counts[model.IndexFailed],
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return outcomes, nil
}

// IndexRepo fetches and stores the compose file of one repository, replacing
// any existing entry. Returns driven.ErrRepoNotFound for unknown ids.
func (s *IndexService) IndexRepo(ctx context.Context, id string) (model.IndexOutcome, error) {
	repo, err := s.repos.Get(ctx, id)
	if err != nil {
		return model.IndexOutcome{}, fmt.Errorf("index repository %s: %w", id, err)
	}
	return s.indexOne(ctx, *repo, true, make(map[string]driven.ComposeFetcher)), nil
}

// Entries returns the stored index.
func (s *IndexService) Entries(ctx context.Context) ([]model.IndexEntry, error) {
	entries, err := s.index.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing index entries: %w", err)
	}
	return entries, nil
}

// indexOne runs the fetch for repo. fetchers caches one client per token for
// the duration of a scan.
func (s *IndexService) indexOne(ctx context.Context, repo model.Repository, force bool, fetchers map[string]driven.ComposeFetcher) model.IndexOutcome {
	out := model.IndexOutcome{
		RepoID:      repo.ID,
		Name:        repo.Name,
		ComposePath: model.ComposePath(repo.ComposeFolder),
	}
	fail := func(err error) model.IndexOutcome {
		s.logger.Warn("indexing repository failed", "repo", repo.ID, "name", repo.Name, "error", err)
		out.Status = model.IndexFailed
		out.Detail = err.Error()
		return out
	}

	if !force {
		_, err := s.index.Get(ctx, repo.ID)
		switch {
		case err == nil:
			out.Status = model.IndexKept
			out.Detail = "already indexed"
			return out
		case !errors.Is(err, driven.ErrIndexEntryNotFound):
			return fail(err)
		}
	}

	token, err := s.token(ctx, repo.CredentialsName)
	if err != nil {
		return fail(err)
	}
	fetcher, ok := fetchers[token]
	if !ok {
		fetcher = s.newFetcher(token)
		fetchers[token] = fetcher
	}

	branch := repo.Branch
	if branch == "" {
		branch = model.DefaultBranch
	}

	content, err := fetcher.FetchFile(ctx, repo.URL, branch, out.ComposePath)
	switch {
	case errors.Is(err, driven.ErrFileNotFound):
		out.Status = model.IndexMissing
		out.Detail = out.ComposePath + " not found on " + branch
		return out
	case errors.Is(err, driven.ErrUnsupportedHost):
		out.Status = model.IndexSkipped
		out.Detail = "indexing is only available for GitHub repositories"
		return out
	case err != nil:
		return fail(err)
	}

	at := s.now().UTC()
	if _, err := s.index.Put(ctx, model.IndexEntry{
		RepoID:      repo.ID,
		ComposePath: out.ComposePath,
		Content:     string(content),
	}); err != nil {
		return fail(err)
	}
	if err := s.repos.MarkIndexed(ctx, repo.ID, at); err != nil {
		return fail(err)
	}

	s.logger.Debug("repository indexed", "repo", repo.ID, "path", out.ComposePath, "bytes", len(content))
	out.Status = model.IndexStored
	out.Detail = fmt.Sprintf("%s indexed from %s", out.ComposePath, branch)
	return out
}

// token resolves the credential name to the decrypted token. Repositories
// without a credential are fetched anonymously.
func (s *IndexService) token(ctx context.Context, name *string) (string, error) {
	if name == nil || *name == "" {
		return "", nil
	}

	cred, err := s.creds.Get(ctx, *name)
	if err != nil {
		return "", fmt.Errorf("resolving credential %q: %w", *name, err)
	}
	if cred.Token == "" {
		return "", fmt.Errorf("credential %q: %w", *name, ErrNoToken)
	}
	return cred.Token, nil
}

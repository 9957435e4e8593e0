package version

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nhle/issue-updater/internal/tracker"
)

// Resolver turns version names into ids, fetching each project's catalog
// at most once.
type Resolver struct {
	client        tracker.Client
	cache         *Cache
	createMissing bool
	logger        *slog.Logger
}

// NewResolver returns a Resolver backed by cache. When createMissing is set
// and client implements tracker.VersionCreator, unknown names are created.
func NewResolver(client tracker.Client, cache *Cache, createMissing bool, logger *slog.Logger) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		client:        client,
		cache:         cache,
		createMissing: createMissing,
		logger:        logger,
	}
}

// Resolve returns the ids for names within projectKey, in input order.
// Names that cannot be resolved are logged and skipped.
func (r *Resolver) Resolve(ctx context.Context, projectKey string, names []string) []string {
	if len(names) == 0 {
		return nil
	}

	r.load(ctx, projectKey)

	ids := make([]string, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}

		if id, ok := r.cache.Lookup(projectKey, name); ok {
			ids = append(ids, id)
			continue
		}

		if id, ok := r.create(ctx, projectKey, name); ok {
			ids = append(ids, id)
			continue
		}

		r.logger.Warn("version not found, skipping", "project", projectKey, "version", name)
	}
	return ids
}

func (r *Resolver) load(ctx context.Context, projectKey string) {
	if r.cache.Loaded(projectKey) {
		return
	}

	versions, err := r.client.Versions(ctx, projectKey)
	if err != nil {
		r.logger.Error("fetching versions failed", "project", projectKey, "error", err)
		r.cache.MarkFailed(projectKey)
		return
	}
	r.cache.Store(projectKey, versions)
	r.logger.Debug("version catalog loaded", "project", projectKey, "count", r.cache.Len(projectKey))
}

func (r *Resolver) create(ctx context.Context, projectKey, name string) (string, bool) {
	if !r.createMissing {
		return "", false
	}
	if r.cache.Failed(projectKey) {
		r.logger.Warn("version catalog unavailable, not creating", "project", projectKey, "version", name)
		return "", false
	}
	creator, ok := r.client.(tracker.VersionCreator)
	if !ok {
		r.logger.Warn("tracker cannot create versions", "project", projectKey, "version", name)
		return "", false
	}

	v, err := creator.CreateVersion(ctx, projectKey, name)
	if err != nil {
		r.logger.Error("creating version failed", "project", projectKey, "version", name, "error", err)
		return "", false
	}
	if v.ID == "" {
		return "", false
	}

	r.cache.Add(projectKey, name, v.ID)
	r.logger.Info("version created", "project", projectKey, "version", name, "id", v.ID)
	return v.ID, true
}

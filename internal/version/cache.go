// Package version maps human-readable version names to tracker version ids.
package version

import "github.com/nhle/issue-updater/internal/model"

// Cache holds project version catalogs keyed by project key, then by
// version name. A Cache belongs to one run; entries are only added.
type Cache struct {
	projects map[string]map[string]string

	// failed holds projects whose catalog could not be fetched.
	failed map[string]bool
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		projects: make(map[string]map[string]string),
		failed:   make(map[string]bool),
	}
}

// Loaded reports whether the catalog for projectKey has been stored.
func (c *Cache) Loaded(projectKey string) bool {
	_, ok := c.projects[projectKey]
	return ok
}

// Store records the catalog for projectKey. A nil or empty catalog still
// marks the project as loaded.
func (c *Cache) Store(projectKey string, versions []model.Version) {
	catalog, ok := c.projects[projectKey]
	if !ok {
		catalog = make(map[string]string, len(versions))
		c.projects[projectKey] = catalog
	}
	for _, v := range versions {
		if v.Name == "" || v.ID == "" {
			continue
		}
		catalog[v.Name] = v.ID
	}
}

// MarkFailed records that the catalog for projectKey could not be fetched.
// The project counts as loaded with an empty catalog.
func (c *Cache) MarkFailed(projectKey string) {
	c.Store(projectKey, nil)
	c.failed[projectKey] = true
}

// Failed reports whether the catalog fetch for projectKey failed. A missing
// name in such a project is unknown, not absent.
func (c *Cache) Failed(projectKey string) bool {
	return c.failed[projectKey]
}

// Add records a single name to id mapping for projectKey.
func (c *Cache) Add(projectKey, name, id string) {
	c.Store(projectKey, []model.Version{{ID: id, Name: name}})
}

// Lookup returns the id of name within projectKey.
func (c *Cache) Lookup(projectKey, name string) (string, bool) {
	id, ok := c.projects[projectKey][name]
	return id, ok
}

// Len returns the number of cached names for projectKey.
func (c *Cache) Len(projectKey string) int {
	return len(c.projects[projectKey])
}

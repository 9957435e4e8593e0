package version

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/issue-updater/internal/model"
	"github.com/nhle/issue-updater/internal/tracker/trackertest"
)

func TestResolve_FetchesCatalogOncePerProject(t *testing.T) {
	t.Parallel()
	fake := trackertest.NewFake()
	fake.ProjectVers["ABC"] = []model.Version{
		{ID: "10505", Name: "1.0"},
		{ID: "10506", Name: "1.1"},
	}

	r := NewResolver(fake, NewCache(), false, nil)
	ctx := context.Background()

	assert.Equal(t, []string{"10505"}, r.Resolve(ctx, "ABC", []string{"1.0"}))
	assert.Equal(t, []string{"10506", "10505"}, r.Resolve(ctx, "ABC", []string{" 1.1 ", "1.0"}))

	require.Len(t, fake.CallsTo("Versions"), 1)
}

func TestResolve_SeparateProjects(t *testing.T) {
	t.Parallel()
	fake := trackertest.NewFake()
	fake.ProjectVers["ABC"] = []model.Version{{ID: "1", Name: "2.0"}}
	fake.ProjectVers["XYZ"] = []model.Version{{ID: "2", Name: "2.0"}}

	r := NewResolver(fake, nil, false, nil)
	ctx := context.Background()

	assert.Equal(t, []string{"1"}, r.Resolve(ctx, "ABC", []string{"2.0"}))
	assert.Equal(t, []string{"2"}, r.Resolve(ctx, "XYZ", []string{"2.0"}))
	assert.Len(t, fake.CallsTo("Versions"), 2)
}

func TestResolve_UnknownNameSkipped(t *testing.T) {
	t.Parallel()
	fake := trackertest.NewFake()
	fake.ProjectVers["ABC"] = []model.Version{{ID: "10505", Name: "1.0"}}

	r := NewResolver(fake, nil, false, nil)
	ids := r.Resolve(context.Background(), "ABC", []string{"9.9", "1.0"})

	assert.Equal(t, []string{"10505"}, ids)
}

func TestResolve_EmptyNamesSkipsFetch(t *testing.T) {
	t.Parallel()
	fake := trackertest.NewFake()
	r := NewResolver(fake, nil, false, nil)

	assert.Empty(t, r.Resolve(context.Background(), "ABC", nil))
	assert.Empty(t, fake.Calls())
}

func TestResolve_CatalogErrorCachedAsEmpty(t *testing.T) {
	t.Parallel()
	fake := trackertest.NewFake()
	fake.Errs["Versions"] = errors.New("boom")

	cache := NewCache()
	r := NewResolver(fake, cache, false, nil)
	ctx := context.Background()

	assert.Empty(t, r.Resolve(ctx, "ABC", []string{"1.0"}))
	assert.Empty(t, r.Resolve(ctx, "ABC", []string{"1.0"}))
	assert.True(t, cache.Loaded("ABC"))
	assert.True(t, cache.Failed("ABC"))
	assert.Len(t, fake.CallsTo("Versions"), 1)
}

func TestResolve_CatalogErrorDisablesCreate(t *testing.T) {
	t.Parallel()
	fake := trackertest.NewCreator()
	fake.ProjectVers["ABC"] = []model.Version{{ID: "10505", Name: "1.0"}}
	fake.ProjectVers["XYZ"] = []model.Version{}
	fake.Errs["Versions:ABC"] = errors.New("503 transient")

	r := NewResolver(fake, nil, true, nil)
	ctx := context.Background()

	assert.Empty(t, r.Resolve(ctx, "ABC", []string{"1.0"}))
	assert.Empty(t, r.Resolve(ctx, "ABC", []string{"1.0", "2.0"}))
	assert.Empty(t, fake.CallsTo("CreateVersion"))

	// Other projects with a readable catalog still create missing names.
	ids := r.Resolve(ctx, "XYZ", []string{"3.0"})
	require.Len(t, ids, 1)
	require.Len(t, fake.CallsTo("CreateVersion"), 1)
	assert.Equal(t, "XYZ", fake.CallsTo("CreateVersion")[0].Key)
}

func TestResolve_CreateMissing(t *testing.T) {
	t.Parallel()
	fake := trackertest.NewCreator()
	fake.ProjectVers["ABC"] = []model.Version{{ID: "10505", Name: "1.0"}}

	r := NewResolver(fake, nil, true, nil)
	ctx := context.Background()

	ids := r.Resolve(ctx, "ABC", []string{"1.0", "2.0"})
	require.Len(t, ids, 2)
	assert.Equal(t, "10505", ids[0])

	created := fake.CallsTo("CreateVersion")
	require.Len(t, created, 1)
	assert.Equal(t, "ABC", created[0].Key)
	assert.Equal(t, []string{"2.0"}, created[0].Args)

	// The created version is cached, so a second lookup creates nothing.
	again := r.Resolve(ctx, "ABC", []string{"2.0"})
	assert.Equal(t, []string{ids[1]}, again)
	assert.Len(t, fake.CallsTo("CreateVersion"), 1)
	assert.Len(t, fake.CallsTo("Versions"), 1)
}

func TestResolve_CreateMissingUnsupported(t *testing.T) {
	t.Parallel()
	fake := trackertest.NewFake()
	r := NewResolver(fake, nil, true, nil)

	assert.Empty(t, r.Resolve(context.Background(), "ABC", []string{"2.0"}))
}

func TestResolve_CreateFailureSkipsName(t *testing.T) {
	t.Parallel()
	fake := trackertest.NewCreator()
	fake.Errs["CreateVersion"] = errors.New("forbidden")

	r := NewResolver(fake, nil, true, nil)
	assert.Empty(t, r.Resolve(context.Background(), "ABC", []string{"2.0"}))
}

func TestCache_StoreIgnoresIncompleteEntries(t *testing.T) {
	t.Parallel()
	c := NewCache()
	c.Store("ABC", []model.Version{{ID: "", Name: "x"}, {ID: "1", Name: ""}, {ID: "2", Name: "y"}})

	assert.Equal(t, 1, c.Len("ABC"))
	id, ok := c.Lookup("ABC", "y")
	assert.True(t, ok)
	assert.Equal(t, "2", id)

	_, ok = c.Lookup("XYZ", "y")
	assert.False(t, ok)
	assert.False(t, c.Loaded("XYZ"))
}

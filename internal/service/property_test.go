package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/homenest/homenest/internal/metrics"
	"github.com/homenest/homenest/internal/model"
	"github.com/homenest/homenest/internal/repository"
	"github.com/homenest/homenest/internal/testutil"
)

type propertyEnv struct {
	svc     *PropertyService
	store   *testutil.MemoryStore
	cache   *testutil.MemoryCache
	metrics *metrics.InMemoryRecorder
}

func newPropertyEnv(t *testing.T) *propertyEnv {
	t.Helper()
	store := testutil.NewMemoryStore()
	featured := testutil.NewMemoryCache()
	recorder := metrics.NewInMemory()
	return &propertyEnv{
		svc:     NewPropertyService(store, featured, time.Minute, recorder, nil),
		store:   store,
		cache:   featured,
		metrics: recorder,
	}
}

func (e *propertyEnv) seed(t *testing.T, owner string) *model.Property {
	t.Helper()
	p := testutil.NewTestProperty(t, owner)
	require.NoError(t, e.store.CreateProperty(context.Background(), p))
	return p
}

func TestPropertyService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("owner creates", func(t *testing.T) {
		env := newPropertyEnv(t)
		p, err := env.svc.Create(ctx, "a@x.com", CreatePropertyInput{
			OwnerEmail: "a@x.com",
			Name:       "Loft",
			Price:      testutil.NumPtr("1500"),
		})
		require.NoError(t, err)
		require.NotEmpty(t, p.ID)
		require.Equal(t, 1500.0, p.Price)
		require.Equal(t, p.InsertedAt, p.UpdatedAt)
		require.Equal(t, 1, env.store.PropertyCount())
		require.Equal(t, 1, env.cache.Invalidations)
		require.Equal(t, uint64(1), env.metrics.Snapshot().PropertiesCreated)
	})

	t.Run("payload owner differs from subject", func(t *testing.T) {
		env := newPropertyEnv(t)
		_, err := env.svc.Create(ctx, "b@x.com", CreatePropertyInput{OwnerEmail: "a@x.com"})
		require.ErrorIs(t, err, ErrForbidden)
		require.Zero(t, env.store.PropertyCount())
		require.Equal(t, uint64(1), env.metrics.Snapshot().AuthzForbidden)
	})

	t.Run("missing subject", func(t *testing.T) {
		env := newPropertyEnv(t)
		_, err := env.svc.Create(ctx, "", CreatePropertyInput{OwnerEmail: "a@x.com"})
		require.ErrorIs(t, err, ErrUnauthenticated)
		require.Zero(t, env.store.PropertyCount())
	})

	t.Run("missing payload owner", func(t *testing.T) {
		env := newPropertyEnv(t)
		_, err := env.svc.Create(ctx, "a@x.com", CreatePropertyInput{Name: "Loft"})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("bad price", func(t *testing.T) {
		env := newPropertyEnv(t)
		_, err := env.svc.Create(ctx, "a@x.com", CreatePropertyInput{OwnerEmail: "a@x.com", Price: testutil.NumPtr("cheap")})
		require.ErrorIs(t, err, ErrInvalidField)
		require.Zero(t, env.store.PropertyCount())
	})

	t.Run("store down", func(t *testing.T) {
		env := newPropertyEnv(t)
		env.store.Err = errors.New("connection refused")
		_, err := env.svc.Create(ctx, "a@x.com", CreatePropertyInput{OwnerEmail: "a@x.com"})
		require.ErrorIs(t, err, ErrUpstreamUnavailable)
	})

	t.Run("store timeout", func(t *testing.T) {
		env := newPropertyEnv(t)
		env.store.Err = repository.ErrStoreTimeout
		_, err := env.svc.Create(ctx, "a@x.com", CreatePropertyInput{OwnerEmail: "a@x.com"})
		require.ErrorIs(t, err, ErrUpstreamTimeout)
	})
}

func TestPropertyService_Update_OwnershipMatrix(t *testing.T) {
	ctx := context.Background()
	owners := []string{"a@x.com", "b@x.com", "A@x.com", "c@y.org"}

	for _, owner := range owners {
		for _, subject := range owners {
			env := newPropertyEnv(t)
			p := env.seed(t, owner)

			updated, err := env.svc.Update(ctx, model.Identity(subject), p.ID, model.PropertyPatch{Price: testutil.NumPtr("500")})
			stored, getErr := env.store.GetPropertyByID(ctx, p.ID)
			require.NoError(t, getErr)

			if owner == subject {
				require.NoError(t, err, "owner %s", owner)
				require.Equal(t, 500.0, updated.Price)
				require.Equal(t, 500.0, stored.Price)
			} else {
				require.ErrorIs(t, err, ErrForbidden, "subject %s owner %s", subject, owner)
				require.Equal(t, p.Price, stored.Price)
			}
		}
	}
}

func TestPropertyService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid field writes nothing", func(t *testing.T) {
		env := newPropertyEnv(t)
		p := env.seed(t, "a@x.com")
		writes := env.store.Writes

		_, err := env.svc.Update(ctx, "a@x.com", p.ID, model.PropertyPatch{
			Name:  testutil.StrPtr("New"),
			Price: testutil.NumPtr("bad"),
		})
		require.ErrorIs(t, err, ErrInvalidField)
		require.Equal(t, writes, env.store.Writes)

		stored, err := env.store.GetPropertyByID(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, "Sunny Loft", stored.Name)
	})

	t.Run("not found", func(t *testing.T) {
		env := newPropertyEnv(t)
		_, err := env.svc.Update(ctx, "a@x.com", testutil.NewID(), model.PropertyPatch{})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		env := newPropertyEnv(t)
		_, err := env.svc.Update(ctx, "a@x.com", "not-an-id", model.PropertyPatch{})
		require.ErrorIs(t, err, ErrInvalidIdentifier)
	})

	t.Run("missing subject checked before lookup", func(t *testing.T) {
		env := newPropertyEnv(t)
		_, err := env.svc.Update(ctx, "", testutil.NewID(), model.PropertyPatch{})
		require.ErrorIs(t, err, ErrUnauthenticated)
		require.Equal(t, uint64(1), env.metrics.Snapshot().AuthzUnauthenticated)
	})

	t.Run("no-op patch still succeeds", func(t *testing.T) {
		env := newPropertyEnv(t)
		p := env.seed(t, "a@x.com")

		updated, err := env.svc.Update(ctx, "a@x.com", p.ID, model.PropertyPatch{Name: testutil.StrPtr(p.Name)})
		require.NoError(t, err)
		require.Equal(t, p.Name, updated.Name)
		require.Equal(t, p.OwnerEmail, updated.OwnerEmail)
		require.Equal(t, p.InsertedAt, updated.InsertedAt)
	})

	t.Run("lowercase id is canonicalized", func(t *testing.T) {
		env := newPropertyEnv(t)
		p := env.seed(t, "a@x.com")

		lower := []byte(p.ID)
		for i, c := range lower {
			if c >= 'A' && c <= 'Z' {
				lower[i] = c + ('a' - 'A')
			}
		}
		_, err := env.svc.Update(ctx, "a@x.com", string(lower), model.PropertyPatch{Category: testutil.StrPtr("villa")})
		require.NoError(t, err)
	})

	t.Run("invalidates featured cache", func(t *testing.T) {
		env := newPropertyEnv(t)
		p := env.seed(t, "a@x.com")

		_, err := env.svc.Latest(ctx, 6)
		require.NoError(t, err)

		_, err = env.svc.Update(ctx, "a@x.com", p.ID, model.PropertyPatch{Name: testutil.StrPtr("Fresh")})
		require.NoError(t, err)

		latest, err := env.svc.Latest(ctx, 6)
		require.NoError(t, err)
		require.Equal(t, "Fresh", latest[0].Name)
	})
}

func TestPropertyService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes", func(t *testing.T) {
		env := newPropertyEnv(t)
		p := env.seed(t, "a@x.com")

		n, err := env.svc.Delete(ctx, "a@x.com", p.ID, "")
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
		require.Zero(t, env.store.PropertyCount())
		require.Equal(t, uint64(1), env.metrics.Snapshot().PropertiesDeleted)
	})

	t.Run("other subject forbidden", func(t *testing.T) {
		env := newPropertyEnv(t)
		p := env.seed(t, "a@x.com")

		_, err := env.svc.Delete(ctx, "b@x.com", p.ID, "")
		require.ErrorIs(t, err, ErrForbidden)
		require.Equal(t, 1, env.store.PropertyCount())
	})

	t.Run("body email differs from subject", func(t *testing.T) {
		env := newPropertyEnv(t)
		p := env.seed(t, "a@x.com")

		_, err := env.svc.Delete(ctx, "a@x.com", p.ID, "b@x.com")
		require.ErrorIs(t, err, ErrForbidden)
		require.Equal(t, 1, env.store.PropertyCount())
	})

	t.Run("body email matching subject", func(t *testing.T) {
		env := newPropertyEnv(t)
		p := env.seed(t, "a@x.com")

		_, err := env.svc.Delete(ctx, "a@x.com", p.ID, "a@x.com")
		require.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		env := newPropertyEnv(t)
		_, err := env.svc.Delete(ctx, "a@x.com", testutil.NewID(), "")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("not found wins over mismatched body email", func(t *testing.T) {
		env := newPropertyEnv(t)
		_, err := env.svc.Delete(ctx, "a@x.com", testutil.NewID(), "b@x.com")
		require.ErrorIs(t, err, ErrNotFound)
		require.Zero(t, env.metrics.Snapshot().AuthzForbidden)
	})

	t.Run("bad id wins over mismatched body email", func(t *testing.T) {
		env := newPropertyEnv(t)
		_, err := env.svc.Delete(ctx, "a@x.com", "not-an-id", "b@x.com")
		require.ErrorIs(t, err, ErrInvalidIdentifier)
	})

	t.Run("missing credential wins over everything", func(t *testing.T) {
		env := newPropertyEnv(t)
		_, err := env.svc.Delete(ctx, "", "not-an-id", "b@x.com")
		require.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestPropertyService_GetByID(t *testing.T) {
	ctx := context.Background()
	env := newPropertyEnv(t)
	p := env.seed(t, "a@x.com")

	got, err := env.svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)

	_, err = env.svc.GetByID(ctx, testutil.NewID())
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.GetByID(ctx, "507f1f77bcf86cd799439011")
	require.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestPropertyService_ListByOwner(t *testing.T) {
	ctx := context.Background()
	env := newPropertyEnv(t)
	env.seed(t, "a@x.com")
	env.seed(t, "b@x.com")
	env.seed(t, "a@x.com")

	all, err := env.svc.ListByOwner(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	mine, err := env.svc.ListByOwner(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, p := range mine {
		require.Equal(t, "a@x.com", p.OwnerEmail)
	}

	none, err := env.svc.ListByOwner(ctx, "A@x.com")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestPropertyService_Latest(t *testing.T) {
	ctx := context.Background()
	env := newPropertyEnv(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var inserted []*model.Property
	for i := 0; i < 9; i++ {
		p := testutil.NewTestProperty(t, "a@x.com")
		// pairs share a timestamp so ties must fall back to insertion order
		p.InsertedAt = base.Add(time.Duration(i/2) * time.Hour)
		require.NoError(t, env.store.CreateProperty(ctx, p))
		inserted = append(inserted, p)
	}

	latest, err := env.svc.Latest(ctx, 6)
	require.NoError(t, err)
	require.Len(t, latest, 6)

	wantOrder := []int{8, 7, 6, 5, 4, 3}
	for i, idx := range wantOrder {
		require.Equal(t, inserted[idx].ID, latest[i].ID, "position %d", i)
	}

	returned := map[string]bool{}
	for _, p := range latest {
		returned[p.ID] = true
	}
	for _, p := range inserted {
		if returned[p.ID] {
			continue
		}
		for _, r := range latest {
			require.False(t, r.InsertedAt.Before(p.InsertedAt))
		}
	}

	require.Equal(t, uint64(1), env.metrics.Snapshot().FeaturedCacheMisses)
	_, err = env.svc.Latest(ctx, 6)
	require.NoError(t, err)
	require.Equal(t, uint64(1), env.metrics.Snapshot().FeaturedCacheHits)
}

func TestPropertyService_Latest_CacheFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	env := newPropertyEnv(t)
	env.seed(t, "a@x.com")
	env.cache.Err = errors.New("redis down")

	latest, err := env.svc.Latest(ctx, 6)
	require.NoError(t, err)
	require.Len(t, latest, 1)
}

func TestPropertyService_Latest_ConcurrentUpdateNotCached(t *testing.T) {
	ctx := context.Background()
	env := newPropertyEnv(t)
	p := env.seed(t, "a@x.com")

	renamed := "Renamed"
	env.store.AfterLatest = func(ctx context.Context) {
		env.store.AfterLatest = nil
		_, err := env.svc.Update(ctx, "a@x.com", p.ID, model.PropertyPatch{Name: &renamed})
		require.NoError(t, err)
	}

	stale, err := env.svc.Latest(ctx, 6)
	require.NoError(t, err)
	require.Equal(t, p.Name, stale[0].Name)

	fresh, err := env.svc.Latest(ctx, 6)
	require.NoError(t, err)
	require.Equal(t, renamed, fresh[0].Name)

	snap := env.metrics.Snapshot()
	require.Equal(t, uint64(2), snap.FeaturedCacheMisses)
	require.Zero(t, snap.FeaturedCacheHits)
}

func TestPropertyService_Latest_FewerThanN(t *testing.T) {
	env := newPropertyEnv(t)
	env.seed(t, "a@x.com")

	latest, err := env.svc.Latest(context.Background(), 6)
	require.NoError(t, err)
	require.Len(t, latest, 1)

	empty, err := env.svc.Latest(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, empty)
}

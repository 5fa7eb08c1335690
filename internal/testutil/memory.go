package testutil

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/homenest/homenest/internal/cache"
	"github.com/homenest/homenest/internal/model"
	"github.com/homenest/homenest/internal/repository"
)

// MemoryStore is an in-memory record store with the same conditional-write
// semantics as the PostgreSQL repository.
type MemoryStore struct {
	mu         sync.Mutex
	properties map[string]*storedProperty
	ratings    []*model.Rating
	users      map[string]*model.User
	cities     []*model.City
	seq        int64

	// Err, when set, is returned by every call.
	Err error
	// Writes counts successful mutating calls.
	Writes int
	// AfterLatest, when set, runs after LatestProperties has read its rows
	// and before they are returned.
	AfterLatest func(ctx context.Context)
}

type storedProperty struct {
	seq int64
	p   model.Property
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		properties: make(map[string]*storedProperty),
		users:      make(map[string]*model.User),
	}
}

// CreateProperty inserts a property.
func (m *MemoryStore) CreateProperty(_ context.Context, p *model.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.seq++
	m.properties[p.ID] = &storedProperty{seq: m.seq, p: *p}
	m.Writes++
	return nil
}

// GetPropertyByID returns a copy of the stored property.
func (m *MemoryStore) GetPropertyByID(_ context.Context, id string) (*model.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	sp, ok := m.properties[id]
	if !ok {
		return nil, repository.ErrPropertyNotFound
	}
	p := sp.p
	return &p, nil
}

// ListProperties returns all properties or owner's, in insertion order.
func (m *MemoryStore) ListProperties(_ context.Context, owner string) ([]*model.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	all := m.sorted(func(a, b *storedProperty) bool { return a.seq < b.seq })
	out := make([]*model.Property, 0, len(all))
	for _, sp := range all {
		if owner == "" || sp.p.OwnerEmail == owner {
			p := sp.p
			out = append(out, &p)
		}
	}
	return out, nil
}

// LatestProperties returns the n newest properties.
func (m *MemoryStore) LatestProperties(ctx context.Context, n int) ([]*model.Property, error) {
	props, err := m.latest(n)
	if err == nil && m.AfterLatest != nil {
		m.AfterLatest(ctx)
	}
	return props, err
}

func (m *MemoryStore) latest(n int) ([]*model.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	all := m.sorted(func(a, b *storedProperty) bool {
		if !a.p.InsertedAt.Equal(b.p.InsertedAt) {
			return a.p.InsertedAt.After(b.p.InsertedAt)
		}
		return a.seq > b.seq
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make([]*model.Property, 0, len(all))
	for _, sp := range all {
		p := sp.p
		out = append(out, &p)
	}
	return out, nil
}

// UpdateProperty overwrites mutable fields while the owner matches.
func (m *MemoryStore) UpdateProperty(_ context.Context, p *model.Property, owner string) (*model.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	sp, ok := m.properties[p.ID]
	if !ok {
		return nil, repository.ErrPropertyNotFound
	}
	if sp.p.OwnerEmail != owner {
		return nil, repository.ErrOwnerMismatch
	}
	sp.p.Name = p.Name
	sp.p.ShortDescription = p.ShortDescription
	sp.p.Category = p.Category
	sp.p.Price = p.Price
	sp.p.Location = p.Location
	sp.p.Image = p.Image
	sp.p.UpdatedAt = p.UpdatedAt
	m.Writes++
	updated := sp.p
	return &updated, nil
}

// DeleteProperty removes the property while the owner matches.
func (m *MemoryStore) DeleteProperty(_ context.Context, id, owner string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	sp, ok := m.properties[id]
	if !ok {
		return 0, repository.ErrPropertyNotFound
	}
	if sp.p.OwnerEmail != owner {
		return 0, repository.ErrOwnerMismatch
	}
	delete(m.properties, id)
	m.Writes++
	return 1, nil
}

// PropertyCount returns the number of stored properties.
func (m *MemoryStore) PropertyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.properties)
}

func (m *MemoryStore) sorted(less func(a, b *storedProperty) bool) []*storedProperty {
	all := make([]*storedProperty, 0, len(m.properties))
	for _, sp := range m.properties {
		all = append(all, sp)
	}
	sort.Slice(all, func(i, j int) bool { return less(all[i], all[j]) })
	return all
}

// CreateRating inserts a rating.
func (m *MemoryStore) CreateRating(_ context.Context, rating *model.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	r := *rating
	m.ratings = append(m.ratings, &r)
	m.Writes++
	return nil
}

// ListRatingsByAuthor returns author's ratings, newest first.
func (m *MemoryStore) ListRatingsByAuthor(_ context.Context, author string) ([]*model.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*model.Rating, 0)
	for i := len(m.ratings) - 1; i >= 0; i-- {
		if m.ratings[i].AuthorEmail == author {
			r := *m.ratings[i]
			out = append(out, &r)
		}
	}
	return out, nil
}

// RatingCount returns the number of stored ratings.
func (m *MemoryStore) RatingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ratings)
}

// RegisterUser inserts user unless its email is taken.
func (m *MemoryStore) RegisterUser(_ context.Context, user *model.User) (*model.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, false, m.Err
	}
	if existing, ok := m.users[user.Email]; ok {
		u := *existing
		return &u, false, nil
	}
	u := *user
	m.users[user.Email] = &u
	m.Writes++
	out := u
	return &out, true, nil
}

// UserCount returns the number of stored users.
func (m *MemoryStore) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// AddCity seeds a city.
func (m *MemoryStore) AddCity(city *model.City) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *city
	m.cities = append(m.cities, &c)
}

// ListCities returns the seeded cities.
func (m *MemoryStore) ListCities(_ context.Context) ([]*model.City, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*model.City, 0, len(m.cities))
	for _, c := range m.cities {
		city := *c
		out = append(out, &city)
	}
	return out, nil
}

// MemoryCache implements the featured and city caches in memory. TTLs are
// recorded but not enforced. Featured pages follow the same generation
// rules as the Redis cache.
type MemoryCache struct {
	mu       sync.Mutex
	gen      int64
	featured map[string][]*model.Property
	cities   []*model.City

	// Err, when set, is returned by every call.
	Err error
	// Invalidations counts InvalidateFeatured calls.
	Invalidations int
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{featured: make(map[string][]*model.Property)}
}

// GetFeatured returns a cached page or cache.ErrCacheMiss.
func (c *MemoryCache) GetFeatured(_ context.Context, n int) ([]*model.Property, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, 0, c.Err
	}
	props, ok := c.featured[strconv.Itoa(n)]
	if !ok {
		return nil, c.gen, cache.ErrCacheMiss
	}
	return props, c.gen, nil
}

// SetFeatured stores a page. Pages for an old generation are dropped.
func (c *MemoryCache) SetFeatured(_ context.Context, gen int64, n int, props []*model.Property, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	if gen != c.gen {
		return nil
	}
	c.featured[strconv.Itoa(n)] = props
	return nil
}

// InvalidateFeatured starts a new generation with no pages.
func (c *MemoryCache) InvalidateFeatured(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Invalidations++
	if c.Err != nil {
		return c.Err
	}
	c.gen++
	c.featured = make(map[string][]*model.Property)
	return nil
}

// GetCities returns the cached list.
func (c *MemoryCache) GetCities(_ context.Context) ([]*model.City, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	if c.cities == nil {
		return nil, cache.ErrCacheMiss
	}
	return c.cities, nil
}

// SetCities stores the list.
func (c *MemoryCache) SetCities(_ context.Context, cities []*model.City, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.cities = cities
	return nil
}

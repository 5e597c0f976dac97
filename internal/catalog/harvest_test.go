package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarvestListIDsStopsOnEmptyPage(t *testing.T) {
	pages := map[string]string{
		"0": `{"rows": [{"id": 1}, {"id": 2}]}`,
		"1": `{"rows": [{"id": 3}]}`,
		"2": `{"rows": []}`,
	}

	var requests int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++

		assert.Equal(t, "/json/loadUserDetailsTorrents.php", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("uid"))
		assert.Equal(t, "unsat", r.URL.Query().Get("type"))

		_, _ = w.Write([]byte(pages[r.URL.Query().Get("iteration")]))
	}))
	defer server.Close()

	client := NewClient(server.URL, "session")

	ids, err := client.HarvestListIDs(context.Background(), &User{UID: 42}, "unsat")
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Equal(t, 3, requests)
}

func TestHarvestListIDsStopsOnRepeatedPage(t *testing.T) {
	// Some list types repeat the final page forever instead of
	// returning empty.
	var requests int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++

		_, _ = w.Write([]byte(`{"rows": [{"id": 5}, {"id": 6}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "session")

	ids, err := client.HarvestListIDs(context.Background(), &User{UID: 1}, "sSat")
	require.NoError(t, err)

	assert.Equal(t, []string{"5", "6"}, ids, "the repeated page must not be counted twice")
	assert.Equal(t, 2, requests)
}

func TestHarvestListIDsErrorIndicatorKeepsPartial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("iteration") == "0" {
			_, _ = w.Write([]byte(`{"rows": [{"id": 7}]}`))

			return
		}

		_, _ = w.Write([]byte(`{"error": "nothing returned"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "session")

	ids, err := client.HarvestListIDs(context.Background(), &User{UID: 1}, "unsat")
	require.NoError(t, err, "an in-band error indicator is not a fault")

	assert.Equal(t, []string{"7"}, ids)
}

func TestHarvestListIDsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "session")

	_, err := client.HarvestListIDs(context.Background(), &User{UID: 1}, "unsat")
	require.Error(t, err)
}

type fakeListStore struct {
	keys  map[string]bool
	lists map[string][]string
	saves int
}

func newFakeListStore() *fakeListStore {
	return &fakeListStore{keys: make(map[string]bool), lists: make(map[string][]string)}
}

func (s *fakeListStore) Has(key string) bool          { return s.keys[key] }
func (s *fakeListStore) IDList(key string) []string   { return s.lists[key] }
func (s *fakeListStore) Save() error                  { s.saves++; return nil }
func (s *fakeListStore) SetIDList(key string, ids []string) {
	s.keys[key] = true
	s.lists[key] = ids
}

type fakeHarvestService struct {
	Service

	lists    map[string][]string
	harvests []string
}

func (f *fakeHarvestService) HarvestListIDs(_ context.Context, _ *User, listType string) ([]string, error) {
	f.harvests = append(f.harvests, listType)

	ids, ok := f.lists[listType]
	if !ok {
		return nil, fmt.Errorf("unknown list %s", listType)
	}

	return ids, nil
}

func TestSyncOwnedListsUsesFreshCache(t *testing.T) {
	store := newFakeListStore()
	store.SetIDList("unsat", []string{"1", "2"})
	store.saves = 0

	svc := &fakeHarvestService{lists: map[string][]string{}}

	user := &User{UID: 1, lists: map[string]ListStat{"unsat": {Count: 2}}}

	owned, err := SyncOwnedLists(context.Background(), svc, user, store, []string{"unsat"})
	require.NoError(t, err)

	assert.Empty(t, svc.harvests, "a matching count means no harvest")
	assert.Zero(t, store.saves)
	assert.True(t, owned.Contains("1"))
	assert.True(t, owned.Contains("2"))
}

func TestSyncOwnedListsRefreshesStaleCache(t *testing.T) {
	store := newFakeListStore()
	store.SetIDList("unsat", []string{"1", "2"})
	store.saves = 0

	svc := &fakeHarvestService{lists: map[string][]string{
		"unsat": {"1", "2", "3"},
		"sSat":  {"9"},
	}}

	user := &User{UID: 1, lists: map[string]ListStat{
		"unsat": {Count: 3},
		"sSat":  {Count: 1},
	}}

	owned, err := SyncOwnedLists(context.Background(), svc, user, store, []string{"unsat", "sSat"})
	require.NoError(t, err)

	assert.Equal(t, []string{"unsat", "sSat"}, svc.harvests)
	assert.Equal(t, 2, store.saves)

	// Replace, never merge.
	assert.Equal(t, []string{"1", "2", "3"}, store.IDList("unsat"))

	assert.Equal(t, 4, owned.Len())
	assert.True(t, owned.Contains("3"))
	assert.True(t, owned.Contains("9"))
}

package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jsonLoad.php", r.URL.Path)
		assert.Equal(t, "mam_id=session-123", r.Header.Get("Cookie"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"uid": 42,
			"unsat": {"count": 3, "limit": 20},
			"sSat": {"count": 17, "limit": 0},
			"uploaded": "1.5 TiB",
			"downloaded": "500 GiB",
			"uploaded_bytes": 1649267441664,
			"downloaded_bytes": 536870912000
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "session-123")

	user, err := client.UserDetails(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(42), user.UID)
	assert.Equal(t, 3, user.Unsat.Count)
	assert.Equal(t, 20, user.Unsat.Limit)
	assert.Equal(t, "1.5 TiB", user.Uploaded)
	assert.Equal(t, int64(536870912000), user.DownloadedBytes)

	// Object-valued keys become queryable list stats.
	assert.Equal(t, 17, user.ListCount("sSat"))
	assert.Equal(t, 3, user.ListCount("unsat"))
	assert.Equal(t, 0, user.ListCount("never-seen"))
}

func TestUserDetailsInvalidSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "expired")

	_, err := client.UserDetails(context.Background())
	require.Error(t, err)

	var authErr *AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusForbidden, authErr.StatusCode)
	assert.Equal(t, "user_details", authErr.Operation)
}

func TestSpendBonusPoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "upload", r.URL.Query().Get("spendtype"))
		assert.Equal(t, "Max Affordable ", r.URL.Query().Get("amount"))

		_, _ = w.Write([]byte(`{"success": true, "amount": 2.5}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "session")

	amount, success, err := client.SpendBonusPoints(context.Background())
	require.NoError(t, err)

	assert.True(t, success)
	assert.Equal(t, "2.5", amount)
}

func TestSpendBonusPointsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "session")

	_, _, err := client.SpendBonusPoints(context.Background())
	require.Error(t, err)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusInternalServerError, netErr.StatusCode)
}

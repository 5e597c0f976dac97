package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/pedroespecial101/mam-downloader/internal/logctx"
)

// ListStore is the persistence the harvester needs: the previously
// stored identifier lists, keyed by list-type name.
type ListStore interface {
	Has(key string) bool
	IDList(key string) []string
	SetIDList(key string, ids []string)
	Save() error
}

type listPage struct {
	Rows []struct {
		ID json.Number `json:"id"`
	} `json:"rows"`
	Error json.RawMessage `json:"error"`
}

// HarvestListIDs walks one of the user's torrent lists page by page and
// returns every identifier seen. The page index advances by exactly one
// per request; the walk stops on an error indicator, an empty page, or a
// page identical to the previous one (some list types repeat the final
// page forever instead of returning empty).
func (c *Client) HarvestListIDs(ctx context.Context, user *User, listType string) ([]string, error) {
	ctx = logctx.WithOperation(ctx, "harvest_list")
	logger := logctx.LoggerFromContext(ctx).With("list_type", listType)

	var (
		results  []string
		previous []string
	)

	for iteration := 0; ; iteration++ {
		q := url.Values{}
		q.Set("uid", strconv.FormatInt(user.UID, 10))
		q.Set("type", listType)
		q.Set("iteration", strconv.Itoa(iteration))

		resp, err := c.get(ctx, "/json/loadUserDetailsTorrents.php?"+q.Encode())
		if err != nil {
			return results, fmt.Errorf("failed to fetch list page %d: %w", iteration, err)
		}

		if resp.StatusCode != http.StatusOK {
			msg := drainBody(resp.Body)
			resp.Body.Close()

			return results, &NetworkError{Operation: "harvest_list", StatusCode: resp.StatusCode, APIMessage: msg}
		}

		var page listPage
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()

		if err != nil {
			return results, fmt.Errorf("failed to decode list page %d: %w", iteration, err)
		}

		// Error indicator: keep what we have, not a fault.
		if len(page.Error) > 0 {
			logger.WarnContext(ctx, "list page carried an error, stopping", "iteration", iteration, "error", string(page.Error))

			return results, nil
		}

		if len(page.Rows) == 0 {
			break
		}

		ids := make([]string, 0, len(page.Rows))
		for _, row := range page.Rows {
			ids = append(ids, row.ID.String())
		}

		if slices.Equal(ids, previous) {
			break
		}

		previous = ids
		results = append(results, ids...)
	}

	logger.DebugContext(ctx, "harvested list", "count", len(results))

	return results, nil
}

// SyncOwnedLists refreshes the stored identifier lists for the given
// list types and returns their union. A list is re-harvested only when
// it has never been stored or the service-reported count differs from
// the stored list's size; the fresh harvest replaces the stored list.
func SyncOwnedLists(ctx context.Context, svc Service, user *User, store ListStore, listTypes []string) (OwnedSet, error) {
	logger := logctx.LoggerFromContext(ctx)

	owned := NewOwnedSet()

	for _, listType := range listTypes {
		cached := store.IDList(listType)

		if store.Has(listType) && user.ListCount(listType) == len(cached) {
			owned.Add(cached...)

			continue
		}

		logger.Info("refreshing ownership list", "list_type", listType, "reported_count", user.ListCount(listType))

		ids, err := svc.HarvestListIDs(ctx, user, listType)
		if err != nil {
			return nil, fmt.Errorf("failed to harvest list %s: %w", listType, err)
		}

		store.SetIDList(listType, ids)

		if err := store.Save(); err != nil {
			return nil, fmt.Errorf("failed to persist list %s: %w", listType, err)
		}

		owned.Add(ids...)
	}

	return owned, nil
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pedroespecial101/mam-downloader/internal/logctx"
)

const searchPageSize = 100

// TorQuery is the nested search object of the search endpoint.
type TorQuery struct {
	Text        string   `json:"text,omitempty"`
	SearchIn    []string `json:"srchIn,omitempty"`
	SearchType  string   `json:"searchType,omitempty"`
	SortType    string   `json:"sortType,omitempty"`
	SearchWhere string   `json:"searchIn,omitempty"`
	Categories  []string `json:"cat,omitempty"`
	StartNumber int      `json:"startNumber"`
}

// SearchPayload is the JSON body of a search/browse request.
type SearchPayload struct {
	PerPage int      `json:"perpage,omitempty"`
	Tor     TorQuery `json:"tor"`
}

// SearchRequest describes one search call. Title/Author build a text
// query; otherwise Payload (or a bare browse) is used. Owned identifiers
// are skipped and never count toward Max.
type SearchRequest struct {
	Title  string
	Author string
	Max    int
	Owned  OwnedSet

	// Payload overrides the browse configuration when no text query is
	// given. Text queries deliberately ignore it: a title/author search
	// must not be narrowed by unrelated browse filters.
	Payload *SearchPayload
}

type searchPage struct {
	Data  []Candidate     `json:"data"`
	Error json.RawMessage `json:"error"`
}

func (r SearchRequest) payload() SearchPayload {
	if r.Title == "" && r.Author == "" {
		if r.Payload != nil {
			return *r.Payload
		}

		return SearchPayload{Tor: TorQuery{SearchType: "all"}}
	}

	var textParts, fields []string

	if r.Title != "" {
		textParts = append(textParts, r.Title)
		fields = append(fields, "title")
	}

	if r.Author != "" {
		textParts = append(textParts, r.Author)
		fields = append(fields, "author")
	}

	return SearchPayload{
		Tor: TorQuery{
			Text:        strings.Join(textParts, " "),
			SearchIn:    fields,
			SearchType:  "all",
			SortType:    "default",
			SearchWhere: "torrents",
			Categories:  []string{"0"},
		},
	}
}

// Search pages through the search endpoint, advancing the offset by the
// number of records each page actually returned, until the result budget
// is met, a page comes back empty, or the service reports an error (a
// normal partial result). Candidates already owned or already seen in
// this call are skipped.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Candidate, error) {
	ctx = logctx.WithOperation(ctx, "search")
	logger := logctx.LoggerFromContext(ctx)

	if req.Max <= 0 {
		req.Max = searchPageSize
	}

	payload := req.payload()
	payload.PerPage = searchPageSize

	var results []Candidate

	seen := make(map[string]struct{})

	for offset := 0; len(results) < req.Max; {
		payload.Tor.StartNumber = offset

		resp, err := c.postJSON(ctx, "/tor/js/loadSearchJSONbasic.php", payload)
		if err != nil {
			return results, fmt.Errorf("failed to fetch search page at offset %d: %w", offset, err)
		}

		if resp.StatusCode != http.StatusOK {
			msg := drainBody(resp.Body)
			resp.Body.Close()

			return results, &NetworkError{Operation: "search", StatusCode: resp.StatusCode, APIMessage: msg}
		}

		var page searchPage
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()

		if err != nil {
			return results, fmt.Errorf("failed to decode search page at offset %d: %w", offset, err)
		}

		if len(page.Error) > 0 {
			logger.WarnContext(ctx, "search page carried an error, stopping", "offset", offset, "error", string(page.Error))

			break
		}

		if len(page.Data) == 0 {
			break
		}

		logger.DebugContext(ctx, "checking candidates", "from", offset, "to", offset+len(page.Data))

		for _, cand := range page.Data {
			if req.Owned.Contains(cand.ID) {
				continue
			}

			if _, dup := seen[cand.ID]; dup {
				continue
			}

			seen[cand.ID] = struct{}{}

			results = append(results, cand)
			if len(results) >= req.Max {
				break
			}
		}

		offset += len(page.Data)
	}

	logger.DebugContext(ctx, "search finished", "results", len(results))

	return results, nil
}

package catalog

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Candidate is one catalog record eligible for ranking and selection.
// The service returns loosely typed JSON; only the fields this system
// needs are lifted out, the rest travels in Raw.
type Candidate struct {
	ID         string
	Title      string
	AuthorInfo string // JSON mapping of author id -> display name, may be empty
	OwnerName  string // fallback display name
	SizeText   string // size as reported by the service
	SizeBytes  int64  // parsed from SizeText, 0 when unparsable
	Raw        json.RawMessage
}

type candidateWire struct {
	ID         json.Number `json:"id"`
	Title      string      `json:"title"`
	AuthorInfo string      `json:"author_info"`
	OwnerName  string      `json:"owner_name"`
	Size       json.Number `json:"size"`
}

func (c *Candidate) UnmarshalJSON(data []byte) error {
	var w candidateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	c.ID = w.ID.String()
	c.Title = w.Title
	c.AuthorInfo = w.AuthorInfo
	c.OwnerName = w.OwnerName
	c.SizeText = w.Size.String()
	c.SizeBytes, _ = strconv.ParseInt(c.SizeText, 10, 64)
	c.Raw = append(json.RawMessage(nil), data...)

	return nil
}

// Authors returns the candidate's author display names. The author_info
// mapping takes precedence, in document order; owner_name is the fallback.
func (c *Candidate) Authors() []string {
	if c.AuthorInfo != "" {
		if names := decodeOrderedValues(c.AuthorInfo); len(names) > 0 {
			return names
		}
	}

	if c.OwnerName != "" {
		return []string{c.OwnerName}
	}

	return nil
}

// AuthorString joins all author names with a single space, for matching.
func (c *Candidate) AuthorString() string {
	return strings.Join(c.Authors(), " ")
}

// DisplaySize renders the size for humans, falling back to the raw
// service value when it isn't a byte count.
func (c *Candidate) DisplaySize() string {
	if c.SizeBytes > 0 {
		return humanize.IBytes(uint64(c.SizeBytes))
	}

	return c.SizeText
}

// decodeOrderedValues extracts the string values of a JSON object in
// document order. Go maps would shuffle them; the order matters because
// the joined author string feeds the ranker.
func decodeOrderedValues(raw string) []string {
	dec := json.NewDecoder(strings.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var values []string

	for dec.More() {
		if _, err := dec.Token(); err != nil { // key
			return nil
		}

		val, err := dec.Token()
		if err != nil {
			return nil
		}

		if s, ok := val.(string); ok {
			values = append(values, s)
		}
	}

	return values
}

// IDs extracts the identifier of each candidate, preserving order.
func IDs(candidates []Candidate) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}

	return ids
}

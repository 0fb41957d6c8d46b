package gamma

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Market is one row of the gamma /markets response. Outcomes and prices
// arrive as JSON-encoded strings inside the JSON document, so they get
// custom decoding.
type Market struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Outcomes    StringList `json:"outcomes"`
	Prices      FloatList  `json:"outcomePrices"`
	Volume      Float      `json:"volume"`
	Liquidity   Float      `json:"liquidity"`
	EndDate     *time.Time `json:"endDate"`
	Active      bool       `json:"active"`
	Closed      bool       `json:"closed"`
}

// StringList decodes either a JSON array or a doubly-encoded array string.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = nil
		return nil
	}
	var direct []string
	if err := json.Unmarshal(b, &direct); err == nil {
		*l = direct
		return nil
	}
	var encoded string
	if err := json.Unmarshal(b, &encoded); err != nil {
		return fmt.Errorf("invalid string list: %s", string(b))
	}
	if encoded == "" {
		*l = nil
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(encoded), &items); err != nil {
		return fmt.Errorf("invalid encoded string list: %s", encoded)
	}
	*l = items
	return nil
}

// FloatList decodes arrays whose elements may be numbers or numeric
// strings, including the doubly-encoded form.
type FloatList []float64

func (l *FloatList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err == nil {
		out := make([]float64, 0, len(raw))
		for _, item := range raw {
			val, err := parseFloatRaw(item)
			if err != nil {
				return err
			}
			out = append(out, val)
		}
		*l = out
		return nil
	}
	var encoded string
	if err := json.Unmarshal(b, &encoded); err != nil {
		return fmt.Errorf("invalid float list: %s", string(b))
	}
	if encoded == "" {
		*l = nil
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(encoded), &items); err != nil {
		return fmt.Errorf("invalid encoded float list: %s", encoded)
	}
	out := make([]float64, 0, len(items))
	for _, item := range items {
		val, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", item, err)
		}
		out = append(out, val)
	}
	*l = out
	return nil
}

// Float accepts number or numeric-string encodings.
type Float float64

func (f *Float) UnmarshalJSON(b []byte) error {
	val, err := parseFloatRaw(b)
	if err != nil {
		return err
	}
	*f = Float(val)
	return nil
}

func parseFloatRaw(b json.RawMessage) (float64, error) {
	if len(b) == 0 || string(b) == "null" {
		return 0, nil
	}
	var num float64
	if err := json.Unmarshal(b, &num); err == nil {
		return num, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s == "" {
			return 0, nil
		}
		val, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q: %w", s, err)
		}
		return val, nil
	}
	return 0, fmt.Errorf("invalid number: %s", string(b))
}

func parseMarkets(body []byte) ([]Market, error) {
	var items []Market
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse markets: %w", err)
	}
	return items, nil
}

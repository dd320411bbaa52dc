package fits

import (
	"fmt"

	"github.com/astrogo/fitsio"
)

// Header is the ordered list of descriptive cards of an HDU. Structural
// keywords are not kept; they follow from the pixel data on write.
type Header struct {
	cards []fitsio.Card
}

func (h Header) Cards() []fitsio.Card { return h.cards }

func (h Header) Has(key string) bool {
	_, ok := h.Value(key)
	return ok
}

// Value returns the value of the first card with key.
func (h Header) Value(key string) (any, bool) {
	for _, c := range h.cards {
		if c.Name == key {
			return c.Value, true
		}
	}
	return nil, false
}

func (h Header) String(key string) (string, bool) {
	v, ok := h.Value(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (h Header) Float(key string) (float64, error) {
	v, ok := h.Value(key)
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}
	f, ok := number(v)
	if !ok {
		return 0, fmt.Errorf("%s is not a number: %v", key, v)
	}
	return f, nil
}

// Set replaces the first card with key, or appends one.
func (h *Header) Set(key string, value any, comment string) {
	c := fitsio.Card{Name: key, Value: value, Comment: comment}
	for i := range h.cards {
		if h.cards[i].Name == key {
			h.cards[i] = c
			return
		}
	}
	h.cards = append(h.cards, c)
}

func (h Header) Clone() Header {
	return Header{cards: append([]fitsio.Card(nil), h.cards...)}
}

// number converts a parsed card value to float64.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Package segment groups recognized entity occurrences into per-item
// drafts when one message orders several pizzas at once. Grouping is
// positional: anchor occurrences open half-open index ranges and every
// other occurrence joins the range its token index falls into.
package segment

import (
	"errors"
	"math"
	"sort"
)

// ErrNoAnchor is returned when a bag holds no quantity, pizza, size or
// crust occurrence, so no anchor kind exists to split on.
var ErrNoAnchor = errors.New("no anchor entity present")

// Span is a normalized entity value at its source-token index.
type Span struct {
	Value string
	Index int
}

// QuantitySpan is a parsed quantity at its source-token index.
type QuantitySpan struct {
	Value int
	Index int
}

// Entities is a positional bag of normalized occurrences for one message.
type Entities struct {
	Pizzas     []Span
	Sizes      []Span
	Crusts     []Span
	Toppings   []Span
	Quantities []QuantitySpan
}

// Draft is a cart item under construction. Zero values mean the field
// was not provided yet; Toppings nil means no topping information,
// while an explicit "no topping" choice is a one-element sentinel list.
type Draft struct {
	ID       int
	Pizza    string
	Quantity int
	Size     string
	Crust    string
	Toppings []string
}

// Complete reports whether every field a cart item needs is present.
func (d Draft) Complete() bool {
	return d.Pizza != "" && d.Quantity != 0 && d.Size != "" && d.Crust != "" && len(d.Toppings) > 0
}

type record struct {
	pizza    string
	size     string
	crust    string
	quantity int
	toppings []string
}

// Split groups the occurrences in e into drafts, one per anchor. The
// second return value reports whether quantities drove the split; when
// they did, drafts whose quantity dropped to zero or below are removed.
func Split(e Entities) ([]Draft, bool, error) {
	anchors, byQuantity, err := anchorIndices(e)
	if err != nil {
		return nil, false, err
	}
	sort.Ints(anchors)

	records := make([]record, len(anchors))

	// rangeOf finds the half-open range [anchors[i], anchors[i+1]) that
	// idx falls into; the last range extends to infinity. Occurrences
	// before the first anchor belong to no item and are dropped.
	rangeOf := func(idx int) int {
		for i := len(anchors) - 1; i >= 0; i-- {
			if idx >= anchors[i] {
				return i
			}
		}
		return -1
	}

	for _, q := range e.Quantities {
		if i := rangeOf(q.Index); i >= 0 {
			records[i].quantity = q.Value
		}
	}
	for _, p := range e.Pizzas {
		if i := rangeOf(p.Index); i >= 0 {
			records[i].pizza = p.Value
		}
	}
	for _, s := range e.Sizes {
		if i := rangeOf(s.Index); i >= 0 {
			records[i].size = s.Value
		}
	}
	for _, c := range e.Crusts {
		if i := rangeOf(c.Index); i >= 0 {
			records[i].crust = c.Value
		}
	}
	for _, t := range e.Toppings {
		if i := rangeOf(t.Index); i >= 0 {
			records[i].toppings = append(records[i].toppings, t.Value)
		}
	}

	fillForward(records, byQuantity)

	drafts := make([]Draft, 0, len(records))
	for i, rec := range records {
		if byQuantity && rec.quantity <= 0 {
			continue
		}
		d := Draft{
			ID:       i + 1,
			Pizza:    rec.pizza,
			Size:     rec.size,
			Crust:    rec.crust,
			Toppings: rec.toppings,
		}
		if byQuantity {
			d.Quantity = rec.quantity
		}
		drafts = append(drafts, d)
	}
	return drafts, byQuantity, nil
}

// fillForward carries the most recent named pizza into later ranges that
// mention no pizza of their own, inheriting its size and crust where the
// range stays silent. When quantities anchor the split, quantity carried
// into a later range is subtracted from the donor so totals stay equal.
func fillForward(records []record, byQuantity bool) {
	last := -1
	for i := range records {
		if records[i].pizza != "" {
			last = i
			continue
		}
		if last < 0 {
			continue
		}
		records[i].pizza = records[last].pizza
		if byQuantity {
			records[last].quantity -= records[i].quantity
		}
		if records[i].size == "" {
			records[i].size = records[last].size
		}
		if records[i].crust == "" {
			records[i].crust = records[last].crust
		}
	}
}

// anchorIndices picks the anchor kind and returns its occurrence
// indices. Quantities always anchor when present; otherwise the most
// frequent of pizza, size and crust wins, with ties going to pizza when
// all three tie and to the kind whose first occurrence comes earliest
// when size and crust tie.
func anchorIndices(e Entities) ([]int, bool, error) {
	if len(e.Quantities) > 0 {
		out := make([]int, len(e.Quantities))
		for i, q := range e.Quantities {
			out[i] = q.Index
		}
		return out, true, nil
	}

	nPizza, nSize, nCrust := len(e.Pizzas), len(e.Sizes), len(e.Crusts)
	max := nPizza
	if nSize > max {
		max = nSize
	}
	if nCrust > max {
		max = nCrust
	}
	if max == 0 {
		return nil, false, ErrNoAnchor
	}

	var spans []Span
	switch {
	case nPizza == max && nSize == max && nCrust == max:
		spans = e.Pizzas
	case nSize == max && nCrust == max:
		if minIndex(e.Sizes) < minIndex(e.Crusts) {
			spans = e.Sizes
		} else {
			spans = e.Crusts
		}
	case nPizza == max:
		spans = e.Pizzas
	case nSize == max:
		spans = e.Sizes
	default:
		spans = e.Crusts
	}

	out := make([]int, len(spans))
	for i, s := range spans {
		out[i] = s.Index
	}
	return out, false, nil
}

func minIndex(spans []Span) int {
	min := math.MaxInt32
	for _, s := range spans {
		if s.Index < min {
			min = s.Index
		}
	}
	return min
}

package dialogue

import (
	"strings"

	"pizzatalk/internal/catalog"
	"pizzatalk/internal/common/errors"
	"pizzatalk/internal/nlu"
	"pizzatalk/internal/segment"
)

// orderEntities is the position-free, normalized view of one message's
// order entities.
type orderEntities struct {
	Pizzas     []string
	Quantities []int
	Sizes      []string
	Crusts     []string
	Toppings   []string
}

var checkAll = []nlu.EntityKind{nlu.KindPizza, nlu.KindSize, nlu.KindCrust, nlu.KindTopping}

var validationCodes = map[nlu.EntityKind]errors.ErrorCode{
	nlu.KindPizza:   errors.ErrCodeInvalidPizza,
	nlu.KindSize:    errors.ErrCodeInvalidSize,
	nlu.KindCrust:   errors.ErrCodeInvalidCrust,
	nlu.KindTopping: errors.ErrCodeInvalidTopping,
}

func isChecked(kind nlu.EntityKind, checkFields []nlu.EntityKind) bool {
	for _, f := range checkFields {
		if f == kind {
			return true
		}
	}
	return false
}

// verifyOrderEntities normalizes raw recognizer output. Unrecognized
// values in a checked kind abort the turn with a ValidationError; in
// unchecked kinds they are silently dropped.
func verifyOrderEntities(raw map[nlu.EntityKind][]string, checkFields []nlu.EntityKind) (orderEntities, error) {
	var out orderEntities

	for _, kind := range checkAll {
		valid, invalid := catalog.Normalize(kind, raw[kind])
		if len(invalid) > 0 && isChecked(kind, checkFields) {
			return out, errors.NewValidationError(validationCodes[kind], string(kind), invalid)
		}
		switch kind {
		case nlu.KindPizza:
			out.Pizzas = valid
		case nlu.KindSize:
			out.Sizes = valid
		case nlu.KindCrust:
			out.Crusts = valid
		case nlu.KindTopping:
			out.Toppings = valid
		}
	}

	out.Quantities, _ = catalog.NormalizeQuantities(raw[nlu.KindQuantity])
	return out, nil
}

// verifyIndexedEntities normalizes indexed recognizer output into a
// positional bag ready for segmentation.
func verifyIndexedEntities(raw map[nlu.EntityKind][]nlu.Occurrence, checkFields []nlu.EntityKind) (segment.Entities, error) {
	var out segment.Entities

	normalizeKind := func(kind nlu.EntityKind) ([]segment.Span, error) {
		var spans []segment.Span
		var invalid []string
		for _, occ := range raw[kind] {
			values, bad := catalog.Normalize(kind, []string{occ.Value})
			if len(bad) > 0 {
				invalid = append(invalid, bad...)
				continue
			}
			spans = append(spans, segment.Span{Value: values[0], Index: occ.Index})
		}
		if len(invalid) > 0 && isChecked(kind, checkFields) {
			return nil, errors.NewValidationError(validationCodes[kind], string(kind), invalid)
		}
		return spans, nil
	}

	var err error
	if out.Pizzas, err = normalizeKind(nlu.KindPizza); err != nil {
		return out, err
	}
	if out.Sizes, err = normalizeKind(nlu.KindSize); err != nil {
		return out, err
	}
	if out.Crusts, err = normalizeKind(nlu.KindCrust); err != nil {
		return out, err
	}
	if out.Toppings, err = normalizeKind(nlu.KindTopping); err != nil {
		return out, err
	}

	for _, occ := range raw[nlu.KindQuantity] {
		if n, ok := catalog.NormalizeQuantity(occ.Value); ok {
			out.Quantities = append(out.Quantities, segment.QuantitySpan{Value: n, Index: occ.Index})
		}
	}
	return out, nil
}

// cleanCustomerEntities replaces the recognizer's underscore word
// joiner with spaces in free-text fields.
func cleanCustomerEntities(raw map[nlu.EntityKind][]string) map[nlu.EntityKind][]string {
	out := make(map[nlu.EntityKind][]string, len(raw))
	for kind, values := range raw {
		switch kind {
		case nlu.KindCustomer, nlu.KindAddress, nlu.KindPayment:
			cleaned := make([]string, len(values))
			for i, v := range values {
				cleaned[i] = strings.ReplaceAll(v, "_", " ")
			}
			out[kind] = cleaned
		default:
			out[kind] = values
		}
	}
	return out
}

// isSingleItem reports whether the message describes at most one item,
// in which case segmentation is unnecessary.
func isSingleItem(e orderEntities) bool {
	return len(e.Pizzas) <= 1 && len(e.Quantities) <= 1 && len(e.Sizes) <= 1 && len(e.Crusts) <= 1
}

// draftFromEntities builds the one draft a single-item message
// describes.
func draftFromEntities(e orderEntities) segment.Draft {
	d := segment.Draft{ID: 1}
	if len(e.Pizzas) > 0 {
		d.Pizza = e.Pizzas[0]
	}
	if len(e.Quantities) > 0 {
		d.Quantity = e.Quantities[0]
	}
	if len(e.Sizes) > 0 {
		d.Size = e.Sizes[0]
	}
	if len(e.Crusts) > 0 {
		d.Crust = e.Crusts[0]
	}
	d.Toppings = e.Toppings
	return d
}

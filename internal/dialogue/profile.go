package dialogue

import (
	"context"
	"strings"

	"pizzatalk/internal/nlu"
)

// handleProvideInfo stores whatever delivery details the message
// carries and asks for everything still missing in one prompt.
func (m *Manager) handleProvideInfo(ctx context.Context, st *State, message string) (string, error) {
	raw, err := m.customer.Predict(ctx, message)
	if err != nil {
		return "", err
	}
	entities := cleanCustomerEntities(raw)

	var missing []string
	for _, field := range profileFields {
		values, provided := entities[field]
		_, stored := st.Profile[field]
		switch {
		case provided:
			st.Profile[field] = values
		case !stored:
			missing = append(missing, m.store.Pick("provide_info", missingKey(field)))
		}
	}

	if len(missing) == 0 {
		return m.finalizeProfile(ctx, st)
	}
	return m.store.Line(map[string]string{
		"missing_entity": strings.Join(missing, ", "),
	}, "provide_info", "missing_template"), nil
}

// handlePendingProfile collects the remaining delivery details one
// field at a time, prompting for the first one still absent.
func (m *Manager) handlePendingProfile(ctx context.Context, st *State, message string) (string, error) {
	raw, err := m.customer.Predict(ctx, message)
	if err != nil {
		return "", err
	}
	entities := cleanCustomerEntities(raw)

	for _, field := range profileFields {
		values, provided := entities[field]
		_, stored := st.Profile[field]
		if provided && !stored {
			st.Profile[field] = values
		} else if !provided && !stored {
			return m.store.Line(map[string]string{
				"missing_entity": m.store.Pick("provide_info", missingKey(field)),
			}, "provide_info", "missing_template"), nil
		}
	}

	return m.finalizeProfile(ctx, st)
}

// finalizeProfile confirms the collected details and clears the cart:
// the order has left the dialogue's hands.
func (m *Manager) finalizeProfile(ctx context.Context, st *State) (string, error) {
	cart, err := m.backend.ActiveCart(ctx, st.UserID)
	if err != nil {
		return "", err
	}
	items, err := m.backend.CartItems(ctx, cart.ID)
	if err != nil {
		return "", err
	}
	for _, ci := range items {
		if err := m.backend.DeleteCartItem(ctx, ci.ID); err != nil {
			return "", err
		}
	}

	st.AwaitingProfile = false

	header := m.store.Pick("provide_info", "confirm_info", "header")
	footer := m.store.Pick("provide_info", "confirm_info", "footer")
	return header + "\n" + formatProfile(st.Profile) + "\n" + footer, nil
}

func missingKey(field nlu.EntityKind) string {
	return "missing_" + strings.ToLower(string(field))
}

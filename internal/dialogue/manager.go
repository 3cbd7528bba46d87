package dialogue

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"pizzatalk/internal/common/errors"
	"pizzatalk/internal/common/logger"
	"pizzatalk/internal/common/metrics"
	"pizzatalk/internal/gateway"
	"pizzatalk/internal/nlu"
	"pizzatalk/internal/response"
	"pizzatalk/internal/segment"
)

// separator visually splits multi-part replies, matching the client's
// rendering of dialogue blocks.
const separator = "\n --------------------------------------------------------- \n"

// Backend is the slice of the order gateway the dialogue engine needs.
// *gateway.Client satisfies it.
type Backend interface {
	ProductByName(ctx context.Context, name, size string) (*gateway.Product, error)
	Menu(ctx context.Context) ([]gateway.Product, error)
	ActiveCart(ctx context.Context, userID int) (*gateway.Cart, error)
	CartItems(ctx context.Context, cartID int) ([]gateway.CartItem, error)
	CartItem(ctx context.Context, id int) (*gateway.CartItem, error)
	CreateCartItem(ctx context.Context, req gateway.CartItemRequest) error
	UpdateCartItem(ctx context.Context, id int, req gateway.CartItemRequest) error
	DeleteCartItem(ctx context.Context, id int) error
	StoreID() int
}

// Manager runs conversation turns. It is stateless across users; all
// per-conversation data lives in the State the caller passes in.
type Manager struct {
	intents  nlu.IntentClassifier
	order    nlu.EntityRecognizer
	customer nlu.EntityRecognizer
	backend  Backend
	store    *response.Store
	logger   logger.Logger
}

func NewManager(
	intents nlu.IntentClassifier,
	order nlu.EntityRecognizer,
	customer nlu.EntityRecognizer,
	backend Backend,
	store *response.Store,
	log logger.Logger,
) *Manager {
	return &Manager{
		intents:  intents,
		order:    order,
		customer: customer,
		backend:  backend,
		store:    store,
		logger:   log,
	}
}

// HandleMessage runs one turn. Every failure is recovered into exactly
// one user-facing reply; the error never escapes.
func (m *Manager) HandleMessage(ctx context.Context, st *State, message string) string {
	start := time.Now()

	// Callers may hand in a zero-value State; the profile map is the
	// only field that needs allocation before use.
	if st.Profile == nil {
		st.Profile = make(map[nlu.EntityKind][]string)
	}

	route, reply, err := m.dispatch(ctx, st, message)

	metrics.MessagesHandled.WithLabelValues(route).Inc()
	metrics.TurnDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())

	if err != nil {
		reply = m.renderError(st, err)
	}
	return reply
}

func (m *Manager) dispatch(ctx context.Context, st *State, message string) (string, string, error) {
	if st.profileStarted() {
		reply, err := m.handlePendingProfile(ctx, st, message)
		return "pending_profile", reply, err
	}
	if st.PendingConfirmation != ConfirmNone {
		reply, err := m.handleConfirmation(ctx, st, message)
		return "pending_confirmation", reply, err
	}
	if len(st.PendingAdd) > 0 {
		reply, err := m.handlePendingDraft(ctx, st, message)
		return "pending_add", reply, err
	}
	if len(st.PendingRemove) > 0 {
		reply, err := m.chooseCandidate(ctx, st, message, ConfirmRemove)
		return "pending_remove_choice", reply, err
	}
	if len(st.PendingModify) > 0 {
		reply, err := m.chooseCandidate(ctx, st, message, ConfirmModify)
		return "pending_modify_choice", reply, err
	}

	intent, err := m.intents.PredictIntent(ctx, message)
	if err != nil {
		return "intent_failed", "", err
	}

	route := string(intent)
	if route == "" {
		route = "unknown"
	}

	var reply string
	switch intent {
	case nlu.IntentViewMenu:
		reply, err = m.handleViewMenu(ctx, st, message)
	case nlu.IntentViewCart:
		reply, err = m.handleViewCart(ctx, st, message)
	case nlu.IntentAddToCart:
		reply, err = m.handleAddToCart(ctx, st, message)
	case nlu.IntentRemoveFromCart:
		reply, err = m.handleRemoveFromCart(ctx, st, message)
	case nlu.IntentModifyCartItem:
		reply, err = m.handleModifyCartItem(ctx, st, message)
	case nlu.IntentConfirmOrder:
		reply, err = m.handleConfirmOrder(ctx, st)
	case nlu.IntentTrackOrder:
		reply = m.store.Pick("track_order", "unknown")
	case nlu.IntentCancelOrder:
		reply = m.store.Pick("cancel_order", "unknown")
	case nlu.IntentProvideInfo:
		reply, err = m.handleProvideInfo(ctx, st, message)
	default:
		reply = m.store.Pick("unknown")
	}
	return route, reply, err
}

// renderError maps a turn failure to a reply. The pending state a
// failed turn accumulated before the error is left as it was so the
// user can simply try again.
func (m *Manager) renderError(st *State, err error) string {
	if ve, ok := errors.AsValidation(err); ok {
		metrics.TurnErrors.WithLabelValues(string(ve.Code)).Inc()
		key := "invalid_" + strings.ToLower(ve.Kind)
		return response.Render(m.store.Pick(key), map[string]string{
			"product_name": strings.Join(ve.Values, ", "),
		})
	}

	if be, ok := errors.AsBackend(err); ok {
		metrics.TurnErrors.WithLabelValues(string(be.Code)).Inc()
		m.logger.WithError(err).Error("backend call failed", map[string]interface{}{
			"operation": be.Operation,
			"user_id":   st.UserID,
		})
		if m.store.Has("backend_error", be.Operation) {
			return m.store.Pick("backend_error", be.Operation)
		}
		return m.store.Pick("backend_error", "default")
	}

	if stderrors.Is(err, segment.ErrNoAnchor) {
		metrics.TurnErrors.WithLabelValues(string(errors.ErrCodeSegmentationNoAnchor)).Inc()
		return m.store.Pick("cannot_segment")
	}

	metrics.TurnErrors.WithLabelValues("internal").Inc()
	m.logger.WithError(err).Error("turn failed", map[string]interface{}{"user_id": st.UserID})
	return m.store.Pick("backend_error", "default")
}

// Package dialogue implements the multi-turn conversation engine. A
// Manager owns no per-user data; callers hold a State per conversation
// and pass it into every turn.
package dialogue

import (
	"pizzatalk/internal/gateway"
	"pizzatalk/internal/nlu"
	"pizzatalk/internal/segment"
)

// Confirmation names the question a pending y/n answer refers to.
type Confirmation string

const (
	ConfirmNone   Confirmation = ""
	ConfirmAdd    Confirmation = "add_to_cart"
	ConfirmRemove Confirmation = "remove_from_cart"
	ConfirmModify Confirmation = "modify_cart_item"
	ConfirmOrder  Confirmation = "confirm_order"
)

// ModifyGroup pairs requested changes with the cart lines they could
// apply to. More than one candidate means the user still has to pick.
type ModifyGroup struct {
	Changes    segment.Draft
	Candidates []gateway.CartItem
}

// profileFields is the set of delivery details an order needs, in
// prompt order.
var profileFields = []nlu.EntityKind{nlu.KindCustomer, nlu.KindAddress, nlu.KindPhone, nlu.KindPayment}

// State is the full conversation state for one user. At most one of
// the pending collections drives routing at a time; the zero value
// (plus a user id) is a fresh conversation.
type State struct {
	UserID int

	PendingConfirmation Confirmation
	PendingAdd          []segment.Draft
	PendingRemove       [][]gateway.CartItem
	PendingModify       []ModifyGroup

	Profile         map[nlu.EntityKind][]string
	AwaitingProfile bool
}

// NewState returns a fresh conversation state for a user.
func NewState(userID int) *State {
	return &State{
		UserID:  userID,
		Profile: make(map[nlu.EntityKind][]string),
	}
}

// profileStarted reports whether the delivery-info collection loop owns
// the next message.
func (s *State) profileStarted() bool {
	return s.AwaitingProfile || (len(s.Profile) > 0 && len(s.Profile) < len(profileFields))
}

// ActiveRoutes counts the routing drivers currently set. The engine
// keeps this at most one outside the confirmation hand-offs.
func (s *State) ActiveRoutes() int {
	n := 0
	if s.PendingConfirmation != ConfirmNone {
		n++
	}
	if len(s.PendingAdd) > 0 {
		n++
	}
	if len(s.PendingRemove) > 0 {
		n++
	}
	if len(s.PendingModify) > 0 {
		n++
	}
	return n
}

// Package nlu defines the boundary with the statistical models that turn
// raw text into intent labels and entity spans. The models themselves live
// outside this process; the dialogue core only depends on these contracts.
package nlu

import "context"

// Intent is one of the closed set of labels the classifier can emit.
type Intent string

const (
	IntentViewMenu       Intent = "view_menu"
	IntentViewCart       Intent = "view_cart"
	IntentAddToCart      Intent = "add_to_cart"
	IntentRemoveFromCart Intent = "remove_from_cart"
	IntentModifyCartItem Intent = "modify_cart_item"
	IntentConfirmOrder   Intent = "confirm_order"
	IntentTrackOrder     Intent = "track_order"
	IntentCancelOrder    Intent = "cancel_order"
	IntentProvideInfo    Intent = "provide_info"
	IntentUnknown        Intent = ""
)

// EntityKind tags a recognized span. The string values match the tag set
// of the entity recognizer.
type EntityKind string

const (
	KindPizza    EntityKind = "Pizza"
	KindSize     EntityKind = "Size"
	KindCrust    EntityKind = "Crust"
	KindTopping  EntityKind = "Topping"
	KindQuantity EntityKind = "Quantity"
	KindCustomer EntityKind = "Cus"
	KindAddress  EntityKind = "Address"
	KindPhone    EntityKind = "Phone"
	KindPayment  EntityKind = "Payment"
)

// Occurrence is a recognized span together with its source-token index.
// The index gives left-to-right order within the utterance and is the
// sole signal for grouping occurrences into the same item.
type Occurrence struct {
	Value string
	Index int
}

// IntentClassifier predicts the intent label of a message.
type IntentClassifier interface {
	PredictIntent(ctx context.Context, text string) (Intent, error)
}

// EntityRecognizer predicts entity spans. Predict is the position-free
// variant used by the single-item shortcut; PredictWithIndex carries the
// token indices needed for multi-item segmentation.
type EntityRecognizer interface {
	Predict(ctx context.Context, text string) (map[EntityKind][]string, error)
	PredictWithIndex(ctx context.Context, text string) (map[EntityKind][]Occurrence, error)
}

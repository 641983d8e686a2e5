package button

import "fmt"

// Variant selects the scoring policy of a round. The three variants
// share one state machine; only the per-press weight and the Pressiah
// rule differ.
type Variant uint8

const (
	// YellowButton scores one point per press; the Pressiah is the
	// last presser, whose press is the variant's highest-scored event.
	YellowButton Variant = 1
	// EarlyBirdSpecial weights presses by remaining round time, so
	// earlier presses are worth more.
	EarlyBirdSpecial Variant = 2
	// BackToTheFuture weights presses by elapsed round time, so later
	// presses are worth more.
	BackToTheFuture Variant = 3
)

func (v Variant) String() string {
	switch v {
	case YellowButton:
		return "yellow_button"
	case EarlyBirdSpecial:
		return "early_bird_special"
	case BackToTheFuture:
		return "back_to_the_future"
	}
	return "invalid"
}

// ParseVariant is the inverse of String.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "yellow_button":
		return YellowButton, nil
	case "early_bird_special":
		return EarlyBirdSpecial, nil
	case "back_to_the_future":
		return BackToTheFuture, nil
	}
	return 0, fmt.Errorf("unknown variant %q", s)
}

// weight scores a press at the given time. Callers guarantee
// start <= now < deadline, so every weight is at least 1 and the
// total score of a round with presses is never zero.
func (v Variant) weight(now, start, deadline uint64) uint64 {
	switch v {
	case YellowButton:
		return 1
	case EarlyBirdSpecial:
		return deadline - now
	case BackToTheFuture:
		return now - start + 1
	}
	return 0
}

// pressiahIsLastPresser reports whether the variant's bonus goes to
// the last presser rather than the top scorer.
func (v Variant) pressiahIsLastPresser() bool {
	return v == YellowButton
}

package game

import "fmt"

// ErrorFamily groups rule violations so callers can branch on the kind of
// rule that was broken without matching on message text.
type ErrorFamily int

const (
	FamilyGameState ErrorFamily = iota
	FamilyBetting
	FamilyHandicap
)

func (f ErrorFamily) String() string {
	return [...]string{"game-state", "betting", "handicap"}[f]
}

// Rule violation codes. Each code identifies exactly one enforced rule.
const (
	CodeInvalidPlayerCount    = "invalid_player_count"
	CodePartnerIsSelf         = "partner_is_self"
	CodeDeadlinePassed        = "deadline_passed"
	CodeAardvarkCannotCaptain = "aardvark_cannot_captain"
	CodeAardvarkUnavailable   = "aardvark_unavailable"
	CodeInvalidFormation      = "invalid_formation"
	CodeInvalidWager          = "invalid_wager"
	CodeModifierConflict      = "modifier_conflict"
	CodeSpecialWagerMenu      = "special_wager_menu"
	CodeSpecialWagerPhase     = "special_wager_phase"
	CodeSpecialWagerGoat      = "special_wager_goat"
	CodeFloatReused           = "float_reused"
	CodeHoleOutOfOrder        = "hole_out_of_order"
	CodeHoleConflict          = "hole_conflict"
	CodeRotationMismatch      = "rotation_mismatch"
	CodeGoatChoicePending     = "goat_choice_pending"
	CodeGoatPositionInvalid   = "goat_position_invalid"
	CodeScoreMissing          = "score_missing"
	CodeUnknownPlayer         = "unknown_player"
	CodeWinnerMismatch        = "winner_mismatch"
)

// RuleError is a recoverable validation or rule-violation error. It carries
// the field that failed and the offending value so callers can surface a
// precise message without parsing error text.
type RuleError struct {
	Family ErrorFamily
	Code   string
	Field  string
	Value  any
	msg    string
}

func (e *RuleError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s=%v)", e.Code, e.msg, e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.msg)
}

func newRuleError(family ErrorFamily, code, field string, value any, format string, args ...any) *RuleError {
	return &RuleError{
		Family: family,
		Code:   code,
		Field:  field,
		Value:  value,
		msg:    fmt.Sprintf(format, args...),
	}
}

// IsRuleCode reports whether err is a RuleError with the given code.
func IsRuleCode(err error, code string) bool {
	re, ok := err.(*RuleError)
	return ok && re.Code == code
}

// InvariantError reports a broken engine invariant, most importantly a
// settlement whose deltas do not sum to zero. It is never recoverable for
// the hole being processed: the engine logs it loudly and refuses to record
// the result.
type InvariantError struct {
	Hole   int
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation on hole %d: %s", e.Hole, e.Detail)
}

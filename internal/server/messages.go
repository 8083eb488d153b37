package server

import (
	"encoding/json"
	"fmt"

	"github.com/lox/wolfgoatpig/internal/game"
	"github.com/lox/wolfgoatpig/internal/odds"
)

// Message types exchanged over the WebSocket connection.
const (
	// Client -> Server
	TypeCreateGame     = "create_game"
	TypeCompleteHole   = "complete_hole"
	TypeChoosePosition = "choose_position"
	TypeNextRotation   = "next_rotation"
	TypeNextWager      = "next_wager"
	TypeEstimateOdds   = "estimate_odds"

	// Server -> Client
	TypeGameCreated  = "game_created"
	TypeHoleSettled  = "hole_settled"
	TypeRotationPlan = "rotation_plan"
	TypeWagerInfo    = "wager_info"
	TypeOddsResult   = "odds_result"
	TypeError        = "error"
)

// Envelope wraps every message with its type and an optional correlation ID
// echoed back in the response.
type Envelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals a payload into an envelope.
func NewEnvelope(msgType, requestID string, payload any) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return &Envelope{Type: msgType, RequestID: requestID, Payload: raw}, nil
}

// PlayerSpec describes a player when creating a game.
type PlayerSpec struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Handicap float64 `json:"handicap"`
}

// CreateGameRequest creates a new game.
type CreateGameRequest struct {
	Players   []PlayerSpec `json:"players"`
	BaseWager int          `json:"base_wager,omitempty"`
}

// GameCreated confirms game creation.
type GameCreated struct {
	GameID   string   `json:"game_id"`
	Rotation []string `json:"rotation"`
}

// Formation is the wire form of a team configuration.
type Formation struct {
	Kind      string   `json:"kind"` // partners, solo, aardvark_join, aardvark_solo
	TeamA     []string `json:"team_a,omitempty"`
	TeamB     []string `json:"team_b,omitempty"`
	Captain   string   `json:"captain,omitempty"`
	Opponents []string `json:"opponents,omitempty"`
	Duncan    bool     `json:"duncan,omitempty"`
	Aardvark  string   `json:"aardvark,omitempty"`
	Tossed    bool     `json:"tossed,omitempty"`
}

// ToConfiguration converts the wire formation to the engine's tagged variant.
func (f Formation) ToConfiguration() (game.TeamConfiguration, error) {
	tc := game.TeamConfiguration{
		TeamA:     f.TeamA,
		TeamB:     f.TeamB,
		Captain:   f.Captain,
		Opponents: f.Opponents,
		Duncan:    f.Duncan,
		Aardvark:  f.Aardvark,
		Tossed:    f.Tossed,
	}
	switch f.Kind {
	case "partners":
		tc.Kind = game.FormationPartners
	case "solo":
		tc.Kind = game.FormationSolo
	case "aardvark_join":
		tc.Kind = game.FormationAardvarkJoin
	case "aardvark_solo":
		tc.Kind = game.FormationAardvarkSolo
	default:
		return tc, fmt.Errorf("unknown formation kind %q", f.Kind)
	}
	return tc, nil
}

// Modifiers is the wire form of the declared wager modifiers.
type Modifiers struct {
	Doubled        bool   `json:"doubled,omitempty"`
	Float          bool   `json:"float,omitempty"`
	OptionDeclined bool   `json:"option_declined,omitempty"`
	GoatSpecial    int    `json:"goat_special,omitempty"`
	GoatSpecialBy  string `json:"goat_special_by,omitempty"`
}

// CompleteHoleRequest settles a hole.
type CompleteHoleRequest struct {
	GameID        string         `json:"game_id"`
	Hole          int            `json:"hole"`
	Rotation      []string       `json:"rotation"`
	CaptainIndex  int            `json:"captain_index"`
	Formation     Formation      `json:"formation"`
	Modifiers     Modifiers      `json:"modifiers"`
	TeeShotsTaken int            `json:"tee_shots_taken"`
	GrossScores   map[string]int `json:"gross_scores"`
}

// HoleSettled reports a settled hole.
type HoleSettled struct {
	GameID     string         `json:"game_id"`
	Hole       int            `json:"hole"`
	Winner     string         `json:"winner"`
	FinalWager int            `json:"final_wager"`
	Deltas     map[string]int `json:"deltas"`
	NextHole   int            `json:"next_hole"`
}

// ChoosePositionRequest applies the Goat's end-game rotation choice.
type ChoosePositionRequest struct {
	GameID   string `json:"game_id"`
	Position int    `json:"position"`
}

// NextRotationRequest queries the upcoming rotation.
type NextRotationRequest struct {
	GameID string `json:"game_id"`
}

// RotationPlanMsg reports the upcoming rotation, or that the Goat must pick
// a position first.
type RotationPlanMsg struct {
	GameID         string   `json:"game_id"`
	Order          []string `json:"order,omitempty"`
	GoatMustChoose bool     `json:"goat_must_choose,omitempty"`
	Goat           string   `json:"goat,omitempty"`
	ValidPositions []int    `json:"valid_positions,omitempty"`
}

// NextWagerRequest queries the upcoming wager. Hole is optional.
type NextWagerRequest struct {
	GameID string `json:"game_id"`
	Hole   int    `json:"hole,omitempty"`
}

// WagerInfoMsg explains the upcoming wager.
type WagerInfoMsg struct {
	GameID            string `json:"game_id"`
	Hole              int    `json:"hole"`
	BaseWager         int    `json:"base_wager"`
	StartingWager     int    `json:"starting_wager"`
	CarryOver         bool   `json:"carry_over,omitempty"`
	FixedHoleDoubling bool   `json:"fixed_hole_doubling,omitempty"`
}

// EstimateOddsRequest asks for a betting analysis.
type EstimateOddsRequest struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Deep     bool   `json:"deep,omitempty"`
	Rollouts int    `json:"rollouts,omitempty"`
}

// OddsResult carries a betting analysis.
type OddsResult struct {
	GameID            string  `json:"game_id"`
	PlayerID          string  `json:"player_id"`
	OfferProbability  float64 `json:"offer_probability"`
	AcceptProbability float64 `json:"accept_probability"`
	ExpectedValue     float64 `json:"expected_value"`
	Risk              string  `json:"risk"`
	Rationale         string  `json:"rationale"`
	Unavailable       bool    `json:"unavailable,omitempty"`
	Reason            string  `json:"reason,omitempty"`
}

// NewOddsResult converts a betting analysis to its wire form.
func NewOddsResult(gameID, playerID string, ba odds.BettingAnalysis) OddsResult {
	return OddsResult{
		GameID:            gameID,
		PlayerID:          playerID,
		OfferProbability:  ba.OfferProbability,
		AcceptProbability: ba.AcceptProbability,
		ExpectedValue:     ba.ExpectedValue,
		Risk:              string(ba.Risk),
		Rationale:         ba.Rationale,
		Unavailable:       ba.Unavailable,
		Reason:            ba.Reason,
	}
}

// ErrorMsg reports a request failure with enough structure for clients to
// branch on the rule family and code.
type ErrorMsg struct {
	Family  string `json:"family,omitempty"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewErrorMsg builds an ErrorMsg from an engine error, preserving rule
// structure when present.
func NewErrorMsg(err error) ErrorMsg {
	if re, ok := err.(*game.RuleError); ok {
		return ErrorMsg{
			Family:  re.Family.String(),
			Code:    re.Code,
			Field:   re.Field,
			Message: re.Error(),
		}
	}
	return ErrorMsg{Message: err.Error()}
}

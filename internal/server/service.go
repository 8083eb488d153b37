package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/wolfgoatpig/internal/course"
	"github.com/lox/wolfgoatpig/internal/game"
	"github.com/lox/wolfgoatpig/internal/gameid"
	"github.com/lox/wolfgoatpig/internal/odds"
)

// gameEntry pairs an engine with the mutex that serialises its advancement.
// A hole is never settled twice concurrently and hole n+1 cannot begin
// before hole n's settlement is recorded.
type gameEntry struct {
	mu     sync.Mutex
	engine *game.Engine
}

// GameService tracks live games and dispatches the engine operations.
// Games are independent: each has its own lock, so separate games advance
// in parallel without coordination.
type GameService struct {
	logger   *log.Logger
	odds     *odds.Engine
	course   *course.Course
	defaults GameDefaults

	mu    sync.RWMutex
	games map[string]*gameEntry
}

// NewGameService constructs an empty game service.
func NewGameService(logger *log.Logger, defaults GameDefaults, c *course.Course, oddsEngine *odds.Engine) *GameService {
	if oddsEngine == nil {
		oddsEngine = odds.New(logger)
	}
	return &GameService{
		logger:   logger.WithPrefix("games"),
		odds:     oddsEngine,
		course:   c,
		defaults: defaults,
		games:    make(map[string]*gameEntry),
	}
}

// CreateGame registers a new game and returns its ID and opening rotation.
func (s *GameService) CreateGame(req CreateGameRequest) (GameCreated, error) {
	players := make([]*game.Player, 0, len(req.Players))
	for _, spec := range req.Players {
		players = append(players, &game.Player{ID: spec.ID, Name: spec.Name, Handicap: spec.Handicap})
	}
	baseWager := req.BaseWager
	if baseWager == 0 {
		baseWager = s.defaults.BaseWager
	}
	id := gameid.Generate()
	g, err := game.NewGame(id, players, baseWager)
	if err != nil {
		return GameCreated{}, err
	}
	engine := game.NewEngine(g, s.course, s.logger)

	s.mu.Lock()
	s.games[id] = &gameEntry{engine: engine}
	s.mu.Unlock()

	s.logger.Info("Game created", "game", id, "players", len(players), "base_wager", baseWager)
	return GameCreated{GameID: id, Rotation: g.Rotation}, nil
}

// CompleteHole settles a hole for a game, holding the game's lock for the
// whole settle-and-advance sequence.
func (s *GameService) CompleteHole(req CompleteHoleRequest) (HoleSettled, error) {
	entry, err := s.entry(req.GameID)
	if err != nil {
		return HoleSettled{}, err
	}
	tc, err := req.Formation.ToConfiguration()
	if err != nil {
		return HoleSettled{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	result, err := entry.engine.CompleteHole(game.CompleteHoleRequest{
		Hole:          req.Hole,
		Rotation:      req.Rotation,
		CaptainIndex:  req.CaptainIndex,
		Formation:     tc,
		Modifiers:     game.Modifiers(req.Modifiers),
		TeeShotsTaken: req.TeeShotsTaken,
		GrossScores:   req.GrossScores,
	})
	if err != nil {
		return HoleSettled{}, err
	}
	return HoleSettled{
		GameID:     req.GameID,
		Hole:       result.Hole,
		Winner:     result.Winner.String(),
		FinalWager: result.Wager.Final,
		Deltas:     result.Deltas,
		NextHole:   entry.engine.Game().CurrentHole,
	}, nil
}

// ChoosePosition applies the Goat's end-game rotation position.
func (s *GameService) ChoosePosition(req ChoosePositionRequest) (RotationPlanMsg, error) {
	entry, err := s.entry(req.GameID)
	if err != nil {
		return RotationPlanMsg{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := entry.engine.SelectGoatPosition(req.Position); err != nil {
		return RotationPlanMsg{}, err
	}
	return RotationPlanMsg{GameID: req.GameID, Order: entry.engine.Game().Rotation}, nil
}

// NextRotation reports the upcoming rotation plan.
func (s *GameService) NextRotation(req NextRotationRequest) (RotationPlanMsg, error) {
	entry, err := s.entry(req.GameID)
	if err != nil {
		return RotationPlanMsg{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	plan, err := entry.engine.NextRotation()
	if err != nil {
		return RotationPlanMsg{}, err
	}
	return RotationPlanMsg{
		GameID:         req.GameID,
		Order:          plan.Order,
		GoatMustChoose: plan.GoatMustChoose,
		Goat:           plan.Goat,
		ValidPositions: plan.ValidPositions,
	}, nil
}

// NextWager reports the upcoming wager and active modifiers.
func (s *GameService) NextWager(req NextWagerRequest) (WagerInfoMsg, error) {
	entry, err := s.entry(req.GameID)
	if err != nil {
		return WagerInfoMsg{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	info := entry.engine.NextWager(req.Hole)
	return WagerInfoMsg{
		GameID:            req.GameID,
		Hole:              info.Hole,
		BaseWager:         info.BaseWager,
		StartingWager:     info.StartingWager,
		CarryOver:         info.CarryOver,
		FixedHoleDoubling: info.FixedHoleDoubling,
	}, nil
}

// EstimateOdds runs the odds estimator against a snapshot of the game. The
// game lock is held only long enough to clone state, so a slow or cancelled
// estimate never blocks settlement.
func (s *GameService) EstimateOdds(ctx context.Context, req EstimateOddsRequest) (OddsResult, error) {
	entry, err := s.entry(req.GameID)
	if err != nil {
		return OddsResult{}, err
	}
	entry.mu.Lock()
	snap := odds.SnapshotFromGame(entry.engine.Game().Clone())
	entry.mu.Unlock()

	var analysis odds.BettingAnalysis
	if req.Deep {
		analysis = s.odds.EstimateDeep(ctx, snap, req.PlayerID, req.Rollouts)
	} else {
		analysis = s.odds.Estimate(snap, req.PlayerID)
	}
	return NewOddsResult(req.GameID, req.PlayerID, analysis), nil
}

// GameCount reports how many games are registered.
func (s *GameService) GameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

func (s *GameService) entry(id string) (*gameEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("unknown game %q", id)
	}
	return entry, nil
}

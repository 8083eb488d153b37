package game

import "time"

// EventType identifies a game domain event.
type EventType string

const (
	EventTypeHoleSettled  EventType = "hole_settled"
	EventTypeCarryOver    EventType = "carry_over"
	EventTypePhaseChange  EventType = "phase_change"
	EventTypeGoatChoice   EventType = "goat_choice"
	EventTypeChadResolved EventType = "chad_resolved"
)

func (et EventType) String() string { return string(et) }

// GameEvent is any event published by the engine while a round advances.
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// HoleSettledEvent is published after a hole's deltas are recorded.
type HoleSettledEvent struct {
	Hole      int
	Winner    Winner
	Wager     int
	Deltas    map[string]int
	timestamp time.Time
}

// NewHoleSettledEvent creates a new hole settled event
func NewHoleSettledEvent(hole int, winner Winner, wager int, deltas map[string]int) HoleSettledEvent {
	return HoleSettledEvent{
		Hole:      hole,
		Winner:    winner,
		Wager:     wager,
		Deltas:    deltas,
		timestamp: time.Now(),
	}
}

func (e HoleSettledEvent) EventType() EventType { return EventTypeHoleSettled }
func (e HoleSettledEvent) Timestamp() time.Time { return e.timestamp }

// CarryOverEvent is published when a push arms (or holds) a carry-over.
type CarryOverEvent struct {
	Hole      int
	Amount    int
	Held      bool // true when a consecutive push held rather than doubled
	timestamp time.Time
}

// NewCarryOverEvent creates a new carry-over event
func NewCarryOverEvent(hole, amount int, held bool) CarryOverEvent {
	return CarryOverEvent{
		Hole:      hole,
		Amount:    amount,
		Held:      held,
		timestamp: time.Now(),
	}
}

func (e CarryOverEvent) EventType() EventType { return EventTypeCarryOver }
func (e CarryOverEvent) Timestamp() time.Time { return e.timestamp }

// PhaseChangeEvent is published when the round enters the end-game phase.
type PhaseChangeEvent struct {
	Hole      int
	Phase     Phase
	timestamp time.Time
}

// NewPhaseChangeEvent creates a new phase change event
func NewPhaseChangeEvent(hole int, phase Phase) PhaseChangeEvent {
	return PhaseChangeEvent{
		Hole:      hole,
		Phase:     phase,
		timestamp: time.Now(),
	}
}

func (e PhaseChangeEvent) EventType() EventType { return EventTypePhaseChange }
func (e PhaseChangeEvent) Timestamp() time.Time { return e.timestamp }

// GoatChoiceEvent is published when the Goat must pick a rotation position.
type GoatChoiceEvent struct {
	Hole      int
	Goat      string
	Positions []int
	timestamp time.Time
}

// NewGoatChoiceEvent creates a new goat choice event
func NewGoatChoiceEvent(hole int, goat string, positions []int) GoatChoiceEvent {
	return GoatChoiceEvent{
		Hole:      hole,
		Goat:      goat,
		Positions: positions,
		timestamp: time.Now(),
	}
}

func (e GoatChoiceEvent) EventType() EventType { return EventTypeGoatChoice }
func (e GoatChoiceEvent) Timestamp() time.Time { return e.timestamp }

// ChadResolvedEvent is published when a deferred settlement finally applies.
type ChadResolvedEvent struct {
	Hole      int // hole whose settlement broke the tie
	Deltas    map[string]int
	timestamp time.Time
}

// NewChadResolvedEvent creates a new deferred settlement resolution event
func NewChadResolvedEvent(hole int, deltas map[string]int) ChadResolvedEvent {
	return ChadResolvedEvent{
		Hole:      hole,
		Deltas:    deltas,
		timestamp: time.Now(),
	}
}

func (e ChadResolvedEvent) EventType() EventType { return EventTypeChadResolved }
func (e ChadResolvedEvent) Timestamp() time.Time { return e.timestamp }

// EventSubscriber receives engine events.
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus manages event publishing and subscription.
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a basic in-memory event bus implementation.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus.
func NewEventBus() EventBus {
	return &SimpleEventBus{subscribers: make([]EventSubscriber, 0)}
}

// Subscribe adds a subscriber to receive events.
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events.
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers.
func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}

package game

// Player is a participant in a Wolf-Goat-Pig round.
type Player struct {
	ID       string
	Name     string
	Handicap float64

	// Points is the running quarter total. Positive means the player is up.
	Points int

	// FloatUsed is set once the player has invoked their one-shot Float.
	// Reset only when a new game begins.
	FloatUsed bool
}

// Clone returns a copy of the player.
func (p *Player) Clone() *Player {
	cp := *p
	return &cp
}

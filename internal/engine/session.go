package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/ericogr/pokearena/internal/game"
)

var (
	ErrInvalidCombatant   = errors.New("combatant has no type")
	ErrInvalidActionIndex = errors.New("invalid action index")
	ErrSessionTerminal    = errors.New("battle is over")
	ErrOutOfTurn          = errors.New("not this side's turn")
)

// Side identifies one of the two combatants in a session.
type Side string

const (
	SidePlayer Side = "player"
	SideEnemy  Side = "enemy"
)

// State is the session phase.
type State string

const (
	StateSelecting  State = "selecting"
	StatePlayerTurn State = "player-turn"
	StateEnemyTurn  State = "enemy-turn"
	StatePlayerWin  State = "player-win"
	StateEnemyWin   State = "enemy-win"
	StateDraw       State = "draw"
)

// Terminal reports whether no further attacks are accepted.
func (s State) Terminal() bool {
	return s == StatePlayerWin || s == StateEnemyWin || s == StateDraw
}

const (
	eventBegin          = "begin"
	eventPlayerAttacked = "player-attacked"
	eventEnemyAttacked  = "enemy-attacked"
	eventDeclareWinner  = "declare-player-win"
	eventDeclareLoser   = "declare-enemy-win"
	eventDeclareDraw    = "declare-draw"
)

func newMachine() *fsm.FSM {
	live := []string{string(StatePlayerTurn), string(StateEnemyTurn)}
	return fsm.NewFSM(
		string(StateSelecting),
		fsm.Events{
			{Name: eventBegin, Src: []string{string(StateSelecting)}, Dst: string(StatePlayerTurn)},
			{Name: eventPlayerAttacked, Src: []string{string(StatePlayerTurn)}, Dst: string(StateEnemyTurn)},
			{Name: eventEnemyAttacked, Src: []string{string(StateEnemyTurn)}, Dst: string(StatePlayerTurn)},
			{Name: eventDeclareWinner, Src: live, Dst: string(StatePlayerWin)},
			{Name: eventDeclareLoser, Src: live, Dst: string(StateEnemyWin)},
			{Name: eventDeclareDraw, Src: live, Dst: string(StateDraw)},
		},
		fsm.Callbacks{},
	)
}

// Snapshot is a read-only view of the session counters.
type Snapshot struct {
	ID              string `json:"id"`
	State           State  `json:"state"`
	Turn            int    `json:"turn"`
	PlayerHealth    int    `json:"player_health"`
	PlayerMaxHealth int    `json:"player_max_health"`
	EnemyHealth     int    `json:"enemy_health"`
	EnemyMaxHealth  int    `json:"enemy_max_health"`
}

// AttackResult describes one applied attack.
type AttackResult struct {
	Side       Side        `json:"side"`
	Action     game.Action `json:"action"`
	Resolution Resolution  `json:"resolution"`
	Entries    []LogEntry  `json:"entries"`
	Outcome    Outcome     `json:"outcome,omitempty"`
}

// RoundResult is the player's attack and, if the battle survived it, the
// enemy's reply.
type RoundResult struct {
	Turn    int           `json:"turn"`
	Player  AttackResult  `json:"player"`
	Enemy   *AttackResult `json:"enemy,omitempty"`
	Outcome Outcome       `json:"outcome,omitempty"`
	State   State         `json:"state"`
}

// Session is one player-versus-enemy battle. It is not safe for concurrent
// use; callers serialize access per session.
type Session struct {
	ID string

	player *game.Combatant
	enemy  *game.Combatant

	playerHealth    int
	playerMaxHealth int
	enemyHealth     int
	enemyMaxHealth  int

	turn     int
	log      []LogEntry
	machine  *fsm.FSM
	rng      RandomSource
	resolver *Resolver
	immune   bool
}

// Option customizes a new Session.
type Option func(*Session)

// WithID sets the session identifier.
func WithID(id string) Option {
	return func(s *Session) { s.ID = id }
}

// WithRandomSource replaces the time-seeded generator.
func WithRandomSource(rng RandomSource) Option {
	return func(s *Session) { s.rng = rng }
}

// WithImmunityBlocksDamage makes effectiveness 0 deal no damage.
func WithImmunityBlocksDamage(v bool) Option {
	return func(s *Session) { s.immune = v }
}

// NewSession copies both combatants, normalizes them and starts both at full
// health in the selecting state.
func NewSession(player, enemy game.Combatant, opts ...Option) (*Session, error) {
	p, err := prepare(player)
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}
	e, err := prepare(enemy)
	if err != nil {
		return nil, fmt.Errorf("enemy: %w", err)
	}
	s := &Session{
		player:          p,
		enemy:           e,
		playerMaxHealth: p.MaxHealth(),
		enemyMaxHealth:  e.MaxHealth(),
		turn:            1,
		machine:         newMachine(),
	}
	s.playerHealth = s.playerMaxHealth
	s.enemyHealth = s.enemyMaxHealth
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = NewRandomSource()
	}
	s.resolver = NewResolver(s.rng, s.immune)
	return s, nil
}

func prepare(c game.Combatant) (*game.Combatant, error) {
	cp := c
	cp.Types = append([]string(nil), c.Types...)
	cp.Actions = append([]game.Action(nil), c.Actions...)
	if !cp.Normalize() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCombatant, c.Name)
	}
	return &cp, nil
}

// Begin moves the session from selecting to the player's turn.
func (s *Session) Begin() error {
	if err := s.machine.Event(context.Background(), eventBegin); err != nil {
		return fmt.Errorf("%w: cannot begin from %s", ErrOutOfTurn, s.State())
	}
	s.add(
		LogEntry{Turn: s.turn, Message: fmt.Sprintf("A wild %s appeared!", s.enemy.Label()), Category: CategoryInfo},
		LogEntry{Turn: s.turn, Message: fmt.Sprintf("Go! %s!", s.player.Label()), Category: CategoryInfo},
	)
	return nil
}

// State returns the current phase.
func (s *Session) State() State {
	return State(s.machine.Current())
}

// Player returns a copy of the player's combatant.
func (s *Session) Player() game.Combatant { return *s.player }

// Enemy returns a copy of the enemy's combatant.
func (s *Session) Enemy() game.Combatant { return *s.enemy }

// Outcome evaluates the current health counters.
func (s *Session) Outcome() Outcome {
	return Evaluate(s.playerHealth, s.enemyHealth)
}

// Snapshot returns the current counters.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:              s.ID,
		State:           s.State(),
		Turn:            s.turn,
		PlayerHealth:    s.playerHealth,
		PlayerMaxHealth: s.playerMaxHealth,
		EnemyHealth:     s.enemyHealth,
		EnemyMaxHealth:  s.enemyMaxHealth,
	}
}

// Log returns a copy of the battle log in insertion order.
func (s *Session) Log() []LogEntry {
	out := make([]LogEntry, len(s.log))
	copy(out, s.log)
	return out
}

func (s *Session) add(entries ...LogEntry) { s.log = append(s.log, entries...) }

func turnState(side Side) State {
	if side == SideEnemy {
		return StateEnemyTurn
	}
	return StatePlayerTurn
}

// Attack applies one attack by side using the action at actionIndex. It logs
// the attack, effect and damage lines, then checks for a terminal outcome.
// The turn counter advances after the enemy's attack.
func (s *Session) Attack(side Side, actionIndex int) (AttackResult, error) {
	state := s.State()
	if state.Terminal() {
		return AttackResult{}, fmt.Errorf("%w: ended in %s", ErrSessionTerminal, state)
	}
	if state != turnState(side) {
		return AttackResult{}, fmt.Errorf("%w: %s cannot attack during %s", ErrOutOfTurn, side, state)
	}

	attacker, defender := s.player, s.enemy
	defenderHealth := &s.enemyHealth
	if side == SideEnemy {
		attacker, defender = s.enemy, s.player
		defenderHealth = &s.playerHealth
	}
	if actionIndex < 0 || actionIndex >= len(attacker.Actions) {
		return AttackResult{}, fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidActionIndex, actionIndex, len(attacker.Actions))
	}
	action := attacker.Actions[actionIndex]

	res := s.resolver.Resolve(attacker, defender, s.resolver.rollMovePower())
	*defenderHealth -= res.Damage
	if *defenderHealth < 0 {
		*defenderHealth = 0
	}

	turn := s.turn
	entries := []LogEntry{
		{Turn: turn, Message: fmt.Sprintf("%s used %s!", attacker.Label(), action.Name), Category: CategoryAttack},
		{Turn: turn, Message: res.Narrative, Category: CategoryEffect},
		{Turn: turn, Message: fmt.Sprintf("It dealt %d damage to %s!", res.Damage, defender.Label()), Category: CategoryDamage},
	}
	if side == SideEnemy {
		s.turn++
	}

	event := eventPlayerAttacked
	if side == SideEnemy {
		event = eventEnemyAttacked
	}
	outcome := s.Outcome()
	switch outcome {
	case OutcomePlayerWin:
		event = eventDeclareWinner
		entries = append(entries, LogEntry{Turn: turn, Message: fmt.Sprintf("%s won the battle!", s.player.Label()), Category: CategoryOutcome})
	case OutcomeEnemyWin:
		event = eventDeclareLoser
		entries = append(entries, LogEntry{Turn: turn, Message: fmt.Sprintf("%s won the battle!", s.enemy.Label()), Category: CategoryOutcome})
	case OutcomeDraw:
		event = eventDeclareDraw
		entries = append(entries, LogEntry{Turn: turn, Message: "It's a draw!", Category: CategoryOutcome})
	}
	s.add(entries...)
	if err := s.machine.Event(context.Background(), event); err != nil {
		return AttackResult{}, fmt.Errorf("transition %s from %s: %w", event, state, err)
	}

	return AttackResult{
		Side:       side,
		Action:     action,
		Resolution: res,
		Entries:    entries,
		Outcome:    outcome,
	}, nil
}

// EnemyActionIndex picks the enemy's move uniformly among its first four.
func (s *Session) EnemyActionIndex() int {
	n := len(s.enemy.Actions)
	if n > game.MaxActions {
		n = game.MaxActions
	}
	i := int(s.rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Round plays the player's attack and, while the battle is still live, the
// enemy's reply.
func (s *Session) Round(actionIndex int) (RoundResult, error) {
	turn := s.turn
	pr, err := s.Attack(SidePlayer, actionIndex)
	if err != nil {
		return RoundResult{}, err
	}
	rr := RoundResult{Turn: turn, Player: pr, Outcome: pr.Outcome}
	if pr.Outcome == OutcomeNone {
		er, err := s.Attack(SideEnemy, s.EnemyActionIndex())
		if err != nil {
			return RoundResult{}, err
		}
		rr.Enemy = &er
		rr.Outcome = er.Outcome
	}
	rr.State = s.State()
	return rr, nil
}

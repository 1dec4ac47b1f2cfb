package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ericogr/pokearena/internal/config"
	"github.com/ericogr/pokearena/internal/constants"
	"github.com/ericogr/pokearena/internal/engine"
	"github.com/ericogr/pokearena/internal/game"
	"github.com/ericogr/pokearena/internal/keys"
	"github.com/ericogr/pokearena/internal/logging"
	"github.com/ericogr/pokearena/internal/telemetry"
)

var (
	ErrBattleNotFound     = errors.New("battle not found")
	ErrInvalidTrainerName = errors.New("trainer name must have 1 to 30 characters")
	ErrOutcomeReport      = errors.New("outcome report failed")
)

const defaultReportTimeout = 10 * time.Second

// CombatantSource provides combatants by id or at random.
type CombatantSource interface {
	FetchCombatant(ctx context.Context, id string) (*game.Combatant, error)
	FetchRandomCombatant(ctx context.Context) (*game.Combatant, error)
}

// OutcomeReport is what gets recorded once a battle reaches a terminal state.
type OutcomeReport struct {
	BattleID            string
	ParticipantIdentity string
	PlayerCombatant     string
	EnemyCombatant      string
	Result              game.Result
	ScoreDelta          int
	Turns               int
}

// OutcomeReporter records finished battles. Failures never affect the battle.
type OutcomeReporter interface {
	ReportOutcome(ctx context.Context, report OutcomeReport) error
}

type Options struct {
	Scoring              config.Scoring
	ImmunityBlocksDamage bool
	// ReportTimeout bounds each background outcome report.
	ReportTimeout time.Duration
	// NewRandom returns the random source of a new session.
	NewRandom func() engine.RandomSource
	NewID     func() string
}

// BattleView is the client-facing state of a battle.
type BattleView struct {
	ID         string            `json:"id"`
	Trainer    string            `json:"trainer"`
	Player     game.Combatant    `json:"player"`
	Enemy      game.Combatant    `json:"enemy"`
	Snapshot   engine.Snapshot   `json:"snapshot"`
	Log        []engine.LogEntry `json:"log"`
	Outcome    engine.Outcome    `json:"outcome,omitempty"`
	Result     game.Result       `json:"result,omitempty"`
	ScoreDelta int               `json:"score_delta,omitempty"`
}

// RoundView pairs a played round with the battle state after it.
type RoundView struct {
	Round  engine.RoundResult `json:"round"`
	Battle *BattleView        `json:"battle"`
}

type battleEntry struct {
	mu          sync.Mutex
	session     *engine.Session
	trainer     string
	lastTouched time.Time
	reported    bool
}

// BattleService keeps live sessions in memory and drives their rounds. Each
// session is guarded by its own mutex; different sessions run in parallel.
type BattleService struct {
	source   CombatantSource
	reporter OutcomeReporter
	opts     Options
	tracer   trace.Tracer

	mu      sync.RWMutex
	battles map[string]*battleEntry

	reports sync.WaitGroup
	now     func() time.Time
}

func NewBattleService(source CombatantSource, reporter OutcomeReporter, opts Options) *BattleService {
	if opts.ReportTimeout <= 0 {
		opts.ReportTimeout = defaultReportTimeout
	}
	if opts.NewRandom == nil {
		opts.NewRandom = engine.NewRandomSource
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &BattleService{
		source:   source,
		reporter: reporter,
		opts:     opts,
		tracer:   telemetry.Tracer("service"),
		battles:  make(map[string]*battleEntry),
		now:      time.Now,
	}
}

// StartBattle fetches both combatants, opens a session and begins it. An
// empty enemyID picks a random enemy.
func (s *BattleService) StartBattle(ctx context.Context, trainerName, combatantID, enemyID string) (*BattleView, error) {
	name := keys.TrainerName(trainerName)
	if !keys.ValidTrainerName(name) {
		return nil, ErrInvalidTrainerName
	}

	ctx, span := s.tracer.Start(ctx, "battle.start", trace.WithAttributes(
		attribute.String(constants.LogFieldTrainer, name),
		attribute.String(constants.LogFieldCombatantID, combatantID),
	))
	defer span.End()

	var player, enemy *game.Combatant
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		player, err = s.source.FetchCombatant(gctx, combatantID)
		return err
	})
	g.Go(func() error {
		var err error
		if enemyID == "" {
			enemy, err = s.source.FetchRandomCombatant(gctx)
		} else {
			enemy, err = s.source.FetchCombatant(gctx, enemyID)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	id := s.opts.NewID()
	sess, err := engine.NewSession(*player, *enemy,
		engine.WithID(id),
		engine.WithRandomSource(s.opts.NewRandom()),
		engine.WithImmunityBlocksDamage(s.opts.ImmunityBlocksDamage),
	)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := sess.Begin(); err != nil {
		return nil, err
	}

	entry := &battleEntry{session: sess, trainer: name, lastTouched: s.now()}
	s.mu.Lock()
	s.battles[id] = entry
	s.mu.Unlock()

	span.SetAttributes(attribute.String(constants.LogFieldBattleID, id))
	logging.Info("battle started", logging.WithTrace(ctx, logging.Fields{
		constants.LogFieldBattleID: id,
		constants.LogFieldTrainer:  name,
		"player":                   player.Name,
		"enemy":                    enemy.Name,
	}))

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return s.view(id, entry), nil
}

// PlayRound plays one round of the battle with the player's action. When the
// round ends the battle, the outcome is reported in the background.
func (s *BattleService) PlayRound(ctx context.Context, battleID string, actionIndex int) (*RoundView, error) {
	entry, err := s.lookup(battleID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "battle.round", trace.WithAttributes(
		attribute.String(constants.LogFieldBattleID, battleID),
		attribute.Int(constants.LogFieldTurn, entry.session.Snapshot().Turn),
	))
	defer span.End()

	rr, err := entry.session.Round(actionIndex)
	entry.lastTouched = s.now()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if rr.Outcome != engine.OutcomeNone {
		span.SetAttributes(attribute.String(constants.LogFieldResult, string(rr.Outcome)))
		if !entry.reported {
			entry.reported = true
			s.report(ctx, s.outcomeReport(battleID, entry))
		}
	}
	return &RoundView{Round: rr, Battle: s.view(battleID, entry)}, nil
}

// GetBattle returns the current state of a battle.
func (s *BattleService) GetBattle(battleID string) (*BattleView, error) {
	entry, err := s.lookup(battleID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return s.view(battleID, entry), nil
}

// Active returns the number of sessions held in memory.
func (s *BattleService) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.battles)
}

// Wait blocks until background outcome reports have finished.
func (s *BattleService) Wait() {
	s.reports.Wait()
}

func (s *BattleService) lookup(battleID string) (*battleEntry, error) {
	s.mu.RLock()
	entry, ok := s.battles[battleID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBattleNotFound, battleID)
	}
	return entry, nil
}

func (s *BattleService) scoreDelta(r game.Result) int {
	switch r {
	case game.ResultWin:
		return s.opts.Scoring.Win
	case game.ResultDraw:
		return s.opts.Scoring.Draw
	case game.ResultLose:
		return s.opts.Scoring.Lose
	}
	return 0
}

// view builds a BattleView. Callers hold entry.mu.
func (s *BattleService) view(id string, entry *battleEntry) *BattleView {
	sess := entry.session
	v := &BattleView{
		ID:       id,
		Trainer:  entry.trainer,
		Player:   sess.Player(),
		Enemy:    sess.Enemy(),
		Snapshot: sess.Snapshot(),
		Log:      sess.Log(),
	}
	if v.Snapshot.State.Terminal() {
		v.Outcome = sess.Outcome()
		v.Result = v.Outcome.Result()
		v.ScoreDelta = s.scoreDelta(v.Result)
	}
	return v
}

func (s *BattleService) outcomeReport(id string, entry *battleEntry) OutcomeReport {
	sess := entry.session
	res := sess.Outcome().Result()
	// The counter has already advanced when the enemy lands the last hit.
	turns := sess.Snapshot().Turn
	if log := sess.Log(); len(log) > 0 {
		turns = log[len(log)-1].Turn
	}
	return OutcomeReport{
		BattleID:            id,
		ParticipantIdentity: entry.trainer,
		PlayerCombatant:     sess.Player().Name,
		EnemyCombatant:      sess.Enemy().Name,
		Result:              res,
		ScoreDelta:          s.scoreDelta(res),
		Turns:               turns,
	}
}

// report hands the outcome to the reporter without blocking the caller. The
// report keeps the caller's trace but not its cancellation.
func (s *BattleService) report(parent context.Context, rep OutcomeReport) {
	if s.reporter == nil {
		return
	}
	link := trace.LinkFromContext(parent)
	s.reports.Add(1)
	go func() {
		defer s.reports.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.ReportTimeout)
		defer cancel()
		ctx, span := s.tracer.Start(ctx, "outcome.report", trace.WithLinks(link), trace.WithAttributes(
			attribute.String(constants.LogFieldBattleID, rep.BattleID),
			attribute.String(constants.LogFieldResult, string(rep.Result)),
		))
		defer span.End()

		fields := logging.WithTrace(ctx, logging.Fields{
			constants.LogFieldBattleID:   rep.BattleID,
			constants.LogFieldTrainer:    rep.ParticipantIdentity,
			constants.LogFieldResult:     rep.Result,
			constants.LogFieldScoreDelta: rep.ScoreDelta,
		})
		if err := s.reporter.ReportOutcome(ctx, rep); err != nil {
			if !errors.Is(err, ErrOutcomeReport) {
				err = fmt.Errorf("%w: %v", ErrOutcomeReport, err)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logging.Error("failed to report battle outcome", err, fields)
			return
		}
		logging.Info("battle outcome reported", fields)
	}()
}

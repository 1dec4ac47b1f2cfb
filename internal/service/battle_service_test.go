package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ericogr/pokearena/internal/config"
	"github.com/ericogr/pokearena/internal/engine"
	"github.com/ericogr/pokearena/internal/game"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

var errSourceDown = errors.New("source down")

type fakeSource struct {
	mu          sync.Mutex
	byID        map[string]game.Combatant
	random      game.Combatant
	randomCalls int
	fail        bool
}

func (f *fakeSource) FetchCombatant(ctx context.Context, id string) (*game.Combatant, error) {
	if f.fail {
		return nil, errSourceDown
	}
	c, ok := f.byID[id]
	if !ok {
		return nil, errSourceDown
	}
	return &c, nil
}

func (f *fakeSource) FetchRandomCombatant(ctx context.Context) (*game.Combatant, error) {
	f.mu.Lock()
	f.randomCalls++
	f.mu.Unlock()
	c := f.random
	return &c, nil
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []OutcomeReport
	err     error
}

func (f *fakeReporter) ReportOutcome(ctx context.Context, rep OutcomeReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, rep)
	return f.err
}

func combatant(id, name string, hp int, types ...string) game.Combatant {
	return game.Combatant{
		ID:        id,
		Name:      name,
		Types:     types,
		BaseStats: map[string]int{game.StatHP: hp},
		Actions:   []game.Action{{Name: "Tackle"}},
	}
}

func newTestService(src CombatantSource, rep OutcomeReporter) *BattleService {
	n := 0
	return NewBattleService(src, rep, Options{
		Scoring:   config.Scoring{Win: 100, Draw: 50, Lose: -50},
		NewRandom: func() engine.RandomSource { return fixedSource(0.5) },
		NewID: func() string {
			n++
			return "battle-" + strconv.Itoa(n)
		},
	})
}

func defaultSource() *fakeSource {
	return &fakeSource{
		byID: map[string]game.Combatant{
			"4":   combatant("4", "charmander", 39, "fire"),
			"10":  combatant("10", "caterpie", 5, "bug", "grass"),
			"143": combatant("143", "snorlax", 160, "normal"),
			"129": combatant("129", "magikarp", 1, "water"),
		},
		random: combatant("113", "chansey", 250, "normal"),
	}
}

func TestStartBattle_InvalidTrainer(t *testing.T) {
	svc := newTestService(defaultSource(), nil)
	for _, name := range []string{"", "   ", "abcdefghijklmnopqrstuvwxyz12345"} {
		if _, err := svc.StartBattle(context.Background(), name, "4", "10"); !errors.Is(err, ErrInvalidTrainerName) {
			t.Fatalf("name %q: expected ErrInvalidTrainerName, got %v", name, err)
		}
	}
}

func TestStartBattle_SourceFailure(t *testing.T) {
	src := defaultSource()
	src.fail = true
	svc := newTestService(src, nil)
	if _, err := svc.StartBattle(context.Background(), "Ash", "4", "10"); !errors.Is(err, errSourceDown) {
		t.Fatalf("expected source error, got %v", err)
	}
	if svc.Active() != 0 {
		t.Fatalf("failed start must not register a battle")
	}
}

func TestStartBattle_RandomEnemy(t *testing.T) {
	src := defaultSource()
	svc := newTestService(src, nil)
	v, err := svc.StartBattle(context.Background(), "  Ash   Ketchum ", "4", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if src.randomCalls != 1 || v.Enemy.Name != "chansey" {
		t.Fatalf("expected a random enemy, got %+v", v.Enemy)
	}
	if v.ID != "battle-1" || v.Trainer != "Ash Ketchum" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if v.Snapshot.State != engine.StatePlayerTurn || len(v.Log) != 2 {
		t.Fatalf("battle should be begun: %+v", v.Snapshot)
	}
}

func TestPlayRound_WinReportsOnce(t *testing.T) {
	rep := &fakeReporter{}
	svc := newTestService(defaultSource(), rep)
	v, err := svc.StartBattle(context.Background(), "Ash", "4", "10")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	rv, err := svc.PlayRound(context.Background(), v.ID, 0)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if rv.Round.Outcome != engine.OutcomePlayerWin || rv.Battle.Result != game.ResultWin || rv.Battle.ScoreDelta != 100 {
		t.Fatalf("expected a win worth 100, got %+v", rv.Battle)
	}
	if _, err := svc.PlayRound(context.Background(), v.ID, 0); !errors.Is(err, engine.ErrSessionTerminal) {
		t.Fatalf("expected ErrSessionTerminal, got %v", err)
	}
	svc.Wait()

	if len(rep.reports) != 1 {
		t.Fatalf("expected exactly one report, got %d", len(rep.reports))
	}
	got := rep.reports[0]
	if got.BattleID != v.ID || got.ParticipantIdentity != "Ash" || got.Result != game.ResultWin ||
		got.ScoreDelta != 100 || got.PlayerCombatant != "charmander" || got.EnemyCombatant != "caterpie" {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestPlayRound_Loss(t *testing.T) {
	rep := &fakeReporter{}
	svc := newTestService(defaultSource(), rep)
	v, _ := svc.StartBattle(context.Background(), "Ash", "129", "143")
	rv, err := svc.PlayRound(context.Background(), v.ID, 0)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if rv.Round.Enemy == nil || rv.Battle.Outcome != engine.OutcomeEnemyWin || rv.Battle.ScoreDelta != -50 {
		t.Fatalf("expected a loss worth -50, got %+v", rv.Battle)
	}
	svc.Wait()
	if len(rep.reports) != 1 || rep.reports[0].Result != game.ResultLose || rep.reports[0].Turns != 1 {
		t.Fatalf("unexpected reports: %+v", rep.reports)
	}
}

func TestPlayRound_ReportFailureKeepsResult(t *testing.T) {
	rep := &fakeReporter{err: errors.New("db locked")}
	svc := newTestService(defaultSource(), rep)
	v, _ := svc.StartBattle(context.Background(), "Ash", "4", "10")
	rv, err := svc.PlayRound(context.Background(), v.ID, 0)
	if err != nil {
		t.Fatalf("report failure must not surface: %v", err)
	}
	svc.Wait()
	after, err := svc.GetBattle(v.ID)
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if rv.Battle.Outcome != engine.OutcomePlayerWin || after.Outcome != engine.OutcomePlayerWin {
		t.Fatalf("outcome changed after failed report: %+v", after)
	}
}

func TestPlayRound_Errors(t *testing.T) {
	svc := newTestService(defaultSource(), nil)
	if _, err := svc.PlayRound(context.Background(), "missing", 0); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("expected ErrBattleNotFound, got %v", err)
	}
	if _, err := svc.GetBattle("missing"); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("expected ErrBattleNotFound, got %v", err)
	}
	v, _ := svc.StartBattle(context.Background(), "Ash", "143", "")
	if _, err := svc.PlayRound(context.Background(), v.ID, 7); !errors.Is(err, engine.ErrInvalidActionIndex) {
		t.Fatalf("expected ErrInvalidActionIndex, got %v", err)
	}
}

func TestPlayRound_ConcurrentSameBattle(t *testing.T) {
	svc := newTestService(defaultSource(), nil)
	v, _ := svc.StartBattle(context.Background(), "Ash", "143", "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.PlayRound(context.Background(), v.ID, 0); err != nil {
				t.Errorf("round: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := svc.GetBattle(v.ID)
	if got.Snapshot.Turn != 9 {
		t.Fatalf("expected 8 serialized rounds, turn is %d", got.Snapshot.Turn)
	}
	if got.Snapshot.PlayerHealth != 320-8*27 {
		t.Fatalf("unexpected player health %d", got.Snapshot.PlayerHealth)
	}
}

func TestSweepIdle(t *testing.T) {
	svc := newTestService(defaultSource(), nil)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	old, _ := svc.StartBattle(context.Background(), "Ash", "143", "")
	clock = clock.Add(20 * time.Minute)
	fresh, _ := svc.StartBattle(context.Background(), "Misty", "143", "")
	clock = clock.Add(15 * time.Minute)

	if n := svc.SweepIdle(30 * time.Minute); n != 1 {
		t.Fatalf("expected one sweep, got %d", n)
	}
	if _, err := svc.GetBattle(old.ID); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("old battle should be gone")
	}
	if _, err := svc.GetBattle(fresh.ID); err != nil {
		t.Fatalf("fresh battle should survive: %v", err)
	}
}

type fakeRecorder struct {
	got *game.MatchRecord
	err error
}

func (f *fakeRecorder) RecordOutcome(rec *game.MatchRecord) (*game.TrainerProfile, error) {
	f.got = rec
	if f.err != nil {
		return nil, f.err
	}
	return &game.TrainerProfile{Name: rec.TrainerName}, nil
}

func TestStorageReporter(t *testing.T) {
	rec := &fakeRecorder{}
	r := NewStorageReporter(rec)
	rep := OutcomeReport{BattleID: "b1", ParticipantIdentity: "Ash", Result: game.ResultDraw, ScoreDelta: 50, Turns: 4}
	if err := r.ReportOutcome(context.Background(), rep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.got.BattleID != "b1" || rec.got.Result != game.ResultDraw || rec.got.ScoreDelta != 50 || rec.got.Turns != 4 {
		t.Fatalf("unexpected record: %+v", rec.got)
	}

	rec.err = errors.New("disk full")
	if err := r.ReportOutcome(context.Background(), rep); !errors.Is(err, ErrOutcomeReport) {
		t.Fatalf("expected ErrOutcomeReport, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.ReportOutcome(ctx, rep); !errors.Is(err, ErrOutcomeReport) {
		t.Fatalf("expected ErrOutcomeReport on cancelled context, got %v", err)
	}
}

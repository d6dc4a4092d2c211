package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
	"dompet/internal/storage"
)

var fixedNow = time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)

type testLedger struct {
	*Ledger
	store     *storage.MemoryStore
	persisted *storage.Repository
}

func newTestLedger(t *testing.T, opts ...Option) *testLedger {
	t.Helper()
	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := storage.NewRepository(store, logger)

	seq := 0
	base := []Option{
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(logger),
	}
	l := NewLedger(repo, append(base, opts...)...)
	if err := l.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return &testLedger{Ledger: l, store: store, persisted: repo}
}

func money(v int64) core.Money { return core.NewMoney(v) }

func ptr[T any](v T) *T { return &v }

func mustState(t *testing.T, l *Ledger) core.AppState {
	t.Helper()
	s, err := l.State()
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	return s
}

// assertReconciled checks that stored totals and budget spend match a fresh
// computation over the transactions.
func assertReconciled(t *testing.T, s core.AppState) {
	t.Helper()
	totals := core.CalculateTotals(s.Transactions)
	if !s.TotalIncome.Equal(totals.TotalIncome) || !s.TotalExpense.Equal(totals.TotalExpense) || !s.Balance.Equal(totals.Balance) {
		t.Errorf("totals out of sync: got %s/%s/%s want %s/%s/%s",
			s.TotalIncome, s.TotalExpense, s.Balance, totals.TotalIncome, totals.TotalExpense, totals.Balance)
	}
	for _, b := range s.Budgets {
		if want := core.CategorySpent(s.Transactions, b.Category); !b.Spent.Equal(want) {
			t.Errorf("budget %s spent = %s, want %s", b.ID, b.Spent, want)
		}
	}
}

func TestLedger_NotReady(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(storage.NewRepository(storage.NewMemoryStore(), nil))

	if _, err := l.State(); !errors.Is(err, ErrNotReady) {
		t.Errorf("State() before Init error = %v, want ErrNotReady", err)
	}
	if _, err := l.AddTransaction(ctx, TransactionInput{Amount: money(1), Type: core.Expense, Category: "x"}); !errors.Is(err, ErrNotReady) {
		t.Errorf("AddTransaction() before Init error = %v, want ErrNotReady", err)
	}
	if _, err := l.DeleteBudget(ctx, "x"); !errors.Is(err, ErrNotReady) {
		t.Errorf("DeleteBudget() before Init error = %v, want ErrNotReady", err)
	}

	if err := l.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !l.Ready() {
		t.Fatal("ledger should be ready after Init")
	}
	l.Dispose(ctx)
	if err := l.RefreshData(ctx); !errors.Is(err, ErrNotReady) {
		t.Errorf("RefreshData() after Dispose error = %v, want ErrNotReady", err)
	}
}

func TestLedger_InitPropagatesBackendError(t *testing.T) {
	store := storage.NewMemoryStore()
	store.LoadErr = errors.New("io error")
	l := NewLedger(storage.NewRepository(store, slog.New(slog.NewTextHandler(io.Discard, nil))))

	if err := l.Init(context.Background()); err == nil {
		t.Fatal("Init() expected error")
	}
	if l.Ready() {
		t.Error("ledger should stay uninitialized after a failed Init")
	}
}

func TestLedger_MakananScenario(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	if _, err := l.AddTransaction(ctx, TransactionInput{Amount: money(100000), Type: core.Expense, Category: "Makanan", Date: core.NewDate(2025, 3, 1)}); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	s := mustState(t, l.Ledger)
	if !s.TotalExpense.Equal(money(100000)) || !s.Balance.Equal(money(-100000)) {
		t.Fatalf("after first expense: totalExpense=%s balance=%s", s.TotalExpense, s.Balance)
	}

	b, err := l.AddBudget(ctx, BudgetInput{Category: "Makanan", Limit: money(200000), Period: core.Monthly})
	if err != nil {
		t.Fatalf("AddBudget() error = %v", err)
	}
	if !b.Spent.Equal(money(100000)) {
		t.Errorf("new budget spent = %s, want 100000", b.Spent)
	}
	if !b.CreatedAt.Equal(fixedNow) {
		t.Errorf("new budget createdAt = %v, want %v", b.CreatedAt, fixedNow)
	}

	if _, err := l.AddTransaction(ctx, TransactionInput{Amount: money(80000), Type: core.Expense, Category: "Makanan", Date: core.NewDate(2025, 3, 2)}); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	s = mustState(t, l.Ledger)
	if !s.Budgets[0].Spent.Equal(money(180000)) {
		t.Errorf("budget spent = %s, want 180000", s.Budgets[0].Spent)
	}
	if got := core.BudgetUtilization(s.Budgets[0]).IntPart(); got != 90 {
		t.Errorf("utilization = %d, want 90", got)
	}
	if !s.Transactions[0].Amount.Equal(money(80000)) {
		t.Errorf("newest transaction should be first, got %+v", s.Transactions[0])
	}
	assertReconciled(t, s)
}

func TestLedger_AddTransactionValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		input TransactionInput
		want  error
	}{
		{"zero amount", TransactionInput{Type: core.Expense, Category: "x"}, core.ErrInvalidAmount},
		{"negative amount", TransactionInput{Amount: money(-5), Type: core.Expense, Category: "x"}, core.ErrInvalidAmount},
		{"amount above cap", TransactionInput{Amount: core.MoneyFromDecimal(decimal.New(1, 15)), Type: core.Expense, Category: "x"}, core.ErrInvalidAmount},
		{"bad type", TransactionInput{Amount: money(5), Type: "gift", Category: "x"}, core.ErrInvalidType},
		{"empty category", TransactionInput{Amount: money(5), Type: core.Income, Category: "  "}, core.ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)
			if _, err := l.AddTransaction(ctx, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("AddTransaction() error = %v, want %v", err, tt.want)
			}
			if l.store.Saves != 0 {
				t.Errorf("invalid input should not be persisted")
			}
		})
	}
}

func TestLedger_AddTransactionDefaultsDate(t *testing.T) {
	l := newTestLedger(t)
	tx, err := l.AddTransaction(context.Background(), TransactionInput{Amount: money(1), Type: core.Income, Category: "Gaji"})
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if !tx.Date.SameDay(core.DateOf(fixedNow)) {
		t.Errorf("date = %s, want today", tx.Date)
	}
	if tx.ID != "id-1" || tx.CreatedAt == nil {
		t.Errorf("unexpected transaction %+v", tx)
	}
}

func TestLedger_EditTransaction(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	tx, _ := l.AddTransaction(ctx, TransactionInput{Amount: money(50000), Type: core.Expense, Category: "Makanan"})
	if _, err := l.AddBudget(ctx, BudgetInput{Category: "Transport", Limit: money(100000)}); err != nil {
		t.Fatalf("AddBudget() error = %v", err)
	}

	updated, ok, err := l.EditTransaction(ctx, tx.ID, TransactionPatch{Category: ptr("Transport"), Amount: ptr(money(70000))})
	if err != nil || !ok {
		t.Fatalf("EditTransaction() = %v, %v", ok, err)
	}
	if updated.Category != "Transport" || !updated.Amount.Equal(money(70000)) || updated.Type != core.Expense {
		t.Errorf("unexpected merge result %+v", updated)
	}
	s := mustState(t, l.Ledger)
	if !s.Budgets[0].Spent.Equal(money(70000)) {
		t.Errorf("budget spent = %s, want 70000", s.Budgets[0].Spent)
	}
	assertReconciled(t, s)

	_, ok, err = l.EditTransaction(ctx, "missing", TransactionPatch{Category: ptr("x")})
	if err != nil || ok {
		t.Errorf("EditTransaction() on unknown id = %v, %v, want false, nil", ok, err)
	}

	_, _, err = l.EditTransaction(ctx, tx.ID, TransactionPatch{Amount: ptr(money(0))})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("EditTransaction() invalid patch error = %v", err)
	}
	if got := mustState(t, l.Ledger).Transactions[0].Amount; !got.Equal(money(70000)) {
		t.Errorf("invalid patch changed state: %s", got)
	}
}

func TestLedger_TolerantDelete(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	tx, _ := l.AddTransaction(ctx, TransactionInput{Amount: money(10), Type: core.Expense, Category: "a"})
	before := mustState(t, l.Ledger)
	saves := l.store.Saves

	for _, del := range []func() (bool, error){
		func() (bool, error) { return l.DeleteTransaction(ctx, "nope") },
		func() (bool, error) { return l.DeleteBudget(ctx, "nope") },
		func() (bool, error) { return l.DeleteSavings(ctx, "nope") },
	} {
		ok, err := del()
		if err != nil || ok {
			t.Errorf("delete of unknown id = %v, %v, want false, nil", ok, err)
		}
	}
	if l.store.Saves != saves {
		t.Errorf("no-op deletes should not write")
	}
	after := mustState(t, l.Ledger)
	if len(after.Transactions) != len(before.Transactions) {
		t.Errorf("state changed by no-op delete")
	}

	ok, err := l.DeleteTransaction(ctx, tx.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteTransaction() = %v, %v", ok, err)
	}
	s := mustState(t, l.Ledger)
	if len(s.Transactions) != 0 || !s.TotalExpense.IsZero() {
		t.Errorf("delete did not reconcile: %+v", s)
	}
}

func TestLedger_BudgetLifecycle(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	l.AddTransaction(ctx, TransactionInput{Amount: money(30), Type: core.Expense, Category: "Makanan"})
	l.AddTransaction(ctx, TransactionInput{Amount: money(20), Type: core.Expense, Category: "Hiburan"})
	l.AddTransaction(ctx, TransactionInput{Amount: money(99), Type: core.Income, Category: "Makanan"})

	b, err := l.AddBudget(ctx, BudgetInput{Category: "Makanan", Limit: money(100)})
	if err != nil {
		t.Fatalf("AddBudget() error = %v", err)
	}
	if b.Period != core.Monthly {
		t.Errorf("default period = %s, want monthly", b.Period)
	}
	if !b.Spent.Equal(money(30)) {
		t.Errorf("income must not count toward spent, got %s", b.Spent)
	}

	edited, ok, err := l.EditBudget(ctx, b.ID, BudgetPatch{Category: ptr("Hiburan"), Period: ptr(core.Weekly)})
	if err != nil || !ok {
		t.Fatalf("EditBudget() = %v, %v", ok, err)
	}
	if !edited.Spent.Equal(money(20)) || edited.Period != core.Weekly {
		t.Errorf("edited budget = %+v", edited)
	}

	if _, _, err := l.EditBudget(ctx, b.ID, BudgetPatch{Period: ptr(core.Period("yearly"))}); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("EditBudget() invalid period error = %v", err)
	}
	if _, err := l.AddBudget(ctx, BudgetInput{Category: "x", Limit: money(0)}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("AddBudget() zero limit error = %v", err)
	}

	ok, err = l.DeleteBudget(ctx, b.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteBudget() = %v, %v", ok, err)
	}
	s := mustState(t, l.Ledger)
	if len(s.Budgets) != 0 || len(s.Transactions) != 3 {
		t.Errorf("delete budget must not cascade: %+v", s)
	}
}

func TestLedger_SavingsClamp(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	g, err := l.AddSavings(ctx, SavingsInput{Name: "Laptop", Target: money(1000000)})
	if err != nil {
		t.Fatalf("AddSavings() error = %v", err)
	}

	updated, ok, err := l.UpdateSavings(ctx, g.ID, money(1200000))
	if err != nil || !ok {
		t.Fatalf("UpdateSavings() = %v, %v", ok, err)
	}
	if !updated.Current.Equal(money(1000000)) {
		t.Errorf("current = %s, want 1000000", updated.Current)
	}

	s := mustState(t, l.Ledger)
	if len(s.SavingsTransactions) != 1 || !s.SavingsTransactions[0].Amount.Equal(money(1000000)) {
		t.Errorf("ledger entry should record the applied delta: %+v", s.SavingsTransactions)
	}

	saves := l.store.Saves
	if _, ok, err := l.UpdateSavings(ctx, g.ID, money(5)); err != nil || !ok {
		t.Fatalf("UpdateSavings() at target = %v, %v", ok, err)
	}
	if l.store.Saves != saves {
		t.Errorf("a deposit that changes nothing should not write")
	}

	updated, _, _ = l.UpdateSavings(ctx, g.ID, money(-2000000))
	if !updated.Current.IsZero() {
		t.Errorf("current = %s, want 0 after oversized withdrawal", updated.Current)
	}
	s = mustState(t, l.Ledger)
	last := s.SavingsTransactions[len(s.SavingsTransactions)-1]
	if last.Type != core.Withdrawal || !last.Amount.Equal(money(-1000000)) {
		t.Errorf("withdrawal entry = %+v", last)
	}

	if _, _, err := l.UpdateSavings(ctx, g.ID, core.Money{}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("UpdateSavings() zero amount error = %v", err)
	}
	if _, ok, err := l.UpdateSavings(ctx, "missing", money(1)); ok || err != nil {
		t.Errorf("UpdateSavings() unknown id = %v, %v", ok, err)
	}
}

func TestLedger_AddSavingsClampsInitialCurrent(t *testing.T) {
	l := newTestLedger(t)
	g, err := l.AddSavings(context.Background(), SavingsInput{Name: "Motor", Target: money(100), Current: money(150)})
	if err != nil {
		t.Fatalf("AddSavings() error = %v", err)
	}
	if !g.Current.Equal(money(100)) {
		t.Errorf("current = %s, want 100", g.Current)
	}
}

func TestLedger_EditSavings(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	deadline := core.NewDate(2025, 6, 1)
	g, _ := l.AddSavings(ctx, SavingsInput{Name: "Rumah", Target: money(1000), Current: money(800), Deadline: &deadline})
	if _, err := l.MarkMilestoneNotified(ctx, g.ID, 75); err != nil {
		t.Fatalf("MarkMilestoneNotified() error = %v", err)
	}

	updated, ok, err := l.EditSavings(ctx, g.ID, SavingsPatch{Target: ptr(money(500))})
	if err != nil || !ok {
		t.Fatalf("EditSavings() = %v, %v", ok, err)
	}
	if !updated.Current.Equal(money(500)) {
		t.Errorf("current should be clamped to new target, got %s", updated.Current)
	}

	updated, _, _ = l.EditSavings(ctx, g.ID, SavingsPatch{Target: ptr(money(5000))})
	if updated.LastNotifiedMilestone != 0 {
		t.Errorf("milestone should drop with progress, got %d", updated.LastNotifiedMilestone)
	}

	updated, _, _ = l.EditSavings(ctx, g.ID, SavingsPatch{ClearDeadline: true, Name: ptr("Rumah Baru")})
	if updated.Deadline != nil || updated.Name != "Rumah Baru" {
		t.Errorf("edit result = %+v", updated)
	}

	if _, _, err := l.EditSavings(ctx, g.ID, SavingsPatch{Name: ptr("")}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("EditSavings() empty name error = %v", err)
	}
}

func TestLedger_DeleteSavingsDropsEntries(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	a, _ := l.AddSavings(ctx, SavingsInput{Name: "A", Target: money(100)})
	b, _ := l.AddSavings(ctx, SavingsInput{Name: "B", Target: money(100)})
	l.UpdateSavings(ctx, a.ID, money(10))
	l.UpdateSavings(ctx, b.ID, money(20))

	if ok, err := l.DeleteSavings(ctx, a.ID); err != nil || !ok {
		t.Fatalf("DeleteSavings() = %v, %v", ok, err)
	}
	s := mustState(t, l.Ledger)
	if len(s.Savings) != 1 || len(s.SavingsTransactions) != 1 || s.SavingsTransactions[0].SavingsID != b.ID {
		t.Errorf("unexpected state after delete: %+v", s)
	}
}

func TestLedger_WithdrawalLowersMilestone(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	g, _ := l.AddSavings(ctx, SavingsInput{Name: "Liburan", Target: money(100), Current: money(60)})
	l.MarkMilestoneNotified(ctx, g.ID, 50)

	updated, _, _ := l.UpdateSavings(ctx, g.ID, money(-30))
	if updated.LastNotifiedMilestone != 25 {
		t.Errorf("milestone = %d, want 25", updated.LastNotifiedMilestone)
	}
}

func TestLedger_MarkMilestoneNotified(t *testing.T) {
	ctx := context.Background()
	calls := 0
	l := newTestLedger(t, WithObserver(func(context.Context, core.AppState) { calls++ }))
	g, _ := l.AddSavings(ctx, SavingsInput{Name: "A", Target: money(100), Current: money(50)})
	calls = 0

	ok, err := l.MarkMilestoneNotified(ctx, g.ID, 50)
	if err != nil || !ok {
		t.Fatalf("MarkMilestoneNotified() = %v, %v", ok, err)
	}
	if got := mustState(t, l.Ledger).Savings[0].LastNotifiedMilestone; got != 50 {
		t.Errorf("milestone = %d, want 50", got)
	}
	if calls != 0 {
		t.Errorf("marking a milestone should not notify observers")
	}
	if _, err := l.MarkMilestoneNotified(ctx, g.ID, 33); !errors.Is(err, ErrInvalidMilestone) {
		t.Errorf("MarkMilestoneNotified() invalid milestone error = %v", err)
	}
	if ok, err := l.MarkMilestoneNotified(ctx, "missing", 25); ok || err != nil {
		t.Errorf("MarkMilestoneNotified() unknown id = %v, %v", ok, err)
	}
}

func TestLedger_SaveFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	l.AddTransaction(ctx, TransactionInput{Amount: money(10), Type: core.Expense, Category: "a"})
	before := mustState(t, l.Ledger)

	boom := errors.New("quota exceeded")
	l.store.SaveErr = boom
	if _, err := l.AddTransaction(ctx, TransactionInput{Amount: money(5), Type: core.Expense, Category: "a"}); !errors.Is(err, boom) {
		t.Fatalf("AddTransaction() error = %v, want wrapped %v", err, boom)
	}
	after := mustState(t, l.Ledger)
	if len(after.Transactions) != len(before.Transactions) || !after.TotalExpense.Equal(before.TotalExpense) {
		t.Errorf("in-memory state changed after failed save")
	}

	l.store.SaveErr = nil
	if err := l.RefreshData(ctx); err != nil {
		t.Fatalf("RefreshData() error = %v", err)
	}
	if got := len(mustState(t, l.Ledger).Transactions); got != 1 {
		t.Errorf("transactions after refresh = %d, want 1", got)
	}
}

func TestLedger_PersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	l.AddTransaction(ctx, TransactionInput{Amount: money(1000), Type: core.Income, Category: "Gaji"})
	l.AddBudget(ctx, BudgetInput{Category: "Makanan", Limit: money(500)})
	l.AddSavings(ctx, SavingsInput{Name: "Dana Darurat", Target: money(100)})

	reloaded, err := l.persisted.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	live := mustState(t, l.Ledger)
	if len(reloaded.Transactions) != 1 || len(reloaded.Budgets) != 1 || len(reloaded.Savings) != 1 {
		t.Errorf("persisted state incomplete: %+v", reloaded)
	}
	if !reloaded.Balance.Equal(live.Balance) {
		t.Errorf("persisted balance %s != live %s", reloaded.Balance, live.Balance)
	}
}

func TestLedger_ClearAllData(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	l.AddTransaction(ctx, TransactionInput{Amount: money(1), Type: core.Income, Category: "x"})

	if err := l.ClearAllData(ctx); err != nil {
		t.Fatalf("ClearAllData() error = %v", err)
	}
	if s := mustState(t, l.Ledger); len(s.Transactions) != 0 || !s.Balance.IsZero() {
		t.Errorf("state not reset: %+v", s)
	}
	if l.store.Raw() != nil {
		t.Errorf("persisted document should be removed")
	}

	l.store.ClearErr = errors.New("locked")
	if err := l.ClearAllData(ctx); err == nil {
		t.Error("ClearAllData() expected error")
	}
}

func TestLedger_ObserversSeeSnapshots(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var seen []int
	l := newTestLedger(t)
	l.Subscribe(func(ctx context.Context, s core.AppState) {
		mu.Lock()
		seen = append(seen, len(s.Transactions))
		mu.Unlock()
		// Observers run outside the lock and may read the ledger.
		if _, err := l.State(); err != nil {
			t.Errorf("State() from observer error = %v", err)
		}
		s.Transactions[0].Category = "mutated"
	})

	l.AddTransaction(ctx, TransactionInput{Amount: money(1), Type: core.Income, Category: "x"})
	l.AddTransaction(ctx, TransactionInput{Amount: money(1), Type: core.Income, Category: "x"})

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("observer saw %v, want [1 2]", seen)
	}
	for _, tx := range mustState(t, l.Ledger).Transactions {
		if tx.Category == "mutated" {
			t.Error("observer mutation leaked into ledger state")
		}
	}
}

func TestLedger_ConcurrentMutationsSerialize(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l := NewLedger(storage.NewRepository(store, slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := l.Init(ctx); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.AddTransaction(ctx, TransactionInput{Amount: money(2), Type: core.Expense, Category: "a"})
		}()
	}
	wg.Wait()

	s := mustState(t, l)
	if len(s.Transactions) != 50 || !s.TotalExpense.Equal(money(100)) {
		t.Errorf("lost updates: %d transactions, expense %s", len(s.Transactions), s.TotalExpense)
	}
	if store.Saves != 50 {
		t.Errorf("saves = %d, want 50", store.Saves)
	}
}

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/englevel/internal/attempt"
	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/config"
	"github.com/abhisek/englevel/internal/questionbank"
	"github.com/abhisek/englevel/internal/screens/assessment"
	"github.com/abhisek/englevel/internal/sessioncache"
	"github.com/abhisek/englevel/internal/simulate"
	"github.com/abhisek/englevel/internal/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "englevel (devel)\n", out)
}

func newTakeService(t *testing.T, maxQuestions int) *attempt.Service {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "take.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	svc, err := attempt.NewService(attempt.Deps{
		Supplier: questionbank.Seed(),
		Sink:     s.AttemptRepo(),
		History:  s.AttemptRepo(),
		Cache:    sessioncache.NewMemory(0),
	}, attempt.Options{MaxQuestions: maxQuestions, Seed: 3})
	require.NoError(t, err)
	return svc
}

func TestReportTake(t *testing.T) {
	m := assessment.New(context.Background(), newTakeService(t, 15), "", nil)
	m.Update(m.Init()())
	m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	m.Update(tea.KeyPressMsg{Code: 'y', Text: "y"})
	require.NotNil(t, m.Result())

	var out bytes.Buffer
	require.NoError(t, reportTake(&out, m))
	assert.Contains(t, out.String(), "Recommended level:")
	assert.Contains(t, out.String(), "Questions:  0")
}

func TestReportTake_Interrupted(t *testing.T) {
	m := assessment.New(context.Background(), newTakeService(t, 15), "", nil)
	m.Update(m.Init()())
	m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})

	var out bytes.Buffer
	require.NoError(t, reportTake(&out, m))
	assert.Equal(t, "Assessment abandoned.\n", out.String())
}

func TestReportTake_StartFailed(t *testing.T) {
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer s.Close()
	svc, err := attempt.NewService(attempt.Deps{
		Supplier: questionbank.NewBank(nil),
		Sink:     s.AttemptRepo(),
		Cache:    sessioncache.NewMemory(0),
	}, attempt.Options{})
	require.NoError(t, err)

	m := assessment.New(context.Background(), svc, "", nil)
	m.Update(m.Init()())

	var out bytes.Buffer
	assert.Error(t, reportTake(&out, m))
	assert.Empty(t, out.String())
}

func TestNewCache_SQL(t *testing.T) {
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Cache.Backend = config.CacheSQL
	cfg.Cache.TTL = time.Hour

	c, closeCache, err := newCache(context.Background(), cfg, s, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &sessioncache.SQL{}, c)

	closed := make(chan struct{})
	go func() {
		closeCache()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("cache close did not stop the pruner")
	}
}

func TestPrintReport(t *testing.T) {
	rep := &simulate.Report{
		TrueLevel:    cefr.B1,
		Runs:         4,
		Distribution: map[cefr.Level]int{cefr.A2: 1, cefr.B1: 3},
		Exact:        3,
		WithinOne:    4,
	}
	var out bytes.Buffer
	printReport(&out, rep)
	assert.Contains(t, out.String(), "* B1      3   75.0%")
	assert.Contains(t, out.String(), "Exact:           75.0%")
}

func TestSimulateCommand_JSON(t *testing.T) {
	out, err := execute(t, "simulate", "--true-level", "b2", "--runs", "5", "--seed", "2", "--json")
	require.NoError(t, err)

	var rep simulate.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, cefr.B2, rep.TrueLevel)
	assert.Equal(t, 5, rep.Runs)
}

func TestSimulateCommand_BadLevel(t *testing.T) {
	_, err := execute(t, "simulate", "--true-level", "D1", "--json=false")
	assert.Error(t, err)
}

func TestBankCommands(t *testing.T) {
	dir := t.TempDir()
	bankPath := filepath.Join(dir, "bank.json")
	dbPath := filepath.Join(dir, "englevel.db")

	_, err := execute(t, "bank", "export", "--out", bankPath)
	require.NoError(t, err)

	out, err := execute(t, "bank", "validate", bankPath)
	require.NoError(t, err)
	assert.Contains(t, out, "39 valid questions")

	out, err = execute(t, "--db", dbPath, "bank", "import", bankPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 39 questions")

	out, err = execute(t, "--db", dbPath, "bank", "import", "--seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 questions (39 skipped")
}

func TestBankValidate_Rejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"questions":[
		{"id":"q1","prompt":"I ___ here.","correctAnswer":"am","level":"A1","grammarCategory":"verbs","grammarTopic":"be"},
		{"id":"q2","prompt":"x","level":"A1","grammarCategory":"verbs","grammarTopic":"be"}
	]}`), 0o644))

	out, err := execute(t, "bank", "validate", path)
	require.Error(t, err)
	assert.Contains(t, out, "1 valid questions")
	assert.Contains(t, out, "rejected")
}

func TestHistoryCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "englevel.db")
	s, err := store.OpenSQLite(dbPath)
	require.NoError(t, err)
	svc, err := attempt.NewService(attempt.Deps{
		Supplier: questionbank.Seed(),
		Sink:     s.AttemptRepo(),
		Cache:    sessioncache.NewMemory(0),
	}, attempt.Options{Seed: 1})
	require.NoError(t, err)
	v, err := svc.Start(context.Background(), "erin")
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), v.SessionID)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, err := execute(t, "--db", dbPath, "history", "erin", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "A1")
	assert.Contains(t, out, "Confidence")

	out, err = execute(t, "--db", dbPath, "history", "nobody", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "No attempts found for nobody.")
}

func TestHelp_BuiltInBankCeiling(t *testing.T) {
	for _, c := range []*cobra.Command{takeCmd, bankExportCmd} {
		out, err := execute(t, append(commandPath(c), "--help")...)
		require.NoError(t, err)
		assert.Contains(t, out, "top out at B2", c.Name())
		require.NoError(t, c.Flags().Set("help", "false"))
	}
}

func commandPath(c *cobra.Command) []string {
	var path []string
	for ; c != nil && c.HasParent(); c = c.Parent() {
		path = append([]string{c.Name()}, path...)
	}
	return path
}

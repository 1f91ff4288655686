package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/ne2keep/internal/database"
	"github.com/mrlokans/ne2keep/internal/database/runs"
	"github.com/mrlokans/ne2keep/internal/entities"
	"github.com/mrlokans/ne2keep/internal/tokenstore"
)

// fakeKeepServer is a minimal Google auth and Keep changes endpoint.
type fakeKeepServer struct {
	mu           sync.Mutex
	passwordOK   bool
	staleToken   string
	masterLogins int
	oauthLogins  int
	labels       []map[string]any
	nodes        []map[string]any
}

func newFakeKeepServer(t *testing.T) (*fakeKeepServer, *httptest.Server) {
	f := &fakeKeepServer{passwordOK: true}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		if r.PostForm.Get("service") == "ac2dm" {
			f.masterLogins++
			if !f.passwordOK {
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, "Error=BadAuthentication\n")
				return
			}
			fmt.Fprint(w, "Token=master-token\n")
			return
		}

		f.oauthLogins++
		if r.PostForm.Get("EncryptedPasswd") == f.staleToken {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, "Error=BadAuthentication\n")
			return
		}
		fmt.Fprint(w, "Auth=api-token\n")
	})

	mux.HandleFunc("/notes/v1/changes", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Nodes    []map[string]any `json:"nodes"`
			UserInfo *struct {
				Labels []map[string]any `json:"labels"`
			} `json:"userInfo"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		if req.UserInfo != nil {
			f.labels = req.UserInfo.Labels
		}
		f.nodes = append(f.nodes, req.Nodes...)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"kind":      "notes#downSync",
			"toVersion": fmt.Sprintf("v%d", len(f.nodes)),
			"userInfo":  map[string]any{"labels": f.labels},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeKeepServer) nodesOfType(typ string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []map[string]any
	for _, n := range f.nodes {
		if n["type"] == typ {
			out = append(out, n)
		}
	}
	return out
}

type stubPrompter struct {
	email         string
	password      string
	passwordCalls int
}

func (p *stubPrompter) Email() (string, error) {
	if p.email == "" {
		return "", ErrNoTerminal
	}
	return p.email, nil
}

func (p *stubPrompter) Password(string) (string, error) {
	p.passwordCalls++
	if p.password == "" {
		return "", ErrNoTerminal
	}
	return p.password, nil
}

type testEnv struct {
	stateDir string
	prompter *stubPrompter
	fake     *fakeKeepServer
}

func newTestEnv(t *testing.T) *testEnv {
	fake, server := newFakeKeepServer(t)
	stateDir := t.TempDir()

	t.Setenv("NE2KEEP_STATE_DIR", stateDir)
	t.Setenv("NE2KEEP_KEEP_AUTH_URL", server.URL+"/auth")
	t.Setenv("NE2KEEP_KEEP_API_URL", server.URL+"/notes/v1/")
	t.Setenv("NE2KEEP_KEEP_EMAIL", "")
	t.Setenv("NE2KEEP_LOG_FILE", "")

	return &testEnv{
		stateDir: stateDir,
		prompter: &stubPrompter{password: "secret"},
		fake:     fake,
	}
}

func (e *testEnv) run(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	a := &app{
		version:  "test",
		out:      &out,
		errOut:   &errOut,
		prompter: e.prompter,
	}

	err := a.execute(context.Background(), args)
	return out.String(), errOut.String(), err
}

func (e *testEnv) runRepository(t *testing.T) *runs.Repository {
	state, err := database.NewDatabase(filepath.Join(e.stateDir, "ne2keep.db"))
	require.NoError(t, err)
	t.Cleanup(func() { state.Close() })
	return runs.NewRepository(state.DB)
}

func (e *testEnv) tokenStore(t *testing.T) *tokenstore.TokenStore {
	store, err := tokenstore.New(tokenstore.Config{
		DatabasePath: filepath.Join(e.stateDir, "ne2keep.db"),
		KeyFilePath:  filepath.Join(e.stateDir, "token.key"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// createSourceDatabase holds a folder, a checklist in it and a note with an
// unsupported priority.
func createSourceDatabase(t *testing.T) string {
	t.Helper()
	return createNamedSourceDatabase(t, "notes.db")
}

func createNamedSourceDatabase(t *testing.T, name string) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), name)
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE Notes (
			_id INTEGER PRIMARY KEY,
			title TEXT,
			type INTEGER,
			body TEXT,
			folder TEXT,
			sticked INTEGER,
			priority INTEGER
		);
		CREATE TABLE ChecklistItems (
			_id INTEGER PRIMARY KEY,
			note_id INTEGER,
			item_text TEXT,
			checked INTEGER,
			sort_order INTEGER
		);
		INSERT INTO Notes VALUES (1, 'Shopping', NULL, NULL, '#Shopping', 1, 2);
		INSERT INTO Notes VALUES (2, 'Milk list', 4, NULL, '#Shopping', 0, 0);
		INSERT INTO Notes VALUES (3, 'Odd', 1, 'Body', '', 1, 99);
		INSERT INTO ChecklistItems (note_id, item_text, checked, sort_order) VALUES (2, 'Eggs', 0, 2);
		INSERT INTO ChecklistItems (note_id, item_text, checked, sort_order) VALUES (2, 'Milk', 1, 1);
	`)
	require.NoError(t, err)

	return dbPath
}

func TestConvert(t *testing.T) {
	env := newTestEnv(t)
	source := createSourceDatabase(t)

	out, _, err := env.run("convert", source, "--email", "user@example.com")
	require.NoError(t, err)

	assert.Contains(t, out, "Connecting to Google Keep...\nConnected\n")
	assert.Contains(t, out, "Processing labels 1/1")
	assert.Contains(t, out, "Adding items 1/2\nAdding items 2/2\n")
	assert.Contains(t, out, "Done")
	assert.Contains(t, out, "Imported 1 notes and 1 checklists, created 1 labels")
	assert.Contains(t, out, "1 notes had an unsupported priority")

	assert.Equal(t, 1, env.prompter.passwordCalls)

	require.Len(t, env.fake.labels, 1)
	assert.Equal(t, "Shopping", env.fake.labels[0]["name"])
	labelID := env.fake.labels[0]["mainId"]

	lists := env.fake.nodesOfType("LIST")
	require.Len(t, lists, 1)
	assert.Equal(t, "Milk list", lists[0]["title"])
	assert.Equal(t, true, lists[0]["isPinned"])
	assert.Equal(t, "DEFAULT", lists[0]["color"])
	labelRefs := lists[0]["labelIds"].([]any)
	require.Len(t, labelRefs, 1)
	assert.Equal(t, labelID, labelRefs[0].(map[string]any)["labelId"])

	notes := env.fake.nodesOfType("NOTE")
	require.Len(t, notes, 1)
	assert.Equal(t, "Odd", notes[0]["title"])
	assert.Equal(t, false, notes[0]["isPinned"])

	// Entries keep checklist order: Milk before Eggs
	var texts []string
	for _, n := range env.fake.nodesOfType("LIST_ITEM") {
		if n["parentId"] == lists[0]["id"] {
			texts = append(texts, n["text"].(string))
		}
	}
	assert.Equal(t, []string{"Milk", "Eggs"}, texts)

	cached, err := env.tokenStore(t).GetToken("user@example.com")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "master-token", cached.MasterToken)

	history, _, err := env.run("history")
	require.NoError(t, err)
	assert.Contains(t, history, "completed")
	assert.Contains(t, history, "items 2/2, labels created 1, rows 3, warnings 1")
}

func TestConvert_ReusesCachedToken(t *testing.T) {
	env := newTestEnv(t)
	source := createSourceDatabase(t)

	_, _, err := env.run("convert", source, "--email", "user@example.com")
	require.NoError(t, err)

	env.prompter.password = ""
	out, _, err := env.run("convert", source, "--email", "user@example.com")
	require.NoError(t, err)

	assert.Contains(t, out, "Done")
	assert.Equal(t, 1, env.prompter.passwordCalls)
	assert.Equal(t, 1, env.fake.masterLogins)

	// The label exists after the first run and is reused
	assert.Contains(t, out, "created 0 labels")
}

func TestConvert_RejectedCachedToken(t *testing.T) {
	env := newTestEnv(t)
	source := createSourceDatabase(t)

	require.NoError(t, env.tokenStore(t).SaveToken(&entities.DecryptedKeepToken{
		Email: "user@example.com", MasterToken: "stale", DeviceID: "0123456789abcdef",
	}))
	env.fake.staleToken = "stale"

	_, _, err := env.run("convert", source, "--email", "user@example.com")
	require.NoError(t, err)

	assert.Equal(t, 1, env.prompter.passwordCalls)
	assert.Equal(t, 1, env.fake.masterLogins)

	cached, err := env.tokenStore(t).GetToken("user@example.com")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "master-token", cached.MasterToken)
}

func TestConvert_AuthenticationFailure(t *testing.T) {
	env := newTestEnv(t)
	env.fake.passwordOK = false
	source := createSourceDatabase(t)

	out, errOut, err := env.run("convert", source, "--email", "user@example.com", "--no-cache")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReported))
	assert.Contains(t, errOut, "Cannot connect to Google Keep")
	assert.NotContains(t, out, "Reading notes")
	assert.Empty(t, env.fake.nodes)

	history, _, err := env.run("history")
	require.NoError(t, err)
	assert.Contains(t, history, "failed")
	assert.Contains(t, history, "BadAuthentication")
}

func TestConvert_FailureClosesLogFile(t *testing.T) {
	env := newTestEnv(t)
	env.fake.passwordOK = false
	logPath := filepath.Join(env.stateDir, "ne2keep.log")
	t.Setenv("NE2KEEP_LOG_FILE", logPath)
	source := createSourceDatabase(t)

	_, _, err := env.run("convert", source, "--email", "user@example.com", "--no-cache")
	require.Error(t, err)

	log.Print("written after the command returned")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Authentication failed for user@example.com")
	assert.NotContains(t, string(data), "written after the command returned")
}

func TestConvert_PasswordFlagSkipsPrompt(t *testing.T) {
	env := newTestEnv(t)
	source := createSourceDatabase(t)

	_, _, err := env.run("convert", source, "--email", "user@example.com", "--password", "secret", "--no-cache")
	require.NoError(t, err)
	assert.Zero(t, env.prompter.passwordCalls)

	cached, err := env.tokenStore(t).GetToken("user@example.com")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestConvert_PromptsForEmail(t *testing.T) {
	env := newTestEnv(t)
	env.prompter.email = "prompted@example.com"
	source := createSourceDatabase(t)

	_, _, err := env.run("convert", source)
	require.NoError(t, err)

	history, _, err := env.run("history")
	require.NoError(t, err)
	assert.Contains(t, history, "prompted@example.com")
}

func TestConvert_MissingDatabase(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run("convert", filepath.Join(t.TempDir(), "missing.db"), "--email", "user@example.com")

	require.Error(t, err)
	assert.Zero(t, env.fake.oauthLogins)
}

func TestConvert_RequiresPath(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run("convert")
	assert.Error(t, err)
}

func TestConvert_SourcePathWithHash(t *testing.T) {
	env := newTestEnv(t)
	source := createNamedSourceDatabase(t, "my#notes.db")

	out, _, err := env.run("convert", source, "--email", "user@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 notes and 1 checklists")

	recent, err := env.runRepository(t).GetRecent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, source, recent[0].SourcePath)
}

func TestConvert_PrunesExpiredRuns(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("NE2KEEP_RUN_RETENTION_DAYS", "30")
	source := createSourceDatabase(t)

	repo := env.runRepository(t)
	require.NoError(t, repo.Create(&entities.MigrationRun{
		ID:        "expired",
		Status:    entities.RunStatusCompleted,
		StartedAt: time.Now().AddDate(0, 0, -31),
	}))
	require.NoError(t, repo.Create(&entities.MigrationRun{
		ID:        "recent",
		Status:    entities.RunStatusCompleted,
		StartedAt: time.Now().AddDate(0, 0, -29),
	}))

	_, _, err := env.run("convert", source, "--email", "user@example.com")
	require.NoError(t, err)

	_, err = repo.GetByID("expired")
	assert.ErrorIs(t, err, runs.ErrNotFound)
	_, err = repo.GetByID("recent")
	assert.NoError(t, err)

	all, err := repo.GetRecent(10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestConvert_ZeroRetentionKeepsRuns(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("NE2KEEP_RUN_RETENTION_DAYS", "0")
	source := createSourceDatabase(t)

	repo := env.runRepository(t)
	require.NoError(t, repo.Create(&entities.MigrationRun{
		ID:        "ancient",
		Status:    entities.RunStatusCompleted,
		StartedAt: time.Now().AddDate(-5, 0, 0),
	}))

	_, _, err := env.run("convert", source, "--email", "user@example.com")
	require.NoError(t, err)

	_, err = repo.GetByID("ancient")
	assert.NoError(t, err)
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/taskmerge/pkg/config"
	"github.com/harrisonrobin/taskmerge/pkg/model"
	"github.com/harrisonrobin/taskmerge/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// Thursday.
var now = time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)

type harness struct {
	t   *testing.T
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, key := range []string{"CALENDAR", "STORE", "TOPLIMIT", "LOGLEVEL"} {
		t.Setenv("TASKMERGE_"+key, "")
	}
	return &harness{t: t, dir: t.TempDir()}
}

func (h *harness) storePath() string  { return filepath.Join(h.dir, "tasks.json") }
func (h *harness) configPath() string { return filepath.Join(h.dir, "config.json") }

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	return h.runWithInput("", args...)
}

func (h *harness) runWithInput(stdin string, args ...string) (string, error) {
	h.t.Helper()
	root := newRootCmd(model.FixedClock(now))
	var out, logs bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--store", h.storePath(), "--config", h.configPath()}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "taskmerge %s", strings.Join(args, " "))
	return out
}

func (h *harness) tasks() []model.Task {
	h.t.Helper()
	s, err := store.Open(h.storePath())
	require.NoError(h.t, err)
	return s.All()
}

func (h *harness) only() model.Task {
	h.t.Helper()
	tasks := h.tasks()
	require.Len(h.t, tasks, 1)
	return tasks[0]
}

func (h *harness) byTitle(title string) model.Task {
	h.t.Helper()
	for _, task := range h.tasks() {
		if task.Title == title {
			return task
		}
	}
	h.t.Fatalf("no task titled %q", title)
	return model.Task{}
}

func TestAddParsesMarkers(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("add", "Finish", "report", "!urgent", "#friday", "@work", "@work", "-d", "numbers")
	assert.Contains(t, out, "Created task")

	task := h.only()
	assert.Equal(t, "Finish report", task.Title)
	assert.Equal(t, "numbers", task.Description)
	assert.Equal(t, model.Urgent, task.Priority)
	assert.Equal(t, []string{"work"}, task.Tags)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2023-06-16", task.DueDate.String())
	assert.True(t, task.CreatedAt.Equal(now))
}

func TestAddRejectsMarkerOnlyText(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("add", "!high", "@work")
	assert.ErrorIs(t, err, model.ErrEmptyTitle)
	assert.Empty(t, h.tasks())
}

func TestAddFromStdin(t *testing.T) {
	h := newHarness(t)
	out, err := h.runWithInput("Pay rent !high #2023-07-01\n\nCall plumber @home\n", "add", "--file", "-")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Created task"))

	rent := h.byTitle("Pay rent")
	assert.Equal(t, model.High, rent.Priority)
	assert.Equal(t, "2023-07-01", rent.DueDate.String())
	assert.Equal(t, []string{"home"}, h.byTitle("Call plumber").Tags)

	_, err = h.run("add")
	assert.Error(t, err)
	_, err = h.runWithInput("fine\n@only @tags\n", "add", "-f", "-")
	assert.ErrorIs(t, err, model.ErrEmptyTitle)
	assert.Len(t, h.tasks(), 2, "a bad line aborts the whole batch")
}

func TestListFilters(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Write", "docs", "@work")
	h.mustRun("add", "Call", "mum", "!high")
	h.mustRun("add", "Old", "bill", "#2023-06-01")

	out := h.mustRun("list")
	assert.Contains(t, out, "Write docs")
	assert.Contains(t, out, "Call mum")
	assert.Contains(t, out, "2023-06-01 !")

	out = h.mustRun("list", "--tag", "work")
	assert.Contains(t, out, "Write docs")
	assert.NotContains(t, out, "Call mum")

	out = h.mustRun("list", "--priority", "high")
	assert.Contains(t, out, "Call mum")
	assert.NotContains(t, out, "Write docs")

	out = h.mustRun("list", "--overdue")
	assert.Contains(t, out, "Old bill")
	assert.NotContains(t, out, "Call mum")

	_, err := h.run("list", "--status", "someday")
	assert.ErrorIs(t, err, model.ErrInvalidStatus)
}

func TestShowAndEdit(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Plan", "trip", "#tomorrow", "@travel")
	id := h.only().ID

	out := h.mustRun("show", id[:8])
	assert.Contains(t, out, "Title:       Plan trip")
	assert.Contains(t, out, "Due:         2023-06-16")

	h.mustRun("edit", id[:8], "--title", "Plan summer trip", "--priority", "low", "--due", "none", "--tags", "travel,family")
	task := h.only()
	assert.Equal(t, "Plan summer trip", task.Title)
	assert.Equal(t, model.Low, task.Priority)
	assert.Nil(t, task.DueDate)
	assert.Equal(t, []string{"travel", "family"}, task.Tags)

	out = h.mustRun("show", id, "--json")
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "LOW", decoded["priority"])

	_, err := h.run("edit", id, "--title", "")
	assert.ErrorIs(t, err, model.ErrEmptyTitle)
	_, err = h.run("edit", id, "--due", "2023-02-30")
	assert.Error(t, err)
	_, err = h.run("show", "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEditStatusDoneStampsCompletion(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Review", "PR")
	id := h.only().ID

	h.mustRun("edit", id, "--status", "done")
	task := h.only()
	assert.Equal(t, model.Done, task.Status)
	require.NotNil(t, task.CompletedAt)

	h.mustRun("edit", id, "--status", "in-progress")
	task = h.only()
	assert.Equal(t, model.InProgress, task.Status)
	assert.NotNil(t, task.CompletedAt, "completedAt survives a reopen")
}

func TestDoneAndDelete(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Water", "plants")
	id := h.only().ID

	assert.Contains(t, h.mustRun("done", id[:6]), "Completed task")
	task := h.only()
	assert.Equal(t, model.Done, task.Status)
	assert.True(t, task.CompletedAt.Equal(now))

	assert.Contains(t, h.mustRun("list"), "No tasks found.")
	assert.Contains(t, h.mustRun("list", "--all"), "Water plants")

	h.mustRun("delete", id)
	assert.Empty(t, h.tasks())
}

func TestTopRanksByImportance(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Someday", "maybe", "!low")
	h.mustRun("add", "Fix", "prod", "!urgent", "#today", "@blocker")
	h.mustRun("add", "Normal", "thing")

	out := h.mustRun("top", "--limit", "1")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Fix prod")

	out = h.mustRun("top", "--explain")
	assert.Contains(t, out, "RECENT")
	// urgent 40 + due today 20 + blocker 8 + recent 5
	assert.Contains(t, out, "73")
}

func TestTopUsesConfiguredLimit(t *testing.T) {
	h := newHarness(t)
	cfg := config.Default()
	cfg.TopLimit = 2
	require.NoError(t, config.Save(h.configPath(), cfg))
	for _, title := range []string{"one", "two", "three"} {
		h.mustRun("add", title)
	}

	out := h.mustRun("top")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Late", "#2023-06-01", "!high")
	h.mustRun("add", "Fine")
	h.mustRun("done", h.byTitle("Fine").ID)

	out := h.mustRun("stats")
	assert.Contains(t, out, "Total:               2")
	assert.Contains(t, out, "Overdue:             1")
	assert.Contains(t, out, "Completed this week: 1")
}

func TestCalendarCommand(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "Tasks\n", h.mustRun("calendar"))

	h.mustRun("calendar", "Work")
	cfg, err := config.Load(h.configPath())
	require.NoError(t, err)
	assert.Equal(t, "Work", cfg.Calendar)
	assert.Equal(t, "Work\n", h.mustRun("calendar"))
}

func TestSyncWithRemoteFile(t *testing.T) {
	h := newHarness(t)
	remotePath := filepath.Join(h.dir, "remote.json")
	remote, err := store.Open(remotePath)
	require.NoError(t, err)
	require.NoError(t, remote.Put(model.New("From laptop", now.Add(-time.Hour))))
	require.NoError(t, remote.Save())

	h.mustRun("add", "From desktop")

	out := h.mustRun("sync", "--remote-file", remotePath, "--dry-run")
	assert.Contains(t, out, "Would sync: 1 to create remotely")
	assert.Len(t, h.tasks(), 1)

	out = h.mustRun("sync", "--remote-file", remotePath)
	assert.Contains(t, out, "Synced: 1 to create remotely")
	assert.Len(t, h.tasks(), 2)

	reopened, err := store.Open(remotePath)
	require.NoError(t, err)
	assert.Len(t, reopened.All(), 2)
}

func TestDeleteFromRemoteFile(t *testing.T) {
	h := newHarness(t)
	remotePath := filepath.Join(h.dir, "remote.json")
	h.mustRun("add", "Shared", "chore")
	h.mustRun("add", "Keep", "me")
	h.mustRun("sync", "--remote-file", remotePath)
	id := h.byTitle("Shared chore").ID

	out := h.mustRun("delete", id[:8], "--remote-file", remotePath)
	assert.Contains(t, out, "Deleted task")

	remote, err := store.Open(remotePath)
	require.NoError(t, err)
	_, err = remote.Get(id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Len(t, remote.All(), 1)

	out = h.mustRun("sync", "--remote-file", remotePath)
	assert.Contains(t, out, "0 to create locally")
	assert.Equal(t, "Keep me", h.only().Title)
}

func TestImportTaskwarrior(t *testing.T) {
	h := newHarness(t)
	export := `[
{"uuid":"f45a05b3-c12e-42e5-9c9c-333333333333","description":"Buy milk","status":"pending","priority":"H",
 "entry":"20230101T100000Z","modified":"20230101T120500Z","project":"Groceries","tags":["food"]},
{"uuid":"0aa5cc7e-aaaa-bbbb-cccc-dddddddddddd","description":"Gone","status":"deleted",
 "entry":"20230101T100000Z","modified":"20230101T120500Z"}
]`
	out, err := h.runWithInput(export, "import", "taskwarrior")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 tasks: 1 new, 0 updated")

	task := h.only()
	assert.Equal(t, "f45a05b3-c12e-42e5-9c9c-333333333333", task.ID)
	assert.Equal(t, model.High, task.Priority)
	assert.Contains(t, task.Tags, "food")

	out, err = h.runWithInput(export, "import", "taskwarrior", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "0 new", "re-import does not duplicate")
	assert.Len(t, h.tasks(), 1)
}

func TestImportOrg(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "work.org")
	require.NoError(t, os.WriteFile(path, []byte(`* TODO [#A] Ship release :work:
  DEADLINE: <2023-06-20 Tue>
* TODO Buy bread :home:
`), 0600))

	out := h.mustRun("import", "org", path, "--tag", "work")
	assert.Contains(t, out, "1 new")
	task := h.only()
	assert.Equal(t, "Ship release", task.Title)
	assert.Equal(t, "2023-06-20", task.DueDate.String())
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "Low", "one", "!low")
	h.mustRun("add", "Urgent", "one", "!urgent")

	out := h.mustRun("export")
	var tasks []model.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	require.Len(t, tasks, 2)
	assert.Equal(t, "Urgent one", tasks[0].Title)

	out = h.mustRun("export", "--format", "yaml")
	var raw []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, "Urgent one", raw[0]["title"])
	assert.Equal(t, "URGENT", raw[0]["priority"])

	file := filepath.Join(h.dir, "out.json")
	h.mustRun("export", "-o", file)
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Urgent one")

	_, err = h.run("export", "--format", "xml")
	assert.Error(t, err)
}

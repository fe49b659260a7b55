package score

import (
	"testing"
	"time"

	"github.com/harrisonrobin/taskmerge/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now   = time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	stale = now.Add(-72 * time.Hour)
)

func staleTask(title string, opts ...model.Option) model.Task {
	return model.New(title, stale, opts...)
}

func dueIn(days int) model.Option {
	return model.WithDueDate(model.DateOf(now).AddDays(days))
}

func TestScoreComponents(t *testing.T) {
	done := staleTask("done")
	done.MarkDone(stale)
	review := staleTask("review")
	review.Status = model.Review
	fresh := model.New("fresh", now.Add(-time.Hour))

	tests := []struct {
		name string
		task model.Task
		want int
	}{
		{"low", staleTask("x", model.WithPriority(model.Low)), 10},
		{"medium", staleTask("x"), 20},
		{"high", staleTask("x", model.WithPriority(model.High)), 30},
		{"urgent", staleTask("x", model.WithPriority(model.Urgent)), 40},
		{"overdue", staleTask("x", dueIn(-1)), 50},
		{"due today", staleTask("x", dueIn(0)), 40},
		{"due tomorrow", staleTask("x", dueIn(1)), 35},
		{"due in two days", staleTask("x", dueIn(2)), 35},
		{"due in three days", staleTask("x", dueIn(3)), 30},
		{"due in seven days", staleTask("x", dueIn(7)), 30},
		{"due in eight days", staleTask("x", dueIn(8)), 20},
		{"done", done, -30},
		{"review", review, 5},
		{"blocker tag", staleTask("x", model.WithTags("blocker")), 28},
		{"boost tags not cumulative", staleTask("x", model.WithTags("blocker", "critical", "urgent")), 28},
		{"boost tag is case-sensitive", staleTask("x", model.WithTags("Urgent")), 20},
		{"recently updated", fresh, 25},
	}
	s := New(model.FixedClock(now))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Score(tt.task)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreDueAtMidnightUsesCeiling(t *testing.T) {
	// Due tomorrow at midnight is 12h away: ceil(0.5) == 1 day.
	s := New(model.FixedClock(now))
	b, err := s.Explain(staleTask("x", dueIn(1)))
	require.NoError(t, err)
	assert.Equal(t, 15, b.Due)

	// Due today at midnight is 12h in the past: ceil(-0.5) == 0 days.
	b, err = s.Explain(staleTask("x", dueIn(0)))
	require.NoError(t, err)
	assert.Equal(t, 20, b.Due)
}

func TestExplainTotalsMatchScore(t *testing.T) {
	s := New(model.FixedClock(now))
	task := model.New("all", now, model.WithPriority(model.High), dueIn(-3), model.WithTags("critical"))

	b, err := s.Explain(task)
	require.NoError(t, err)
	got, err := s.Score(task)
	require.NoError(t, err)

	assert.Equal(t, Breakdown{Priority: 30, Due: 30, Tags: 8, Recency: 5}, b)
	assert.Equal(t, b.Total(), got)
}

func TestScoreRejectsInvalidTask(t *testing.T) {
	s := New(model.FixedClock(now))

	_, err := s.Score(model.Task{Title: "no id"})
	assert.ErrorIs(t, err, model.ErrMissingID)

	bad := staleTask("x")
	bad.Priority = 0
	_, err = s.Score(bad)
	assert.ErrorIs(t, err, model.ErrInvalidPriority)
}

func TestUrgentOutranksLow(t *testing.T) {
	s := New(model.FixedClock(now))
	low := staleTask("same", model.WithPriority(model.Low), dueIn(4))
	urgent := low.Clone()
	urgent.ID = "other"
	urgent.Priority = model.Urgent

	lowScore, err := s.Score(low)
	require.NoError(t, err)
	urgentScore, err := s.Score(urgent)
	require.NoError(t, err)
	assert.Greater(t, urgentScore, lowScore)

	sorted, err := s.SortByImportance([]model.Task{low, urgent})
	require.NoError(t, err)
	assert.Equal(t, urgent.ID, sorted[0].ID)
}

func TestSortByImportanceDoesNotMutateInput(t *testing.T) {
	s := New(model.FixedClock(now))
	input := []model.Task{
		staleTask("a", model.WithPriority(model.Low)),
		staleTask("b", model.WithPriority(model.Urgent)),
		staleTask("c", model.WithPriority(model.Medium)),
	}
	before := make([]string, len(input))
	for i, task := range input {
		before[i] = task.ID
	}

	sorted, err := s.SortByImportance(input)
	require.NoError(t, err)

	for i, task := range input {
		assert.Equal(t, before[i], task.ID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, titles(sorted))
}

func TestSortByImportanceIsStableForTies(t *testing.T) {
	s := New(model.FixedClock(now))
	input := []model.Task{staleTask("first"), staleTask("second"), staleTask("third")}

	sorted, err := s.SortByImportance(input)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, titles(sorted))
}

func TestSortByImportanceFailsOnInvalidTask(t *testing.T) {
	s := New(model.FixedClock(now))
	_, err := s.SortByImportance([]model.Task{staleTask("ok"), {}})
	assert.Error(t, err)
}

func TestTopN(t *testing.T) {
	s := New(model.FixedClock(now))
	var tasks []model.Task
	for i := 0; i < 8; i++ {
		tasks = append(tasks, staleTask(string(rune('a'+i)), dueIn(10-i)))
	}

	top, err := s.TopN(tasks, 3)
	require.NoError(t, err)
	assert.Len(t, top, 3)

	top, err = s.TopN(tasks, 0)
	require.NoError(t, err)
	assert.Len(t, top, DefaultLimit)

	top, err = s.TopN(tasks[:2], 10)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	top, err = s.TopN(nil, 3)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func titles(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

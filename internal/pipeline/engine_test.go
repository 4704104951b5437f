package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/julianshen/componentdoc/internal/errors"
)

// recordStage builds an untyped stage that writes fixed values and logs
// its name into calls.
func recordStage(name string, reads, writes []Field, calls *[]string, out Record, err error) Stage {
	return Stage{
		Name:   name,
		Reads:  reads,
		Writes: writes,
		Run: func(_ context.Context, _ *RunContext, _ Record) (Record, error) {
			*calls = append(*calls, name)
			return out, err
		},
	}
}

func TestNewValidatesContracts(t *testing.T) {
	noop := func(context.Context, *RunContext, Record) (Record, error) { return nil, nil }

	cases := map[string][]Stage{
		"read before write": {
			{Name: "a", Reads: []Field{"later"}, Writes: []Field{"x"}, Run: noop},
			{Name: "b", Reads: []Field{"x"}, Writes: []Field{"later"}, Run: noop},
		},
		"double write": {
			{Name: "a", Reads: []Field{"in"}, Writes: []Field{"x"}, Run: noop},
			{Name: "b", Reads: []Field{"x"}, Writes: []Field{"x"}, Run: noop},
		},
		"overwrites input": {
			{Name: "a", Reads: []Field{"in"}, Writes: []Field{"in"}, Run: noop},
		},
		"duplicate name": {
			{Name: "a", Reads: []Field{"in"}, Writes: []Field{"x"}, Run: noop},
			{Name: "a", Reads: []Field{"x"}, Writes: []Field{"y"}, Run: noop},
		},
		"missing run": {
			{Name: "a", Reads: []Field{"in"}, Writes: []Field{"x"}},
		},
		"empty": nil,
	}
	for name, stages := range cases {
		_, err := New([]Field{"in"}, stages, nil)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, errors.ErrContract), name)
	}
}

func TestRunCompletesAndAccumulatesState(t *testing.T) {
	var calls []string
	stages := []Stage{
		{
			Name: "upper", Reads: []Field{"in"}, Writes: []Field{"a"},
			Run: func(_ context.Context, _ *RunContext, in Record) (Record, error) {
				calls = append(calls, "upper")
				return Record{"a": in["in"].(string) + "!"}, nil
			},
		},
		{
			Name: "concat", Reads: []Field{"in", "a"}, Writes: []Field{"b"},
			Run: func(_ context.Context, _ *RunContext, in Record) (Record, error) {
				calls = append(calls, "concat")
				assert.Len(t, in, 2, "stages only see their declared reads")
				return Record{"b": in["in"].(string) + "+" + in["a"].(string)}, nil
			},
		},
	}
	eng, err := New([]Field{"in"}, stages, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.Equal(t, []string{"upper", "concat"}, eng.StageNames())

	run, err := eng.Run(context.Background(), Record{"in": "x"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, "x!", run.String("a"))
	assert.Equal(t, "x+x!", run.String("b"))
	assert.Equal(t, []string{"upper", "concat"}, calls)
	require.Len(t, run.Reports, 2)
	assert.NoError(t, run.Reports[1].Err)
}

func TestRunAbortsOnFirstFailureAndCleansUp(t *testing.T) {
	var calls, cleaned []string
	boom := errors.Mark(errors.New("corrupt archive"), errors.ErrExtraction)

	stages := []Stage{
		{
			Name: "acquire", Reads: []Field{"in"}, Writes: []Field{"dir"},
			Run: func(_ context.Context, rc *RunContext, _ Record) (Record, error) {
				calls = append(calls, "acquire")
				rc.Defer(func() error { cleaned = append(cleaned, "first"); return nil })
				rc.Defer(func() error { cleaned = append(cleaned, "second"); return errors.New("ignored") })
				return Record{"dir": "/scratch"}, nil
			},
		},
		recordStage("explode", []Field{"dir"}, []Field{"tree"}, &calls, Record{"tree": "partial"}, boom),
		recordStage("never", []Field{"tree"}, []Field{"doc"}, &calls, Record{"doc": "x"}, nil),
	}
	eng, err := New([]Field{"in"}, stages, nil)
	require.NoError(t, err)

	run, err := eng.Run(context.Background(), Record{"in": "x"})
	require.Error(t, err)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "explode", se.Stage)
	assert.True(t, errors.Is(err, errors.ErrExtraction))

	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, "explode", run.Stage)
	assert.Equal(t, []string{"acquire", "explode"}, calls)
	assert.Equal(t, []string{"second", "first"}, cleaned, "cleanups run LIFO")

	_, ok := run.Get("tree")
	assert.False(t, ok, "partial output is discarded")
	assert.Equal(t, "/scratch", run.String("dir"))
}

func TestRunRejectsUndeclaredOutput(t *testing.T) {
	var calls []string
	stages := []Stage{
		recordStage("sloppy", []Field{"in"}, []Field{"a"}, &calls, Record{"a": "1", "b": "2"}, nil),
	}
	eng, err := New([]Field{"in"}, stages, nil)
	require.NoError(t, err)

	run, err := eng.Run(context.Background(), Record{"in": "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrContract))
	_, ok := run.Get("a")
	assert.False(t, ok)
}

func TestRunRejectsMissingOutput(t *testing.T) {
	var calls []string
	stages := []Stage{
		recordStage("lazy", []Field{"in"}, []Field{"a", "b"}, &calls, Record{"a": "1"}, nil),
	}
	eng, err := New([]Field{"in"}, stages, nil)
	require.NoError(t, err)

	_, err = eng.Run(context.Background(), Record{"in": "x"})
	assert.True(t, errors.Is(err, errors.ErrContract))
}

func TestRunRejectsBadInput(t *testing.T) {
	var calls []string
	eng, err := New([]Field{"in"}, []Stage{
		recordStage("a", []Field{"in"}, []Field{"x"}, &calls, Record{"x": 1}, nil),
	}, nil)
	require.NoError(t, err)

	run, err := eng.Run(context.Background(), Record{"in": "x", "extra": "y"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrContract))
	assert.Equal(t, StatusFailed, run.Status)
	assert.Empty(t, calls)
}

func TestRunRecoversPanicsAndCleansUp(t *testing.T) {
	cleaned := false
	stages := []Stage{
		{
			Name: "panicky", Reads: []Field{"in"}, Writes: []Field{"x"},
			Run: func(_ context.Context, rc *RunContext, _ Record) (Record, error) {
				rc.Defer(func() error { cleaned = true; return nil })
				panic("nil map")
			},
		},
	}
	eng, err := New([]Field{"in"}, stages, nil)
	require.NoError(t, err)

	run, err := eng.Run(context.Background(), Record{"in": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil map")
	assert.Equal(t, StatusFailed, run.Status)
	assert.True(t, cleaned)
}

func TestRunHonorsCanceledContext(t *testing.T) {
	var calls []string
	eng, err := New([]Field{"in"}, []Stage{
		recordStage("a", []Field{"in"}, []Field{"x"}, &calls, Record{"x": 1}, nil),
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Run(ctx, Record{"in": "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}

func TestRunsAreIsolated(t *testing.T) {
	stages := []Stage{
		{
			Name: "echo", Reads: []Field{"in"}, Writes: []Field{"out"},
			Run: func(_ context.Context, _ *RunContext, in Record) (Record, error) {
				return Record{"out": in["in"]}, nil
			},
		},
	}
	eng, err := New([]Field{"in"}, stages, nil)
	require.NoError(t, err)

	r1, err := eng.Run(context.Background(), Record{"in": "one"})
	require.NoError(t, err)
	r2, err := eng.Run(context.Background(), Record{"in": "two"})
	require.NoError(t, err)

	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Equal(t, "one", r1.String("out"))
	assert.Equal(t, "two", r2.String("out"))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, isAllowedTransition(StatusPending, StatusRunning))
	assert.True(t, isAllowedTransition(StatusRunning, StatusRunning))
	assert.True(t, isAllowedTransition(StatusRunning, StatusFailed))
	assert.False(t, isAllowedTransition(StatusCompleted, StatusRunning))
	assert.False(t, isAllowedTransition(StatusFailed, StatusCompleted))
	assert.False(t, isAllowedTransition(StatusPending, StatusCompleted))
	assert.True(t, StatusFailed.IsTerminal())
	assert.Equal(t, "running", StatusRunning.String())
}

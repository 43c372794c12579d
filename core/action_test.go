package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Run Tests --------------------

func TestActionRun_NoInput(t *testing.T) {
	a := NewActionWithNoInput(KindCustom, "syncFoo", func(_ context.Context) (string, error) {
		return "syncFoo", nil
	})

	resp, err := a.Run(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "syncFoo", resp.Response)
	assert.NotEmpty(t, resp.TraceID)
}

func TestActionRun_WithInput(t *testing.T) {
	a := NewAction(KindFlow, "double", func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})

	resp, err := a.Run(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, 42, resp.Response)
}

func TestActionRun_ChunkCallback(t *testing.T) {
	a := NewStreamingAction(KindFlow, "counter", func(_ context.Context, n int, rc *RunContext) (string, error) {
		for i := 1; i <= n; i++ {
			if err := rc.SendChunk(i); err != nil {
				return "", err
			}
		}
		return "done", nil
	})

	var chunks []any

	resp, err := a.Run(context.Background(), 3, WithChunkCallback(func(_ context.Context, chunk any) error {
		chunks = append(chunks, chunk)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Response)
	assert.Equal(t, []any{1, 2, 3}, chunks)
}

func TestActionRun_ChunksIgnoredWithoutCallback(t *testing.T) {
	a := NewStreamingAction(KindFlow, "chatty", func(_ context.Context, _ struct{}, rc *RunContext) (string, error) {
		assert.False(t, rc.IsStreaming())
		// Emitting without a consumer must be safe.
		require.NoError(t, rc.SendChunk("chunk"))
		return "final", nil
	})

	resp, err := a.Run(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "final", resp.Response)
}

// -------------------- Error Wrapping Tests --------------------

func TestActionRun_WrapsFailure(t *testing.T) {
	boom := errors.New("boom")

	a := NewAction(KindTool, "failing", func(_ context.Context, _ struct{}) (string, error) {
		return "", boom
	})

	_, err := a.Run(context.Background(), struct{}{})
	require.Error(t, err)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "failing", execErr.ActionName)
	assert.Equal(t, "boom", execErr.Cause().Error())
	assert.NotEmpty(t, execErr.Stack)
	assert.NotEmpty(t, execErr.TraceID)
	assert.ErrorIs(t, err, boom)
}

func TestActionRun_WrapsExactlyOnce(t *testing.T) {
	inner := NewAction(KindTool, "inner", func(_ context.Context, _ struct{}) (string, error) {
		return "", errors.New("inner failure")
	})

	middle := NewAction(KindFlow, "middle", func(ctx context.Context, _ struct{}) (string, error) {
		_, err := inner.Run(ctx, struct{}{})
		return "", err
	})

	outer := NewAction(KindFlow, "outer", func(ctx context.Context, _ struct{}) (string, error) {
		_, err := middle.Run(ctx, struct{}{})
		return "", err
	})

	_, err := outer.Run(context.Background(), struct{}{})
	require.Error(t, err)

	// Only the innermost boundary wraps; the chain below the envelope is the
	// original failure, not further ExecutionErrors.
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "inner", execErr.ActionName)

	var nested *ExecutionError
	assert.False(t, errors.As(execErr.Cause(), &nested))
	assert.Equal(t, "inner failure", execErr.Cause().Error())
}

func TestActionRun_RecoversPanic(t *testing.T) {
	a := NewAction(KindCustom, "panicky", func(_ context.Context, _ struct{}) (string, error) {
		panic("unexpected state")
	})

	_, err := a.Run(context.Background(), struct{}{})
	require.Error(t, err)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Cause().Error(), "unexpected state")
	assert.NotEmpty(t, execErr.Stack)
}

// -------------------- RunAny Tests --------------------

func TestActionRunAny(t *testing.T) {
	a := NewAction(KindFlow, "upper", func(_ context.Context, s string) (string, error) {
		return s + "!", nil
	})

	resp, err := a.RunAny(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi!", resp.Response)
}

func TestActionRunAny_TypeMismatch(t *testing.T) {
	invoked := false

	a := NewAction(KindFlow, "typed", func(_ context.Context, _ string) (string, error) {
		invoked = true
		return "", nil
	})

	_, err := a.RunAny(context.Background(), 42)
	require.Error(t, err)

	var argErr *InvalidArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.False(t, invoked, "wrapped function must not run on a shape mismatch")

	// Never wrapped as an execution error.
	var execErr *ExecutionError
	assert.False(t, errors.As(err, &execErr))
}

// -------------------- Stream Tests --------------------

func TestActionStream_OrderAndFinal(t *testing.T) {
	a := NewStreamingAction(KindFlow, "ticker", func(_ context.Context, n int, rc *RunContext) (int, error) {
		for i := 1; i <= n; i++ {
			if err := rc.SendChunk(i); err != nil {
				return 0, err
			}
		}
		return n, nil
	})

	h := a.Stream(context.Background(), 5)

	var chunks []any
	for chunk := range h.Chunks() {
		chunks = append(chunks, chunk)
	}

	resp, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3, 4, 5}, chunks)
	assert.Equal(t, 5, resp.Response)
}

func TestActionStream_MatchesRun(t *testing.T) {
	fn := func(_ context.Context, s string, rc *RunContext) (string, error) {
		_ = rc.SendChunk(s)
		return "echo: " + s, nil
	}

	a := NewStreamingAction(KindFlow, "echo", fn)

	runResp, err := a.Run(context.Background(), "hello")
	require.NoError(t, err)

	h := a.Stream(context.Background(), "hello")
	for range h.Chunks() {
	}

	streamResp, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runResp.Response, streamResp.Response)
}

func TestActionStream_FailureAfterChunks(t *testing.T) {
	a := NewStreamingAction(KindFlow, "flaky", func(_ context.Context, _ struct{}, rc *RunContext) (string, error) {
		_ = rc.SendChunk("partial")
		return "", errors.New("late failure")
	})

	h := a.Stream(context.Background(), struct{}{})

	var chunks []any
	for chunk := range h.Chunks() {
		chunks = append(chunks, chunk)
	}

	_, err := h.Wait(context.Background())
	require.Error(t, err)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)

	// Already delivered chunks stay valid.
	assert.Equal(t, []any{"partial"}, chunks)
}

func TestActionStream_CancelStopsProducer(t *testing.T) {
	started := make(chan struct{})
	returned := make(chan struct{})

	a := NewStreamingAction(KindFlow, "endless", func(ctx context.Context, _ struct{}, rc *RunContext) (string, error) {
		defer close(returned)
		close(started)
		for i := 0; ; i++ {
			if err := rc.SendChunk(i); err != nil {
				return "", err
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	h := a.Stream(ctx, struct{}{})

	<-h.Chunks()
	<-started
	cancel()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not stop after consumer cancellation")
	}

	_, err := h.Wait(context.Background())
	assert.Error(t, err)
}

// -------------------- Ambient Context Isolation Tests --------------------

// Two concurrently outstanding call trees, each carrying a distinct ambient
// map, read their own context back through two levels of nested action calls.
// Neither tree may ever observe the other's values, whatever the
// interleaving.
func TestActionRun_ConcurrentContextIsolation(t *testing.T) {
	leaf := NewStreamingAction(KindCustom, "leaf", func(_ context.Context, key string, rc *RunContext) (any, error) {
		v, _ := rc.Value(key)
		return v, nil
	})

	mid := NewStreamingAction(KindCustom, "mid", func(ctx context.Context, key string, _ *RunContext) (any, error) {
		// Yield to encourage interleaving between the two call trees.
		time.Sleep(time.Millisecond)

		resp, err := leaf.Run(ctx, key)
		if err != nil {
			return nil, err
		}
		return resp.Response, nil
	})

	run := func(key, want string) error {
		resp, err := mid.Run(context.Background(), key, WithContextMap(map[string]any{key: want}))
		if err != nil {
			return err
		}
		if resp.Response != want {
			return fmt.Errorf("call tree %q observed %v, want %q", key, resp.Response, want)
		}
		return nil
	}

	const iterations = 100

	errs := make(chan error, 2*iterations)

	var wg sync.WaitGroup
	for i := 0; i < iterations; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- run("foo", "bar")
		}()
		go func() {
			defer wg.Done()
			errs <- run("bar", "baz")
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestActionRun_NestedSeesSameContextMap(t *testing.T) {
	var inner, outer map[string]any

	leaf := NewStreamingAction(KindCustom, "leafCtx", func(_ context.Context, _ struct{}, rc *RunContext) (struct{}, error) {
		inner = rc.Context
		return struct{}{}, nil
	})

	root := NewStreamingAction(KindCustom, "rootCtx", func(ctx context.Context, _ struct{}, rc *RunContext) (struct{}, error) {
		outer = rc.Context
		_, err := leaf.Run(ctx, struct{}{})
		return struct{}{}, err
	})

	_, err := root.Run(context.Background(), struct{}{}, WithContextMap(map[string]any{"request": "r-1"}))
	require.NoError(t, err)

	// Transparent propagation: the nested call observes the same mapping the
	// enclosing body received.
	assert.Equal(t, outer, inner)
	assert.Equal(t, "r-1", inner["request"])
}

// -------------------- Identity & Metadata Tests --------------------

func TestActionIdentity(t *testing.T) {
	a := NewAction(KindTool, "calc", func(_ context.Context, _ struct{}) (struct{}, error) {
		return struct{}{}, nil
	}, func(o *ActionOptions) {
		o.Desc = "a calculator"
		o.Metadata = map[string]any{"version": 2}
	})

	assert.Equal(t, KindTool, a.Kind())
	assert.Equal(t, "calc", a.Name())
	assert.Equal(t, "/tool/calc", a.Key())
	assert.Equal(t, "a calculator", a.Desc())
	assert.Equal(t, 2, a.Metadata()["version"])
}

package pipeline

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhaslett/acgbridge/internal/transform"
)

// testLogger writes nowhere itself; the Runner redirects it onto the event
// channel.
func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// gatedFuncs returns a builtin registry whose transform_sex blocks until
// release is closed, letting tests hold a run mid-assembly.
func gatedFuncs(release <-chan struct{}) *transform.Registry {
	funcs := transform.NewRegistry()
	funcs.RegisterCell("transform_sex", func(v string) (string, error) {
		<-release
		return transform.TransformSex(v)
	})
	funcs.RegisterCell("determine_dx_version", transform.DetermineDxVersion)
	funcs.RegisterCell("determine_rx_code_type", transform.DetermineRxCodeType)
	funcs.RegisterGenerator("set_zero_cost", transform.ZeroValue)
	return funcs
}

func drain(t *testing.T, events <-chan Event, result <-chan Result) Result {
	t.Helper()
	for range events {
	}
	select {
	case res := <-result:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish in time")
		return Result{}
	}
}

func TestRunnerEmitsEventsAndResult(t *testing.T) {
	opts, _, _ := fixtures(t)
	var runner Runner

	events, result, err := runner.Start(context.Background(), testLogger(),
		testRegistry(t), transform.Builtin(), opts)
	require.NoError(t, err)

	var lines []string
	for ev := range events {
		lines = append(lines, ev.Line)
	}
	res := <-result
	require.NoError(t, res.Err)
	require.NotNil(t, res.Summary)
	assert.Len(t, res.Summary.OutputFiles, 3)
	assert.NotEmpty(t, lines, "a run should report progress lines")
	assert.False(t, runner.Active())
}

func TestRunnerRejectsSecondRun(t *testing.T) {
	opts, _, _ := fixtures(t)
	var runner Runner

	release := make(chan struct{})
	events, result, err := runner.Start(context.Background(), testLogger(),
		testRegistry(t), gatedFuncs(release), opts)
	require.NoError(t, err)

	// The first run is blocked inside a transformation; a second start must
	// be rejected outright, not queued.
	_, _, err = runner.Start(context.Background(), testLogger(),
		testRegistry(t), transform.Builtin(), opts)
	require.ErrorIs(t, err, ErrRunInFlight)

	close(release)
	res := drain(t, events, result)
	require.NoError(t, res.Err)

	// With the first run finished, a new one may start.
	events, result, err = runner.Start(context.Background(), testLogger(),
		testRegistry(t), transform.Builtin(), opts)
	require.NoError(t, err)
	res = drain(t, events, result)
	require.NoError(t, res.Err)
}

func TestRunnerCancellationLeavesNoPartialOutput(t *testing.T) {
	opts, _, outDir := fixtures(t)
	var runner Runner

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})

	events, result, err := runner.Start(ctx, testLogger(),
		testRegistry(t), gatedFuncs(release), opts)
	require.NoError(t, err)

	// Cancel while the run is blocked mid-assembly. Cancellation is
	// cooperative: the run stops at the next row boundary once the
	// in-flight transformation returns.
	cancel()
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release) // let any blocked row finish
	}()

	res := drain(t, events, result)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, context.Canceled)

	entries, rerr := os.ReadDir(outDir)
	require.NoError(t, rerr)
	assert.Empty(t, entries, "a cancelled run must not leave output files")
}

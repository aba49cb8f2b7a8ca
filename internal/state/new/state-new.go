// Sorry, workaround to import cycles.
package state_new

import (
	"context"
	"os"
	"testing"

	"github.com/gagarin78/vendo/internal/state"
	"github.com/gagarin78/vendo/log2"
	"github.com/gagarin78/vendo/tele"
	"github.com/temoto/alive/v2"
)

func NewContext(log *log2.Log, teler tele.Teler) (context.Context, *state.Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}

	g := &state.Global{
		Alive: alive.NewAlive(),
		Log:   log,
		Tele:  teler,
	}
	ctx := context.WithValue(context.Background(), state.ContextKey, g)
	return ctx, g
}

func NewTestContext(t testing.TB, buildVersion string, confString string) (context.Context, *state.Global) {
	fs := state.NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	var log *log2.Log
	if os.Getenv("vendo_test_log_stderr") == "1" {
		log = log2.NewStderr(log2.LDebug) // useful with panics
	} else {
		log = log2.NewTest(t, log2.LDebug)
	}
	log.SetFlags(log2.LTestFlags)
	ctx, g := NewContext(log, tele.NewStub())
	g.BuildVersion = buildVersion
	g.MustInit(ctx, state.MustReadConfig(log, fs, "test-inline"))

	return ctx, g
}

package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	sitecmd "github.com/goliatone/go-mdsite/internal/commands/site"
	"github.com/goliatone/go-mdsite/internal/generator"
)

var _ generator.Service = (*flakyGenerator)(nil)

type flakyGenerator struct {
	failures int
	calls    int
	err      error
}

func (g *flakyGenerator) Build(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
	g.calls++
	if g.calls <= g.failures {
		return nil, g.err
	}
	return &generator.BuildResult{PagesBuilt: 1, DryRun: opts.DryRun}, nil
}

func (g *flakyGenerator) RenderPage(context.Context, string) (*generator.RenderedPage, error) {
	return nil, generator.ErrPageNotFound
}

func (g *flakyGenerator) Clean(context.Context) error { return nil }

var generatorOn = sitecmd.FeatureGates{GeneratorEnabled: func() bool { return true }}

func TestDispatcherRetriesBuildUntilSuccess(t *testing.T) {
	svc := &flakyGenerator{failures: 1, err: errors.New("output locked")}
	var built int
	handler := sitecmd.NewBuildSiteHandler(svc, nil, generatorOn)

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(1))
	t.Cleanup(sub.Unsubscribe)

	err := dispatcher.Dispatch(context.Background(), sitecmd.BuildSiteCommand{
		ResultCallback: func(env sitecmd.ResultEnvelope) {
			if env.Result != nil {
				built = env.Result.PagesBuilt
			}
		},
	})
	if err != nil {
		t.Fatalf("dispatch: expected success after retry, got %v", err)
	}
	if svc.calls != 2 {
		t.Fatalf("expected 2 build attempts (initial + retry), got %d", svc.calls)
	}
	if built != 1 {
		t.Fatalf("expected callback to see the successful build, got %d pages", built)
	}
}

func TestDispatcherDiffRetryExhaustionPropagatesError(t *testing.T) {
	svc := &flakyGenerator{failures: 10, err: generator.ErrInputDirMissing}
	handler := sitecmd.NewDiffSiteHandler(svc, nil, generatorOn)

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(2))
	t.Cleanup(sub.Unsubscribe)

	err := dispatcher.Dispatch(context.Background(), sitecmd.DiffSiteCommand{})
	if err == nil {
		t.Fatal("expected dispatcher to return error after exhausting retries")
	}
	if !errors.Is(err, generator.ErrInputDirMissing) {
		t.Fatalf("expected ErrInputDirMissing in chain, got %v", err)
	}
	if svc.calls != 3 {
		t.Fatalf("expected 3 attempts (initial + 2 retries), got %d", svc.calls)
	}
}

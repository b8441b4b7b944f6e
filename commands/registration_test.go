package commands

import (
	"errors"
	"testing"
	"testing/fstest"

	command "github.com/goliatone/go-command"
	sitecmd "github.com/goliatone/go-mdsite/internal/commands/site"
	"github.com/goliatone/go-mdsite/internal/di"
	ditesting "github.com/goliatone/go-mdsite/internal/di/testing"
	"github.com/goliatone/go-mdsite/internal/runtimeconfig"
)

type testContainer struct {
	*di.Container
	files func() map[string]string
}

func newTestContainer(t *testing.T) *testContainer {
	t.Helper()
	content := fstest.MapFS{
		"index.md": {Data: []byte("---\ntitle: Home\n---\nhello\n")},
	}
	templates := fstest.MapFS{
		"default.html": {Data: []byte("<main>{{page}}</main>")},
	}
	container, files, err := ditesting.NewGeneratorContainer(runtimeconfig.DefaultConfig(), content, templates)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	return &testContainer{Container: container, files: files}
}

func TestRegisterContainerCommandsBuildsHandlers(t *testing.T) {
	env := newTestContainer(t)
	registry := &recordingRegistry{}
	dispatcher := &recordingDispatcher{}

	result, err := RegisterContainerCommands(env.Container, RegistrationOptions{
		Registry:   registry,
		Dispatcher: dispatcher,
	})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(result.Handlers) != 5 {
		t.Fatalf("expected five handlers, got %d", len(result.Handlers))
	}
	if len(registry.handlers) != len(result.Handlers) {
		t.Fatalf("expected registry to record all handlers, got %d of %d", len(registry.handlers), len(result.Handlers))
	}
	if len(result.Subscriptions) != len(result.Handlers) {
		t.Fatalf("expected one subscription per handler, got %d", len(result.Subscriptions))
	}

	var hasBuild, hasConvert bool
	for _, handler := range result.Handlers {
		switch handler.(type) {
		case *sitecmd.BuildSiteHandler:
			hasBuild = true
		case *sitecmd.ConvertMarkdownHandler:
			hasConvert = true
		}
	}
	if !hasBuild || !hasConvert {
		t.Fatalf("expected build and convert handlers, got %#v", result.Handlers)
	}
}

func TestRegisterContainerCommandsWithoutRegistrars(t *testing.T) {
	env := newTestContainer(t)

	result, err := RegisterContainerCommands(env.Container, RegistrationOptions{})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(result.Handlers) == 0 {
		t.Fatal("expected handlers to be collected even without registrars")
	}
	if len(result.Subscriptions) != 0 {
		t.Fatalf("expected no dispatcher subscriptions without dispatcher, got %d", len(result.Subscriptions))
	}
}

func TestRegisterContainerCommandsNilContainer(t *testing.T) {
	result, err := RegisterContainerCommands(nil, RegistrationOptions{})
	if err != nil || len(result.Handlers) != 0 {
		t.Fatalf("expected empty result, got %#v, %v", result, err)
	}
}

func TestRegisterContainerCommandsJoinsRegistrarErrors(t *testing.T) {
	env := newTestContainer(t)
	boom := errors.New("dispatcher offline")

	result, err := RegisterContainerCommands(env.Container, RegistrationOptions{
		Dispatcher: &recordingDispatcher{err: boom},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected dispatcher error, got %v", err)
	}
	if len(result.Handlers) != 5 {
		t.Fatalf("expected handlers to be returned alongside errors, got %d", len(result.Handlers))
	}
}

func TestRegisterContainerCommandsSchedulesRebuild(t *testing.T) {
	env := newTestContainer(t)
	cron := &recordingCron{}

	if _, err := RegisterContainerCommands(env.Container, RegistrationOptions{
		CronRegistrar: cron.Registrar(),
		RebuildCron:   "@hourly",
	}); err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(cron.registrations) != 1 {
		t.Fatalf("expected one cron registration, got %d", len(cron.registrations))
	}
	registration := cron.registrations[0]
	if registration.config.Expression != "@hourly" {
		t.Fatalf("expected @hourly expression, got %q", registration.config.Expression)
	}
	if registration.handler == nil {
		t.Fatal("expected cron handler func")
	}
	if err := registration.handler(); err != nil {
		t.Fatalf("cron build: %v", err)
	}
	if got := env.files()["index.html"]; got != "<main><p>hello</p></main>" {
		t.Fatalf("expected scheduled build to write index.html, got %q", got)
	}
}

func TestRegisterRebuildCronSkipsWithoutRegistrar(t *testing.T) {
	if err := RegisterRebuildCron(nil, nil, command.HandlerConfig{}, sitecmd.BuildSiteCommand{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

type cronRegistration struct {
	config  command.HandlerConfig
	handler func() error
}

type recordingCron struct {
	registrations []cronRegistration
}

func (c *recordingCron) Registrar() CronRegistrar {
	return func(cfg command.HandlerConfig, handler any) error {
		fn, _ := handler.(func() error)
		c.registrations = append(c.registrations, cronRegistration{config: cfg, handler: fn})
		return nil
	}
}

type recordingDispatcher struct {
	handlers []any
	err      error
}

func (d *recordingDispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.handlers = append(d.handlers, handler)
	return &recordingSubscription{}, nil
}

type recordingSubscription struct {
	unsubscribed bool
}

func (s *recordingSubscription) Unsubscribe() {
	s.unsubscribed = true
}

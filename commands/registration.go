package commands

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"
	sitecmd "github.com/goliatone/go-mdsite/internal/commands/site"
	"github.com/goliatone/go-mdsite/internal/di"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry   CommandRegistry
	Dispatcher CommandDispatcher
	// CronRegistrar, together with RebuildCron, schedules periodic site builds.
	CronRegistrar CronRegistrar
	// RebuildCron is a cron expression such as "@hourly". Empty disables the schedule.
	RebuildCron string
}

// RegistrationResult captures the container handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterContainerCommands collects the site handlers exposed by container and
// registers them with the optional registry, dispatcher and cron integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0, 5),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error
	register := func(handler any) {
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}
		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
	}

	if h := container.BuildHandler(); h != nil {
		register(h)
	}
	if h := container.DiffHandler(); h != nil {
		register(h)
	}
	if h := container.CleanHandler(); h != nil {
		register(h)
	}
	if h := container.RenderHandler(); h != nil {
		register(h)
	}
	if h := container.ConvertHandler(); h != nil {
		register(h)
	}

	if opts.RebuildCron != "" {
		cfg := command.HandlerConfig{Expression: opts.RebuildCron}
		if err := RegisterRebuildCron(opts.CronRegistrar, container.BuildHandler(), cfg, sitecmd.BuildSiteCommand{}); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	if len(result.Handlers) == 0 {
		return result, errors.Join(errs, errors.New("no command handlers registered; ensure the container is configured"))
	}
	return result, errs
}

// RegisterRebuildCron wires handler into a cron registrar using cfg. The build
// runs with a background context and the supplied message.
func RegisterRebuildCron(reg CronRegistrar, handler *sitecmd.BuildSiteHandler, cfg command.HandlerConfig, msg sitecmd.BuildSiteCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}

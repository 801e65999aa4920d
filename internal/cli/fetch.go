package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/healthaccess/config"
	"github.com/jonwraymond/healthaccess/gateway"
	"github.com/jonwraymond/healthaccess/internal/fixture"
	"github.com/jonwraymond/healthaccess/metric"
	"github.com/jonwraymond/healthaccess/observe"
	"github.com/jonwraymond/healthaccess/orchestrator"
	"github.com/jonwraymond/healthaccess/permission"
	"github.com/jonwraymond/healthaccess/resilience"
)

type fetchFlags struct {
	metrics     []string
	all         bool
	deny        bool
	reason      string
	unavailable bool
	fixture     string
	timeout     time.Duration
}

func newFetchCommand(opts *Options) *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Request access to metrics and print their current values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			set, err := permissionSet(flags.metrics, flags.all)
			if err != nil {
				return err
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if flags.unavailable {
				cfg.Gateway.Unavailable = true
			}
			if flags.fixture != "" {
				cfg.Store.Fixture = flags.fixture
			}
			if err := cfg.Store.Validate(); err != nil {
				return err
			}
			cfg.Observe.Output = cmd.ErrOrStderr()

			ctx := cmd.Context()
			if flags.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, flags.timeout)
				defer cancel()
			}

			obs, err := observe.NewObserver(ctx, cfg.Observe)
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, obs.Shutdown(context.WithoutCancel(ctx)))
			}()

			store, err := cfg.Store.Open()
			if err != nil {
				return err
			}
			defer store.Close()

			gw, err := buildGateway(ctx, cfg, store, obs, flags)
			if err != nil {
				return err
			}

			o, err := orchestrator.New(gw,
				orchestrator.WithConfig(cfg.Orchestrator),
				orchestrator.WithLogger(obs.Logger()),
			)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			return o.Run(ctx, set, func(_ metric.Metric, r orchestrator.Reading) {
				fmt.Fprintln(out, r.String())
			})
		},
	}

	cmd.Flags().StringSliceVarP(&flags.metrics, "metric", "m", nil, "Metric to request, by id or label (repeatable)")
	cmd.Flags().BoolVarP(&flags.all, "all", "a", false, "Request every metric")
	cmd.Flags().BoolVar(&flags.deny, "deny", false, "Decline the authorization request")
	cmd.Flags().StringVar(&flags.reason, "reason", "declined by user", "Reason reported with --deny")
	cmd.Flags().BoolVar(&flags.unavailable, "unavailable", false, "Behave as if the platform had no health store")
	cmd.Flags().StringVarP(&flags.fixture, "fixture", "f", "", "Fixture to load into the store first")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "Bound the whole cycle")

	return cmd
}

func permissionSet(names []string, all bool) (*permission.Set, error) {
	set := permission.New()
	if all {
		for _, m := range metric.All() {
			set.Toggle(m, true)
		}
	}
	for _, name := range names {
		m, err := metric.Parse(name)
		if err != nil {
			return nil, err
		}
		set.Toggle(m, true)
	}
	return set, nil
}

// buildGateway seeds store and stacks the gateway decorators: observe
// outermost so it records resilience failures as well.
func buildGateway(ctx context.Context, cfg config.Config, store gateway.Store, obs observe.Observer, flags fetchFlags) (gateway.Gateway, error) {
	lc, err := cfg.LocalConfig()
	if err != nil {
		return nil, err
	}

	if cfg.Store.Fixture != "" {
		fx, err := fixture.Load(cfg.Store.Fixture)
		if err != nil {
			return nil, err
		}
		if err := fx.Apply(ctx, store, time.Now().In(lc.Location)); err != nil {
			return nil, err
		}
		lc.Unsupported = append(lc.Unsupported, fx.Unsupported...)
	}
	if flags.deny {
		lc.Consent = gateway.DenyAll(flags.reason)
	}

	var gw gateway.Gateway = gateway.NewLocal(store, lc)
	if cfg.Resilience.Enabled() {
		gw = resilience.WrapGateway(gw, resilience.NewExecutorFromConfig(cfg.Resilience))
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, err
	}
	return mw.Wrap(gw), nil
}

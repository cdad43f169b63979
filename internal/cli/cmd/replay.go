package cmd

import (
	"sort"
	"strconv"

	"securesvc-core/internal/cli"
	"securesvc-core/internal/config/schema"
	"securesvc-core/internal/core/events"
	corelog "securesvc-core/internal/core/log"
	"securesvc-core/internal/core/metrics"
	"securesvc-core/internal/secure/diag"
	"securesvc-core/internal/secure/router"

	"github.com/spf13/cobra"
)

func newReplayCmd() *cobra.Command {
	var (
		concurrent bool
		noColor    bool
		showStats  bool
	)

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a negotiation scenario against the router",
		Long: `Replay binds in-process connections, delivers protect results and
handshake data from a YAML scenario, then prints the handshakes the
protocol engine was asked to start.

Scenario steps:
  bind              bind a new connection with a protocol engine
  bind_no_engine    bind a new connection whose engine is not ready
  unbind            drop the current connection
  protect           service + outcome (name or numeric code)
  data              service + hex payload`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer corelog.Close()

			sc, err := cli.LoadScenario(args[0])
			if err != nil {
				return err
			}

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			report, err := cli.NewReplayer(rt.router, rt.recorder, corelog.Default()).
				Run(cmd.Context(), sc, concurrent)
			if err != nil {
				return err
			}

			out := cli.NewOutput(cmd.OutOrStdout(), noColor)
			cli.PrintReport(out, report)
			if showStats && rt.metrics != nil {
				printMetrics(out, rt.metrics)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&concurrent, "concurrent", false, "Deliver results between bind steps concurrently")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&showStats, "stats", false, "Print router counters")
	return cmd
}

// runtime 按配置组装的路由及其附属组件
type runtime struct {
	router   *router.Router
	bus      events.EventBus
	metrics  *metrics.MemoryMetrics
	recorder *diag.Recorder
}

func newRuntime(cfg *schema.Root) (*runtime, error) {
	rt := &runtime{}
	routerCfg := &router.Config{
		Logger:              corelog.Default(),
		PayloadPreviewBytes: cfg.Router.PayloadPreviewBytes,
	}

	if cfg.Router.Metrics {
		rt.metrics = metrics.NewMemoryMetrics()
		routerCfg.Metrics = rt.metrics
	}

	if cfg.Router.PublishEvents {
		rt.bus = events.NewEventBus(corelog.Default())
		routerCfg.Events = rt.bus

		if cfg.Diagnostics.Enabled {
			recorder, err := diag.NewRecorder(cfg.Diagnostics.HistorySize)
			if err != nil {
				rt.close()
				return nil, err
			}
			if _, err := recorder.Attach(rt.bus); err != nil {
				rt.close()
				return nil, err
			}
			rt.recorder = recorder
		}
	}

	rt.router = router.New(routerCfg)
	return rt, nil
}

func (rt *runtime) close() {
	if rt.bus != nil {
		_ = rt.bus.Close()
	}
	if rt.metrics != nil {
		_ = rt.metrics.Close()
	}
}

func printMetrics(out *cli.Output, m *metrics.MemoryMetrics) {
	out.Section("Counters")
	snapshot := m.Snapshot()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.KeyValue(k, strconv.FormatFloat(snapshot[k], 'f', -1, 64))
	}
}

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/askiada/go-octopus/pkg/drawer"
	"github.com/askiada/go-octopus/pkg/engine/measure"
	"github.com/askiada/go-octopus/pkg/runtime"
)

type runOptions struct {
	duration    time.Duration
	metricsAddr string
	drawOutput  string
	summary     bool
}

func newRunCmd(get func() *app) *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run <model>",
		Short: "Compile a model and run it until its sources are exhausted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModel(cmd, get(), args[0], opts)
		},
	}
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", 0, "stop after this long, 0 waits for the sources")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	cmd.Flags().StringVar(&opts.drawOutput, "draw", "", "write the measured graph as DOT to this file")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print per statement metrics when done")

	return cmd
}

func runModel(cmd *cobra.Command, a *app, ref string, opts runOptions) error {
	m, err := a.loadModel(ref)
	if err != nil {
		return err
	}
	rt, err := a.compiler(cmd).Compile(m)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	addr := opts.metricsAddr
	if addr == "" {
		addr = a.cfg.Metrics.Address
	}
	if addr != "" {
		shutdown, err := serveMetrics(addr, a.cfg.Metrics.Namespace, rt.Measure())
		if err != nil {
			return err
		}
		defer shutdown()
		a.logger.Info("serving metrics", "address", addr)
	}

	err = rt.Start(ctx)
	if err != nil {
		return err
	}
	err = rt.Wait(ctx)
	rt.Shutdown()
	switch {
	case err == nil:
		a.logger.Info("model completed", "model", m.Name())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		a.logger.Info("model stopped", "model", m.Name(), "reason", err)
	default:
		return err
	}

	if opts.summary {
		err = printSummary(cmd, rt)
		if err != nil {
			return err
		}
	}
	if opts.drawOutput != "" {
		d, err := drawer.FromModel(m)
		if err != nil {
			return err
		}
		err = d.AddMeasure(rt)
		if err != nil {
			return err
		}

		return writeDOT(cmd, d, opts.drawOutput)
	}

	return nil
}

func serveMetrics(addr, namespace string, msr measure.Measure) (func(), error) {
	registry := prometheus.NewRegistry()
	err := registry.Register(measure.NewCollector(namespace, msr))
	if err != nil {
		return nil, errors.Wrap(err, "unable to register collector")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to listen on %s", addr)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		err := srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// printSummary lists the statements from the slowest to the fastest.
func printSummary(cmd *cobra.Command, rt *runtime.ProcessingRuntime) error {
	msr := rt.Measure()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATEMENT\tEVENTS\tDROPPED\tAVG\tWAIT\tCAPACITY\tEND")
	for _, f := range measure.Bottlenecks(msr) {
		mt := msr.Metric(f.Statement)
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			f.Statement, mt.Events(), mt.Dropped(), f.Processing, f.Waiting, f.Capacity, mt.GetTotalDuration())
	}

	return w.Flush()
}

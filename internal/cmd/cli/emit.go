package cli

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/wayneeseguin/platformlog/internal/config"
	"github.com/wayneeseguin/platformlog/internal/metrics"
	"github.com/wayneeseguin/platformlog/pkg/platformlog"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// pipeline is a logger built for one command together with its metrics.
type pipeline struct {
	logger  *platformlog.Logger
	metrics *metrics.Collector
	release func() error
}

func (p *pipeline) Close() error {
	err := p.logger.Close()
	if rerr := p.release(); err == nil {
		err = rerr
	}
	return err
}

// failures returns the number of events lost by sinks so far.
func (p *pipeline) failures() uint64 {
	return p.metrics.GetMetrics().ErrorCount
}

// buildPipeline builds a logger from cfg. Console output goes to the
// command's writers.
func buildPipeline(cmd *cobra.Command, cfg *config.Config) (*pipeline, error) {
	diag, release, err := cfg.Diagnostics()
	if err != nil {
		return nil, err
	}

	b, err := cfg.Builder(diag, platformlog.WithConsoleWriters(cmd.OutOrStdout(), cmd.ErrOrStderr()))
	if err != nil {
		_ = release()
		return nil, err
	}

	collector := metrics.NewCollector()
	logger, err := b.WithMetrics(collector).Build()
	if err != nil {
		_ = release()
		return nil, err
	}
	return &pipeline{logger: logger, metrics: collector, release: release}, nil
}

func newEmitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit <template> [args...]",
		Short: "Write one event",
		Long:  "Write one event. Arguments are bound to the template's holes in order of first appearance.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applySinkFlags(cmd, cfg); err != nil {
				return err
			}

			levelName, _ := cmd.Flags().GetString("level")
			level, err := types.ParseLevel(levelName)
			if err != nil {
				return err
			}
			pairs, _ := cmd.Flags().GetStringArray("property")
			props, err := parseProperties(pairs)
			if err != nil {
				return err
			}
			exception, _ := cmd.Flags().GetString("exception")

			p, err := buildPipeline(cmd, cfg)
			if err != nil {
				return err
			}

			logger := p.logger
			for k, v := range props {
				logger = logger.WithProperty(k, v)
			}
			if exception != "" {
				logger = logger.WithException(errors.New(exception))
			}

			values := make([]interface{}, 0, len(args)-1)
			for _, a := range args[1:] {
				values = append(values, parseScalar(a))
			}
			logger.Log(level, args[0], values...)

			failed := p.failures()
			if err := p.Close(); err != nil {
				return err
			}
			if failed > 0 {
				return errors.Errorf("%d sink(s) failed to write the event; see diagnostics", failed)
			}
			return nil
		},
	}

	addSinkFlags(cmd)
	cmd.Flags().String("level", "information", "Event level")
	cmd.Flags().StringArray("property", nil, "Additional property as key=value (repeatable)")
	cmd.Flags().String("exception", "", "Attach an exception with this message")
	return cmd
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/wayneeseguin/platformlog/internal/metrics"
	"github.com/wayneeseguin/platformlog/pkg/types"
)

// lineTemplate renders a piped line verbatim; every piped line shares it and
// therefore one event id.
const lineTemplate = "{Line:l}"

// maxLineSize bounds a single piped line.
const maxLineSize = 1 << 20

// splitLevel extracts a leading level marker ("[WRN] text", "warning: text")
// and returns def when the line has none.
func splitLevel(line string, def types.Level) (types.Level, string) {
	trimmed := strings.TrimLeft(line, " \t")

	if strings.HasPrefix(trimmed, "[") {
		if end := strings.IndexByte(trimmed, ']'); end > 1 {
			if level, err := types.ParseLevel(trimmed[1:end]); err == nil {
				return level, strings.TrimLeft(trimmed[end+1:], " \t")
			}
		}
		return def, line
	}

	if head, rest, ok := strings.Cut(trimmed, ":"); ok && len(head) <= len("information") && !strings.ContainsAny(head, " \t") {
		if level, err := types.ParseLevel(head); err == nil {
			return level, strings.TrimLeft(rest, " \t")
		}
	}
	return def, line
}

// serveMetrics exposes collector on addr at /metrics until stop is called.
func serveMetrics(addr string, collector *metrics.Collector) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen on %s", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return ln.Addr().String(), stop, nil
}

func newPipeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipe",
		Short: "Write one event per line read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applySinkFlags(cmd, cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
			}

			levelName, _ := cmd.Flags().GetString("level")
			def, err := types.ParseLevel(levelName)
			if err != nil {
				return err
			}
			asTemplate, _ := cmd.Flags().GetBool("as-template")

			p, err := buildPipeline(cmd, cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			if cfg.MetricsAddr != "" {
				addr, stop, err := serveMetrics(cfg.MetricsAddr, p.metrics)
				if err != nil {
					return err
				}
				defer stop()
				fmt.Fprintf(cmd.ErrOrStderr(), "serving metrics on http://%s/metrics\n", addr)
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 64*1024), maxLineSize)

			var lines int
			for scanner.Scan() {
				line := scanner.Text()
				if strings.TrimSpace(line) == "" {
					continue
				}
				level, text := splitLevel(line, def)
				if asTemplate {
					p.logger.Log(level, text)
				} else {
					p.logger.Log(level, lineTemplate, text)
				}
				lines++
			}
			if err := scanner.Err(); err != nil {
				return errors.Wrap(err, "read stdin")
			}

			if failed := p.failures(); failed > 0 {
				return errors.Errorf("%d of %d lines were not written by every sink; see diagnostics", failed, lines)
			}
			return nil
		},
	}

	addSinkFlags(cmd)
	cmd.Flags().String("level", "information", "Level for lines without a level prefix")
	cmd.Flags().Bool("as-template", false, "Treat each line as a message template")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while piping")
	return cmd
}

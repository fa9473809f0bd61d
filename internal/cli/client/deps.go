package client

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/podquery/internal/cli"
	"github.com/cloo-solutions/podquery/internal/config"
	"github.com/cloo-solutions/podquery/internal/interpreter"
	"github.com/cloo-solutions/podquery/internal/llm"
	"github.com/cloo-solutions/podquery/internal/logging"
	"github.com/cloo-solutions/podquery/internal/pipeline"
	"github.com/cloo-solutions/podquery/internal/podcastindex"
	"github.com/cloo-solutions/podquery/internal/session"
)

// deps holds what a command needs to build clients. Every client built
// from the same deps shares one session history.
type deps struct {
	cfg        *config.Config
	logger     zerolog.Logger
	history    *session.History
	outputJSON bool
	out        io.Writer
	closers    []io.Closer
}

func loadDeps(cmd *cobra.Command) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	outputJSON, _ := cmd.Flags().GetBool("output")

	return &deps{
		cfg:        cfg,
		logger:     logging.NewConsole(cmd.ErrOrStderr(), debug || cfg.Debug),
		history:    session.NewHistory(),
		outputJSON: outputJSON,
		out:        cmd.OutOrStdout(),
	}, nil
}

// Close releases every client the deps built.
func (d *deps) Close() {
	for _, c := range d.closers {
		_ = c.Close()
	}
	d.closers = nil
}

// interpreter builds an interpreter over t, or over the live transport
// when t is nil.
func (d *deps) interpreter(t llm.Transport) (*interpreter.Client, error) {
	if t == nil {
		var err error
		if t, err = cli.ModelTransport(d.cfg); err != nil {
			return nil, err
		}
	}

	client := interpreter.NewClient(t, interpreter.Config{
		Model:     d.cfg.Model,
		MaxTokens: d.cfg.MaxReplyTokens,
		Timeout:   d.cfg.RequestTimeout,
		History:   d.history,
		Logger:    d.logger,
	})
	d.closers = append(d.closers, client)
	return client, nil
}

func (d *deps) searcher() (*podcastindex.Client, error) {
	if err := d.cfg.RequireSearch(); err != nil {
		return nil, err
	}

	client, err := podcastindex.NewClient(podcastindex.Config{
		APIKey:    d.cfg.PodcastIndexAPIKey,
		APISecret: d.cfg.PodcastIndexAPISecret,
		BaseURL:   d.cfg.PodcastIndexBaseURL,
		UserAgent: d.cfg.UserAgent,
		Timeout:   d.cfg.RequestTimeout,
		History:   d.history,
		Logger:    d.logger,
	})
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, client)
	return client, nil
}

// pipeline wires an interpreter and, when withSearch is set, a searcher.
func (d *deps) pipeline(t llm.Transport, withSearch bool) (*pipeline.Pipeline, error) {
	interp, err := d.interpreter(t)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{MaxResults: d.cfg.MaxResults, Logger: d.logger}
	if withSearch {
		searcher, err := d.searcher()
		if err != nil {
			return nil, err
		}
		opts.Searcher = searcher
	}
	return pipeline.New(interp, opts), nil
}

// serverURL returns the daemon URL from --server or the environment.
func serverURL(cmd *cobra.Command) string {
	if url, _ := cmd.Flags().GetString("server"); url != "" {
		return url
	}
	return os.Getenv(envServerURL)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sniku/gowiki/tools"
)

const serverInstructions = `Tools for reading and editing a MediaWiki.

Available tools:
- wiki_search: Full-text search for pages
- wiki_get_page: Read the wikitext of a page
- wiki_save_page: Replace the content of a page (skips unchanged content)
- wiki_append: Add a line at the bottom of a page
- wiki_log: Add a timestamped line at the bottom of a page
- wiki_move_page: Rename a page
- wiki_upload_file: Upload a local file

Configure via ~/.config/wiki_client.conf or MEDIAWIKI_* environment variables.`

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "wiki [article | /phrase]",
		Short: "Terminal client for MediaWiki",
		Long: `wiki opens MediaWiki articles in your editor and saves them back when they change.

Without arguments it starts an interactive shell. With an article title it opens
the article, then starts the shell. Text piped to stdin is appended to the article
before it is opened.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return a.init(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRoot(cmd.Context(), args)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.config/wiki_client.conf)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "show a diff before saving and log debug output")

	root.AddCommand(
		&cobra.Command{
			Use:   "go <article>",
			Short: "Open an article in the editor, then start the shell",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.openArticle(cmd.Context(), strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "search <phrase>",
			Short: "Search articles, then start the shell",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.shell.Search(cmd.Context(), strings.Join(args, " ")); err != nil {
					return err
				}
				return a.shell.Run(cmd.Context(), a.in)
			},
		},
		&cobra.Command{
			Use:   "cat <article>",
			Short: "Print an article",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.shell.Cat(cmd.Context(), strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "append <article> <text>",
			Short: "Add text on a new line at the bottom of an article",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.shell.Append(cmd.Context(), args[0], strings.Join(args[1:], " "))
			},
		},
		&cobra.Command{
			Use:   "log <article> <text>",
			Short: "Add a timestamped line at the bottom of an article",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.shell.Log(cmd.Context(), args[0], strings.Join(args[1:], " "))
			},
		},
		a.moveCmd(),
		&cobra.Command{
			Use:   "upload <filepath> [<alt_filename>]",
			Short: "Upload a file",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				alt := ""
				if len(args) == 2 {
					alt = args[1]
				}
				return a.shell.Upload(cmd.Context(), args[0], alt)
			},
		},
		a.serveCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", Name, Version)
			},
		},
	)
	return root
}

func (a *app) moveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv <article> <new_name>",
		Short: "Rename an article",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell.Move(cmd.Context(), args[0], args[1], a.leaveRedirect)
		},
	}
	cmd.Flags().BoolVar(&a.leaveRedirect, "leave-redirect", false, "keep a redirect at the old title")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wiki operations as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

// runRoot routes the bare `wiki` invocation
func (a *app) runRoot(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.shell.Run(ctx, a.in)
	}

	target := strings.Join(args, " ")
	if strings.HasPrefix(target, "/") {
		if err := a.shell.Search(ctx, target[1:]); err != nil {
			return err
		}
		return a.shell.Run(ctx, a.in)
	}

	return a.openArticle(ctx, target)
}

// openArticle edits title and then starts the shell. Piped stdin is appended
// to the article instead and never read as shell commands.
func (a *app) openArticle(ctx context.Context, title string) error {
	if !a.stdinIsTerminal() {
		piped, err := io.ReadAll(a.in)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		return a.shell.AppendAndEdit(ctx, title, strings.TrimRight(string(piped), "\n"))
	}

	if err := a.shell.Go(ctx, title); err != nil {
		return err
	}
	return a.shell.Run(ctx, a.in)
}

// serve runs the MCP server on stdio until the client disconnects
func (a *app) serve(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    Name,
		Version: Version,
	}, &mcp.ServerOptions{
		Logger:       a.logger,
		Instructions: serverInstructions,
	})
	tools.NewHandlerRegistry(a.client, a.logger).RegisterAll(server)

	if a.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer := &http.Server{
			Addr:              a.metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Metrics server failed", "addr", a.metricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
		a.logger.Info("Serving metrics", "addr", a.metricsAddr)
	}

	a.logger.Info("Starting MCP server",
		"name", Name,
		"version", Version,
		"wiki_url", a.cfg.URL,
	)
	return server.Run(ctx, &mcp.StdioTransport{})
}

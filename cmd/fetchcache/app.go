package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/pretty"
	"github.com/urfave/cli/v3"

	"github.com/unkn0wn-root/fetchcache"
	"github.com/unkn0wn-root/fetchcache/config"
	apexlog "github.com/unkn0wn-root/fetchcache/log/apex"
	"github.com/unkn0wn-root/fetchcache/transport/httptransport"
)

type app struct {
	stdout io.Writer
	stderr io.Writer

	client fetchcache.Client
	owned  bool // client was built by open and is closed after the command
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	return (&app{stdout: stdout, stderr: stderr}).command()
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "fetchcache",
		Usage:     "fetch API endpoints through the request cache",
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default: $" + config.EnvConfig + " or fetchcache.yaml in XDG_CONFIG_HOME/APPDATA/HOME)",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "API base URL; overrides config and $" + config.EnvBaseURL,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error; overrides config and $" + config.EnvLog,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "fetch an endpoint and print its payload",
				UsageText: "fetchcache get <endpoint> [--params JSON] [--no-cache]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "params", Aliases: []string{"p"}, Usage: "request params as a JSON object"},
					&cli.BoolFlag{Name: "no-cache", Usage: "bypass the cache entirely"},
				},
				Action: a.get,
			},
			{
				Name:      "clear",
				Usage:     "drop cached entries",
				UsageText: "fetchcache clear [--endpoint E ...]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "endpoint", Aliases: []string{"e"}, Usage: "only clear keys starting with this endpoint"},
				},
				Action: a.clear,
			},
			{
				Name:      "approve",
				Usage:     "set a transaction's approval and patch cached listings",
				UsageText: "fetchcache approve <transactionID> <true|false>",
				Action:    a.approve,
			},
			{
				Name:      "keys",
				Usage:     "list cached keys with size and age",
				UsageText: "fetchcache keys [--prefix P]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "only keys starting with this literal prefix"},
				},
				Action: a.keys,
			},
		},
		After: func(ctx context.Context, _ *cli.Command) error {
			return a.close(ctx)
		},
	}
}

// open builds the client from config on first use.
func (a *app) open(ctx context.Context, cmd *cli.Command) (fetchcache.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("base-url") {
		cfg.BaseURL = cmd.String("base-url")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}

	l, err := newLogger(a.stderr, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	tr, err := httptransport.New(httptransport.Config{BaseURL: cfg.BaseURL})
	if err != nil {
		return nil, err
	}
	st, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	c, err := fetchcache.New(cfg.Options(st, tr, apexlog.Logger{L: l}))
	if err != nil {
		_ = st.Close(ctx)
		return nil, err
	}
	l.WithFields(log.Fields{"provider": cfg.Provider, "index": cfg.Index, "codec": cfg.Codec, "source": cfg.Source}).Debug("cache ready")

	a.client, a.owned = c, true
	return c, nil
}

func (a *app) close(ctx context.Context) error {
	if a.client == nil || !a.owned {
		return nil
	}
	err := a.client.Close(ctx)
	a.client, a.owned = nil, false
	return err
}

func (a *app) get(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: fetchcache get <endpoint> [--params JSON] [--no-cache]")
	}
	ep, err := fetchcache.ParseEndpoint(cmd.Args().First())
	if err != nil {
		return err
	}
	params, err := parseParams(ep, cmd.String("params"))
	if err != nil {
		return err
	}

	c, err := a.open(ctx, cmd)
	if err != nil {
		return err
	}
	var raw json.RawMessage
	if cmd.Bool("no-cache") {
		raw, err = c.FetchNoCache(ctx, ep, params)
	} else {
		raw, err = c.Fetch(ctx, ep, params)
	}
	if err != nil {
		return err
	}
	_, err = cmd.Root().Writer.Write(pretty.Pretty(raw))
	return err
}

// parseParams decodes s into the endpoint's params type so the cache key
// matches the one library callers produce. An empty s means no params.
func parseParams(ep fetchcache.Endpoint, s string) (any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	p := ep.NewParams()
	if p == nil {
		return nil, fmt.Errorf("endpoint %s takes no params", ep)
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("invalid params for %s: %w", ep, err)
	}
	return p, nil
}

func (a *app) clear(ctx context.Context, cmd *cli.Command) error {
	var eps []fetchcache.Endpoint
	for _, s := range cmd.StringSlice("endpoint") {
		ep, err := fetchcache.ParseEndpoint(s)
		if err != nil {
			return err
		}
		eps = append(eps, ep)
	}

	c, err := a.open(ctx, cmd)
	if err != nil {
		return err
	}
	if len(eps) == 0 {
		return c.ClearCache(ctx)
	}
	return c.ClearCacheByEndpoint(ctx, eps...)
}

func (a *app) approve(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return errors.New("usage: fetchcache approve <transactionID> <true|false>")
	}
	id := cmd.Args().Get(0)
	value, err := strconv.ParseBool(cmd.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid approval value %q", cmd.Args().Get(1))
	}

	c, err := a.open(ctx, cmd)
	if err != nil {
		return err
	}
	params := fetchcache.SetTransactionApprovalParams{TransactionID: id, Value: value}
	if _, err := c.FetchNoCache(ctx, fetchcache.EndpointSetTransactionApproval, params); err != nil {
		return err
	}
	if err := c.UpdateCacheOnTransactionApproval(ctx, id, value); err != nil {
		return fmt.Errorf("approval saved but cache not fully patched: %w", err)
	}
	fmt.Fprintf(cmd.Root().Writer, "transaction %s approved=%t\n", id, value)
	return nil
}

func (a *app) keys(ctx context.Context, cmd *cli.Command) error {
	c, err := a.open(ctx, cmd)
	if err != nil {
		return err
	}
	keys, err := c.Keys(ctx, cmd.String("prefix"))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tSTORED")
	for _, k := range keys {
		e, ok, err := c.Entry(ctx, k)
		if err != nil {
			return err
		}
		if !ok {
			continue // expired since listing
		}
		age := "-"
		if !e.StoredAt.IsZero() {
			age = humanize.Time(e.StoredAt)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k, humanize.Bytes(uint64(e.Size)), age)
	}
	return tw.Flush()
}

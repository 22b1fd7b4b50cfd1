package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fleamarket.gg/internal/market/catalogs"
	"fleamarket.gg/internal/persistence/indexdb"
	"fleamarket.gg/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "state", "sweep", "snapshot":
			remoteCmd(os.Args[1], os.Args[2:])
			return
		case "prices":
			pricesCmd(os.Args[2:])
			return
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints the snapshot files in the data dir with their headers.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	dir := filepath.Join(*dataDir, "snapshots")
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".snap.zst") {
			continue
		}
		h, err := snapshot.ReadHeader(filepath.Join(dir, e.Name()))
		if err != nil {
			fmt.Printf("%s\t(unreadable: %v)\n", e.Name(), err)
			continue
		}
		fmt.Printf("%s\tcreated_at=%d offers=%d profiles=%d\n", e.Name(), h.CreatedAt, h.Offers, h.Profiles)
	}
}

func remoteCmd(name string, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")
	_ = fs.Parse(args)

	c := newAdminClient(*baseURL, *timeout)
	var (
		out json.RawMessage
		err error
	)
	switch name {
	case "state":
		out, err = c.State()
	case "sweep":
		out, err = c.Sweep()
	case "snapshot":
		out, err = c.Snapshot()
	}
	if len(out) > 0 {
		fmt.Println(strings.TrimSpace(string(out)))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
}

func pricesCmd(args []string) {
	fs := flag.NewFlagSet("prices", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	configDir := fs.String("configs", "./configs", "config directory (for item names and handbook prices)")
	xlsx := fs.String("xlsx", "", "write an xlsx report to this path instead of printing")
	tpl := fs.String("tpl", "", "print the market quote of one tpl")
	_ = fs.Parse(args)

	c := newAdminClient(*baseURL, 30*time.Second)
	if *tpl != "" {
		out, err := c.MarketPrice(*tpl)
		if len(out) > 0 {
			fmt.Println(strings.TrimSpace(string(out)))
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "request:", err)
			os.Exit(1)
		}
		return
	}

	prices, err := c.Prices()
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	cats, err := catalogs.Load(filepath.Join(*configDir, "catalogs"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "catalogs (names omitted):", err)
		cats = nil
	}
	rows := priceRows(prices, cats)
	if *xlsx == "" {
		for _, r := range rows {
			printJSON(map[string]any{"tpl": r.Tpl, "name": r.Name, "flea": r.Flea, "handbook": r.Handbook})
		}
		return
	}
	if err := writePriceReport(*xlsx, rows); err != nil {
		fmt.Fprintln(os.Stderr, "report:", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d prices to %s\n", len(rows), *xlsx)
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	event := fs.String("event", "", "event filter (created, removed, extended, sold, expired)")
	tpl := fs.String("tpl", "", "item tpl filter")
	profile := fs.String("profile", "", "profile id filter")
	since := fs.Int64("since", 0, "unix seconds lower bound")
	summary := fs.Bool("summary", false, "print per-event totals instead of entries")
	_ = fs.Parse(args)

	entries, err := readAudit(*dataDir, auditFilter{Event: *event, Tpl: *tpl, ProfileID: *profile, Since: *since})
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	if *summary {
		for _, s := range summarize(entries) {
			printJSON(s)
		}
		return
	}
	for _, e := range entries {
		printJSON(e)
	}
}

// dbCmd queries the event index: events (default), totals or snapshots.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index/ragfair.sqlite)")
	limit := fs.Int("limit", 20, "result limit")
	event := fs.String("event", "", "event filter")
	tpl := fs.String("tpl", "", "item tpl filter")
	profile := fs.String("profile", "", "profile id filter")
	_ = fs.Parse(args)

	q := "events"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "ragfair.sqlite")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer idx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch q {
	case "events":
		rows, err := idx.Events(ctx, indexdb.EventFilter{Event: *event, Tpl: *tpl, ProfileID: *profile, Limit: *limit})
		exitOn(err)
		for _, r := range rows {
			printJSON(r)
		}
	case "totals":
		rows, err := idx.Totals(ctx)
		exitOn(err)
		for _, r := range rows {
			printJSON(r)
		}
	case "snapshots":
		rows, err := idx.Snapshots(ctx, *limit)
		exitOn(err)
		for _, r := range rows {
			printJSON(r)
		}
	case "catalogs":
		for _, name := range []string{"items", "handbook", "prices", "traders", "tuning"} {
			d, err := idx.CatalogDigest(ctx, name)
			exitOn(err)
			printJSON(map[string]string{"name": name, "digest": d})
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		os.Exit(2)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

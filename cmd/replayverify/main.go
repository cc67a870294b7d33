// Command replayverify replays a recorded HTTP session against either a
// live target service or a contract-derived template engine, and
// produces a field-level compatibility report (§6.3).
//
// Replaces the original session-lifecycle call sequence (start → attach
// → enable → subscribe → run) with load-session → build-engine → run →
// report. Uses stdlib `flag`: no retrieved repo in the pack depends on a
// CLI framework such as cobra/urfave-cli, so stdlib `flag` is the
// grounded choice for an actual flag surface.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"replayverify/internal/config"
	"replayverify/internal/contract"
	"replayverify/internal/history"
	ilog "replayverify/internal/log"
	"replayverify/internal/rendercontext"
	"replayverify/internal/replay"
	"replayverify/internal/report"
	"replayverify/internal/router"
	"replayverify/internal/sessionio"
	"replayverify/internal/template"
	"replayverify/pkg/model"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: replayverify <replay|tag|session> ...")
		return 1
	}

	switch args[0] {
	case "replay":
		return runReplay(args[1:])
	case "tag":
		return runTag(args[1:])
	case "session":
		return runSession(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		return 1
	}
}

func runReplay(args []string) int {
	fs := newFlagSet("replay")
	contractPath := fs.String("contract", "", "OpenAPI contract file for template-synthesized replay")
	output := fs.String("output", "", "report output file (stdout if empty)")
	format := fs.String("format", "text", "report format: json|text")
	threshold := fs.Float64("threshold", 100, "minimum compatibility score (0-100)")
	noDynamic := fs.Bool("no-dynamic", false, "disable template-synthesized responses, always call the live target")
	configPath := fs.String("config", "", "config file (.yaml/.yml/.json)")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	failOnThreshold := fs.Bool("fail-on-threshold", false, "exit 1 when the compatibility score is below --threshold")
	strict := fs.Bool("strict", false, "use strict comparison mode (no tolerances)")
	tolerant := fs.Bool("tolerant", false, "use tolerant comparison mode (permissive tolerances)")
	preloadTemplates := fs.Bool("preload-templates", false, "compile every route's template before replay begins")
	performance := fs.Bool("performance", false, "include router/template performance metrics in the report")
	filterMethods := fs.String("filter-methods", "", "comma-separated HTTP methods to replay")
	filterRoutes := fs.String("filter-routes", "", "comma-separated route globs to replay")
	filterTags := fs.String("filter-tags", "", "comma-separated interaction tags to replay")
	filterSessionTags := fs.String("filter-session-tags", "", "comma-separated session tags to replay")
	targetBaseURL := fs.String("target", "", "base URL of the live target service")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: replayverify replay [flags] <sessionFile>")
		return 1
	}
	sessionFile := fs.Arg(0)

	if *verbose {
		ilog.Set(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	logger := ilog.Default()

	cfg := config.New()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load config:", err)
			return 1
		}
		cfg = loaded
	}
	if *targetBaseURL != "" {
		cfg.TargetBaseURL = *targetBaseURL
	}
	if *contractPath != "" {
		cfg.ContractFile = *contractPath
	}

	session, err := sessionio.Load(sessionFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load session:", err)
		return 1
	}

	mode := cfg.Mode
	switch {
	case *strict:
		mode = model.ModeStrict
	case *tolerant:
		mode = model.ModeTolerant
	}

	resolver := router.New()
	compiler := template.New(template.NewRegistry())
	ctxBuilder := rendercontext.New(logger)

	if cfg.ContractFile != "" {
		raw, err := os.ReadFile(cfg.ContractFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read contract:", err)
			return 1
		}
		importer := contract.New(cfg.DuplicateStatusPolicy(), cfg.Contract.PreferredStatus)
		if err := importer.Import(raw, resolver); err != nil {
			fmt.Fprintln(os.Stderr, "import contract:", err)
			return 1
		}
	}

	if *preloadTemplates {
		preloadAll(resolver, compiler)
	}

	engine := replay.New(resolver, compiler, ctxBuilder, nil, logger)

	var filter *model.FilterSpec
	if *filterMethods != "" || *filterRoutes != "" || *filterTags != "" || *filterSessionTags != "" {
		filter = &model.FilterSpec{
			Methods:     splitCSV(*filterMethods),
			Routes:      splitCSV(*filterRoutes),
			Tags:        splitCSV(*filterTags),
			SessionTags: splitCSV(*filterSessionTags),
		}
	}

	opts := replay.Options{
		UseDynamicResponses: !*noDynamic && cfg.ContractFile != "",
		TargetBaseURL:       cfg.TargetBaseURL,
		Mode:                mode,
		Tolerance:           cfg.Tolerance,
		Filter:              filter,
	}

	result, err := engine.Replay(context.Background(), session, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		return 1
	}
	result.ContractFile = cfg.ContractFile

	if *performance {
		metrics := resolver.Metrics()
		stats := compiler.Stats()
		result.Performance = &model.PerformanceStats{
			CacheHits:            metrics.CacheHits,
			CacheMisses:          metrics.CacheMisses,
			TemplateCompilations: stats.Compilations,
		}
	} else {
		result.Performance = nil
	}

	if err := recordHistory(result); err != nil {
		logger.Warn("failed to persist run history", "error", err)
	}

	doc := report.Build(result)
	if err := writeReport(doc, *output, *format); err != nil {
		fmt.Fprintln(os.Stderr, "write report:", err)
		return 1
	}

	if mode == model.ModeStrict && result.Summary.Compatible != result.Summary.Total {
		return 1
	}
	if *failOnThreshold && result.Summary.CompatibilityScore < *threshold {
		return 1
	}
	return 0
}

func runTag(args []string) int {
	fs := newFlagSet("tag")
	tag := fs.String("tag", "", "tag to add to every interaction in the session")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 || *tag == "" {
		fmt.Fprintln(os.Stderr, "usage: replayverify tag --tag <tag> <sessionFile>")
		return 1
	}
	sessionFile := fs.Arg(0)

	session, err := sessionio.Load(sessionFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load session:", err)
		return 1
	}

	for i := range session.Interactions {
		session.Interactions[i].Tags = append(session.Interactions[i].Tags, *tag)
	}

	file := sessionio.ToFile(session)
	if err := sessionio.Save(sessionFile, file); err != nil {
		fmt.Fprintln(os.Stderr, "save session:", err)
		return 1
	}
	return 0
}

func runSession(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: replayverify session <list|show> ...")
		return 1
	}

	db, err := history.Open()
	if err != nil {
		fmt.Fprintln(os.Stderr, "open history db:", err)
		return 1
	}
	defer db.Close()
	repo := history.NewRepo(db)
	defer repo.Stop()

	switch args[0] {
	case "list":
		records, err := repo.List(100)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list runs:", err)
			return 1
		}
		for _, r := range records {
			fmt.Printf("%s\t%s\t%s\tscore=%.2f\truns=%s\n",
				r.RunAt.Format(time.RFC3339), r.SessionID, r.ComparisonMode, r.CompatibilityScore, r.RunAt.Format(time.Kitchen))
		}
		return 0
	case "show":
		fs := newFlagSet("session show")
		if err := fs.Parse(args[1:]); err != nil {
			return 1
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "usage: replayverify session show <sessionId>")
			return 1
		}
		records, err := repo.ListBySession(fs.Arg(0), 10)
		if err != nil {
			fmt.Fprintln(os.Stderr, "show session:", err)
			return 1
		}
		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "no runs recorded for session", fs.Arg(0))
			return 1
		}
		fmt.Println(records[0].ReportJSON)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown session subcommand %q\n", args[0])
		return 1
	}
}

func recordHistory(result *model.SessionResult) error {
	db, err := history.Open()
	if err != nil {
		return err
	}
	repo := history.NewRepo(db)
	defer repo.Stop()
	defer db.Close()

	if err := repo.Record(result); err != nil {
		return err
	}
	repo.Flush()
	return nil
}

func writeReport(doc *report.Document, output, format string) error {
	w := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		return writeFormat(f, doc, format)
	}
	return writeFormat(w, doc, format)
}

func writeFormat(w *os.File, doc *report.Document, format string) error {
	if strings.EqualFold(format, "json") {
		return report.WriteJSON(w, doc)
	}
	return report.WriteText(w, doc)
}

func preloadAll(resolver *router.Resolver, compiler *template.Compiler) {
	for _, route := range resolver.Routes() {
		if route.Template != nil {
			_, _ = compiler.Compile(route.Template)
		}
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

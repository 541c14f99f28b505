package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"simops/internal/bot"
	"simops/internal/config"
	"simops/internal/logger"
	"simops/internal/notify"
	"simops/internal/pipeline"
	"simops/internal/scheduler"
	"simops/internal/sources"
	"simops/internal/sources/sheets"
	"simops/internal/sources/xlsx"
	"simops/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	table, err := config.LoadCarrierTable(cfg.CarrierTablePath)
	must(err)

	cmd := os.Args[1]
	if cmd == "carriers:check" {
		for _, c := range table.Carriers {
			fmt.Printf("%-10s prefix=%s length=%d export=%s\n", c.Label, c.Prefix, c.Length, c.Export)
		}
		fmt.Printf("carrier table ok: %d carriers\n", len(table.Carriers))
		return
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "export:iccid-imei":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		source := fs.String("source", cfg.ExportSource, "sheets|xlsx")
		input := fs.String("input", cfg.ExportXLSXPath, "xlsx path for --source=xlsx")
		out := fs.String("out", cfg.ExportDir, "output directory")
		notifyChat := fs.Bool("notify", false, "send the summary to Pachka")
		_ = fs.Parse(os.Args[2:])
		cfg.ExportSource = *source
		cfg.ExportXLSXPath = *input
		cfg.ExportDir = *out

		src, err := makeSource(ctx, cfg)
		must(err)
		var sink notify.Sink
		if *notifyChat {
			sink = notify.NewPachkaClient(cfg)
		}
		res, err := pipeline.NewExportService(db, cfg, table, src, sink).Run(ctx)
		must(err)
		fmt.Println(res.Summary)
		if len(res.Failed()) > 0 {
			os.Exit(2)
		}
	case "export:listen":
		src, err := makeSource(ctx, cfg)
		must(err)
		exporter := pipeline.NewExportService(db, cfg, table, src, notify.NewPachkaClient(cfg))
		svc := scheduler.NewService(exporter, time.Duration(cfg.ExportIntervalSec)*time.Second)
		must(svc.Run(ctx))
	case "sims:scan":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "OCR fragments file (.txt or .xlsx)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		fragments, err := pipeline.ReadFragments(*input)
		must(err)
		res, err := pipeline.ScanFragments(db, table, fragments, *input)
		must(err)
		for _, card := range res.Cards {
			fmt.Printf("%s\t%s\n", card.Number, card.Operator)
		}
		fmt.Printf("scan done fragments=%d numbers=%d stored=%d\n", res.Fragments, len(res.Cards), res.Stored)
	case "sims:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		operator := fs.String("operator", "", "filter by operator label")
		_ = fs.Parse(os.Args[2:])
		if *operator != "" && *operator != table.UnknownLabel {
			if _, ok := table.ByLabel(*operator); !ok {
				must(fmt.Errorf("unknown operator %q, expected one of %s", *operator, strings.Join(table.Labels(), ", ")))
			}
		}
		rows, err := db.ListScannedSims(*operator)
		must(err)
		for _, r := range rows {
			fmt.Printf("%s\t%s\t%s\t%s\n", r.Number, r.Operator, r.Source, r.CreatedAt)
		}
		fmt.Printf("%d numbers\n", len(rows))
	case "sims:active":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		device := fs.String("device", "", "device name or part of it")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*device) == "" {
			must(fmt.Errorf("--device is required"))
		}
		src, err := makeSource(ctx, cfg)
		must(err)
		sheet, err := src.Rows(ctx)
		must(err)
		report := bot.FindDevice(sheet, bot.ColumnsFromConfig(cfg), *device)
		if len(report.Sims) == 0 {
			must(fmt.Errorf("device %q not found", *device))
		}
		fmt.Println(report.Render(time.Now()))
	case "runs:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		runs, err := db.ListRuns(*limit)
		must(err)
		for _, r := range runs {
			fmt.Printf("%s %s status=%s rows=%d matched=%d unknown=%d skipped=%d %s\n",
				r.Stamp, r.ID, r.Status, r.Rows, r.Matched, r.Unknown, r.Skipped, r.Error)
		}
		if last, err := db.GetMetadata("export.last_stamp"); err == nil && last != nil {
			fmt.Printf("last export: %s\n", *last)
		}
	case "runs:show":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "run id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			must(fmt.Errorf("--id is required"))
		}
		artifacts, err := db.ListArtifacts(*id)
		must(err)
		for _, a := range artifacts {
			status := "ok"
			if a.Error != "" {
				status = "error: " + a.Error
			}
			fmt.Printf("%s\t%s\t%d\t%s\n", a.Carrier, a.Path, a.Records, status)
		}
		unknown, err := db.ListUnknownRows(*id)
		must(err)
		for _, u := range unknown {
			fmt.Printf("%s row=%d iccid=%s imei=%s\n", table.UnknownLabel, u.RowNo, u.ICCID, u.IMEI)
		}
		fmt.Printf("artifacts=%d unknown=%d\n", len(artifacts), len(unknown))
	default:
		usage()
		os.Exit(1)
	}
}

func makeSource(ctx context.Context, cfg config.Config) (sources.RecordSource, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.ExportSource)) {
	case "sheets":
		return sheets.NewSource(ctx, cfg)
	case "xlsx":
		if err := cfg.Require("EXPORT_XLSX_PATH", cfg.ExportXLSXPath); err != nil {
			return nil, err
		}
		return xlsx.NewSource(cfg.ExportXLSXPath, ""), nil
	default:
		return nil, fmt.Errorf("unsupported source: %s", cfg.ExportSource)
	}
}

func usage() {
	fmt.Println("usage: simops <command>")
	fmt.Println("commands:")
	fmt.Println("  export:iccid-imei [--source=sheets|xlsx] [--input=sims.xlsx] [--out=./exports] [--notify]")
	fmt.Println("  export:listen")
	fmt.Println("  sims:scan --input=fragments.txt")
	fmt.Println("  sims:list [--operator=МТС]")
	fmt.Println("  sims:active --device=router1")
	fmt.Println("  runs:list [--limit=20]")
	fmt.Println("  runs:show --id=<run id>")
	fmt.Println("  carriers:check")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

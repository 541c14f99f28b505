package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"simops/internal"
	"simops/internal/carrier"
	"simops/internal/config"
	"simops/internal/logger"
	"simops/internal/notify"
	"simops/internal/sources"
	"simops/internal/storage"
)

type ExportService struct {
	db     *storage.DB
	cfg    config.Config
	table  carrier.Table
	source sources.RecordSource
	sink   notify.Sink
	now    func() time.Time
	log    *zerolog.Logger

	// one run at a time: runs share the export dir and may share a stamp
	mu sync.Mutex
}

type RunResult struct {
	RunID          string
	Stamp          string
	Classification Classification
	Written        []WriteResult
	Pending        []PendingCarrier
	ReportPath     string
	ReportErr      error
	Summary        string
}

// Failed returns the artifacts whose write did not succeed.
func (r RunResult) Failed() []WriteResult {
	out := []WriteResult{}
	for _, w := range r.Written {
		if w.Err != nil {
			out = append(out, w)
		}
	}
	return out
}

// NewExportService wires one export pipeline. db and sink may be nil.
func NewExportService(db *storage.DB, cfg config.Config, table carrier.Table, source sources.RecordSource, sink notify.Sink) *ExportService {
	return &ExportService{
		db:     db,
		cfg:    cfg,
		table:  table,
		source: source,
		sink:   sink,
		now:    time.Now,
		log:    logger.Named("export"),
	}
}

// Run reads the sheet, classifies it and writes one set of carrier files
// sharing a single timestamp. Source and column errors abort the run; file
// write errors are collected per artifact.
// Concurrent calls are serialized.
func (s *ExportService) Run(ctx context.Context) (RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := RunResult{RunID: uuid.NewString(), Stamp: Stamp(s.now())}
	log := s.log.With().Str("run_id", res.RunID).Str("stamp", res.Stamp).Logger()

	sheet, err := s.source.Rows(ctx)
	if err != nil {
		s.recordFailure(res, err)
		return res, fmt.Errorf("read records: %w", err)
	}

	cls, err := Classify(sheet, s.table, ClassifyOptions{IMEIProbe: s.cfg.ExportIMEIProbe, ICCIDColumn: s.cfg.ExportICCIDColumn})
	if err != nil {
		s.recordFailure(res, err)
		return res, err
	}
	res.Classification = cls
	log.Info().
		Int("imei_column", cls.IMEIColumn).
		Int("iccid_column", cls.ICCIDColumn).
		Int("rows", cls.Stats.Rows).
		Int("matched", cls.Stats.Matched).
		Int("unknown", cls.Stats.Unknown).
		Int("skipped", cls.Stats.Skipped).
		Msg("rows classified")

	if s.cfg.ExportCleanDir {
		if err := CleanDir(s.cfg.ExportDir); err != nil {
			log.Warn().Err(err).Str("dir", s.cfg.ExportDir).Msg("clean export dir failed")
		}
	}

	artifacts, pending := Render(s.table, cls, res.Stamp)
	res.Pending = pending
	res.Written = WriteArtifacts(s.cfg.ExportDir, artifacts)
	for _, w := range res.Written {
		if w.Err != nil {
			log.Error().Err(w.Err).Str("carrier", w.Artifact.Carrier).Str("path", w.Artifact.Path).Msg("write failed")
			continue
		}
		log.Info().Str("carrier", w.Artifact.Carrier).Str("path", w.Artifact.Path).Int("records", w.Artifact.Records).Msg("file written")
	}

	if len(cls.Unknown) > 0 {
		res.ReportPath = filepath.Join(s.cfg.ExportDir, fmt.Sprintf("unknown_%s.xlsx", res.Stamp))
		res.ReportErr = ExportUnknownToXLSX(cls.Unknown, res.ReportPath)
		if res.ReportErr != nil {
			log.Error().Err(res.ReportErr).Msg("unknown rows report failed")
		}
	}

	res.Summary = BuildSummary(s.table, res)
	s.recordSuccess(res)

	if s.sink != nil {
		if err := s.sink.Send(ctx, s.cfg.ExportNotifyChat, res.Summary); err != nil {
			log.Warn().Err(err).Msg("summary notification failed")
		}
	}

	return res, nil
}

func (s *ExportService) recordFailure(res RunResult, cause error) {
	if s.db == nil {
		return
	}
	run := internal.ExportRunRow{ID: res.RunID, Stamp: res.Stamp, Status: "failed", Error: cause.Error()}
	if err := s.db.InsertRun(run); err != nil {
		s.log.Warn().Err(err).Msg("store failed run")
	}
}

func (s *ExportService) recordSuccess(res RunResult) {
	if s.db == nil {
		return
	}
	status := "ok"
	if len(res.Failed()) > 0 {
		status = "partial"
	}
	stats := res.Classification.Stats
	run := internal.ExportRunRow{
		ID:      res.RunID,
		Stamp:   res.Stamp,
		Status:  status,
		Rows:    stats.Rows,
		Matched: stats.Matched,
		Skipped: stats.Skipped,
		Unknown: stats.Unknown,
	}
	if err := s.db.InsertRun(run); err != nil {
		s.log.Warn().Err(err).Msg("store run")
		return
	}
	for _, w := range res.Written {
		row := internal.ArtifactRow{RunID: res.RunID, Carrier: w.Artifact.Carrier, Path: w.Artifact.Path, Records: w.Artifact.Records}
		if w.Err != nil {
			row.Error = w.Err.Error()
		}
		if err := s.db.InsertArtifact(row); err != nil {
			s.log.Warn().Err(err).Msg("store artifact")
		}
	}
	if err := s.db.InsertUnknownRows(res.RunID, res.Classification.Unknown); err != nil {
		s.log.Warn().Err(err).Msg("store unknown rows")
	}
	if err := s.db.SetMetadata("export.last_stamp", res.Stamp); err != nil {
		s.log.Warn().Err(err).Msg("store last stamp")
	}
}

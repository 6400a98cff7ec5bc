package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dbexport/internal/archive"
	"dbexport/internal/backupdir"
	"dbexport/internal/config"
	"dbexport/internal/database"
	"dbexport/internal/export"
)

// App is the application layer between the CLI and the export engine. It
// constructs all dependencies from config, exposes the single high-level
// Export operation, and owns the ledger's lifecycle.
type App struct {
	cfg    *config.Config
	ledger database.Ledger
	broker export.StorageBroker
}

// NewApp creates a fully wired App from the given config and the caller's
// StorageBroker (the database-specific collaborator the export engine
// reads through). The caller must call Close when done.
func NewApp(cfg *config.Config, broker export.StorageBroker) (*App, error) {
	ledger, err := database.NewLedgerFromConfig(cfg.Database, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating ledger: %w", err)
	}

	if err := ledger.CheckMigrations(); err != nil {
		ledger.Close()
		return nil, fmt.Errorf("ledger schema out of date: %w", err)
	}

	return &App{cfg: cfg, ledger: ledger, broker: broker}, nil
}

// Close releases the ledger's resources.
func (a *App) Close() error {
	return a.ledger.Close()
}

// Ledger exposes the run ledger for read-only CLI commands (history, status).
func (a *App) Ledger() database.Ledger {
	return a.ledger
}

// SetTargetDir overrides the configured export target directory for the
// next Export call, the way the CLI's --target flag does.
func (a *App) SetTargetDir(dir string) {
	a.cfg.Export.TargetDir = dir
}

// SetZip overrides the configured zip-vs-directory-tree choice.
func (a *App) SetZip(zip bool) {
	a.cfg.Export.Zip = zip
}

// SetMaxIncremental overrides the configured sequence length.
func (a *App) SetMaxIncremental(n int) {
	a.cfg.Export.MaxIncremental = n
}

// ExportResult summarizes one completed run, alongside the ledger row
// recording it.
type ExportResult struct {
	Run         *database.Run
	ArchivePath string
}

// Export runs one export to cfg.Export.TargetDir. When incremental is
// true, it looks for the most recent prior archive in that directory and
// exports only what changed since its recorded date; if none exists, or
// the configured sequence length has been reached, it silently falls back
// to a full backup, matching the reference tool's own seqNr == maxInc
// reset. errorList optionally carries consistency-checker findings so
// damaged collections/documents are skipped rather than exported corrupt.
//
// The ledger row for this run is always finalized before Export returns,
// whatever the outcome — mirroring the reference tool's own
// Close()/FinishBackupOperation pairing, never left in RunStatusRunning.
func (a *App) Export(incremental bool, errorList export.ErrorList) (*ExportResult, error) {
	runID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(a.cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	defer logFile.Close()

	dir := backupdir.NewDirectory(a.cfg.Export.TargetDir)

	var prevManifest export.PriorManifest
	var prevDate time.Time
	var prevArchivePath string
	seqNr := 1

	if incremental {
		last, err := dir.LastBackupFile()
		if err != nil {
			return nil, fmt.Errorf("locating previous backup: %w", err)
		}
		if last != nil {
			seqNr = last.SequenceNr() + 1
			if a.cfg.Export.MaxIncremental > 0 && seqNr > a.cfg.Export.MaxIncremental {
				logger.Info("sequence length reached, forcing full backup", "seqNr", seqNr, "maxIncremental", a.cfg.Export.MaxIncremental)
				seqNr = 1
				incremental = false
			} else {
				prevManifest = last
				prevArchivePath = last.Name()
				prevDate, err = last.Date()
				if err != nil {
					logger.Warn("could not parse previous backup's date, treating as full backup", "error", err)
					prevManifest = nil
					prevArchivePath = ""
					prevDate = time.Time{}
					incremental = false
					seqNr = 1
				}
			}
		} else {
			incremental = false
		}
	}

	archivePath, err := dir.CreateBackup(a.cfg.Export.Zip)
	if err != nil {
		return nil, fmt.Errorf("choosing archive path: %w", err)
	}

	sinkType := "filesystem"
	if a.cfg.Export.Zip {
		sinkType = "zip"
	}
	sink, err := archive.NewSinkFromConfig(archive.Config{Type: sinkType, Path: archivePath, RootPrefix: "db"})
	if err != nil {
		return nil, fmt.Errorf("creating archive sink: %w", err)
	}

	run, err := a.ledger.CreateRun(a.cfg.Export.TargetDir, incremental, a.cfg.Export.Zip, seqNr)
	if err != nil {
		sink.Close()
		return nil, fmt.Errorf("recording run in ledger: %w", err)
	}

	status := newRunStatus(logger)

	finish := func(runStatus database.RunStatus) {
		if err := a.ledger.FinishRun(run.ID, runStatus, status.docs, status.orphans, status.errors, archivePath); err != nil {
			logger.Error("failed to finalize ledger run", "runID", run.ID, "error", err)
		}
		finishedAt := time.Now().UTC()
		run.FinishedAt = &finishedAt
		run.Status = runStatus
		run.DocumentsExported = status.docs
		run.OrphansRescued = status.orphans
		run.ErrorsReported = status.errors
		run.ArchivePath = &archivePath
	}

	scanner := export.NewCollectionScanner(a.broker, sink, status, nil, errorList, prevManifest, prevDate)
	if err := scanner.Scan(); err != nil && err != export.ErrTerminated {
		sink.Close()
		finish(database.RunStatusError)
		return nil, fmt.Errorf("scanning collections: %w", err)
	}
	status.docs = scanner.Docs().Len()

	orphanScanner := export.NewOrphanScanner(a.broker, sink, status, false)
	if err := orphanScanner.Scan(scanner.Docs()); err != nil && err != export.ErrTerminated {
		sink.Close()
		finish(database.RunStatusError)
		return nil, fmt.Errorf("scanning for orphans: %w", err)
	}

	props := map[string]string{
		"date":           time.Now().UTC().Format(export.TimestampLayout),
		"incremental":    boolProperty(incremental),
		"nr-in-sequence": fmt.Sprintf("%d", seqNr),
	}
	if incremental && prevArchivePath != "" {
		props["previous"] = prevArchivePath
	}
	if err := sink.SetProperties(props); err != nil {
		sink.Close()
		finish(database.RunStatusError)
		return nil, fmt.Errorf("writing archive properties: %w", err)
	}

	if err := sink.Close(); err != nil {
		finish(database.RunStatusError)
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}

	finish(database.RunStatusSuccess)

	return &ExportResult{Run: run, ArchivePath: archivePath}, nil
}

func boolProperty(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// orphanMessagePrefix is the exact notice text OrphanScanner.Scan reports
// for each document it rescues — the StatusCallback interface has no
// dedicated hook for "rescued an orphan", so that's the one way to tell it
// apart from an actual scan failure (which also comes through Error).
const orphanMessagePrefix = "Found an orphaned document: "

// runStatus adapts a *slog.Logger to export.StatusCallback and counts the
// documents and errors a run produces, for the ledger's FinishRun summary.
type runStatus struct {
	logger  *slog.Logger
	docs    int
	orphans int
	errors  int
}

func newRunStatus(logger *slog.Logger) *runStatus {
	return &runStatus{logger: logger}
}

func (s *runStatus) StartCollection(path string) {
	s.logger.Info("exporting collection", "uri", path)
}

func (s *runStatus) StartDocument(name string, current, total int) {
	s.logger.Info("exporting document", "name", name, "current", current, "total", total)
}

func (s *runStatus) Error(message string, cause error) {
	if strings.HasPrefix(message, orphanMessagePrefix) {
		s.orphans++
		s.logger.Info(message)
		return
	}
	s.errors++
	if cause != nil {
		s.logger.Warn(message, "error", cause)
	} else {
		s.logger.Warn(message)
	}
}

var _ export.StatusCallback = (*runStatus)(nil)

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cqeops/triage-cli/internal/extract"
	"github.com/cqeops/triage-cli/internal/model"
	"github.com/cqeops/triage-cli/internal/pipeline"
	"github.com/cqeops/triage-cli/internal/report"
)

var (
	processFile    string
	processFromFTP bool
	processMapping string
	processDryRun  bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a daily CQE extract",
	Long:  "Reads the extract, normalizes and classifies every bug, distributes rows across GL/NT/PP, merges the batch into the store, and writes the output workbook and HTML report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path := processFile
		if processFromFTP {
			if cfg.Extract.FTPURL == "" {
				return eris.New("ftp url is required (TRIAGE_EXTRACT_FTP_URL)")
			}
			var err error
			path, err = extract.FetchFTP(ctx, cfg.Extract.FTPURL, os.TempDir(), extract.FTPOptions{
				Timeout: time.Duration(cfg.Extract.TimeoutSecs) * time.Second,
			})
			if err != nil {
				return eris.Wrap(err, "fetch extract")
			}
		}
		if path == "" {
			return eris.New("an extract file is required (--file or --from-ftp)")
		}

		table, mapping, err := readExtract(path)
		if err != nil {
			return err
		}
		if m, err := overrideMapping(); err != nil {
			return err
		} else if m != nil {
			mapping = m
		}

		res, err := pipeline.Process(table, mapping, cfg.Triage.QualifyingProduct)
		if err != nil {
			return eris.Wrap(err, "process extract")
		}

		if processDryRun {
			zap.L().Info("dry run, skipping merge and outputs",
				zap.Int("total", res.Summary.Total),
				zap.Int("excluded", res.Summary.Excluded),
			)
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		inserted, updated, err := st.ImportBatch(ctx, res.Records, nil)
		if err != nil {
			return eris.Wrap(err, "merge batch")
		}

		stamp := time.Now().Format("20060102_150405")
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		workbookPath := filepath.Join(cfg.Output.Dir, fmt.Sprintf("processed_%s_%s.xlsx", stamp, base))
		reportPath := filepath.Join(cfg.Output.Dir, fmt.Sprintf("bug_report_%s.html", stamp))

		if err := report.WriteWorkbook(workbookPath, res); err != nil {
			return err
		}
		if err := report.WriteHTML(reportPath, res); err != nil {
			return err
		}

		run := &model.ImportRun{
			ID:          uuid.New().String(),
			ImportDate:  time.Now().UTC().Format("2006-01-02"),
			TotalBugs:   res.Summary.Total,
			NewBugs:     inserted,
			UpdatedBugs: updated,
			ReportPath:  reportPath,
		}
		if err := st.RecordImport(ctx, run); err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.String("run_id", run.ID),
			zap.Int("total", res.Summary.Total),
			zap.Int("inserted", inserted),
			zap.Int("updated", updated),
			zap.Int("excluded", res.Summary.Excluded),
			zap.String("workbook", workbookPath),
			zap.String("report", reportPath),
		)
		return nil
	},
}

// readExtract picks the reader and default column mapping for the file. CSV
// drops are always raw; workbooks are probed for the structured sheet layout.
func readExtract(path string) (*extract.Table, pipeline.ColumnMapping, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		t, err := extract.ReadCSV(path)
		return t, pipeline.DefaultMapping(), err
	}

	mapping := pipeline.DefaultMapping()
	if !extract.IsRawExtract(path) {
		zap.L().Info("extract already structured, re-ingesting canonical columns", zap.String("path", path))
		mapping = pipeline.CanonicalMapping()
	}
	t, err := extract.ReadXLSX(path)
	return t, mapping, err
}

func overrideMapping() (pipeline.ColumnMapping, error) {
	path := processMapping
	if path == "" {
		path = cfg.Triage.MappingPath
	}
	if path == "" {
		return nil, nil
	}
	m, err := pipeline.LoadMapping(path)
	if err != nil {
		return nil, eris.Wrap(err, "load mapping override")
	}
	return m, nil
}

func init() {
	processCmd.Flags().StringVar(&processFile, "file", "", "path to the extract (.xlsx or .csv)")
	processCmd.Flags().BoolVar(&processFromFTP, "from-ftp", false, "fetch the extract from the configured FTP drop")
	processCmd.Flags().StringVar(&processMapping, "mapping", "", "path to a column mapping override (YAML)")
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "classify and summarize without persisting or writing outputs")
	rootCmd.AddCommand(processCmd)
}

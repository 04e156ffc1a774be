package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"conveval/internal/common/config"
	"conveval/internal/common/database"
	"conveval/internal/common/errors"
	"conveval/internal/common/logger"
	"conveval/internal/common/observability"
	"conveval/internal/dataset"
	"conveval/internal/entity/eval"
	"conveval/internal/intents"
	"conveval/internal/metrics"
)

var version = "dev"

type app struct {
	cfg *config.Config
	log logger.Logger
	obs *observability.Observability
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	return &app{
		cfg: cfg,
		log: log,
		obs: observability.New(cfg.App.Name),
	}, nil
}

func main() {
	root := &cobra.Command{
		Use:           "conveval",
		Short:         "Evaluation reports for conversational AI systems",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newIntentCmd())
	root.AddCommand(newEntityCmd())
	root.AddCommand(newASRCmd())
	root.AddCommand(newVADCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newIntentCmd() *cobra.Command {
	var asJSON, breakdown bool
	var groupsPath string

	cmd := &cobra.Command{
		Use:   "intent <true-labels> <pred-labels>",
		Short: "Score intent predictions against tagged labels",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.obs.Shutdown()
			started := time.Now()

			rows, err := joinTables(args[0], args[1], "id")
			if err != nil {
				return err
			}
			yTrue, yPred := dataset.Pairs(rows, "intent", "intent")

			if groupsPath == "" {
				groupsPath = a.cfg.Intents.GroupsPath
			}

			var out interface{}
			switch {
			case groupsPath == "":
				out = intents.Report(yTrue, yPred)
			case breakdown:
				groups, err := intents.LoadGroups(groupsPath)
				if err != nil {
					return err
				}
				out = intents.BreakdownReport(yTrue, yPred, groups)
			default:
				groups, err := intents.LoadGroups(groupsPath)
				if err != nil {
					return err
				}
				out = intents.GroupedReport(yTrue, yPred, groups)
			}

			a.obs.RecordReportGenerated(cmd.Context(), "intent")
			a.obs.RecordReportDuration(cmd.Context(), time.Since(started), "intent")
			a.log.Info("intent report generated", map[string]interface{}{
				"rows": len(rows),
			})
			return emit(out, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "dump the report as JSON instead of pretty printing")
	cmd.Flags().BoolVar(&breakdown, "breakdown", false, "one classification report per intent group")
	cmd.Flags().StringVar(&groupsPath, "groups", "", "path to the intent groups YAML file")
	return cmd
}

func newEntityCmd() *cobra.Command {
	var asJSON, breakdown, dump bool

	cmd := &cobra.Command{
		Use:   "entity <true-labels> <pred-labels>",
		Short: "Score entity predictions against tagged labels",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.obs.Shutdown()
			started := time.Now()

			joined, err := joinTables(args[0], args[1], "id")
			if err != nil {
				return err
			}
			rows := make([]eval.Row, 0, len(joined))
			for _, jr := range joined {
				rows = append(rows, eval.Row{
					ID:       jr.ID,
					TrueJSON: jr.Truth["entities"],
					PredJSON: jr.Pred["entities"],
				})
			}

			engine := eval.NewEngine(a.log, a.dumpSinks(cmd.Context(), dump)...)

			var out interface{}
			if breakdown {
				out, err = engine.CategoricalReport(cmd.Context(), rows)
			} else {
				out, err = engine.Report(cmd.Context(), rows, dump)
			}
			if err != nil {
				return err
			}

			a.obs.RecordReportGenerated(cmd.Context(), "entity")
			a.obs.RecordReportDuration(cmd.Context(), time.Since(started), "entity")
			return emit(out, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "dump the report as JSON instead of pretty printing")
	cmd.Flags().BoolVar(&breakdown, "breakdown", false, "break categorical entities down by value")
	cmd.Flags().BoolVar(&dump, "dump", false, "write fp, fn and mm rows to the configured sinks")
	return cmd
}

func newASRCmd() *cobra.Command {
	var asJSON bool
	var truthCol, predCol string

	cmd := &cobra.Command{
		Use:   "asr <true-labels> <pred-labels>",
		Short: "Score transcriptions against tagged transcripts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.obs.Shutdown()
			started := time.Now()

			joined, err := joinTables(args[0], args[1], "id")
			if err != nil {
				return err
			}

			type utteranceScore struct {
				ID string `json:"id"`
				metrics.Measures
			}
			scores := make([]utteranceScore, 0, len(joined))
			var all []metrics.Measures
			for _, jr := range joined {
				m := metrics.ComputeMeasures(jr.Truth[truthCol], jr.Pred[predCol], nil)
				scores = append(scores, utteranceScore{ID: jr.ID, Measures: m})
				all = append(all, m)
			}

			out := struct {
				Utterances []utteranceScore `json:"utterances"`
				Aggregate  metrics.Measures `json:"aggregate"`
			}{scores, metrics.AggregateMeasures(all)}

			a.obs.RecordReportGenerated(cmd.Context(), "asr")
			a.obs.RecordReportDuration(cmd.Context(), time.Since(started), "asr")
			return emit(out, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "dump the report as JSON instead of pretty printing")
	cmd.Flags().StringVar(&truthCol, "true-col", "transcription", "name of the tagged transcript column")
	cmd.Flags().StringVar(&predCol, "pred-col", "prediction", "name of the hypothesis column")
	return cmd
}

func newVADCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "vad <true-labels> <pred-labels>",
		Short: "Score voice activity barge-in against tagged segments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.obs.Shutdown()
			started := time.Now()

			cols := a.cfg.BargeIn.Columns
			joined, err := joinTables(args[0], args[1], cols.ID)
			if err != nil {
				return err
			}

			utterances := make([]metrics.BargeInUtterance, 0, len(joined))
			for _, jr := range joined {
				truth, err := parseSegments(jr.Truth[cols.Truth])
				if err != nil {
					a.log.Warn("skipping malformed truth segments", map[string]interface{}{
						"id": jr.ID, "error": err.Error(),
					})
					continue
				}
				pred, err := parseSegments(jr.Pred[cols.Predicted])
				if err != nil {
					a.log.Warn("skipping malformed predicted segments", map[string]interface{}{
						"id": jr.ID, "error": err.Error(),
					})
					pred = nil
				}
				utterances = append(utterances, metrics.BargeInUtterance{Truth: truth, Predicted: pred})
			}

			out := metrics.BargeInReport(utterances, a.cfg.BargeIn.Error, a.cfg.BargeIn.Cutoff)

			a.obs.RecordReportGenerated(cmd.Context(), "vad")
			a.obs.RecordReportDuration(cmd.Context(), time.Since(started), "vad")
			return emit(out, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "dump the report as JSON instead of pretty printing")
	return cmd
}

func joinTables(truthPath, predPath, idColumn string) ([]dataset.JoinedRow, error) {
	truth, err := dataset.ReadCSV(truthPath, idColumn)
	if err != nil {
		return nil, err
	}
	pred, err := dataset.ReadCSV(predPath, idColumn)
	if err != nil {
		return nil, err
	}
	return dataset.JoinOnID(truth, pred)
}

func parseSegments(raw string) ([]metrics.Segment, error) {
	if raw == "" {
		return nil, nil
	}
	var segments []metrics.Segment
	if err := json.Unmarshal([]byte(raw), &segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// dumpSinks assembles the configured error dump sinks. The flat-file sink is
// always on when dumping; database sinks are opt-in via config and skipped
// with a warning when unreachable.
func (a *app) dumpSinks(ctx context.Context, dump bool) []eval.DumpSink {
	if !dump {
		return nil
	}

	sinks := []eval.DumpSink{&eval.FileSink{Dir: a.cfg.Report.DumpDir}}

	if a.cfg.Report.DumpSinks.Postgres {
		client, err := database.NewPostgres(a.cfg.Database.Postgres)
		if err == nil {
			err = client.Ping(ctx)
		}
		if err != nil {
			a.log.WithError(errors.NewSinkUnavailableError("postgres", err)).
				Warn("postgres dump sink disabled", nil)
		} else {
			sinks = append(sinks, eval.NewPostgresSink(client))
		}
	}

	if a.cfg.Report.DumpSinks.Elasticsearch {
		client, err := database.NewElasticsearch(a.cfg.Database.Elasticsearch)
		if err == nil {
			err = client.Ping()
		}
		if err != nil {
			a.log.WithError(errors.NewSinkUnavailableError("elasticsearch", err)).
				Warn("elasticsearch dump sink disabled", nil)
		} else {
			sinks = append(sinks, eval.NewElasticsearchSink(client, a.cfg.Database.Elasticsearch.Index))
		}
	}

	return sinks
}

func emit(report interface{}, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return prettyPrint(report)
}

func prettyPrint(report interface{}) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	switch r := report.(type) {
	case []eval.ReportRow:
		fmt.Fprintln(w, "entity\tfpr\tfnr\tmmr\tsupport\tnegatives")
		for _, row := range r {
			fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%d\t%d\n",
				row.EntityType, row.FalsePositiveRate, row.FalseNegativeRate,
				row.MismatchRate, row.Support, row.Negatives)
		}
	case []metrics.LabelMetrics:
		printLabelMetrics(w, r)
	case map[string][]metrics.LabelMetrics:
		for group, rows := range r {
			fmt.Fprintf(w, "%s:\n", group)
			printLabelMetrics(w, rows)
			fmt.Fprintln(w)
		}
	case []intents.GroupMetrics:
		fmt.Fprintln(w, "group\tprecision\trecall\tf1\tsupport")
		for _, row := range r {
			fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%d\n",
				row.Group, row.Precision, row.Recall, row.F1, row.Support)
		}
	case metrics.BargeInScores:
		fmt.Fprintf(w, "precision\t%.4f\n", r.Precision)
		fmt.Fprintf(w, "recall\t%.4f\n", r.Recall)
		fmt.Fprintf(w, "captures\t%d\n", r.Captures)
		fmt.Fprintf(w, "predicted speech\t%d\n", r.Predicted)
		fmt.Fprintf(w, "truth speech\t%d\n", r.Truth)
	default:
		w.Flush()
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return nil
}

func printLabelMetrics(w *tabwriter.Writer, rows []metrics.LabelMetrics) {
	fmt.Fprintln(w, "label\tprecision\trecall\tf1\tsupport")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%d\n",
			row.Label, row.Precision, row.Recall, row.F1, row.Support)
	}
}

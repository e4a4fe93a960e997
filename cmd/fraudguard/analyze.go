package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mikey/fraudguard/internal/extractor"
	"github.com/mikey/fraudguard/internal/protocol"
	"github.com/mikey/fraudguard/internal/ui"
)

var analyzeFlags struct {
	parallel int
	json     bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Analyze emails for fraud",
	Long: `Analyze one or more emails. Files ending in .html or .htm are treated as
saved webmail pages, .mbox files as mailboxes with one analysis per message,
anything else as a raw RFC 5322 message. Use - to read a message from stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVarP(&analyzeFlags.parallel, "parallel", "p", 4, "maximum analyses in flight")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.json, "json", false, "print one JSON object per email")
	rootCmd.AddCommand(analyzeCmd)
}

type analysisItem struct {
	Name    string
	Content extractor.Content
}

type analysisOutput struct {
	Name         string          `json:"name"`
	Verdict      string          `json:"verdict"`
	IsFraudulent bool            `json:"isFraudulent"`
	Score        float64         `json:"score"`
	Details      json.RawMessage `json:"details,omitempty"`
	Error        string          `json:"error,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return withClient(cmd, false, func(ctx context.Context, c client) error {
		var items []analysisItem
		for _, arg := range args {
			loaded, err := loadItems(c.Extractor, arg, cmd.InOrStdin())
			if err != nil {
				return err
			}
			items = append(items, loaded...)
		}
		c.Logger.Debug("Loaded emails", zap.Int("count", len(items)))

		outputs := analyzeItems(ctx, c.Requester, items, analyzeFlags.parallel)
		return printOutputs(cmd.OutOrStdout(), outputs, analyzeFlags.json)
	})
}

// loadItems extracts the emails held by the file at path
func loadItems(ex *extractor.Extractor, path string, stdin io.Reader) ([]analysisItem, error) {
	if path == "-" {
		content, err := ex.FromMessage(stdin)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return []analysisItem{{Name: "stdin", Content: content}}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return []analysisItem{{Name: path, Content: ex.FromHTML(f)}}, nil

	case ".mbox":
		var items []analysisItem
		err := ex.ReadMailbox(f, func(index int, content extractor.Content) error {
			items = append(items, analysisItem{Name: fmt.Sprintf("%s#%d", path, index+1), Content: content})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return items, nil

	default:
		content, err := ex.FromMessage(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []analysisItem{{Name: path, Content: content}}, nil
	}
}

// analyzeItems sends every item and returns the outputs in input order
func analyzeItems(ctx context.Context, sender ui.Sender, items []analysisItem, parallel int) []analysisOutput {
	outputs := make([]analysisOutput, len(items))

	var g errgroup.Group
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			msg := protocol.NewAnalyzeEmail(item.Content.Text, item.Content.Source, item.Content.Subject)
			res, err := sender.Send(ctx, msg)
			outputs[i] = toOutput(item.Name, res, err)
			return nil
		})
	}
	_ = g.Wait()

	return outputs
}

func toOutput(name string, res protocol.ResultMessage, err error) analysisOutput {
	out := analysisOutput{Name: name}
	if err != nil {
		out.Verdict = "error"
		out.Error = err.Error()
		return out
	}

	state, text := ui.Verdict(res)
	switch state {
	case ui.ResultDanger:
		out.Verdict = "suspicious"
	case ui.ResultSafe:
		out.Verdict = "safe"
	default:
		out.Verdict = "error"
		out.Error = text
	}
	if res.Result != nil {
		out.IsFraudulent = res.Result.IsFraudulent
		out.Score = res.Result.Score
		out.Details = res.Result.Details
	}
	return out
}

func printOutputs(w io.Writer, outputs []analysisOutput, asJSON bool) error {
	failed := 0
	enc := json.NewEncoder(w)

	for _, out := range outputs {
		if out.Error != "" {
			failed++
		}
		if asJSON {
			if err := enc.Encode(out); err != nil {
				return err
			}
			continue
		}

		switch out.Verdict {
		case "suspicious":
			fmt.Fprintf(w, "%s: %s (score %.2f)\n", out.Name, ui.MsgSuspicious, out.Score)
		case "safe":
			fmt.Fprintf(w, "%s: %s (score %.2f)\n", out.Name, ui.MsgSafe, out.Score)
		default:
			fmt.Fprintf(w, "%s: error: %s\n", out.Name, out.Error)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", failed, len(outputs))
	}
	return nil
}

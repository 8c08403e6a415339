package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/gajana-dev/gajana/internal/categorize"
	"github.com/gajana-dev/gajana/internal/logger"
	"github.com/gajana-dev/gajana/internal/model"
	"github.com/gajana-dev/gajana/internal/runlog"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	subtle  = color.New(color.Faint)
)

// runLearn prints rule suggestions mined from categorized ledger rows and
// a best guess for each uncategorized one. It never writes the ledger.
func (p *Pipeline) runLearn(ctx context.Context, run *runlog.Run, rep *Report) error {
	log := logger.FromContext(ctx)

	all, err := p.loadAll(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		log.Warn().Msg("no ledger transactions to learn from")
		return nil
	}

	var known, unknown []model.Transaction
	for _, txn := range all {
		if txn.IsUncategorized() {
			unknown = append(unknown, txn)
		} else {
			known = append(known, txn)
		}
	}
	if len(known) == 0 {
		log.Warn().Msg("no transactions with a category other than " + model.DefaultCategory)
		return nil
	}
	log.Info().Int("count", len(known)).Msg("analyzing categorized transactions")

	suggestions := categorize.LearnRules(known)
	if err := p.printSuggestions(suggestions); err != nil {
		return err
	}
	rep.Suggestions = len(suggestions)
	run.Record("learn", fmt.Sprintf("%d rule suggestions from %d transactions", len(suggestions), len(known)), len(suggestions))

	if len(unknown) == 0 {
		return nil
	}
	s, ok := categorize.NewSuggester(known)
	if !ok {
		log.Info().Msg("need at least two categories to suggest categories")
		return nil
	}
	guessed := p.printGuesses(s, unknown)
	run.Record("suggest", fmt.Sprintf("%d of %d uncategorized transactions guessed", guessed, len(unknown)), guessed)
	return nil
}

func (p *Pipeline) printSuggestions(suggestions []categorize.Suggestion) error {
	heading.Fprintln(p.out, "\n--- Suggested New Categorization Rules ---")
	subtle.Fprintln(p.out, "(Review and manually add to the rules file)")
	fmt.Fprintln(p.out)

	if len(suggestions) == 0 {
		fmt.Fprintln(p.out, "No significant patterns found.")
		return nil
	}
	for _, s := range suggestions {
		direction := "CREDIT"
		if s.Debit {
			direction = "DEBIT"
		}
		body, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding suggestion for %s: %w", s.Category, err)
		}
		heading.Fprintf(p.out, "# Suggestion for Category: %s (%s)\n", s.Category, direction)
		fmt.Fprintf(p.out, "%s\n%s\n", body, strings.Repeat("-", 20))
	}
	return nil
}

func (p *Pipeline) printGuesses(s *categorize.Suggester, txns []model.Transaction) int {
	heading.Fprintln(p.out, "\n--- Likely Categories for Uncategorized Transactions ---")
	n := 0
	for _, txn := range txns {
		category, ok := s.Suggest(txn)
		if !ok {
			continue
		}
		n++
		fmt.Fprintf(p.out, "%s  %-14s %12s  %s  ", txn.Date.Format("2006-01-02"), txn.Account, txn.Amount.StringFixed(2), txn.Description)
		color.New(color.FgGreen).Fprintf(p.out, "-> %s\n", category)
	}
	return n
}

// Command import classifies and previews a statement file from the command
// line: extract the table, suggest a column mapping, apply any overrides and
// print the normalized transactions.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dvloznov/statement-import/internal/config"
	"github.com/dvloznov/statement-import/internal/extract"
	"github.com/dvloznov/statement-import/internal/ingest"
	"github.com/dvloznov/statement-import/internal/logger"
)

func main() {
	var (
		file       = flag.String("file", "", "statement file to import (CSV or XLSX)")
		convention = flag.String("convention", "bank", "single-amount sign convention: bank or card")
		asJSON     = flag.Bool("json", false, "emit JSON instead of a table")
		logLevel   = flag.String("log-level", "warn", "log level")
		dateCol    = flag.Int("date-col", ingest.Unassigned, "override the date column index")
		descCol    = flag.Int("description-col", ingest.Unassigned, "override the description column index")
		amountCol  = flag.Int("amount-col", ingest.Unassigned, "override the amount column index")
		debitCol   = flag.Int("debit-col", ingest.Unassigned, "override the debit column index")
		creditCol  = flag.Int("credit-col", ingest.Unassigned, "override the credit column index")
	)
	flag.Parse()

	log := logger.New(*logLevel)

	if *file == "" && flag.NArg() > 0 {
		*file = flag.Arg(0)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: import [flags] <statement file>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read statement file")
	}

	table, err := extract.FromBytes(data)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to extract table")
	}

	classifier, err := config.Load().NewClassifier()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load classifier keywords")
	}

	mapping := classifier.Classify(table.Headers, extract.SampleRows(table, 20))

	// Flags that were set on the command line replace the suggestion, even
	// when set to -1 to unassign a role.
	overrides := map[string]struct {
		role ingest.ColumnRole
		col  *int
	}{
		"date-col":        {ingest.RoleDate, dateCol},
		"description-col": {ingest.RoleDescription, descCol},
		"amount-col":      {ingest.RoleAmount, amountCol},
		"debit-col":       {ingest.RoleDebitAmount, debitCol},
		"credit-col":      {ingest.RoleCreditAmount, creditCol},
	}
	flag.Visit(func(f *flag.Flag) {
		if o, ok := overrides[f.Name]; ok {
			mapping = mapping.Set(o.role, *o.col)
		}
	})

	transactions := ingest.Process(table, mapping, ingest.ParseConvention(*convention))

	if *asJSON {
		out := map[string]any{
			"file":         *file,
			"headers":      table.Headers,
			"mapping":      mapping,
			"transactions": transactions,
			"row_count":    len(transactions),
			"valid_count":  ingest.CountValid(transactions),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode output")
		}
		return
	}

	fmt.Printf("%s: %d rows, %d valid\n\n", *file, len(transactions), ingest.CountValid(transactions))
	fmt.Printf("%-12s %-40s %12s %12s  %s\n", "DATE", "DESCRIPTION", "DEBIT", "CREDIT", "ERRORS")
	for _, tx := range transactions {
		desc := tx.Description
		if len(desc) > 40 {
			desc = desc[:37] + "..."
		}
		errs := ""
		if !tx.IsValid {
			errs = fmt.Sprintf("%v", tx.Errors)
		}
		fmt.Printf("%-12s %-40s %12s %12s  %s\n",
			tx.Date, desc, tx.DebitAmount.StringFixed(2), tx.CreditAmount.StringFixed(2), errs)
	}
}

// Command landedcost prices a purchasing-agent order from a YAML worksheet.
//
// Usage:
//
//	landedcost [flags] [order.yaml]
//
// The worksheet lists shared parameters and line items:
//
//	params:
//	  exchange_rate: 4.4
//	  service_fee_percent: 15
//	  tax_percent: 5
//	  rounding_digits: 0
//	items:
//	  - name: jacket
//	    quantity: 1
//	    unit_price: 200
//	    domestic_shipping: 12
//	    unit_weight: 1.2
//
// With no file argument, or "-", the worksheet is read from stdin. Flags
// override the file's parameters.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/dukerupert/daigou/internal"
	"github.com/dukerupert/daigou/internal/display"
	"github.com/dukerupert/daigou/internal/domain"
	"github.com/dukerupert/daigou/internal/freight"
	"github.com/dukerupert/daigou/internal/pricing"
	"github.com/dukerupert/daigou/internal/service"
	"github.com/dukerupert/daigou/internal/worksheet"
	"gopkg.in/yaml.v3"
)

// Exit codes.
const (
	exitOK    = 0
	exitEmpty = 1
	exitUsage = 2
)

// orderFile is the YAML worksheet layout. Parameters left out keep their
// defaults.
type orderFile struct {
	Params struct {
		ExchangeRate      *float64 `yaml:"exchange_rate"`
		ServiceFeePercent *float64 `yaml:"service_fee_percent"`
		TaxPercent        *float64 `yaml:"tax_percent"`
		RoundingDigits    *int     `yaml:"rounding_digits"`
	} `yaml:"params"`
	Items []pricing.RawRow `yaml:"items"`
}

func (f *orderFile) apply(p pricing.Params) pricing.Params {
	if f.Params.ExchangeRate != nil {
		p.ExchangeRate = *f.Params.ExchangeRate
	}
	if f.Params.ServiceFeePercent != nil {
		p.ServiceFeeRate = *f.Params.ServiceFeePercent / 100
	}
	if f.Params.TaxPercent != nil {
		p.TaxRate = *f.Params.TaxPercent / 100
	}
	if f.Params.RoundingDigits != nil {
		p.RoundingDigits = *f.Params.RoundingDigits
	}
	return p
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("landedcost", flag.ContinueOnError)
	fs.SetOutput(stderr)

	rate := fs.Float64("rate", pricing.DefaultExchangeRate, "exchange rate, RMB to home currency")
	fee := fs.Float64("fee", pricing.DefaultServiceFeeRate*100, "service fee in percent")
	tax := fs.Float64("tax", pricing.DefaultTaxRate*100, "tax in percent")
	digits := fs.Int("digits", pricing.DefaultRoundingDigits, "decimal places shown (0-2)")
	asJSON := fs.Bool("json", false, "print the rounded result as JSON")
	showTariff := fs.Bool("tariff", false, "print the freight rate card and exit")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *showTariff {
		printTariff(stdout, freight.Default)
		return exitOK
	}

	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "landedcost: at most one worksheet file may be given")
		return exitUsage
	}

	order, err := readOrder(fs.Arg(0), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "landedcost: %v\n", err)
		return exitUsage
	}

	params := order.apply(pricing.DefaultParams())
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			params.ExchangeRate = *rate
		case "fee":
			params.ServiceFeeRate = *fee / 100
		case "tax":
			params.TaxRate = *tax / 100
		case "digits":
			params.RoundingDigits = *digits
		}
	})

	logger := internal.NewLogger(stderr, "dev", "warn")
	calculator := service.NewCalculatorService(worksheet.NewStore(params), pricing.NewEngine(nil), nil, logger)

	result, err := calculator.Quote(context.Background(), pricing.ParseRows(order.Items), params)
	switch {
	case errors.Is(err, pricing.ErrEmptyResult):
		fmt.Fprintf(stderr, "warning: nothing to calculate. %s.\n", domain.ErrorMessage(err))
		return exitEmpty
	case domain.IsValidationError(err):
		for field, msg := range domain.GetValidationFields(err) {
			fmt.Fprintf(stderr, "landedcost: %s: %s\n", field, msg)
		}
		return exitUsage
	case err != nil:
		fmt.Fprintf(stderr, "landedcost: %v\n", err)
		return exitUsage
	}

	summary := display.Rounded(result, params.RoundingDigits)
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(stderr, "landedcost: %v\n", err)
			return exitUsage
		}
		return exitOK
	}

	printSummary(stdout, summary)
	return exitOK
}

func readOrder(path string, stdin io.Reader) (*orderFile, error) {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var order orderFile
	if err := yaml.NewDecoder(r).Decode(&order); err != nil {
		if errors.Is(err, io.EOF) {
			return &order, nil
		}
		return nil, fmt.Errorf("reading worksheet: %w", err)
	}
	return &order, nil
}

func printSummary(w io.Writer, s display.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	n := func(v float64) string { return display.Number(v, s.Digits) }

	fmt.Fprintln(tw, "NAME\tQTY\tUNIT PRICE\tITEM PRICE\tSHIPPING\tUNIT KG\tWEIGHT KG\tRATE/KG\tFREIGHT\tSUBTOTAL RMB\tTOTAL\t")
	for _, l := range s.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			l.Name,
			pricing.FormatNumber(l.Quantity),
			n(l.UnitPrice),
			n(l.ItemPrice),
			n(l.DomesticShipping),
			n(l.UnitWeight),
			n(l.TotalWeight),
			n(l.FreightUnitRate),
			n(l.InternationalFreight),
			n(l.SubtotalRMB),
			n(l.LineTotal),
		)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total weight (kg): %s\n", display.Number(s.TotalWeightSum, s.WeightDigits))
	fmt.Fprintf(w, "Grand total:       %s\n", n(s.GrandTotal))
	if s.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d empty row(s)\n", s.Skipped)
	}
}

func printTariff(w io.Writer, t *freight.Tariff) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOTAL WEIGHT (KG)\tRMB/KG")
	for _, b := range t.Bands() {
		fmt.Fprintf(tw, "%s\t%s\n", bandRange(b), pricing.FormatNumber(b.RatePerKg))
	}
	tw.Flush()
}

func bandRange(b freight.Band) string {
	switch {
	case b.MinKg == 0:
		return "<= " + pricing.FormatNumber(b.MaxKg)
	case math.IsInf(b.MaxKg, 1):
		return "> " + pricing.FormatNumber(b.MinKg)
	default:
		return "> " + pricing.FormatNumber(b.MinKg) + " and <= " + pricing.FormatNumber(b.MaxKg)
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

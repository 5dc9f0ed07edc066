// Command report builds the board report from exported spreadsheets without
// running the API server. Useful for piping markdown into docs or diffing
// report JSON between uploads.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/ledger"
	"accounting_atlas/pkg/core/report"
	"accounting_atlas/pkg/core/scenario"
	"accounting_atlas/pkg/core/state"
	"accounting_atlas/pkg/core/utils"
	"accounting_atlas/pkg/core/xero"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	plPath := flag.String("pl", "", "Profit & Loss export (xlsx or csv)")
	glPath := flag.String("gl", "", "General Ledger detail export (optional; rebuilds the P&L through ledger treatments)")
	templatePath := flag.String("template", "", "mapping template document (JSON or HJSON, optional)")
	scenarioPath := flag.String("scenario", "", "scenario inputs document (JSON, optional)")
	source := flag.String("source", "legacy", "data source: legacy or dream")
	mode := flag.String("mode", "last3_vs_prev3", "comparison mode")
	format := flag.String("format", "markdown", "output format: markdown, html or json")
	withScenario := flag.Bool("with-scenario", false, "apply the scenario overlay")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *plPath == "" {
		fmt.Fprintln(os.Stderr, "usage: report -pl <export.xlsx> [-template t.json] [-scenario s.json] [-format markdown|html|json]")
		os.Exit(2)
	}

	data, err := ioutil.ReadFile(*plPath)
	if err != nil {
		log.Error().Err(err).Str("file", *plPath).Msg("could not read P&L")
		os.Exit(1)
	}
	pl, err := xero.ParseProfitAndLoss(data)
	if err != nil {
		log.Error().Err(err).Msg("could not parse P&L")
		os.Exit(1)
	}
	log.Info().Int("months", len(pl.Months)).Int("accounts", len(pl.Accounts)).Msg("P&L parsed")

	if *glPath != "" {
		raw, err := ioutil.ReadFile(*glPath)
		if err != nil {
			log.Error().Err(err).Str("file", *glPath).Msg("could not read general ledger")
			os.Exit(1)
		}
		gl, err := xero.ParseGeneralLedger(raw)
		if err != nil {
			log.Error().Err(err).Msg("could not parse general ledger")
			os.Exit(1)
		}
		rows := ledger.BuildEffectiveLedger(gl.Txns, nil, nil)
		pl = ledger.BuildEffectivePL(pl, rows, false)
		log.Info().Int("txns", len(gl.Txns)).Msg("P&L rebuilt from ledger treatments")
	}

	template := dream.DefaultTemplate()
	if *templatePath != "" {
		raw, err := ioutil.ReadFile(*templatePath)
		if err != nil {
			log.Error().Err(err).Str("file", *templatePath).Msg("could not read template")
			os.Exit(1)
		}
		var t dream.Template
		normalized, err := utils.SmartParse(string(raw), &t)
		if err != nil {
			log.Error().Err(err).Msg("could not parse template document")
			os.Exit(1)
		}
		template, err = state.HydrateTemplate([]byte(normalized))
		if err != nil {
			log.Error().Err(err).Msg("template document invalid")
			os.Exit(1)
		}
	}

	inputs := scenario.DefaultInputs()
	if *scenarioPath != "" {
		raw, err := ioutil.ReadFile(*scenarioPath)
		if err != nil {
			log.Error().Err(err).Str("file", *scenarioPath).Msg("could not read scenario")
			os.Exit(1)
		}
		inputs, err = state.HydrateScenario(raw)
		if err != nil {
			log.Error().Err(err).Msg("scenario document invalid")
			os.Exit(1)
		}
	}

	result := report.GetReportData(report.Options{
		DataSource:      report.DataSource(*source),
		PL:              pl,
		Template:        template,
		Scenario:        inputs,
		IncludeScenario: *withScenario,
		ComparisonMode:  report.ComparisonMode(*mode),
	})
	if result.FallbackReason != "" {
		log.Warn().Str("reason", result.FallbackReason).Msg("report fell back")
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Error().Err(err).Msg("could not encode report")
			os.Exit(1)
		}
	case "html":
		html, err := report.RenderHTML(result)
		if err != nil {
			log.Error().Err(err).Msg("could not render HTML")
			os.Exit(1)
		}
		fmt.Println(html)
	default:
		md := utils.CleanMarkdown(report.RenderMarkdown(result))
		if !utils.ValidateMarkdown(md) {
			log.Warn().Msg("rendered markdown failed validation")
		}
		fmt.Println(md)
	}
}

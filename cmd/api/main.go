package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"

	"accounting_atlas/pkg/api/datasets"
	ledgerapi "accounting_atlas/pkg/api/ledger"
	"accounting_atlas/pkg/api/reports"
	scenarioapi "accounting_atlas/pkg/api/scenario"
	"accounting_atlas/pkg/api/settings"
	"accounting_atlas/pkg/api/snapshots"
	templateapi "accounting_atlas/pkg/api/template"
	"accounting_atlas/pkg/core/state"
	"accounting_atlas/pkg/core/store"
	"accounting_atlas/pkg/core/xero"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// appConfig is the config/app.yaml shape. Everything has a usable default so
// the server boots with no config file at all.
type appConfig struct {
	Port int `yaml:"port"`
	Seed struct {
		PL string `yaml:"pl"`
		GL string `yaml:"gl"`
	} `yaml:"seed"`
}

func loadConfig() appConfig {
	cfg := appConfig{Port: 8080}
	data, err := ioutil.ReadFile("config/app.yaml")
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Warn().Err(err).Msg("config/app.yaml is malformed, using defaults")
		return appConfig{Port: 8080}
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	return cfg
}

// seedDatasets preloads spreadsheets named in the config, so a dev server
// starts with data without a manual upload round.
func seedDatasets(ws *state.Workspace, cfg appConfig) {
	if cfg.Seed.PL != "" {
		if data, err := ioutil.ReadFile(cfg.Seed.PL); err == nil {
			if pl, err := xero.ParseProfitAndLoss(data); err == nil {
				ws.SetPL(pl)
				log.Info().Str("file", cfg.Seed.PL).Int("months", len(pl.Months)).Msg("seeded P&L")
			} else {
				log.Warn().Err(err).Str("file", cfg.Seed.PL).Msg("seed P&L failed to parse")
			}
		}
	}
	if cfg.Seed.GL != "" {
		if data, err := ioutil.ReadFile(cfg.Seed.GL); err == nil {
			if gl, err := xero.ParseGeneralLedger(data); err == nil {
				ws.SetGL(gl)
				log.Info().Str("file", cfg.Seed.GL).Int("txns", len(gl.Txns)).Msg("seeded general ledger")
			} else {
				log.Warn().Err(err).Str("file", cfg.Seed.GL).Msg("seed ledger failed to parse")
			}
		}
	}
}

func main() {
	// Load environment variables
	godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := loadConfig()
	workspace := state.NewWorkspace()
	seedDatasets(workspace, cfg)

	// The database is optional: without DATABASE_URL everything runs in
	// memory and persistence endpoints degrade gracefully.
	ctx := context.Background()
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			log.Warn().Err(err).Msg("database unavailable, running in memory")
		} else if err := store.EnsureSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("schema setup failed, running in memory")
			store.Close()
		} else {
			log.Info().Msg("database connected")
			defer store.Close()
		}
	} else {
		log.Info().Msg("DATABASE_URL not set, running in memory")
	}
	pool := store.GetPool()

	// Dataset endpoints
	datasets.InitHandler(workspace)
	http.HandleFunc("/api/datasets/pl", datasets.HandleUploadPL)
	http.HandleFunc("/api/datasets/gl", datasets.HandleUploadGL)
	http.HandleFunc("/api/datasets/status", datasets.HandleStatus)

	// Template endpoints
	templateapi.InitHandler(workspace, store.NewTemplateRepo(pool))
	http.HandleFunc("/api/template", templateapi.HandleTemplate)
	http.HandleFunc("/api/template/import", templateapi.HandleImport)
	http.HandleFunc("/api/template/edit", templateapi.HandleEdit)
	http.HandleFunc("/api/template/history", templateapi.HandleHistory)

	// Scenario endpoints
	scenarioapi.InitHandler(workspace)
	http.HandleFunc("/api/scenario", scenarioapi.HandleScenario)
	http.HandleFunc("/api/scenario/reset", scenarioapi.HandleReset)
	http.HandleFunc("/api/scenario/preview", scenarioapi.HandlePreview)

	// Report endpoints
	reports.InitHandler(workspace)
	http.HandleFunc("/api/report", reports.HandleReport)
	http.HandleFunc("/api/report/config", reports.HandleReportConfig)
	http.HandleFunc("/api/report/insights", reports.HandleInsights)
	http.HandleFunc("/api/report/health", reports.HandleHealth)
	http.HandleFunc("/api/report/export", reports.HandleExport)

	// Ledger treatment endpoints
	ledgerapi.InitHandler(workspace, store.NewLedgerRepo(pool))
	http.HandleFunc("/api/ledger/effective", ledgerapi.HandleEffectiveLedger)
	http.HandleFunc("/api/ledger/effective-pl", ledgerapi.HandleEffectivePL)
	http.HandleFunc("/api/ledger/overrides", ledgerapi.HandleOverrides)
	http.HandleFunc("/api/ledger/doctor-rules", ledgerapi.HandleDoctorRules)
	http.HandleFunc("/api/ledger/doctors", ledgerapi.HandleDoctors)
	http.HandleFunc("/api/ledger/doctor-patterns", ledgerapi.HandleDoctorPatterns)

	// Snapshot endpoints
	snapshots.InitHandler(workspace, store.NewSnapshotRepo(pool))
	http.HandleFunc("/api/snapshots", snapshots.HandleSnapshots)
	http.HandleFunc("/api/snapshot", snapshots.HandleSnapshot)

	// Settings endpoints
	settings.InitHandler(workspace, store.NewSettingsRepo(pool))
	http.HandleFunc("/api/settings/defaults", settings.HandleDefaults)
	http.HandleFunc("/api/settings/defaults/reset", settings.HandleResetDefaults)
	http.HandleFunc("/api/settings/save", settings.HandleSave)
	http.HandleFunc("/api/settings/load", settings.HandleLoad)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Msg("API server starting")
	fmt.Println("  - POST /api/datasets/pl")
	fmt.Println("  - POST /api/datasets/gl")
	fmt.Println("  - GET  /api/datasets/status")
	fmt.Println("  - GET/PUT /api/template")
	fmt.Println("  - POST /api/template/import")
	fmt.Println("  - POST /api/template/edit")
	fmt.Println("  - POST /api/template/history")
	fmt.Println("  - GET/PUT /api/scenario")
	fmt.Println("  - GET  /api/scenario/preview")
	fmt.Println("  - GET/POST /api/report")
	fmt.Println("  - GET  /api/report/export?format=markdown|html")
	fmt.Println("  - GET  /api/ledger/effective")
	fmt.Println("  - GET  /api/ledger/effective-pl")
	fmt.Println("  - GET/POST/DELETE /api/ledger/overrides")
	fmt.Println("  - GET/POST/DELETE /api/ledger/doctor-rules")
	fmt.Println("  - GET/POST /api/snapshots, GET/POST/DELETE /api/snapshot?id=")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("server failed to start")
		os.Exit(1)
	}
}

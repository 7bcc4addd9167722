package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"keyword-bid-analyzer/config"
	"keyword-bid-analyzer/logx"
	"keyword-bid-analyzer/models"
	"keyword-bid-analyzer/scraper"
	"keyword-bid-analyzer/searchad"
	"keyword-bid-analyzer/services"
	"keyword-bid-analyzer/storage"
	"keyword-bid-analyzer/utils"
)

// allocSession couples a tab session with its allocator so Close tears down
// the whole per-device Chrome process.
type allocSession struct {
	*scraper.TabSession
	cancelAlloc context.CancelFunc
}

func (s *allocSession) Close() {
	s.TabSession.Close()
	s.cancelAlloc()
}

func main() {
	keywordsFlag := flag.String("keywords", "",
		"Comma-separated keyword list")
	keywordsFile := flag.String("keywords-file", "",
		"File with one keyword per line (overrides -keywords)")
	outFile := flag.String("out", "",
		"Output JSON filename (default from config)")
	headless := flag.Bool("headless", true,
		"Run Chrome headless (false = visible window)")
	flag.Parse()

	cfg := config.Default()
	cfg.Headless = *headless
	if *outFile != "" {
		cfg.OutFile = *outFile
	}

	log := logx.New(cfg.LogLevel)
	defer log.Sync()

	keywords, err := loadKeywords(*keywordsFlag, *keywordsFile)
	if err != nil {
		log.Fatalf("✗ Failed to load keywords: %v", err)
	}

	log.Infof("╔═══════════════════════════════════════════════════╗")
	log.Infof("║        Keyword Bid Analyzer (3-stream run)        ║")
	log.Infof("╚═══════════════════════════════════════════════════╝")
	log.Infof("Keywords : %d", len(keywords))
	log.Infof("Workers  : %d api + pc + mobile", cfg.StatsWorkers)
	log.Infof("Output   : %s", cfg.OutFile)
	if cfg.DBEnabled {
		log.Infof("Postgres : %s:%d/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	newSession := func(dev models.Device) (scraper.Session, error) {
		allocCtx, cancelAlloc := utils.NewAllocator(rootCtx, cfg, dev)
		return &allocSession{
			TabSession:  scraper.NewTabSession(allocCtx, nil),
			cancelAlloc: cancelAlloc,
		}, nil
	}

	client := searchad.NewClient(cfg)
	orchestrator := services.NewOrchestrator(cfg, client, newSession, log)

	hooks := services.Hooks{
		OnProgress: func(p models.Progress) {
			log.Infof("[%3d%%] %-8s %s %s", p.Percentage, p.Stage, p.Keyword, p.Detail)
		},
		OnResult: func(rec *models.KeywordRecord) {
			log.Debugf("result ready: %s (pc bid %d / mobile bid %d)",
				rec.Keyword, rec.PC.MinExposureBid, rec.Mobile.MinExposureBid)
		},
	}

	run, err := orchestrator.NewRun(keywords, hooks)
	if err != nil {
		log.Fatalf("✗ Cannot start run: %v", err)
	}

	// Ctrl-C flips the cooperative flag; in-flight keywords still finish.
	go func() {
		<-rootCtx.Done()
		run.Cancel()
	}()

	records, tally, err := run.Execute(rootCtx)
	if err != nil {
		log.Fatalf("✗ Run failed: %v", err)
	}

	total, err := utils.WriteJSON(cfg.OutFile, records)
	if err != nil {
		log.Fatalf("✗ Failed to write JSON: %v", err)
	}

	if cfg.DBEnabled {
		store, err := storage.NewPostgresStore(cfg)
		if err != nil {
			log.Fatalf("✗ Failed to connect to PostgreSQL: %v", err)
		}
		defer store.Close()

		dbCtx, cancelDB := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelDB()
		saved, err := store.SaveRun(dbCtx, run.ID(), records)
		if err != nil {
			log.Fatalf("✗ Failed to store results in PostgreSQL: %v", err)
		}
		log.Infof("  DB   — %d rows upserted → keyword_results", saved)
	}

	summary := utils.BuildRunSummary(records)
	log.Infof("═══════════════════════════════════════════════════")
	log.Infof("  DONE — %d records → %s (run %s)", total, cfg.OutFile, tally.RunID)
	log.Infof("  TALLY — %d requested / %d succeeded / %d failed (cancelled=%v, %s)",
		tally.Requested, tally.Succeeded, tally.Failed, tally.Cancelled,
		tally.Elapsed.Round(time.Millisecond))
	log.Infof("  STATS")
	log.Infof("    Ranked (pc/mobile)   : %d / %d", summary.PCRanked, summary.MobileRanked)
	if summary.HighestVolume != nil {
		log.Infof("    Highest Volume       : %s", summary.HighestVolume.Keyword)
	}
	if summary.CheapestMinBid != nil {
		log.Infof("    Cheapest Min Bid     : %s (%d)",
			summary.CheapestMinBid.Keyword, summary.CheapestMinBid.PC.MinExposureBid)
	}
	log.Infof("    Top 5 by Desktop Rank")
	for _, rec := range summary.TopPCKeywords {
		log.Infof("      %d) %s | bid %d | vol %d",
			rec.PC.Rank, rec.Keyword, rec.PC.MinExposureBid, rec.PC.SearchVolume)
	}
	log.Infof("═══════════════════════════════════════════════════")
}

func loadKeywords(list, file string) ([]string, error) {
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		var out []string
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if kw := strings.TrimSpace(scanner.Text()); kw != "" {
				out = append(out, kw)
			}
		}
		return out, scanner.Err()
	}

	var out []string
	for _, kw := range strings.Split(list, ",") {
		if t := strings.TrimSpace(kw); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// Command domainbuild runs one geometry decomposition build: it loads a
// run configuration, reads (or synthesizes) a geometry, spins up one
// simulated worker per configured rank, and runs each through the
// spatial-index/catalogue/topology pipeline, reporting the result to the
// console, an sqlite report database, a JSONL event log, and optionally
// a live websocket feed.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"hemolattice/internal/config"
	"hemolattice/internal/diagnostics"
	"hemolattice/internal/directory"
	"hemolattice/internal/domain"
	"hemolattice/internal/geomio"
	"hemolattice/internal/introspect"
	"hemolattice/internal/lattice"
	"hemolattice/internal/reportstore"
)

func main() {
	var (
		configPath = flag.String("config", "", "run config YAML path (empty uses built-in defaults)")
		geomSchema = flag.String("geometry-schema", "", "optional JSON schema to validate the geometry file against")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[domainbuild] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load run config: %v", err)
	}

	desc := lattice.ByName(cfg.Lattice)
	if desc == nil {
		logger.Fatalf("unknown lattice %q", cfg.Lattice)
	}

	geom, err := loadGeometry(cfg, desc, *geomSchema)
	if err != nil {
		logger.Fatalf("load geometry: %v", err)
	}

	if _, err := buildIolets(cfg.Iolets); err != nil {
		logger.Fatalf("build iolets: %v", err)
	}

	buildLog := diagnostics.NewBuildLogger(cfg.EventLogDir)
	defer buildLog.Close()

	store, err := reportstore.Open(cfg.ReportDB)
	if err != nil {
		logger.Fatalf("open report store: %v", err)
	}
	defer store.Close()

	runID := reportstore.NewRunID()
	store.WriteRunStarted(runID, cfg.Lattice, cfg.Ranks)

	var live *introspect.Server
	if cfg.Introspect.Enabled {
		live = introspect.NewServer()
		mux := http.NewServeMux()
		mux.Handle("/ws", live.Handler())
		addr := cfg.Introspect.Addr
		if addr == "" {
			addr = ":8099"
		}
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Printf("introspection server stopped: %v", err)
			}
		}()
		logger.Printf("introspection feed listening on %s/ws", addr)
	}

	comms := directory.NewLocalWorld(cfg.Ranks)
	results := make([]*domain.Result, cfg.Ranks)
	errs := make([]error, cfg.Ranks)

	var wg sync.WaitGroup
	for r := 0; r < cfg.Ranks; r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			start := time.Now()
			res, err := domain.Build(comms[rank], geom, desc)
			elapsed := time.Since(start)
			if err != nil {
				errs[rank] = err
				comms[rank].Abort(err)
				return
			}
			results[rank] = res

			_ = buildLog.WritePhase(diagnostics.PhaseEvent{
				Rank:           rank,
				Phase:          "domain_build",
				DurationMicros: elapsed.Microseconds(),
				Detail:         fmt.Sprintf("local_fluid_count=%d shared_fs=%d", res.Catalogue.LocalFluidCount(), res.Plan.TotalSharedFs),
			})
			store.WriteRankSummary(runID, reportstore.RankSummary{
				Rank:             rank,
				LocalFluidCount:  res.Catalogue.LocalFluidCount(),
				BlockCount:       len(geom.NonEmptyBlockCoords()),
				MidDomainCounts:  res.Catalogue.MidDomainCount,
				DomainEdgeCounts: res.Catalogue.DomainEdgeCount,
				TotalSharedFs:    res.Plan.TotalSharedFs,
				ElapsedMicros:    elapsed.Microseconds(),
			})
			if live != nil {
				_ = live.Broadcast(map[string]any{
					"rank":              rank,
					"local_fluid_count": res.Catalogue.LocalFluidCount(),
					"shared_fs":         res.Plan.TotalSharedFs,
					"elapsed_micros":    elapsed.Microseconds(),
				})
			}
		}(r)
	}
	wg.Wait()

	for r, err := range errs {
		if err != nil {
			logger.Fatalf("rank %d domain build failed: %v", r, err)
		}
	}

	printSummary(results, os.Stdout)
}

func loadGeometry(cfg config.RunConfig, desc *lattice.Descriptor, schemaPath string) (*geomio.GeometryReadResult, error) {
	if cfg.Synthetic != "" {
		return syntheticGeometry(cfg.Synthetic, desc)
	}
	return geomio.LoadFile(cfg.GeometryYAML, schemaPath)
}

func syntheticGeometry(name string, desc *lattice.Descriptor) (*geomio.GeometryReadResult, error) {
	switch name {
	case "S1":
		return geomio.SyntheticS1(desc), nil
	case "S2":
		return geomio.SyntheticS2(desc), nil
	case "S3":
		return geomio.SyntheticS3(desc), nil
	case "S4":
		return geomio.SyntheticS4(desc), nil
	case "S5":
		return geomio.SyntheticS5(desc), nil
	case "S6":
		return geomio.SyntheticS6(desc), nil
	default:
		return nil, fmt.Errorf("unknown synthetic scenario %q", name)
	}
}

func printSummary(results []*domain.Result, w *os.File) {
	total := int64(0)
	for _, res := range results {
		total += res.Catalogue.LocalFluidCount()
	}

	if isatty.IsTerminal(w.Fd()) {
		fmt.Fprintf(w, "domain build complete: %s fluid sites across %d ranks\n", humanize.Comma(total), len(results))
		for _, res := range results {
			fmt.Fprintf(w, "  rank %-4d local=%-10s shared_fs=%-8s min=%v max=%v\n",
				res.Rank, humanize.Comma(res.Catalogue.LocalFluidCount()), humanize.Comma(res.Plan.TotalSharedFs),
				res.GlobalMin, res.GlobalMax)
		}
		return
	}

	fmt.Fprintf(w, "fluid_sites_total=%d ranks=%d\n", total, len(results))
	for _, res := range results {
		fmt.Fprintf(w, "rank=%d local_fluid_count=%d shared_fs=%d\n", res.Rank, res.Catalogue.LocalFluidCount(), res.Plan.TotalSharedFs)
	}
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/kv"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/logger"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/osmparser"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
	"golang.org/x/exp/slog"
)

var (
	mapFile      = flag.String("f", "solo_jogja.osm.pbf", "openstreetmap pbf file of the road network")
	dbDir        = flag.String("db", "./navigatorx_tiles", "badger directory of the tile store")
	resolution   = flag.Int("res", 6, "h3 resolution of the tile partition")
	indexRes     = flag.Int("index-res", kv.DefaultResolution, "h3 resolution of the cell index, the engine's storage.resolution")
	snapshotFile = flag.String("snapshot", "", "also write all tiles to this snapshot file")
	cpuprofile   = flag.String("cpuprofile", "", "write cpu profile to file")
	logLevel     = flag.String("loglevel", "info", "log level")
)

func main() {
	flag.Parse()
	logger.Setup(os.Stdout, *logLevel, false)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("preprocessing failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	started := time.Now()
	slog.Info("reading osm file", "file", *mapFile)

	parser := osmparser.NewOsmParser(*resolution)
	if err := parser.Parse(ctx, *mapFile); err != nil {
		return err
	}
	tiles := parser.BuildTiles()

	store, err := kv.OpenTileStore(*dbDir, *indexRes)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveTiles(ctx, tiles); err != nil {
		return err
	}
	if *snapshotFile != "" {
		if err := tile.SaveSnapshotFile(*snapshotFile, tiles...); err != nil {
			return err
		}
		slog.Info("snapshot written", "file", *snapshotFile)
	}

	slog.Info("preprocessing done", "tiles", len(tiles), "took", time.Since(started))
	return nil
}

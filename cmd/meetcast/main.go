// Command meetcast prints the minimum broadcast duration for three
// contestants on the street network described in a file, or -1 when no
// finite duration exists.
//
//	meetcast [-workers n] [-speed-scale s] [-strict] [-config f] <file> <sA> <sB> <sC>
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/atharv3903/meetcast/internal/config"
	"github.com/atharv3903/meetcast/internal/contest"
	"github.com/atharv3903/meetcast/internal/logging"
	"github.com/atharv3903/meetcast/internal/model"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.ParseCLI(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	log := logging.New(stderr, cfg.LogLevel)

	// a speed that is not an integer is as unusable as a non-positive one
	var speeds model.Speeds
	for i, s := range cfg.Speeds {
		if speeds[i], err = strconv.Atoi(s); err != nil {
			log.Warn("speed is not an integer", "arg", s)
			speeds[i] = 0
		}
	}

	c := contest.FromFile(cfg.File, speeds, contest.Params{
		SpeedScale:      cfg.SpeedScale,
		Workers:         cfg.Workers,
		StrictEdgeCount: cfg.StrictEdgeCount,
		MaxVertices:     cfg.MaxVertices,
		Logger:          log,
	})
	if !c.Valid() {
		log.Warn("invalid network description", "file", cfg.File, "err", c.LoadErr())
	}

	res, err := c.TimeRequired(context.Background())
	if err != nil {
		log.Error("computation failed", "err", err)
		fmt.Fprintln(stdout, res.Value())
		return 1
	}
	if !res.Feasible {
		log.Info("no finite broadcast duration", "reason", res.Reason, "from", res.From, "to", res.To)
	}
	fmt.Fprintln(stdout, res.Value())
	return 0
}

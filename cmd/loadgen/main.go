package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/aclements/go-moremath/stats"
	_ "github.com/go-sql-driver/mysql"

	"github.com/atharv3903/meetcast/internal/db"
	"github.com/atharv3903/meetcast/internal/logging"
	"github.com/atharv3903/meetcast/internal/model"
)

func main() {
	log := logging.New(os.Stderr, "info")
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: loadgen <mysql_dsn> <server_addr>")
		os.Exit(2)
	}

	dsn := os.Args[1]
	server := os.Args[2]
	duration := 30 * time.Second

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Error("open database", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	networks, err := db.Store{DB: conn}.ListNetworks(context.Background())
	if err != nil {
		log.Error("list networks", "err", err)
		os.Exit(1)
	}
	if len(networks) == 0 {
		log.Error("no networks stored")
		os.Exit(1)
	}
	log.Info("loaded networks", "count", len(networks))

	var totalReq, totalErr, totalHit, infeasible int64

	sketch, err := ddsketch.NewDefaultDDSketch(0.01)
	if err != nil {
		panic(err)
	}
	var latencies stats.Sample

	client := &http.Client{Timeout: 10 * time.Second}

	// clear cache before test to avoid cumulative stats
	resp, err := client.Get(server + "/debug/clear_cache")
	if err != nil {
		log.Error("failed to clear cache", "err", err)
		os.Exit(1)
	}
	resp.Body.Close()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	// a small speed pool so repeated queries can hit the result cache
	speedPool := []int{40, 50, 60, 75, 90, 100}

	log.Info("running loadgen", "duration", duration)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	for ctx.Err() == nil {
		network := networks[rnd.Intn(len(networks))]
		sA := speedPool[rnd.Intn(len(speedPool))]
		sB := speedPool[rnd.Intn(len(speedPool))]
		sC := speedPool[rnd.Intn(len(speedPool))]

		start := time.Now()
		resp, err := client.Get(fmt.Sprintf("%s/broadcast?network=%s&sA=%d&sB=%d&sC=%d", server, url.QueryEscape(network), sA, sB, sC))
		lat := time.Since(start)

		totalReq++
		if err != nil {
			totalErr++
			continue
		}

		var br model.BroadcastResponse
		err = json.NewDecoder(resp.Body).Decode(&br)
		resp.Body.Close()
		if err != nil || resp.StatusCode != http.StatusOK {
			totalErr++
			continue
		}

		ms := float64(lat.Microseconds()) / 1000
		sketch.Add(ms)
		latencies.Xs = append(latencies.Xs, ms)
		if br.CacheHit {
			totalHit++
		}
		if !br.Feasible {
			infeasible++
		}
	}

	gstats := model.CacheStats{}
	if resp, err := client.Get(server + "/debug/graphcache_stats"); err == nil {
		json.NewDecoder(resp.Body).Decode(&gstats)
		resp.Body.Close()
	}

	fmt.Println("\n========== LOADGEN SUMMARY ==========")
	fmt.Printf("Total Requests: %d\n", totalReq)
	fmt.Printf("Errors: %d\n", totalErr)
	fmt.Printf("Infeasible answers: %d\n", infeasible)

	if totalReq > 0 {
		fmt.Printf("ResultCache Hit Rate: %.1f%%\n", float64(totalHit)/float64(totalReq)*100)
	}
	if gstats.Gets > 0 {
		fmt.Printf("GraphCache Hit Rate: %.1f%% (gets=%d, hits=%d, puts=%d, evictions=%d)\n",
			float64(gstats.Hits)/float64(gstats.Gets)*100, gstats.Gets, gstats.Hits, gstats.Puts, gstats.Evictions)
	}

	if len(latencies.Xs) > 0 {
		sort.Float64s(latencies.Xs)
		latencies.Sorted = true
		q, err := sketch.GetValuesAtQuantiles([]float64{0.50, 0.95, 0.99})
		if err != nil {
			panic(err)
		}
		fmt.Printf("Avg Latency: %.3fms (stddev %.3fms)\n", latencies.Mean(), latencies.StdDev())
		fmt.Printf("P50/P95/P99: %.3fms / %.3fms / %.3fms\n", q[0], q[1], q[2])
		fmt.Printf("Fastest: %.3fms\n", latencies.Xs[0])
		fmt.Printf("Slowest: %.3fms\n", latencies.Xs[len(latencies.Xs)-1])
	}

	fmt.Println("=====================================")
}

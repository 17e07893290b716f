// Command luftraum-sim serves synthetic SBS-1 traffic over TCP for local
// testing of luftraum.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"luftraum/internal/sim"
)

func main() {
	var (
		listen   = flag.String("listen", ":30003", "TCP listen address")
		count    = flag.Int("count", 5, "Number of simulated aircraft")
		lat      = flag.Float64("lat", 53.55, "Center latitude")
		lon      = flag.Float64("lon", 9.99, "Center longitude")
		alt      = flag.Int("alt", 4500, "Base altitude in feet")
		radius   = flag.Float64("radius-nm", 5, "Orbit radius in NM")
		interval = flag.Duration("interval", time.Second, "Broadcast interval")
	)
	flag.Parse()

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatalf("listen failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ts := sim.TrafficSim{
		CenterLatDeg: *lat,
		CenterLonDeg: *lon,
		BaseAltFeet:  *alt,
		RadiusNm:     *radius,
	}
	srv := &sim.Server{
		Interval: *interval,
		Lines:    func(now time.Time) []string { return ts.Lines(now, *count) },
	}

	log.Printf("luftraum-sim listening addr=%s count=%d interval=%s", ln.Addr(), *count, *interval)
	if err := srv.Serve(ctx, ln); err != nil {
		log.Fatalf("sim server stopped: %v", err)
	}
	log.Printf("luftraum-sim stopping")
}

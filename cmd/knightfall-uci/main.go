package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/knightfall/engine/internal/engine"
	"github.com/knightfall/engine/internal/store"
	"github.com/knightfall/engine/internal/uci"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	eng := engine.NewEngine(64)

	st, err := store.Open()
	if err != nil {
		log.Printf("search telemetry disabled: %v", err)
		st = nil
	}

	protocol := uci.New(eng, st)
	protocol.Run()
}

// Gauge emulator:
// - Creates a PTY pair and prints the port path to point gaugebridge at
// - Streams synthetic ITR 90 frames at ~50 Hz with a random-walk pressure
// - Optionally corrupts a fraction of checksums to exercise decoder resync
package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/creack/pty"

	"gaugebridge/internal/itr90"
)

func main() {
	rate := flag.Float64("rate", 50, "frames per second")
	start := flag.Float64("pressure", 1e-5, "starting pressure in mbar")
	corrupt := flag.Float64("corrupt", 0, "fraction of frames with a broken checksum (0..1)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	master, slave, err := pty.Open()
	if err != nil {
		log.Fatalf("open pty: %v", err)
	}
	defer func() {
		if cerr := master.Close(); cerr != nil {
			log.Printf("warning: close master: %v", cerr)
		}
		if cerr := slave.Close(); cerr != nil {
			log.Printf("warning: close slave: %v", cerr)
		}
	}()

	log.Printf("emulating ITR 90 on %s (%.0f frames/s)", slave.Name(), *rate)
	log.Printf("run: gaugebridge %s", slave.Name())

	// Echo back any command bytes the bridge relays to us.
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := master.Read(buf)
			if err != nil {
				return
			}
			log.Printf("command received: [% X]", buf[:n])
		}
	}()

	rng := rand.New(rand.NewSource(*seed))
	pressure := *start
	ticker := time.NewTicker(time.Duration(float64(time.Second) / *rate))
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	for {
		select {
		case <-stop:
			log.Println("emulator stopped")
			return
		case <-ticker.C:
			// Random walk in log space, clamped to the gauge's range.
			pressure *= math.Pow(10, (rng.Float64()-0.5)*0.02)
			pressure = math.Min(math.Max(pressure, 1e-12), 1e3)

			frame := itr90.EncodeFrame(itr90.RawFromPressure(pressure))
			if *corrupt > 0 && rng.Float64() < *corrupt {
				frame[len(frame)-1] ^= 0xFF
			}
			if _, err := master.Write(frame); err != nil {
				log.Fatalf("write frame: %v", err)
			}
		}
	}
}

// Command mmwave reads an MR24HPC1 presence radar over a serial port,
// records its readings to SQLite and serves debug and metrics endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/mmwave/internal/db"
	"github.com/banshee-data/mmwave/internal/monitoring"
	"github.com/banshee-data/mmwave/internal/radar"
	"github.com/banshee-data/mmwave/internal/serialmux"
	"github.com/banshee-data/mmwave/internal/version"
)

var (
	devMode   = flag.Bool("dev", false, "Use a simulated sensor instead of the serial port")
	listen    = flag.String("listen", ":8080", "Listen address")
	port      = flag.String("port", "/dev/ttyACM0", "Serial port to use (ignored in dev mode)")
	baud      = flag.Int("baud", serialmux.DefaultBaudRate, "Serial baud rate")
	dbPath    = flag.String("db", "mmwave.db", "SQLite database path")
	modeFlag  = flag.String("mode", "simple", "Sensor output mode: simple or advanced")
	interval  = flag.Duration("interval", 10*time.Second, "Record unchanged readings at most this often")
	timeout   = flag.Duration("timeout", radar.DefaultTimeout, "Response timeout for sensor queries")
	verbose   = flag.Bool("verbose", false, "Log every frame")
	disableDB = flag.Bool("disable-db", false, "Do not record readings")
	showVer   = flag.Bool("version", false, "Print version and exit")
	listPorts = flag.Bool("list-ports", false, "List serial ports and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.String())
		return
	}

	if *listPorts {
		if err := printPorts(os.Stdout); err != nil {
			log.Fatalf("failed to list serial ports: %v", err)
		}
		return
	}

	if flag.NArg() > 0 && flag.Arg(0) == "migrate" {
		if err := db.RunMigrateCommand(os.Stdout, flag.Args()[1:], *dbPath); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	mode, err := radar.ParseMode(*modeFlag)
	if err != nil {
		log.Fatal(err)
	}

	var stream *serialmux.PortStream
	portName := *port
	if *devMode {
		stream = serialmux.NewPortStream(serialmux.NewSimulatedSensor(time.Second))
		portName = "simulated"
	} else {
		if *port == "" {
			log.Fatal("Serial port is required")
		}
		stream, err = serialmux.OpenStream(serialmux.NewRealSerialPortFactory(), *port, serialmux.PortOptions{BaudRate: *baud})
		if err != nil {
			log.Fatalf("failed to open radar port: %v", err)
		}
	}
	defer stream.Close()

	reg := monitoring.NewRegistry()
	driver := radar.NewDriver(stream,
		radar.WithTimeout(*timeout),
		radar.WithVerbose(*verbose),
		radar.WithLogf(monitoring.Prefixed("["+portName+"] ")),
		radar.WithMetrics(monitoring.NewMetrics(reg)),
	)

	log.Print(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	product, err := initialize(ctx, driver, mode)
	if err != nil {
		log.Fatalf("failed to initialize sensor: %v", err)
	}
	log.Printf("initialized %s on %s: firmware %s, %s mode", product.Model, portName, product.Firmware, mode)

	var database *db.DB
	var session db.Session
	if !*disableDB {
		database, err = db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		session, err = database.StartSession(ctx, portName, mode, product, time.Now())
		if err != nil {
			log.Fatalf("failed to start session: %v", err)
		}
		log.Printf("recording session %s to %s", session.ID, *dbPath)
	}

	monitor := radar.NewMonitor(driver)
	defer monitor.Close()

	var wg sync.WaitGroup

	// run the monitor routine; it is the only reader of the serial link
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor radar: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	if database != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, c := monitor.Subscribe()
			defer monitor.Unsubscribe(id)
			rec := db.NewRecorder(database, session.ID, *interval, nil)
			if err := rec.Run(ctx, c); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("recorder stopped: %v", err)
			}
			log.Printf("recorder routine terminated after %d readings", rec.Written())
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux, err := newServeMux(monitor, database, reg)
		if err != nil {
			log.Printf("failed to set up HTTP routes: %v", err)
			stop()
			return
		}
		server := &http.Server{
			Addr:    *listen,
			Handler: mux,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// printPorts writes the host's serial port names one per line.
func printPorts(w io.Writer) error {
	ports, err := serialmux.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(w, p)
	}
	return nil
}

// initialize checks the link, reads the product information and puts the
// sensor in mode.
func initialize(ctx context.Context, d *radar.Driver, mode radar.Mode) (radar.ProductInfo, error) {
	if _, err := d.AskHeartbeat(ctx); err != nil {
		return radar.ProductInfo{}, fmt.Errorf("no heartbeat: %w", err)
	}
	product, err := d.AskProductInfo(ctx)
	if err != nil {
		return radar.ProductInfo{}, fmt.Errorf("failed to read product info: %w", err)
	}
	if err := d.SetMode(mode); err != nil {
		return product, fmt.Errorf("failed to set %s mode: %w", mode, err)
	}
	return product, nil
}

// newServeMux mounts the radar and database debug routes and /metrics.
// database may be nil when recording is disabled.
func newServeMux(monitor *radar.Monitor, database *db.DB, reg *prometheus.Registry) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	monitor.AttachAdminRoutes(mux)
	if database != nil {
		if err := database.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	mux.Handle("/metrics", monitoring.Handler(reg))
	return mux, nil
}

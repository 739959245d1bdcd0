// Command udpgen is the process entry point wiring together the packet
// scheduler, pcap replayer, and capture writer behind a single HTTP control
// surface: package-level flags, a signal.NotifyContext-driven goroutine
// group, and a best-effort graceful shutdown.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/udpgen/internal/blueprint"
	"github.com/banshee-data/udpgen/internal/capture"
	"github.com/banshee-data/udpgen/internal/config"
	"github.com/banshee-data/udpgen/internal/csvgen"
	"github.com/banshee-data/udpgen/internal/fieldexpr"
	"github.com/banshee-data/udpgen/internal/fsutil"
	"github.com/banshee-data/udpgen/internal/httpapi"
	"github.com/banshee-data/udpgen/internal/pcapio"
	"github.com/banshee-data/udpgen/internal/pcapio/index"
	"github.com/banshee-data/udpgen/internal/replay"
	"github.com/banshee-data/udpgen/internal/scheduler"
	"github.com/banshee-data/udpgen/internal/shutdown"
	"github.com/banshee-data/udpgen/internal/stats"
	"github.com/banshee-data/udpgen/internal/timing"
	"github.com/banshee-data/udpgen/internal/udpsock"
	"github.com/banshee-data/udpgen/internal/version"
)

var (
	modeFlag        = flag.String("mode", "send", "operating mode: send|replay|capture|csv")
	listenFlag      = flag.String("listen", ":8090", "HTTP control-surface listen address")
	configFlag      = flag.String("config", "udpgen.yaml", "path to the configuration document")
	configDirFlag   = flag.String("config-dir", ".", "directory the configuration document must live within")
	pcapFlag        = flag.String("pcap", "capture.pcap", "capture dataset path (replay source, or capture destination)")
	indexFlag       = flag.String("index-db", "", "sqlite capture index path (empty disables indexing)")
	maxPerFileFlag  = flag.Int("max-packets-per-file", 0, "rotate the capture file after this many packets (0 = unbounded)")
	maxDelayFlag    = flag.Int64("max-replay-delay-ms", 0, "cap any single replay pacing wait, in milliseconds (0 = uncapped)")
	csvFlag         = flag.String("csv", "packets.csv", "CSV packet dataset path (csv mode)")
	csvIntervalFlag = flag.Int64("csv-interval-ms", 100, "inter-packet interval for csv mode, in milliseconds")
)

func main() {
	flag.Parse()
	log.Printf("udpgen %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	fs := fsutil.OSFileSystem{}
	allowedDirs := []string{*configDirFlag}
	doc := config.Load(fs, *configFlag, allowedDirs)

	signal_ := shutdown.New()
	collector := stats.New()

	var (
		startFn      httpapi.StartFunc
		messages     []*blueprint.Schedulable
		closers      []func() error
		captureIndex *index.Index
	)

	switch strings.ToLower(*modeFlag) {
	case "send":
		messages = buildSchedulables(doc)
		endpoint, err := networkEndpoint(doc.Sender)
		if err != nil {
			log.Fatalf("udpgen: invalid sender.network: %v", err)
		}
		socket, err := udpsock.NewRealFactory().NewSender(endpoint)
		if err != nil {
			log.Fatalf("udpgen: create sender socket: %v", err)
		}
		closers = append(closers, socket.Close)
		sched := scheduler.New(messages, socket, endpoint.UDPAddr(), signal_, collector, nil)
		startFn = func() error {
			sched.Run()
			return nil
		}

	case "replay":
		endpoint, err := networkEndpoint(doc.Sender)
		if err != nil {
			log.Fatalf("udpgen: invalid sender.network: %v", err)
		}
		reader, err := pcapio.NewReaderFactory().Open(*pcapFlag)
		if err != nil {
			log.Fatalf("udpgen: open replay dataset %s: %v", *pcapFlag, err)
		}
		closers = append(closers, reader.Close)
		socket, err := udpsock.NewRealFactory().NewSender(endpoint)
		if err != nil {
			log.Fatalf("udpgen: create sender socket: %v", err)
		}
		closers = append(closers, socket.Close)
		pacer := timing.New(nil, time.Duration(*maxDelayFlag)*time.Millisecond)
		r := replay.New(reader, socket, endpoint.UDPAddr(), pacer, signal_, collector)
		startFn = r.Run

	case "capture":
		endpoint, err := networkEndpoint(doc.Sender)
		if err != nil {
			log.Fatalf("udpgen: invalid sender.network: %v", err)
		}
		socket, err := udpsock.NewRealFactory().NewReceiver(endpoint)
		if err != nil {
			log.Fatalf("udpgen: create receiver socket: %v", err)
		}
		closers = append(closers, socket.Close)
		writer, err := pcapio.NewWriterFactory().Create(*pcapFlag, pcapio.WriterOptions{
			MaxPacketsPerFile: *maxPerFileFlag,
			EnableIndexCache:  *indexFlag != "",
		})
		if err != nil {
			log.Fatalf("udpgen: create capture dataset %s: %v", *pcapFlag, err)
		}

		var recorder capture.IndexRecorder
		if *indexFlag != "" {
			idx, err := index.Open(*indexFlag)
			if err != nil {
				log.Fatalf("udpgen: open capture index %s: %v", *indexFlag, err)
			}
			log.Printf("udpgen: capture index session %s", idx.SessionID())
			closers = append(closers, idx.Close)
			recorder = idx
			captureIndex = idx
		}

		w := capture.New(socket, writer, recorder, signal_, collector)
		startFn = w.Run

	case "csv":
		endpoint, err := networkEndpoint(doc.Sender)
		if err != nil {
			log.Fatalf("udpgen: invalid sender.network: %v", err)
		}
		f, err := os.Open(*csvFlag)
		if err != nil {
			log.Fatalf("udpgen: open csv dataset %s: %v", *csvFlag, err)
		}
		dataset, err := csvgen.ReadDataset(f)
		f.Close()
		if err != nil {
			log.Fatalf("udpgen: parse csv dataset %s: %v", *csvFlag, err)
		}
		socket, err := udpsock.NewRealFactory().NewSender(endpoint)
		if err != nil {
			log.Fatalf("udpgen: create sender socket: %v", err)
		}
		closers = append(closers, socket.Close)
		e := csvgen.NewEmitter(dataset, socket, endpoint.UDPAddr(), time.Duration(*csvIntervalFlag)*time.Millisecond, signal_, collector, nil)
		startFn = e.Run

	default:
		log.Fatalf("udpgen: unknown mode %q (want send|replay|capture|csv)", *modeFlag)
	}

	control := httpapi.New(signal_, collector, startFn, messages, doc, fs, *configFlag, allowedDirs)
	if captureIndex != nil {
		captureIndex.AttachAdminRoutes(control.ServeMux())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := startFn(); err != nil {
			log.Printf("udpgen: %s loop exited with error: %v", *modeFlag, err)
		}
	}()

	httpServer := &http.Server{Addr: *listenFlag, Handler: control.ServeMux()}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("udpgen: control surface listening on %s", *listenFlag)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("udpgen: http server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("udpgen: shutdown requested")
	signal_.RequestStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		if closeErr := httpServer.Close(); closeErr != nil {
			log.Printf("udpgen: http server force close error: %v", closeErr)
		}
	}

	if err := doc.Save(fs, *configFlag, allowedDirs); err != nil {
		log.Printf("udpgen: failed to save config on exit: %v", err)
	}

	wg.Wait()

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("udpgen: cleanup error: %v", err)
		}
	}

	log.Println("udpgen: graceful shutdown complete")
}

// buildSchedulables converts the configuration document's messages[] into
// runtime Schedulables, parsing each field's type string through the
// field-expression engine.
func buildSchedulables(doc *config.Document) []*blueprint.Schedulable {
	out := make([]*blueprint.Schedulable, 0, len(doc.Messages))
	for _, m := range doc.Messages {
		fields := make([]blueprint.FieldDescriptor, 0, len(m.Fields))
		for _, f := range m.Fields {
			dt, expr, err := fieldexpr.Parse(f.Type)
			if err != nil {
				log.Printf("udpgen: message %q field %q: %v (defaulting to i32 with no expression)", m.Name, f.Name, err)
				dt = fieldexpr.I32
				expr = nil
			}
			fields = append(fields, blueprint.FieldDescriptor{
				Name:        f.Name,
				DataType:    dt,
				DefaultExpr: expr,
				Editable:    f.IsEditable(),
			})
		}
		bp := blueprint.MessageBlueprint{
			Name:        m.Name,
			IntervalMS:  m.IntervalMS,
			Enabled:     m.Enabled,
			PacketCount: m.PacketCount,
			Fields:      fields,
		}
		out = append(out, blueprint.NewSchedulable(bp))
	}
	return out
}

// networkEndpoint converts the configuration document's sender.network
// section into a udpsock.NetworkEndpoint.
func networkEndpoint(n config.NetworkSection) (udpsock.NetworkEndpoint, error) {
	if err := n.Validate(); err != nil {
		return udpsock.NetworkEndpoint{}, err
	}

	addr := net.ParseIP(n.Address)

	var mode udpsock.Mode
	switch n.NetworkType {
	case "unicast":
		mode = udpsock.Unicast
	case "broadcast":
		mode = udpsock.Broadcast
	case "multicast":
		mode = udpsock.Multicast
	}

	endpoint := udpsock.NetworkEndpoint{
		Address:   addr,
		Port:      n.Port,
		Mode:      mode,
		Interface: n.Interface,
	}
	if err := endpoint.Validate(); err != nil {
		return udpsock.NetworkEndpoint{}, err
	}
	if mode == udpsock.Broadcast && endpoint.BroadcastAddressLooksWrong() {
		log.Printf("udpgen: warning: broadcast address %s is neither a directed (x.x.x.255) nor limited (255.255.255.255) broadcast address", n.Address)
	}
	return endpoint, nil
}

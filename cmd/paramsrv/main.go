// Binary paramsrv runs a demonstration paramtree server over a serial
// line or a UDP socket, exposing a small example parameter tree and
// exporting its counters and queue depth to Prometheus.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/m-lab/paramtree/config"
	"github.com/m-lab/paramtree/message"
	"github.com/m-lab/paramtree/param"
	"github.com/m-lab/paramtree/server"
	"github.com/m-lab/paramtree/transport"
	"github.com/m-lab/paramtree/wire"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	transportKind = flag.String("transport", "udp", "Device to serve over: \"udp\" or \"serial\".")
	listenAddr    = flag.String("listen", "127.0.0.1:7912", "UDP address to listen on, when -transport=udp.")
	serialDevice  = flag.String("device", "/dev/ttyUSB0", "Serial device path, when -transport=serial.")
	baudRate      = flag.Uint("baud", 115200, "Serial baud rate, when -transport=serial.")

	name       = flag.String("name", "paramsrv", "Server name exposed at reserved PID 0.")
	version    = flag.String("version", "1.0", "Server version exposed at reserved PID 1.")
	schemaPath = flag.String("schema", "", "Path to also write the rendered schema XML to. Default is the reserved ./.server-<name>.xml path.")
	configPath = flag.String("config", "", "Path to a savable-parameter config file to load at startup.")

	queued    = flag.Bool("queued", false, "Use the queueing server engine instead of the single-threaded one.")
	workers   = flag.Int("workers", 4, "Worker count, when -queued is set.")
	queueSize = flag.Int("queue-size", 64, "Work queue depth, when -queued is set.")

	promAddr = flag.String("prom", ":9090", "Prometheus metrics export address and port.")
)

func openDevice() message.Device {
	switch *transportKind {
	case "udp":
		dev, err := transport.ListenDatagram(*listenAddr)
		rtx.Must(err, "Could not listen on %s", *listenAddr)
		return dev
	case "serial":
		dev, err := transport.OpenSerial(*serialDevice, uint32(*baudRate))
		rtx.Must(err, "Could not open serial device %s", *serialDevice)
		return dev
	default:
		log.Fatalf("unknown -transport %q (want \"udp\" or \"serial\")", *transportKind)
		return nil
	}
}

// buildTree registers a small example parameter tree under a "sys"
// container: a writable threshold, an on/off mode with a value
// enumeration, a read-only status table, and a savable tag list,
// exercising all of scalar/table/list (and both enumeration kinds)
// without tying the demo to any particular hardware domain.
func buildTree(reg *param.Registry) {
	sys := reg.Root().Child("sys")

	var threshold uint32
	reg.Register(sys, param.NewScalar(
		param.Meta{Name: "threshold", Type: wire.Uint32, Access: param.Readable | param.Writable, Savable: true},
		func() interface{} { return threshold },
		func(v interface{}) wire.ErrCode { threshold = v.(uint32); return wire.ErrNone },
	))

	var mode uint32
	reg.Register(sys, param.NewScalar(
		param.Meta{Name: "mode", Type: wire.Uint32, Access: param.Readable | param.Writable, Savable: true,
			ValueEnum: map[int64]string{0: "off", 1: "on"}},
		func() interface{} { return mode },
		func(v interface{}) wire.ErrCode { mode = v.(uint32); return wire.ErrNone },
	))

	status := [2]string{"idle", "idle"}
	reg.Register(sys, param.NewTable(
		param.Meta{Name: "status", Type: wire.Str, Access: param.Readable, Size: 2,
			IndexEnum: map[uint32]string{0: "primary", 1: "secondary"}},
		2,
		func(eid wire.EID) interface{} { return status[eid] },
		nil,
	))

	tags := param.NewList(
		param.Meta{Name: "tags", Type: wire.Str, Access: param.Readable | param.Writable, Savable: true, MaxSize: 16},
		16, nil, nil,
	)
	reg.Register(sys, tags)
}

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "Could not get args from environment variables")

	promSrv := prometheusx.MustStartPrometheus(*promAddr)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer promSrv.Shutdown(ctx)

	dev := openDevice()

	reg := param.NewRegistry()
	buildTree(reg)

	srv := server.New(dev, reg, *name, *version)

	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err == nil {
			rtx.Must(config.Import(f, reg.Root()), "Could not import config from %s", *configPath)
			f.Close()
		} else if !os.IsNotExist(err) {
			rtx.Must(err, "Could not open config file %s", *configPath)
		}
	}

	path := *schemaPath
	if path == "" {
		path = server.DefaultSchemaPath(*name)
	}
	rtx.Must(srv.Start(path), "Could not start server")

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var err error
	if *queued {
		q := server.NewQueued(srv, *workers, *queueSize)
		err = q.Serve(sigCtx)
	} else {
		err = srv.Serve(sigCtx)
	}
	if err != nil && sigCtx.Err() == nil {
		log.Println("server exited:", err)
	}
}

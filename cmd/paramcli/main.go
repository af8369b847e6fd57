// Binary paramcli is a minimal reference client for a paramtree server:
// it bootstraps a session, then performs each requested action among
// import/export/get/set/csv against the downloaded schema tree before
// exiting.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"

	"github.com/m-lab/paramtree/archive"
	"github.com/m-lab/paramtree/client"
	"github.com/m-lab/paramtree/config"
	"github.com/m-lab/paramtree/message"
	"github.com/m-lab/paramtree/param"
	"github.com/m-lab/paramtree/transport"
	"github.com/m-lab/paramtree/wire"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	transportKind = flag.String("transport", "udp", "Device to connect over: \"udp\" or \"serial\".")
	serverAddr    = flag.String("connect", "127.0.0.1:7912", "Server UDP address, when -transport=udp.")
	serialDevice  = flag.String("device", "/dev/ttyUSB0", "Serial device path, when -transport=serial.")
	baudRate      = flag.Uint("baud", 115200, "Serial baud rate, when -transport=serial.")
	timeout       = flag.Duration("timeout", 2*time.Second, "Per-request timeout.")

	schemaCache = flag.String("schema-cache", "", "Path to a cached schema XML file. Default is the reserved ./.client-<name>.xml path.")
	archiveDir  = flag.String("archive-dir", "", "If set, retain a compressed copy of every freshly-downloaded schema under this directory.")
	archiveKeep = flag.Int("archive-keep", 10, "Number of archived schema copies to retain per server name.")

	getPath     = flag.String("get", "", "Container path to get and print.")
	setPath     = flag.String("set", "", "Container path to set.")
	setValue    = flag.String("value", "", "Value to apply with -set.")
	exportPath  = flag.String("export-config", "", "Write the savable-parameter config to this file.")
	importPath  = flag.String("import-config", "", "Apply the savable-parameter config in this file.")
	csvPath     = flag.String("csv", "", "Container path of a table or list to export as CSV, written to stdout.")
)

func openDevice() message.Device {
	switch *transportKind {
	case "udp":
		dev, err := transport.DialDatagram(*serverAddr)
		rtx.Must(err, "Could not dial %s", *serverAddr)
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

// csvRow is one table/list element, suitable for gocsv marshalling.
type csvRow struct {
	Index uint32 `csv:"index"`
	Label string `csv:"label"`
	Value string `csv:"value"`
}

func exportCSV(p param.Parameter, meta param.Meta, w *os.File) error {
	var rows []csvRow
	switch meta.Shape {
	case param.TableShape:
		for eid := uint32(0); eid < meta.Size; eid++ {
			_, v, errCode := p.IGet(wire.EID(eid))
			if errCode != wire.ErrNone {
				continue
			}
			rows = append(rows, csvRow{Index: eid, Label: indexLabel(meta, eid), Value: fmt.Sprintf("%v", v)})
		}
	case param.ListShape:
		for eid := uint32(0); ; eid++ {
			_, v, errCode := p.IGet(wire.EID(eid))
			if errCode != wire.ErrNone {
				break
			}
			rows = append(rows, csvRow{Index: eid, Label: indexLabel(meta, eid), Value: fmt.Sprintf("%v", v)})
		}
	default:
		return fmt.Errorf("paramcli: -csv requires a table or list parameter, got shape %v", meta.Shape)
	}
	return gocsv.Marshal(rows, w)
}

func indexLabel(meta param.Meta, eid uint32) string {
	if name, ok := meta.IndexEnum[eid]; ok {
		return name
	}
	return fmt.Sprintf("%d", eid)
}

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "Could not get args from environment variables")

	dev := openDevice()

	sess, err := client.Bootstrap(dev, *timeout, *schemaCache)
	rtx.Must(err, "Could not bootstrap session")
	defer sess.Close()

	log.Printf("connected to %s version %s (schema crc %08x)", sess.Name, sess.Version, sess.SchemaCRC)

	if *archiveDir != "" {
		store := archive.NewStore(*archiveDir, *archiveKeep)
		_, err := store.Save(sess.Name, sess.SchemaXML, time.Now())
		rtx.Must(err, "Could not archive schema for %s", sess.Name)
	}

	if *importPath != "" {
		f, err := os.Open(*importPath)
		rtx.Must(err, "Could not open %s", *importPath)
		err = config.Import(f, sess.Root)
		f.Close()
		rtx.Must(err, "Could not import config from %s", *importPath)
	}

	if *exportPath != "" {
		f, err := os.Create(*exportPath)
		rtx.Must(err, "Could not create %s", *exportPath)
		err = config.Export(f, sess.Root)
		f.Close()
		rtx.Must(err, "Could not export config to %s", *exportPath)
	}

	if *getPath != "" {
		p, ok := sess.Root.Find(*getPath)
		if !ok {
			log.Fatalf("no such parameter %q", *getPath)
		}
		_, v, errCode := p.Get()
		if errCode != wire.ErrNone {
			log.Fatalf("get %s: %s", *getPath, errCode)
		}
		fmt.Println(v)
	}

	if *setPath != "" {
		p, ok := sess.Root.Find(*setPath)
		if !ok {
			log.Fatalf("no such parameter %q", *setPath)
		}
		meta := p.Meta()
		v, err := config.ParseValue(meta, *setValue)
		rtx.Must(err, "Could not parse -value %q", *setValue)
		if errCode := p.Set(meta.Type, v); errCode != wire.ErrNone {
			log.Fatalf("set %s: %s", *setPath, errCode)
		}
	}

	if *csvPath != "" {
		p, ok := sess.Root.Find(*csvPath)
		if !ok {
			log.Fatalf("no such parameter %q", *csvPath)
		}
		rtx.Must(exportCSV(p, p.Meta(), os.Stdout), "Could not export %s as CSV", *csvPath)
	}
}

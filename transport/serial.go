package transport

import (
	"fmt"

	serial "github.com/daedaluz/goserial"
)

// Serial adapts a serial line to message.Device, layering Stream's SLIP
// framing over the raw byte stream a UART provides.
type Serial struct {
	port   *serial.Port
	stream *Stream
}

// baudRates maps the handful of speeds the embedded controllers this
// package talks to actually use onto goserial's CFlag constants; anything
// else falls back to the most common rate rather than failing outright.
var baudRates = map[uint32]serial.CFlag{
	9600:    serial.B9600,
	19200:   serial.B19200,
	38400:   serial.B38400,
	57600:   serial.B57600,
	115200:  serial.B115200,
	230400:  serial.B230400,
	460800:  serial.B460800,
	921600:  serial.B921600,
	1152000: serial.B1152000,
}

func cflagForBaud(baud uint32) serial.CFlag {
	if c, ok := baudRates[baud]; ok {
		return c
	}
	return serial.B115200
}

// OpenSerial opens name (e.g. "/dev/ttyUSB0") at baud, puts the line into
// raw mode, and returns it wrapped as a message.Device.
func OpenSerial(name string, baud uint32) (*Serial, error) {
	port, err := serial.Open(name, serial.NewOptions())
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", name, err)
	}
	attrs, err := port.GetAttr()
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("transport: get attr %s: %w", name, err)
	}
	attrs.MakeRaw()
	attrs.SetSpeed(cflagForBaud(baud))
	if err := port.SetAttr(serial.TCSANOW, attrs); err != nil {
		port.Close()
		return nil, fmt.Errorf("transport: set attr %s: %w", name, err)
	}
	return &Serial{port: port, stream: NewStream(port)}, nil
}

// Read returns the next SLIP-delimited message.
func (s *Serial) Read(buf []byte) (int, error) {
	return s.stream.Read(buf)
}

// Write sends buf as a single SLIP-delimited message.
func (s *Serial) Write(buf []byte) (int, error) {
	return s.stream.Write(buf)
}

// Close releases the underlying port.
func (s *Serial) Close() error {
	return s.port.Close()
}

package tracer

import (
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/steleth/steleth/log"
)

// TraceFileEnv names the environment variable overriding the trace output
// path.
const TraceFileEnv = "TRACE_FILE"

// DefaultTraceFile is where WriteFile lands when TRACE_FILE is unset.
const DefaultTraceFile = "trace.json.gz"

// Record is one decoded trace entry: a section (or point event) with its
// net cycle count and nesting depth.
type Record struct {
	Label  string `json:"label"`
	Cycles uint64 `json:"cycles"`
	Depth  int    `json:"depth"`
}

type openFrame struct {
	label  string
	cycles uint64
}

// Collector is the host side of the trace stream. It implements io.Writer
// so the guest's trace output can be piped straight in, reassembles frames
// across write boundaries, and maintains the call stack that turns
// Begin/End pairs into depth-annotated records.
type Collector struct {
	buf     []byte
	stack   []openFrame
	records []Record
	logger  *log.Logger
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{logger: log.Default().Module("tracer")}
}

// Write consumes raw frame bytes. Partial frames are buffered until the
// rest arrives.
func (c *Collector) Write(p []byte) (int, error) {
	c.buf = append(c.buf, p...)
	for len(c.buf) >= 2 {
		frameLen := int(binary.LittleEndian.Uint16(c.buf))
		if frameLen < frameHeaderSize {
			return len(p), fmt.Errorf("tracer: frame length %d below header size", frameLen)
		}
		if len(c.buf) < frameLen {
			break
		}
		c.process(c.buf[2], binary.LittleEndian.Uint64(c.buf[3:]), string(c.buf[frameHeaderSize:frameLen]))
		c.buf = c.buf[frameLen:]
	}
	return len(p), nil
}

func (c *Collector) process(kind byte, cycles uint64, label string) {
	switch kind {
	case kindBegin:
		c.stack = append(c.stack, openFrame{label: label, cycles: cycles})

	case kindEnd:
		if len(c.stack) == 0 {
			c.logger.Warn("trace stack underflow", "label", label)
			return
		}
		top := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		if top.label != label {
			c.logger.Warn("trace mismatch", "entered", top.label, "exited", label)
			return
		}
		c.records = append(c.records, Record{
			Label:  label,
			Cycles: cycles - top.cycles,
			Depth:  len(c.stack),
		})

	case kindComplete, kindEvent:
		c.records = append(c.records, Record{
			Label:  label,
			Cycles: cycles,
			Depth:  len(c.stack),
		})

	default:
		c.logger.Warn("unknown trace frame kind", "kind", kind)
	}
}

// Records returns the decoded records in completion order.
func (c *Collector) Records() []Record { return c.records }

// WriteFile writes the records as gzip-compressed JSON. An empty path falls
// back to the TRACE_FILE environment variable, then to DefaultTraceFile.
func (c *Collector) WriteFile(path string) error {
	if path == "" {
		path = os.Getenv(TraceFileEnv)
	}
	if path == "" {
		path = DefaultTraceFile
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tracer: create trace file: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(c.records); err != nil {
		zw.Close()
		return fmt.Errorf("tracer: encode trace: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("tracer: close trace stream: %w", err)
	}
	c.logger.Info("trace written", "path", path, "records", len(c.records))
	return nil
}

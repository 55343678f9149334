// Package trace records fleet simulation runs to disk and reads them back.
// A trace is a YAML header next to a CSV file with one row per dispatched request.
package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nara-t/nara-sim/sim"
)

// Version is the trace format written by this package.
const Version = 1

// Header describes the run a trace belongs to.
type Header struct {
	Version    int    `yaml:"trace_version"`
	CreatedAt  string `yaml:"created_at,omitempty"`
	Endpoint   string `yaml:"endpoint"`
	Seed       int64  `yaml:"seed"`
	FleetSize  int    `yaml:"fleet_size"`
	SampleSize int    `yaml:"sample_size"`
	DelayMs    int64  `yaml:"delay_ms"`
	NumResults int    `yaml:"num_results"`
}

// Row is one request as stored in the data CSV.
type Row struct {
	Index        int
	UserID       string
	SessionID    string
	Activity     string
	Hour         int
	Device       string
	Status       string
	HTTPStatus   int
	ItemID       int64
	Artist       string
	Reward       float64
	LatencyMs    float64
	RoundTripMs  float64
	ErrorMessage string
}

// Trace is a loaded header plus its rows.
type Trace struct {
	Header Header
	Rows   []Row
}

var columns = []string{
	"index", "user_id", "session_id", "activity", "hour", "device",
	"status", "http_status", "item_id", "artist", "reward",
	"latency_ms", "round_trip_ms", "error_message",
}

// RowFromRecord flattens a request record.
func RowFromRecord(rec *sim.RequestRecord) Row {
	return Row{
		Index:        rec.Index,
		UserID:       rec.Persona.ID,
		SessionID:    rec.SessionID,
		Activity:     rec.Persona.Activity,
		Hour:         rec.Persona.HourOfDay,
		Device:       rec.Persona.Device,
		Status:       rec.Status,
		HTTPStatus:   rec.HTTPStatus,
		ItemID:       rec.ChosenItemID,
		Artist:       rec.ChosenArtist,
		Reward:       rec.Reward,
		LatencyMs:    rec.LatencyMs,
		RoundTripMs:  rec.RoundTripMs,
		ErrorMessage: rec.ErrorMessage,
	}
}

// Record rebuilds the request record fields a trace keeps.
func (r Row) Record() *sim.RequestRecord {
	return &sim.RequestRecord{
		Index: r.Index,
		Persona: sim.Persona{
			ID:        r.UserID,
			Activity:  r.Activity,
			HourOfDay: r.Hour,
			Device:    r.Device,
		},
		SessionID:    r.SessionID,
		LatencyMs:    r.LatencyMs,
		RoundTripMs:  r.RoundTripMs,
		HTTPStatus:   r.HTTPStatus,
		Status:       r.Status,
		ErrorMessage: r.ErrorMessage,
		ChosenItemID: r.ItemID,
		ChosenArtist: r.Artist,
		Reward:       r.Reward,
	}
}

func (r Row) fields() []string {
	return []string{
		strconv.Itoa(r.Index),
		r.UserID,
		r.SessionID,
		r.Activity,
		strconv.Itoa(r.Hour),
		r.Device,
		r.Status,
		strconv.Itoa(r.HTTPStatus),
		strconv.FormatInt(r.ItemID, 10),
		r.Artist,
		strconv.FormatFloat(r.Reward, 'f', -1, 64),
		strconv.FormatFloat(r.LatencyMs, 'f', -1, 64),
		strconv.FormatFloat(r.RoundTripMs, 'f', -1, 64),
		r.ErrorMessage,
	}
}

// Writer streams request records into a trace as they arrive.
// It implements sim.RecordSink and is safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	csv  *csv.Writer
	rows int
	err  error
}

// NewWriter writes the header YAML immediately and opens the data CSV.
func NewWriter(headerPath, dataPath string, header Header) (*Writer, error) {
	if header.Version == 0 {
		header.Version = Version
	}
	if header.CreatedAt == "" {
		header.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	headerData, err := yaml.Marshal(&header)
	if err != nil {
		return nil, fmt.Errorf("marshaling trace header: %w", err)
	}
	if err := os.WriteFile(headerPath, headerData, 0644); err != nil {
		return nil, fmt.Errorf("writing trace header: %w", err)
	}

	file, err := os.Create(dataPath)
	if err != nil {
		return nil, fmt.Errorf("creating trace data file: %w", err)
	}
	w := &Writer{file: file, csv: csv.NewWriter(file)}
	if err := w.csv.Write(columns); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}
	return w, nil
}

// Observe appends one row. The first write error is kept and reported by Close.
func (w *Writer) Observe(rec *sim.RequestRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	if err := w.csv.Write(RowFromRecord(rec).fields()); err != nil {
		w.err = fmt.Errorf("writing CSV row %d: %w", rec.Index, err)
		return
	}
	// Flush per row so an aborted run still leaves a readable trace.
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.err = fmt.Errorf("flushing CSV row %d: %w", rec.Index, err)
		return
	}
	w.rows++
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Close flushes and closes the data file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	flushErr := w.csv.Error()
	closeErr := w.file.Close()
	switch {
	case w.err != nil:
		return w.err
	case flushErr != nil:
		return fmt.Errorf("flushing trace data: %w", flushErr)
	case closeErr != nil:
		return fmt.Errorf("closing trace data: %w", closeErr)
	}
	return nil
}

// Load reads a trace header (YAML) and data (CSV).
func Load(headerPath, dataPath string) (*Trace, error) {
	headerData, err := os.ReadFile(headerPath)
	if err != nil {
		return nil, fmt.Errorf("reading trace header: %w", err)
	}
	var header Header
	if err := yaml.Unmarshal(headerData, &header); err != nil {
		return nil, fmt.Errorf("parsing trace header: %w", err)
	}
	if header.Version > Version {
		return nil, fmt.Errorf("unsupported trace version %d (max %d)", header.Version, Version)
	}

	file, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("opening trace data: %w", err)
	}
	defer func() { _ = file.Close() }()

	rows, err := readRows(file)
	if err != nil {
		return nil, err
	}
	return &Trace{Header: header, Rows: rows}, nil
}

func readRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var rows []Row
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		if len(fields) < len(columns) {
			return nil, fmt.Errorf("CSV row has %d columns, expected %d", len(fields), len(columns))
		}
		row, err := parseRow(fields)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(f []string) (Row, error) {
	p := rowParser{fields: f}
	row := Row{
		Index:        p.atoi(0),
		UserID:       f[1],
		SessionID:    f[2],
		Activity:     f[3],
		Hour:         p.atoi(4),
		Device:       f[5],
		Status:       f[6],
		HTTPStatus:   p.atoi(7),
		ItemID:       p.parseInt(8),
		Artist:       f[9],
		Reward:       p.parseFloat(10),
		LatencyMs:    p.parseFloat(11),
		RoundTripMs:  p.parseFloat(12),
		ErrorMessage: f[13],
	}
	if p.err != nil {
		return Row{}, p.err
	}
	if row.Status == "" {
		row.Status = sim.StatusOK
	}
	return row, nil
}

// rowParser converts numeric columns and keeps the first failure.
type rowParser struct {
	fields []string
	err    error
}

func (p *rowParser) fail(col int, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("parsing %s %q: %w", columns[col], p.fields[col], err)
	}
}

func (p *rowParser) atoi(col int) int {
	v, err := strconv.Atoi(p.fields[col])
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *rowParser) parseInt(col int) int64 {
	v, err := strconv.ParseInt(p.fields[col], 10, 64)
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *rowParser) parseFloat(col int) float64 {
	v, err := strconv.ParseFloat(p.fields[col], 64)
	if err != nil {
		p.fail(col, err)
	}
	return v
}

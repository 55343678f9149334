package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ScriptVariable is the global the demo page reads the fleet from.
const ScriptVariable = "PERSONA_FLEET"

// WriteScript writes `const PERSONA_FLEET = [...];` for direct inclusion in the page.
func WriteScript(w io.Writer, entries []FleetEntry) error {
	data, err := marshalEntries(entries)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "const %s = %s;", ScriptVariable, data); err != nil {
		return fmt.Errorf("writing persona script: %w", err)
	}
	return nil
}

// WriteJSON writes the entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []FleetEntry) error {
	data, err := marshalEntries(entries)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing persona json: %w", err)
	}
	return nil
}

// WriteFile writes entries to path, as a script when the extension is .js and
// as JSON otherwise.
func WriteFile(path string, entries []FleetEntry) error {
	var buf bytes.Buffer
	var err error
	if strings.EqualFold(filepath.Ext(path), ".js") {
		err = WriteScript(&buf, entries)
	} else {
		err = WriteJSON(&buf, entries)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func marshalEntries(entries []FleetEntry) ([]byte, error) {
	if entries == nil {
		entries = []FleetEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling persona fleet: %w", err)
	}
	return data, nil
}

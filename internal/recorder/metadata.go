package recorder

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"

	"github.com/audiolibrelab/broadcastrec/internal/radiobrowser"
)

// writeMetadata stores the station record as indented JSON. The record the
// directory sent is written as received; a station without one is encoded
// from its fields. The file appears atomically or not at all.
func writeMetadata(path string, station radiobrowser.Station) error {
	var buf bytes.Buffer
	if len(station.Raw) > 0 {
		if err := json.Indent(&buf, station.Raw, "", "  "); err != nil {
			return fmt.Errorf("indent metadata: %w", err)
		}
		buf.WriteByte('\n')
	} else {
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		// stream URLs regularly carry query strings
		enc.SetEscapeHTML(false)
		if err := enc.Encode(station); err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
	}

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending metadata file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := pendingFile.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace metadata file: %w", err)
	}
	return nil
}

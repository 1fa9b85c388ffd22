package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/stylelens/api/schemas"
)

// snapshotDocument is the file format written by `capture` and read by the analysis
// commands: the captured selection of one page, in selection order.
type snapshotDocument struct {
	Source    string                    `json:"source,omitempty"`
	Snapshots []schemas.ElementSnapshot `json:"snapshots"`
}

// loadSnapshots reads a snapshot file. Three shapes are accepted: a single document, a
// list of documents (batch capture output) and a bare list of snapshots.
func loadSnapshots(path string) ([]snapshotDocument, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		var expanded string
		expanded, err = homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand snapshots path '%s': %w", path, err)
		}
		data, err = os.ReadFile(expanded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots from '%s': %w", path, err)
	}

	docs, err := parseSnapshots(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshots from '%s': %w", path, err)
	}
	return docs, nil
}

func parseSnapshots(data []byte) ([]snapshotDocument, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty snapshot file")
	}
	codec := json.ConfigCompatibleWithStandardLibrary

	switch data[0] {
	case '{':
		var doc snapshotDocument
		if err := codec.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return []snapshotDocument{doc}, nil

	case '[':
		if codec.Get(data, 0, "snapshots").ValueType() != json.InvalidValue {
			var docs []snapshotDocument
			if err := codec.Unmarshal(data, &docs); err != nil {
				return nil, err
			}
			return docs, nil
		}
		var snaps []schemas.ElementSnapshot
		if err := codec.Unmarshal(data, &snaps); err != nil {
			return nil, err
		}
		return []snapshotDocument{{Snapshots: snaps}}, nil
	}
	return nil, errors.New("expected a JSON object or array")
}

// writeSnapshots encodes one document, or a list when there are several.
func writeSnapshots(w io.Writer, docs []snapshotDocument) error {
	var v any = docs
	if len(docs) == 1 {
		v = docs[0]
	}
	encoder := json.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode snapshots: %w", err)
	}
	return nil
}

// Package snapshot persists registry snapshots as YAML regression cases.
package snapshot

import (
	"bytes"
	"errors"
	"io"
	"slices"

	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Encode renders records in the snapshot format. Fields holding their zero
// value are left out and every feature list is sorted, so equal snapshots
// encode to equal bytes.
func Encode(records []domain.RawRelease) ([]byte, error) {
	out := make([]domain.RawRelease, len(records))
	for i, r := range records {
		out[i] = canonical(r)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, zerr.Wrap(domain.ErrSnapshotWriteFailed, err.Error())
	}
	if err := enc.Close(); err != nil {
		return nil, zerr.Wrap(domain.ErrSnapshotWriteFailed, err.Error())
	}
	return buf.Bytes(), nil
}

// Decode parses a snapshot. Unknown fields are rejected. An empty document
// decodes to no records.
func Decode(data []byte) ([]domain.RawRelease, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var records []domain.RawRelease
	if err := dec.Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, zerr.Wrap(domain.ErrSnapshotDecodeFailed, err.Error())
	}
	return records, nil
}

func canonical(r domain.RawRelease) domain.RawRelease {
	if len(r.Features) > 0 {
		features := make(map[string][]string, len(r.Features))
		for name, values := range r.Features {
			features[name] = sorted(values)
		}
		r.Features = features
	} else {
		r.Features = nil
	}

	if len(r.Deps) > 0 {
		deps := make([]domain.RawDependency, len(r.Deps))
		for i, d := range r.Deps {
			if len(d.Features) > 0 {
				d.Features = sorted(d.Features)
			} else {
				d.Features = nil
			}
			deps[i] = d
		}
		r.Deps = deps
	} else {
		r.Deps = nil
	}
	return r
}

func sorted(values []string) []string {
	out := slices.Clone(values)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return out
}

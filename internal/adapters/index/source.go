// Package index reads release records from a crates.io style registry index:
// a directory tree with one file per package holding one JSON record per line.
package index

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/valyala/fastjson"
	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/zerr"
)

// maxLine bounds a single index line. Packages with many features exceed
// bufio's default token size.
const maxLine = 16 << 20

// Source implements ports.RecordSource over an index directory.
type Source struct {
	Dir string
}

// NewSource creates a source reading dir.
func NewSource(dir string) *Source {
	return &Source{Dir: dir}
}

// Records yields every record of the index in lexical file order. Malformed
// lines yield domain.ErrIndexRecordInvalid and the walk continues; an unreadable
// directory or file yields domain.ErrIndexReadFailed and ends the sequence.
func (s *Source) Records(ctx context.Context) iter.Seq2[domain.RawRelease, error] {
	return func(yield func(domain.RawRelease, error) bool) {
		var p fastjson.Parser
		err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path != s.Dir && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if skipFile(d.Name()) {
				return nil
			}
			return s.readFile(&p, path, yield)
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(domain.RawRelease{}, zerr.With(zerr.Wrap(domain.ErrIndexReadFailed, err.Error()), "dir", s.Dir))
		}
	}
}

// errStop ends the walk when the consumer stops iterating.
var errStop = zerr.New("iteration stopped")

func skipFile(name string) bool {
	return strings.HasPrefix(name, ".") || name == "config.json"
}

func (s *Source) readFile(p *fastjson.Parser, path string, yield func(domain.RawRelease, error) bool) error {
	f, err := os.Open(path) //nolint:gosec // path comes from walking the index directory
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Bytes()
		if len(bytes.TrimSpace(text)) == 0 {
			continue
		}
		raw, err := parseRecord(p, text)
		if err != nil {
			err = zerr.With(zerr.With(err, "file", path), "line", line)
		}
		if !yield(raw, err) {
			return errStop
		}
	}
	return sc.Err()
}

// parseRecord decodes one index line.
func parseRecord(p *fastjson.Parser, line []byte) (domain.RawRelease, error) {
	v, err := p.ParseBytes(line)
	if err != nil {
		return domain.RawRelease{}, zerr.Wrap(domain.ErrIndexRecordInvalid, err.Error())
	}
	if v.Type() != fastjson.TypeObject {
		return domain.RawRelease{}, zerr.Wrap(domain.ErrIndexRecordInvalid, "record is not an object")
	}

	raw := domain.RawRelease{
		Name:    string(v.GetStringBytes("name")),
		Version: string(v.GetStringBytes("vers")),
		Links:   string(v.GetStringBytes("links")),
		Yanked:  v.GetBool("yanked"),
	}
	for _, d := range v.GetArray("deps") {
		raw.Deps = append(raw.Deps, parseDependency(d))
	}

	// "features2" holds the entries using the dep: and ?/ syntax.
	for _, key := range []string{"features", "features2"} {
		obj := v.GetObject(key)
		if obj == nil {
			continue
		}
		if raw.Features == nil {
			raw.Features = make(map[string][]string, obj.Len())
		}
		obj.Visit(func(name []byte, val *fastjson.Value) {
			raw.Features[string(name)] = stringArray(val)
		})
	}
	return raw, nil
}

func parseDependency(d *fastjson.Value) domain.RawDependency {
	dep := domain.RawDependency{
		Name:     string(d.GetStringBytes("name")),
		Package:  string(d.GetStringBytes("package")),
		Req:      string(d.GetStringBytes("req")),
		Features: stringArray(d.Get("features")),
		Kind:     string(d.GetStringBytes("kind")),
		Optional: d.GetBool("optional"),
		// Absent means enabled.
		DefaultFeatures: true,
	}
	if df := d.Get("default_features"); df != nil {
		dep.DefaultFeatures = df.GetBool()
	}
	return dep
}

// stringArray converts a JSON string array, ignoring non-string members.
func stringArray(v *fastjson.Value) []string {
	if v == nil {
		return nil
	}
	arr, err := v.Array()
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if b, err := item.StringBytes(); err == nil {
			out = append(out, string(b))
		}
	}
	return slices.Clip(out)
}

package duckcheck

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"sync"

	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/cottand/duckcheck/frontend/duckerr"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when CachedResult changes
const diskCacheSchemaVersion uint16 = 1

// analyzerVersion identifies the build of the checker, so that results cached by
// another build are never served
var analyzerVersion = buildVersion()

func buildVersion() string {
	version := "devel"
	if info, ok := debug.ReadBuildInfo(); ok {
		version = info.Main.Version
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" || setting.Key == "vcs.modified" {
				version += "+" + setting.Value
			}
		}
	}
	return strconv.Itoa(int(diskCacheSchemaVersion)) + "/" + version
}

// Digest identifies the inputs of an analysis: the checker build, the program and
// the built-in table
type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// DigestOf hashes every input of an analysis, in order
func DigestOf(inputs ...[]byte) Digest {
	h := sha256.New()
	for _, in := range inputs {
		_, _ = h.Write(binary.LittleEndian.AppendUint64(nil, uint64(len(in))))
		_, _ = h.Write(in)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// DiskCache stores the diagnostics of analyzed programs, keyed by the Digest of their inputs.
// Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedResult is what is stored for an analyzed program
type CachedResult struct {
	Schema      uint16
	Name        string
	Diagnostics []CachedDiagnostic
	Failures    []string
}

type CachedDiagnostic struct {
	Code                                 int
	StartLine, StartCol, EndLine, EndCol int
	Observed, Required, Message          string
}

// OpenDiskCache uses dir, or the user cache directory when dir is empty
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, errors.Wrap(err, "find user cache directory")
		}
		dir = filepath.Join(base, "duckcheck")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create cache directory %s", dir)
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "results", key.String()+".mp")
}

// Put writes result under key, replacing any previous entry atomically
func (c *DiskCache) Put(key Digest, result *CachedResult) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrap(err, "create cache entry directory")
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return errors.Wrap(err, "create cache entry")
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	result.Schema = diskCacheSchemaVersion
	if err = encodeResult(f, result); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "close cache entry")
	}
	if err = os.Rename(f.Name(), p); err != nil {
		return errors.Wrap(err, "replace cache entry")
	}
	return nil
}

func encodeResult(w io.Writer, result *CachedResult) error {
	return errors.Wrap(msgpack.NewEncoder(w).Encode(result), "encode cache entry")
}

// Get reads the entry for key. found is false when there is no entry, or when it
// was written with another schema.
func (c *DiskCache) Get(key Digest) (result *CachedResult, found bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "open cache entry")
	}
	defer f.Close()

	result = &CachedResult{}
	if err := msgpack.NewDecoder(f).Decode(result); err != nil {
		return nil, false, errors.Wrapf(err, "decode cache entry %v", key)
	}
	if result.Schema != diskCacheSchemaVersion {
		packageLogger.Debug("ignoring cache entry with old schema", "key", key, "schema", result.Schema)
		return nil, false, nil
	}
	return result, true, nil
}

// DropAll removes every entry
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Wrap(os.RemoveAll(filepath.Join(c.dir, "results")), "drop cache")
}

func toCached(name string, errs *duckerr.Errors, failures []error) *CachedResult {
	result := &CachedResult{Name: name}
	for _, e := range errs.Errors() {
		start, end := e.Pos(), e.End()
		result.Diagnostics = append(result.Diagnostics, CachedDiagnostic{
			Code:      int(e.Code()),
			StartLine: start.Line,
			StartCol:  start.Col,
			EndLine:   end.Line,
			EndCol:    end.Col,
			Observed:  e.Observed(),
			Required:  e.Required(),
			Message:   e.Error(),
		})
	}
	for _, f := range failures {
		result.Failures = append(result.Failures, f.Error())
	}
	return result
}

func (r *CachedResult) restore() (*duckerr.Errors, []error, error) {
	errs := &duckerr.Errors{}
	for _, d := range r.Diagnostics {
		restored, err := duckerr.Restore(duckerr.ErrCode(d.Code), duckerr.Violation{
			Positioner: ast.Range{
				PosStart: ast.Pos{Line: d.StartLine, Col: d.StartCol},
				PosEnd:   ast.Pos{Line: d.EndLine, Col: d.EndCol},
			},
			ObservedType: d.Observed,
			Requirement:  d.Required,
			Message:      d.Message,
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "restore cached diagnostic")
		}
		errs.With(restored)
	}
	var failures []error
	for _, f := range r.Failures {
		failures = append(failures, errors.New(f))
	}
	return errs, failures, nil
}

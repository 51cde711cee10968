package duckcheck

import (
	"bytes"
	"context"
	"io/fs"
	"path"
	"slices"
	"strings"
	"testing/fstest"

	"github.com/cottand/duckcheck/frontend"
	"github.com/cottand/duckcheck/frontend/ast"
	"github.com/cottand/duckcheck/frontend/duckerr"
	"github.com/cottand/duckcheck/internal/config"
	"github.com/cottand/duckcheck/internal/log"
	"github.com/pkg/errors"
)

var packageLogger = log.DefaultLogger.With("section", "package")

// programExtensions are the formats a program tree can be loaded from
var programExtensions = []string{".yaml", ".yml", ".json"}

// Package is a single analyzed program
type Package struct {
	name     string
	program  *ast.Program
	builtins *config.Builtins
	errors   *duckerr.Errors
	failures []error
	// Analysis is nil when the result was read from the cache
	Analysis *frontend.Analysis
	cached   bool
}

func (p *Package) Name() string               { return p.name }
func (p *Package) Errors() *duckerr.Errors    { return p.errors }
func (p *Package) Failures() []error          { return p.failures }
func (p *Package) Builtins() *config.Builtins { return p.builtins }

// Program is nil when the result was read from the cache
func (p *Package) Program() *ast.Program { return p.program }

// Cached reports whether the diagnostics were read from the cache
func (p *Package) Cached() bool { return p.cached }

type readFileDirFS interface {
	fs.ReadFileFS
	fs.ReadDirFS
}

type PkgLoadSettings struct {
	// Dir is the path of the folder in the filesystem where the program is located
	// the default is `.`
	Dir string
	// File is the program inside Dir. When empty, Dir must hold a single program file.
	File string
	// BuiltinsFile is a TOML table merged over the default built-in types, read from the OS filesystem
	BuiltinsFile string
	// Jobs limits concurrent collection, 0 means no limit
	Jobs int
	// Cache is optional
	Cache *DiskCache
}

// LoadPackage reads, analyzes and checks the program found in dir
func LoadPackage(ctx context.Context, dir readFileDirFS, settings PkgLoadSettings) (*Package, error) {
	dirPath := settings.Dir
	if dirPath == "" {
		dirPath = "."
	}
	fileName, err := programFile(dir, dirPath, settings.File)
	if err != nil {
		return nil, err
	}
	data, err := dir.ReadFile(path.Join(dirPath, fileName))
	if err != nil {
		return nil, errors.Wrapf(err, "read program %s", fileName)
	}

	builtins, err := loadBuiltins(settings.BuiltinsFile)
	if err != nil {
		return nil, err
	}
	builtinsTOML := &bytes.Buffer{}
	if err := builtins.Encode(builtinsTOML); err != nil {
		return nil, err
	}

	pkg := &Package{name: fileName, builtins: builtins}
	key := DigestOf([]byte(analyzerVersion), data, builtinsTOML.Bytes())
	cached, found, err := settings.Cache.Get(key)
	if err != nil {
		packageLogger.Warn("could not read cache, analyzing again", "error", err)
	}
	if found {
		pkg.errors, pkg.failures, err = cached.restore()
		if err == nil {
			pkg.cached = true
			packageLogger.Debug("using cached result", "program", fileName, "key", key)
			return pkg, nil
		}
		packageLogger.Warn("could not restore cached result, analyzing again", "error", err)
	}

	pkg.program, err = ast.Decode(fileName, data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode program %s", fileName)
	}
	registry, err := builtins.Registry()
	if err != nil {
		return nil, err
	}

	var errs *duckerr.Errors
	pkg.Analysis, errs, err = frontend.Analyze(ctx, pkg.program, registry, frontend.Options{Jobs: settings.Jobs})
	if err != nil {
		return nil, err
	}
	pkg.errors = errs
	pkg.failures = pkg.Analysis.Failures()

	if err := settings.Cache.Put(key, toCached(fileName, pkg.errors, pkg.failures)); err != nil {
		packageLogger.Warn("could not write cache", "error", err)
	}
	return pkg, nil
}

func programFile(dir fs.ReadDirFS, dirPath, file string) (string, error) {
	if file != "" {
		return file, nil
	}
	entries, err := dir.ReadDir(dirPath)
	if err != nil {
		return "", errors.Wrapf(err, "read directory %s", dirPath)
	}
	var candidates []string
	for _, entry := range entries {
		if !entry.IsDir() && slices.Contains(programExtensions, path.Ext(entry.Name())) {
			candidates = append(candidates, entry.Name())
		}
	}
	switch len(candidates) {
	case 0:
		return "", errors.Errorf("no program found in %s (expected one of %s)", dirPath, strings.Join(programExtensions, ", "))
	case 1:
		return candidates[0], nil
	}
	packageLogger.Warn("multiple programs found, but only one program can be checked at a time - using the first one", "programs", candidates)
	return candidates[0], nil
}

func loadBuiltins(file string) (*config.Builtins, error) {
	if file == "" {
		return config.Default()
	}
	return config.LoadFile(file)
}

// NewPackageFromBytes does all passes end-to-end for a single program, meant for testing
func NewPackageFromBytes(data []byte, name string) (*Package, *duckerr.Errors, error) {
	filesystem := fstest.MapFS{
		name: &fstest.MapFile{
			Data: data,
		},
	}
	pkg, err := LoadPackage(context.Background(), filesystem, PkgLoadSettings{File: name})
	if err != nil {
		return nil, nil, err
	}
	return pkg, pkg.errors, nil
}

// DisplayTypes renders the solved type of every parameter, one function per line,
// like `f(x: inferred {attribute 'imag'})`. It is empty for cached results.
func (p *Package) DisplayTypes() string {
	if p.Analysis == nil {
		return ""
	}
	env, table := p.Analysis.Env, p.Analysis.Table
	sb := strings.Builder{}
	for _, fn := range env.Funcs {
		if fn.IsModule() {
			continue
		}
		sb.WriteString(fn.Name + "(")
		for i, param := range fn.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(env.Symbol(param).Name + ": " + table.Source(param).String())
		}
		sb.WriteString(")\n")
	}
	return sb.String()
}

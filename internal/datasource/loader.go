package datasource

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
)

// Bundle sources.
const (
	SourceFiles = "files"
	SourceMock  = "mock"
)

//go:embed mock/*.json
var mockFS embed.FS

// Bundle is the full set of analysis documents.
type Bundle struct {
	Source         string // SourceFiles or SourceMock
	FallbackReason string // why the mock was used; empty for SourceFiles
	WinGraph       GraphDoc
	LossGraph      GraphDoc
	Report         StrategyReport
	Robustness     RobustnessDoc
	Baseline       Baseline
	Ignored        []Ignored
}

// Loader reads bundles from a directory.
type Loader struct {
	fsys   fs.FS
	logger *log.Logger // optional
}

// NewLoader creates a loader over dir. An empty dir always yields the mock bundle.
func NewLoader(dir string) *Loader {
	if dir == "" {
		return &Loader{}
	}
	return &Loader{fsys: os.DirFS(dir)}
}

// NewFSLoader creates a loader over an arbitrary filesystem.
func NewFSLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// WithLogger logs fallbacks and ignored entries.
func (l *Loader) WithLogger(logger *log.Logger) *Loader {
	l.logger = logger
	return l
}

// Load reads every document. Any missing or malformed document makes the
// whole bundle fall back to the embedded mock, with the reason recorded.
// Load never fails.
func (l *Loader) Load() *Bundle {
	if l.fsys == nil {
		return l.fallback("no data directory configured")
	}
	b, err := parseBundle(l.fsys, "")
	if err != nil {
		return l.fallback(err.Error())
	}
	b.Source = SourceFiles
	for _, ig := range b.Ignored {
		l.log("ignored %s %s: %s", ig.File, ig.Entry, ig.Reason)
	}
	return b
}

func (l *Loader) fallback(reason string) *Bundle {
	l.log("using mock data: %s", reason)
	b := MockBundle()
	b.FallbackReason = reason
	return b
}

func (l *Loader) log(format string, args ...any) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
	}
}

// MockBundle returns the embedded mock dataset.
func MockBundle() *Bundle {
	b, err := parseBundle(mockFS, "mock/")
	if err != nil {
		// embedded files are fixed at build time
		panic(fmt.Sprintf("embedded mock bundle: %v", err))
	}
	b.Source = SourceMock
	return b
}

func parseBundle(fsys fs.FS, prefix string) (*Bundle, error) {
	read := func(name string) ([]byte, error) {
		data, err := fs.ReadFile(fsys, prefix+name)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s not found", name)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}

	b := &Bundle{}
	var ignored []Ignored

	for _, g := range []struct {
		file string
		doc  *GraphDoc
	}{{FileGraphWin, &b.WinGraph}, {FileGraphLoss, &b.LossGraph}} {
		data, err := read(g.file)
		if err != nil {
			return nil, err
		}
		if err := decode(g.file, data, g.doc); err != nil {
			return nil, err
		}
		ig, err := validateGraph(g.file, g.doc)
		if err != nil {
			return nil, err
		}
		ignored = append(ignored, ig...)
	}

	data, err := read(FileStrategyReport)
	if err != nil {
		return nil, err
	}
	if err := decode(FileStrategyReport, data, &b.Report); err != nil {
		return nil, err
	}
	if b.Report.Lynchpins == nil {
		return nil, fmt.Errorf("%w: %s: lynchpins missing", ErrMalformed, FileStrategyReport)
	}
	ignored = append(ignored, validateReport(FileStrategyReport, &b.Report)...)

	data, err = read(FileRobustness)
	if err != nil {
		return nil, err
	}
	if err := decode(FileRobustness, data, &b.Robustness); err != nil {
		return nil, err
	}
	ig, err := validateRobustness(FileRobustness, &b.Robustness)
	if err != nil {
		return nil, err
	}
	ignored = append(ignored, ig...)

	data, err = read(FileBaseline)
	if err != nil {
		return nil, err
	}
	if err := decode(FileBaseline, data, &b.Baseline); err != nil {
		return nil, err
	}
	if b.Baseline.SuccessRate < 0 || b.Baseline.SuccessRate > 1 {
		return nil, fmt.Errorf("%w: %s: success_rate %v outside [0,1]", ErrMalformed, FileBaseline, b.Baseline.SuccessRate)
	}
	ignored = append(ignored, parsePaths(FileBaseline, &b.Baseline)...)

	b.Ignored = ignored
	return b, nil
}

func sortIgnored(ig []Ignored) {
	sort.Slice(ig, func(i, j int) bool {
		if ig[i].File != ig[j].File {
			return ig[i].File < ig[j].File
		}
		return ig[i].Entry < ig[j].Entry
	})
}

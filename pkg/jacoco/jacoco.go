// Package jacoco parses JaCoCo XML coverage reports and computes coverage
// summaries from their counters.
package jacoco

import (
	"encoding/xml"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Counter types emitted by JaCoCo
const (
	CounterLine   = "LINE"
	CounterBranch = "BRANCH"
)

// Report is the root element of a JaCoCo XML report
type Report struct {
	XMLName  xml.Name  `xml:"report"`
	Name     string    `xml:"name,attr"`
	Packages []Package `xml:"package"`
	Counters []Counter `xml:"counter"`
}

// Package is a Java package entry in the report
type Package struct {
	Name     string    `xml:"name,attr"`
	Classes  []Class   `xml:"class"`
	Counters []Counter `xml:"counter"`
}

// Class is a class entry, named with '/' separators as JaCoCo emits them
type Class struct {
	Name       string    `xml:"name,attr"`
	SourceFile string    `xml:"sourcefilename,attr"`
	Methods    []Method  `xml:"method"`
	Counters   []Counter `xml:"counter"`
}

// Method is a method entry within a class
type Method struct {
	Name     string    `xml:"name,attr"`
	Desc     string    `xml:"desc,attr"`
	Line     int       `xml:"line,attr"`
	Counters []Counter `xml:"counter"`
}

// Counter holds covered/missed totals for one counter type
type Counter struct {
	Type    string `xml:"type,attr"`
	Missed  int    `xml:"missed,attr"`
	Covered int    `xml:"covered,attr"`
}

// Summary is the aggregate line and branch coverage of a report
type Summary struct {
	LinePct   float64 `json:"line_coverage_pct"`
	BranchPct float64 `json:"branch_coverage_pct"`
}

// ClassCoverage names a class together with its line coverage percentage
type ClassCoverage struct {
	Name    string  `json:"class"`
	LinePct float64 `json:"line_coverage_pct"`
}

// Parse decodes a JaCoCo XML report from r
func Parse(r io.Reader) (*Report, error) {
	var report Report
	if err := xml.NewDecoder(r).Decode(&report); err != nil {
		return nil, errors.Wrap(err, "failed to decode jacoco report")
	}
	return &report, nil
}

// ParseFile decodes a JaCoCo XML report from the given path
func ParseFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open jacoco report %q", path)
	}
	defer f.Close()

	return Parse(f)
}

// Exists reports whether a report file is present at path
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Summary aggregates all LINE and BRANCH counters in the report into
// coverage percentages. Percentages are rounded to two decimal places
// and are 0.0 when no counter of that type exists.
func (r *Report) Summary() Summary {
	totals := map[string]*Counter{
		CounterLine:   {Type: CounterLine},
		CounterBranch: {Type: CounterBranch},
	}

	r.walkCounters(func(c Counter) {
		if t, ok := totals[c.Type]; ok {
			t.Covered += c.Covered
			t.Missed += c.Missed
		}
	})

	return Summary{
		LinePct:   pct(totals[CounterLine].Covered, totals[CounterLine].Missed),
		BranchPct: pct(totals[CounterBranch].Covered, totals[CounterBranch].Missed),
	}
}

// UncoveredClasses returns all classes whose line coverage is strictly below
// threshold percent, with '/' in class names replaced by '.'. A class without
// a line counter counts as 0% covered.
func (r *Report) UncoveredClasses(threshold float64) []ClassCoverage {
	low := []ClassCoverage{}
	for _, pkg := range r.Packages {
		for _, cls := range pkg.Classes {
			lineCov := 0.0
			for _, c := range cls.Counters {
				if c.Type == CounterLine {
					lineCov = pct(c.Covered, c.Missed)
					break
				}
			}
			if lineCov < threshold {
				low = append(low, ClassCoverage{
					Name:    strings.ReplaceAll(cls.Name, "/", "."),
					LinePct: lineCov,
				})
			}
		}
	}
	return low
}

func (r *Report) walkCounters(fn func(Counter)) {
	for _, c := range r.Counters {
		fn(c)
	}
	for _, pkg := range r.Packages {
		for _, c := range pkg.Counters {
			fn(c)
		}
		for _, cls := range pkg.Classes {
			for _, c := range cls.Counters {
				fn(c)
			}
			for _, m := range cls.Methods {
				for _, c := range m.Counters {
					fn(c)
				}
			}
		}
	}
}

func pct(covered, missed int) float64 {
	total := covered + missed
	if total == 0 {
		return 0.0
	}
	return math.Round(100.0*float64(covered)/float64(total)*100) / 100
}

// ReportPathFor returns the conventional report location for a Maven module:
// <module>/target/site/jacoco/jacoco.xml next to the given pom.
func ReportPathFor(pomPath string) string {
	return filepath.Join(filepath.Dir(pomPath), "target", "site", "jacoco", "jacoco.xml")
}

// FindReport locates a jacoco.xml report under root, searching the
// conventional Maven output layout. The first match wins.
func FindReport(root string) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), "**/target/site/jacoco/jacoco.xml")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", errors.Wrap(err, "failed to search for jacoco report")
	}
	if len(matches) == 0 {
		return "", errors.Errorf("no jacoco report found under %q", root)
	}
	return filepath.Join(root, matches[0]), nil
}

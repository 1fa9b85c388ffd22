package reporting

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/geometry"
)

// JUnitReporter renders reports as JUnit XML so CI systems can display them. Each validated
// element becomes a suite with one case per asserted property, each axis a suite with one
// case per compared element, and the spacing analysis a suite with one case per pair.
// Unknown verdicts are skipped cases.
type JUnitReporter struct {
	writer io.WriteCloser
	logger *zap.Logger

	mu       sync.Mutex
	doc      *etree.Document
	root     *etree.Element
	tests    int
	failures int
	skipped  int
}

// NewJUnitReporter creates a JUnit XML reporter.
func NewJUnitReporter(writer io.WriteCloser, logger *zap.Logger) *JUnitReporter {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("testsuites")
	root.CreateAttr("name", ToolName)
	return &JUnitReporter{
		writer: writer,
		logger: logger.Named("junit_reporter"),
		doc:    doc,
		root:   root,
	}
}

// suite accumulates counts while its cases are added.
type suite struct {
	el       *etree.Element
	tests    int
	failures int
	skipped  int
}

func (r *JUnitReporter) newSuite(name string, report *schemas.InspectionReport) *suite {
	el := r.root.CreateElement("testsuite")
	el.CreateAttr("name", name)
	if !report.GeneratedAt.IsZero() {
		el.CreateAttr("timestamp", report.GeneratedAt.UTC().Format("2006-01-02T15:04:05"))
	}
	if report.Source != "" || report.ProfileName != "" {
		props := el.CreateElement("properties")
		if report.Source != "" {
			addProperty(props, "source", report.Source)
		}
		if report.ProfileName != "" {
			addProperty(props, "profile", report.ProfileName)
		}
	}
	return &suite{el: el}
}

func addProperty(props *etree.Element, name, value string) {
	p := props.CreateElement("property")
	p.CreateAttr("name", name)
	p.CreateAttr("value", value)
}

func (s *suite) addCase(class, name string) *etree.Element {
	s.tests++
	tc := s.el.CreateElement("testcase")
	tc.CreateAttr("classname", class)
	tc.CreateAttr("name", name)
	tc.CreateAttr("time", "0")
	return tc
}

func (s *suite) fail(tc *etree.Element, kind, message string) {
	s.failures++
	f := tc.CreateElement("failure")
	f.CreateAttr("type", kind)
	f.CreateAttr("message", message)
	f.SetText(message)
}

func (s *suite) skip(tc *etree.Element, message string) {
	s.skipped++
	tc.CreateElement("skipped").CreateAttr("message", message)
}

func (r *JUnitReporter) finish(s *suite) {
	s.el.CreateAttr("tests", strconv.Itoa(s.tests))
	s.el.CreateAttr("failures", strconv.Itoa(s.failures))
	s.el.CreateAttr("errors", "0")
	s.el.CreateAttr("skipped", strconv.Itoa(s.skipped))
	r.tests += s.tests
	r.failures += s.failures
	r.skipped += s.skipped
}

// Write appends the suites of one report.
func (r *JUnitReporter) Write(report *schemas.InspectionReport) error {
	if report == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ev := range report.Validations {
		r.writeValidation(report, ev)
	}
	if a := report.Alignment; a != nil && a.Reference != nil {
		for _, axis := range schemas.Axes() {
			s := r.newSuite("alignment."+string(axis), report)
			for _, e := range a.Entries(axis) {
				tc := s.addCase("alignment."+string(axis), schemas.ElementLabel(e.Position, e.Element))
				if !e.Aligned() {
					s.fail(tc, "misaligned", fmt.Sprintf("%spx off the %s of %s", signedPixels(e.Diff),
						strings.ToLower(axis.Title()), schemas.ElementLabel(0, *a.Reference)))
				}
			}
			r.finish(s)
		}
	}
	if report.Spacing != nil {
		s := r.newSuite("spacing", report)
		for _, pr := range report.Spacing.Pairs {
			tc := s.addCase("spacing", fmt.Sprintf("Pair %d: %s / %s", pr.Index+1,
				schemas.ElementLabel(pr.FirstAt, pr.First), schemas.ElementLabel(pr.SecondAt, pr.Second)))
			tc.CreateElement("system-out").SetText(fmt.Sprintf("%s: %s (horizontal %s, vertical %s)",
				pr.Spacing.Relation, pr.Spacing.Note,
				geometry.FormatPixels(pr.Spacing.HorizontalSpacing), geometry.FormatPixels(pr.Spacing.VerticalSpacing)))
		}
		if u := report.Spacing.Unpaired; u != nil {
			tc := s.addCase("spacing", schemas.ElementLabel(u.Position, u.Element))
			s.skip(tc, "skipped due to odd number of elements")
		}
		r.finish(s)
	}
	return nil
}

func (r *JUnitReporter) writeValidation(report *schemas.InspectionReport, ev schemas.ElementValidation) {
	label := schemas.ElementLabel(ev.Position, ev.Element)
	s := r.newSuite(label, report)

	var keys []string
	if report.Profile != nil {
		keys = report.Profile.Keys()
	} else {
		for k := range ev.Results {
			keys = append(keys, k)
		}
		slices.Sort(keys)
	}

	var snap schemas.ElementSnapshot
	if ev.Position >= 0 && ev.Position < len(report.Elements) {
		snap = report.Elements[ev.Position]
	}
	class := "style"
	if report.ProfileName != "" {
		class += "." + report.ProfileName
	}

	for _, key := range keys {
		verdict, ok := ev.Results[key]
		if !ok {
			continue
		}
		tc := s.addCase(class, key)
		switch verdict {
		case schemas.VerdictMismatch:
			actual, _ := snap.Styles.Lookup(camelName(key))
			s.fail(tc, "mismatch", fmt.Sprintf("expected %q, got %q", expectedValue(report.Profile, key), displayValue(actual)))
		case schemas.VerdictUnknown:
			s.skip(tc, "property not present on element")
		}
	}
	r.finish(s)
}

// Close writes the XML document and closes the writer.
func (r *JUnitReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.root.CreateAttr("tests", strconv.Itoa(r.tests))
	r.root.CreateAttr("failures", strconv.Itoa(r.failures))
	r.root.CreateAttr("errors", "0")
	r.root.CreateAttr("skipped", strconv.Itoa(r.skipped))
	r.doc.Indent(2)

	_, writeErr := r.doc.WriteTo(r.writer)
	closeErr := r.writer.Close()
	if writeErr != nil {
		return fmt.Errorf("failed to write JUnit report: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	r.logger.Debug("Wrote JUnit report.", zap.Int("tests", r.tests), zap.Int("failures", r.failures))
	return nil
}

// internal/reporting/reporter_test.go
package reporting

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/beevik/etree"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/reporting/sarif"
)

// -- Factory --

func TestNew_LoggerRequirement(t *testing.T) {
	r, err := New("sarif", "stdout", nil, testToolVersion)
	assert.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), "logger cannot be nil")
}

func TestNew_Formats(t *testing.T) {
	logger := zaptest.NewLogger(t)
	for _, format := range append(Formats(), "", "  JSON ") {
		format := format
		t.Run("format="+format, func(t *testing.T) {
			r, err := New(format, "stdout", logger, testToolVersion)
			require.NoError(t, err)
			require.NotNil(t, r)
		})
	}
}

func TestNew_Output_Stdout(t *testing.T) {
	logger := zaptest.NewLogger(t)
	for _, path := range []string{"", "stdout"} {
		r, err := New("sarif", path, logger, testToolVersion)
		require.NoError(t, err)

		sarifReporter, ok := r.(*SARIFReporter)
		require.True(t, ok)
		nwc, ok := sarifReporter.writer.(*nopWriteCloser)
		require.True(t, ok, "Writer should be a nopWriteCloser when outputting to stdout")
		assert.Equal(t, os.Stdout, nwc.Writer)
	}
}

func TestNew_File(t *testing.T) {
	logger := zaptest.NewLogger(t)
	outputPath := filepath.Join(t.TempDir(), "report.json")

	r, err := New("json", outputPath, logger, testToolVersion)
	require.NoError(t, err)
	jsonReporter, ok := r.(*JSONReporter)
	require.True(t, ok)
	_, ok = jsonReporter.writer.(*os.File)
	assert.True(t, ok, "Writer should be an *os.File when targeting a file path")
	assert.FileExists(t, outputPath)

	require.NoError(t, r.Write(fixtureReport(t)))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	var decoded schemas.InspectionReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "primary-button", decoded.ProfileName)
}

func TestNew_Failures(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("UnsupportedFormat", func(t *testing.T) {
		outputPath := filepath.Join(t.TempDir(), "never.txt")
		r, err := New("pdf", outputPath, logger, testToolVersion)
		assert.Nil(t, r)
		assert.EqualError(t, err, "unsupported output format: pdf")
		assert.NoFileExists(t, outputPath, "no file is created for a rejected format")
	})

	t.Run("UncreatableFile", func(t *testing.T) {
		r, err := New("json", filepath.Join(t.TempDir(), "missing", "dir", "out.json"), logger, testToolVersion)
		assert.Nil(t, r)
		assert.ErrorContains(t, err, "failed to create output file")
	})

	t.Run("NewWithWriterClosesOnError", func(t *testing.T) {
		w := newMockWriter()
		r, err := NewWithWriter("pdf", w, logger, testToolVersion)
		assert.Nil(t, r)
		assert.Error(t, err)
		assert.True(t, w.Closed)
	})
}

// -- JSON --

func TestJSONReporter(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("SingleReport", func(t *testing.T) {
		w := newMockWriter()
		r := NewJSONReporter(w, logger)
		require.NoError(t, r.Write(fixtureReport(t)))
		require.NoError(t, r.Close())
		assert.True(t, w.Closed)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(w.Buffer.Bytes(), &decoded))
		assert.Equal(t, "https://example.com/checkout", decoded["source"])
		validations := decoded["validations"].([]any)
		results := validations[1].(map[string]any)["results"].(map[string]any)
		assert.Equal(t, false, results["color"])
		assert.Nil(t, results["font-size"], "unknown verdicts encode as null")
	})

	t.Run("SeveralReports", func(t *testing.T) {
		w := newMockWriter()
		r := NewJSONReporter(w, logger)
		require.NoError(t, r.Write(fixtureReport(t)))
		require.NoError(t, r.Write(fixtureReport(t)))
		require.NoError(t, r.Write(nil))
		require.NoError(t, r.Close())

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(w.Buffer.Bytes(), &decoded))
		assert.Len(t, decoded, 2)
	})

	t.Run("NoReports", func(t *testing.T) {
		w := newMockWriter()
		require.NoError(t, NewJSONReporter(w, logger).Close())
		assert.JSONEq(t, `[]`, w.Buffer.String())
	})

	t.Run("WriteError", func(t *testing.T) {
		w := newMockWriter()
		w.FailWrite = true
		r := NewJSONReporter(w, logger)
		require.NoError(t, r.Write(fixtureReport(t)))
		assert.ErrorContains(t, r.Close(), "failed to encode JSON report")
		assert.True(t, w.Closed, "the writer is closed even when encoding fails")
	})
}

// -- SARIF --

func decodeSARIF(t *testing.T, data []byte) sarif.Log {
	t.Helper()
	var log sarif.Log
	require.NoError(t, json.Unmarshal(data, &log), "Output should be valid SARIF JSON")
	return log
}

func TestSARIFReporter_Initialization(t *testing.T) {
	w := newMockWriter()
	r := NewSARIFReporter(w, zaptest.NewLogger(t), "v1.2.3-test")
	require.NoError(t, r.Close())

	log := decodeSARIF(t, w.Buffer.Bytes())
	assert.Equal(t, SARIFVersion, log.Version)
	assert.Equal(t, SARIFSchema, log.Schema)
	require.Len(t, log.Runs, 1)
	run := log.Runs[0]
	assert.Equal(t, ToolName, run.Tool.Driver.Name)
	assert.Equal(t, "v1.2.3-test", *run.Tool.Driver.Version)
	require.NotNil(t, run.Results)
	assert.Empty(t, run.Results)
	assert.Empty(t, run.Tool.Driver.Rules)
}

func TestSARIFReporter_Findings(t *testing.T) {
	w := newMockWriter()
	r := NewSARIFReporter(w, zaptest.NewLogger(t), testToolVersion)
	require.NoError(t, r.Write(fixtureReport(t)))
	require.NoError(t, r.Close())

	run := decodeSARIF(t, w.Buffer.Bytes()).Runs[0]

	levels := map[sarif.Level]int{}
	for _, res := range run.Results {
		levels[res.Level]++
	}
	assert.Equal(t, 1, levels[sarif.LevelError], "one property mismatch")
	assert.Equal(t, 8, levels[sarif.LevelWarning], "eight misaligned offsets")
	assert.Equal(t, 1, levels[sarif.LevelNote], "one overlapping pair")

	var ruleIDs []string
	for _, rule := range run.Tool.Driver.Rules {
		ruleIDs = append(ruleIDs, rule.ID)
	}
	assert.ElementsMatch(t, []string{
		"style/color",
		"alignment/top", "alignment/bottom", "alignment/left", "alignment/right",
		"alignment/verticalcenter", "alignment/horizontalcenter",
		"spacing/partial-horizontal-overlap",
	}, ruleIDs)

	mismatch := run.Results[0]
	assert.Equal(t, "style/color", mismatch.RuleID)
	assert.Equal(t, `Element #2 - <button> #cancel: color is "black", expected "#fff".`, *mismatch.Message.Text)
	require.Len(t, mismatch.Locations, 1)
	assert.Equal(t, "https://example.com/checkout", *mismatch.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	require.Len(t, mismatch.Locations[0].LogicalLocations, 1)
	assert.Equal(t, 1, *mismatch.Locations[0].LogicalLocations[0].Index)

	offset := run.Results[1]
	assert.Equal(t, "alignment/top", offset.RuleID, "axes are reported in display order")
	assert.Equal(t, "Element #3 - <span> is +60px off the top of Element #1 - <button> #buy .btn.primary.", *offset.Message.Text)
}

func TestSARIFReporter_RuleDeduplication(t *testing.T) {
	w := newMockWriter()
	r := NewSARIFReporter(w, zaptest.NewLogger(t), testToolVersion)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		report := fixtureReport(t)
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Write(report))
		}()
	}
	wg.Wait()
	require.NoError(t, r.Close())

	run := decodeSARIF(t, w.Buffer.Bytes()).Runs[0]
	assert.Len(t, run.Results, 50)
	assert.Len(t, run.Tool.Driver.Rules, 8, "identical rules are registered once")
}

func TestSARIFReporter_RuleIDCollision(t *testing.T) {
	r := NewSARIFReporter(newMockWriter(), zaptest.NewLogger(t), testToolVersion)
	r.mu.Lock()
	defer r.mu.Unlock()

	first := r.ensureRule(ruleSpec{Family: ruleStyle, Name: "font size", Description: "a"})
	second := r.ensureRule(ruleSpec{Family: ruleStyle, Name: "font-size", Description: "b"})
	again := r.ensureRule(ruleSpec{Family: ruleStyle, Name: "font size", Description: "a"})

	assert.Equal(t, "style/font-size", first)
	assert.Equal(t, "style/font-size-1", second)
	assert.Equal(t, first, again)
	assert.Equal(t, "unnamed", r.sanitizeRuleName("!!!"))
}

func TestSARIFReporter_IOErrors(t *testing.T) {
	w := newMockWriter()
	w.FailWrite = true
	r := NewSARIFReporter(w, zaptest.NewLogger(t), testToolVersion)
	assert.ErrorContains(t, r.Close(), "failed to encode SARIF output")

	w = newMockWriter()
	w.FailClose = true
	r = NewSARIFReporter(w, zaptest.NewLogger(t), testToolVersion)
	assert.ErrorContains(t, r.Close(), "failed to close output writer")
}

// -- JUnit --

func TestJUnitReporter(t *testing.T) {
	w := newMockWriter()
	r := NewJUnitReporter(w, zaptest.NewLogger(t))
	require.NoError(t, r.Write(fixtureReport(t)))
	require.NoError(t, r.Close())

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(w.Buffer.Bytes()))
	root := doc.SelectElement("testsuites")
	require.NotNil(t, root)

	// 3 elements x 3 properties, 6 axes x 2 entries, 1 pair + 1 unpaired.
	assert.Equal(t, "23", root.SelectAttrValue("tests", ""))
	assert.Equal(t, "9", root.SelectAttrValue("failures", ""))
	assert.Equal(t, "7", root.SelectAttrValue("skipped", ""))

	suites := root.SelectElements("testsuite")
	require.Len(t, suites, 3+6+1)
	cancel := suites[1]
	assert.Equal(t, "Element #2 - <button> #cancel", cancel.SelectAttrValue("name", ""))
	assert.Equal(t, "1", cancel.SelectAttrValue("failures", ""))

	failure := cancel.FindElement("./testcase[@name='color']/failure")
	require.NotNil(t, failure)
	assert.Equal(t, `expected "#fff", got "black"`, failure.SelectAttrValue("message", ""))
	assert.NotNil(t, cancel.FindElement("./testcase[@name='font-size']/skipped"))
	assert.Equal(t, "style.primary-button", cancel.FindElement("./testcase").SelectAttrValue("classname", ""))

	source := suites[0].FindElement("./properties/property[@name='source']")
	require.NotNil(t, source)
	assert.Equal(t, "https://example.com/checkout", source.SelectAttrValue("value", ""))

	left := suites[5]
	assert.Equal(t, "alignment.left", left.SelectAttrValue("name", ""))
	assert.Equal(t, "1", left.SelectAttrValue("failures", ""))

	spacing := suites[9]
	assert.Equal(t, "spacing", spacing.SelectAttrValue("name", ""))
	out := spacing.FindElement("./testcase/system-out")
	require.NotNil(t, out)
	assert.Contains(t, out.Text(), "Partial Horizontal Overlap")
}

// -- Text --

func TestTextReporter(t *testing.T) {
	w := newMockWriter()
	r := NewTextReporter(w, zaptest.NewLogger(t))
	require.NoError(t, r.Write(fixtureReport(t)))
	require.NoError(t, r.Close())
	assert.True(t, w.Closed)

	out := w.Buffer.String()
	for _, want := range []string{
		"Source:    https://example.com/checkout",
		"Profile:   primary-button",
		"3 element(s), 1 mismatched property, 8 misaligned offset(s)",
		"Element #2 - <button> #cancel",
		"FAIL",
		"PASS",
		"Absolute Bounding Values",
		"Left Alignment",
		"+120px off",
		"✓ Aligned",
		"Partial Horizontal Overlap",
		"Horizontal Spacing: 20px",
		"Element #3 skipped due to odd number of elements.",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[", "no ANSI escapes when the output is not a terminal")
}

func TestTextReporter_WriteError(t *testing.T) {
	w := newMockWriter()
	w.FailWrite = true
	r := NewTextReporter(w, zaptest.NewLogger(t))
	assert.ErrorContains(t, r.Write(fixtureReport(t)), "failed to write text report")
}

// -- HTML --

func TestHTMLReporter(t *testing.T) {
	w := newMockWriter()
	r := NewHTMLReporter(w, zaptest.NewLogger(t), testToolVersion)
	require.NoError(t, r.Write(fixtureReport(t)))
	require.NoError(t, r.Close())

	doc, err := html.Parse(bytes.NewReader(w.Buffer.Bytes()))
	require.NoError(t, err, "output must be parseable HTML")

	classes := map[string]int{}
	var text strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			for _, a := range n.Attr {
				if a.Key == "class" {
					classes[a.Val]++
				}
			}
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	assert.Equal(t, 2, classes[statusMatch], "color and font-size on the first element")
	assert.Equal(t, 1, classes[statusMismatch])
	assert.Equal(t, 6, classes[statusNotAsserted])

	body := text.String()
	assert.Contains(t, body, "(Expected: #fff)")
	assert.Contains(t, body, "Element #1 - <button> #buy .btn.primary", "labels are escaped as text, not markup")
	assert.Contains(t, body, "Horizontal Center Alignment")
	assert.Contains(t, body, "stylelens "+testToolVersion)
}

func TestHTMLReporter_Escaping(t *testing.T) {
	w := newMockWriter()
	r := NewHTMLReporter(w, zaptest.NewLogger(t), testToolVersion)
	snap := schemas.NewGeometrySnapshot("DIV", `x"><script>alert(1)</script>`, 0, 0, 1, 1)
	require.NoError(t, r.Write(&schemas.InspectionReport{ID: "r1", Elements: []schemas.ElementSnapshot{snap}}))
	require.NoError(t, r.Close())
	assert.NotContains(t, w.Buffer.String(), "<script>alert(1)</script>")
}

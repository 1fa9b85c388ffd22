// internal/reporting/sarif_reporter.go
package reporting

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/geometry"
	"github.com/xkilldash9x/stylelens/internal/reporting/sarif"
	"github.com/xkilldash9x/stylelens/internal/style"
)

// Constants for tool identification in the SARIF report.
const (
	ToolName     = "stylelens"
	ToolInfoURI  = "https://github.com/xkilldash9x/stylelens"
	SARIFVersion = "2.1.0"
	SARIFSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

// Rule families.
const (
	ruleStyle     = "style"
	ruleAlignment = "alignment"
	ruleSpacing   = "spacing"
)

// ruleIDSanitizer replaces characters not allowed in a rule id segment. Sequences collapse
// into a single hyphen.
var ruleIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_.]+`)

// RuleFingerprint identifies a rule definition by its content.
type RuleFingerprint string

// ruleSpec is the content a rule is derived from.
type ruleSpec struct {
	Family      string
	Name        string
	Description string
	Help        string
}

func calculateFingerprint(spec ruleSpec) RuleFingerprint {
	h := sha1.New()
	// Encoding a flat struct of strings does not fail.
	_ = json.ConfigCompatibleWithStandardLibrary.NewEncoder(h).Encode(spec)
	return RuleFingerprint(hex.EncodeToString(h.Sum(nil)))
}

// SARIFReporter implements the Reporter interface for the SARIF 2.1.0 format.
// Property mismatches are errors, misaligned elements warnings and overlapping pairs
// notes. It is thread safe.
type SARIFReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	log    *sarif.Log
	schema *style.Schema
	// mu protects the log structure and the maps.
	mu                 sync.Mutex
	rulesByFingerprint map[RuleFingerprint]string
	ruleIDUsage        map[string]int
}

// NewSARIFReporter creates a new reporter that writes SARIF output.
func NewSARIFReporter(writer io.WriteCloser, logger *zap.Logger, toolVersion string) *SARIFReporter {
	log := &sarif.Log{
		Version: SARIFVersion,
		Schema:  SARIFSchema,
		Runs: []*sarif.Run{
			{
				Tool: &sarif.Tool{
					Driver: &sarif.ToolComponent{
						Name:           ToolName,
						Version:        pString(toolVersion),
						InformationURI: pString(ToolInfoURI),
						// Empty slices, not nil, so the JSON carries [] instead of null.
						Rules: []*sarif.ReportingDescriptor{},
					},
				},
				Results: []*sarif.Result{},
			},
		},
	}

	return &SARIFReporter{
		writer:             writer,
		logger:             logger.Named("sarif_reporter"),
		log:                log,
		schema:             style.DefaultSchema,
		rulesByFingerprint: make(map[RuleFingerprint]string),
		ruleIDUsage:        make(map[string]int),
	}
}

// Write converts the report's findings into SARIF results and adds them to the log.
func (r *SARIFReporter) Write(report *schemas.InspectionReport) error {
	if report == nil {
		return nil
	}
	startTime := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	before := len(run.Results)

	for _, ev := range report.Validations {
		run.Results = append(run.Results, r.styleResults(report, ev)...)
	}
	if report.Alignment != nil && report.Alignment.Reference != nil {
		run.Results = append(run.Results, r.alignmentResults(report)...)
	}
	if report.Spacing != nil {
		run.Results = append(run.Results, r.spacingResults(report)...)
	}

	if added := len(run.Results) - before; added > 0 {
		r.logger.Debug("Wrote findings to SARIF buffer",
			zap.Int("findings_count", added),
			zap.Duration("duration_ms", time.Since(startTime)),
		)
	}
	return nil
}

func (r *SARIFReporter) styleResults(report *schemas.InspectionReport, ev schemas.ElementValidation) []*sarif.Result {
	var out []*sarif.Result
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
	label := schemas.ElementLabel(ev.Position, ev.Element)

	for _, key := range keys {
		if ev.Results[key] != schemas.VerdictMismatch {
			continue
		}
		name := key
		if p, ok := r.schema.Lookup(key); ok && p.Label != "" {
			name = p.Label
		}
		ruleID := r.ensureRule(ruleSpec{
			Family:      ruleStyle,
			Name:        key,
			Description: fmt.Sprintf("The computed %s of an element differs from the expected profile.", name),
			Help:        fmt.Sprintf("Update the element's `%s` or the expected profile so they agree.", key),
		})

		actual, _ := snap.Styles.Lookup(r.schema.CamelName(key))
		expected := expectedValue(report.Profile, key)
		msg := fmt.Sprintf("%s: %s is %q, expected %q.", label, key, displayValue(actual), expected)

		out = append(out, &sarif.Result{
			RuleID:    ruleID,
			Message:   &sarif.Message{Text: pString(msg)},
			Level:     sarif.LevelError,
			Locations: r.createLocations(report, ev.Position, ev.Element),
			Properties: &sarif.PropertyBag{
				"property": key,
				"actual":   displayValue(actual),
				"expected": expected,
				"profile":  report.ProfileName,
			},
		})
	}
	return out
}

func (r *SARIFReporter) alignmentResults(report *schemas.InspectionReport) []*sarif.Result {
	a := report.Alignment
	reference := schemas.ElementLabel(0, *a.Reference)
	var out []*sarif.Result
	for _, axis := range schemas.Axes() {
		for _, e := range a.Entries(axis) {
			if e.Aligned() {
				continue
			}
			ruleID := r.ensureRule(ruleSpec{
				Family:      ruleAlignment,
				Name:        string(axis),
				Description: fmt.Sprintf("An element's %s edge is not aligned with the reference element.", strings.ToLower(axis.Title())),
				Help:        "Elements are compared against the first selected element. Offsets under half a pixel count as aligned.",
			})
			msg := fmt.Sprintf("%s is %spx off the %s of %s.", schemas.ElementLabel(e.Position, e.Element),
				signedPixels(e.Diff), strings.ToLower(axis.Title()), reference)
			out = append(out, &sarif.Result{
				RuleID:    ruleID,
				Message:   &sarif.Message{Text: pString(msg)},
				Level:     sarif.LevelWarning,
				Locations: r.createLocations(report, e.Position, e.Element),
				Properties: &sarif.PropertyBag{
					"axis": string(axis),
					"diff": e.Diff,
				},
			})
		}
	}
	return out
}

func (r *SARIFReporter) spacingResults(report *schemas.InspectionReport) []*sarif.Result {
	var out []*sarif.Result
	for _, pr := range report.Spacing.Pairs {
		if pr.Spacing.Relation == schemas.RelationNoOverlap {
			continue
		}
		ruleID := r.ensureRule(ruleSpec{
			Family:      ruleSpacing,
			Name:        string(pr.Spacing.Relation),
			Description: pr.Spacing.Relation.Note() + ".",
			Help:        "Overlapping pairs are reported for review. They are not necessarily defects.",
		})
		msg := fmt.Sprintf("Pair %d: %s and %s: %s. Horizontal spacing %s, vertical spacing %s.", pr.Index+1,
			schemas.ElementLabel(pr.FirstAt, pr.First), schemas.ElementLabel(pr.SecondAt, pr.Second),
			pr.Spacing.Relation, geometry.FormatPixels(pr.Spacing.HorizontalSpacing),
			geometry.FormatPixels(pr.Spacing.VerticalSpacing))

		locations := r.createLocations(report, pr.FirstAt, pr.First)
		locations[0].LogicalLocations = append(locations[0].LogicalLocations,
			logicalLocation(pr.SecondAt, pr.Second))
		out = append(out, &sarif.Result{
			RuleID:    ruleID,
			Message:   &sarif.Message{Text: pString(msg)},
			Level:     sarif.LevelNote,
			Locations: locations,
			Properties: &sarif.PropertyBag{
				"relation":          string(pr.Spacing.Relation),
				"horizontalSpacing": pr.Spacing.HorizontalSpacing,
				"verticalSpacing":   pr.Spacing.VerticalSpacing,
			},
		})
	}
	return out
}

// Close finalizes the SARIF log and writes it to the output writer.
func (r *SARIFReporter) Close() error {
	startTime := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	r.logger.Info("Finalizing SARIF report",
		zap.Int("total_results", len(run.Results)),
		zap.Int("total_rules", len(run.Tool.Driver.Rules)),
	)

	encoder := json.ConfigCompatibleWithStandardLibrary.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	encodeErr := encoder.Encode(r.log)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode SARIF log to JSON", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		r.logger.Error("Failed to close output writer", zap.Error(closeErr))
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Info("Successfully wrote SARIF report",
		zap.Duration("duration_ms", time.Since(startTime)),
	)
	return nil
}

// sanitizeRuleName turns a property, axis or relation name into a rule id segment.
func (r *SARIFReporter) sanitizeRuleName(name string) string {
	sanitized := ruleIDSanitizer.ReplaceAllString(strings.ToLower(name), "-")
	sanitized = strings.Trim(sanitized, "-")
	if sanitized == "" {
		return "unnamed"
	}
	return sanitized
}

// ensureRule registers the rule for spec once and returns its id, e.g. style/font-size or
// alignment/verticalcenter. Must be called while holding the mutex.
func (r *SARIFReporter) ensureRule(spec ruleSpec) string {
	fingerprint := calculateFingerprint(spec)
	if ruleID, exists := r.rulesByFingerprint[fingerprint]; exists {
		return ruleID
	}

	baseRuleID := spec.Family + "/" + r.sanitizeRuleName(spec.Name)
	usageCount := r.ruleIDUsage[baseRuleID]
	r.ruleIDUsage[baseRuleID] = usageCount + 1

	finalRuleID := baseRuleID
	if usageCount > 0 {
		finalRuleID = fmt.Sprintf("%s-%d", baseRuleID, usageCount)
		r.logger.Debug("Rule ID collision detected, generated new ID with suffix",
			zap.String("base_id", baseRuleID),
			zap.String("final_id", finalRuleID),
		)
	}

	r.logger.Debug("Registering new SARIF rule definition", zap.String("rule_id", finalRuleID))

	markdownHelp := fmt.Sprintf("**Check:** %s\n\n**Description:**\n%s\n\n**Remediation:**\n%s",
		spec.Name, spec.Description, spec.Help)
	driver := r.log.Runs[0].Tool.Driver
	driver.Rules = append(driver.Rules, &sarif.ReportingDescriptor{
		ID:               finalRuleID,
		Name:             pString(spec.Name),
		ShortDescription: &sarif.MultiformatMessageString{Text: pString(spec.Name)},
		FullDescription:  &sarif.MultiformatMessageString{Text: pString(spec.Description)},
		Help: &sarif.MultiformatMessageString{
			Text:     pString(spec.Help),
			Markdown: pString(markdownHelp),
		},
		Properties: &sarif.PropertyBag{
			"tags":      []string{"ui", spec.Family},
			"precision": "high",
		},
	})
	r.rulesByFingerprint[fingerprint] = finalRuleID
	return finalRuleID
}

// createLocations points at the inspected page and names the element.
func (r *SARIFReporter) createLocations(report *schemas.InspectionReport, position int, id schemas.Identity) []*sarif.Location {
	location := &sarif.Location{
		LogicalLocations: []*sarif.LogicalLocation{logicalLocation(position, id)},
		Message:          &sarif.Message{Text: pString(schemas.ElementLabel(position, id))},
	}
	if report.Source != "" {
		location.PhysicalLocation = &sarif.PhysicalLocation{
			ArtifactLocation: &sarif.ArtifactLocation{URI: pString(report.Source)},
		}
	}
	return []*sarif.Location{location}
}

func logicalLocation(position int, id schemas.Identity) *sarif.LogicalLocation {
	idx := position
	return &sarif.LogicalLocation{
		Name:               pString(id.Label()),
		FullyQualifiedName: pString(schemas.ElementLabel(position, id)),
		Kind:               pString("element"),
		Index:              &idx,
	}
}

func signedPixels(v float64) string {
	s := geometry.FormatPixels(v)
	s = strings.TrimSuffix(s, "px")
	if v > 0 {
		return "+" + s
	}
	return s
}

// pString returns a pointer to the given string value. Helper for optional SARIF fields.
func pString(s string) *string {
	return &s
}

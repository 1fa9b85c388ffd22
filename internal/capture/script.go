package capture

import (
	"fmt"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/style"
)

// Overlay class and style element names injected into the inspected page. They never
// appear in a captured class list.
const (
	selectedClass = "stylelens-selected-outline"
	overlayStyle  = "stylelens-overlay-styles"
)

// overlayCSS mirrors the selection outline of the inspector panel.
const overlayCSS = `.` + selectedClass + ` {
  outline: 2px solid #f87171 !important;
  outline-offset: 0 !important;
  outline-style: solid !important;
}`

// snapshotScriptTemplate is a function expression taking a list of selectors. It returns
// one entry per selector, null when nothing matches.
const snapshotScriptTemplate = `(function (selectors) {
  const keys = %s;
  const overlay = %s;
  return selectors.map(function (sel) {
    const el = document.querySelector(sel);
    if (!el) { return null; }
    const rect = el.getBoundingClientRect();
    const cs = window.getComputedStyle(el);
    const styles = {};
    for (const k of keys) { styles[k] = cs[k]; }
    styles.%s = rect.left + window.scrollX;
    styles.%s = rect.top + window.scrollY;
    styles.%s = rect.width;
    styles.%s = rect.height;
    return {
      tag: el.tagName,
      id: el.id || "",
      classes: Array.from(el.classList).filter(function (c) { return overlay.indexOf(c) < 0; }).join(" "),
      styles: styles
    };
  });
})`

// buildSnapshotScript renders the snapshot function for a fixed set of camelCase
// computed-style keys. It is built once per session.
func buildSnapshotScript(keys []string) (string, error) {
	keysJSON, err := json.ConfigCompatibleWithStandardLibrary.Marshal(keys)
	if err != nil {
		return "", err
	}
	overlayJSON, err := json.ConfigCompatibleWithStandardLibrary.Marshal([]string{selectedClass})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(snapshotScriptTemplate, keysJSON, overlayJSON,
		schemas.StyleAbsoluteX, schemas.StyleAbsoluteY,
		schemas.StyleAbsoluteWidth, schemas.StyleAbsoluteHeight), nil
}

// computedKeys resolves the configured kebab-case property list against schema. An empty
// list selects every computed property the schema knows.
func computedKeys(schema *style.Schema, kebabs []string) []string {
	if len(kebabs) == 0 {
		return schema.ComputedKeys()
	}
	seen := make(map[string]bool, len(kebabs))
	out := make([]string, 0, len(kebabs))
	for _, k := range kebabs {
		camel := schema.CamelName(strings.ToLower(strings.TrimSpace(k)))
		if camel == "" || seen[camel] {
			continue
		}
		seen[camel] = true
		out = append(out, camel)
	}
	return out
}

// invoke applies a function expression to JSON-encoded arguments.
func invoke(fn string, args ...any) (string, error) {
	encoded := make([]string, 0, len(args))
	for _, a := range args {
		b, err := json.ConfigCompatibleWithStandardLibrary.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("failed to encode script argument: %w", err)
		}
		encoded = append(encoded, string(b))
	}
	return fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", ")), nil
}

// existsScript reports which selectors match an element.
const existsScript = `(function (selectors) {
  return selectors.map(function (sel) { return document.querySelector(sel) !== null; });
})`

// highlightScript installs the overlay stylesheet and outlines exactly the given selectors.
const highlightScript = `(function (selectors, cls, styleId, css) {
  if (!document.getElementById(styleId)) {
    const style = document.createElement("style");
    style.id = styleId;
    style.textContent = css;
    (document.head || document.documentElement).appendChild(style);
  }
  document.querySelectorAll("." + cls).forEach(function (el) { el.classList.remove(cls); });
  let marked = 0;
  for (const sel of selectors) {
    const el = document.querySelector(sel);
    if (el) { el.classList.add(cls); marked++; }
  }
  return marked;
})`

// snapshotRecord is the wire shape produced by the snapshot script.
type snapshotRecord struct {
	Tag     string         `json:"tag"`
	ID      string         `json:"id"`
	Classes string         `json:"classes"`
	Styles  map[string]any `json:"styles"`
}

// decodeSnapshots turns the raw script result into snapshots, in selector order. A null
// entry means the selector matched nothing.
func decodeSnapshots(raw []byte, selectors []string) ([]schemas.ElementSnapshot, error) {
	var records []*snapshotRecord
	if err := json.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot result: %w", err)
	}
	if len(records) != len(selectors) {
		return nil, fmt.Errorf("snapshot script returned %d entries for %d selectors", len(records), len(selectors))
	}
	out := make([]schemas.ElementSnapshot, 0, len(records))
	for i, r := range records {
		if r == nil {
			return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selectors[i])
		}
		styles := schemas.StyleMap(r.Styles)
		if styles == nil {
			styles = schemas.StyleMap{}
		}
		out = append(out, schemas.ElementSnapshot{
			Identity: schemas.Identity{Tag: r.Tag, ID: r.ID, Classes: r.Classes},
			Styles:   styles,
		})
	}
	return out, nil
}

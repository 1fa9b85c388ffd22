package profile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/stylelens/api/schemas"
	"github.com/xkilldash9x/stylelens/internal/profile"
)

const jsonProfiles = `{
  "primary-button": {"background-color": "#4f46e5", "font-size": "14px", "border-top-left-radius": 6},
  "heading": {"font-weight": "700", "color": "rgb(17, 24, 39)"},
  "card": {"padding-top": "16px"}
}`

const yamlProfiles = `
primary-button:
  background-color: "#4f46e5"
  font-size: 14px
  border-top-left-radius: 6
heading:
  font-weight: "700"
  color: rgb(17, 24, 39)
card: &card
  padding-top: 16px
card-copy: *card
`

func TestParseJSON(t *testing.T) {
	set, err := profile.Parse([]byte(jsonProfiles), profile.FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, []string{"primary-button", "heading", "card"}, set.Names())

	btn, ok := set.Get("primary-button")
	require.True(t, ok)
	assert.Equal(t, "primary-button", btn.Name)
	assert.Equal(t, []string{"background-color", "font-size", "border-top-left-radius"}, btn.Keys())
	radius, _ := btn.Get("border-top-left-radius")
	assert.Equal(t, 6.0, radius)
}

func TestParseYAML(t *testing.T) {
	set, err := profile.Parse([]byte(yamlProfiles), profile.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, []string{"primary-button", "heading", "card", "card-copy"}, set.Names())

	btn, _ := set.Get("primary-button")
	assert.Equal(t, []string{"background-color", "font-size", "border-top-left-radius"}, btn.Keys())
	color, _ := btn.Get("background-color")
	assert.Equal(t, "#4f46e5", color)
	radius, _ := btn.Get("border-top-left-radius")
	assert.Equal(t, 6.0, radius)

	heading, _ := set.Get("heading")
	weight, _ := heading.Get("font-weight")
	assert.Equal(t, "700", weight, "quoted numbers stay strings")

	copied, ok := set.Get("card-copy")
	require.True(t, ok)
	assert.Equal(t, []string{"padding-top"}, copied.Keys())
}

func TestParseRejectsMalformed(t *testing.T) {
	testCases := []struct {
		name    string
		data    string
		format  profile.Format
		wantErr error
	}{
		{"JSONArray", `[{"color":"red"}]`, profile.FormatJSON, profile.ErrMalformed},
		{"JSONNull", `null`, profile.FormatJSON, profile.ErrMalformed},
		{"JSONEmptyInput", ``, profile.FormatJSON, profile.ErrMalformed},
		{"JSONEmptyObject", `{}`, profile.FormatJSON, profile.ErrNoProfiles},
		{"JSONNestedValue", `{"a":{"margin":{"top":1}}}`, profile.FormatJSON, profile.ErrMalformed},
		{"JSONProfileNotObject", `{"a":"red"}`, profile.FormatJSON, profile.ErrMalformed},
		{"JSONTruncated", `{"a":{"color":"red"`, profile.FormatJSON, profile.ErrMalformed},
		{"YAMLEmpty", ``, profile.FormatYAML, profile.ErrNoProfiles},
		{"YAMLList", "- color: red\n", profile.FormatYAML, profile.ErrMalformed},
		{"YAMLBoolValue", "a:\n  visible: true\n", profile.FormatYAML, profile.ErrMalformed},
		{"YAMLNullProfile", "a:\n", profile.FormatYAML, profile.ErrMalformed},
		{"YAMLSyntax", "a: [\n", profile.FormatYAML, profile.ErrMalformed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := profile.Parse([]byte(tc.data), tc.format)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	_, err := profile.Parse([]byte(`{}`), profile.Format("toml"))
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, profile.FormatYAML, profile.FormatFromPath("styles.yaml"))
	assert.Equal(t, profile.FormatYAML, profile.FormatFromPath("/a/b/STYLES.YML"))
	assert.Equal(t, profile.FormatJSON, profile.FormatFromPath("expectedStyles.json"))
	assert.Equal(t, profile.FormatJSON, profile.FormatFromPath("noext"))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStoreSelection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "expectedStyles.json")
	writeFile(t, path, jsonProfiles)

	store := profile.NewStore(zaptest.NewLogger(t), path)
	require.NoError(t, store.Reload())

	_, ok := store.Active()
	assert.False(t, ok, "nothing is selected after load")

	require.NoError(t, store.Select("heading"))
	active, ok := store.Active()
	require.True(t, ok)
	assert.Equal(t, "heading", active.Name)

	err := store.Select("missing")
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
	active, _ = store.Active()
	assert.Equal(t, "heading", active.Name, "a failed select keeps the previous choice")

	store.Clear()
	_, ok = store.Active()
	assert.False(t, ok)

	_, err = store.Get("card")
	assert.NoError(t, err)
	_, err = store.Get("nope")
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}

func TestStoreReloadFailureEmptiesStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.json")
	writeFile(t, path, jsonProfiles)

	store := profile.NewStore(zaptest.NewLogger(t), path)
	require.NoError(t, store.Reload())
	require.NoError(t, store.Select("card"))

	writeFile(t, path, `{ not json`)
	err := store.Reload()
	assert.ErrorIs(t, err, profile.ErrMalformed)

	assert.Empty(t, store.Names())
	_, ok := store.Active()
	assert.False(t, ok)
	assert.ErrorIs(t, store.Select("card"), profile.ErrNoProfiles)

	writeFile(t, path, jsonProfiles)
	require.NoError(t, store.Reload())
	assert.Len(t, store.Names(), 3)
}

func TestStoreReloadKeepsSurvivingSelection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	writeFile(t, path, yamlProfiles)

	store := profile.NewStore(zaptest.NewLogger(t), path)
	require.NoError(t, store.Reload())
	require.NoError(t, store.Select("heading"))

	writeFile(t, path, "heading:\n  color: red\n")
	require.NoError(t, store.Reload())
	active, ok := store.Active()
	require.True(t, ok)
	assert.Equal(t, []string{"color"}, active.Keys())

	writeFile(t, path, "card:\n  color: red\n")
	require.NoError(t, store.Reload())
	_, ok = store.Active()
	assert.False(t, ok, "selection is dropped when the profile disappears")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := profile.Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStoreWatchReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.json")
	writeFile(t, path, `{"first":{"color":"red"}}`)

	store := profile.NewStore(zaptest.NewLogger(t), path)
	require.NoError(t, store.Reload())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		writeFile(t, path, `{"second":{"color":"blue"},"third":{"gap":"4px"}}`)
		names := store.Names()
		return len(names) == 2 && names[0] == "second"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

func TestStoreWatchWithoutPath(t *testing.T) {
	store := profile.NewStoreFromSet(zaptest.NewLogger(t), profile.NewSet())
	assert.Error(t, store.Watch(context.Background(), time.Millisecond))
}

func TestStoreSubscribe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.json")
	writeFile(t, path, jsonProfiles)

	store := profile.NewStore(zaptest.NewLogger(t), path)
	events, unsubscribe := store.Subscribe()

	require.NoError(t, store.Reload())
	require.NoError(t, store.Select("heading"))
	store.Clear()
	writeFile(t, path, `[]`)
	assert.Error(t, store.Reload())

	want := []profile.EventKind{profile.EventReloaded, profile.EventSelected, profile.EventCleared, profile.EventUnavailable}
	var got []profile.Event
	for range want {
		got = append(got, <-events)
	}
	for i, ev := range got {
		assert.Equal(t, want[i], ev.Kind)
	}
	assert.Equal(t, []string{"primary-button", "heading", "card"}, got[0].Names)
	assert.Equal(t, "heading", got[1].Active)
	assert.Empty(t, got[2].Active)
	assert.Empty(t, got[3].Names)
	assert.NotEmpty(t, got[3].Error)

	unsubscribe()
	unsubscribe()
	_, open := <-events
	assert.False(t, open, "unsubscribe closes the channel")
	store.Clear() // no subscribers left, must not panic
}

func TestStoreSlowSubscriberDoesNotBlock(t *testing.T) {
	store := profile.NewStoreFromSet(zaptest.NewLogger(t), profile.NewSet(schemasProfile(t, "a")))
	_, unsubscribe := store.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = store.Select("a")
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("store blocked on a subscriber that never reads")
	}
	assert.Equal(t, "a", store.Snapshot().Active)
}

func schemasProfile(t *testing.T, name string) *schemas.ExpectedProfile {
	t.Helper()
	p := schemas.NewExpectedProfile(name)
	require.NoError(t, p.Set("color", "red"))
	return p
}

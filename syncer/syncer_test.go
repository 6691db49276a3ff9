package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/locsync/document"
	"github.com/minios-linux/locsync/lockfile"
	"github.com/minios-linux/locsync/translate"
)

// ---------------------------------------------------------------------------
// Translator stubs
// ---------------------------------------------------------------------------

type stubTranslator struct {
	calls    int
	requests []translate.Request
	fn       func(call int, req translate.Request) (map[string]string, error)
}

func (s *stubTranslator) Translate(_ context.Context, req translate.Request) (map[string]string, error) {
	s.calls++
	s.requests = append(s.requests, req)
	return s.fn(s.calls, req)
}

// prefixAll "translates" by prefixing every text with "DE ".
func prefixAll(_ int, req translate.Request) (map[string]string, error) {
	out := make(map[string]string, len(req.Entries))
	for _, e := range req.Entries {
		out[e.Key] = "DE " + e.Text
	}
	return out, nil
}

func newPrefixTranslator() *stubTranslator {
	return &stubTranslator{fn: prefixAll}
}

func mustParse(t *testing.T, s string) *document.Object {
	t.Helper()
	obj, err := document.ParseJSON([]byte(s))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	return obj
}

func numberedSource(n int) *document.Object {
	src := document.New()
	for i := 0; i < n; i++ {
		src.Set(fmt.Sprintf("key%02d", i), fmt.Sprintf("String %d", i))
	}
	return src
}

func testOptions(tr translate.Translator) Options {
	return Options{
		Translator: tr,
		Language:   "de",
		BackOff:    &backoff.ZeroBackOff{},
	}
}

func lookup(t *testing.T, o *document.Object, path ...string) any {
	t.Helper()
	v, ok := o.Lookup(path)
	if !ok {
		t.Fatalf("no value at %s", strings.Join(path, "."))
	}
	return v
}

// ---------------------------------------------------------------------------
// Batcher
// ---------------------------------------------------------------------------

func TestMakeBatches_Sizes(t *testing.T) {
	leaves := document.Flatten(numberedSource(45), nil)
	batches := MakeBatches(leaves, 20)

	var sizes []int
	for i, b := range batches {
		if b.Index != i {
			t.Errorf("batch %d has Index %d", i, b.Index)
		}
		sizes = append(sizes, len(b.Leaves))
	}
	if diff := cmp.Diff([]int{20, 20, 5}, sizes); diff != "" {
		t.Errorf("batch sizes (-want +got):\n%s", diff)
	}
	if batches[1].Leaves[0].Key() != "key20" {
		t.Errorf("order not preserved: batch 2 starts at %s", batches[1].Leaves[0].Key())
	}

	if n := len(MakeBatches(leaves, 0)); n != 3 {
		t.Errorf("default batch size: got %d batches, want 3", n)
	}
	if MakeBatches(nil, 20) != nil {
		t.Error("no pending leaves should give no batches")
	}
}

func TestSafeKey(t *testing.T) {
	tests := []struct {
		idx  int
		path []string
		want string
	}{
		{0, []string{"nav", "home-page"}, "idx_0_nav_homepage"},
		{3, []string{"title"}, "idx_3_title"},
		{7, []string{"a", "b", "c.d"}, "idx_7_b_cd"},
		{1, []string{"菜单", "保存"}, "idx_1__"},
	}
	for _, tc := range tests {
		if got := SafeKey(tc.idx, tc.path); got != tc.want {
			t.Errorf("SafeKey(%d, %v) = %q, want %q", tc.idx, tc.path, got, tc.want)
		}
	}
}

func TestBatchKeysUniqueForCollidingHints(t *testing.T) {
	src := mustParse(t, `{"a": {"b-c": "One"}, "a!": {"bc": "Two"}, "x": {"a": {"bc": "Three"}}}`)
	b := MakeBatches(document.Flatten(src, nil), 20)[0]

	seen := map[string]bool{}
	for _, e := range b.Entries() {
		if seen[e.Key] {
			t.Errorf("duplicate safe key %q", e.Key)
		}
		seen[e.Key] = true
	}
	if got := b.Entries()[2]; got.Key != "idx_2_a_bc" || got.Text != "Three" {
		t.Errorf("entry 2 = %+v", got)
	}
}

// ---------------------------------------------------------------------------
// Placeholders
// ---------------------------------------------------------------------------

func TestPlaceholdersPreserved(t *testing.T) {
	tests := []struct {
		src, dst string
		want     bool
	}{
		{"Hello {{name}}!", "Hallo {{name}}!", true},
		{"Hello {{name}}!", "Hallo!", false},
		{"Hello {{name}}!", "Hallo {{Name}}!", false},
		{"{count} files", "{count} Dateien", true},
		{"%s of %d", "%d von %s", true},
		{"%1$s and %2$s", "%2$s und %1$s", true},
		{"%s and %s", "%s und", false},
		{"100%% done", "100 % fertig", true},
		{"No tokens", "Keine {extra}", true},
		{"Save 50%off", "50 % aujourd'hui", true},
		{"100%sure", "sicher zu 100 %", true},
		{"%s files, 50%off", "50 % Rabatt", false},
	}
	for _, tc := range tests {
		if got := PlaceholdersPreserved(tc.src, tc.dst); got != tc.want {
			t.Errorf("PlaceholdersPreserved(%q, %q) = %v, want %v", tc.src, tc.dst, got, tc.want)
		}
	}
}

func TestPlaceholdersSkipsVerbsGluedToWords(t *testing.T) {
	got := Placeholders("Save 50%off on %d items, 100%sure, %s.")
	if diff := cmp.Diff([]string{"%d", "%s"}, got); diff != "" {
		t.Errorf("Placeholders (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// Change Detector
// ---------------------------------------------------------------------------

func TestDetectorClassify(t *testing.T) {
	target := mustParse(t, `{
  "translated": "Hallo",
  "same": "Hello",
  "empty": "",
  "number": 5,
  "native": "Anglais"
}`)
	leaf := func(key, value string, class document.Classification) document.Leaf {
		return document.Leaf{Path: []string{key}, Value: value, Class: class}
	}

	tests := []struct {
		name      string
		det       Detector
		leaf      document.Leaf
		satisfied bool
		reason    Reason
		value     any
	}{
		{"pass-through keeps target", Detector{}, leaf("native", "English", document.PassThrough), true, ReasonPassThrough, "Anglais"},
		{"pass-through copies source", Detector{}, leaf("other", "English", document.PassThrough), true, ReasonPassThrough, "English"},
		{"divergent target", Detector{}, leaf("translated", "Hello", document.Translatable), true, ReasonTranslated, "Hallo"},
		{"target equals source", Detector{}, leaf("same", "Hello", document.Translatable), false, ReasonUntranslated, "Hello"},
		{"missing", Detector{}, leaf("absent", "Hello", document.Translatable), false, ReasonMissing, nil},
		{"empty target", Detector{}, leaf("empty", "Hello", document.Translatable), false, ReasonMissing, ""},
		{"non-string target", Detector{}, leaf("number", "Hello", document.Translatable), false, ReasonMissing, document.Raw("5")},
		{"force", Detector{Force: true}, leaf("translated", "Hello", document.Translatable), false, ReasonForced, "Hallo"},
		{"symbols copied", Detector{}, leaf("absent", "->", document.Translatable), true, ReasonCopied, "->"},
	}
	for _, tc := range tests {
		d := tc.det.Classify(tc.leaf, target)
		if d.Satisfied != tc.satisfied || d.Reason != tc.reason {
			t.Errorf("%s: got satisfied=%v reason=%s, want %v %s", tc.name, d.Satisfied, d.Reason, tc.satisfied, tc.reason)
		}
		if !document.Equal(d.Value, tc.value) && !(d.Value == nil && tc.value == nil) {
			t.Errorf("%s: value = %#v, want %#v", tc.name, d.Value, tc.value)
		}
	}
}

func TestDetectorWithLock(t *testing.T) {
	lock, err := lockfile.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	lock.Update("de.json", "/current", "Hello")
	lock.Update("de.json", "/edited", "Old text")

	target := mustParse(t, `{"current": "Hallo", "edited": "Alter Text", "unknown": "Welt"}`)
	det := Detector{Lock: lock, LockTarget: "de.json"}

	tests := []struct {
		key, src  string
		satisfied bool
		reason    Reason
	}{
		{"current", "Hello", true, ReasonTranslated},
		{"edited", "New text", false, ReasonStale},
		{"unknown", "World", true, ReasonAdopted},
	}
	for _, tc := range tests {
		d := det.Classify(document.Leaf{Path: []string{tc.key}, Value: tc.src, Class: document.Translatable}, target)
		if d.Satisfied != tc.satisfied || d.Reason != tc.reason {
			t.Errorf("%s: got %v/%s, want %v/%s", tc.key, d.Satisfied, d.Reason, tc.satisfied, tc.reason)
		}
	}
}

func TestNewPlanCounts(t *testing.T) {
	src := mustParse(t, `{"en": {"nativeName": "English", "name": "English"}, "hi": "Hello", "bye": "Bye", "n": 1}`)
	target := mustParse(t, `{"hi": "Hallo"}`)

	p := NewPlan(src, target, nil, Detector{})
	if p.Total != 5 || p.PassThrough != 2 || p.Satisfied != 1 || len(p.Pending) != 2 {
		t.Errorf("plan = total %d pass %d satisfied %d pending %d", p.Total, p.PassThrough, p.Satisfied, len(p.Pending))
	}
	if p.Done() {
		t.Error("plan with pending leaves is not done")
	}
}

// ---------------------------------------------------------------------------
// Sync
// ---------------------------------------------------------------------------

func TestSync_RequiresTranslator(t *testing.T) {
	if _, _, err := Sync(context.Background(), document.New(), nil, Options{}); !errors.Is(err, ErrNoTranslator) {
		t.Errorf("got %v, want ErrNoTranslator", err)
	}
}

func TestSync_IdempotentSecondRun(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "en.json")
	dstPath := filepath.Join(dir, "de.json")
	src := `{
  "title": "Settings",
  "nav": {"home": "Home", "about": "About us"},
  "welcome": "Hello {{name}}!",
  "count": 42,
  "tags": ["a", "b"]
}`
	if err := os.WriteFile(srcPath, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	tr := newPrefixTranslator()
	res, err := SyncFile(context.Background(), srcPath, dstPath, testOptions(tr))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if res.Translated != 4 || tr.calls != 1 {
		t.Fatalf("first run: translated %d in %d calls", res.Translated, tr.calls)
	}
	first, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatal(err)
	}

	tr2 := newPrefixTranslator()
	cp := &FileCheckpoint{Path: dstPath}
	opts := testOptions(tr2)
	opts.Checkpoint = cp
	res, err = SyncFile(context.Background(), srcPath, dstPath, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if tr2.calls != 0 || res.Pending != 0 {
		t.Errorf("second run: %d calls, %d pending", tr2.calls, res.Pending)
	}
	if cp.Writes != 0 {
		t.Errorf("second run rewrote the target %d times", cp.Writes)
	}
	second, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("target changed:\n%s\n---\n%s", first, second)
	}
}

func TestSync_NoopMakesNoCalls(t *testing.T) {
	src := mustParse(t, `{"a": "Hello", "b": {"c": "World"}, "n": 3}`)
	target := mustParse(t, `{"a": "Hallo", "b": {"c": "Welt"}, "n": 3}`)

	tr := newPrefixTranslator()
	checkpoints := 0
	opts := testOptions(tr)
	opts.Checkpoint = CheckpointFunc(func(*document.Object) error {
		checkpoints++
		return nil
	})

	out, res, err := Sync(context.Background(), src, target, opts)
	if err != nil {
		t.Fatal(err)
	}
	if tr.calls != 0 {
		t.Errorf("translator called %d times", tr.calls)
	}
	if !document.Equal(out, target) {
		t.Error("up-to-date target was changed")
	}
	if checkpoints != 1 || res.Batches != 0 {
		t.Errorf("checkpoints = %d, batches = %d", checkpoints, res.Batches)
	}
}

func TestSync_StructuralCompletenessUnderFailure(t *testing.T) {
	src := mustParse(t, `{"a": "Hello", "b": {"c": "World", "d": {"e": "Deep"}}, "n": [1, 2]}`)
	tr := &stubTranslator{fn: func(int, translate.Request) (map[string]string, error) {
		return nil, errors.New("service unavailable")
	}}

	out, res, err := Sync(context.Background(), src, nil, testOptions(tr))
	if err != nil {
		t.Fatalf("batch failures must not fail the run: %v", err)
	}
	if res.FailedBatches != 1 || tr.calls != DefaultMaxAttempts {
		t.Errorf("failed batches %d, calls %d", res.FailedBatches, tr.calls)
	}
	for _, leaf := range document.Flatten(src, nil) {
		got, ok := out.Lookup(leaf.Path)
		if !ok {
			t.Errorf("%s missing from target", leaf.Key())
			continue
		}
		if !document.Equal(got, leaf.Value) {
			t.Errorf("%s = %#v, want source value", leaf.Key(), got)
		}
	}
}

func TestSync_PlaceholderLossFallsBack(t *testing.T) {
	src := mustParse(t, `{"welcome": "Hello {{name}}!", "bye": "Goodbye"}`)
	tr := &stubTranslator{fn: func(_ int, req translate.Request) (map[string]string, error) {
		out := map[string]string{}
		for _, e := range req.Entries {
			out[e.Key] = strings.ReplaceAll("DE "+e.Text, "{{name}}", "")
		}
		return out, nil
	}}

	var warnings []string
	opts := testOptions(tr)
	opts.OnWarn = func(format string, args ...any) { warnings = append(warnings, fmt.Sprintf(format, args...)) }

	out, res, err := Sync(context.Background(), src, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := lookup(t, out, "welcome"); got != "Hello {{name}}!" {
		t.Errorf("welcome = %q, want source fallback", got)
	}
	if got := lookup(t, out, "bye"); got != "DE Goodbye" {
		t.Errorf("bye = %q", got)
	}
	if res.Fallback != 1 || res.Translated != 1 {
		t.Errorf("fallback %d translated %d", res.Fallback, res.Translated)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "placeholders") {
		t.Errorf("warnings = %q", warnings)
	}

	opts.NoPlaceholderCheck = true
	out, _, err = Sync(context.Background(), src, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := lookup(t, out, "welcome"); got != "DE Hello !" {
		t.Errorf("with check disabled welcome = %q", got)
	}
}

func TestSync_NativeNameExemption(t *testing.T) {
	src := mustParse(t, `{"en": {"nativeName": "English", "label": "English language"}, "fr": {"nativeName": "Français"}}`)
	target := mustParse(t, `{"en": {"nativeName": "Anglais"}}`)

	tr := newPrefixTranslator()
	out, _, err := Sync(context.Background(), src, target, testOptions(tr))
	if err != nil {
		t.Fatal(err)
	}
	if got := lookup(t, out, "en", "nativeName"); got != "Anglais" {
		t.Errorf("en.nativeName = %q, want Anglais", got)
	}
	if got := lookup(t, out, "fr", "nativeName"); got != "Français" {
		t.Errorf("fr.nativeName = %q, want Français", got)
	}
	for _, req := range tr.requests {
		for _, e := range req.Entries {
			if strings.Contains(e.Key, "nativeName") {
				t.Errorf("exempt leaf sent for translation: %s", e.Key)
			}
		}
	}
}

func TestSync_BatchIsolation(t *testing.T) {
	src := numberedSource(45)
	tr := &stubTranslator{fn: func(call int, req translate.Request) (map[string]string, error) {
		if req.Entries[0].Text == "String 20" {
			return nil, fmt.Errorf("call %d: HTTP 500", call)
		}
		return prefixAll(call, req)
	}}

	var snapshots []*document.Object
	opts := testOptions(tr)
	opts.BatchSize = 20
	opts.Checkpoint = CheckpointFunc(func(o *document.Object) error {
		snapshots = append(snapshots, o.Clone())
		return nil
	})

	out, res, err := Sync(context.Background(), src, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Batches != 3 || res.FailedBatches != 1 || res.Translated != 25 {
		t.Errorf("batches %d failed %d translated %d", res.Batches, res.FailedBatches, res.Translated)
	}
	// 1 call for batch 1, 3 attempts for batch 2, 1 call for batch 3.
	if tr.calls != 5 {
		t.Errorf("calls = %d, want 5", tr.calls)
	}
	if len(snapshots) != 3 {
		t.Fatalf("checkpoints = %d, want 3", len(snapshots))
	}

	afterFirst := snapshots[0]
	for i := 0; i < 45; i++ {
		key := fmt.Sprintf("key%02d", i)
		want := fmt.Sprintf("String %d", i)
		if i < 20 {
			want = "DE " + want
		}
		if got := lookup(t, afterFirst, key); got != want {
			t.Errorf("after batch 1: %s = %q, want %q", key, got, want)
		}
	}

	for i := 0; i < 45; i++ {
		key := fmt.Sprintf("key%02d", i)
		want := fmt.Sprintf("String %d", i)
		if i < 20 || i >= 40 {
			want = "DE " + want
		}
		if got := lookup(t, out, key); got != want {
			t.Errorf("final: %s = %q, want %q", key, got, want)
		}
	}

	// The abandoned leaves are picked up again on the next run.
	tr2 := newPrefixTranslator()
	_, res, err = Sync(context.Background(), src, out, testOptions(tr2))
	if err != nil {
		t.Fatal(err)
	}
	if res.Pending != 20 || tr2.calls != 1 {
		t.Errorf("rerun: pending %d calls %d", res.Pending, tr2.calls)
	}
}

func TestSync_NonStringLeavesCopiedExactly(t *testing.T) {
	src := mustParse(t, `{"count": 42, "ratio": 1.50, "tags": ["a", "b"], "on": true, "none": null, "label": "Count"}`)
	tr := newPrefixTranslator()

	out, _, err := Sync(context.Background(), src, nil, testOptions(tr))
	if err != nil {
		t.Fatal(err)
	}
	for key, want := range map[string]string{"count": "42", "ratio": "1.50", "tags": `["a","b"]`, "on": "true", "none": "null"} {
		got := lookup(t, out, key)
		if !document.Equal(got, document.Raw(want)) {
			t.Errorf("%s = %#v, want raw %s", key, got, want)
		}
	}
	if len(tr.requests) != 1 || len(tr.requests[0].Entries) != 1 {
		t.Fatalf("requests = %+v", tr.requests)
	}
	if diff := cmp.Diff(out.Keys(), src.Keys()); diff != "" {
		t.Errorf("new target should follow source order (-got +want):\n%s", diff)
	}
}

func TestSync_ForceRetranslates(t *testing.T) {
	src := mustParse(t, `{"a": "Hello", "n": 1}`)
	target := mustParse(t, `{"a": "Hallo", "n": 1}`)

	tr := newPrefixTranslator()
	opts := testOptions(tr)
	opts.Force = true
	out, res, err := Sync(context.Background(), src, target, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Pending != 1 || lookup(t, out, "a") != "DE Hello" {
		t.Errorf("pending %d, a = %v", res.Pending, lookup(t, out, "a"))
	}
}

func TestSync_MissingAndExtraKeys(t *testing.T) {
	src := mustParse(t, `{"a": "One", "b": "Two"}`)
	tr := &stubTranslator{fn: func(_ int, req translate.Request) (map[string]string, error) {
		return map[string]string{
			req.Entries[0].Key: "Eins",
			"idx_9_bogus":      "???",
			"idx_8_bogus":      "???",
		}, nil
	}}

	var warnings []string
	opts := testOptions(tr)
	opts.OnWarn = func(format string, args ...any) { warnings = append(warnings, fmt.Sprintf(format, args...)) }

	out, res, err := Sync(context.Background(), src, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if lookup(t, out, "a") != "Eins" || lookup(t, out, "b") != "Two" {
		t.Errorf("a = %v, b = %v", lookup(t, out, "a"), lookup(t, out, "b"))
	}
	if res.Translated != 1 || res.Fallback != 1 {
		t.Errorf("translated %d fallback %d", res.Translated, res.Fallback)
	}
	joined := strings.Join(warnings, "\n")
	if !strings.Contains(joined, "missing from response") || !strings.Contains(joined, "2 unexpected keys") {
		t.Errorf("warnings = %q", warnings)
	}
}

func TestSync_LockDetectsEditedSource(t *testing.T) {
	lock, err := lockfile.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	lock.Update("de.json", "/a", "Hello")
	lock.Update("de.json", "/gone", "Removed")

	src := mustParse(t, `{"a": "Hello!", "b": "World"}`)
	target := mustParse(t, `{"a": "Hallo", "b": "Welt"}`)

	tr := newPrefixTranslator()
	opts := testOptions(tr)
	opts.Lock = lock
	opts.LockTarget = "de.json"

	out, res, err := Sync(context.Background(), src, target, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stale != 1 || res.Adopted != 1 || tr.calls != 1 {
		t.Errorf("stale %d adopted %d calls %d", res.Stale, res.Adopted, tr.calls)
	}
	if lookup(t, out, "a") != "DE Hello!" || lookup(t, out, "b") != "Welt" {
		t.Errorf("a = %v, b = %v", lookup(t, out, "a"), lookup(t, out, "b"))
	}
	if lock.IsChanged("de.json", "/a", "Hello!") || lock.IsChanged("de.json", "/b", "World") {
		t.Error("ledger not updated")
	}
	if _, ok := lock.Lookup("de.json", "/gone"); ok {
		t.Error("ledger entry for removed leaf should be cleaned")
	}
}

func TestSync_CancelStopsBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := &stubTranslator{fn: func(call int, req translate.Request) (map[string]string, error) {
		cancel()
		return prefixAll(call, req)
	}}
	checkpoints := 0
	opts := testOptions(tr)
	opts.BatchSize = 2
	opts.Checkpoint = CheckpointFunc(func(*document.Object) error {
		checkpoints++
		return nil
	})

	out, _, err := Sync(ctx, numberedSource(5), nil, opts)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if tr.calls != 1 || checkpoints != 1 {
		t.Errorf("calls %d checkpoints %d", tr.calls, checkpoints)
	}
	if lookup(t, out, "key00") != "DE String 0" {
		t.Error("completed batch missing from result")
	}
}

func TestSync_CheckpointFailureIsFatal(t *testing.T) {
	boom := errors.New("disk full")
	opts := testOptions(newPrefixTranslator())
	opts.Checkpoint = CheckpointFunc(func(*document.Object) error { return boom })

	if _, _, err := Sync(context.Background(), numberedSource(3), nil, opts); !errors.Is(err, boom) {
		t.Errorf("got %v, want checkpoint error", err)
	}
}

func TestSync_Prune(t *testing.T) {
	src := mustParse(t, `{"a": "Hello", "nav": {"home": "Home"}}`)
	target := mustParse(t, `{"a": "Hallo", "old": "Alt", "nav": {"home": "Start", "legacy": "Alt"}}`)

	opts := testOptions(newPrefixTranslator())
	opts.Prune = true
	out, res, err := Sync(context.Background(), src, target, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Pruned != 2 {
		t.Errorf("pruned = %d, want 2", res.Pruned)
	}
	if !document.Equal(out, mustParse(t, `{"a": "Hallo", "nav": {"home": "Start"}}`)) {
		t.Error("stale leaves not pruned")
	}

	opts.Prune = false
	out, _, _ = Sync(context.Background(), src, target, opts)
	if _, ok := out.Get("old"); !ok {
		t.Error("without prune, extra target leaves are kept")
	}
}

func TestSyncFile_CorruptTargetTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "en.json")
	dstPath := filepath.Join(dir, "de.json")
	os.WriteFile(srcPath, []byte(`{"a": "Hello", "b": "World"}`), 0644)
	os.WriteFile(dstPath, []byte(`{"a": "Hallo",`), 0644)

	var warnings []string
	opts := testOptions(newPrefixTranslator())
	opts.OnWarn = func(format string, args ...any) { warnings = append(warnings, fmt.Sprintf(format, args...)) }

	res, err := SyncFile(context.Background(), srcPath, dstPath, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Pending != 2 || len(warnings) != 1 {
		t.Errorf("pending %d warnings %q", res.Pending, warnings)
	}
	out, err := document.ReadFile(dstPath)
	if err != nil {
		t.Fatalf("target not rewritten as valid JSON: %v", err)
	}
	if lookup(t, out, "b") != "DE World" {
		t.Errorf("b = %v", lookup(t, out, "b"))
	}
}

func TestSyncFile_MissingSourceIsSetupError(t *testing.T) {
	dir := t.TempDir()
	_, err := SyncFile(context.Background(), filepath.Join(dir, "nope.json"), filepath.Join(dir, "de.json"), testOptions(newPrefixTranslator()))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want not-exist error", err)
	}
}

func TestPlanFile_DoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "en.yaml")
	dstPath := filepath.Join(dir, "de.yaml")
	os.WriteFile(srcPath, []byte("a: Hello\nb: World\n"), 0644)
	os.WriteFile(dstPath, []byte("a: Hallo\n"), 0644)

	p, err := PlanFile(srcPath, dstPath, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Satisfied != 1 || len(p.Pending) != 1 || p.Pending[0].Key() != "b" {
		t.Errorf("plan: satisfied %d pending %v", p.Satisfied, p.Pending)
	}
	data, _ := os.ReadFile(dstPath)
	if string(data) != "a: Hallo\n" {
		t.Errorf("target modified: %q", data)
	}
}

func TestSync_ReportsPlanAndProgress(t *testing.T) {
	opts := testOptions(newPrefixTranslator())
	opts.BatchSize = 4

	var planned [2]int
	var progress []int
	opts.OnPlan = func(_ string, pending, batches int) { planned = [2]int{pending, batches} }
	opts.OnProgress = func(_ string, done, total int) {
		if total != 10 {
			t.Errorf("progress total = %d, want 10", total)
		}
		progress = append(progress, done)
	}

	if _, _, err := Sync(context.Background(), numberedSource(10), nil, opts); err != nil {
		t.Fatal(err)
	}
	if planned != [2]int{10, 3} {
		t.Errorf("OnPlan got %v, want [10 3]", planned)
	}
	if diff := cmp.Diff([]int{4, 8, 10}, progress); diff != "" {
		t.Errorf("progress (-want +got):\n%s", diff)
	}
}

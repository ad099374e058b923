//go:build ruleguard

// Package gorules defines custom linter rules for this module, run through
// gocritic's ruleguard checker.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// TestingContext detects context.Background() or context.TODO() in tests and
// suggests t.Context(), which is canceled when the test completes.
//
// See: https://pkg.go.dev/testing#T.Context
func TestingContext(m dsl.Matcher) {
	m.Match(
		`$ctx := context.Background()`,
		`$ctx = context.Background()`,
		`$ctx := context.TODO()`,
		`$ctx = context.TODO()`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("in tests, use t.Context() instead of a background context")

	m.Match(
		`$fn(context.Background(), $*args)`,
		`$fn(context.TODO(), $*args)`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("in tests, pass t.Context() instead of a background context")
}

// WaitGroupGo detects the manual Add/Done pattern and suggests wg.Go.
//
// Old pattern:
//
//	wg.Add(1)
//	go func() {
//	    defer wg.Done()
//	    load()
//	}()
//
// New pattern (Go 1.25+):
//
//	wg.Go(func() {
//	    load()
//	})
func WaitGroupGo(m dsl.Matcher) {
	m.Match(
		`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`,
	).
		Where(m["wg"].Type.Is("*sync.WaitGroup") || m["wg"].Type.Is("sync.WaitGroup")).
		Report("use $wg.Go(func() { $body }) instead of manual Add/Done pattern (Go 1.25+)").
		Suggest("$wg.Go(func() { $body })")
}

// GormRecordNotFound flags direct comparison with gorm.ErrRecordNotFound.
// Repository errors are wrapped, so only errors.Is matches reliably.
func GormRecordNotFound(m dsl.Matcher) {
	m.Match(
		`$err == gorm.ErrRecordNotFound`,
		`gorm.ErrRecordNotFound == $err`,
	).
		Report("use errors.Is($err, gorm.ErrRecordNotFound)").
		Suggest("errors.Is($err, gorm.ErrRecordNotFound)")

	m.Match(
		`$err != gorm.ErrRecordNotFound`,
		`gorm.ErrRecordNotFound != $err`,
	).
		Report("use !errors.Is($err, gorm.ErrRecordNotFound)").
		Suggest("!errors.Is($err, gorm.ErrRecordNotFound)")
}

// LoggerErrorField flags errors logged as plain strings instead of with
// logger.Error.
func LoggerErrorField(m dsl.Matcher) {
	m.Match(
		`logger.String("error", $err.Error())`,
	).
		Where(m["err"].Type.Implements("error")).
		Report("use logger.Error($err) instead of logger.String(\"error\", $err.Error())").
		Suggest("logger.Error($err)")
}

// MapKeysCollection detects manual map key collection.
//
// New pattern (Go 1.23+):
//
//	keys := slices.Sorted(maps.Keys(m))
//
// See: https://pkg.go.dev/maps#Keys
func MapKeysCollection(m dsl.Matcher) {
	m.Match(
		`for $k := range $m { $keys = append($keys, $k) }`,
		`for $k, _ := range $m { $keys = append($keys, $k) }`,
	).
		Report("use slices.Collect(maps.Keys($m)) to collect map keys (Go 1.23+)")
}

// DeferredTimeSince catches time.Since evaluated at defer time instead of
// when the deferred call runs, which records a zero duration.
func DeferredTimeSince(m dsl.Matcher) {
	m.Match(
		`defer $fn($*before, time.Since($start), $*after)`,
	).
		Report("time.Since is evaluated when defer is declared; wrap the call in a closure")
}

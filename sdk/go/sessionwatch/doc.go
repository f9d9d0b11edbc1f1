// Package sessionwatch provides in-process session aggregation for Go
// applications. Raw events (views, actions, resources, errors, long
// tasks) are fed through the scope hierarchy, which maintains session
// and view lifecycles, conserves pending-record accounting, and emits
// versioned aggregate records to the configured outputs.
//
// Usage:
//
//	sw, err := sessionwatch.New("my-app",
//	    sessionwatch.WithBatchDir("/var/lib/sessionwatch/batches"),
//	    sessionwatch.WithSampleRate(50),
//	)
//	view := sw.StartView("checkout", "/checkout", nil)
//	sw.StartResource("req-1", "GET", "https://api.example.com/cart", nil)
//	sw.StopResource("req-1", 200, 1024, "fetch")
//	sw.StopView(view)
//	sw.Close()
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import
// github.com/ppiankov/sessionwatch/sdk/go/sessionwatch.
package sessionwatch

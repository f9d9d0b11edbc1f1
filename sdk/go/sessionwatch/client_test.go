package sessionwatch

import (
	"encoding/json"
	"testing"
	"time"
)

type recordJSON struct {
	Type string `json:"type"`
	View struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"view"`
	ViewDetail *struct {
		DocVersion    int64 `json:"document_version"`
		IsActive      bool  `json:"is_active"`
		ResourceCount int64 `json:"resource_count"`
	} `json:"view_detail"`
	Context map[string]any `json:"context"`
}

// collect gathers records emitted through WithRecordHandler. The handler
// runs on the processing lane; reads are safe once Close has returned.
type collect struct {
	records []recordJSON
}

func (c *collect) handle(data []byte) {
	var rec recordJSON
	if json.Unmarshal(data, &rec) == nil {
		c.records = append(c.records, rec)
	}
}

func (c *collect) byType(typ string) []recordJSON {
	var out []recordJSON
	for _, r := range c.records {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

func newTestClient(t *testing.T, c *collect, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithRecordHandler(c.handle),
		WithKeepAliveInterval(-1),
	}, opts...)
	sw, err := New("test-app", opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sw
}

func TestNewRequiresOutput(t *testing.T) {
	if _, err := New("test-app"); err == nil {
		t.Fatal("expected error when no output is configured")
	}
}

func TestClientEmitsViewLifecycle(t *testing.T) {
	c := &collect{}
	sw := newTestClient(t, c)

	view := sw.StartView("checkout", "/checkout", map[string]any{"step": 1})
	sw.StartResource("req-1", "GET", "https://api.example.com/cart", nil)
	sw.StopResource("req-1", 200, 1024, "fetch")
	sw.StopView(view)
	if err := sw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	views := c.byType("view")
	if len(views) == 0 {
		t.Fatal("expected view records")
	}
	final := views[len(views)-1]
	if final.View.Name != "checkout" {
		t.Errorf("expected view name checkout, got %q", final.View.Name)
	}
	if final.ViewDetail == nil || final.ViewDetail.IsActive {
		t.Error("final view record must be inactive")
	}
	if final.ViewDetail.ResourceCount != 1 {
		t.Errorf("expected resource count 1, got %d", final.ViewDetail.ResourceCount)
	}
	if len(c.byType("resource")) != 1 {
		t.Error("expected one resource record")
	}
	// The first view also reports application start.
	if len(c.byType("action")) != 1 {
		t.Error("expected the application start action record")
	}
}

func TestClientGlobalAttributes(t *testing.T) {
	c := &collect{}
	sw := newTestClient(t, c)

	sw.StartView("home", "/", nil)
	sw.SetGlobalAttribute("tenant", "acme")
	sw.AddTiming("first_paint")
	if err := sw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	last := c.records[len(c.records)-1]
	if got := last.Context["tenant"]; got != "acme" {
		t.Errorf("expected tenant attribute, got %v", got)
	}
}

func TestClientErrorRecords(t *testing.T) {
	c := &collect{}
	sw := newTestClient(t, c)

	sw.StartView("home", "/", nil)
	sw.AddError(Error{Message: "boom", Source: "custom"})
	sw.AddLongTask(80*time.Millisecond, "main")
	if err := sw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(c.byType("error")) != 1 {
		t.Error("expected one error record")
	}
	if len(c.byType("long_task")) != 1 {
		t.Error("expected one long task record")
	}
}

func TestClientStopSessionEndsSession(t *testing.T) {
	c := &collect{}
	sw := newTestClient(t, c)

	v := sw.StartView("home", "/", nil)
	sw.StopView(v)
	sw.StopSession()
	if err := sw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	views := c.byType("view")
	if len(views) == 0 {
		t.Fatal("expected view records")
	}
	if views[len(views)-1].ViewDetail.IsActive {
		t.Error("session stop must leave the view inactive")
	}
}

package sink

import (
	"testing"

	"github.com/ppiankov/sessionwatch/internal/model"
)

func TestAsyncFlushesOnClose(t *testing.T) {
	var got []model.Record
	a := NewAsync(Func(func(rec model.Record) { got = append(got, rec) }), 16)
	for i := 0; i < 10; i++ {
		a.Write(testRecord("v"))
	}
	a.Close()
	if len(got) != 10 {
		t.Errorf("expected 10 records after close, got %d", len(got))
	}
}

func TestMultiFansOut(t *testing.T) {
	var a, b int
	m := Multi(
		Func(func(model.Record) { a++ }),
		Func(func(model.Record) { b++ }),
	)
	m.Write(testRecord("v"))
	if a != 1 || b != 1 {
		t.Errorf("expected both writers to see the record, got %d/%d", a, b)
	}
}

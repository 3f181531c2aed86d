package lookupclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/qrlookup/pkg/lookup"
	"github.com/teslashibe/qrlookup/pkg/web"
)

func TestStationLookup(t *testing.T) {
	src := lookup.NewMock(lookup.NewSnapshot([][]string{
		{"ID", "CÓDIGO", "NOMBRE"},
		{"1", "Q7", "Marta"},
	}))
	s := web.NewServer(lookup.NewService(src))
	defer s.Shutdown(context.Background())

	go s.App().Listen(":18093")
	time.Sleep(100 * time.Millisecond)

	st, err := Dial(context.Background(), "ws://localhost:18093/ws/station", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := st.Lookup(ctx, "Q7")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !res.Found {
		t.Fatal("expected found")
	}
	if name, _ := res.Record.Get("NOMBRE"); name != "Marta" {
		t.Errorf("NOMBRE = %q, want Marta", name)
	}

	res, err = st.Lookup(ctx, "nope")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Found {
		t.Error("expected not found")
	}

	if _, err := st.Lookup(ctx, ""); !errors.Is(err, lookup.ErrEmptyCode) {
		t.Errorf("err = %v, want ErrEmptyCode", err)
	}

	if src.CallCount() != 2 {
		t.Errorf("CallCount = %d, want 2", src.CallCount())
	}
}

func TestStationDialUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Dial(ctx, "ws://localhost:1/ws/station", nil)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
}

package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"sandfall/internal/chunk"
	"sandfall/internal/material"
	"sandfall/internal/world"
)

func TestRunPersistsPouredSand(t *testing.T) {
	dir := t.TempDir()
	o := options{
		dbDir:    dir,
		ticks:    40,
		seed:     7,
		workers:  2,
		radius:   1,
		floor:    48,
		fillFrom: 40,
		pour:     material.NameSand,
		viewW:    64,
		viewH:    64,
		set:      map[string]bool{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := run(context.Background(), o, logger); err != nil {
		t.Fatalf("run: %v", err)
	}

	db, err := world.OpenLevelDB(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	c, err := db.Load(chunk.KeyOf(0, 0))
	if err != nil {
		t.Fatalf("load chunk: %v", err)
	}
	cat, _ := material.Default()
	if n := c.Count(cat.MustID(material.NameSand)); n == 0 {
		t.Fatalf("expected poured sand in the saved chunk")
	}
	if n := c.Count(cat.MustID(material.NameBedrock)); n != 16*chunk.Size {
		t.Fatalf("bedrock rows = %d pixels, want %d", n, 16*chunk.Size)
	}
}

func TestRunRejectsUnknownPour(t *testing.T) {
	o := options{ticks: 1, radius: 1, floor: 48, pour: "unobtainium", viewW: 64, viewH: 64, set: map[string]bool{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := run(context.Background(), o, logger); err == nil {
		t.Fatalf("expected an error for an unknown material")
	}
}

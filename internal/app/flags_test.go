package app

import (
	"flag"
	"io"
	"testing"
)

func TestConfigBind(t *testing.T) {
	cfg := NewConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg.Bind(fs)
	err := fs.Parse([]string{"-scale", "2", "-seed", "7", "-p", "w=128", "-p", " workers = 4 "})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Sim != "sand" || cfg.Scale != 2 || cfg.Seed != 7 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Params["w"] != "128" || cfg.Params["workers"] != "4" {
		t.Fatalf("unexpected params %v", cfg.Params)
	}
}

func TestConfigBindRejectsBareParam(t *testing.T) {
	cfg := NewConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg.Bind(fs)
	if err := fs.Parse([]string{"-p", "novalue"}); err == nil {
		t.Fatalf("expected an error for a parameter without '='")
	}
}

package main

import (
	"errors"
	"flag"
	"io"
	"testing"

	"github.com/james-see/shaketool/pkg/api"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    api.Config
		wantErr bool
	}{
		{name: "defaults", want: api.DefaultConfig()},
		{
			name: "all flags",
			args: []string{"--port", "9000", "--max-upload", "1024", "--max-cells", "0"},
			want: api.Config{Port: 9000, MaxUpload: 1024, MaxCells: 0},
		},
		{name: "bad port", args: []string{"--port", "70000"}, wantErr: true},
		{name: "zero upload", args: []string{"--max-upload", "0"}, wantErr: true},
		{name: "negative cells", args: []string{"--max-cells", "-1"}, wantErr: true},
		{name: "unknown flag", args: []string{"--verbose"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args, io.Discard)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseFlags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFlagsHelp(t *testing.T) {
	if _, err := parseFlags([]string{"-h"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("parseFlags(-h) error = %v, want flag.ErrHelp", err)
	}
}

package cmd

import (
	"reflect"
	"testing"

	"github.com/pithecene-io/ocan/cli/config"
	"github.com/pithecene-io/ocan/policy"
)

func TestBuildPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.PolicyConfig
		want    any
		wantErr bool
	}{
		{"default", config.PolicyConfig{}, nil, false},
		{"noop", config.PolicyConfig{Name: "noop"}, &policy.NoopPolicy{}, false},
		{"strict", config.PolicyConfig{Name: "strict"}, &policy.StrictPolicy{}, false},
		{"buffered", config.PolicyConfig{Name: "buffered", BufferMax: 4}, &policy.BufferedPolicy{}, false},
		{"streaming", config.PolicyConfig{Name: "streaming", Window: 8}, &policy.StreamingPolicy{}, false},
		{"buffered without max", config.PolicyConfig{Name: "buffered"}, nil, true},
		{"unknown", config.PolicyConfig{Name: "bogus"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildPolicy(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildPolicy error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tt.want == nil {
				if got != nil {
					t.Fatalf("buildPolicy = %T, want nil", got)
				}
				return
			}
			if reflect.TypeOf(got) != reflect.TypeOf(tt.want) {
				t.Fatalf("buildPolicy = %T, want %T", got, tt.want)
			}
		})
	}
}

func TestWorkerArgsAppendsAdapterFlags(t *testing.T) {
	cfg := &config.Config{}
	cfg.Transport.Args = []string{"--binding=demo"}
	cfg.Adapter.Type = "redis"
	cfg.Adapter.URL = "redis://localhost:6379"
	cfg.Adapter.Channel = "events"

	got := workerArgs(cfg)
	want := []string{
		"--binding=demo",
		"--adapter-type", "redis",
		"--adapter-url", "redis://localhost:6379",
		"--adapter-channel", "events",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("workerArgs = %v, want %v", got, want)
	}
}

func TestWorkerArgsWithoutAdapter(t *testing.T) {
	cfg := &config.Config{}
	cfg.Transport.Args = []string{"--binding=demo"}

	got := workerArgs(cfg)
	if !reflect.DeepEqual(got, []string{"--binding=demo"}) {
		t.Fatalf("workerArgs = %v, want transport args unchanged", got)
	}
}

package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand_ListsSubcommands(t *testing.T) {
	root := newRootCommand(newViper())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"ensure-schema", "seed-roles", "audit"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("help output missing %q", name)
		}
	}
}

func TestAppConfig_Precedence(t *testing.T) {
	tests := []struct {
		name string
		env  string
		args []string
		want string
	}{
		{"default", "", nil, "lightspeed"},
		{"env", "from_env", nil, "from_env"},
		{"flag beats env", "from_env", []string{"--mongo_database=from_flag"}, "from_flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("LIGHTSPEED_MONGO_DATABASE", tt.env)
			}
			v := newViper()
			root := newRootCommand(v)
			if err := root.PersistentFlags().Parse(tt.args); err != nil {
				t.Fatal(err)
			}
			if got := appConfig(v).MongoDatabase; got != tt.want {
				t.Errorf("database = %q, want %q", got, tt.want)
			}
		})
	}
}

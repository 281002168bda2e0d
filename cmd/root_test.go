package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command error = %v", err)
	}
}

func TestRegisteredCommands(t *testing.T) {
	want := map[string]bool{"serve": false, "migrate": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRootHelp(t *testing.T) {
	if !strings.Contains(rootCmd.Long, "dashboard") {
		t.Error("root command long description should describe the dashboard backend")
	}
}

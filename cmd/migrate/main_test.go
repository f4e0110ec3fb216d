package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"no command", nil, true},
		{"up", []string{"up"}, false},
		{"step without count", []string{"step"}, true},
		{"step with count", []string{"step", "-1"}, false},
		{"force with version", []string{"force", "3"}, false},
		{"unknown", []string{"drop"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := lookup(tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, errUsage)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPrintUsage_ListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	for name := range commands {
		assert.Contains(t, buf.String(), "  "+name)
	}
}

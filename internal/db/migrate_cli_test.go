package db

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestRunMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")

	tests := []struct {
		args    []string
		wantErr bool
		want    string
	}{
		{[]string{"status"}, false, "Current version: 0"},
		{[]string{"up"}, false, "Current version: 2"},
		{[]string{"down"}, false, "Current version: 1"},
		{[]string{"force", "2"}, false, "Current version: 2"},
		{[]string{"force"}, true, ""},
		{[]string{"force", "two"}, true, ""},
		{[]string{"sideways"}, true, "Usage: mmwave migrate"},
		{[]string{"help"}, false, "Usage: mmwave migrate"},
		{nil, true, "Usage: mmwave migrate"},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		err := RunMigrateCommand(&out, tt.args, path)
		if (err != nil) != tt.wantErr {
			t.Errorf("RunMigrateCommand(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
		}
		if tt.want != "" && !bytes.Contains(out.Bytes(), []byte(tt.want)) {
			t.Errorf("RunMigrateCommand(%v) output = %q, want %q", tt.args, out.String(), tt.want)
		}
	}
}

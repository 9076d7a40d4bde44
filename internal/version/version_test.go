package version

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		bim  map[string]string
		want string
	}{
		{
			name: "no build info",
			want: "part version dev",
		},
		{
			name: "no vcs",
			bim:  map[string]string{"GOOS": "linux", "GOARCH": "amd64"},
			want: "part version dev linux/amd64",
		},
		{
			name: "git",
			bim: map[string]string{
				"GOOS":         "linux",
				"GOARCH":       "arm64",
				"vcs":          "git",
				"vcs.revision": "0123456789abcdef",
				"vcs.time":     "2025-01-02T03:04:05Z",
			},
			want: "part version dev linux/arm64 rev 0123456789 on 2025-01-02T03:04:05Z",
		},
		{
			name: "modified short revision",
			bim: map[string]string{
				"GOOS":         "linux",
				"GOARCH":       "amd64",
				"vcs":          "git",
				"vcs.revision": "abc",
				"vcs.time":     "now",
				"vcs.modified": "true",
			},
			want: "part version dev linux/amd64 rev abc on now (modified)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := format("part", tt.bim); got != tt.want {
				t.Errorf("format() = %q, want %q", got, tt.want)
			}
		})
	}
}

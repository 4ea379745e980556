package binaryview

import "testing"

func TestFilenameHint(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		url         string
		contentType string
		want        []string
	}{
		{
			name:        "disposition filename",
			disposition: `attachment; filename="report.pdf"`,
			contentType: "application/pdf",
			want:        []string{"report.pdf"},
		},
		{
			name:        "rfc 5987 encoded",
			disposition: `attachment; filename*=UTF-8''d%20%5Ba%5D.txt`,
			contentType: "application/octet-stream",
			want:        []string{"d [a].txt"},
		},
		{
			name:        "encoded wins over plain",
			disposition: `attachment; filename*=UTF-8''cool%20name.txt; filename="fallback.txt"`,
			contentType: "application/octet-stream",
			want:        []string{"cool name.txt"},
		},
		{
			name:        "url basename",
			url:         "https://example.com/files/image.png",
			contentType: "application/octet-stream",
			want:        []string{"image.png"},
		},
		{
			name:        "url root falls back to mime",
			url:         "https://example.com/",
			contentType: "application/json",
			want:        []string{"response.json"},
		},
		{
			name:        "mime only",
			contentType: "application/json",
			want:        []string{"response.json"},
		},
		{
			name:        "mime with params",
			contentType: "text/html; charset=utf-8",
			want:        []string{"response.htm", "response.html"},
		},
		{
			name:        "traversal sanitized",
			url:         "https://example.com/../../etc/passwd",
			contentType: "application/octet-stream",
			want:        []string{"passwd.bin"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilenameHint(tt.disposition, tt.url, tt.contentType)
			for _, w := range tt.want {
				if got == w {
					return
				}
			}
			t.Fatalf("FilenameHint() = %q, want one of %v", got, tt.want)
		})
	}
}

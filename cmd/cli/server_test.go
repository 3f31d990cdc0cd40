package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalServerPort(t *testing.T) {
	tests := []struct {
		name      string
		serverURL string
		wantPort  string
		wantLocal bool
	}{
		{
			name:      "default localhost",
			serverURL: "http://localhost:8080",
			wantPort:  "8080",
			wantLocal: true,
		},
		{
			name:      "loopback address",
			serverURL: "http://127.0.0.1:9090",
			wantPort:  "9090",
			wantLocal: true,
		},
		{
			name:      "no explicit port",
			serverURL: "http://localhost",
			wantPort:  "80",
			wantLocal: true,
		},
		{
			name:      "https without port",
			serverURL: "https://localhost",
			wantPort:  "443",
			wantLocal: true,
		},
		{
			name:      "remote host is never auto-started",
			serverURL: "http://media-box.local:8080",
			wantLocal: false,
		},
		{
			name:      "garbage URL",
			serverURL: "://not-a-url",
			wantLocal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, local := localServerPort(tt.serverURL)
			assert.Equal(t, tt.wantLocal, local)
			if tt.wantLocal {
				assert.Equal(t, tt.wantPort, port)
			}
		})
	}
}

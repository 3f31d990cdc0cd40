package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	serverBinaryName   = "vimeograb-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

// isServerRunning checks whether the configured server answers health checks
func isServerRunning() bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// localServerPort reports the port of the configured --server URL and whether
// it points at this machine. Auto-start only makes sense for local targets.
func localServerPort(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
	default:
		return "", false
	}
	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	return port, true
}

// findServerBinary locates the server binary: next to the CLI first, then
// PATH, then the usual install locations.
func findServerBinary() (string, error) {
	var candidates []string
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), serverBinaryName))
	}
	if p, err := exec.LookPath(serverBinaryName); err == nil {
		candidates = append(candidates, p)
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, "go", "bin", serverBinaryName),
			filepath.Join(home, ".local", "bin", serverBinaryName))
	}
	candidates = append(candidates,
		"/usr/local/bin/"+serverBinaryName,
		"/usr/bin/"+serverBinaryName)

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s binary not found", serverBinaryName)
}

// startServerBackground spawns the server detached, listening on the port the
// CLI was told to talk to
func startServerBackground(port string) error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(serverPath)
	// The server reads its listen port from the environment; keep it in sync
	// with the --server flag so the health polling below targets the right
	// process.
	cmd.Env = append(os.Environ(), "VIMEOGRAB_SERVER_PORT="+port)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// Reap the daemonizing parent; the detached child outlives us
	go func() {
		cmd.Wait()
	}()

	return nil
}

// waitForServerReady polls the health endpoint until the server answers
func waitForServerReady() error {
	deadline := time.Now().Add(serverStartTimeout)
	for time.Now().Before(deadline) {
		if isServerRunning() {
			return nil
		}
		time.Sleep(serverPollInterval)
	}
	return fmt.Errorf("server did not start within %v", serverStartTimeout)
}

// ensureServerRunning starts the server when the configured URL is local and
// nothing answers there yet
func ensureServerRunning() error {
	if isServerRunning() {
		return nil
	}

	port, local := localServerPort(serverURL)
	if !local {
		return fmt.Errorf("server at %s is not responding and cannot be started from here", serverURL)
	}

	fmt.Println("Server not running, starting...")
	if err := startServerBackground(port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	if err := waitForServerReady(); err != nil {
		return err
	}

	fmt.Println("Server started successfully")
	return nil
}

package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"mediavault/internal/api"
	"mediavault/internal/config"
	"mediavault/internal/dedupe"
	"mediavault/internal/media"
	"mediavault/internal/scanner"
	"mediavault/internal/staging"
	"mediavault/internal/testsupport"
)

type nopExtractor struct{}

func (nopExtractor) Extract(context.Context, string) (media.Facts, error) {
	return media.Facts{Container: "matroska", VideoCodec: "h264", Width: 1280, Height: 720}, nil
}

func newDaemon(t *testing.T) (*Daemon, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	mgr := staging.New(st, cfg, nil)
	svc := api.NewService(
		st,
		scanner.New(st, cfg, nopExtractor{}, nil),
		dedupe.New(st, cfg, nil),
		mgr,
	)
	d, err := New(cfg, st, svc, mgr, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d, cfg
}

func TestDaemonServesStatus(t *testing.T) {
	d, _ := newDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + d.Addr() + "/api/status")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code %d", resp.StatusCode)
	}

	var payload api.DaemonStatusView
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !payload.Running || payload.PID == 0 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	d, cfg := newDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	st := testsupport.MustOpenStore(t, cfg)
	mgr := staging.New(st, cfg, nil)
	svc := api.NewService(st, scanner.New(st, cfg, nopExtractor{}, nil), dedupe.New(st, cfg, nil), mgr)
	second, err := New(cfg, st, svc, mgr, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("second daemon should fail to acquire the lock")
	}
}

func TestDaemonStageEndpointRoundTrip(t *testing.T) {
	d, cfg := newDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	testsupport.WriteFile(t, cfg.Paths.LibraryDirs[0]+"/Heat.1995.mkv", 2048)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	client := &http.Client{Timeout: 10 * time.Second}
	base := "http://" + d.Addr()

	resp, err := client.Post(base+"/api/scan", "application/json", nil)
	if err != nil {
		t.Fatalf("scan request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scan returned %d", resp.StatusCode)
	}

	resp, err = client.Get(base + "/api/files")
	if err != nil {
		t.Fatalf("files request failed: %v", err)
	}
	var files api.FileListResponse
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		t.Fatalf("decode files failed: %v", err)
	}
	resp.Body.Close()
	if len(files.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files.Files))
	}

	stageBody := `{"fileId": ` + strconv.FormatInt(files.Files[0].ID, 10) + `}`
	resp, err = client.Post(base+"/api/pending", "application/json", strings.NewReader(stageBody))
	if err != nil {
		t.Fatalf("stage request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("stage returned %d", resp.StatusCode)
	}

	// Staging the same file again must conflict.
	resp, err = client.Post(base+"/api/pending", "application/json", strings.NewReader(stageBody))
	if err != nil {
		t.Fatalf("second stage request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict, got %d", resp.StatusCode)
	}
}

func TestDaemonRequiresBearerToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = "secret"
	st := testsupport.MustOpenStore(t, cfg)
	mgr := staging.New(st, cfg, nil)
	svc := api.NewService(st, scanner.New(st, cfg, nopExtractor{}, nil), dedupe.New(st, cfg, nil), mgr)
	d, err := New(cfg, st, svc, mgr, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	client := &http.Client{Timeout: 5 * time.Second}
	base := "http://" + d.Addr()

	resp, err := client.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/status", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("authorized request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}

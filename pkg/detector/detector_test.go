package detector

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestDetectSendsMultipartFile(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Method != http.MethodPost || r.URL.Path != DetectPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile(FileField)
		if err != nil {
			t.Errorf("missing file field: %v", err)
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		if header.Filename != "scan.png" || string(body) != "pixels" {
			t.Errorf("unexpected upload %q %q", header.Filename, body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","results":[{"bbox":[10,10,50,50],"label":"A","score":0.5}]}`))
	}))
	defer srv.Close()

	d := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, quietLogger())
	resp, err := d.Detect(context.Background(), "scan.png", []byte("pixels"))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Succeeded() || len(resp.Results) != 1 || resp.Results[0].Label != "A" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected exactly one request, got %d", hits)
	}
}

func TestDetectReturnsServerFailureBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","message":"bad image"}`))
	}))
	defer srv.Close()

	d := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, quietLogger())
	resp, err := d.Detect(context.Background(), "a.png", []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Succeeded() || resp.Message != "bad image" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestDetectConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	d := New(Config{BaseURL: "http://" + addr, Timeout: 2 * time.Second}, quietLogger())
	_, err = d.Detect(context.Background(), "a.png", []byte("x"))
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestDetectKeepsNonObjectRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","results":[{"bbox":[1,2,3,4],"label":"A","score":0.5},"x"]}`))
	}))
	defer srv.Close()

	d := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, quietLogger())
	resp, err := d.Detect(context.Background(), "a.png", []byte("x"))
	if err != nil {
		t.Fatalf("a malformed record is not a transport error: %v", err)
	}
	if !resp.Succeeded() || len(resp.Results) != 2 || resp.Results[1].BBox.Finite() {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestDetectUnreadableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()

	d := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, quietLogger())
	_, err := d.Detect(context.Background(), "a.png", []byte("x"))
	if !errors.Is(err, ErrTransport) || !errors.Is(err, ErrBadResponse) {
		t.Fatalf("expected transport/bad response error, got %v", err)
	}
}

func TestCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == HealthPath {
			_, _ = w.Write([]byte(`{"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, quietLogger())
	if err := d.CheckHealth(context.Background()); err != nil {
		t.Fatal(err)
	}
}

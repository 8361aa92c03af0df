package main

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRunIsolatedContainsPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	runIsolated(logger, "feedback", func() error {
		panic("exploded")
	})

	out := buf.String()
	if !strings.Contains(out, "Scraper panicked") {
		t.Errorf("Panic not logged:\n%s", out)
	}
	if !strings.Contains(out, "exploded") {
		t.Errorf("Panic value missing from log:\n%s", out)
	}
}

func TestRunIsolatedLogsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	runIsolated(logger, "roadmap", func() error {
		return errors.New("portal unreachable")
	})

	out := buf.String()
	if !strings.Contains(out, "Scraper failed") {
		t.Errorf("Failure not logged:\n%s", out)
	}
	if strings.Contains(out, "Scraper completed") {
		t.Errorf("A failed scraper should not log completion:\n%s", out)
	}
}

func TestRunIsolatedSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ran := false
	runIsolated(logger, "organization", func() error {
		ran = true
		return nil
	})

	if !ran {
		t.Fatal("Scraper function never ran")
	}
	if !strings.Contains(buf.String(), "Scraper completed") {
		t.Errorf("Completion not logged:\n%s", buf.String())
	}
}

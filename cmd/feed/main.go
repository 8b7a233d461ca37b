package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// feed relays raw news items into the incident pipeline: each line of input
// is sent to /parse-news, and every successful extraction is pushed to the
// live map through /broadcast-incident.

const defaultMinLength = 10

func main() {
	var (
		backend   = flag.String("backend", "http://localhost:8000", "base URL of the incident-map backend")
		file      = flag.String("file", "-", "file with one news item per line, or - for stdin")
		minLength = flag.Int("min-length", defaultMinLength, "skip lines shorter than this many characters")
		timeout   = flag.Duration("timeout", 60*time.Second, "per-request timeout")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	input := os.Stdin
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			logger.Error("failed to open input file", "file", *file, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		input = f
	}

	relay := &relay{
		backend: strings.TrimRight(*backend, "/"),
		client:  &http.Client{Timeout: *timeout},
		logger:  logger,
	}

	var sent, skipped, failed int
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len([]rune(line)) < *minLength {
			skipped++
			continue
		}

		if err := relay.process(line); err != nil {
			failed++
			logger.Error("failed to relay news item", "error", err)
			continue
		}
		sent++
	}
	if err := scanner.Err(); err != nil {
		logger.Error("failed to read input", "error", err)
		os.Exit(1)
	}

	logger.Info("feed complete", "sent", sent, "skipped", skipped, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

type relay struct {
	backend string
	client  *http.Client
	logger  *slog.Logger
}

// process extracts an incident from one news item and broadcasts it.
func (r *relay) process(text string) error {
	incident, err := r.post("/parse-news", map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if _, err := r.post("/broadcast-incident", json.RawMessage(incident)); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}

	r.logger.Info("incident relayed", "bytes", len(incident))
	return nil
}

func (r *relay) post(path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	resp, err := r.client.Post(r.backend+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, respBody)
	}
	return respBody, nil
}

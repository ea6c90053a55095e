package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"kanban-cli/internal/board"
	"kanban-cli/internal/perm"
)

// Check statuses. Skip means the tier is not configured, not that it broke.
const (
	CheckOK   = "ok"
	CheckSkip = "skip"
	CheckFail = "fail"
)

// Check is one diagnostic probe and its outcome.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Report collects the checks doctor ran, in detection order.
type Report struct {
	Checks []Check `json:"checks"`
}

func (r *Report) add(name, status, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Detail: detail})
}

// Failures counts checks that failed outright.
func (r Report) Failures() int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == CheckFail {
			n++
		}
	}
	return n
}

// Diagnose probes every storage tier the detector would consider and reports
// what it found, without settling on a mode. Unlike Resolve it keeps going
// past the first usable tier, so a broken snapshot URL still shows up when
// the server behind it is healthy.
func Diagnose(ctx context.Context, opts Options) Report {
	var r Report

	cfg, err := LoadConfig()
	if err != nil {
		cfg = &Config{}
		r.add("config", CheckFail, err.Error())
	} else if path, perr := ConfigPath(); perr != nil {
		r.add("config", CheckFail, perr.Error())
	} else if _, serr := os.Stat(path); serr != nil {
		r.add("config", CheckOK, "defaults (no config file)")
	} else {
		r.add("config", CheckOK, path)
	}

	snapshot := strings.TrimSpace(opts.Snapshot)
	if snapshot == "" {
		snapshot = cfg.SnapshotURL
	}
	if snapshot == "" {
		r.add("snapshot", CheckSkip, "not configured")
	} else if doc, err := fetchSnapshot(ctx, snapshot); err != nil {
		r.add("snapshot", CheckFail, err.Error())
	} else {
		r.add("snapshot", CheckOK, fmt.Sprintf("%s (%d tasks)", snapshot, len(doc.Tasks)))
	}

	server := strings.TrimSpace(opts.Server)
	if server == "" {
		server = cfg.ServerURL
	}
	if server == "" {
		r.add("server", CheckSkip, "not configured")
	} else if h, err := NewRemote(server).Probe(ctx); err != nil {
		r.add("server", CheckFail, err.Error())
	} else {
		r.add("server", CheckOK, h.Server)
	}

	mgr := perm.NewManager(opts.KV, opts.Prompter)
	if g, ok, err := mgr.Stored(ctx); err != nil {
		r.add("directory", CheckFail, err.Error())
	} else if !ok {
		r.add("directory", CheckSkip, "no directory linked")
	} else if err := mgr.Verify(g); err != nil {
		r.add("directory", CheckFail, err.Error())
	} else {
		r.add("directory", CheckOK, g.Path)
		r.Checks = append(r.Checks, checkBoardFile(mgr.BoardPath(g)))
	}

	if _, err := OpenLocalKV(ctx, opts.KV); err != nil {
		r.add("key-value store", CheckFail, err.Error())
	} else {
		r.add("key-value store", CheckOK, opts.KV.Path)
	}

	return r
}

func checkBoardFile(path string) Check {
	c := Check{Name: "board file"}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		c.Status, c.Detail = CheckOK, path+" (created on first write)"
		return c
	}
	if err != nil {
		c.Status, c.Detail = CheckFail, err.Error()
		return c
	}
	doc, err := board.DecodeBoard(raw)
	if err != nil {
		c.Status, c.Detail = CheckFail, err.Error()
		return c
	}
	c.Status, c.Detail = CheckOK, fmt.Sprintf("%s (%d tasks)", path, len(doc.Tasks))
	return c
}

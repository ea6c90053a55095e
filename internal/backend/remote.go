package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kanban-cli/internal/board"
)

// ProbeTimeout bounds the reachability probe. The probe is the only
// cancellable operation in the contract; everything else runs to completion
// and an abandoned caller simply ignores the eventual result.
const ProbeTimeout = 5 * time.Second

// Remote consumes the board REST surface of a running server. Ids are
// assigned by the service, never locally.
type Remote struct {
	base   string
	client *http.Client
}

// NewRemote builds a client for base, e.g. "http://127.0.0.1:8321/api".
func NewRemote(base string) *Remote {
	return &Remote{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{},
	}
}

func (r *Remote) Mode() Mode { return ModeRemote }

// Health is the reachability probe payload.
type Health struct {
	Available bool   `json:"available"`
	Server    string `json:"server"`
}

// Probe checks the service within ProbeTimeout. Timeouts, non-200 answers,
// and malformed bodies all report ErrUnavailable.
func (r *Remote) Probe(ctx context.Context) (Health, error) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base+"/health", nil)
	if err != nil {
		return Health{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Health{}, fmt.Errorf("%w: health answered %d", ErrUnavailable, resp.StatusCode)
	}
	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !h.Available {
		return Health{}, fmt.Errorf("%w: service reports unavailable", ErrUnavailable)
	}
	return h, nil
}

func (r *Remote) GetAll(ctx context.Context) ([]board.Task, error) {
	var out []board.Task
	if err := r.do(ctx, http.MethodGet, "/tasks", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if out == nil {
		out = []board.Task{}
	}
	return out, nil
}

func (r *Remote) Create(ctx context.Context, draft board.TaskDraft) (board.Task, error) {
	var out board.Task
	err := r.do(ctx, http.MethodPost, "/tasks", draft, &out, http.StatusCreated)
	return out, err
}

func (r *Remote) Update(ctx context.Context, id string, patch board.TaskPatch) (board.Task, error) {
	var out board.Task
	err := r.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), patch, &out, http.StatusOK)
	if isStatus(err, http.StatusNotFound) {
		return board.Task{}, &NotFoundError{ID: id}
	}
	return out, err
}

func (r *Remote) BatchUpdate(ctx context.Context, patches map[string]board.TaskPatch) ([]board.Task, error) {
	var out []board.Task
	if err := r.do(ctx, http.MethodPatch, "/tasks", patches, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if out == nil {
		out = []board.Task{}
	}
	return out, nil
}

func (r *Remote) Delete(ctx context.Context, id string) (bool, error) {
	var out struct {
		Success bool `json:"success"`
	}
	if err := r.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, &out, http.StatusOK); err != nil {
		return false, err
	}
	return out.Success, nil
}

func (r *Remote) TagSuggestions(ctx context.Context) ([]string, error) {
	var out []string
	if err := r.do(ctx, http.MethodGet, "/tags/suggestions", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (r *Remote) Settings(ctx context.Context) (board.Settings, error) {
	var out board.Settings
	err := r.do(ctx, http.MethodGet, "/settings", nil, &out, http.StatusOK)
	return out, err
}

func (r *Remote) UpdateSettings(ctx context.Context, patch board.SettingsPatch) (board.Settings, error) {
	var out board.Settings
	err := r.do(ctx, http.MethodPatch, "/settings", patch, &out, http.StatusOK)
	return out, err
}

// statusError reports an unexpected HTTP answer.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	msg := strings.TrimSpace(e.body)
	if msg == "" {
		msg = http.StatusText(e.code)
	}
	return fmt.Sprintf("remote answered %d: %s", e.code, msg)
}

func (e *statusError) Is(target error) bool {
	// A read-only server rejects mutations with 403; surface that as the
	// same violation a local read-only backend raises.
	return target == ErrReadOnly && e.code == http.StatusForbidden
}

func isStatus(err error, code int) bool {
	var se *statusError
	if ok := asStatusError(err, &se); ok {
		return se.code == code
	}
	return false
}

func asStatusError(err error, out **statusError) bool {
	for err != nil {
		if se, ok := err.(*statusError); ok {
			*out = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func (r *Remote) do(ctx context.Context, method, path string, in, out any, want int) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: string(raw)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

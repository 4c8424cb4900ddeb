package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"tracker/internal/core"
)

const maxBodyBytes = 1 << 20

var errNotObject = errors.New("body must be a JSON object")

// readObject decodes the request body into its top-level fields.
func readObject(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, core.WithCode(core.CodeInvalidBody, fmt.Errorf("read body: %w", err))
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, core.WithCode(core.CodeInvalidBody, errNotObject)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, core.WithCode(core.CodeInvalidBody, fmt.Errorf("decode body: %w", err))
	}
	return fields, nil
}

// present reports whether key was sent with a non-null value.
func present(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	var s string
	if err := json.Unmarshal(fields[key], &s); err != nil {
		return "", core.Codef(core.CodeInvalidBody, "%s must be a string", key)
	}
	return s, nil
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	if !present(fields, key) {
		return "", core.Codef(core.CodeInvalidBody, "%s is required", key)
	}
	s, err := stringField(fields, key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", core.Codef(core.CodeInvalidBody, "%s must not be empty", key)
	}
	return s, nil
}

func numberField(fields map[string]json.RawMessage, key string) (float64, error) {
	var f float64
	if err := json.Unmarshal(fields[key], &f); err != nil {
		return 0, core.Codef(core.CodeInvalidBody, "%s must be a number", key)
	}
	return f, nil
}

func dateField(fields map[string]json.RawMessage, key string) (core.Date, error) {
	s, err := stringField(fields, key)
	if err != nil {
		return core.Date{}, err
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.WithCode(core.CodeInvalidBody, err)
	}
	return d, nil
}

// parseNewEntry applies the create rules: pillar, task and date are required
// strings, timeSaved a required number, description and moneySaved optional.
func parseNewEntry(fields map[string]json.RawMessage) (core.NewEntry, error) {
	var (
		e   core.NewEntry
		err error
	)
	if e.Pillar, err = requiredString(fields, "pillar"); err != nil {
		return e, err
	}
	if e.Task, err = requiredString(fields, "task"); err != nil {
		return e, err
	}
	if !present(fields, "date") {
		return e, core.Codef(core.CodeInvalidBody, "date is required")
	}
	if e.Date, err = dateField(fields, "date"); err != nil {
		return e, err
	}
	if !present(fields, "timeSaved") {
		return e, core.Codef(core.CodeInvalidBody, "timeSaved is required")
	}
	if e.TimeSaved, err = numberField(fields, "timeSaved"); err != nil {
		return e, err
	}
	if present(fields, "description") {
		if e.Description, err = stringField(fields, "description"); err != nil {
			return e, err
		}
	}
	if present(fields, "moneySaved") {
		if e.MoneySaved, err = numberField(fields, "moneySaved"); err != nil {
			return e, err
		}
	}
	return e, nil
}

// parsePatch collects the recognized non-null fields. Unknown keys are
// ignored; a body with none of the six fields is NO_FIELDS.
func parsePatch(fields map[string]json.RawMessage) (core.EntryPatch, error) {
	var p core.EntryPatch

	if present(fields, "pillar") {
		s, err := requiredString(fields, "pillar")
		if err != nil {
			return p, err
		}
		p.Pillar = &s
	}
	if present(fields, "task") {
		s, err := requiredString(fields, "task")
		if err != nil {
			return p, err
		}
		p.Task = &s
	}
	if present(fields, "description") {
		s, err := stringField(fields, "description")
		if err != nil {
			return p, err
		}
		p.Description = &s
	}
	if present(fields, "timeSaved") {
		f, err := numberField(fields, "timeSaved")
		if err != nil {
			return p, err
		}
		p.TimeSaved = &f
	}
	if present(fields, "moneySaved") {
		f, err := numberField(fields, "moneySaved")
		if err != nil {
			return p, err
		}
		p.MoneySaved = &f
	}
	if present(fields, "date") {
		d, err := dateField(fields, "date")
		if err != nil {
			return p, err
		}
		p.Date = &d
	}

	if p.IsEmpty() {
		return p, core.WithCode(core.CodeNoFields, core.ErrNoFields)
	}
	return p, nil
}

// parseID reads the {id} route parameter as a positive integer.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Codef(core.CodeInvalidID, "invalid id %q", raw)
	}
	return id, nil
}

// parseListFilter reads ?pillar= and ?since=. Empty values disable a filter.
func parseListFilter(r *http.Request) (core.ListFilter, error) {
	q := r.URL.Query()
	f := core.ListFilter{Pillar: q.Get("pillar")}
	if since := strings.TrimSpace(q.Get("since")); since != "" {
		d, err := core.ParseDate(since)
		if err != nil {
			return f, core.WithCode(core.CodeInvalidQuery, err)
		}
		f.Since = d
	}
	return f, nil
}

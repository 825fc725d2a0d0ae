package publish

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/hyperifyio/blogforge/internal/article"
	"github.com/hyperifyio/blogforge/internal/pipeline"
)

type memWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (m *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *memWriter) Close() error {
	m.closed = true
	return nil
}

func TestPublish_KeyedByRunID(t *testing.T) {
	w := &memWriter{}
	p := NewWithWriter(w, "articles")
	resp := pipeline.Response{
		Success: true,
		RunID:   "run-1",
		Article: &pipeline.Post{Article: article.Article{Title: "Hello"}},
	}
	if err := p.Publish(context.Background(), resp); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "run-1" {
		t.Fatalf("unexpected messages: %+v", w.msgs)
	}
	var decoded map[string]any
	if err := json.Unmarshal(w.msgs[0].Value, &decoded); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if decoded["run_id"] != "run-1" || decoded["success"] != true {
		t.Fatalf("unexpected payload: %v", decoded)
	}
}

func TestPublish_SkipsFailedRuns(t *testing.T) {
	w := &memWriter{}
	if err := NewWithWriter(w, "t").Publish(context.Background(), pipeline.Response{Success: false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.msgs) != 0 {
		t.Fatalf("failed runs must not be published")
	}
}

func TestPublish_WrapsWriterError(t *testing.T) {
	w := &memWriter{err: errors.New("no leader")}
	err := NewWithWriter(w, "articles").Publish(context.Background(), pipeline.Response{Success: true, RunID: "x"})
	if err == nil || !strings.Contains(err.Error(), "articles") || !strings.Contains(err.Error(), "no leader") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClose(t *testing.T) {
	w := &memWriter{}
	if err := NewWithWriter(w, "t").Close(); err != nil || !w.closed {
		t.Fatalf("close not forwarded")
	}
}

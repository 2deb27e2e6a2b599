package ner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonkalabs/smarttext-go/internal/smarttext"
)

func sidecar(t *testing.T, handler func(w http.ResponseWriter, text string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/detect", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req detectRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req.Text)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDetect_MapsEntities(t *testing.T) {
	srv := sidecar(t, func(w http.ResponseWriter, text string) {
		assert.Equal(t, "Call 555-1234 or mail a@b.co", text)
		_, _ = w.Write([]byte(`{"entities":[
			{"start":5,"end":13,"label":"PHONE_NUMBER","text":"555-1234"},
			{"start":22,"end":28,"label":"EMAIL","text":"a@b.co","value":"mailto:a@b.co"}
		]}`))
	})

	got, err := New(srv.URL + "/").Detect(context.Background(), "Call 555-1234 or mail a@b.co")
	require.NoError(t, err)
	assert.Equal(t, []smarttext.Match{
		{Start: 5, End: 13, Category: smarttext.Phone, Value: "555-1234"},
		{Start: 22, End: 28, Category: smarttext.Email, Value: "mailto:a@b.co"},
	}, got)
}

func TestDetect_DropsUnknownLabels(t *testing.T) {
	srv := sidecar(t, func(w http.ResponseWriter, _ string) {
		_, _ = w.Write([]byte(`{"entities":[
			{"start":0,"end":4,"label":"PER","text":"John"},
			{"start":8,"end":12,"label":"url","text":"x.io"}
		]}`))
	})

	got, err := New(srv.URL).Detect(context.Background(), "John at x.io")
	require.NoError(t, err)
	assert.Equal(t, []smarttext.Match{{Start: 8, End: 12, Category: smarttext.URL, Value: "x.io"}}, got)
}

func TestDetect_ConvertsUTF16Offsets(t *testing.T) {
	srv := sidecar(t, func(w http.ResponseWriter, _ string) {
		_, _ = w.Write([]byte(`{"entities":[{"start":3,"end":7,"label":"URL","text":"x.io"}]}`))
	})

	got, err := New(srv.URL, WithUnit(smarttext.UnitUTF16)).Detect(context.Background(), "🎉 x.io")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Start)
	assert.Equal(t, 6, got[0].End)
}

func TestDetect_BadStatusDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, degraded := smarttext.WatchDegraded(context.Background())

	got, err := New(srv.URL).Detect(ctx, "x.io")
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, degraded())
}

func TestDetect_UnreachableDegrades(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ctx, degraded := smarttext.WatchDegraded(context.Background())

	got, err := New(url, WithTimeout(time.Second)).Detect(ctx, "x.io")
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, degraded())
}

func TestDetect_DecodeError(t *testing.T) {
	srv := sidecar(t, func(w http.ResponseWriter, _ string) {
		_, _ = w.Write([]byte(`{"entities":`))
	})

	_, err := New(srv.URL).Detect(context.Background(), "x.io")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ner: decode")
}

func TestDetect_EmptyTextSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	got, err := New(srv.URL).Detect(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, called)
}

func TestDetect_WithClassifier(t *testing.T) {
	srv := sidecar(t, func(w http.ResponseWriter, _ string) {
		_, _ = w.Write([]byte(`{"entities":[{"start":5,"end":13,"label":"PHONE","text":"555-1234"}]}`))
	})

	spans, err := smarttext.New(New(srv.URL)).Classify(context.Background(), "Call 555-1234 now")
	require.NoError(t, err)
	assert.Equal(t, []smarttext.Span{
		{Text: "Call ", Type: smarttext.Text, RawValue: "Call "},
		{Text: "555-1234", Type: smarttext.TypePhone, RawValue: "555-1234"},
		{Text: " now", Type: smarttext.Text, RawValue: " now"},
	}, spans)
}

func TestDetect_ResolvesNestedEntities(t *testing.T) {
	text := "Meet at 1 Main St, Austin, TX now"
	srv := sidecar(t, func(w http.ResponseWriter, _ string) {
		_, _ = w.Write([]byte(`{"entities":[
			{"start":19,"end":25,"label":"ADDRESS","text":"Austin"},
			{"start":8,"end":29,"label":"ADDRESS","text":"1 Main St, Austin, TX"}
		]}`))
	})
	ctx, degraded := smarttext.WatchDegraded(context.Background())

	got, err := New(srv.URL).Detect(ctx, text)
	require.NoError(t, err)
	assert.Equal(t, []smarttext.Match{
		{Start: 8, End: 29, Category: smarttext.Address, Value: "1 Main St, Austin, TX"},
	}, got)
	assert.False(t, degraded())

	var sb strings.Builder
	for _, s := range smarttext.Assemble(text, got) {
		sb.WriteString(s.Text)
	}
	assert.Equal(t, text, sb.String())
}

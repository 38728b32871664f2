package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	replies  []string
	errs     []error
	calls    int
	requests []*GenerateRequest
}

func (g *scriptedGenerator) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	idx := g.calls
	g.calls++
	g.requests = append(g.requests, req)
	var err error
	if idx < len(g.errs) {
		err = g.errs[idx]
	}
	var reply string
	if idx < len(g.replies) {
		reply = g.replies[idx]
	}
	return reply, err
}

func newTestClient(gen IGenerator) (*Client, *[]time.Duration) {
	client := NewClient(gen, DefaultRetryPolicy())
	var waits []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return client, &waits
}

func TestGenerateStructured_Success(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{`{"title": "Notes", "sections": []}`}}
	client, _ := newTestClient(gen)

	out, err := client.GenerateStructured(context.Background(), &GenerateRequest{
		Prompt:       "generate",
		SystemPrompt: "you are a tutor",
	})
	require.NoError(t, err)
	assert.Equal(t, "Notes", out["title"])
	assert.Equal(t, 1, gen.calls)
}

func TestGenerateStructured_AppendsJSONInstruction(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{`{}`}}
	client, _ := newTestClient(gen)

	_, err := client.GenerateStructured(context.Background(), &GenerateRequest{
		Prompt:       "generate",
		SystemPrompt: "base prompt",
	})
	require.NoError(t, err)
	require.Len(t, gen.requests, 1)
	assert.Contains(t, gen.requests[0].SystemPrompt, "base prompt")
	assert.Contains(t, gen.requests[0].SystemPrompt, "valid JSON only")
}

func TestGenerateStructured_StripsCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "json tagged fence", reply: "```json\n{\"ok\": true}\n```"},
		{name: "bare fence", reply: "```\n{\"ok\": true}\n```"},
		{name: "no fence", reply: `{"ok": true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{replies: []string{tt.reply}}
			client, _ := newTestClient(gen)
			out, err := client.GenerateStructured(context.Background(), &GenerateRequest{Prompt: "p"})
			require.NoError(t, err)
			assert.Equal(t, true, out["ok"])
		})
	}
}

func TestGenerateStructured_RetriesOnErrorThenSucceeds(t *testing.T) {
	gen := &scriptedGenerator{
		replies: []string{"", "", `{"done": true}`},
		errs:    []error{errors.New("rate limited"), errors.New("rate limited"), nil},
	}
	client, waits := newTestClient(gen)

	out, err := client.GenerateStructured(context.Background(), &GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, true, out["done"])
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *waits)
}

func TestGenerateStructured_MalformedJSONIsRetryable(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"not json at all", `{"fixed": true}`}}
	client, _ := newTestClient(gen)

	out, err := client.GenerateStructured(context.Background(), &GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, true, out["fixed"])
	assert.Equal(t, 2, gen.calls)
}

func TestGenerateStructured_ExhaustsRetries(t *testing.T) {
	boom := errors.New("model down")
	gen := &scriptedGenerator{errs: []error{boom, boom, boom}}
	client, waits := newTestClient(gen)

	_, err := client.GenerateStructured(context.Background(), &GenerateRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, gen.calls)
	// backoff applies between attempts, never after the last one
	assert.Len(t, *waits, 2)
}

func TestGenerateText_EmptyReplyIsRetryable(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"   ", "hello"}}
	client, _ := newTestClient(gen)

	out, err := client.GenerateText(context.Background(), &GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding whitespace", in: "  \n```json\n{}\n```\n ", want: "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("stripCodeFence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeStrictJSON_RejectsTrailingData(t *testing.T) {
	_, err := decodeStrictJSON(`{"a":1} trailing`)
	require.Error(t, err)
}

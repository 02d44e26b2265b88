package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

type stubDispatcher struct {
	replies map[string]string
}

func (s *stubDispatcher) Dispatch(ctx context.Context, text string) (string, error) {
	return s.replies[text], nil
}

func TestChatLoopDispatchesUntilQuit(t *testing.T) {
	d := &stubDispatcher{replies: map[string]string{
		"记一下周五开会": "好的，已经记下了。",
	}}

	chat := NewChat(d)
	chat.in = strings.NewReader("记一下周五开会\n\n/quit\n")
	var out bytes.Buffer
	chat.out = &out

	if err := chat.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "好的，已经记下了。") {
		t.Errorf("output = %q", out.String())
	}
}

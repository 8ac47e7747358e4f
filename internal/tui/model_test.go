package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argos/internal/service"
)

type fakePort struct {
	reqs  []service.ChatRequest
	reply service.ChatReply
	err   error
}

func (f *fakePort) Chat(_ context.Context, req service.ChatRequest) (service.ChatReply, error) {
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

// run executes cmd and every command it batches, returning the messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func submit(t *testing.T, m Model, text string) (Model, replyMsg) {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.True(t, m.waiting)
	for _, msg := range run(cmd) {
		if r, ok := msg.(replyMsg); ok {
			return m, r
		}
	}
	t.Fatal("no reply message produced")
	return m, replyMsg{}
}

func sized(port ChatPort) Model {
	next, _ := New(port, "EURUSD", "Euro weakens.", 0).Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func TestChatRoundTrip(t *testing.T) {
	port := &fakePort{reply: service.ChatReply{Response: "Stay long.", AssetID: "EURUSD", Sources: []string{"AB1234X"}}}
	m := sized(port)

	m, msg := submit(t, m, "What now?")
	next, _ := m.Update(msg)
	m = next.(Model)

	assert.False(t, m.waiting)
	assert.Empty(t, m.input.Value())
	assert.Equal(t, "1 sources cited", m.status)
	assert.Contains(t, m.View(), "Stay long.")
	require.Len(t, port.reqs, 1)
	assert.Equal(t, "EURUSD", port.reqs[0].AssetID)
	assert.Empty(t, port.reqs[0].History)

	m, msg = submit(t, m, "And then?")
	require.Len(t, port.reqs, 2)
	assert.Equal(t, []service.Turn{
		{Role: "user", Content: "What now?"},
		{Role: "assistant", Content: "Stay long."},
	}, port.reqs[1].History)
}

func TestChatErrorShownInStatus(t *testing.T) {
	port := &fakePort{err: errors.New("asset does not exist")}
	m, msg := submit(t, sized(port), "hi")
	next, _ := m.Update(msg)
	m = next.(Model)
	assert.Equal(t, "Error: asset does not exist", m.status)

	// failed exchanges are not replayed as history
	_, _ = submit(t, m, "again")
	assert.Empty(t, port.reqs[1].History)
}

func TestEnterIgnoredWhileWaiting(t *testing.T) {
	m := sized(&fakePort{})
	m.waiting = true
	m.input.SetValue("hi")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestEscQuits(t *testing.T) {
	_, cmd := sized(&fakePort{}).Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

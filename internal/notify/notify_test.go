package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/workflow-cli/internal/resilience"
	"github.com/sells-group/workflow-cli/pkg/resend"
	resendmocks "github.com/sells-group/workflow-cli/pkg/resend/mocks"
)

func noRetry() resilience.Policy {
	return resilience.NewPolicy("resend", resilience.Settings{MaxAttempts: 1})
}

func TestResend_Send(t *testing.T) {
	t.Parallel()

	client := resendmocks.NewMockClient(t)
	client.On("Send", mock.Anything, mock.MatchedBy(func(r resend.SendRequest) bool {
		return r.From == "workflows@example.com" &&
			len(r.To) == 1 && r.To[0] == "ae@example.com" &&
			r.Text == "Score 0.82 <P1>" &&
			strings.Contains(r.HTML, "Score 0.82 &lt;P1&gt;")
	})).Return(&resend.SendResponse{ID: "re_123"}, nil)

	id, err := NewResend(client, "workflows@example.com", noRetry()).Send(context.Background(), " ae@example.com ", "New P1 lead", "Score 0.82 <P1>")
	require.NoError(t, err)
	assert.Equal(t, "re_123", id)
}

func TestResend_InvalidRecipient(t *testing.T) {
	t.Parallel()

	s := NewResend(resendmocks.NewMockClient(t), "", noRetry())

	_, err := s.Send(context.Background(), "", "s", "b")
	assert.True(t, errors.Is(err, ErrNoRecipient))

	_, err = s.Send(context.Background(), "not an address", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestResend_SendError(t *testing.T) {
	t.Parallel()

	client := resendmocks.NewMockClient(t)
	client.On("Send", mock.Anything, mock.Anything).Return(nil, eris.New("resend: unexpected status 422"))

	_, err := NewResend(client, "", noRetry()).Send(context.Background(), "x@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify: email x@example.com")
}

func newSlackServer(t *testing.T, posts *[]string) *slack.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/")
		switch path {
		case "chat.postMessage":
			_ = r.ParseForm()
			*posts = append(*posts, r.Form.Get("channel")+"|"+r.Form.Get("text"))
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": r.Form.Get("channel"), "ts": "1700000000.0001"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "unknown_method"})
		}
	}))
	t.Cleanup(server.Close)

	return slack.New("xoxb-test", slack.OptionAPIURL(server.URL+"/api/"))
}

func TestSlack_Send(t *testing.T) {
	var posts []string
	api := newSlackServer(t, &posts)

	s := NewSlack(api, map[string]string{"Switches@Example.com": "C_SWITCH"}, "C_DEFAULT")

	id, err := s.Send(context.Background(), "switches@example.com", "Product complaint", "Switch restarts")
	require.NoError(t, err)
	assert.Equal(t, "C_SWITCH/1700000000.0001", id)

	_, err = s.Send(context.Background(), "sales@example.com", "New lead", "body")
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.True(t, strings.HasPrefix(posts[0], "C_SWITCH|*Product complaint*"))
	assert.True(t, strings.HasPrefix(posts[1], "C_DEFAULT|"))
}

func TestSlack_NoChannel(t *testing.T) {
	var posts []string
	s := NewSlack(newSlackServer(t, &posts), nil, "")

	_, err := s.Send(context.Background(), "x@example.com", "s", "b")
	assert.True(t, errors.Is(err, ErrNoRecipient))
	assert.Empty(t, posts)
}

func TestSlack_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
	}))
	defer server.Close()

	s := NewSlack(slack.New("xoxb-test", slack.OptionAPIURL(server.URL+"/api/")), nil, "C_GONE")
	_, err := s.Send(context.Background(), "x@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestLog_Send(t *testing.T) {
	t.Parallel()

	l := NewLog()
	id, err := l.Send(context.Background(), "expert@example.com", "subject", strings.Repeat("x", 500))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "simulated-"))
	assert.Equal(t, int64(1), l.Sent())

	_, err = l.Send(context.Background(), " ", "s", "b")
	assert.True(t, errors.Is(err, ErrNoRecipient))
	assert.Equal(t, int64(1), l.Sent())
}

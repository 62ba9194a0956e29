package session

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"monetchat/internal/app/apiclient"
	"monetchat/internal/app/storage"
	"monetchat/internal/app/user"
	"monetchat/internal/configs"
)

const never = time.Hour

func TestStart_MalformedOrAbsentSession(t *testing.T) {
	tests := []struct {
		name    string
		payload *string
	}{
		{name: "absent"},
		{name: "truncated json", payload: ptr(`{"username":`)},
		{name: "array", payload: ptr(`[]`)},
		{name: "null", payload: ptr(`null`)},
		{name: "missing username", payload: ptr(`{"nickname":"Alice"}`)},
		{name: "garbage", payload: ptr("\x00\x01")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, never)
			if tt.payload != nil {
				if err := h.store.Set(ctx, SessionKey, []byte(*tt.payload)); err != nil {
					t.Fatalf("seed store: %v", err)
				}
			}

			if err := h.ctrl.Start(ctx); err != nil {
				t.Fatalf("Start() error = %v, want nil", err)
			}

			if got := h.ctrl.State(); got != StateAnonymous {
				t.Errorf("State() = %v, want anonymous", got)
			}
			if _, err := h.store.Get(ctx, SessionKey); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("store still holds session data: err = %v", err)
			}
			if h.ctrl.Polling() {
				t.Error("Polling() = true after failed restore")
			}
			if n := h.api.count("messages"); n != 0 {
				t.Errorf("messages fetched %d times, want 0", n)
			}
			h.view.snapshot(func(v *recordingView) {
				if v.screen != "auth" {
					t.Errorf("screen = %q, want auth", v.screen)
				}
				if len(v.errors) != 0 || len(v.alerts) != 0 {
					t.Errorf("malformed session must not be surfaced: errors=%v alerts=%v", v.errors, v.alerts)
				}
			})
		})
	}
}

func ptr(s string) *string { return &s }

func TestStart_RestoresSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)
	h.api.set(func(f *fakeAPI) {
		f.messages = []user.Message{{Username: "bob", Nickname: "Bob", Message: "hi", Timestamp: 1}}
	})
	_ = h.store.Set(ctx, SessionKey, []byte(`{"username":"alice","nickname":"Alice","avatar":"http://x/a.png"}`))

	if err := h.ctrl.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if got := h.ctrl.State(); got != StateAuthenticated {
		t.Fatalf("State() = %v, want authenticated", got)
	}
	if !h.ctrl.Polling() {
		t.Error("Polling() = false after restore")
	}
	u, _ := h.ctrl.CurrentUser()
	if u.Username != "alice" {
		t.Errorf("CurrentUser() = %+v", u)
	}
	if h.view.renderCount() != 1 {
		t.Errorf("expected one immediate render, got %d", h.view.renderCount())
	}
}

func TestLogin_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "empty", username: "", password: ""},
		{name: "blank username", username: "   ", password: "pw"},
		{name: "no password", username: "alice", password: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, never)

			err := h.ctrl.Login(context.Background(), tt.username, tt.password)

			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Form != FormLogin {
				t.Fatalf("Login() error = %v, want login ValidationError", err)
			}
			if n := h.api.count("login"); n != 0 {
				t.Errorf("login called %d times, want 0", n)
			}
			h.view.snapshot(func(v *recordingView) {
				if v.errors[FormLogin] != "请输入用户名和密码" {
					t.Errorf("login error = %q", v.errors[FormLogin])
				}
			})
		})
	}
}

func TestLogin_RepeatedKeepsSinglePoller(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)

	if err := h.ctrl.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	first := h.ctrl.poller

	for i := 0; i < 3; i++ {
		if err := h.ctrl.Login(ctx, "alice", "pw"); err != nil {
			t.Fatalf("Login() #%d error = %v", i+2, err)
		}
		if h.ctrl.poller != first {
			t.Fatalf("Login() #%d replaced the poller; want exactly one", i+2)
		}
	}

	if err := h.ctrl.Login(ctx, "bob", "pw"); err != nil {
		t.Fatalf("Login(bob) error = %v", err)
	}
	if h.ctrl.poller != first {
		t.Error("switching users started a second poller")
	}
	if u, _ := h.ctrl.CurrentUser(); u.Username != "bob" {
		t.Errorf("CurrentUser() = %+v, want bob", u)
	}
}

func TestLogin_PollingOutlivesCallContext(t *testing.T) {
	h := newHarness(t, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	if err := h.ctrl.Login(ctx, "alice", "pw"); err != nil {
		cancel()
		t.Fatalf("Login() error = %v", err)
	}
	cancel()

	before := h.api.count("messages")
	waitFor(t, "polls after the login context ended", func() bool {
		return h.api.count("messages") >= before+3
	})

	if !h.ctrl.Polling() || h.ctrl.State() != StateAuthenticated {
		t.Errorf("Polling() = %v, State() = %s", h.ctrl.Polling(), h.ctrl.State())
	}

	if err := h.ctrl.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	stopped := h.api.count("messages")
	time.Sleep(20 * time.Millisecond)
	if n := h.api.count("messages"); n != stopped {
		t.Errorf("polled %d times after logout", n-stopped)
	}
}

func TestNewController_DefaultPollInterval(t *testing.T) {
	api := newFakeAPI()
	ctrl := NewController(api, storage.NewMemoryStore(), nil, Config{})
	t.Cleanup(ctrl.Close)

	if ctrl.cfg.PollInterval != configs.DefaultPollInterval {
		t.Errorf("PollInterval = %s, want %s", ctrl.cfg.PollInterval, configs.DefaultPollInterval)
	}

	if err := ctrl.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !ctrl.Polling() {
		t.Error("Polling() = false after login")
	}
}

func TestLogin_FailureKeepsAnonymous(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "server rejected",
			err:     &apiclient.APIError{Status: 401, Message: "用户名或密码错误"},
			wantMsg: "用户名或密码错误",
		},
		{
			name:    "unreachable",
			err:     &apiclient.NetworkError{Endpoint: apiclient.PathLogin, Err: errors.New("connection refused")},
			wantMsg: networkMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, never)
			h.api.set(func(f *fakeAPI) { f.loginErr = tt.err })

			if err := h.ctrl.Login(ctx, "alice", "pw"); !errors.Is(err, tt.err) {
				t.Fatalf("Login() error = %v, want %v", err, tt.err)
			}
			if got := h.ctrl.State(); got != StateAnonymous {
				t.Errorf("State() = %v, want anonymous", got)
			}
			if h.ctrl.Polling() {
				t.Error("Polling() = true after failed login")
			}
			if _, err := h.store.Get(ctx, SessionKey); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("failed login persisted data: %v", err)
			}
			h.view.snapshot(func(v *recordingView) {
				if v.errors[FormLogin] != tt.wantMsg {
					t.Errorf("login error = %q, want %q", v.errors[FormLogin], tt.wantMsg)
				}
			})
		})
	}
}

func TestLogout_StopsPolling(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2*time.Millisecond)

	if err := h.ctrl.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	waitFor(t, "poll ticks", func() bool { return h.api.count("messages") >= 4 })

	if err := h.ctrl.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	fetched := h.api.count("messages")
	rendered := h.view.renderCount()
	time.Sleep(30 * time.Millisecond)

	if n := h.api.count("messages"); n != fetched {
		t.Errorf("messages fetched after logout: %d -> %d", fetched, n)
	}
	if n := h.view.renderCount(); n != rendered {
		t.Errorf("rendered after logout: %d -> %d", rendered, n)
	}
	if h.ctrl.Polling() {
		t.Error("Polling() = true after logout")
	}
	if _, err := h.store.Get(ctx, SessionKey); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("session still persisted after logout: %v", err)
	}
	h.view.snapshot(func(v *recordingView) {
		if v.screen != "auth" || v.loginCleared != 1 {
			t.Errorf("screen = %q loginCleared = %d", v.screen, v.loginCleared)
		}
	})
}

func TestLogout_DropsLateResponse(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)

	if err := h.ctrl.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	stale := []user.Message{{Username: "alice", Message: "stale"}}
	gate := newGate(stale)
	h.api.set(func(f *fakeAPI) { f.gate = gate })

	done := make(chan error, 1)
	go func() { done <- h.ctrl.RefreshMessages(ctx) }()
	<-gate.entered

	if err := h.ctrl.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	fresh := []user.Message{{Username: "bob", Message: "fresh"}}
	h.api.set(func(f *fakeAPI) { f.messages = fresh })
	if err := h.ctrl.Login(ctx, "bob", "pw"); err != nil {
		t.Fatalf("Login(bob) error = %v", err)
	}

	close(gate.release)
	if err := <-done; err != nil {
		t.Fatalf("RefreshMessages() error = %v", err)
	}

	if got := h.view.lastRender(); !reflect.DeepEqual(got, fresh) {
		t.Errorf("last render = %+v, want the new session's messages", got)
	}
}

func TestPolling_SurvivesFailures(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 2*time.Millisecond)
	h.api.set(func(f *fakeAPI) { f.messagesErr = errors.New("boom") })

	if err := h.ctrl.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	waitFor(t, "ticks after failures", func() bool { return h.api.count("messages") >= 5 })

	h.api.set(func(f *fakeAPI) {
		f.messagesErr = nil
		f.messages = []user.Message{{Username: "bob", Message: "back"}}
	})
	waitFor(t, "render after recovery", func() bool { return h.view.renderCount() >= 1 })

	if !h.ctrl.Polling() {
		t.Error("poller stopped after failed ticks")
	}
}

func TestRefresh_IdempotentRender(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)
	msgs := []user.Message{
		{Username: "bob", Nickname: "Bob", Message: "one", Timestamp: 1},
		{Username: "alice", Nickname: "Alice", Message: "two", Timestamp: 2},
	}
	h.api.set(func(f *fakeAPI) { f.messages = msgs })

	if err := h.ctrl.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := h.ctrl.RefreshMessages(ctx); err != nil {
			t.Fatalf("RefreshMessages() error = %v", err)
		}
	}

	h.view.snapshot(func(v *recordingView) {
		if len(v.renders) != 3 {
			t.Fatalf("renders = %d, want 3", len(v.renders))
		}
		for i := 1; i < len(v.renders); i++ {
			if !reflect.DeepEqual(v.renders[i], v.renders[0]) {
				t.Errorf("render %d = %+v, want %+v", i, v.renders[i], v.renders[0])
			}
		}
	})
}

func TestRefresh_EmptyList(t *testing.T) {
	h := newHarness(t, never)
	h.api.set(func(f *fakeAPI) { f.messages = []user.Message{} })

	if err := h.ctrl.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	h.view.snapshot(func(v *recordingView) {
		if len(v.renders) != 1 || len(v.renders[0]) != 0 {
			t.Errorf("renders = %+v, want one empty render", v.renders)
		}
		if len(v.errors) != 0 || len(v.alerts) != 0 {
			t.Errorf("unexpected errors=%v alerts=%v", v.errors, v.alerts)
		}
	})
}

func TestRefresh_RequiresSession(t *testing.T) {
	h := newHarness(t, never)
	if err := h.ctrl.RefreshMessages(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("RefreshMessages() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestSend(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)

	if err := h.ctrl.Send(ctx, "hello"); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Send() before login error = %v", err)
	}
	if err := h.ctrl.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	for _, blank := range []string{"", "   ", "\n\t"} {
		if err := h.ctrl.Send(ctx, blank); err != nil {
			t.Errorf("Send(%q) error = %v, want silent no-op", blank, err)
		}
	}
	if n := h.api.count("send"); n != 0 {
		t.Fatalf("blank sends hit the network %d times", n)
	}

	before := h.api.count("messages")
	if err := h.ctrl.Send(ctx, "  hello  "); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if n := h.api.count("messages"); n != before+1 {
		t.Errorf("send did not refresh immediately: %d -> %d", before, n)
	}

	h.api.set(func(f *fakeAPI) {
		if len(f.sent) != 1 || f.sent[0].Message != "hello" || f.sent[0].Username != "alice" {
			t.Errorf("sent = %+v", f.sent)
		}
	})
	h.view.snapshot(func(v *recordingView) {
		if v.inputCleared != 1 {
			t.Errorf("inputCleared = %d, want 1", v.inputCleared)
		}
	})
}

func TestSend_MutedByServer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)
	h.api.set(func(f *fakeAPI) {
		f.sendErr = &apiclient.APIError{Status: 403, Message: "您已被禁言", Body: map[string]any{"error": "您已被禁言"}}
	})

	if err := h.ctrl.Login(ctx, "alice", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	fetched := h.api.count("messages")

	if err := h.ctrl.Send(ctx, "hi"); !apiclient.IsMuted(err) {
		t.Fatalf("Send() error = %v, want muted APIError", err)
	}
	if !h.ctrl.Muted() {
		t.Error("Muted() = false after 403 mute response")
	}
	h.view.snapshot(func(v *recordingView) {
		if !v.muted {
			t.Error("input not disabled after mute response")
		}
	})
	if n := h.api.count("messages"); n != fetched {
		t.Errorf("mute handling waited on a refresh: %d -> %d", fetched, n)
	}

	if err := h.ctrl.Send(ctx, "again"); !errors.Is(err, ErrMuted) {
		t.Errorf("second Send() error = %v, want ErrMuted", err)
	}
	if n := h.api.count("send"); n != 1 {
		t.Errorf("send called %d times, want 1", n)
	}
}

func TestSend_OtherForbiddenDoesNotMute(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)
	h.api.set(func(f *fakeAPI) { f.sendErr = &apiclient.APIError{Status: 403, Message: "forbidden"} })

	_ = h.ctrl.Login(ctx, "alice", "pw")
	_ = h.ctrl.Send(ctx, "hi")

	if h.ctrl.Muted() {
		t.Error("Muted() = true for a non-mute 403")
	}
}

func TestMuteSelfThenSend(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)

	if err := h.ctrl.Login(ctx, "bob", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := h.ctrl.Mute(ctx, "bob"); err != nil {
		t.Fatalf("Mute() error = %v", err)
	}
	if !h.ctrl.Muted() {
		t.Fatal("Muted() = false after muting own identity")
	}

	if err := h.ctrl.Send(ctx, "hello"); !errors.Is(err, ErrMuted) {
		t.Errorf("Send() error = %v, want ErrMuted", err)
	}
	if n := h.api.count("send"); n != 0 {
		t.Errorf("send called %d times, want 0", n)
	}

	var alerts int
	h.view.snapshot(func(v *recordingView) { alerts = len(v.alerts) })
	if err := h.ctrl.Send(ctx, "   "); err != nil {
		t.Errorf("Send(blank) while muted error = %v, want silent no-op", err)
	}
	h.view.snapshot(func(v *recordingView) {
		if len(v.alerts) != alerts {
			t.Errorf("blank send while muted alerted %q", v.alerts[alerts:])
		}
	})
}

func TestMuteStateDerivedOnEntry(t *testing.T) {
	h := newHarness(t, never)
	h.api.set(func(f *fakeAPI) { f.muteList = []string{"carol", "alice"} })

	if err := h.ctrl.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !h.ctrl.Muted() {
		t.Error("Muted() = false for a user on the mute list")
	}
}

func TestAdminPanelVisibility(t *testing.T) {
	ctx := context.Background()

	t.Run("admin", func(t *testing.T) {
		h := newHarness(t, never)
		h.api.set(func(f *fakeAPI) {
			f.clearTime = 30
			f.users = []user.User{{Username: testAdmin}, {Username: "bob"}, {Username: "carol"}}
		})

		if err := h.ctrl.Login(ctx, testAdmin, "pw"); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if !h.ctrl.IsAdmin() {
			t.Error("IsAdmin() = false for admin identity")
		}
		h.view.snapshot(func(v *recordingView) {
			if !v.adminVisible {
				t.Error("admin panel hidden for admin")
			}
			if v.clearTime != 30 {
				t.Errorf("clearTime = %d, want 30", v.clearTime)
			}
			if len(v.roster) != 2 {
				t.Errorf("roster = %+v, want admin omitted", v.roster)
			}
			for _, u := range v.roster {
				if u.Username == testAdmin {
					t.Error("roster includes admin identity")
				}
			}
		})
		if n := h.api.count("user-list"); n != 1 {
			t.Errorf("user-list fetched %d times on entry, want 1", n)
		}
	})

	t.Run("regular user", func(t *testing.T) {
		h := newHarness(t, never)

		if err := h.ctrl.Login(ctx, "bob", "pw"); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		h.view.snapshot(func(v *recordingView) {
			if v.adminVisible {
				t.Error("admin panel visible for regular user")
			}
		})
		if n := h.api.count("get-clear-time"); n != 0 {
			t.Errorf("admin data fetched for regular user: %d", n)
		}
	})
}

func TestAdminTargetProtection(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)
	h.view.confirmReply = true
	_ = h.ctrl.Login(ctx, testAdmin, "pw")

	if err := h.ctrl.Mute(ctx, testAdmin); !errors.Is(err, ErrAdminProtected) {
		t.Errorf("Mute(admin) error = %v", err)
	}
	if err := h.ctrl.Remove(ctx, " "+testAdmin+" "); !errors.Is(err, ErrAdminProtected) {
		t.Errorf("Remove(admin) error = %v", err)
	}
	if err := h.ctrl.Mute(ctx, "  "); err == nil {
		t.Error("Mute(blank) expected error")
	}
	if h.api.count("mute") != 0 || h.api.count("remove") != 0 {
		t.Error("protected targets reached the network")
	}
	h.view.snapshot(func(v *recordingView) {
		if len(v.prompts) != 0 {
			t.Errorf("confirmation requested for a rejected target: %v", v.prompts)
		}
	})
}

func TestRemove_Confirmation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)
	_ = h.ctrl.Login(ctx, testAdmin, "pw")

	if err := h.ctrl.Remove(ctx, "bob"); !errors.Is(err, ErrCancelled) {
		t.Errorf("Remove() declined error = %v, want ErrCancelled", err)
	}
	if n := h.api.count("remove"); n != 0 {
		t.Errorf("declined remove hit the network")
	}

	h.view.snapshot(func(v *recordingView) { v.confirmReply = true })
	rosterLoads := h.api.count("user-list")

	if err := h.ctrl.Remove(ctx, "bob"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if n := h.api.count("remove"); n != 1 {
		t.Errorf("remove called %d times", n)
	}
	if n := h.api.count("user-list"); n != rosterLoads+1 {
		t.Errorf("roster not reloaded after remove")
	}
	h.view.snapshot(func(v *recordingView) {
		if last := v.alerts[len(v.alerts)-1]; last != "用户 @bob 已被移除" {
			t.Errorf("last alert = %q", last)
		}
	})
}

func TestMute_Failure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)
	h.api.set(func(f *fakeAPI) { f.muteErr = &apiclient.APIError{Status: 404, Message: "用户不存在"} })
	_ = h.ctrl.Login(ctx, testAdmin, "pw")

	if err := h.ctrl.Mute(ctx, "ghost"); err == nil {
		t.Fatal("Mute() expected error")
	}
	h.view.snapshot(func(v *recordingView) {
		if last := v.alerts[len(v.alerts)-1]; last != "禁言失败: 用户不存在" {
			t.Errorf("last alert = %q", last)
		}
	})
}

func TestSetClearTime(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)
	_ = h.ctrl.Login(ctx, testAdmin, "pw")

	var vErr *ValidationError
	if err := h.ctrl.SetClearTime(ctx, "soon"); !errors.As(err, &vErr) {
		t.Errorf("SetClearTime(soon) error = %v, want ValidationError", err)
	}
	if n := h.api.count("set-clear-time"); n != 0 {
		t.Errorf("invalid period reached the network")
	}

	if err := h.ctrl.SetClearTime(ctx, " 60 "); err != nil {
		t.Fatalf("SetClearTime() error = %v", err)
	}
	h.api.set(func(f *fakeAPI) {
		if len(f.setTimes) != 1 || f.setTimes[0] != 60 {
			t.Errorf("setTimes = %v", f.setTimes)
		}
	})
}

func TestClearMessages(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, never)
	_ = h.ctrl.Login(ctx, testAdmin, "pw")

	if err := h.ctrl.ClearMessages(ctx); !errors.Is(err, ErrCancelled) {
		t.Errorf("ClearMessages() declined error = %v", err)
	}

	h.view.snapshot(func(v *recordingView) { v.confirmReply = true })
	before := h.api.count("messages")

	if err := h.ctrl.ClearMessages(ctx); err != nil {
		t.Fatalf("ClearMessages() error = %v", err)
	}
	if n := h.api.count("clear-messages"); n != 1 {
		t.Errorf("clear-messages called %d times", n)
	}
	if n := h.api.count("messages"); n != before+1 {
		t.Errorf("messages not refreshed after clear")
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("missing field", func(t *testing.T) {
		h := newHarness(t, never)
		err := h.ctrl.Register(ctx, "alice", "pw", "Alice", "  ")

		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Form != FormRegister {
			t.Fatalf("Register() error = %v", err)
		}
		if h.api.count("register") != 0 {
			t.Error("invalid registration reached the network")
		}
	})

	t.Run("success", func(t *testing.T) {
		h := newHarness(t, never)
		if err := h.ctrl.Register(ctx, " alice ", "pw", "Alice", "http://x/a.png"); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		h.view.snapshot(func(v *recordingView) {
			if v.prefill != [2]string{"alice", "pw"} {
				t.Errorf("prefill = %v", v.prefill)
			}
			if len(v.alerts) != 1 || !strings.Contains(v.alerts[0], "注册成功") {
				t.Errorf("alerts = %v", v.alerts)
			}
		})
		if h.ctrl.State() != StateAnonymous {
			t.Error("registration must not log in")
		}
	})

	t.Run("server error", func(t *testing.T) {
		h := newHarness(t, never)
		h.api.set(func(f *fakeAPI) { f.registerErr = &apiclient.APIError{Status: 409, Message: "用户名已存在"} })

		if err := h.ctrl.Register(ctx, "alice", "pw", "Alice", "http://x/a.png"); err == nil {
			t.Fatal("Register() expected error")
		}
		h.view.snapshot(func(v *recordingView) {
			if v.errors[FormRegister] != "用户名已存在" {
				t.Errorf("register error = %q", v.errors[FormRegister])
			}
		})
	})
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	ticks := make(chan struct{}, 16)
	p := StartPoller(context.Background(), time.Millisecond, func(context.Context) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})

	<-ticks
	p.Stop()
	p.Stop()

	after := p.Ticks()
	time.Sleep(10 * time.Millisecond)
	if p.Ticks() != after {
		t.Error("poller ticked after Stop")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: &ValidationError{Form: FormLogin, Message: "x"}, want: "x"},
		{name: "api", err: &apiclient.APIError{Status: 500, Message: "HTTP error, status=500"}, want: "HTTP error, status=500"},
		{name: "network", err: &apiclient.NetworkError{Err: errors.New("dial")}, want: networkMessage},
		{name: "other", err: errors.New("plain"), want: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.err); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

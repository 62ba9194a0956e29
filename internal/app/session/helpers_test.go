package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"monetchat/internal/app/apiclient"
	"monetchat/internal/app/storage"
	"monetchat/internal/app/user"
)

const testAdmin = "xiyue"

// messagesGate blocks the next Messages call until release is closed.
type messagesGate struct {
	entered chan struct{}
	release chan struct{}
	msgs    []user.Message
}

func newGate(msgs []user.Message) *messagesGate {
	return &messagesGate{entered: make(chan struct{}), release: make(chan struct{}), msgs: msgs}
}

// fakeAPI is an in-memory API with call counters.
type fakeAPI struct {
	mu sync.Mutex

	loginUser   user.User
	loginErr    error
	registerErr error
	messages    []user.Message
	messagesErr error
	gate        *messagesGate
	sendErr     error
	sent        []apiclient.OutgoingMessage
	muteList    []string
	muteErr     error
	clearTime   int
	setTimes    []int
	users       []user.User

	calls map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int)}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAPI) Login(_ context.Context, creds apiclient.Credentials) (user.User, error) {
	f.hit("login")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return user.User{}, f.loginErr
	}
	if f.loginUser.Username != "" {
		return f.loginUser, nil
	}
	return user.User{Username: creds.Username, Nickname: creds.Username, Avatar: "http://x/" + creds.Username + ".png"}, nil
}

func (f *fakeAPI) Register(context.Context, apiclient.Registration) error {
	f.hit("register")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registerErr
}

func (f *fakeAPI) Messages(ctx context.Context) ([]user.Message, error) {
	f.mu.Lock()
	f.calls["messages"]++
	gate := f.gate
	f.gate = nil
	msgs, err := f.messages, f.messagesErr
	f.mu.Unlock()

	if gate != nil {
		close(gate.entered)
		select {
		case <-gate.release:
			return gate.msgs, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	return append([]user.Message{}, msgs...), nil
}

func (f *fakeAPI) Send(_ context.Context, msg apiclient.OutgoingMessage) error {
	f.hit("send")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeAPI) GetClearTime(context.Context) (int, error) {
	f.hit("get-clear-time")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clearTime, nil
}

func (f *fakeAPI) SetClearTime(_ context.Context, period int) error {
	f.hit("set-clear-time")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setTimes = append(f.setTimes, period)
	return nil
}

func (f *fakeAPI) UserList(context.Context) ([]user.User, error) {
	f.hit("user-list")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]user.User{}, f.users...), nil
}

func (f *fakeAPI) Mute(context.Context, string) error {
	f.hit("mute")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muteErr
}

func (f *fakeAPI) Remove(context.Context, string) error {
	f.hit("remove")
	return nil
}

func (f *fakeAPI) ClearMessages(context.Context) error {
	f.hit("clear-messages")
	return nil
}

func (f *fakeAPI) MuteList(context.Context) ([]string, error) {
	f.hit("get-mute-list")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.muteList...), nil
}

// recordingView remembers what the controller rendered.
type recordingView struct {
	mu sync.Mutex

	screen       string
	chatUser     user.User
	errors       map[Form]string
	renders      [][]user.Message
	renderedFor  []string
	muted        bool
	adminVisible bool
	clearTime    int
	roster       []user.User
	alerts       []string
	confirmReply bool
	prompts      []string
	inputCleared int
	loginCleared int
	prefill      [2]string
}

func newRecordingView() *recordingView {
	return &recordingView{errors: make(map[Form]string)}
}

func (v *recordingView) ShowAuth() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.screen = "auth"
}

func (v *recordingView) ShowChat(u user.User) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.screen = "chat"
	v.chatUser = u
}

func (v *recordingView) ShowError(form Form, msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors[form] = msg
}

func (v *recordingView) ClearErrors() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = make(map[Form]string)
}

func (v *recordingView) SwitchToLogin(username, password string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.screen = "auth"
	v.prefill = [2]string{username, password}
}

func (v *recordingView) ClearLoginForm() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loginCleared++
}

func (v *recordingView) RenderMessages(msgs []user.Message, currentUsername string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders = append(v.renders, msgs)
	v.renderedFor = append(v.renderedFor, currentUsername)
}

func (v *recordingView) ClearInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inputCleared++
}

func (v *recordingView) SetMuted(muted bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.muted = muted
}

func (v *recordingView) ShowAdminPanel(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.adminVisible = visible
}

func (v *recordingView) RenderClearTime(period int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearTime = period
}

func (v *recordingView) RenderUserList(users []user.User) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.roster = users
}

func (v *recordingView) Alert(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.alerts = append(v.alerts, msg)
}

func (v *recordingView) Confirm(prompt string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prompts = append(v.prompts, prompt)
	return v.confirmReply
}

func (v *recordingView) snapshot(fn func(v *recordingView)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v)
}

func (v *recordingView) renderCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.renders)
}

func (v *recordingView) lastRender() []user.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.renders) == 0 {
		return nil
	}
	return v.renders[len(v.renders)-1]
}

type harness struct {
	api   *fakeAPI
	view  *recordingView
	store storage.StorageService
	ctrl  *Controller
}

func newHarness(t *testing.T, interval time.Duration) *harness {
	t.Helper()

	h := &harness{
		api:   newFakeAPI(),
		view:  newRecordingView(),
		store: storage.NewMemoryStore(),
	}
	h.ctrl = NewController(h.api, h.store, h.view, Config{AdminUsername: testAdmin, PollInterval: interval})
	t.Cleanup(h.ctrl.Close)
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

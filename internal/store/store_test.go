package store

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/genricoloni/mirrorctl/internal/domain"
	"go.uber.org/zap"
)

// memPersister keeps the record as JSON, like the sqlite store does
type memPersister struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	loadErr error
}

func (m *memPersister) Load(ctx context.Context, state *domain.PersistedState) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return false, m.loadErr
	}
	if m.data == nil {
		return false, nil
	}
	return true, json.Unmarshal(m.data, state)
}

func (m *memPersister) Save(ctx context.Context, state domain.PersistedState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.data = b
	m.saves++
	return nil
}

func newTestStore(t *testing.T, p domain.Persister) *Store {
	t.Helper()
	s := New(zap.NewNop(), p, Options{})
	t.Cleanup(s.Close)
	return s
}

func devices(ids ...string) []domain.Device {
	out := make([]domain.Device, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Device{ID: id, Name: "Device " + id, Status: domain.StatusOnline, Type: domain.TransportUSB})
	}
	return out
}

func refresh(s *Store, list []domain.Device) bool {
	return s.ApplyRefresh(s.BeginRefresh(), list)
}

func TestNew_Defaults(t *testing.T) {
	s := newTestStore(t, nil)
	st := s.Snapshot()

	if st.CurrentPage != domain.PageDashboard {
		t.Errorf("page: want dashboard, got %s", st.CurrentPage)
	}
	if st.Theme != domain.ThemeDark {
		t.Errorf("theme: want dark, got %s", st.Theme)
	}
	if st.SelectedDevice != nil {
		t.Errorf("expected no selection, got %+v", st.SelectedDevice)
	}
	if st.IsRunning || st.IsRecording {
		t.Error("session flags should start cleared")
	}
	if !reflect.DeepEqual(st.Config, DefaultConfig()) {
		t.Errorf("config mismatch: %+v", st.Config)
	}
	if len(st.Profiles) != 3 {
		t.Fatalf("expected 3 built-in profiles, got %d", len(st.Profiles))
	}
	for i, id := range []string{"gaming", "streaming", "recording"} {
		if st.Profiles[i].ID != id {
			t.Errorf("profile %d: want %s, got %s", i, id, st.Profiles[i].ID)
		}
	}
}

func TestSetSelectedDevice_SyncsConfigDeviceID(t *testing.T) {
	s := newTestStore(t, nil)
	list := devices("A", "B", "10.0.0.2:5555")

	sequence := []*domain.Device{&list[0], nil, &list[2], &list[1], &list[1], nil}
	for i, d := range sequence {
		s.SetSelectedDevice(d)

		want := ""
		if d != nil {
			want = d.ID
		}
		if got := s.Config().DeviceID; got != want {
			t.Errorf("step %d: config.device_id = %q, want %q", i, got, want)
		}
		sel := s.SelectedDevice()
		if (sel == nil) != (d == nil) || (sel != nil && sel.ID != want) {
			t.Errorf("step %d: selection = %+v, want %q", i, sel, want)
		}
	}
}

func TestApplyRefresh_Selection(t *testing.T) {
	tests := []struct {
		name       string
		initial    []domain.Device
		selectID   string
		fresh      []domain.Device
		expectedID string // empty means no selection
	}{
		{
			name:       "Nothing selected - picks first",
			fresh:      devices("A", "B"),
			expectedID: "A",
		},
		{
			name:       "Nothing selected - empty list keeps nil",
			fresh:      nil,
			expectedID: "",
		},
		{
			name:       "Selected still present - kept",
			initial:    devices("A", "B"),
			selectID:   "B",
			fresh:      devices("A", "B", "C"),
			expectedID: "B",
		},
		{
			name:       "Selected vanished - falls back to first",
			initial:    devices("A", "B"),
			selectID:   "A",
			fresh:      devices("C", "B"),
			expectedID: "C",
		},
		{
			name:       "Selected vanished - empty list clears",
			initial:    devices("A"),
			selectID:   "A",
			fresh:      []domain.Device{},
			expectedID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, nil)
			if tt.initial != nil {
				s.SetDevices(tt.initial)
			}
			if tt.selectID != "" {
				for _, d := range tt.initial {
					if d.ID == tt.selectID {
						s.SetSelectedDevice(&d)
					}
				}
			}

			if !refresh(s, tt.fresh) {
				t.Fatal("refresh with the latest generation must be applied")
			}

			sel := s.SelectedDevice()
			if tt.expectedID == "" {
				if sel != nil {
					t.Errorf("expected no selection, got %s", sel.ID)
				}
			} else if sel == nil || sel.ID != tt.expectedID {
				t.Errorf("expected selection %s, got %+v", tt.expectedID, sel)
			}
			if got := s.Config().DeviceID; got != tt.expectedID {
				t.Errorf("config.device_id = %q, want %q", got, tt.expectedID)
			}
			if got := len(s.Devices()); got != len(tt.fresh) {
				t.Errorf("device list length = %d, want %d", got, len(tt.fresh))
			}
		})
	}
}

func TestApplyRefresh_Scenario(t *testing.T) {
	s := newTestStore(t, nil)

	refresh(s, devices("A", "B"))
	if sel := s.SelectedDevice(); sel == nil || sel.ID != "A" {
		t.Fatalf("expected A selected, got %+v", sel)
	}
	if s.Config().DeviceID != "A" {
		t.Fatalf("expected config device A, got %q", s.Config().DeviceID)
	}

	refresh(s, devices("B"))
	if sel := s.SelectedDevice(); sel == nil || sel.ID != "B" {
		t.Fatalf("expected B selected, got %+v", sel)
	}
	if s.Config().DeviceID != "B" {
		t.Fatalf("expected config device B, got %q", s.Config().DeviceID)
	}
}

func TestApplyRefresh_DropsStaleGeneration(t *testing.T) {
	s := newTestStore(t, nil)

	slow := s.BeginRefresh()
	fast := s.BeginRefresh()

	if !s.ApplyRefresh(fast, devices("B")) {
		t.Fatal("latest generation should apply")
	}
	if s.ApplyRefresh(slow, devices("A")) {
		t.Fatal("stale generation should be dropped")
	}

	got := s.Devices()
	if len(got) != 1 || got[0].ID != "B" {
		t.Errorf("stale result overwrote fresh list: %+v", got)
	}
	if s.Config().DeviceID != "B" {
		t.Errorf("config.device_id = %q, want B", s.Config().DeviceID)
	}
}

func TestSetDevices_RepointsSelection(t *testing.T) {
	s := newTestStore(t, nil)
	list := devices("A")
	s.SetDevices(list)
	s.SetSelectedDevice(&list[0])

	renamed := []domain.Device{{ID: "A", Name: "Pixel 8", Status: domain.StatusOnline}}
	s.SetDevices(renamed)

	if sel := s.SelectedDevice(); sel == nil || sel.Name != "Pixel 8" {
		t.Errorf("selection should follow the refreshed entry, got %+v", sel)
	}
}

func TestSetConfig_MergesPatch(t *testing.T) {
	s := newTestStore(t, nil)

	fps := 90
	codec := domain.CodecAV1
	s.SetConfig(domain.ConfigPatch{MaxFPS: &fps, VideoCodec: &codec})

	want := DefaultConfig()
	want.MaxFPS = 90
	want.VideoCodec = domain.CodecAV1
	if got := s.Config(); !reflect.DeepEqual(got, want) {
		t.Errorf("config mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestSetConfig_ApplyProfileConfig(t *testing.T) {
	s := newTestStore(t, nil)
	profile, ok := s.Profile("gaming")
	if !ok {
		t.Fatal("gaming profile missing")
	}

	s.SetConfig(domain.FullPatch(profile.Config))
	if got := s.Config(); !reflect.DeepEqual(got, profile.Config) {
		t.Fatalf("config should equal profile config:\nwant %+v\ngot  %+v", profile.Config, got)
	}

	borderless := true
	s.SetConfig(domain.ConfigPatch{Borderless: &borderless})
	want := profile.Config
	want.Borderless = true
	if got := s.Config(); !reflect.DeepEqual(got, want) {
		t.Errorf("only the overwritten field should differ:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestResetConfig(t *testing.T) {
	s := newTestStore(t, nil)
	list := devices("A")
	s.SetSelectedDevice(&list[0])

	size := 0
	path := "/tmp/rec.mp4"
	s.SetConfig(domain.ConfigPatch{MaxSize: &size, RecordPath: &path})
	s.ResetConfig()

	if got := s.Config(); !reflect.DeepEqual(got, DefaultConfig()) {
		t.Errorf("reset should restore defaults, got %+v", got)
	}
	if s.Config().DeviceID != "" {
		t.Error("reset must not re-sync the device id")
	}
}

func TestProfiles_AddRemoveRoundTrip(t *testing.T) {
	s := newTestStore(t, nil)
	before := s.Profiles()

	p := domain.Profile{ID: "custom-1700000000000", Name: "X", Icon: "settings-2", Config: s.Config()}
	s.AddProfile(p)
	if got := s.Profiles(); len(got) != len(before)+1 || got[len(got)-1].ID != p.ID {
		t.Fatalf("profile not appended: %+v", got)
	}

	s.RemoveProfile(p.ID)
	if got := s.Profiles(); !reflect.DeepEqual(got, before) {
		t.Errorf("profiles after round-trip:\nwant %+v\ngot  %+v", before, got)
	}
}

func TestUpdateProfile(t *testing.T) {
	s := newTestStore(t, nil)

	name := "Competitive"
	s.UpdateProfile("gaming", domain.ProfilePatch{Name: &name})

	p, _ := s.Profile("gaming")
	if p.Name != "Competitive" {
		t.Errorf("name not updated: %s", p.Name)
	}
	if p.Icon != "gamepad-2" || p.Config.MaxFPS != 120 {
		t.Errorf("untouched fields changed: %+v", p)
	}
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	p := &memPersister{}
	s := newTestStore(t, p)
	s.AddNotification(domain.SeverityInfo, "hello", "")
	before := s.Snapshot()
	savesBefore := p.saves

	calls := 0
	unsubscribe := s.Subscribe(func(Change) { calls++ })
	defer unsubscribe()

	s.RemoveProfile("missing")
	s.UpdateProfile("missing", domain.ProfilePatch{})
	s.RemoveNotification("missing")

	if after := s.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Errorf("state changed:\nbefore %+v\nafter  %+v", before, after)
	}
	if calls != 0 {
		t.Errorf("no-ops should not notify listeners, got %d calls", calls)
	}
	if p.saves != savesBefore {
		t.Errorf("no-ops should not persist, got %d extra saves", p.saves-savesBefore)
	}
}

func TestNotifications_AddRemoveRoundTrip(t *testing.T) {
	s := newTestStore(t, nil)
	s.AddNotification(domain.SeverityInfo, "first", "")
	before := s.Notifications()

	id := s.AddNotification(domain.SeverityError, "Start failed", "scrcpy not found")
	if got := s.Notifications(); len(got) != 2 || got[1].ID != id {
		t.Fatalf("notification not appended in order: %+v", got)
	}

	s.RemoveNotification(id)
	if got := s.Notifications(); !reflect.DeepEqual(got, before) {
		t.Errorf("queue after round-trip:\nwant %+v\ngot  %+v", before, got)
	}
}

func TestNotifications_UniqueIDs(t *testing.T) {
	s := newTestStore(t, nil)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := s.AddNotification(domain.SeverityInfo, "n", "")
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestNotifications_Expire(t *testing.T) {
	s := New(zap.NewNop(), nil, Options{NotificationTTL: 20 * time.Millisecond})
	defer s.Close()

	s.AddNotification(domain.SeverityWarning, "temporary", "")

	deadline := time.Now().Add(2 * time.Second)
	for len(s.Notifications()) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("notification did not expire")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNotifications_ManualDismissCancelsTimer(t *testing.T) {
	s := New(zap.NewNop(), nil, Options{NotificationTTL: time.Hour})
	defer s.Close()

	id := s.AddNotification(domain.SeverityInfo, "dismiss me", "")
	s.RemoveNotification(id)

	s.mu.RLock()
	pending := len(s.timers)
	s.mu.RUnlock()
	if pending != 0 {
		t.Errorf("expected timer to be cancelled, %d still pending", pending)
	}
}

func TestClearNotifications(t *testing.T) {
	s := New(zap.NewNop(), nil, Options{NotificationTTL: time.Hour})
	defer s.Close()

	s.AddNotification(domain.SeverityInfo, "a", "")
	s.AddNotification(domain.SeverityInfo, "b", "")
	s.ClearNotifications()

	if got := s.Notifications(); len(got) != 0 {
		t.Errorf("expected empty queue, got %+v", got)
	}
}

func TestLayoutFlags(t *testing.T) {
	s := newTestStore(t, nil)

	s.ToggleSidebar()
	if !s.Snapshot().SidebarCollapsed {
		t.Error("toggle should collapse the sidebar")
	}
	s.ToggleSidebar()
	if s.Snapshot().SidebarCollapsed {
		t.Error("second toggle should expand the sidebar")
	}

	s.SetTheme(domain.ThemeLight)
	s.SetCurrentPage(domain.PageProfiles)
	s.SetCurrentPage(domain.PageProfiles)
	st := s.Snapshot()
	if st.Theme != domain.ThemeLight || st.CurrentPage != domain.PageProfiles {
		t.Errorf("unexpected layout: theme=%s page=%s", st.Theme, st.CurrentPage)
	}
}

func TestSessionFlags_Permissive(t *testing.T) {
	s := newTestStore(t, nil)
	s.SetIsRecording(true)
	if !s.IsRecording() || s.IsRunning() {
		t.Error("flags are set independently without validation")
	}
}

func TestPersistence_RehydrateCycle(t *testing.T) {
	p := &memPersister{}
	s := New(zap.NewNop(), p, Options{})

	list := devices("A", "B")
	refresh(s, list)
	bitrate := "24M"
	s.SetConfig(domain.ConfigPatch{Bitrate: &bitrate})
	s.AddProfile(domain.Profile{ID: "custom-1", Name: "Mine", Icon: "settings-2", Config: s.Config()})
	s.RemoveProfile("streaming")
	s.SetTheme(domain.ThemeLight)
	s.ToggleSidebar()
	s.SetIsRunning(true)
	s.SetIsRecording(true)
	s.SetCurrentPage(domain.PageSettings)
	s.AddNotification(domain.SeverityInfo, "transient", "")

	before := s.Snapshot()
	s.Close()

	restored := New(zap.NewNop(), p, Options{})
	defer restored.Close()
	after := restored.Snapshot()

	if !reflect.DeepEqual(after.Config, before.Config) {
		t.Errorf("config not restored:\nwant %+v\ngot  %+v", before.Config, after.Config)
	}
	if !reflect.DeepEqual(after.Profiles, before.Profiles) {
		t.Errorf("profiles not restored:\nwant %+v\ngot  %+v", before.Profiles, after.Profiles)
	}
	if after.Theme != domain.ThemeLight || !after.SidebarCollapsed {
		t.Errorf("layout not restored: theme=%s collapsed=%v", after.Theme, after.SidebarCollapsed)
	}

	if len(after.Devices) != 0 || after.SelectedDevice != nil {
		t.Error("devices and selection must not survive a restart")
	}
	if after.IsRunning || after.IsRecording {
		t.Error("session flags must not survive a restart")
	}
	if len(after.Notifications) != 0 {
		t.Error("notifications must not survive a restart")
	}
	if after.CurrentPage != domain.PageDashboard {
		t.Errorf("page must reset to dashboard, got %s", after.CurrentPage)
	}
}

func TestPersistence_EmptyProfilesSurvive(t *testing.T) {
	p := &memPersister{}
	s := New(zap.NewNop(), p, Options{})
	for _, pr := range s.Profiles() {
		s.RemoveProfile(pr.ID)
	}
	s.Close()

	restored := New(zap.NewNop(), p, Options{})
	defer restored.Close()
	if got := restored.Profiles(); len(got) != 0 {
		t.Errorf("deleted built-ins came back: %+v", got)
	}
}

func TestPersistence_MissingFieldsKeepDefaults(t *testing.T) {
	p := &memPersister{data: []byte(`{"config":{"max_fps":30},"theme":"light"}`)}
	s := newTestStore(t, p)

	want := DefaultConfig()
	want.MaxFPS = 30
	if got := s.Config(); !reflect.DeepEqual(got, want) {
		t.Errorf("config mismatch:\nwant %+v\ngot  %+v", want, got)
	}
	if got := s.Profiles(); !reflect.DeepEqual(got, DefaultProfiles()) {
		t.Errorf("absent profiles should fall back to the built-ins, got %+v", got)
	}
}

func TestPersistence_LoadErrorFallsBack(t *testing.T) {
	p := &memPersister{loadErr: errors.New("disk on fire")}
	s := newTestStore(t, p)
	if got := s.Config(); !reflect.DeepEqual(got, DefaultConfig()) {
		t.Errorf("expected defaults after load failure, got %+v", got)
	}
}

func TestTransientMutationsDoNotPersist(t *testing.T) {
	p := &memPersister{}
	s := newTestStore(t, p)

	s.SetIsRunning(true)
	s.SetCurrentPage(domain.PageSettings)
	s.SetDevices(devices("A"))
	s.AddNotification(domain.SeverityInfo, "x", "")

	if p.saves != 0 {
		t.Errorf("transient fields triggered %d saves", p.saves)
	}

	s.SetTheme(domain.ThemeLight)
	if p.saves != 1 {
		t.Errorf("expected one save after theme change, got %d", p.saves)
	}
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t, nil)

	var kinds []ChangeKind
	var added *domain.Notification
	unsubscribe := s.Subscribe(func(c Change) {
		kinds = append(kinds, c.Kind)
		if c.Added != nil {
			added = c.Added
		}
	})

	refresh(s, devices("A"))
	id := s.AddNotification(domain.SeveritySuccess, "ok", "")
	unsubscribe()
	s.SetTheme(domain.ThemeLight)

	want := []ChangeKind{ChangeDevices, ChangeSelection, ChangeNotifications}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("kinds: want %v, got %v", want, kinds)
	}
	if added == nil || added.ID != id {
		t.Errorf("added notification not reported: %+v", added)
	}
}

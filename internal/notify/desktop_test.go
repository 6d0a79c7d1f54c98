//go:build linux

package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/genricoloni/mirrorctl/internal/domain"
	"github.com/genricoloni/mirrorctl/internal/notify/mocks"
	"github.com/genricoloni/mirrorctl/internal/store"
	"github.com/godbus/dbus/v5"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newTestNotifier(t *testing.T, client DBusClient, clientErr error) (*DesktopNotifier, *store.Store) {
	t.Helper()
	st := store.New(zap.NewNop(), nil, store.Options{})
	t.Cleanup(st.Close)

	n := NewDesktopNotifier(zap.NewNop(), st, 4*time.Second)
	n.newClient = func() (DBusClient, error) {
		if clientErr != nil {
			return nil, clientErr
		}
		return client, nil
	}
	return n, st
}

func TestDesktopNotifier_ForwardsAddedNotifications(t *testing.T) {
	tests := []struct {
		name            string
		severity        domain.Severity
		expectedIcon    string
		expectedUrgency byte
	}{
		{name: "Error is critical", severity: domain.SeverityError, expectedIcon: "dialog-error", expectedUrgency: urgencyCritical},
		{name: "Warning is normal", severity: domain.SeverityWarning, expectedIcon: "dialog-warning", expectedUrgency: urgencyNormal},
		{name: "Info is low", severity: domain.SeverityInfo, expectedIcon: "dialog-information", expectedUrgency: urgencyLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockDBusClient(ctrl)
			n, st := newTestNotifier(t, client, nil)

			delivered := make(chan struct{})
			client.EXPECT().
				Notify(gomock.Any(), appName, uint32(0), tt.expectedIcon, "Mirroring Failed", "scrcpy not found",
					gomock.Nil(), gomock.Any(), int32(4000)).
				DoAndReturn(func(_ context.Context, _ string, _ uint32, _, _, _ string, _ []string, hints map[string]dbus.Variant, _ int32) (uint32, error) {
					if got := hints["urgency"].Value(); got != tt.expectedUrgency {
						t.Errorf("expected urgency %d, got %v", tt.expectedUrgency, got)
					}
					close(delivered)
					return 7, nil
				})
			client.EXPECT().Close().Return(nil)

			if err := n.Start(context.Background()); err != nil {
				t.Fatalf("Start failed: %v", err)
			}

			st.AddNotification(tt.severity, "Mirroring Failed", "scrcpy not found")

			select {
			case <-delivered:
			case <-time.After(2 * time.Second):
				t.Fatal("notification was not delivered")
			}

			if err := n.Stop(context.Background()); err != nil {
				t.Fatalf("Stop failed: %v", err)
			}
		})
	}
}

func TestDesktopNotifier_IgnoresOtherChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDBusClient(ctrl)
	n, st := newTestNotifier(t, client, nil)

	// No Notify expectation: any call fails the test
	client.EXPECT().Close().Return(nil)

	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	st.SetTheme(domain.ThemeLight)
	st.SetIsRunning(true)
	st.RemoveNotification("notif-unknown")
	st.ClearNotifications()

	if err := n.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestDesktopNotifier_DeliveryErrorIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDBusClient(ctrl)
	n, st := newTestNotifier(t, client, nil)

	delivered := make(chan struct{}, 2)
	client.EXPECT().
		Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, uint32, string, string, string, []string, map[string]dbus.Variant, int32) (uint32, error) {
			delivered <- struct{}{}
			return 0, errors.New("org.freedesktop.DBus.Error.ServiceUnknown")
		}).Times(2)
	client.EXPECT().Close().Return(nil)

	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	st.AddNotification(domain.SeveritySuccess, "Screenshot Saved", "/tmp/a.png")
	st.AddNotification(domain.SeveritySuccess, "Screenshot Saved", "/tmp/b.png")

	for i := 0; i < 2; i++ {
		select {
		case <-delivered:
		case <-time.After(2 * time.Second):
			t.Fatalf("delivery %d did not happen", i+1)
		}
	}

	if err := n.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestDesktopNotifier_NoSessionBus(t *testing.T) {
	n, st := newTestNotifier(t, nil, errors.New("dbus: DBUS_SESSION_BUS_ADDRESS not set"))

	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("missing bus must not fail startup, got %v", err)
	}

	// Store keeps working without a notifier attached
	st.AddNotification(domain.SeverityInfo, "Mirroring Stopped", "scrcpy stopped")

	if err := n.Stop(context.Background()); err != nil {
		t.Errorf("Stop on a disabled notifier should be a no-op, got %v", err)
	}
}

func TestDesktopNotifier_QueueFullDoesNotBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDBusClient(ctrl)
	n, st := newTestNotifier(t, client, nil)

	release := make(chan struct{})
	client.EXPECT().
		Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, uint32, string, string, string, []string, map[string]dbus.Variant, int32) (uint32, error) {
			<-release
			return 1, nil
		}).AnyTimes()
	client.EXPECT().Close().Return(nil)

	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < queueSize*3; i++ {
			st.AddNotification(domain.SeverityInfo, "Burst", "")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("store mutations blocked on a slow notification daemon")
	}

	close(release)
	if err := n.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestDesktopNotifier_StuckCallIsAbandoned(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDBusClient(ctrl)
	n, st := newTestNotifier(t, client, nil)
	n.callTimeout = 50 * time.Millisecond

	delivered := make(chan string, 2)
	gomock.InOrder(
		client.EXPECT().
			Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), "Hung", gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ string, _ uint32, _, summary, _ string, _ []string, _ map[string]dbus.Variant, _ int32) (uint32, error) {
				<-ctx.Done()
				delivered <- summary
				return 0, ctx.Err()
			}),
		client.EXPECT().
			Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), "Next", gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ uint32, _, summary, _ string, _ []string, _ map[string]dbus.Variant, _ int32) (uint32, error) {
				delivered <- summary
				return 2, nil
			}),
	)
	client.EXPECT().Close().Return(nil)

	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	st.AddNotification(domain.SeverityInfo, "Hung", "")
	st.AddNotification(domain.SeverityInfo, "Next", "")

	for _, want := range []string{"Hung", "Next"} {
		select {
		case got := <-delivered:
			if got != want {
				t.Errorf("expected %q, got %q", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("%q was not attempted; delivery is stuck", want)
		}
	}

	if err := n.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestDesktopNotifier_StopHonorsContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockDBusClient(ctrl)
	n, st := newTestNotifier(t, client, nil)
	n.callTimeout = time.Minute

	entered := make(chan struct{})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	client.EXPECT().
		Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, uint32, string, string, string, []string, map[string]dbus.Variant, int32) (uint32, error) {
			close(entered)
			// a daemon that never answers and ignores cancellation
			<-release
			return 0, nil
		})
	client.EXPECT().Close().Return(nil)

	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	st.AddNotification(domain.SeverityInfo, "Hung", "")

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := n.Stop(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop ignored its context, took %v", elapsed)
	}
}

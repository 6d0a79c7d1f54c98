package executor

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/genricoloni/mirrorctl/internal/domain"
	"go.uber.org/zap"
)

// fakeRunner records invocations and replies from a script
type fakeRunner struct {
	calls   [][]string
	replies map[string]fakeReply
}

type fakeReply struct {
	output string
	err    error
}

func (f *fakeRunner) run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{binary}, args...))
	r := f.replies[strings.Join(args, " ")]
	return []byte(r.output), r.err
}

func newTestADB(f *fakeRunner) *ADBClient {
	return &ADBClient{logger: zap.NewNop(), binary: "adb", run: f.run}
}

func TestParseDeviceList(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected []domain.Device
	}{
		{
			name:     "Empty - header only",
			output:   "List of devices attached\n\n",
			expected: []domain.Device{},
		},
		{
			name: "USB and wireless devices in adb order",
			output: "List of devices attached\n" +
				"R58M123ABC             device usb:1-1 product:beyond1lte model:SM_G973F device:beyond1 transport_id:1\n" +
				"192.168.1.20:5555      device product:sunfish model:Pixel_4a device:sunfish transport_id:3\n",
			expected: []domain.Device{
				{ID: "R58M123ABC", Name: "SM G973F", Status: domain.StatusOnline, Type: domain.TransportUSB, Model: "SM_G973F"},
				{ID: "192.168.1.20:5555", Name: "Pixel 4a", Status: domain.StatusOnline, Type: domain.TransportWireless, Model: "Pixel_4a"},
			},
		},
		{
			name: "Daemon start-up chatter and non-ready states",
			output: "* daemon not running; starting now at tcp:5037\n" +
				"* daemon started successfully\n" +
				"List of devices attached\n" +
				"emulator-5554          offline transport_id:2\n" +
				"0123456789ABCDEF       unauthorized usb:1-2 transport_id:4\n",
			expected: []domain.Device{
				{ID: "emulator-5554", Name: "emulator-5554", Status: domain.StatusOffline, Type: domain.TransportUSB},
				{ID: "0123456789ABCDEF", Name: "0123456789ABCDEF", Status: domain.StatusConnecting, Type: domain.TransportUSB},
			},
		},
		{
			name:     "Malformed line skipped",
			output:   "List of devices attached\nlonely\r\n",
			expected: []domain.Device{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDeviceList(tt.output)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("want %+v\ngot  %+v", tt.expected, got)
			}
		})
	}
}

func TestADBClient_ListDevices_Error(t *testing.T) {
	f := &fakeRunner{replies: map[string]fakeReply{
		"devices -l": {err: errors.New("exec: \"adb\": executable file not found in $PATH")},
	}}
	_, err := newTestADB(f).ListDevices(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to list devices") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestADBClient_Connect(t *testing.T) {
	tests := []struct {
		name          string
		ip, port      string
		reply         fakeReply
		expectedArgs  string
		expectedError string
	}{
		{
			name:         "Success",
			ip:           "192.168.1.20",
			port:         "5555",
			reply:        fakeReply{output: "connected to 192.168.1.20:5555\n"},
			expectedArgs: "connect 192.168.1.20:5555",
		},
		{
			name:         "Already connected counts as success",
			ip:           "192.168.1.20",
			port:         "5555",
			reply:        fakeReply{output: "already connected to 192.168.1.20:5555\n"},
			expectedArgs: "connect 192.168.1.20:5555",
		},
		{
			name:         "Default port",
			ip:           "10.0.0.7",
			reply:        fakeReply{output: "connected to 10.0.0.7:5555\n"},
			expectedArgs: "connect 10.0.0.7:5555",
		},
		{
			name:          "Refused with exit code 0",
			ip:            "10.0.0.8",
			port:          "5555",
			reply:         fakeReply{output: "failed to connect to '10.0.0.8:5555': Connection refused\n"},
			expectedArgs:  "connect 10.0.0.8:5555",
			expectedError: "Connection refused",
		},
		{
			name:          "Cannot connect",
			ip:            "10.0.0.9",
			port:          "5555",
			reply:         fakeReply{output: "cannot connect to 10.0.0.9:5555: No route to host\n"},
			expectedArgs:  "connect 10.0.0.9:5555",
			expectedError: "No route to host",
		},
		{
			name:          "Missing ip",
			ip:            "  ",
			expectedError: "ip address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRunner{replies: map[string]fakeReply{tt.expectedArgs: tt.reply}}
			msg, err := newTestADB(f).Connect(context.Background(), tt.ip, tt.port)

			if tt.expectedError != "" {
				if err == nil || !strings.Contains(err.Error(), tt.expectedError) {
					t.Fatalf("expected error containing %q, got %v", tt.expectedError, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			} else if !strings.HasPrefix(msg, "connected: ") {
				t.Errorf("unexpected message %q", msg)
			}

			if tt.expectedArgs != "" {
				if len(f.calls) != 1 || strings.Join(f.calls[0][1:], " ") != tt.expectedArgs {
					t.Errorf("unexpected calls: %v", f.calls)
				}
			}
		})
	}
}

func TestADBClient_Screenshot(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "shots", "a.png")
	f := &fakeRunner{replies: map[string]fakeReply{
		"-s R58 shell rm " + remoteScreenshot: {err: errors.New("rm failed")},
	}}

	got, err := newTestADB(f).Screenshot(context.Background(), "R58", savePath)
	if err != nil {
		t.Fatalf("cleanup failures must be ignored, got %v", err)
	}
	if got != savePath {
		t.Errorf("expected %s, got %s", savePath, got)
	}

	want := [][]string{
		{"adb", "-s", "R58", "shell", "screencap", "-p", remoteScreenshot},
		{"adb", "-s", "R58", "pull", remoteScreenshot, savePath},
		{"adb", "-s", "R58", "shell", "rm", remoteScreenshot},
	}
	if !reflect.DeepEqual(f.calls, want) {
		t.Errorf("unexpected calls:\nwant %v\ngot  %v", want, f.calls)
	}
}

func TestADBClient_Screenshot_CaptureFails(t *testing.T) {
	savePath := filepath.Join(t.TempDir(), "a.png")
	f := &fakeRunner{replies: map[string]fakeReply{
		"shell screencap -p " + remoteScreenshot: {err: errors.New("device offline")},
	}}

	_, err := newTestADB(f).Screenshot(context.Background(), "", savePath)
	if err == nil || !strings.Contains(err.Error(), "failed to capture screen") {
		t.Fatalf("expected capture error, got %v", err)
	}
	if len(f.calls) != 1 {
		t.Errorf("pull must not run after a failed capture, calls: %v", f.calls)
	}
}

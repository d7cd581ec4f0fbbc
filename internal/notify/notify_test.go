package notify

import (
	"errors"
	"strings"
	"testing"
)

type sent struct {
	title, message string
}

func recordingNotifier(cfg *Config) (*Notifier, *[]sent) {
	var got []sent
	n := NewNotifier(cfg, nil).WithSender(func(title, message, icon string) error {
		got = append(got, sent{title, message})
		return nil
	})
	return n, &got
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Enabled {
		t.Error("Expected Enabled to be true by default")
	}
	if !cfg.ShowCompleted || !cfg.ShowFailed || !cfg.ShowUpdates {
		t.Errorf("Expected every kind shown by default, got %+v", cfg)
	}
}

func TestAllTransfersCompleted(t *testing.T) {
	n, got := recordingNotifier(nil)

	n.AllTransfersCompleted()

	if len(*got) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(*got))
	}
	if (*got)[0].message != "All transfers have been completed" {
		t.Errorf("message = %q", (*got)[0].message)
	}
}

func TestTransferFailedIncludesCause(t *testing.T) {
	n, got := recordingNotifier(nil)

	n.TransferFailed("report.pdf", errors.New("quota exceeded"))

	if len(*got) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(*got))
	}
	msg := (*got)[0].message
	if !strings.Contains(msg, "report.pdf") || !strings.Contains(msg, "quota exceeded") {
		t.Errorf("message = %q, want file name and cause", msg)
	}
}

func TestPerKindToggles(t *testing.T) {
	n, got := recordingNotifier(&Config{Enabled: true, ShowUpdates: true})

	n.AllTransfersCompleted()
	n.TransferFailed("a", nil)
	n.UpdateAvailable("5.2.0")

	if len(*got) != 1 || !strings.Contains((*got)[0].message, "5.2.0") {
		t.Errorf("expected only the update notification, got %+v", *got)
	}
}

func TestNotifierDisabled_NoSend(t *testing.T) {
	n, got := recordingNotifier(&Config{Enabled: false})

	n.AllTransfersCompleted()
	n.TransferFailed("a", nil)
	n.UpdateAvailable("1.0")
	n.SyncFolderAdded("/home/u/Sync")
	n.Alert("test alert")

	if len(*got) != 0 {
		t.Errorf("disabled notifier sent %d notifications", len(*got))
	}
}

func TestSetEnabled(t *testing.T) {
	n, got := recordingNotifier(nil)

	n.SetEnabled(false)
	n.AllTransfersCompleted()
	n.SetEnabled(true)
	n.AllTransfersCompleted()

	if len(*got) != 1 {
		t.Errorf("sent %d notifications, want 1", len(*got))
	}
}

func TestAlertFallsBackToNotify(t *testing.T) {
	var titles []string
	n := NewNotifier(nil, nil)
	n.send = func(title, message, icon string) error {
		titles = append(titles, "notify:"+title)
		return nil
	}
	n.alert = func(title, message, icon string) error {
		return errors.New("no alert support")
	}

	n.Alert("disk full")

	if len(titles) != 1 || !strings.HasPrefix(titles[0], "notify:") {
		t.Errorf("expected fallback notification, got %v", titles)
	}
}

func TestSendErrorIsLoggedNotReturned(t *testing.T) {
	n := NewNotifier(nil, nil).WithSender(func(string, string, string) error {
		return errors.New("dbus unavailable")
	})
	// Must not panic with the nop logger.
	n.AllTransfersCompleted()
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a long string", 10, "this is..."},
		{"", 10, ""},
		{"abcd", 3, "..."},
	}

	for _, tt := range tests {
		if result := truncate(tt.input, tt.maxLen); result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestShortenPath(t *testing.T) {
	long := "/a/very/long/path/that/exceeds/the/maximum/length/for/notification/display/file.txt"
	if got := shortenPath(long); len(got) >= len(long) || !strings.HasSuffix(got, "file.txt") {
		t.Errorf("shortenPath(%q) = %q", long, got)
	}
	if got := shortenPath("/short/path"); got != "/short/path" {
		t.Errorf("short path changed to %q", got)
	}
}

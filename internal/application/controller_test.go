package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"timesgate/internal/application"
	"timesgate/internal/domain"
	"timesgate/internal/infra"
)

type call struct {
	name string
	args []any
}

type mockDevice struct {
	calls []call
	err   error
	// failures makes the first n calls return err, then succeed.
	failures int
	// failOn makes only the call with this 1-based index return err.
	failOn   int
	settings *domain.Settings
	text     []domain.TextOptions
	buzzer   []domain.BuzzerPattern
}

func (m *mockDevice) record(name string, args ...any) error {
	m.calls = append(m.calls, call{name: name, args: args})
	if m.err == nil {
		return nil
	}
	if m.failOn > 0 {
		if len(m.calls) == m.failOn {
			return m.err
		}
		return nil
	}
	if m.failures > 0 {
		m.failures--
		return m.err
	}
	if m.failures < 0 {
		return m.err
	}
	return nil
}

func (m *mockDevice) SetBrightness(_ context.Context, b int) error {
	return m.record("SetBrightness", b)
}

func (m *mockDevice) GetSettings(_ context.Context) (*domain.Settings, error) {
	if err := m.record("GetSettings"); err != nil {
		return nil, err
	}
	return m.settings, nil
}

func (m *mockDevice) SetDeviceTime(_ context.Context, t time.Time) error {
	return m.record("SetDeviceTime", t)
}

func (m *mockDevice) GetDeviceTime(_ context.Context) (*domain.DeviceTime, error) {
	return &domain.DeviceTime{UTCTime: 1}, m.record("GetDeviceTime")
}

func (m *mockDevice) SetTimezone(_ context.Context, tz string) error {
	return m.record("SetTimezone", tz)
}

func (m *mockDevice) SetTemperatureMode(_ context.Context, mode domain.TemperatureMode) error {
	return m.record("SetTemperatureMode", mode)
}

func (m *mockDevice) SetMirrorMode(_ context.Context, on bool) error {
	return m.record("SetMirrorMode", on)
}

func (m *mockDevice) SetTimeFormat(_ context.Context, f domain.TimeFormat) error {
	return m.record("SetTimeFormat", f)
}

func (m *mockDevice) SetScreenPower(_ context.Context, on bool) error {
	return m.record("SetScreenPower", on)
}

func (m *mockDevice) SetWeatherLocation(_ context.Context, lat, lon float64) error {
	return m.record("SetWeatherLocation", lat, lon)
}

func (m *mockDevice) Reboot(_ context.Context) error { return m.record("Reboot") }

func (m *mockDevice) GetChannelInfo(_ context.Context) (domain.Response, error) {
	return domain.Response{"SelectIndex": 1}, m.record("GetChannelInfo")
}

func (m *mockDevice) SetWholeDial(_ context.Context, id int) error {
	return m.record("SetWholeDial", id)
}

func (m *mockDevice) SetIndividualDial(_ context.Context, p domain.Panel, id int) error {
	return m.record("SetIndividualDial", p, id)
}

func (m *mockDevice) GetDialList(_ context.Context) ([]any, error) {
	return []any{"a"}, m.record("GetDialList")
}

func (m *mockDevice) SendText(_ context.Context, text string, opts ...domain.TextOption) error {
	o := domain.DefaultTextOptions()
	for _, opt := range opts {
		opt(&o)
	}
	m.text = append(m.text, o)
	return m.record("SendText", text)
}

func (m *mockDevice) ClearText(_ context.Context, id int) error {
	return m.record("ClearText", id)
}

func (m *mockDevice) PlayGIF(_ context.Context, u string) error {
	return m.record("PlayGIF", u)
}

func (m *mockDevice) GetFontList(_ context.Context) ([]any, error) {
	return nil, m.record("GetFontList")
}

func (m *mockDevice) SetCountdown(_ context.Context, min, sec int, start bool) error {
	return m.record("SetCountdown", min, sec, start)
}

func (m *mockDevice) SetStopwatch(_ context.Context, start bool) error {
	return m.record("SetStopwatch", start)
}

func (m *mockDevice) SetScoreboard(_ context.Context, red, blue int) error {
	return m.record("SetScoreboard", red, blue)
}

func (m *mockDevice) SetNoiseMeter(_ context.Context, on bool) error {
	return m.record("SetNoiseMeter", on)
}

func (m *mockDevice) PlayBuzzer(_ context.Context, opts ...domain.BuzzerOption) error {
	p := domain.DefaultBuzzerPattern()
	for _, opt := range opts {
		opt(&p)
	}
	m.buzzer = append(m.buzzer, p)
	return m.record("PlayBuzzer")
}

func (m *mockDevice) SendCommandList(_ context.Context, cmds []domain.Command) error {
	return m.record("SendCommandList", len(cmds))
}

func (m *mockDevice) SendRawCommand(_ context.Context, cmd domain.Command) (domain.Response, error) {
	return domain.Response{"error_code": 0}, m.record("SendRawCommand", cmd.Name)
}

type mockJournal struct {
	entries []domain.JournalEntry
	err     error
}

func (m *mockJournal) Record(_ context.Context, e domain.JournalEntry) error {
	m.entries = append(m.entries, e)
	return m.err
}

type mockNotifier struct {
	messages []string
}

func (m *mockNotifier) Notify(_ context.Context, msg string) error {
	m.messages = append(m.messages, msg)
	return nil
}

func newController(dev *mockDevice, j application.Journal, n application.Notifier, retry infra.RetryConfig) *application.Controller {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return application.NewController(dev, "gate", j, n, retry, time.Hour, logger)
}

func TestController_DispatchesActions(t *testing.T) {
	tests := []struct {
		action domain.Action
		params string
		want   string
		args   []any
	}{
		{domain.ActionSetBrightness, `{"brightness":80}`, "SetBrightness", []any{80}},
		{domain.ActionSetTimezone, `{"timezone":"GMT-5"}`, "SetTimezone", []any{"GMT-5"}},
		{domain.ActionSetTemperatureMode, `{"mode":"fahrenheit"}`, "SetTemperatureMode", []any{domain.Fahrenheit}},
		{domain.ActionSetTimeFormat, `{"format":"24h"}`, "SetTimeFormat", []any{domain.Hour24}},
		{domain.ActionSetMirrorMode, `{"enabled":true}`, "SetMirrorMode", []any{true}},
		{domain.ActionSetScreenPower, `{"enabled":false}`, "SetScreenPower", []any{false}},
		{domain.ActionSetWeatherLocation, `{"latitude":40.7,"longitude":-74}`, "SetWeatherLocation", []any{40.7, -74.0}},
		{domain.ActionReboot, ``, "Reboot", nil},
		{domain.ActionSetWholeDial, `{"clock_id":12}`, "SetWholeDial", []any{12}},
		{domain.ActionSetIndividualDial, `{"panel":3,"clock_id":7}`, "SetIndividualDial", []any{domain.PanelRight, 7}},
		{domain.ActionClearText, `{}`, "ClearText", []any{domain.AllTextIDs}},
		{domain.ActionClearText, `{"text_id":4}`, "ClearText", []any{4}},
		{domain.ActionPlayGIF, `{"url":"http://x/a.gif"}`, "PlayGIF", []any{"http://x/a.gif"}},
		{domain.ActionSetCountdown, `{"minutes":5,"seconds":0}`, "SetCountdown", []any{5, 0, true}},
		{domain.ActionSetCountdown, `{"minutes":1,"seconds":30,"start":false}`, "SetCountdown", []any{1, 30, false}},
		{domain.ActionSetStopwatch, `{"start":true}`, "SetStopwatch", []any{true}},
		{domain.ActionSetScoreboard, `{"red":3,"blue":2}`, "SetScoreboard", []any{3, 2}},
		{domain.ActionSetNoiseMeter, `{"enabled":true}`, "SetNoiseMeter", []any{true}},
		{domain.ActionSendCommandList, `{"commands":[{"Command":"Device/Reboot"},{"Command":"Channel/GetAllConf"}]}`, "SendCommandList", []any{2}},
		{domain.ActionRaw, `{"Command":"Device/Reboot"}`, "SendRawCommand", []any{domain.CmdReboot}},
		{domain.ActionSetDeviceTime, `{"utc":1700000000}`, "SetDeviceTime", []any{time.Unix(1700000000, 0)}},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			dev := &mockDevice{}
			c := newController(dev, nil, nil, infra.DefaultRetryConfig())

			result, err := c.Execute(context.Background(), domain.ActionRequest{Action: tt.action, Params: json.RawMessage(tt.params)})
			if err != nil {
				t.Fatalf("Execute error: %v", err)
			}
			if !result.Success || result.ID == "" {
				t.Errorf("result: got %+v", result)
			}
			if len(dev.calls) != 1 || dev.calls[0].name != tt.want {
				t.Fatalf("calls: got %+v, want one %s", dev.calls, tt.want)
			}
			got := dev.calls[0].args
			if len(got) != len(tt.args) {
				t.Fatalf("args: got %v, want %v", got, tt.args)
			}
			for i := range got {
				if gt, ok := got[i].(time.Time); ok {
					if !gt.Equal(tt.args[i].(time.Time)) {
						t.Errorf("arg %d: got %v, want %v", i, got[i], tt.args[i])
					}
					continue
				}
				if got[i] != tt.args[i] {
					t.Errorf("arg %d: got %v, want %v", i, got[i], tt.args[i])
				}
			}
		})
	}
}

func TestController_SendTextOptions(t *testing.T) {
	dev := &mockDevice{}
	c := newController(dev, nil, nil, infra.DefaultRetryConfig())

	_, err := c.Execute(context.Background(), domain.ActionRequest{
		Action: domain.ActionSendText,
		Params: json.RawMessage(`{"text":"hi","text_id":3,"color":"#FF0000","speed":20}`),
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	o := dev.text[0]
	if o.TextID != 3 || o.Color != "#FF0000" || o.Speed != 20 {
		t.Errorf("options: got %+v", o)
	}
	if o.Font != domain.FontMedium || o.Align != domain.AlignCenter || o.Width != domain.MaxWidth {
		t.Errorf("defaults not kept: got %+v", o)
	}
}

func TestController_PlayBuzzerOverrides(t *testing.T) {
	dev := &mockDevice{}
	c := newController(dev, nil, nil, infra.DefaultRetryConfig())

	_, err := c.Execute(context.Background(), domain.ActionRequest{
		Action: domain.ActionPlayBuzzer,
		Params: json.RawMessage(`{"total_ms":300}`),
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	p := dev.buzzer[0]
	if p.On != 500*time.Millisecond || p.Off != 500*time.Millisecond || p.Total != 300*time.Millisecond {
		t.Errorf("pattern: got %+v", p)
	}
}

func TestController_QueryPayload(t *testing.T) {
	dev := &mockDevice{settings: &domain.Settings{Brightness: 42}}
	c := newController(dev, nil, nil, infra.DefaultRetryConfig())

	result, err := c.Execute(context.Background(), domain.ActionRequest{Action: domain.ActionGetSettings})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	settings, ok := result.Payload.(*domain.Settings)
	if !ok || settings.Brightness != 42 {
		t.Errorf("payload: got %#v", result.Payload)
	}
}

func TestController_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		action domain.Action
		params string
	}{
		{"missing brightness", domain.ActionSetBrightness, `{}`},
		{"wrong type", domain.ActionSetBrightness, `{"brightness":"high"}`},
		{"unknown field", domain.ActionSetBrightness, `{"brightness":1,"level":2}`},
		{"not an object", domain.ActionSetTimezone, `[1]`},
		{"bad temperature mode", domain.ActionSetTemperatureMode, `{"mode":"kelvin"}`},
		{"bad time format", domain.ActionSetTimeFormat, `{"format":"36h"}`},
		{"missing toggle", domain.ActionSetMirrorMode, `{}`},
		{"unknown toggle field", domain.ActionSetScreenPower, `{"on":true}`},
		{"missing text", domain.ActionSendText, `{"color":"#FFFFFF"}`},
		{"missing longitude", domain.ActionSetWeatherLocation, `{"latitude":1}`},
		{"raw without command", domain.ActionRaw, `{"Brightness":1}`},
		{"query with params", domain.ActionReboot, `{"now":true}`},
		{"bad notify level", domain.ActionNotify, `{"message":"x","level":"panic"}`},
		{"empty countdown", domain.ActionSetCountdown, `{}`},
		{"missing seconds", domain.ActionSetCountdown, `{"minutes":5}`},
		{"empty scoreboard", domain.ActionSetScoreboard, `{}`},
		{"missing blue score", domain.ActionSetScoreboard, `{"red":3}`},
		{"huge buzzer duration", domain.ActionPlayBuzzer, `{"on_ms":9223372036854775807}`},
		{"negative buzzer total", domain.ActionPlayBuzzer, `{"total_ms":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &mockDevice{}
			notifier := &mockNotifier{}
			c := newController(dev, nil, notifier, infra.DefaultRetryConfig())

			result, err := c.Execute(context.Background(), domain.ActionRequest{Action: tt.action, Params: json.RawMessage(tt.params)})
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("error: got %v, want ValidationError", err)
			}
			if result.Success || result.ErrorKind != domain.KindValidation {
				t.Errorf("result: got %+v", result)
			}
			if len(dev.calls) != 0 {
				t.Errorf("device calls: got %+v, want none", dev.calls)
			}
			if len(notifier.messages) != 0 {
				t.Errorf("validation failure should not notify: got %v", notifier.messages)
			}
		})
	}
}

func TestController_UnknownAction(t *testing.T) {
	journal := &mockJournal{}
	c := newController(&mockDevice{}, journal, nil, infra.DefaultRetryConfig())

	result, err := c.Execute(context.Background(), domain.ActionRequest{ID: "req-1", Action: "dance"})
	if !errors.Is(err, domain.ErrUnknownAction) {
		t.Fatalf("error: got %v, want ErrUnknownAction", err)
	}
	if result.ID != "req-1" || result.ErrorKind != domain.KindUnknownAction {
		t.Errorf("result: got %+v", result)
	}
	if len(journal.entries) != 1 || journal.entries[0].Action != "dance" {
		t.Errorf("journal: got %+v", journal.entries)
	}
}

func TestController_ProtocolFailureIsJournaledAndNotified(t *testing.T) {
	dev := &mockDevice{
		err:      &domain.ProtocolError{Command: domain.CmdReboot, Code: 3, CodeKnown: true},
		failures: -1,
	}
	journal := &mockJournal{err: errors.New("table missing")}
	notifier := &mockNotifier{}
	c := newController(dev, journal, notifier, infra.DefaultRetryConfig())

	result, err := c.Execute(context.Background(), domain.ActionRequest{ID: "r", Action: domain.ActionReboot})
	if !errors.Is(err, domain.ErrProtocol) {
		t.Fatalf("error: got %v, want ProtocolError", err)
	}
	if result.ErrorCode == nil || *result.ErrorCode != 3 {
		t.Errorf("error code: got %v, want 3", result.ErrorCode)
	}
	if result.ErrorKind != domain.KindProtocol {
		t.Errorf("kind: got %s, want %s", result.ErrorKind, domain.KindProtocol)
	}

	if len(journal.entries) != 1 {
		t.Fatalf("journal entries: got %d, want 1", len(journal.entries))
	}
	entry := journal.entries[0]
	if entry.Success || entry.Device != "gate" || entry.ErrorKind != domain.KindProtocol {
		t.Errorf("entry: got %+v", entry)
	}
	if entry.ExpiresAt-entry.Timestamp != 3600 {
		t.Errorf("ttl: got %d, want 3600", entry.ExpiresAt-entry.Timestamp)
	}

	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "reboot failed") {
		t.Errorf("notifications: got %v", notifier.messages)
	}
}

func TestController_RetriesTransportErrors(t *testing.T) {
	dev := &mockDevice{
		err:      &domain.TransportError{Command: domain.CmdSetBrightness, Err: errors.New("connection refused")},
		failures: 2,
	}
	retry := infra.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	c := newController(dev, nil, nil, retry)

	result, err := c.Execute(context.Background(), domain.ActionRequest{
		Action: domain.ActionSetBrightness,
		Params: json.RawMessage(`{"brightness":10}`),
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !result.Success {
		t.Errorf("result: got %+v", result)
	}
	if len(dev.calls) != 3 {
		t.Errorf("attempts: got %d, want 3", len(dev.calls))
	}
}

func TestController_NoRetryByDefault(t *testing.T) {
	dev := &mockDevice{
		err:      &domain.TransportError{Command: domain.CmdReboot, Err: errors.New("timeout")},
		failures: -1,
	}
	c := newController(dev, nil, nil, infra.DefaultRetryConfig())

	result, err := c.Execute(context.Background(), domain.ActionRequest{Action: domain.ActionReboot})
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("error: got %v, want TransportError", err)
	}
	if result.ErrorKind != domain.KindTransport || result.ErrorCode != nil {
		t.Errorf("result: got %+v", result)
	}
	if len(dev.calls) != 1 {
		t.Errorf("attempts: got %d, want 1", len(dev.calls))
	}
}

func TestController_Notify(t *testing.T) {
	dev := &mockDevice{}
	c := newController(dev, nil, nil, infra.DefaultRetryConfig())

	_, err := c.Execute(context.Background(), domain.ActionRequest{
		Action: domain.ActionNotify,
		Params: json.RawMessage(`{"message":"Connection failed","level":"error"}`),
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	names := make([]string, 0, len(dev.calls))
	for _, cl := range dev.calls {
		names = append(names, cl.name)
	}
	if strings.Join(names, ",") != "PlayBuzzer,SendText,SendText" {
		t.Fatalf("calls: got %v", names)
	}

	want := domain.BuzzerPattern{On: 300 * time.Millisecond, Off: 100 * time.Millisecond, Total: 700 * time.Millisecond}
	if dev.buzzer[0] != want {
		t.Errorf("buzzer: got %+v, want %+v", dev.buzzer[0], want)
	}
	if dev.calls[1].args[0] != "ERROR" || dev.text[0].Color != "#FF0000" {
		t.Errorf("label: got %v in %s", dev.calls[1].args[0], dev.text[0].Color)
	}
	if dev.calls[2].args[0] != "Connection failed" || dev.text[1].TextID != 2 || dev.text[1].Speed != 30 {
		t.Errorf("message: got %v %+v", dev.calls[2].args[0], dev.text[1])
	}
}

func TestController_NotifyRetriesFailedStepOnly(t *testing.T) {
	dev := &mockDevice{
		err:    &domain.TransportError{Command: domain.CmdSendHTTPText, Err: errors.New("connection reset")},
		failOn: 2,
	}
	retry := infra.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	c := newController(dev, nil, nil, retry)

	result, err := c.Execute(context.Background(), domain.ActionRequest{
		Action: domain.ActionNotify,
		Params: json.RawMessage(`{"message":"Door open","level":"warning"}`),
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !result.Success {
		t.Errorf("result: got %+v", result)
	}

	names := make([]string, 0, len(dev.calls))
	for _, cl := range dev.calls {
		names = append(names, cl.name)
	}
	if strings.Join(names, ",") != "PlayBuzzer,SendText,SendText,SendText" {
		t.Errorf("calls: got %v, want one buzzer then label retried once", names)
	}
}

func TestController_NotifyDefaultsToInfo(t *testing.T) {
	dev := &mockDevice{}
	c := newController(dev, nil, nil, infra.DefaultRetryConfig())

	if err := c.Alert(context.Background(), "", "short"); err != nil {
		t.Fatalf("Alert error: %v", err)
	}
	if dev.text[0].Color != "#0080FF" {
		t.Errorf("color: got %s, want #0080FF", dev.text[0].Color)
	}
	if dev.text[1].Speed != 0 {
		t.Errorf("short message should not scroll: speed %d", dev.text[1].Speed)
	}
}

package timesgate

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"timesgate/internal/domain"
)

// Dispatcher is the single round trip every device operation goes through.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) (domain.Response, error)
}

// Device maps typed calls onto commands. Arguments are validated before
// anything is dispatched.
type Device struct {
	dispatcher Dispatcher
	now        func() time.Time
}

func NewDevice(dispatcher Dispatcher) *Device {
	return &Device{dispatcher: dispatcher, now: time.Now}
}

// NewDeviceWithClock is NewDevice with a custom time source for SetDeviceTime.
func NewDeviceWithClock(dispatcher Dispatcher, now func() time.Time) *Device {
	return &Device{dispatcher: dispatcher, now: now}
}

func (d *Device) send(ctx context.Context, cmd domain.Command) error {
	_, err := d.dispatcher.Dispatch(ctx, cmd)
	return err
}

// System settings

func (d *Device) SetBrightness(ctx context.Context, brightness int) error {
	if err := domain.CheckRange("brightness", brightness, 0, 100); err != nil {
		return err
	}
	return d.send(ctx, domain.NewCommand(domain.CmdSetBrightness, domain.P("Brightness", brightness)))
}

func (d *Device) GetSettings(ctx context.Context) (*domain.Settings, error) {
	resp, err := d.dispatcher.Dispatch(ctx, domain.NewCommand(domain.CmdGetAllConf))
	if err != nil {
		return nil, err
	}
	settings := &domain.Settings{Raw: resp}
	// A mistyped field stays zero; the reply is still available in Raw.
	_ = resp.Decode(settings)
	return settings, nil
}

// SetDeviceTime sets the device clock. A zero t means now.
func (d *Device) SetDeviceTime(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		t = d.now()
	}
	return d.send(ctx, domain.NewCommand(domain.CmdSetUTC, domain.P("Utc", t.Unix())))
}

func (d *Device) GetDeviceTime(ctx context.Context) (*domain.DeviceTime, error) {
	resp, err := d.dispatcher.Dispatch(ctx, domain.NewCommand(domain.CmdGetDeviceTime))
	if err != nil {
		return nil, err
	}
	dt := &domain.DeviceTime{Raw: resp}
	_ = resp.Decode(dt)
	return dt, nil
}

// SetTimezone passes the zone through as given, e.g. "GMT-5".
func (d *Device) SetTimezone(ctx context.Context, tz string) error {
	return d.send(ctx, domain.NewCommand(domain.CmdSetTimeZone, domain.P("TimeZoneValue", tz)))
}

func (d *Device) SetTemperatureMode(ctx context.Context, mode domain.TemperatureMode) error {
	if err := domain.CheckRange("temperature mode", int(mode), int(domain.Celsius), int(domain.Fahrenheit)); err != nil {
		return err
	}
	return d.send(ctx, domain.NewCommand(domain.CmdSetTempMode, domain.P("Mode", int(mode))))
}

func (d *Device) SetMirrorMode(ctx context.Context, enabled bool) error {
	return d.send(ctx, domain.NewCommand(domain.CmdSetMirrorMode, domain.P("Mode", domain.Flag(enabled))))
}

func (d *Device) SetTimeFormat(ctx context.Context, format domain.TimeFormat) error {
	if err := domain.CheckRange("time format", int(format), int(domain.Hour12), int(domain.Hour24)); err != nil {
		return err
	}
	return d.send(ctx, domain.NewCommand(domain.CmdSetTime24Flag, domain.P("Mode", int(format))))
}

func (d *Device) SetScreenPower(ctx context.Context, on bool) error {
	return d.send(ctx, domain.NewCommand(domain.CmdOnOffScreen, domain.P("OnOff", domain.Flag(on))))
}

// SetWeatherLocation sets the coordinates used for the weather display. The
// device expects both values as strings.
func (d *Device) SetWeatherLocation(ctx context.Context, latitude, longitude float64) error {
	if math.IsNaN(latitude) || latitude < -90 || latitude > 90 {
		return &domain.ValidationError{Field: "latitude", Value: latitude, Reason: "must be between -90 and 90"}
	}
	if math.IsNaN(longitude) || longitude < -180 || longitude > 180 {
		return &domain.ValidationError{Field: "longitude", Value: longitude, Reason: "must be between -180 and 180"}
	}
	return d.send(ctx, domain.NewCommand(domain.CmdSetLogAndLat,
		domain.P("Latitude", strconv.FormatFloat(latitude, 'f', -1, 64)),
		domain.P("Longitude", strconv.FormatFloat(longitude, 'f', -1, 64)),
	))
}

func (d *Device) Reboot(ctx context.Context) error {
	return d.send(ctx, domain.NewCommand(domain.CmdReboot))
}

// Display control

func (d *Device) GetChannelInfo(ctx context.Context) (domain.Response, error) {
	return d.dispatcher.Dispatch(ctx, domain.NewCommand(domain.CmdGetCurChannelInfo))
}

func (d *Device) SetWholeDial(ctx context.Context, clockID int) error {
	if clockID < 0 {
		return &domain.ValidationError{Field: "clock id", Value: clockID, Reason: "must not be negative"}
	}
	return d.send(ctx, domain.NewCommand(domain.CmdSetWholeDial, domain.P("ClockId", clockID)))
}

func (d *Device) SetIndividualDial(ctx context.Context, panel domain.Panel, clockID int) error {
	if err := domain.CheckRange("lcd id", int(panel), int(domain.MinPanel), int(domain.MaxPanel)); err != nil {
		return err
	}
	if clockID < 0 {
		return &domain.ValidationError{Field: "clock id", Value: clockID, Reason: "must not be negative"}
	}
	return d.send(ctx, domain.NewCommand(domain.CmdSetIndividualDial,
		domain.P("LcdId", int(panel)),
		domain.P("ClockId", clockID),
	))
}

// GetDialList returns the ClockList of the reply, or nil when absent.
func (d *Device) GetDialList(ctx context.Context) ([]any, error) {
	resp, err := d.dispatcher.Dispatch(ctx, domain.NewCommand(domain.CmdGetWholeDial))
	if err != nil {
		return nil, err
	}
	list, _ := resp["ClockList"].([]any)
	return list, nil
}

// Animation and text

func (d *Device) SendText(ctx context.Context, text string, opts ...domain.TextOption) error {
	o := domain.DefaultTextOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return err
	}
	return d.send(ctx, domain.NewCommand(domain.CmdSendHTTPText,
		domain.P("TextId", o.TextID),
		domain.P("x", o.X),
		domain.P("y", o.Y),
		domain.P("dir", int(o.Direction)),
		domain.P("font", int(o.Font)),
		domain.P("TextWidth", o.Width),
		domain.P("TextString", text),
		domain.P("speed", o.Speed),
		domain.P("color", o.Color),
		domain.P("align", int(o.Align)),
	))
}

// ClearText removes one text item. Use ClearAllText, or domain.AllTextIDs, to remove
// every item.
func (d *Device) ClearText(ctx context.Context, textID int) error {
	if textID != domain.AllTextIDs {
		if err := domain.CheckRange("text id", textID, 0, domain.MaxTextID); err != nil {
			return err
		}
	}
	return d.send(ctx, domain.NewCommand(domain.CmdClearHTTPText, domain.P("TextId", textID)))
}

func (d *Device) ClearAllText(ctx context.Context) error {
	return d.ClearText(ctx, domain.AllTextIDs)
}

// PlayGIF plays a GIF fetched by the device from rawURL.
func (d *Device) PlayGIF(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &domain.ValidationError{Field: "gif url", Value: rawURL, Reason: "must be an absolute URL"}
	}
	return d.send(ctx, domain.NewCommand(domain.CmdPlayTFGif,
		domain.P("FileType", 2),
		domain.P("FileName", rawURL),
	))
}

// GetFontList returns the FontList of the reply, or nil when absent.
func (d *Device) GetFontList(ctx context.Context) ([]any, error) {
	resp, err := d.dispatcher.Dispatch(ctx, domain.NewCommand(domain.CmdGetFontList))
	if err != nil {
		return nil, err
	}
	list, _ := resp["FontList"].([]any)
	return list, nil
}

// Tools

func (d *Device) SetCountdown(ctx context.Context, minutes, seconds int, start bool) error {
	if err := domain.CheckRange("minutes", minutes, 0, 99); err != nil {
		return err
	}
	if err := domain.CheckRange("seconds", seconds, 0, 59); err != nil {
		return err
	}
	return d.send(ctx, domain.NewCommand(domain.CmdSetTimer,
		domain.P("Minute", minutes),
		domain.P("Second", seconds),
		domain.P("Status", domain.Flag(start)),
	))
}

// SetStopwatch starts the stopwatch, or stops and resets it.
func (d *Device) SetStopwatch(ctx context.Context, start bool) error {
	return d.send(ctx, domain.NewCommand(domain.CmdSetStopWatch, domain.P("Status", domain.Flag(start))))
}

func (d *Device) SetScoreboard(ctx context.Context, redScore, blueScore int) error {
	if err := domain.CheckRange("red score", redScore, 0, 999); err != nil {
		return err
	}
	if err := domain.CheckRange("blue score", blueScore, 0, 999); err != nil {
		return err
	}
	return d.send(ctx, domain.NewCommand(domain.CmdSetScoreBoard,
		domain.P("RedScore", redScore),
		domain.P("BlueScore", blueScore),
	))
}

func (d *Device) SetNoiseMeter(ctx context.Context, enabled bool) error {
	return d.send(ctx, domain.NewCommand(domain.CmdSetNoiseStatus, domain.P("Status", domain.Flag(enabled))))
}

// PlayBuzzer sounds the buzzer; durations are sent in whole milliseconds.
func (d *Device) PlayBuzzer(ctx context.Context, opts ...domain.BuzzerOption) error {
	p := domain.DefaultBuzzerPattern()
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return d.send(ctx, domain.NewCommand(domain.CmdPlayBuzzer,
		domain.P("ActiveTimeInCycle", p.On.Milliseconds()),
		domain.P("OffTimeInCycle", p.Off.Milliseconds()),
		domain.P("PlayTotalTime", p.Total.Milliseconds()),
	))
}

// Advanced

// SendCommandList runs several commands on the device in one request.
func (d *Device) SendCommandList(ctx context.Context, cmds []domain.Command) error {
	if len(cmds) == 0 {
		return &domain.ValidationError{Field: "command list", Reason: "must not be empty"}
	}
	for i, cmd := range cmds {
		if err := cmd.Validate(); err != nil {
			return &domain.ValidationError{Field: fmt.Sprintf("command list[%d]", i), Reason: err.Error()}
		}
	}
	return d.send(ctx, domain.NewCommand(domain.CmdCommandList, domain.P("CommandList", cmds)))
}

// SendRawCommand forwards cmd as is and returns the whole reply.
func (d *Device) SendRawCommand(ctx context.Context, cmd domain.Command) (domain.Response, error) {
	return d.dispatcher.Dispatch(ctx, cmd)
}

package application

import (
	"context"
	"time"

	"timesgate/internal/domain"
)

// DeviceController is the typed command surface of one Times Gate.
type DeviceController interface {
	SetBrightness(ctx context.Context, brightness int) error
	GetSettings(ctx context.Context) (*domain.Settings, error)
	SetDeviceTime(ctx context.Context, t time.Time) error
	GetDeviceTime(ctx context.Context) (*domain.DeviceTime, error)
	SetTimezone(ctx context.Context, tz string) error
	SetTemperatureMode(ctx context.Context, mode domain.TemperatureMode) error
	SetMirrorMode(ctx context.Context, enabled bool) error
	SetTimeFormat(ctx context.Context, format domain.TimeFormat) error
	SetScreenPower(ctx context.Context, on bool) error
	SetWeatherLocation(ctx context.Context, latitude, longitude float64) error
	Reboot(ctx context.Context) error

	GetChannelInfo(ctx context.Context) (domain.Response, error)
	SetWholeDial(ctx context.Context, clockID int) error
	SetIndividualDial(ctx context.Context, panel domain.Panel, clockID int) error
	GetDialList(ctx context.Context) ([]any, error)

	SendText(ctx context.Context, text string, opts ...domain.TextOption) error
	ClearText(ctx context.Context, textID int) error
	PlayGIF(ctx context.Context, rawURL string) error
	GetFontList(ctx context.Context) ([]any, error)

	SetCountdown(ctx context.Context, minutes, seconds int, start bool) error
	SetStopwatch(ctx context.Context, start bool) error
	SetScoreboard(ctx context.Context, redScore, blueScore int) error
	SetNoiseMeter(ctx context.Context, enabled bool) error
	PlayBuzzer(ctx context.Context, opts ...domain.BuzzerOption) error

	SendCommandList(ctx context.Context, cmds []domain.Command) error
	SendRawCommand(ctx context.Context, cmd domain.Command) (domain.Response, error)
}

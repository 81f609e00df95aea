package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"timesgate/internal/domain"
	"timesgate/internal/infra"
)

type handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Controller runs named actions against one device. It is shared by the HTTP
// and MQTT bridges and the CLI.
type Controller struct {
	device     DeviceController
	deviceName string
	journal    Journal
	notifier   Notifier
	retry      infra.RetryConfig
	journalTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
	handlers   map[domain.Action]handlerFunc
}

func NewController(
	device DeviceController,
	deviceName string,
	journal Journal,
	notifier Notifier,
	retry infra.RetryConfig,
	journalTTL time.Duration,
	logger *slog.Logger,
) *Controller {
	if journal == nil {
		journal = &NoopJournal{}
	}
	if notifier == nil {
		notifier = &NoopNotifier{}
	}
	c := &Controller{
		device:     device,
		deviceName: deviceName,
		journal:    journal,
		notifier:   notifier,
		retry:      retry,
		journalTTL: journalTTL,
		logger:     logger,
		now:        time.Now,
	}
	c.handlers = c.routes()
	return c
}

// Actions lists every action Execute accepts.
func (c *Controller) Actions() []domain.Action {
	actions := make([]domain.Action, 0, len(c.handlers))
	for a := range c.handlers {
		actions = append(actions, a)
	}
	return actions
}

// Execute runs one action. The returned result is never nil; err is the
// same failure described by the result, for callers that map it to a
// status code.
func (c *Controller) Execute(ctx context.Context, req domain.ActionRequest) (*domain.ActionResult, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	start := c.now()

	var payload any
	var err error

	handler, ok := c.handlers[req.Action]
	if !ok {
		err = fmt.Errorf("%w: %q", domain.ErrUnknownAction, req.Action)
	} else if req.Action == domain.ActionNotify {
		// Alert retries each device call itself so a retry never replays the buzzer.
		payload, err = handler(ctx, req.Params)
	} else {
		err = infra.WithRetry(ctx, c.retry, func() error {
			var callErr error
			payload, callErr = handler(ctx, req.Params)
			return callErr
		})
	}

	result := &domain.ActionResult{
		ID:         req.ID,
		Action:     req.Action,
		Success:    err == nil,
		Payload:    payload,
		DurationMS: c.now().Sub(start).Milliseconds(),
	}
	if err != nil {
		result.Payload = nil
		result.Error = err.Error()
		result.ErrorKind = domain.ErrorKind(err)
		if code, ok := domain.ErrorCode(err); ok {
			result.ErrorCode = &code
		}
		c.logger.Warn("action failed",
			"id", req.ID,
			"action", req.Action,
			"kind", result.ErrorKind,
			"error", err,
		)
	} else {
		c.logger.Info("action executed", "id", req.ID, "action", req.Action, "duration_ms", result.DurationMS)
	}

	c.record(ctx, req, result, start)

	if err != nil && (result.ErrorKind == domain.KindTransport || result.ErrorKind == domain.KindProtocol) {
		msg := fmt.Sprintf("%s: %s failed: %s", c.deviceName, req.Action, err.Error())
		if notifyErr := c.notifier.Notify(ctx, msg); notifyErr != nil {
			c.logger.Error("notifying failure", "error", notifyErr)
		}
	}

	return result, err
}

func (c *Controller) record(ctx context.Context, req domain.ActionRequest, result *domain.ActionResult, start time.Time) {
	entry := domain.JournalEntry{
		RequestID:  req.ID,
		Device:     c.deviceName,
		Action:     req.Action,
		Params:     string(req.Params),
		Success:    result.Success,
		ErrorKind:  result.ErrorKind,
		Error:      result.Error,
		ErrorCode:  result.ErrorCode,
		DurationMS: result.DurationMS,
		Timestamp:  start.Unix(),
	}
	if c.journalTTL > 0 {
		entry.ExpiresAt = start.Add(c.journalTTL).Unix()
	}
	if err := c.journal.Record(ctx, entry); err != nil {
		c.logger.Error("recording journal entry", "id", req.ID, "error", err)
	}
}

// none adapts an error-only device call to a handler result.
func none(err error) (any, error) {
	return nil, err
}

func (c *Controller) routes() map[domain.Action]handlerFunc {
	d := c.device
	return map[domain.Action]handlerFunc{
		domain.ActionSetBrightness: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p brightnessParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			if err := required("brightness", p.Brightness != nil); err != nil {
				return nil, err
			}
			return none(d.SetBrightness(ctx, *p.Brightness))
		},
		domain.ActionGetSettings: func(ctx context.Context, raw json.RawMessage) (any, error) {
			if err := decodeParams(raw, &struct{}{}); err != nil {
				return nil, err
			}
			return d.GetSettings(ctx)
		},
		domain.ActionSetDeviceTime: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p deviceTimeParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			return none(d.SetDeviceTime(ctx, p.time()))
		},
		domain.ActionGetDeviceTime: func(ctx context.Context, raw json.RawMessage) (any, error) {
			if err := decodeParams(raw, &struct{}{}); err != nil {
				return nil, err
			}
			return d.GetDeviceTime(ctx)
		},
		domain.ActionSetTimezone: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p timezoneParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			if err := required("timezone", p.Timezone != nil); err != nil {
				return nil, err
			}
			return none(d.SetTimezone(ctx, *p.Timezone))
		},
		domain.ActionSetTemperatureMode: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p temperatureModeParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			mode, err := p.mode()
			if err != nil {
				return nil, err
			}
			return none(d.SetTemperatureMode(ctx, mode))
		},
		domain.ActionSetMirrorMode: toggle("enabled", d.SetMirrorMode),
		domain.ActionSetTimeFormat: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p timeFormatParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			format, err := p.format()
			if err != nil {
				return nil, err
			}
			return none(d.SetTimeFormat(ctx, format))
		},
		domain.ActionSetScreenPower: toggle("enabled", d.SetScreenPower),
		domain.ActionSetWeatherLocation: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p weatherLocationParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			if err := required("latitude", p.Latitude != nil); err != nil {
				return nil, err
			}
			if err := required("longitude", p.Longitude != nil); err != nil {
				return nil, err
			}
			return none(d.SetWeatherLocation(ctx, *p.Latitude, *p.Longitude))
		},
		domain.ActionReboot: func(ctx context.Context, raw json.RawMessage) (any, error) {
			if err := decodeParams(raw, &struct{}{}); err != nil {
				return nil, err
			}
			return none(d.Reboot(ctx))
		},
		domain.ActionGetChannelInfo: func(ctx context.Context, raw json.RawMessage) (any, error) {
			if err := decodeParams(raw, &struct{}{}); err != nil {
				return nil, err
			}
			return d.GetChannelInfo(ctx)
		},
		domain.ActionSetWholeDial: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p dialParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			if err := required("clock_id", p.ClockID != nil); err != nil {
				return nil, err
			}
			return none(d.SetWholeDial(ctx, *p.ClockID))
		},
		domain.ActionSetIndividualDial: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p dialParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			if err := required("panel", p.Panel != nil); err != nil {
				return nil, err
			}
			if err := required("clock_id", p.ClockID != nil); err != nil {
				return nil, err
			}
			return none(d.SetIndividualDial(ctx, domain.Panel(*p.Panel), *p.ClockID))
		},
		domain.ActionGetDialList: func(ctx context.Context, raw json.RawMessage) (any, error) {
			if err := decodeParams(raw, &struct{}{}); err != nil {
				return nil, err
			}
			return d.GetDialList(ctx)
		},
		domain.ActionSendText: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p textParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			if err := required("text", p.Text != nil); err != nil {
				return nil, err
			}
			return none(d.SendText(ctx, *p.Text, p.options()...))
		},
		domain.ActionClearText: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p clearTextParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			id := domain.AllTextIDs
			if p.TextID != nil {
				id = *p.TextID
			}
			return none(d.ClearText(ctx, id))
		},
		domain.ActionPlayGIF: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p gifParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			if err := required("url", p.URL != nil); err != nil {
				return nil, err
			}
			return none(d.PlayGIF(ctx, *p.URL))
		},
		domain.ActionGetFontList: func(ctx context.Context, raw json.RawMessage) (any, error) {
			if err := decodeParams(raw, &struct{}{}); err != nil {
				return nil, err
			}
			return d.GetFontList(ctx)
		},
		domain.ActionSetCountdown: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p countdownParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			if err := required("minutes", p.Minutes != nil); err != nil {
				return nil, err
			}
			if err := required("seconds", p.Seconds != nil); err != nil {
				return nil, err
			}
			start := true
			if p.Start != nil {
				start = *p.Start
			}
			return none(d.SetCountdown(ctx, *p.Minutes, *p.Seconds, start))
		},
		domain.ActionSetStopwatch: toggle("start", d.SetStopwatch),
		domain.ActionSetScoreboard: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p scoreboardParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			if err := required("red", p.Red != nil); err != nil {
				return nil, err
			}
			if err := required("blue", p.Blue != nil); err != nil {
				return nil, err
			}
			return none(d.SetScoreboard(ctx, *p.Red, *p.Blue))
		},
		domain.ActionSetNoiseMeter: toggle("enabled", d.SetNoiseMeter),
		domain.ActionPlayBuzzer: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p buzzerParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			if err := p.validate(); err != nil {
				return nil, err
			}
			return none(d.PlayBuzzer(ctx, p.options()...))
		},
		domain.ActionSendCommandList: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p commandListParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			return none(d.SendCommandList(ctx, p.Commands))
		},
		domain.ActionRaw: func(ctx context.Context, raw json.RawMessage) (any, error) {
			cmd, err := domain.ParseCommand(raw)
			if err != nil {
				return nil, err
			}
			return d.SendRawCommand(ctx, cmd)
		},
		domain.ActionNotify: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var p notifyParams
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			if err := required("message", p.Message != nil); err != nil {
				return nil, err
			}
			return none(c.Alert(ctx, NotifyLevel(p.Level), *p.Message))
		},
	}
}

// toggle builds a handler for a single required boolean parameter.
func toggle(field string, call func(context.Context, bool) error) handlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p map[string]*bool
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		for k := range p {
			if k != field {
				return nil, &domain.ValidationError{Field: "params", Reason: fmt.Sprintf("unknown field %q", k)}
			}
		}
		v, ok := p[field]
		if err := required(field, ok && v != nil); err != nil {
			return nil, err
		}
		return none(call(ctx, *v))
	}
}

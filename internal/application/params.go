package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"timesgate/internal/domain"
)

// decodeParams strictly decodes raw into v. Empty params decode as {}.
func decodeParams(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &domain.ValidationError{Field: "params", Reason: err.Error()}
	}
	return nil
}

func required(field string, present bool) error {
	if !present {
		return &domain.ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}

type brightnessParams struct {
	Brightness *int `json:"brightness"`
}

type deviceTimeParams struct {
	// UTC is a unix timestamp in seconds; absent means now.
	UTC *int64 `json:"utc"`
}

func (p deviceTimeParams) time() time.Time {
	if p.UTC == nil {
		return time.Time{}
	}
	return time.Unix(*p.UTC, 0)
}

type timezoneParams struct {
	Timezone *string `json:"timezone"`
}

type temperatureModeParams struct {
	Mode string `json:"mode"`
}

func (p temperatureModeParams) mode() (domain.TemperatureMode, error) {
	switch p.Mode {
	case "celsius", "c":
		return domain.Celsius, nil
	case "fahrenheit", "f":
		return domain.Fahrenheit, nil
	}
	return 0, &domain.ValidationError{Field: "temperature mode", Value: p.Mode, Reason: "must be celsius or fahrenheit"}
}

type timeFormatParams struct {
	Format string `json:"format"`
}

func (p timeFormatParams) format() (domain.TimeFormat, error) {
	switch p.Format {
	case "12h", "12":
		return domain.Hour12, nil
	case "24h", "24":
		return domain.Hour24, nil
	}
	return 0, &domain.ValidationError{Field: "time format", Value: p.Format, Reason: "must be 12h or 24h"}
}

type weatherLocationParams struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type dialParams struct {
	Panel   *int `json:"panel"`
	ClockID *int `json:"clock_id"`
}

type textParams struct {
	Text      *string `json:"text"`
	TextID    *int    `json:"text_id"`
	X         *int    `json:"x"`
	Y         *int    `json:"y"`
	Direction *int    `json:"direction"`
	Font      *int    `json:"font"`
	Width     *int    `json:"width"`
	Speed     *int    `json:"speed"`
	Color     *string `json:"color"`
	Align     *int    `json:"align"`
}

// options returns a TextOption for every field that was set.
func (p textParams) options() []domain.TextOption {
	var opts []domain.TextOption
	if p.TextID != nil {
		opts = append(opts, domain.WithTextID(*p.TextID))
	}
	if p.X != nil || p.Y != nil {
		x, y := 0, 0
		if p.X != nil {
			x = *p.X
		}
		if p.Y != nil {
			y = *p.Y
		}
		opts = append(opts, domain.WithPosition(x, y))
	}
	if p.Direction != nil {
		opts = append(opts, domain.WithDirection(domain.ScrollDirection(*p.Direction)))
	}
	if p.Font != nil {
		opts = append(opts, domain.WithFont(domain.FontSize(*p.Font)))
	}
	if p.Width != nil {
		opts = append(opts, domain.WithWidth(*p.Width))
	}
	if p.Speed != nil {
		opts = append(opts, domain.WithSpeed(*p.Speed))
	}
	if p.Color != nil {
		opts = append(opts, domain.WithColor(*p.Color))
	}
	if p.Align != nil {
		opts = append(opts, domain.WithAlignment(domain.TextAlignment(*p.Align)))
	}
	return opts
}

type clearTextParams struct {
	TextID *int `json:"text_id"`
}

type gifParams struct {
	URL *string `json:"url"`
}

type countdownParams struct {
	Minutes *int  `json:"minutes"`
	Seconds *int  `json:"seconds"`
	Start   *bool `json:"start"`
}

type scoreboardParams struct {
	Red  *int `json:"red"`
	Blue *int `json:"blue"`
}

type buzzerParams struct {
	OnMS    *int64 `json:"on_ms"`
	OffMS   *int64 `json:"off_ms"`
	TotalMS *int64 `json:"total_ms"`
}

// maxBuzzerMS caps each buzzer duration at one hour.
const maxBuzzerMS = int64(time.Hour / time.Millisecond)

func (p buzzerParams) validate() error {
	fields := []struct {
		name string
		v    *int64
	}{{"on_ms", p.OnMS}, {"off_ms", p.OffMS}, {"total_ms", p.TotalMS}}
	for _, f := range fields {
		if f.v != nil && (*f.v < 0 || *f.v > maxBuzzerMS) {
			return &domain.ValidationError{
				Field:  f.name,
				Value:  *f.v,
				Reason: fmt.Sprintf("must be between 0 and %d", maxBuzzerMS),
			}
		}
	}
	return nil
}

func (p buzzerParams) options() []domain.BuzzerOption {
	return []domain.BuzzerOption{func(b *domain.BuzzerPattern) {
		if p.OnMS != nil {
			b.On = time.Duration(*p.OnMS) * time.Millisecond
		}
		if p.OffMS != nil {
			b.Off = time.Duration(*p.OffMS) * time.Millisecond
		}
		if p.TotalMS != nil {
			b.Total = time.Duration(*p.TotalMS) * time.Millisecond
		}
	}}
}

type commandListParams struct {
	Commands []domain.Command `json:"commands"`
}

type notifyParams struct {
	Message *string `json:"message"`
	Level   string  `json:"level"`
}

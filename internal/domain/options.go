package domain

import (
	"regexp"
	"time"
)

const (
	// AllTextIDs clears every text item.
	AllTextIDs = -1
	MaxTextID  = 19
	MaxWidth   = 64
	MaxSpeed   = 100
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// TextOptions lists every field of Draw/SendHttpText besides the text itself.
type TextOptions struct {
	TextID    int
	X         int
	Y         int
	Direction ScrollDirection
	Font      FontSize
	Width     int
	Speed     int
	Color     string
	Align     TextAlignment
}

func DefaultTextOptions() TextOptions {
	return TextOptions{
		TextID:    1,
		X:         0,
		Y:         0,
		Direction: ScrollLeft,
		Font:      FontMedium,
		Width:     MaxWidth,
		Speed:     0,
		Color:     "#FFFFFF",
		Align:     AlignCenter,
	}
}

type TextOption func(*TextOptions)

func WithTextID(id int) TextOption {
	return func(o *TextOptions) { o.TextID = id }
}

func WithPosition(x, y int) TextOption {
	return func(o *TextOptions) {
		o.X = x
		o.Y = y
	}
}

func WithDirection(dir ScrollDirection) TextOption {
	return func(o *TextOptions) { o.Direction = dir }
}

func WithFont(font FontSize) TextOption {
	return func(o *TextOptions) { o.Font = font }
}

func WithWidth(width int) TextOption {
	return func(o *TextOptions) { o.Width = width }
}

// WithSpeed sets the scroll speed; 0 is static.
func WithSpeed(speed int) TextOption {
	return func(o *TextOptions) { o.Speed = speed }
}

// WithColor takes a #RRGGBB hex color.
func WithColor(color string) TextOption {
	return func(o *TextOptions) { o.Color = color }
}

func WithAlignment(align TextAlignment) TextOption {
	return func(o *TextOptions) { o.Align = align }
}

// WithTextOptions replaces every option at once.
func WithTextOptions(opts TextOptions) TextOption {
	return func(o *TextOptions) { *o = opts }
}

func (o TextOptions) Validate() error {
	if err := CheckRange("text id", o.TextID, 0, MaxTextID); err != nil {
		return err
	}
	if err := CheckRange("direction", int(o.Direction), int(ScrollLeft), int(ScrollRight)); err != nil {
		return err
	}
	if err := CheckRange("font", int(o.Font), int(FontTiny), int(FontHuge)); err != nil {
		return err
	}
	if err := CheckRange("width", o.Width, 1, MaxWidth); err != nil {
		return err
	}
	if err := CheckRange("speed", o.Speed, 0, MaxSpeed); err != nil {
		return err
	}
	if err := CheckRange("alignment", int(o.Align), int(AlignLeft), int(AlignRight)); err != nil {
		return err
	}
	if !colorPattern.MatchString(o.Color) {
		return &ValidationError{Field: "color", Value: o.Color, Reason: "must be #RRGGBB"}
	}
	return nil
}

// BuzzerPattern is one Device/PlayBuzzer cycle description. The device works
// in whole milliseconds.
type BuzzerPattern struct {
	On    time.Duration
	Off   time.Duration
	Total time.Duration
}

func DefaultBuzzerPattern() BuzzerPattern {
	return BuzzerPattern{
		On:    500 * time.Millisecond,
		Off:   500 * time.Millisecond,
		Total: 2000 * time.Millisecond,
	}
}

type BuzzerOption func(*BuzzerPattern)

func WithCycle(on, off time.Duration) BuzzerOption {
	return func(p *BuzzerPattern) {
		p.On = on
		p.Off = off
	}
}

func WithTotal(total time.Duration) BuzzerOption {
	return func(p *BuzzerPattern) { p.Total = total }
}

func WithPattern(pattern BuzzerPattern) BuzzerOption {
	return func(p *BuzzerPattern) { *p = pattern }
}

func (p BuzzerPattern) Validate() error {
	for _, f := range []struct {
		name string
		d    time.Duration
	}{
		{"buzzer on time", p.On},
		{"buzzer off time", p.Off},
		{"buzzer total time", p.Total},
	} {
		if f.d < 0 {
			return &ValidationError{Field: f.name, Value: f.d, Reason: "must not be negative"}
		}
	}
	return nil
}

package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"timesgate/internal/domain"
	"timesgate/internal/infra"
)

// NotifyLevel selects the colour and buzzer pattern of an on-screen alert.
type NotifyLevel string

const (
	LevelInfo    NotifyLevel = "info"
	LevelWarning NotifyLevel = "warning"
	LevelError   NotifyLevel = "error"
	LevelSuccess NotifyLevel = "success"
)

type alertStyle struct {
	color  string
	buzzer domain.BuzzerPattern
}

func pattern(on, off, total int) domain.BuzzerPattern {
	return domain.BuzzerPattern{
		On:    time.Duration(on) * time.Millisecond,
		Off:   time.Duration(off) * time.Millisecond,
		Total: time.Duration(total) * time.Millisecond,
	}
}

var alertStyles = map[NotifyLevel]alertStyle{
	LevelInfo:    {color: "#0080FF", buzzer: pattern(100, 0, 100)},
	LevelWarning: {color: "#FFA500", buzzer: pattern(200, 100, 500)},
	LevelError:   {color: "#FF0000", buzzer: pattern(300, 100, 700)},
	LevelSuccess: {color: "#00FF00", buzzer: pattern(150, 50, 350)},
}

const (
	alertLabelTextID   = 1
	alertMessageTextID = 2
	// Messages longer than this scroll.
	alertScrollAfter = 10
	alertScrollSpeed = 30
)

// Alert beeps and shows message under a coloured level label. Each device
// call is retried on its own under the controller's retry policy.
func (c *Controller) Alert(ctx context.Context, level NotifyLevel, message string) error {
	if level == "" {
		level = LevelInfo
	}
	style, ok := alertStyles[level]
	if !ok {
		return &domain.ValidationError{Field: "level", Value: string(level), Reason: "must be info, warning, error or success"}
	}
	if strings.TrimSpace(message) == "" {
		return &domain.ValidationError{Field: "message", Reason: "must not be empty"}
	}

	err := infra.WithRetry(ctx, c.retry, func() error {
		return c.device.PlayBuzzer(ctx, domain.WithPattern(style.buzzer))
	})
	if err != nil {
		return fmt.Errorf("playing alert buzzer: %w", err)
	}

	err = infra.WithRetry(ctx, c.retry, func() error {
		return c.device.SendText(ctx, strings.ToUpper(string(level)),
			domain.WithTextID(alertLabelTextID),
			domain.WithPosition(0, 5),
			domain.WithColor(style.color),
		)
	})
	if err != nil {
		return fmt.Errorf("showing alert label: %w", err)
	}

	speed := 0
	if len(message) > alertScrollAfter {
		speed = alertScrollSpeed
	}
	err = infra.WithRetry(ctx, c.retry, func() error {
		return c.device.SendText(ctx, message,
			domain.WithTextID(alertMessageTextID),
			domain.WithPosition(0, 25),
			domain.WithFont(domain.FontLarge),
			domain.WithSpeed(speed),
		)
	})
	if err != nil {
		return fmt.Errorf("showing alert message: %w", err)
	}
	return nil
}

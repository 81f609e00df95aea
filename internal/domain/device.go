package domain

// Panel addresses one of the five LCD panels.
type Panel int

const (
	PanelLeft   Panel = 1
	PanelTop    Panel = 2
	PanelRight  Panel = 3
	PanelBottom Panel = 4
	PanelCenter Panel = 5
)

const (
	MinPanel = PanelLeft
	MaxPanel = PanelCenter
)

type TextAlignment int

const (
	AlignLeft   TextAlignment = 0
	AlignCenter TextAlignment = 1
	AlignRight  TextAlignment = 2
)

type FontSize int

const (
	FontTiny   FontSize = 0 // 5px
	FontSmall  FontSize = 1 // 8px
	FontMedium FontSize = 2 // 11px
	FontLarge  FontSize = 3 // 14px
	FontHuge   FontSize = 4 // 16px
)

type ScrollDirection int

const (
	ScrollLeft  ScrollDirection = 0
	ScrollRight ScrollDirection = 1
)

type TemperatureMode int

const (
	Celsius    TemperatureMode = 0
	Fahrenheit TemperatureMode = 1
)

type TimeFormat int

const (
	Hour12 TimeFormat = 0
	Hour24 TimeFormat = 1
)

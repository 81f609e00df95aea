package domain

// Settings is the reply to Channel/GetAllConf. Fields the device sends with an
// unexpected type are left zero; Raw always holds the full reply.
type Settings struct {
	Brightness          int `json:"Brightness"`
	RotationFlag        int `json:"RotationFlag"`
	ClockTime           int `json:"ClockTime"`
	GalleryTime         int `json:"GalleryTime"`
	SingleGalleyTime    int `json:"SingleGalleyTime"`
	PowerOnChannelID    int `json:"PowerOnChannelId"`
	GalleryShowTimeFlag int `json:"GalleryShowTimeFlag"`
	CurClockID          int `json:"CurClockId"`
	Time24Flag          int `json:"Time24Flag"`
	TemperatureMode     int `json:"TemperatureMode"`
	GyrateAngle         int `json:"GyrateAngle"`
	MirrorFlag          int `json:"MirrorFlag"`
	LightSwitch         int `json:"LightSwitch"`

	Raw Response `json:"-"`
}

// DeviceTime is the reply to Device/GetDeviceTime.
type DeviceTime struct {
	UTCTime   int64  `json:"UTCTime"`
	LocalTime string `json:"LocalTime"`

	Raw Response `json:"-"`
}

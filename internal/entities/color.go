package entities

// Color is a Google Keep note color as sent on the wire.
type Color string

const (
	// ColorUnset leaves the destination's default color untouched.
	ColorUnset Color = ""

	ColorWhite    Color = "DEFAULT"
	ColorRed      Color = "RED"
	ColorOrange   Color = "ORANGE"
	ColorYellow   Color = "YELLOW"
	ColorGreen    Color = "GREEN"
	ColorTeal     Color = "TEAL"
	ColorBlue     Color = "BLUE"
	ColorDarkBlue Color = "CERULEAN"
	ColorPurple   Color = "PURPLE"
	ColorPink     Color = "PINK"
	ColorBrown    Color = "BROWN"
	ColorGray     Color = "GRAY"
)

func (c Color) IsSet() bool {
	return c != ColorUnset
}

func (c Color) String() string {
	if c == ColorUnset {
		return "unset"
	}
	return string(c)
}

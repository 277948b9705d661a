// Package intensity maps the single user-facing slider value onto a hardware
// brightness target and an overlay opacity.
package intensity

// Level is the slider position, 0 to 100.
type Level int

// Brightness is a hardware backlight target, 0 to 100.
type Brightness int

// Alpha is the overlay opacity, 0 (transparent) to 255.
type Alpha uint8

const (
	MinLevel Level = 0
	MaxLevel Level = 100

	// Knee is the last level handled by the hardware backlight alone. Above it
	// the backlight stays at MaxBrightness and the overlay darkens instead.
	Knee Level = 50

	MaxBrightness Brightness = 100

	alphaPerStep = 5
)

// Clamp pins any integer into the valid level range.
func Clamp(level int) Level {
	switch {
	case level < int(MinLevel):
		return MinLevel
	case level > int(MaxLevel):
		return MaxLevel
	}
	return Level(level)
}

// Map converts a slider value into a brightness command and an overlay alpha.
// Levels up to and including Knee scale the backlight at twice the slider rate
// with no overlay. Above Knee the backlight is pinned at MaxBrightness and the
// overlay gains 5 alpha per step, topping out at 250.
func Map(level int) (Brightness, Alpha) {
	l := Clamp(level)
	if l <= Knee {
		return Brightness(l * 2), 0
	}
	return MaxBrightness, Alpha((l - Knee) * alphaPerStep)
}

// Dimming reports how much of the overlay range the level uses, 0 to 1.
func Dimming(level int) float64 {
	_, a := Map(level)
	return float64(a) / 255
}

package converter

import "github.com/mrlokans/ne2keep/internal/entities"

// PriorityToColor maps a source priority to a Keep color. The second result
// is false for priorities outside 0-5, in which case the color is unset.
func PriorityToColor(priority int64) (entities.Color, bool) {
	switch priority {
	case 0:
		return entities.ColorWhite, true
	case 1:
		return entities.ColorDarkBlue, true
	case 2:
		return entities.ColorBlue, true
	case 3:
		return entities.ColorGray, true
	case 4:
		return entities.ColorYellow, true
	case 5:
		return entities.ColorRed, true
	default:
		return entities.ColorUnset, false
	}
}

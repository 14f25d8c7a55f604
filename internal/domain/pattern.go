package domain

// Pattern names a set of card positions whose simultaneous marking wins
type Pattern string

const (
	PatternLineHorizontal1 Pattern = "LINE_HORIZONTAL_1"
	PatternLineHorizontal2 Pattern = "LINE_HORIZONTAL_2"
	PatternLineHorizontal3 Pattern = "LINE_HORIZONTAL_3"
	PatternLineHorizontal4 Pattern = "LINE_HORIZONTAL_4"
	PatternLineHorizontal5 Pattern = "LINE_HORIZONTAL_5"
	PatternLineVertical1   Pattern = "LINE_VERTICAL_1"
	PatternLineVertical2   Pattern = "LINE_VERTICAL_2"
	PatternLineVertical3   Pattern = "LINE_VERTICAL_3"
	PatternLineVertical4   Pattern = "LINE_VERTICAL_4"
	PatternLineVertical5   Pattern = "LINE_VERTICAL_5"
	PatternDiagonalMain    Pattern = "DIAGONAL_MAIN"
	PatternDiagonalAnti    Pattern = "DIAGONAL_ANTI"
	PatternFourCorners     Pattern = "FOUR_CORNERS"
	PatternDiamondSmall    Pattern = "DIAMOND_SMALL"
	PatternDiamondBig      Pattern = "DIAMOND_BIG"
	PatternFullCard        Pattern = "FULL_CARD"
)

// AllPatterns is the default winning configuration of a game, in evaluation order
var AllPatterns = []Pattern{
	PatternLineHorizontal1, PatternLineHorizontal2, PatternLineHorizontal3,
	PatternLineHorizontal4, PatternLineHorizontal5,
	PatternLineVertical1, PatternLineVertical2, PatternLineVertical3,
	PatternLineVertical4, PatternLineVertical5,
	PatternDiagonalMain, PatternDiagonalAnti,
	PatternFourCorners, PatternDiamondSmall, PatternDiamondBig,
	PatternFullCard,
}

// Valid reports whether p is a known pattern
func (p Pattern) Valid() bool {
	for _, known := range AllPatterns {
		if known == p {
			return true
		}
	}
	return false
}

package utils

// Badge is a display tier derived from a points balance.
type Badge struct {
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	MinPoints int    `json:"minPoints"`
}

// Badges is ordered from the highest tier down.
var Badges = []Badge{
	{Name: "Planet Guardian", Icon: "🌍", MinPoints: 1000},
	{Name: "Eco Champion", Icon: "🏆", MinPoints: 500},
	{Name: "Recycler", Icon: "♻️", MinPoints: 200},
	{Name: "Sprout", Icon: "🌿", MinPoints: 50},
	{Name: "Seedling", Icon: "🌱", MinPoints: 0},
}

// BadgeFor returns the tier for a balance.
func BadgeFor(points int) Badge {
	for _, b := range Badges {
		if points >= b.MinPoints {
			return b
		}
	}
	return Badges[len(Badges)-1]
}

package planner

import (
	"strings"

	"gamewright/internal/logger"
)

var genericPlan = []string{
	"Initialize PyGame and create the game window",
	"Create the main game object",
	"Implement controls for the game object",
	"Add the game logic and mechanics",
	"Set up rendering and the interface",
	"Test and debug the game",
}

var snakePlan = []string{
	"Initialize PyGame and the playing field",
	"Create the snake class with movement",
	"Generate food on the field",
	"Implement arrow-key controls",
	"Handle collisions and snake growth",
	"Display the score and game state",
}

var platformerPlan = []string{
	"Create the window and background",
	"Implement the player with physics and gravity",
	"Create platforms and obstacles",
	"Implement controls and jumping",
	"Detect collisions with platforms",
	"Add enemies or collectible items",
}

// fallbackPlan substitutes a fixed plan when decomposition produced nothing
// usable. Known archetypes get a tailored plan instead of the generic one.
func fallbackPlan(taskDescription string) []string {
	logger.Log.Printf("[planner] fallback plan for: %s", taskDescription)

	lower := strings.ToLower(taskDescription)
	switch {
	case strings.Contains(lower, "snake"):
		return append([]string(nil), snakePlan...)
	case strings.Contains(lower, "platformer"):
		return append([]string(nil), platformerPlan...)
	default:
		return append([]string(nil), genericPlan...)
	}
}
